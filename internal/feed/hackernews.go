package feed

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bilgisen/postgen/internal/logger"
	"github.com/bilgisen/postgen/internal/models"
)

const DefaultHackerNewsURL = "https://hacker-news.firebaseio.com/v0"

type hnItem struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	Time        int64  `json:"time"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Dead        bool   `json:"dead"`
	Deleted     bool   `json:"deleted"`
}

// HackerNews reads the top stories from the Firebase API
type HackerNews struct {
	client      *resty.Client
	baseURL     string
	limit       int
	concurrency int
}

func NewHackerNews(client *resty.Client, baseURL string, limit, concurrency int) *HackerNews {
	if baseURL == "" {
		baseURL = DefaultHackerNewsURL
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &HackerNews{client: client, baseURL: baseURL, limit: limit, concurrency: concurrency}
}

func (h *HackerNews) Source() models.Source {
	return models.SourceHackerNews
}

// Fetch returns up to limit stories in top-stories order. Items that fail to
// load are skipped; the run still returns what it could read.
func (h *HackerNews) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	var ids []int64
	if err := getJSON(ctx, h.client, h.baseURL+"/topstories.json", nil, &ids); err != nil {
		return nil, err
	}
	if h.limit > 0 && len(ids) > h.limit {
		ids = ids[:h.limit]
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	stories := make([]*hnItem, len(ids))
	semaphore := make(chan struct{}, h.concurrency)

	for i, id := range ids {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			defer func() { <-semaphore }()

			var item hnItem
			url := fmt.Sprintf("%s/item/%d.json", h.baseURL, id)
			if err := getJSON(ctx, h.client, url, nil, &item); err != nil {
				logger.Debug().Err(err).Int64("hn_id", id).Msg("Skipping story")
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			stories[i] = &item
		}(i, id)
	}
	wg.Wait()

	records := make([]models.RawRecord, 0, len(stories))
	for _, s := range stories {
		if s == nil || s.Type != "story" || s.Dead || s.Deleted {
			continue
		}
		records = append(records, hnRecord(*s))
	}

	if failed > 0 && failed == len(ids) {
		return records, fmt.Errorf("all %d story lookups failed", failed)
	}
	return records, nil
}

func hnRecord(s hnItem) models.RawRecord {
	id := strconv.FormatInt(s.ID, 10)
	url := s.URL
	if url == "" {
		url = "https://news.ycombinator.com/item?id=" + id
	}
	summary := s.Text
	if summary == "" {
		summary = s.Title
	}
	engagement := s.Score + s.Descendants

	var published string
	if s.Time > 0 {
		published = time.Unix(s.Time, 0).UTC().Format(time.RFC3339)
	}

	return models.RawRecord{
		Source:       models.SourceHackerNews,
		ExternalID:   id,
		Title:        s.Title,
		URL:          url,
		Summary:      summary,
		PublishedRaw: published,
		Engagement:   &engagement,
	}
}
