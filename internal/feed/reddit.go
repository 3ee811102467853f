package feed

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bilgisen/postgen/internal/models"
)

const DefaultRedditURL = "https://www.reddit.com"

var subredditCategories = map[string]models.Category{
	"machinelearning":      models.CategoryAI,
	"artificial":           models.CategoryAI,
	"localllama":           models.CategoryAI,
	"deeplearning":         models.CategoryAI,
	"devops":               models.CategoryDevOps,
	"kubernetes":           models.CategoryDevOps,
	"docker":               models.CategoryDevOps,
	"sre":                  models.CategoryDevOps,
	"aws":                  models.CategoryCloud,
	"azure":                models.CategoryCloud,
	"googlecloud":          models.CategoryCloud,
	"cloudcomputing":       models.CategoryCloud,
	"datascience":          models.CategoryDataScience,
	"dataengineering":      models.CategoryDataScience,
	"statistics":           models.CategoryDataScience,
	"learnmachinelearning": models.CategoryAI,
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Selftext    string  `json:"selftext"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Stickied    bool    `json:"stickied"`
	IsSelf      bool    `json:"is_self"`
	Subreddit   string  `json:"subreddit"`
}

// Reddit reads the week's top posts of a set of subreddits through the
// public JSON listing
type Reddit struct {
	client     *resty.Client
	baseURL    string
	subreddits []string
	limit      int
}

func NewReddit(client *resty.Client, baseURL string, subreddits []string, limit int) *Reddit {
	if baseURL == "" {
		baseURL = DefaultRedditURL
	}
	return &Reddit{client: client, baseURL: baseURL, subreddits: subreddits, limit: limit}
}

func (r *Reddit) Source() models.Source {
	return models.SourceReddit
}

func (r *Reddit) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	var (
		records []models.RawRecord
		errs    []error
	)

	for _, sub := range r.subreddits {
		sub = strings.TrimSpace(sub)
		params := map[string]string{
			"t":     "week",
			"limit": strconv.Itoa(r.limit),
		}

		var listing redditListing
		url := fmt.Sprintf("%s/r/%s/top.json", r.baseURL, sub)
		if err := getJSON(ctx, r.client, url, params, &listing); err != nil {
			errs = append(errs, fmt.Errorf("r/%s: %w", sub, err))
			continue
		}

		for _, child := range listing.Data.Children {
			p := child.Data
			if p.Stickied || p.ID == "" {
				continue
			}
			records = append(records, redditRecord(r.baseURL, sub, p))
		}
	}

	return records, errors.Join(errs...)
}

func redditRecord(baseURL, sub string, p redditPost) models.RawRecord {
	url := p.URL
	if p.IsSelf || url == "" {
		url = baseURL + p.Permalink
	}
	channel := p.Subreddit
	if channel == "" {
		channel = sub
	}
	engagement := p.Score + p.NumComments

	var published string
	if p.CreatedUTC > 0 {
		published = time.Unix(int64(p.CreatedUTC), 0).UTC().Format(time.RFC3339)
	}

	return models.RawRecord{
		Source:       models.SourceReddit,
		ExternalID:   p.ID,
		Title:        p.Title,
		URL:          url,
		Summary:      p.Selftext,
		PublishedRaw: published,
		Engagement:   &engagement,
		CategoryHint: subredditCategories[strings.ToLower(channel)],
		Channel:      channel,
	}
}
