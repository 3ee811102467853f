package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	"github.com/bilgisen/postgen/internal/models"
	"github.com/bilgisen/postgen/internal/utils"
)

const DefaultArXivURL = "http://export.arxiv.org/api/query"

const (
	// arXiv has no engagement signal; papers get a fixed base score
	arxivBaseEngagement = 75
	arxivSummaryRunes   = 700
)

var arxivVersion = regexp.MustCompile(`v\d+$`)

var arxivCategories = map[string]models.Category{
	"cs.AI":   models.CategoryAI,
	"cs.LG":   models.CategoryAI,
	"cs.CL":   models.CategoryAI,
	"cs.CV":   models.CategoryAI,
	"cs.NE":   models.CategoryAI,
	"cs.DC":   models.CategoryCloud,
	"cs.NI":   models.CategoryCloud,
	"cs.SE":   models.CategoryDevOps,
	"cs.DB":   models.CategoryDataScience,
	"stat.ML": models.CategoryDataScience,
}

// ArXiv queries the arXiv Atom API for the newest submissions in a set of
// categories
type ArXiv struct {
	client     *resty.Client
	parser     *gofeed.Parser
	baseURL    string
	categories []string
	limit      int
}

func NewArXiv(client *resty.Client, baseURL string, categories []string, limit int) *ArXiv {
	if baseURL == "" {
		baseURL = DefaultArXivURL
	}
	return &ArXiv{
		client:     client,
		parser:     gofeed.NewParser(),
		baseURL:    baseURL,
		categories: categories,
		limit:      limit,
	}
}

func (a *ArXiv) Source() models.Source {
	return models.SourceArXiv
}

func (a *ArXiv) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	terms := make([]string, 0, len(a.categories))
	for _, c := range a.categories {
		terms = append(terms, "cat:"+strings.TrimSpace(c))
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/atom+xml").
		SetQueryParams(map[string]string{
			"search_query": strings.Join(terms, " OR "),
			"sortBy":       "submittedDate",
			"sortOrder":    "descending",
			"start":        "0",
			"max_results":  strconv.Itoa(a.limit),
		}).
		Get(a.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", a.baseURL, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), a.baseURL)
	}

	feed, err := a.parser.Parse(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse arXiv feed: %w", err)
	}

	records := make([]models.RawRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := arxivID(item.GUID)
		if id == "" {
			continue
		}

		var primary string
		if len(item.Categories) > 0 {
			primary = item.Categories[0]
		}
		engagement := arxivBaseEngagement

		records = append(records, models.RawRecord{
			Source:       models.SourceArXiv,
			ExternalID:   id,
			Title:        item.Title,
			URL:          item.Link,
			Summary:      utils.Truncate(strings.Join(strings.Fields(item.Description), " "), arxivSummaryRunes),
			PublishedRaw: item.Published,
			Engagement:   &engagement,
			CategoryHint: arxivCategories[primary],
			Channel:      primary,
		})
	}
	return records, nil
}

// arxivID turns "http://arxiv.org/abs/2405.01234v2" into "2405.01234" so a
// new version of a paper is not ingested twice
func arxivID(guid string) string {
	guid = strings.TrimSpace(guid)
	if i := strings.LastIndex(guid, "/abs/"); i >= 0 {
		guid = guid[i+len("/abs/"):]
	}
	return arxivVersion.ReplaceAllString(guid, "")
}
