package feed

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/bilgisen/postgen/internal/models"
)

const DefaultDevToURL = "https://dev.to/api"

// devToTopDays limits results to articles popular over the last week
const devToTopDays = "7"

var devToTagCategories = map[string]models.Category{
	"ai":              models.CategoryAI,
	"machinelearning": models.CategoryAI,
	"deeplearning":    models.CategoryAI,
	"llm":             models.CategoryAI,
	"devops":          models.CategoryDevOps,
	"kubernetes":      models.CategoryDevOps,
	"docker":          models.CategoryDevOps,
	"cicd":            models.CategoryDevOps,
	"cloud":           models.CategoryCloud,
	"aws":             models.CategoryCloud,
	"azure":           models.CategoryCloud,
	"gcp":             models.CategoryCloud,
	"serverless":      models.CategoryCloud,
	"datascience":     models.CategoryDataScience,
	"dataengineering": models.CategoryDataScience,
	"analytics":       models.CategoryDataScience,
}

type devToArticle struct {
	ID                   int64  `json:"id"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	Description          string `json:"description"`
	PublishedAt          string `json:"published_at"`
	PublicReactionsCount int    `json:"public_reactions_count"`
	CommentsCount        int    `json:"comments_count"`
}

// DevTo reads the week's top articles for a set of tags
type DevTo struct {
	client  *resty.Client
	baseURL string
	tags    []string
	limit   int
}

func NewDevTo(client *resty.Client, baseURL string, tags []string, limit int) *DevTo {
	if baseURL == "" {
		baseURL = DefaultDevToURL
	}
	return &DevTo{client: client, baseURL: baseURL, tags: tags, limit: limit}
}

func (d *DevTo) Source() models.Source {
	return models.SourceDevTo
}

// Fetch queries each tag in turn. An article listed under several tags is
// returned once, with the first tag's category hint.
func (d *DevTo) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	var (
		records []models.RawRecord
		errs    []error
	)
	seen := make(map[int64]bool)

	for _, tag := range d.tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		params := map[string]string{
			"tag":      tag,
			"per_page": strconv.Itoa(d.limit),
			"top":      devToTopDays,
		}

		var articles []devToArticle
		if err := getJSON(ctx, d.client, d.baseURL+"/articles", params, &articles); err != nil {
			errs = append(errs, fmt.Errorf("tag %s: %w", tag, err))
			continue
		}

		for _, a := range articles {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true

			engagement := a.PublicReactionsCount + a.CommentsCount
			records = append(records, models.RawRecord{
				Source:       models.SourceDevTo,
				ExternalID:   strconv.FormatInt(a.ID, 10),
				Title:        a.Title,
				URL:          a.URL,
				Summary:      a.Description,
				PublishedRaw: a.PublishedAt,
				Engagement:   &engagement,
				CategoryHint: devToTagCategories[tag],
				Channel:      tag,
			})
		}
	}

	return records, errors.Join(errs...)
}
