package feed

import (
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bilgisen/postgen/internal/dedup"
	"github.com/bilgisen/postgen/internal/models"
	"github.com/bilgisen/postgen/internal/utils"
)

const maxSummaryRunes = 1000

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Classifier assigns a category to free text
type Classifier interface {
	Classify(text string) models.Category
}

// Normalizer converts raw adapter records into ContentItems. It does no I/O.
type Normalizer struct {
	classifier Classifier
}

func NewNormalizer(classifier Classifier) *Normalizer {
	return &Normalizer{classifier: classifier}
}

// Normalize never fails: missing engagement becomes 0 and an unparseable
// publish date falls back to fetchedAt with DateFallback set.
func (n *Normalizer) Normalize(raw models.RawRecord, fetchedAt time.Time) models.ContentItem {
	fetchedAt = fetchedAt.UTC()

	item := models.ContentItem{
		Source:     raw.Source,
		ExternalID: strings.TrimSpace(raw.ExternalID),
		Title:      CleanHTML(raw.Title),
		URL:        strings.TrimSpace(raw.URL),
		Summary:    utils.Truncate(CleanHTML(raw.Summary), maxSummaryRunes),
		FetchedAt:  fetchedAt,
		Channel:    strings.TrimSpace(raw.Channel),
	}

	if published, ok := ParseDate(raw.PublishedRaw); ok {
		item.PublishedAt = published
	} else {
		item.PublishedAt = fetchedAt
		item.DateFallback = true
	}

	if raw.Engagement != nil && *raw.Engagement > 0 {
		item.EngagementRaw = *raw.Engagement
	}

	switch {
	case raw.CategoryHint.Valid():
		item.Category = raw.CategoryHint
	case n.classifier != nil:
		item.Category = n.classifier.Classify(item.Title + " " + item.Summary)
	default:
		item.Category = models.CategoryOther
	}

	item.Fingerprint = dedup.Fingerprint(item.Title, item.PublishedAt)
	return item
}

// ParseDate accepts the layouts the sources emit plus unix seconds, and
// returns the instant in UTC
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}

// CleanHTML removes markup and entities and collapses whitespace
func CleanHTML(input string) string {
	if !strings.ContainsAny(input, "<&") {
		return strings.Join(strings.Fields(input), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return strings.Join(strings.Fields(html.UnescapeString(input)), " ")
	}
	doc.Find("script, style").Remove()
	doc.Find("p, br, div, li, h1, h2, h3, h4, tr").AfterHtml(" ")

	return strings.Join(strings.Fields(doc.Text()), " ")
}
