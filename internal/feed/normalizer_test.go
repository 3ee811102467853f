package feed

import (
	"testing"
	"time"

	"github.com/bilgisen/postgen/internal/config"
	"github.com/bilgisen/postgen/internal/models"
	"github.com/bilgisen/postgen/internal/ranking"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(ranking.NewMatcher(config.DefaultRelevanceProfile()))
}

func intPtr(v int) *int { return &v }

func TestNormalize(t *testing.T) {
	fetchedAt := time.Date(2024, 5, 10, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	n := testNormalizer()

	item := n.Normalize(models.RawRecord{
		Source:       models.SourceDevTo,
		ExternalID:   " 123 ",
		Title:        "Scaling <b>Kubernetes</b> &amp; Docker",
		URL:          " https://dev.to/a ",
		Summary:      "<p>First</p><p>Second</p>",
		PublishedRaw: "2024-05-09T08:30:00+02:00",
		Engagement:   intPtr(42),
	}, fetchedAt)

	if item.ExternalID != "123" || item.URL != "https://dev.to/a" {
		t.Errorf("fields not trimmed: %+v", item)
	}
	if item.Title != "Scaling Kubernetes & Docker" {
		t.Errorf("Title = %q", item.Title)
	}
	if item.Summary != "First Second" {
		t.Errorf("Summary = %q", item.Summary)
	}
	want := time.Date(2024, 5, 9, 6, 30, 0, 0, time.UTC)
	if !item.PublishedAt.Equal(want) || item.PublishedAt.Location() != time.UTC {
		t.Errorf("PublishedAt = %v, want %v UTC", item.PublishedAt, want)
	}
	if item.FetchedAt.Location() != time.UTC {
		t.Errorf("FetchedAt should be UTC, got %v", item.FetchedAt.Location())
	}
	if item.DateFallback {
		t.Errorf("did not expect date fallback")
	}
	if item.EngagementRaw != 42 {
		t.Errorf("EngagementRaw = %d", item.EngagementRaw)
	}
	if item.Category != models.CategoryDevOps {
		t.Errorf("Category = %q, want DevOps", item.Category)
	}
	if item.Fingerprint == "" {
		t.Errorf("expected a fingerprint")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	fetchedAt := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	n := testNormalizer()

	tests := []struct {
		name string
		raw  models.RawRecord
	}{
		{"missing date and engagement", models.RawRecord{Source: models.SourceHackerNews, ExternalID: "1", Title: "t"}},
		{"malformed date, negative engagement", models.RawRecord{Source: models.SourceHackerNews, ExternalID: "1", Title: "t", PublishedRaw: "yesterday-ish", Engagement: intPtr(-5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := n.Normalize(tt.raw, fetchedAt)
			if !item.DateFallback || !item.PublishedAt.Equal(fetchedAt) {
				t.Errorf("expected fallback to fetch time, got %v (fallback=%v)", item.PublishedAt, item.DateFallback)
			}
			if item.EngagementRaw != 0 {
				t.Errorf("EngagementRaw = %d, want 0", item.EngagementRaw)
			}
			if item.Category != models.CategoryOther {
				t.Errorf("Category = %q, want Other", item.Category)
			}
		})
	}
}

func TestNormalizeCategoryHint(t *testing.T) {
	n := testNormalizer()
	item := n.Normalize(models.RawRecord{
		Source:       models.SourceReddit,
		ExternalID:   "x",
		Title:        "New LLM beats benchmarks",
		CategoryHint: models.CategoryCloud,
	}, time.Now())
	if item.Category != models.CategoryCloud {
		t.Errorf("hint should win over classification, got %q", item.Category)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 5, 9, 6, 30, 0, 0, time.UTC)
	tests := []struct {
		in string
		ok bool
	}{
		{"2024-05-09T06:30:00Z", true},
		{"Thu, 09 May 2024 06:30:00 +0000", true},
		{"2024-05-09 06:30:00", true},
		{"1715236200", true},
		{"", false},
		{"not a date", false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, want)
		}
	}
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain   text\n here", "plain text here"},
		{"<p>Hello <em>world</em></p><script>alert(1)</script>", "Hello world"},
		{"Fish &amp; chips", "Fish & chips"},
		{"<ul><li>one</li><li>two</li></ul>", "one two"},
	}
	for _, tt := range tests {
		if got := CleanHTML(tt.in); got != tt.want {
			t.Errorf("CleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
