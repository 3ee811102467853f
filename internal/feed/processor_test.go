package feed

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bilgisen/postgen/internal/cache"
	"github.com/bilgisen/postgen/internal/dedup"
	"github.com/bilgisen/postgen/internal/models"
	"github.com/bilgisen/postgen/internal/storage"
)

func testProcessor(t *testing.T, adapters ...Adapter) (*Processor, *storage.Store) {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "feed.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	engine := dedup.NewEngine(s, cache.NewMemoryCache(), time.Hour)
	p := NewProcessor(NewFetcher(adapters...), testNormalizer(), NewQualityFilter(), engine)
	return p, s
}

func hnRaw(id, title string, engagement int) models.RawRecord {
	return models.RawRecord{
		Source:       models.SourceHackerNews,
		ExternalID:   id,
		Title:        title,
		URL:          "https://example.com/hn/" + id,
		PublishedRaw: "2024-05-09T06:30:00Z",
		Engagement:   &engagement,
	}
}

func TestProcessorRun(t *testing.T) {
	reddit := models.RawRecord{
		Source:       models.SourceReddit,
		ExternalID:   "r1",
		Title:        "Kubernetes 1.30 released with sidecar support",
		URL:          "https://example.com/r/r1",
		PublishedRaw: "2024-05-09T18:00:00Z",
		Engagement:   intPtr(400),
		Channel:      "kubernetes",
	}

	p, s := testProcessor(t,
		stubAdapter{source: models.SourceHackerNews, records: []models.RawRecord{
			hnRaw("1", "Kubernetes 1.30 released with sidecar support", 90),
			hnRaw("2", "Short", 90),
			hnRaw("3", "Postgres tuning for write-heavy workloads", 3),
		}},
		stubAdapter{source: models.SourceReddit, records: []models.RawRecord{reddit}},
		stubAdapter{source: models.SourceDevTo, err: errors.New("connection refused")},
	)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.RunID == "" {
		t.Errorf("expected a run id")
	}
	if report.Fetched != 4 || report.Rejected != 2 || report.Accepted != 1 || report.Suppressed != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if len(report.Gaps) != 1 || report.Gaps[0].Source != models.SourceDevTo {
		t.Errorf("expected a devto gap, got %+v", report.Gaps)
	}

	pool, err := s.ListPool(context.Background(), storage.PoolQuery{})
	if err != nil {
		t.Fatalf("ListPool: %v", err)
	}
	if len(pool) != 1 || pool[0].Source != models.SourceHackerNews {
		t.Fatalf("expected the HN story to stay active, got %+v", pool)
	}

	again, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.AlreadyIngested != 2 || again.Accepted != 0 || again.Suppressed != 0 {
		t.Errorf("second run should be a no-op: %+v", again)
	}

	all, err := s.ListPool(context.Background(), storage.PoolQuery{IncludeSuppressed: true})
	if err != nil {
		t.Fatalf("ListPool: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("pool size changed on re-ingest: %d", len(all))
	}
}

func TestIngestBlankTitlesBypassDedup(t *testing.T) {
	p, s := testProcessor(t)
	fetchedAt := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	report, err := p.Ingest(context.Background(), []models.RawRecord{
		hnRaw("10", "", 50),
		hnRaw("11", "   ", 50),
	}, fetchedAt)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if report.Accepted != 2 {
		t.Errorf("blank titles should always be accepted: %+v", report)
	}

	pool, err := s.ListPool(context.Background(), storage.PoolQuery{})
	if err != nil {
		t.Fatalf("ListPool: %v", err)
	}
	if len(pool) != 2 {
		t.Errorf("expected 2 active items, got %d", len(pool))
	}
}
