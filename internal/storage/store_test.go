package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bilgisen/postgen/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleItem(source models.Source, externalID string, published time.Time) *models.ContentItem {
	return &models.ContentItem{
		Source:        source,
		ExternalID:    externalID,
		Title:         "Sample " + externalID,
		URL:           "https://example.com/" + externalID,
		Summary:       "summary",
		PublishedAt:   published,
		Category:      models.CategoryAI,
		EngagementRaw: 10,
		Fingerprint:   "fp-" + externalID,
		FetchedAt:     published.Add(time.Hour),
	}
}

func insert(t *testing.T, s *Store, items ...*models.ContentItem) {
	t.Helper()
	err := s.Update(context.Background(), func(tx *Tx) error {
		for _, item := range items {
			if err := tx.InsertContentItem(context.Background(), item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestInsertAndFindContent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	item := sampleItem(models.SourceHackerNews, "42", now)
	insert(t, s, item)
	if item.ID == 0 {
		t.Fatalf("expected id to be set")
	}

	err := s.View(ctx, func(tx *Tx) error {
		got, err := tx.FindBySourceID(ctx, models.SourceHackerNews, "42")
		if err != nil {
			return err
		}
		if got.ID != item.ID || !got.PublishedAt.Equal(now) || got.Category != models.CategoryAI {
			t.Errorf("unexpected item: %+v", got)
		}

		if _, err := tx.FindBySourceID(ctx, models.SourceReddit, "42"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for other source, got %v", err)
		}

		active, err := tx.FindActiveByFingerprint(ctx, "fp-42")
		if err != nil {
			return err
		}
		if active.ID != item.ID {
			t.Errorf("expected active item %d, got %d", item.ID, active.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestUniqueSourceExternalID(t *testing.T) {
	s := testStore(t)
	now := time.Now()
	insert(t, s, sampleItem(models.SourceDevTo, "a", now))

	err := s.Update(context.Background(), func(tx *Tx) error {
		return tx.InsertContentItem(context.Background(), sampleItem(models.SourceDevTo, "a", now))
	})
	if err == nil {
		t.Fatalf("expected unique constraint violation")
	}
}

func TestSuppressHidesFromActiveLookupAndPool(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now()

	first := sampleItem(models.SourceArXiv, "1", now)
	second := sampleItem(models.SourceReddit, "2", now)
	second.Fingerprint = first.Fingerprint
	insert(t, s, first, second)

	err := s.Update(ctx, func(tx *Tx) error {
		return tx.SuppressContentItem(ctx, second.ID, first.ID)
	})
	if err != nil {
		t.Fatalf("suppress: %v", err)
	}

	pool, err := s.ListPool(ctx, PoolQuery{})
	if err != nil {
		t.Fatalf("list pool: %v", err)
	}
	if len(pool) != 1 || pool[0].ID != first.ID {
		t.Fatalf("expected only the first item in the pool, got %+v", pool)
	}

	all, err := s.ListPool(ctx, PoolQuery{IncludeSuppressed: true})
	if err != nil {
		t.Fatalf("list pool: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 items including suppressed, got %d", len(all))
	}
	for _, it := range all {
		if it.ID == second.ID && (!it.Suppressed || it.DuplicateOf == nil || *it.DuplicateOf != first.ID) {
			t.Errorf("suppressed item not flagged: %+v", it)
		}
	}
}

func TestListPoolWindowAndCategory(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	recent := sampleItem(models.SourceHackerNews, "recent", now.Add(-24*time.Hour))
	old := sampleItem(models.SourceHackerNews, "old", now.Add(-10*24*time.Hour))
	devops := sampleItem(models.SourceDevTo, "devops", now.Add(-2*time.Hour))
	devops.Category = models.CategoryDevOps
	insert(t, s, recent, old, devops)

	pool, err := s.ListPool(context.Background(), PoolQuery{Since: now.Add(-7 * 24 * time.Hour)})
	if err != nil {
		t.Fatalf("list pool: %v", err)
	}
	if len(pool) != 2 || pool[0].ExternalID != "devops" || pool[1].ExternalID != "recent" {
		t.Fatalf("unexpected pool order/content: %+v", pool)
	}

	pool, err = s.ListPool(context.Background(), PoolQuery{Category: models.CategoryDevOps})
	if err != nil {
		t.Fatalf("list pool: %v", err)
	}
	if len(pool) != 1 || pool[0].ExternalID != "devops" {
		t.Fatalf("expected only devops item, got %+v", pool)
	}
}

func TestDraftLifecycleColumns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now()

	a := sampleItem(models.SourceArXiv, "a", now)
	b := sampleItem(models.SourceArXiv, "b", now)
	insert(t, s, a, b)

	draft := &models.PostDraft{
		Type:             models.PostTypeNews,
		Category:         models.CategoryAI,
		Body:             "hello",
		SourceContentIDs: []int64{b.ID, a.ID},
		Status:           models.StatusDraft,
		CreatedAt:        now,
	}
	if err := s.Update(ctx, func(tx *Tx) error { return tx.InsertDraft(ctx, draft) }); err != nil {
		t.Fatalf("insert draft: %v", err)
	}

	got, err := s.GetDraft(ctx, draft.ID)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if len(got.SourceContentIDs) != 2 || got.SourceContentIDs[0] != b.ID || got.SourceContentIDs[1] != a.ID {
		t.Errorf("grounding order not preserved: %v", got.SourceContentIDs)
	}
	if got.PostedAt != nil || got.Engagement != nil {
		t.Errorf("expected no posting data on a draft")
	}

	postedAt := now.Add(time.Hour)
	engagement := 12
	err = s.Update(ctx, func(tx *Tx) error {
		return tx.UpdateDraftStatus(ctx, draft.ID, models.StatusDraft, models.StatusPosted, &postedAt, &engagement)
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}

	err = s.Update(ctx, func(tx *Tx) error {
		return tx.UpdateDraftStatus(ctx, draft.ID, models.StatusDraft, models.StatusPosted, &postedAt, &engagement)
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound when draft is no longer in draft status, got %v", err)
	}

	posted := models.StatusPosted
	list, err := s.ListDrafts(ctx, DraftQuery{Status: &posted})
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(list) != 1 || list[0].Engagement == nil || *list[0].Engagement != 12 {
		t.Fatalf("unexpected posted drafts: %+v", list)
	}

	used, err := func() (map[int64]struct{}, error) {
		var m map[int64]struct{}
		err := s.View(ctx, func(tx *Tx) error {
			var err error
			m, err = tx.ReferencedContentIDs(ctx)
			return err
		})
		return m, err
	}()
	if err != nil {
		t.Fatalf("referenced ids: %v", err)
	}
	if _, ok := used[a.ID]; !ok || len(used) != 2 {
		t.Errorf("unexpected referenced ids: %v", used)
	}
}

func TestSchemaRejectsInconsistentPostedState(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	engagement := 5
	draft := &models.PostDraft{
		Type:       models.PostTypeTip,
		Category:   models.CategoryDevOps,
		Body:       "tip",
		Status:     models.StatusPosted,
		CreatedAt:  time.Now(),
		Engagement: &engagement,
	}
	err := s.Update(ctx, func(tx *Tx) error { return tx.InsertDraft(ctx, draft) })
	if err == nil {
		t.Fatalf("expected check constraint to reject posted draft without posted_at")
	}

	drafts, err := s.ListDrafts(ctx, DraftQuery{})
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 0 {
		t.Errorf("expected rollback to leave no drafts, got %d", len(drafts))
	}
}

func TestLastFetchedAt(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	var last time.Time
	view := func() {
		t.Helper()
		if err := s.View(ctx, func(tx *Tx) error {
			var err error
			last, err = tx.LastFetchedAt(ctx)
			return err
		}); err != nil {
			t.Fatalf("last fetched: %v", err)
		}
	}

	view()
	if !last.IsZero() {
		t.Fatalf("expected zero time on empty store, got %v", last)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	a := sampleItem(models.SourceDevTo, "a", now)
	a.FetchedAt = now.Add(-time.Hour)
	b := sampleItem(models.SourceDevTo, "b", now)
	b.FetchedAt = now
	insert(t, s, a, b)

	view()
	if !last.Equal(now) {
		t.Errorf("expected last fetch %v, got %v", now, last)
	}
}

func TestCounts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	a := sampleItem(models.SourceHackerNews, "a", base)
	b := sampleItem(models.SourceReddit, "b", base.Add(48*time.Hour))
	c := sampleItem(models.SourceReddit, "c", base.Add(72*time.Hour))
	insert(t, s, a, b, c)

	err := s.Update(ctx, func(tx *Tx) error {
		if err := tx.SuppressContentItem(ctx, c.ID, b.ID); err != nil {
			return err
		}
		for i, typ := range []models.PostType{models.PostTypeNews, models.PostTypeNews, models.PostTypeTip} {
			d := &models.PostDraft{Type: typ, Category: models.CategoryAI, Body: "body", Status: models.StatusDraft, CreatedAt: base}
			if err := tx.InsertDraft(ctx, d); err != nil {
				return err
			}
			if i < 2 {
				postedAt := base.Add(time.Hour)
				var engagement *int
				if i == 0 {
					v := 30
					engagement = &v
				}
				if err := tx.UpdateDraftStatus(ctx, d.ID, models.StatusDraft, models.StatusPosted, &postedAt, engagement); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}

	err = s.View(ctx, func(tx *Tx) error {
		content, err := tx.CountContent(ctx)
		if err != nil {
			return err
		}
		if content.Total != 3 || content.Suppressed != 1 || content.BySource[models.SourceReddit] != 2 {
			t.Errorf("unexpected content counts: %+v", content)
		}

		// sampleItem fetches one hour after publishing
		recent, err := tx.CountFetchedSince(ctx, base.Add(24*time.Hour))
		if err != nil {
			return err
		}
		if recent != 2 {
			t.Errorf("CountFetchedSince = %d, want 2", recent)
		}

		drafts, err := tx.CountDrafts(ctx)
		if err != nil {
			return err
		}
		if drafts.Total != 3 || drafts.ByStatus[models.StatusPosted] != 2 || drafts.ByStatus[models.StatusDraft] != 1 {
			t.Errorf("unexpected draft counts: %+v", drafts)
		}
		if drafts.ByType[models.PostTypeTip] != 1 || drafts.EngagementSum != 30 || drafts.WithEngagement != 1 {
			t.Errorf("unexpected draft totals: %+v", drafts)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}
