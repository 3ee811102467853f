package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/bilgisen/postgen/internal/models"
	"github.com/bilgisen/postgen/internal/storage"
)

// Store is the read surface the aggregator needs
type Store interface {
	View(ctx context.Context, fn func(tx *storage.Tx) error) error
}

// Summary is recomputed from the store on every request
type Summary struct {
	AsOf   time.Time     `json:"as_of"`
	Window time.Duration `json:"window"`

	TotalContent    int                   `json:"total_content"`
	ContentInWindow int                   `json:"content_in_window"`
	SuppressedCount int                   `json:"suppressed"`
	ContentBySource map[models.Source]int `json:"content_by_source"`
	LastFetch       *time.Time            `json:"last_fetch,omitempty"`

	TotalDrafts       int                        `json:"total_drafts"`
	DraftsByStatus    map[models.DraftStatus]int `json:"drafts_by_status"`
	DraftsByType      map[models.PostType]int    `json:"drafts_by_type"`
	EngagementTotal   int                        `json:"engagement_total"`
	EngagementAverage float64                    `json:"engagement_average"`
}

type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Compute reads every counter inside one read transaction so the numbers
// agree with each other. Items "in window" are those fetched since asOf-window.
func (a *Aggregator) Compute(ctx context.Context, asOf time.Time, window time.Duration) (*Summary, error) {
	s := &Summary{
		AsOf:           asOf.UTC(),
		Window:         window,
		DraftsByStatus: map[models.DraftStatus]int{models.StatusDraft: 0, models.StatusPosted: 0},
	}

	err := a.store.View(ctx, func(tx *storage.Tx) error {
		content, err := tx.CountContent(ctx)
		if err != nil {
			return err
		}
		s.TotalContent = content.Total
		s.SuppressedCount = content.Suppressed
		s.ContentBySource = content.BySource

		if s.ContentInWindow, err = tx.CountFetchedSince(ctx, asOf.Add(-window)); err != nil {
			return err
		}

		last, err := tx.LastFetchedAt(ctx)
		if err != nil {
			return err
		}
		if !last.IsZero() {
			s.LastFetch = &last
		}

		drafts, err := tx.CountDrafts(ctx)
		if err != nil {
			return err
		}
		s.TotalDrafts = drafts.Total
		for status, n := range drafts.ByStatus {
			s.DraftsByStatus[status] = n
		}
		s.DraftsByType = drafts.ByType
		s.EngagementTotal = drafts.EngagementSum
		if drafts.WithEngagement > 0 {
			s.EngagementAverage = float64(drafts.EngagementSum) / float64(drafts.WithEngagement)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("computing statistics: %w", err)
	}
	return s, nil
}
