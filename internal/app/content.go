package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bilgisen/postgen/internal/models"
	"github.com/bilgisen/postgen/internal/storage"
)

// PreviewRequest filters the ranked pool
type PreviewRequest struct {
	Window   time.Duration
	Category models.Category
	Limit    int
}

// Preview ranks the active pool of the window
func (a *App) Preview(ctx context.Context, req PreviewRequest) ([]models.RankedContent, error) {
	ranked, err := a.rank(ctx, a.window(req.Window))
	if err != nil {
		return nil, err
	}

	out := make([]models.RankedContent, 0, len(ranked))
	for _, rc := range ranked {
		if req.Category != "" && rc.Item.Category != req.Category {
			continue
		}
		out = append(out, rc)
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
	}
	return out, nil
}

func (a *App) rank(ctx context.Context, window time.Duration) ([]models.RankedContent, error) {
	asOf := a.now()
	pool, err := a.store.ListPool(ctx, storage.PoolQuery{Since: asOf.Add(-window)})
	if err != nil {
		return nil, fmt.Errorf("loading content pool: %w", err)
	}
	return a.ranker.Rank(pool, asOf, window), nil
}
