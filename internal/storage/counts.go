package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bilgisen/postgen/internal/models"
)

// ContentCounts are the pool totals used by statistics
type ContentCounts struct {
	Total      int
	Suppressed int
	BySource   map[models.Source]int
}

// DraftCounts are the draft totals used by statistics
type DraftCounts struct {
	Total          int
	ByStatus       map[models.DraftStatus]int
	ByType         map[models.PostType]int
	EngagementSum  int
	WithEngagement int
}

// CountContent groups every stored item by source and suppression flag
func (t *Tx) CountContent(ctx context.Context) (ContentCounts, error) {
	counts := ContentCounts{BySource: make(map[models.Source]int)}

	rows, err := t.query(ctx, sq.Select("source", "suppressed", "COUNT(*)").
		From("content_items").
		GroupBy("source", "suppressed"))
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			source     string
			suppressed int
			n          int
		)
		if err := rows.Scan(&source, &suppressed, &n); err != nil {
			return counts, fmt.Errorf("scanning content counts: %w", err)
		}
		counts.Total += n
		counts.BySource[models.Source(source)] += n
		if suppressed == 1 {
			counts.Suppressed += n
		}
	}
	return counts, rows.Err()
}

// CountFetchedSince counts items ingested at or after since
func (t *Tx) CountFetchedSince(ctx context.Context, since time.Time) (int, error) {
	row, err := t.queryRow(ctx, sq.Select("COUNT(*)").
		From("content_items").
		Where(sq.GtOrEq{"fetched_at": toUnix(since)}))
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting recent content: %w", err)
	}
	return n, nil
}

// CountDrafts groups drafts by status and type and sums recorded engagement
func (t *Tx) CountDrafts(ctx context.Context) (DraftCounts, error) {
	counts := DraftCounts{
		ByStatus: make(map[models.DraftStatus]int),
		ByType:   make(map[models.PostType]int),
	}

	rows, err := t.query(ctx, sq.Select("status", "type", "COUNT(*)", "COUNT(engagement)", "COALESCE(SUM(engagement), 0)").
		From("post_drafts").
		GroupBy("status", "type"))
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status, typ       string
			n, withEngagement int
			sum               sql.NullInt64
		)
		if err := rows.Scan(&status, &typ, &n, &withEngagement, &sum); err != nil {
			return counts, fmt.Errorf("scanning draft counts: %w", err)
		}
		counts.Total += n
		counts.ByStatus[models.DraftStatus(status)] += n
		counts.ByType[models.PostType(typ)] += n
		counts.WithEngagement += withEngagement
		counts.EngagementSum += int(sum.Int64)
	}
	return counts, rows.Err()
}
