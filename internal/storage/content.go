package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bilgisen/postgen/internal/models"
)

var contentColumns = []string{
	"id", "source", "external_id", "title", "url", "summary", "published_at", "category",
	"engagement_raw", "fingerprint", "fetched_at", "suppressed", "duplicate_of", "date_fallback", "channel",
}

// PoolQuery selects content items. Zero values mean "no filter".
type PoolQuery struct {
	Since             time.Time
	Category          models.Category
	IncludeSuppressed bool
}

// InsertContentItem stores a new item and sets its ID
func (t *Tx) InsertContentItem(ctx context.Context, item *models.ContentItem) error {
	b := sq.Insert("content_items").
		Columns("source", "external_id", "title", "url", "summary", "published_at", "category",
			"engagement_raw", "fingerprint", "fetched_at", "suppressed", "duplicate_of", "date_fallback", "channel").
		Values(string(item.Source), item.ExternalID, item.Title, item.URL, item.Summary, toUnix(item.PublishedAt),
			string(item.Category), item.EngagementRaw, item.Fingerprint, toUnix(item.FetchedAt),
			boolToInt(item.Suppressed), nullInt(item.DuplicateOf), boolToInt(item.DateFallback), item.Channel)

	res, err := t.exec(ctx, b)
	if err != nil {
		return fmt.Errorf("inserting content item %s/%s: %w", item.Source, item.ExternalID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading content item id: %w", err)
	}
	item.ID = id
	return nil
}

// FindBySourceID looks an item up by its source-scoped identifier
func (t *Tx) FindBySourceID(ctx context.Context, source models.Source, externalID string) (*models.ContentItem, error) {
	return t.getContent(ctx, sq.Eq{"source": string(source), "external_id": externalID})
}

// FindActiveByFingerprint returns the non-suppressed item carrying fingerprint
func (t *Tx) FindActiveByFingerprint(ctx context.Context, fingerprint string) (*models.ContentItem, error) {
	if fingerprint == "" {
		return nil, ErrNotFound
	}
	return t.getContent(ctx, sq.Eq{"fingerprint": fingerprint, "suppressed": 0})
}

// GetContentItem returns an item by id
func (t *Tx) GetContentItem(ctx context.Context, id int64) (*models.ContentItem, error) {
	return t.getContent(ctx, sq.Eq{"id": id})
}

// SuppressContentItem flags an item as a duplicate of another. This is the
// only mutation a stored content item ever receives.
func (t *Tx) SuppressContentItem(ctx context.Context, id, duplicateOf int64) error {
	res, err := t.exec(ctx, sq.Update("content_items").
		Set("suppressed", 1).
		Set("duplicate_of", duplicateOf).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("suppressing content item %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPool returns items ordered by publish time, newest first, then id.
func (t *Tx) ListPool(ctx context.Context, q PoolQuery) ([]models.ContentItem, error) {
	b := sq.Select(contentColumns...).From("content_items").OrderBy("published_at DESC", "id ASC")
	if !q.Since.IsZero() {
		b = b.Where(sq.GtOrEq{"published_at": toUnix(q.Since)})
	}
	if q.Category != "" {
		b = b.Where(sq.Eq{"category": string(q.Category)})
	}
	if !q.IncludeSuppressed {
		b = b.Where(sq.Eq{"suppressed": 0})
	}

	rows, err := t.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("querying content pool: %w", err)
	}
	defer rows.Close()

	var items []models.ContentItem
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// LastFetchedAt returns the max fetched_at across all items, zero when empty
func (t *Tx) LastFetchedAt(ctx context.Context) (time.Time, error) {
	row, err := t.queryRow(ctx, sq.Select("MAX(fetched_at)").From("content_items"))
	if err != nil {
		return time.Time{}, err
	}
	var last sql.NullInt64
	if err := row.Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("reading last fetch: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return fromUnix(last.Int64), nil
}

func (t *Tx) getContent(ctx context.Context, where sq.Eq) (*models.ContentItem, error) {
	row, err := t.queryRow(ctx, sq.Select(contentColumns...).From("content_items").Where(where).OrderBy("id ASC").Limit(1))
	if err != nil {
		return nil, err
	}
	item, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return item, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContent(s scanner) (*models.ContentItem, error) {
	var (
		item                 models.ContentItem
		published, fetched   int64
		suppressed, fallback int
		duplicateOf          sql.NullInt64
	)
	err := s.Scan(&item.ID, &item.Source, &item.ExternalID, &item.Title, &item.URL, &item.Summary,
		&published, &item.Category, &item.EngagementRaw, &item.Fingerprint, &fetched,
		&suppressed, &duplicateOf, &fallback, &item.Channel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning content item: %w", err)
	}
	item.PublishedAt = fromUnix(published)
	item.FetchedAt = fromUnix(fetched)
	item.Suppressed = suppressed != 0
	item.DateFallback = fallback != 0
	if duplicateOf.Valid {
		id := duplicateOf.Int64
		item.DuplicateOf = &id
	}
	return &item, nil
}
