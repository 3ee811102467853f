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

var draftColumns = []string{"id", "type", "category", "topic", "body", "status", "created_at", "posted_at", "engagement"}

// DraftQuery filters ListDrafts. A nil Status lists every draft.
type DraftQuery struct {
	Status *models.DraftStatus
	Type   models.PostType
	Limit  int
}

// InsertDraft stores a draft together with its ordered grounding ids and sets its ID
func (t *Tx) InsertDraft(ctx context.Context, d *models.PostDraft) error {
	var postedAt sql.NullInt64
	if d.PostedAt != nil {
		postedAt = sql.NullInt64{Int64: toUnix(*d.PostedAt), Valid: true}
	}

	res, err := t.exec(ctx, sq.Insert("post_drafts").
		Columns("type", "category", "topic", "body", "status", "created_at", "posted_at", "engagement").
		Values(string(d.Type), string(d.Category), d.Topic, d.Body, string(d.Status), toUnix(d.CreatedAt), postedAt, nullInt(d.Engagement)))
	if err != nil {
		return fmt.Errorf("inserting draft: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading draft id: %w", err)
	}

	if len(d.SourceContentIDs) > 0 {
		b := sq.Insert("draft_sources").Columns("draft_id", "content_id", "position")
		for i, cid := range d.SourceContentIDs {
			b = b.Values(id, cid, i)
		}
		if _, err := t.exec(ctx, b); err != nil {
			return fmt.Errorf("inserting draft sources: %w", err)
		}
	}

	d.ID = id
	return nil
}

// UpdateDraftStatus moves a draft from one status to another. The update only
// matches while the draft is still in from; a mismatch returns ErrNotFound.
func (t *Tx) UpdateDraftStatus(ctx context.Context, id int64, from, to models.DraftStatus, postedAt *time.Time, engagement *int) error {
	var posted sql.NullInt64
	if postedAt != nil {
		posted = sql.NullInt64{Int64: toUnix(*postedAt), Valid: true}
	}

	res, err := t.exec(ctx, sq.Update("post_drafts").
		Set("status", string(to)).
		Set("posted_at", posted).
		Set("engagement", nullInt(engagement)).
		Where(sq.Eq{"id": id, "status": string(from)}))
	if err != nil {
		return fmt.Errorf("updating draft %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating draft %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetDraft returns a draft by id with its grounding ids
func (t *Tx) GetDraft(ctx context.Context, id int64) (*models.PostDraft, error) {
	row, err := t.queryRow(ctx, sq.Select(draftColumns...).From("post_drafts").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sources, err := t.draftSources(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if ids, ok := sources[id]; ok {
		d.SourceContentIDs = ids
	}
	return d, nil
}

// ListDrafts returns drafts newest first
func (t *Tx) ListDrafts(ctx context.Context, q DraftQuery) ([]models.PostDraft, error) {
	b := sq.Select(draftColumns...).From("post_drafts").OrderBy("id DESC")
	if q.Status != nil {
		b = b.Where(sq.Eq{"status": string(*q.Status)})
	}
	if q.Type != "" {
		b = b.Where(sq.Eq{"type": string(q.Type)})
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}

	rows, err := t.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("querying drafts: %w", err)
	}
	defer rows.Close()

	var (
		drafts []models.PostDraft
		ids    []int64
	)
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *d)
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sources, err := t.draftSources(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range drafts {
		if ids, ok := sources[drafts[i].ID]; ok {
			drafts[i].SourceContentIDs = ids
		}
	}
	return drafts, nil
}

// ReferencedContentIDs returns every content id used as grounding by any draft
func (t *Tx) ReferencedContentIDs(ctx context.Context) (map[int64]struct{}, error) {
	rows, err := t.query(ctx, sq.Select("DISTINCT content_id").From("draft_sources"))
	if err != nil {
		return nil, fmt.Errorf("querying draft sources: %w", err)
	}
	defer rows.Close()

	used := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning draft source: %w", err)
		}
		used[id] = struct{}{}
	}
	return used, rows.Err()
}

func (t *Tx) draftSources(ctx context.Context, draftIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(draftIDs))
	if len(draftIDs) == 0 {
		return out, nil
	}

	rows, err := t.query(ctx, sq.Select("draft_id", "content_id").
		From("draft_sources").
		Where(sq.Eq{"draft_id": draftIDs}).
		OrderBy("draft_id", "position"))
	if err != nil {
		return nil, fmt.Errorf("querying draft sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var draftID, contentID int64
		if err := rows.Scan(&draftID, &contentID); err != nil {
			return nil, fmt.Errorf("scanning draft source: %w", err)
		}
		out[draftID] = append(out[draftID], contentID)
	}
	return out, rows.Err()
}

func scanDraft(s scanner) (*models.PostDraft, error) {
	var (
		d          models.PostDraft
		created    int64
		posted     sql.NullInt64
		engagement sql.NullInt64
	)
	err := s.Scan(&d.ID, &d.Type, &d.Category, &d.Topic, &d.Body, &d.Status, &created, &posted, &engagement)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning draft: %w", err)
	}
	d.CreatedAt = fromUnix(created)
	if posted.Valid {
		t := fromUnix(posted.Int64)
		d.PostedAt = &t
	}
	if engagement.Valid {
		e := int(engagement.Int64)
		d.Engagement = &e
	}
	d.SourceContentIDs = []int64{}
	return &d, nil
}
