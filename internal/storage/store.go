package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bilgisen/postgen/internal/models"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

const schema = `
CREATE TABLE IF NOT EXISTS content_items (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	source         TEXT    NOT NULL,
	external_id    TEXT    NOT NULL,
	title          TEXT    NOT NULL,
	url            TEXT    NOT NULL,
	summary        TEXT    NOT NULL DEFAULT '',
	published_at   INTEGER NOT NULL,
	category       TEXT    NOT NULL,
	engagement_raw INTEGER NOT NULL DEFAULT 0,
	fingerprint    TEXT    NOT NULL DEFAULT '',
	fetched_at     INTEGER NOT NULL,
	suppressed     INTEGER NOT NULL DEFAULT 0,
	duplicate_of   INTEGER REFERENCES content_items(id),
	date_fallback  INTEGER NOT NULL DEFAULT 0,
	channel        TEXT    NOT NULL DEFAULT '',
	UNIQUE (source, external_id)
);
CREATE INDEX IF NOT EXISTS idx_content_fingerprint ON content_items(fingerprint) WHERE suppressed = 0;
CREATE INDEX IF NOT EXISTS idx_content_published ON content_items(published_at DESC);

CREATE TABLE IF NOT EXISTS post_drafts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	type       TEXT    NOT NULL CHECK (type IN ('news', 'tip')),
	category   TEXT    NOT NULL,
	topic      TEXT    NOT NULL DEFAULT '',
	body       TEXT    NOT NULL,
	status     TEXT    NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'posted')),
	created_at INTEGER NOT NULL,
	posted_at  INTEGER,
	engagement INTEGER,
	CHECK ((status = 'posted') = (posted_at IS NOT NULL)),
	CHECK (engagement IS NULL OR (status = 'posted' AND engagement >= 0))
);
CREATE INDEX IF NOT EXISTS idx_drafts_status ON post_drafts(status);

CREATE TABLE IF NOT EXISTS draft_sources (
	draft_id   INTEGER NOT NULL REFERENCES post_drafts(id),
	content_id INTEGER NOT NULL REFERENCES content_items(id),
	position   INTEGER NOT NULL,
	PRIMARY KEY (draft_id, position)
);
CREATE INDEX IF NOT EXISTS idx_draft_sources_content ON draft_sources(content_id);
`

// Store is the SQLite record store. Writes go through a single connection so
// every mutation is serialized; reads use a separate read-only pool.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

// Open creates the database file (and parent directory) if needed and applies the schema
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	s := &Store{writeDB: writeDB}
	if _, err := writeDB.Exec(schema); err != nil {
		s.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	readDB, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}
	s.readDB = readDB

	return s, nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	return errors.Join(errs...)
}

// Update runs fn inside a write transaction. The transaction commits only if
// fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	return runTx(ctx, s.writeDB, fn)
}

// View runs fn inside a read transaction, giving it a consistent snapshot.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	return runTx(ctx, s.readDB, fn)
}

func runTx(ctx context.Context, db *sql.DB, fn func(tx *Tx) error) error {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Tx exposes the record operations available inside a transaction
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) exec(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *Tx) query(ctx context.Context, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *Tx) queryRow(ctx context.Context, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return t.tx.QueryRowContext(ctx, query, args...), nil
}

// Times are stored as UTC unix nanoseconds so range filters compare numerically.
func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullInt[T int | int64](v *T) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// GetDraft reads a single draft outside of a caller-managed transaction
func (s *Store) GetDraft(ctx context.Context, id int64) (*models.PostDraft, error) {
	var d *models.PostDraft
	err := s.View(ctx, func(tx *Tx) error {
		var err error
		d, err = tx.GetDraft(ctx, id)
		return err
	})
	return d, err
}

// ListDrafts reads drafts outside of a caller-managed transaction
func (s *Store) ListDrafts(ctx context.Context, q DraftQuery) ([]models.PostDraft, error) {
	var drafts []models.PostDraft
	err := s.View(ctx, func(tx *Tx) error {
		var err error
		drafts, err = tx.ListDrafts(ctx, q)
		return err
	})
	return drafts, err
}

// ListPool reads content items outside of a caller-managed transaction
func (s *Store) ListPool(ctx context.Context, q PoolQuery) ([]models.ContentItem, error) {
	var items []models.ContentItem
	err := s.View(ctx, func(tx *Tx) error {
		var err error
		items, err = tx.ListPool(ctx, q)
		return err
	})
	return items, err
}

// GetContentItems resolves ids in the given order, skipping none.
func (s *Store) GetContentItems(ctx context.Context, ids []int64) ([]models.ContentItem, error) {
	items := make([]models.ContentItem, 0, len(ids))
	err := s.View(ctx, func(tx *Tx) error {
		for _, id := range ids {
			item, err := tx.GetContentItem(ctx, id)
			if err != nil {
				return fmt.Errorf("content item %d: %w", id, err)
			}
			items = append(items, *item)
		}
		return nil
	})
	return items, err
}
