package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bilgisen/postgen/internal/cache"
	"github.com/bilgisen/postgen/internal/logger"
	"github.com/bilgisen/postgen/internal/models"
	"github.com/bilgisen/postgen/internal/storage"
)

// Outcome classifies an admitted candidate
type Outcome int

const (
	// Accepted means the candidate is stored and active.
	Accepted Outcome = iota
	// Suppressed means the candidate is stored but flagged as a duplicate.
	Suppressed
	// AlreadyIngested means the (source, externalId) pair was stored by an
	// earlier fetch; nothing changed.
	AlreadyIngested
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Suppressed:
		return "suppressed"
	case AlreadyIngested:
		return "already_ingested"
	}
	return "unknown"
}

// Decision is the result of Admit.
type Decision struct {
	Outcome Outcome
	// ID of the stored candidate, or of the existing row for AlreadyIngested.
	ID int64
	// DuplicateOf is the active item the candidate duplicates (Suppressed only).
	DuplicateOf int64
	// Superseded is the previously active item that the candidate displaced
	// because it was seen earlier (Accepted only).
	Superseded int64
}

// Store is the transactional surface the engine needs
type Store interface {
	Update(ctx context.Context, fn func(tx *storage.Tx) error) error
}

// Engine admits normalized items into the content pool
type Engine struct {
	store Store
	seen  cache.SeenStore
	ttl   time.Duration
}

// NewEngine creates an engine. seen may be nil.
func NewEngine(store Store, seen cache.SeenStore, ttl time.Duration) *Engine {
	return &Engine{store: store, seen: seen, ttl: ttl}
}

// Admit stores the candidate and classifies it. The lookup, the insert and any
// suppression run in a single transaction.
func (e *Engine) Admit(ctx context.Context, candidate models.ContentItem) (Decision, error) {
	log := logger.Get()
	key := cache.SeenKey(string(candidate.Source), candidate.ExternalID)

	if e.seen != nil {
		seen, err := e.seen.IsSeen(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Seen cache lookup failed, falling back to store")
		} else if seen {
			return Decision{Outcome: AlreadyIngested}, nil
		}
	}

	var decision Decision
	err := e.store.Update(ctx, func(tx *storage.Tx) error {
		existing, err := tx.FindBySourceID(ctx, candidate.Source, candidate.ExternalID)
		switch {
		case err == nil:
			decision = Decision{Outcome: AlreadyIngested, ID: existing.ID}
			return nil
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		candidate.Fingerprint = Fingerprint(candidate.Title, candidate.PublishedAt)
		candidate.Suppressed = false
		candidate.DuplicateOf = nil

		var active *models.ContentItem
		if candidate.Fingerprint != "" {
			active, err = tx.FindActiveByFingerprint(ctx, candidate.Fingerprint)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
		}

		if active != nil && !seenBefore(candidate, *active) {
			dupOf := active.ID
			candidate.Suppressed = true
			candidate.DuplicateOf = &dupOf
			if err := tx.InsertContentItem(ctx, &candidate); err != nil {
				return err
			}
			decision = Decision{Outcome: Suppressed, ID: candidate.ID, DuplicateOf: dupOf}
			return nil
		}

		if err := tx.InsertContentItem(ctx, &candidate); err != nil {
			return err
		}
		decision = Decision{Outcome: Accepted, ID: candidate.ID}

		if active != nil {
			if err := tx.SuppressContentItem(ctx, active.ID, candidate.ID); err != nil {
				return err
			}
			decision.Superseded = active.ID
		}
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("admitting %s/%s: %w", candidate.Source, candidate.ExternalID, err)
	}

	if e.seen != nil {
		if err := e.seen.MarkSeen(ctx, key, e.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to mark item as seen")
		}
	}

	return decision, nil
}

// seenBefore reports whether a was seen strictly before b. Equal fetch times
// fall back to source priority and then external id so the winner never
// depends on admission order.
func seenBefore(a, b models.ContentItem) bool {
	if !a.FetchedAt.Equal(b.FetchedAt) {
		return a.FetchedAt.Before(b.FetchedAt)
	}
	if a.Source != b.Source {
		return a.Source.Priority() < b.Source.Priority()
	}
	return a.ExternalID < b.ExternalID
}
