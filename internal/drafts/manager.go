package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bilgisen/postgen/internal/ai"
	"github.com/bilgisen/postgen/internal/logger"
	"github.com/bilgisen/postgen/internal/models"
	"github.com/bilgisen/postgen/internal/storage"
)

var (
	// ErrGenerationFailed covers generator errors, unusable output and
	// missing grounding. No draft is stored when it is returned.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrInvalidTransition is returned for any lifecycle move other than draft -> posted.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrInvalidEngagement is returned for negative engagement counts.
	ErrInvalidEngagement = errors.New("engagement must be a non-negative integer")
	// ErrGroundingInUse is returned when a grounding item is already referenced by a draft.
	ErrGroundingInUse = errors.New("grounding content already used by another draft")
	// ErrNotFound is returned for unknown draft ids.
	ErrNotFound = storage.ErrNotFound
)

// Generator produces a post body from a prompt context
type Generator interface {
	Generate(ctx context.Context, pc ai.PromptContext) (string, error)
}

// Store is the transactional surface the manager needs
type Store interface {
	Update(ctx context.Context, fn func(tx *storage.Tx) error) error
	View(ctx context.Context, fn func(tx *storage.Tx) error) error
}

// GenerateRequest carries the inputs of one generation
type GenerateRequest struct {
	Type      models.PostType
	Category  models.Category
	Grounding []models.ContentItem
	Tip       *models.Tip
}

// Manager owns PostDraft state transitions
type Manager struct {
	store     Store
	generator Generator
	processor *ai.PostProcessor
	now       func() time.Time
}

func NewManager(store Store, generator Generator, processor *ai.PostProcessor) *Manager {
	return &Manager{
		store:     store,
		generator: generator,
		processor: processor,
		now:       time.Now,
	}
}

// Generate asks the generator for a body and stores it as a new draft
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (*models.PostDraft, error) {
	log := logger.Get()

	draft := &models.PostDraft{
		Type:             req.Type,
		Category:         req.Category,
		Status:           models.StatusDraft,
		SourceContentIDs: []int64{},
	}

	switch req.Type {
	case models.PostTypeNews:
		if len(req.Grounding) == 0 {
			return nil, fmt.Errorf("%w: news post requires grounding content", ErrGenerationFailed)
		}
		for _, item := range req.Grounding {
			draft.SourceContentIDs = append(draft.SourceContentIDs, item.ID)
		}
		if draft.Category == "" {
			draft.Category = req.Grounding[0].Category
		}
	case models.PostTypeTip:
		if req.Tip == nil {
			return nil, fmt.Errorf("%w: tip post requires a tip", ErrGenerationFailed)
		}
		draft.Topic = req.Tip.Topic
		if draft.Category == "" {
			draft.Category = req.Tip.Category
		}
	default:
		return nil, fmt.Errorf("%w: unsupported post type %q", ErrGenerationFailed, req.Type)
	}
	if draft.Category == "" {
		draft.Category = models.CategoryOther
	}

	start := m.now()
	body, err := m.generator.Generate(ctx, ai.PromptContext{
		Type:      req.Type,
		Category:  draft.Category,
		Grounding: req.Grounding,
		Tip:       req.Tip,
	})
	if err != nil {
		log.Error().Err(err).Str("type", string(req.Type)).Msg("Generator call failed")
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	body, err = m.processor.ProcessBody(body, draft.Category)
	if err != nil {
		log.Warn().Err(err).Str("type", string(req.Type)).Msg("Rejected generated body")
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	draft.Body = body
	draft.CreatedAt = m.now()

	err = m.store.Update(ctx, func(tx *storage.Tx) error {
		if len(draft.SourceContentIDs) > 0 {
			used, err := tx.ReferencedContentIDs(ctx)
			if err != nil {
				return err
			}
			for _, id := range draft.SourceContentIDs {
				if _, ok := used[id]; ok {
					return fmt.Errorf("%w: content %d", ErrGroundingInUse, id)
				}
			}
		}
		return tx.InsertDraft(ctx, draft)
	})
	if err != nil {
		return nil, fmt.Errorf("storing draft: %w", err)
	}

	log.Info().
		Int64("draft_id", draft.ID).
		Str("type", string(draft.Type)).
		Str("category", string(draft.Category)).
		Int("body_length", len(draft.Body)).
		Dur("duration", m.now().Sub(start)).
		Msg("Draft generated")

	return draft, nil
}

// MarkPosted moves a draft to posted, recording the time and, optionally,
// the engagement count. A draft that is already posted is left untouched.
func (m *Manager) MarkPosted(ctx context.Context, id int64, engagement *int) (*models.PostDraft, error) {
	if engagement != nil && *engagement < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidEngagement, *engagement)
	}

	var draft *models.PostDraft
	err := m.store.Update(ctx, func(tx *storage.Tx) error {
		d, err := tx.GetDraft(ctx, id)
		if err != nil {
			return err
		}
		if d.Status != models.StatusDraft {
			return fmt.Errorf("%w: draft %d is already %s", ErrInvalidTransition, id, d.Status)
		}

		postedAt := m.now()
		if err := tx.UpdateDraftStatus(ctx, id, models.StatusDraft, models.StatusPosted, &postedAt, engagement); err != nil {
			return err
		}

		d.Status = models.StatusPosted
		d.PostedAt = &postedAt
		d.Engagement = engagement
		draft = d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("marking draft %d posted: %w", id, err)
	}

	logger.Info().Int64("draft_id", id).Msg("Draft marked as posted")
	return draft, nil
}

// Get returns a draft by id
func (m *Manager) Get(ctx context.Context, id int64) (*models.PostDraft, error) {
	var d *models.PostDraft
	err := m.store.View(ctx, func(tx *storage.Tx) error {
		var err error
		d, err = tx.GetDraft(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reading draft %d: %w", id, err)
	}
	return d, nil
}

// List returns drafts newest first, optionally filtered by status
func (m *Manager) List(ctx context.Context, status *models.DraftStatus, limit int) ([]models.PostDraft, error) {
	var drafts []models.PostDraft
	err := m.store.View(ctx, func(tx *storage.Tx) error {
		var err error
		drafts, err = tx.ListDrafts(ctx, storage.DraftQuery{Status: status, Limit: limit})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	return drafts, nil
}

// TipsUsed counts tip drafts already created for category
func (m *Manager) TipsUsed(ctx context.Context, category models.Category) (int, error) {
	var n int
	err := m.store.View(ctx, func(tx *storage.Tx) error {
		drafts, err := tx.ListDrafts(ctx, storage.DraftQuery{Type: models.PostTypeTip})
		if err != nil {
			return err
		}
		for _, d := range drafts {
			if category == "" || d.Category == category {
				n++
			}
		}
		return nil
	})
	return n, err
}
