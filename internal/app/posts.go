package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bilgisen/postgen/internal/drafts"
	"github.com/bilgisen/postgen/internal/export"
	"github.com/bilgisen/postgen/internal/feed"
	"github.com/bilgisen/postgen/internal/logger"
	"github.com/bilgisen/postgen/internal/models"
	"github.com/bilgisen/postgen/internal/selection"
	"github.com/bilgisen/postgen/internal/storage"
)

// GenerateRequest describes the post to draft
type GenerateRequest struct {
	Type     models.PostType
	Category models.Category
	Window   time.Duration
	// Save also exports the draft as markdown (and to the archive if configured).
	Save bool
}

// DraftResult is a draft plus its grounding items and export locations
type DraftResult struct {
	Draft      *models.PostDraft    `json:"draft"`
	Sources    []models.ContentItem `json:"sources"`
	Path       string               `json:"path,omitempty"`
	ArchiveKey string               `json:"archive_key,omitempty"`
}

// Generate selects grounding (news) or a tip, asks the generator for a body
// and stores the draft. It returns selection.ErrNoEligibleContent when no
// unused item matches.
func (a *App) Generate(ctx context.Context, req GenerateRequest) (*DraftResult, error) {
	genReq := drafts.GenerateRequest{Type: req.Type, Category: req.Category}

	switch req.Type {
	case models.PostTypeNews:
		item, err := a.selectNews(ctx, req.Category, a.window(req.Window))
		if err != nil {
			return nil, err
		}
		genReq.Grounding = []models.ContentItem{*item}
		if genReq.Category == "" {
			genReq.Category = item.Category
		}
	case models.PostTypeTip:
		used, err := a.drafts.TipsUsed(ctx, req.Category)
		if err != nil {
			return nil, fmt.Errorf("counting tip drafts: %w", err)
		}
		tip, err := a.tips.Pick(req.Category, used)
		if err != nil {
			return nil, err
		}
		genReq.Tip = &tip
	default:
		return nil, fmt.Errorf("unsupported post type %q", req.Type)
	}

	d, err := a.drafts.Generate(ctx, genReq)
	if err != nil {
		return nil, err
	}

	res := &DraftResult{Draft: d, Sources: genReq.Grounding}
	if res.Sources == nil {
		res.Sources = []models.ContentItem{}
	}
	if req.Save {
		if err := a.export(ctx, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (a *App) selectNews(ctx context.Context, category models.Category, window time.Duration) (*models.ContentItem, error) {
	ranked, err := a.rank(ctx, window)
	if err != nil {
		return nil, err
	}

	var used map[int64]struct{}
	err = a.store.View(ctx, func(tx *storage.Tx) error {
		var err error
		used, err = tx.ReferencedContentIDs(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading used content: %w", err)
	}

	return selection.Select(ranked, selection.Request{
		Type:     models.PostTypeNews,
		Category: category,
		Used:     used,
	})
}

// ListDrafts returns drafts newest first
func (a *App) ListDrafts(ctx context.Context, status *models.DraftStatus, limit int) ([]models.PostDraft, error) {
	return a.drafts.List(ctx, status, limit)
}

// Review loads a draft with its grounding items, optionally exporting it
func (a *App) Review(ctx context.Context, id int64, save bool) (*DraftResult, error) {
	d, err := a.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sources, err := a.store.GetContentItems(ctx, d.SourceContentIDs)
	if err != nil {
		return nil, fmt.Errorf("loading grounding for draft %d: %w", id, err)
	}

	res := &DraftResult{Draft: d, Sources: sources}
	if save {
		if err := a.export(ctx, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// MarkPosted flips a draft to posted
func (a *App) MarkPosted(ctx context.Context, id int64, engagement *int) (*models.PostDraft, error) {
	return a.drafts.MarkPosted(ctx, id, engagement)
}

// WorkflowResult is the outcome of a fetch followed by a news draft
type WorkflowResult struct {
	Report *feed.IngestReport `json:"report"`
	Result *DraftResult       `json:"result,omitempty"`
}

// Workflow fetches and then drafts a news post from the freshly ranked pool.
// An empty selection is returned as selection.ErrNoEligibleContent together
// with the ingestion report.
func (a *App) Workflow(ctx context.Context, category models.Category, window time.Duration, save bool) (*WorkflowResult, error) {
	report, err := a.Fetch(ctx)
	out := &WorkflowResult{Report: report}
	if err != nil {
		return out, err
	}

	out.Result, err = a.Generate(ctx, GenerateRequest{
		Type:     models.PostTypeNews,
		Category: category,
		Window:   window,
		Save:     save,
	})
	return out, err
}

func (a *App) export(ctx context.Context, res *DraftResult) error {
	content, err := export.Markdown(*res.Draft, res.Sources)
	if err != nil {
		return err
	}

	res.Path, err = export.WriteFile(a.cfg.ExportPath, content, *res.Draft)
	if err != nil {
		return err
	}

	if a.archive != nil {
		res.ArchiveKey, err = a.archive.Upload(ctx, res.Draft.ID, content)
		if err != nil {
			return err
		}
	}

	logger.Info().
		Int64("draft_id", res.Draft.ID).
		Str("path", res.Path).
		Str("archive_key", res.ArchiveKey).
		Msg("Draft exported")
	return nil
}
