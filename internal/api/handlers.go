package api

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/postgen/internal/app"
	"github.com/bilgisen/postgen/internal/config"
	"github.com/bilgisen/postgen/internal/drafts"
	"github.com/bilgisen/postgen/internal/feed"
	"github.com/bilgisen/postgen/internal/logger"
	"github.com/bilgisen/postgen/internal/middleware"
	"github.com/bilgisen/postgen/internal/models"
	"github.com/bilgisen/postgen/internal/selection"
	"github.com/bilgisen/postgen/internal/stats"
	"github.com/bilgisen/postgen/internal/storage"
	"github.com/bilgisen/postgen/internal/tips"
)

const fetchTimeout = 10 * time.Minute

// Service is the application surface the handlers call
type Service interface {
	Fetch(ctx context.Context) (*feed.IngestReport, error)
	Preview(ctx context.Context, req app.PreviewRequest) ([]models.RankedContent, error)
	Generate(ctx context.Context, req app.GenerateRequest) (*app.DraftResult, error)
	ListDrafts(ctx context.Context, status *models.DraftStatus, limit int) ([]models.PostDraft, error)
	Review(ctx context.Context, id int64, save bool) (*app.DraftResult, error)
	MarkPosted(ctx context.Context, id int64, engagement *int) (*models.PostDraft, error)
	Stats(ctx context.Context, window time.Duration) (*stats.Summary, error)
}

type Handlers struct {
	svc Service
}

func NewHandlers(svc Service) *Handlers {
	return &Handlers{svc: svc}
}

type contentQuery struct {
	Window   string `query:"window"`
	Limit    int    `query:"limit" validate:"gte=0,lte=100"`
	Category string `query:"category"`
}

type draftsQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=draft posted"`
	Limit  int    `query:"limit" validate:"gte=0,lte=100"`
}

type statsQuery struct {
	Window string `query:"window"`
}

type generateBody struct {
	Type     string `json:"type" validate:"required,oneof=news tip"`
	Category string `json:"category"`
	Window   string `json:"window"`
	Save     bool   `json:"save"`
}

type postedBody struct {
	Engagement *int `json:"engagement" validate:"omitempty,gte=0"`
}

// toHTTPError maps domain errors onto status codes
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, selection.ErrNoEligibleContent),
		errors.Is(err, tips.ErrNoTips),
		errors.Is(err, storage.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, drafts.ErrInvalidTransition),
		errors.Is(err, drafts.ErrGroundingInUse):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, drafts.ErrInvalidEngagement):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, drafts.ErrGenerationFailed):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return err
}

func parseWindow(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	w, err := config.ParseWindow(s)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid window: "+err.Error())
	}
	return w, nil
}

func parseCategory(s string) (models.Category, error) {
	if s == "" {
		return "", nil
	}
	c, err := models.ParseCategory(s)
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c, nil
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid draft id")
	}
	return id, nil
}

// HealthCheck handles GET /api/v1/health
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": "1.0.0",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// GetContent handles GET /api/v1/content
func (h *Handlers) GetContent(c *fiber.Ctx) error {
	q := middleware.Query[contentQuery](c)
	window, err := parseWindow(q.Window)
	if err != nil {
		return err
	}
	category, err := parseCategory(q.Category)
	if err != nil {
		return err
	}
	limit := q.Limit
	if limit == 0 {
		limit = 10
	}

	ranked, err := h.svc.Preview(c.UserContext(), app.PreviewRequest{Window: window, Category: category, Limit: limit})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{
		"total": len(ranked),
		"items": ranked,
	})
}

// ListDrafts handles GET /api/v1/drafts
func (h *Handlers) ListDrafts(c *fiber.Ctx) error {
	q := middleware.Query[draftsQuery](c)

	var status *models.DraftStatus
	if q.Status != "" {
		s := models.DraftStatus(q.Status)
		status = &s
	}

	list, err := h.svc.ListDrafts(c.UserContext(), status, q.Limit)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{
		"total": len(list),
		"items": list,
	})
}

// GetDraft handles GET /api/v1/drafts/:id
func (h *Handlers) GetDraft(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	res, err := h.svc.Review(c.UserContext(), id, false)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(res)
}

// GetStats handles GET /api/v1/stats
func (h *Handlers) GetStats(c *fiber.Ctx) error {
	window, err := parseWindow(middleware.Query[statsQuery](c).Window)
	if err != nil {
		return err
	}
	summary, err := h.svc.Stats(c.UserContext(), window)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(summary)
}

// Fetch handles POST /api/v1/admin/fetch
func (h *Handlers) Fetch(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), fetchTimeout)
	defer cancel()

	report, err := h.svc.Fetch(ctx)
	if err != nil {
		logger.Get().Error().Err(err).Msg("Fetch request failed")
		return toHTTPError(err)
	}
	return c.JSON(report)
}

// CreateDraft handles POST /api/v1/admin/drafts
func (h *Handlers) CreateDraft(c *fiber.Ctx) error {
	body := middleware.Body[generateBody](c)
	window, err := parseWindow(body.Window)
	if err != nil {
		return err
	}
	category, err := parseCategory(body.Category)
	if err != nil {
		return err
	}

	res, err := h.svc.Generate(c.UserContext(), app.GenerateRequest{
		Type:     models.PostType(body.Type),
		Category: category,
		Window:   window,
		Save:     body.Save,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// MarkPosted handles POST /api/v1/admin/drafts/:id/posted
func (h *Handlers) MarkPosted(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	body := middleware.Body[postedBody](c)

	d, err := h.svc.MarkPosted(c.UserContext(), id, body.Engagement)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(d)
}
