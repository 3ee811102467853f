package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bilgisen/postgen/internal/ai"
	"github.com/bilgisen/postgen/internal/cache"
	"github.com/bilgisen/postgen/internal/config"
	"github.com/bilgisen/postgen/internal/dedup"
	"github.com/bilgisen/postgen/internal/drafts"
	"github.com/bilgisen/postgen/internal/export"
	"github.com/bilgisen/postgen/internal/feed"
	"github.com/bilgisen/postgen/internal/logger"
	"github.com/bilgisen/postgen/internal/ranking"
	"github.com/bilgisen/postgen/internal/stats"
	"github.com/bilgisen/postgen/internal/storage"
	"github.com/bilgisen/postgen/internal/tips"
)

// Deps are the collaborators New would otherwise build from configuration
type Deps struct {
	Store     *storage.Store
	Seen      cache.SeenStore
	Generator drafts.Generator
	Adapters  []feed.Adapter
	Tips      *tips.Collection
	Archive   *export.Archive
}

// App wires the engine components behind the operations used by the CLI and
// the HTTP API
type App struct {
	cfg       *config.Config
	store     *storage.Store
	seen      cache.SeenStore
	processor *feed.Processor
	ranker    *ranking.Ranker
	drafts    *drafts.Manager
	tips      *tips.Collection
	stats     *stats.Aggregator
	archive   *export.Archive
	now       func() time.Time
}

// New opens the store and connects the external collaborators described by cfg
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.Get()

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	var seen cache.SeenStore
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-memory seen cache")
		} else {
			seen = redisClient
		}
	}
	if seen == nil {
		seen = cache.NewMemoryCache()
	}

	var archive *export.Archive
	if cfg.ArchiveEnabled() {
		archive, err = export.NewArchive(ctx, export.ArchiveConfig{
			Endpoint:  cfg.R2Endpoint,
			AccessKey: cfg.R2AccessKey,
			SecretKey: cfg.R2SecretKey,
			Bucket:    cfg.R2Bucket,
		})
		if err != nil {
			store.Close()
			seen.Close()
			return nil, err
		}
	}

	generator := ai.NewGeminiClient(cfg.AIApiKey, cfg.AIModel,
		ai.WithTimeout(cfg.AITimeout),
		ai.WithRetries(cfg.AIMaxRetries),
	)

	client := feed.NewHTTPClient(cfg.HTTPTimeout, 2)
	adapters := []feed.Adapter{
		feed.NewArXiv(client, "", cfg.ArXivCategories, cfg.SourceLimit),
		feed.NewHackerNews(client, "", cfg.SourceLimit, cfg.MaxConcurrency),
		feed.NewDevTo(client, "", cfg.DevToTags, cfg.SourceLimit),
		feed.NewReddit(client, "", cfg.RedditSubreddits, cfg.SourceLimit),
	}

	return NewWithDeps(cfg, Deps{
		Store:     store,
		Seen:      seen,
		Generator: generator,
		Adapters:  adapters,
		Tips:      tips.Default(),
		Archive:   archive,
	}), nil
}

// NewWithDeps builds the App around caller-provided collaborators
func NewWithDeps(cfg *config.Config, deps Deps) *App {
	matcher := ranking.NewMatcher(cfg.Relevance)
	engine := dedup.NewEngine(deps.Store, deps.Seen, cfg.CacheTTL)

	collection := deps.Tips
	if collection == nil {
		collection = tips.Default()
	}

	return &App{
		cfg:   cfg,
		store: deps.Store,
		seen:  deps.Seen,
		processor: feed.NewProcessor(
			feed.NewFetcher(deps.Adapters...),
			feed.NewNormalizer(matcher),
			feed.NewQualityFilter(),
			engine,
		),
		ranker:  ranking.NewRanker(cfg.Relevance),
		drafts:  drafts.NewManager(deps.Store, deps.Generator, ai.NewPostProcessor(cfg.MinBodyLength)),
		tips:    collection,
		stats:   stats.NewAggregator(deps.Store),
		archive: deps.Archive,
		now:     time.Now,
	}
}

// Config returns the configuration the App was built with
func (a *App) Config() *config.Config {
	return a.cfg
}

// Close releases the store and the seen cache
func (a *App) Close() error {
	var errs []error
	if a.seen != nil {
		errs = append(errs, a.seen.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}

func (a *App) window(w time.Duration) time.Duration {
	if w <= 0 {
		return a.cfg.Window
	}
	return w
}

// Fetch runs one ingestion pass over every source
func (a *App) Fetch(ctx context.Context) (*feed.IngestReport, error) {
	report, err := a.processor.Run(ctx)
	if err != nil {
		return report, fmt.Errorf("fetching content: %w", err)
	}
	return report, nil
}

// Stats computes the statistics summary over window
func (a *App) Stats(ctx context.Context, window time.Duration) (*stats.Summary, error) {
	return a.stats.Compute(ctx, a.now(), a.window(window))
}
