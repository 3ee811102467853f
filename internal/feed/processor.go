package feed

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bilgisen/postgen/internal/dedup"
	"github.com/bilgisen/postgen/internal/logger"
	"github.com/bilgisen/postgen/internal/models"
)

// Admitter stores a normalized item and classifies it
type Admitter interface {
	Admit(ctx context.Context, candidate models.ContentItem) (dedup.Decision, error)
}

// IngestReport summarizes one ingestion run
type IngestReport struct {
	RunID           string        `json:"run_id"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	Fetched         int           `json:"fetched"`
	Accepted        int           `json:"accepted"`
	Suppressed      int           `json:"suppressed"`
	AlreadyIngested int           `json:"already_ingested"`
	Rejected        int           `json:"rejected"`
	Failed          int           `json:"failed"`
	Gaps            []Gap         `json:"gaps,omitempty"`
}

// Processor runs the fetch, normalize, filter and admit pipeline
type Processor struct {
	fetcher    *Fetcher
	normalizer *Normalizer
	filter     *QualityFilter
	admitter   Admitter
	now        func() time.Time
}

func NewProcessor(fetcher *Fetcher, normalizer *Normalizer, filter *QualityFilter, admitter Admitter) *Processor {
	return &Processor{
		fetcher:    fetcher,
		normalizer: normalizer,
		filter:     filter,
		admitter:   admitter,
		now:        time.Now,
	}
}

// Run fetches every source and ingests the result. Source failures end up in
// the report's Gaps; only a cancelled context aborts the run.
func (p *Processor) Run(ctx context.Context) (*IngestReport, error) {
	runID := uuid.NewString()
	log := logger.Get().With().Str("run_id", runID).Logger()
	start := p.now()

	log.Info().Int("sources", len(p.fetcher.Adapters())).Msg("Starting ingestion run")
	result := p.fetcher.FetchAll(ctx)

	report, err := p.ingest(ctx, runID, result.Records, start)
	report.Gaps = result.Gaps
	report.StartedAt = start
	report.Duration = p.now().Sub(start)
	if err != nil {
		return report, err
	}

	log.Info().
		Int("fetched", report.Fetched).
		Int("accepted", report.Accepted).
		Int("suppressed", report.Suppressed).
		Int("already_ingested", report.AlreadyIngested).
		Int("rejected", report.Rejected).
		Int("failed", report.Failed).
		Int("gaps", len(report.Gaps)).
		Dur("duration", report.Duration).
		Msg("Finished ingestion run")

	return report, nil
}

// Ingest normalizes, filters and admits records that were fetched at fetchedAt
func (p *Processor) Ingest(ctx context.Context, records []models.RawRecord, fetchedAt time.Time) (*IngestReport, error) {
	report, err := p.ingest(ctx, uuid.NewString(), records, fetchedAt)
	report.StartedAt = fetchedAt
	return report, err
}

func (p *Processor) ingest(ctx context.Context, runID string, records []models.RawRecord, fetchedAt time.Time) (*IngestReport, error) {
	log := logger.Get().With().Str("run_id", runID).Logger()
	report := &IngestReport{RunID: runID, Fetched: len(records)}

	items := make([]models.ContentItem, 0, len(records))
	for _, raw := range records {
		item := p.normalizer.Normalize(raw, fetchedAt)
		if item.DateFallback {
			log.Debug().
				Str("source", string(item.Source)).
				Str("external_id", item.ExternalID).
				Str("published_raw", raw.PublishedRaw).
				Msg("Unparseable publish date, using fetch time")
		}
		if err := p.filter.Check(item); err != nil {
			log.Debug().
				Str("source", string(item.Source)).
				Str("external_id", item.ExternalID).
				Err(err).
				Msg("Item rejected")
			report.Rejected++
			continue
		}
		items = append(items, item)
	}

	// Every item of a run shares fetchedAt, so admission order is fixed here
	// to keep the stored ids reproducible.
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Source != items[j].Source {
			return items[i].Source.Priority() < items[j].Source.Priority()
		}
		return items[i].ExternalID < items[j].ExternalID
	})

	for _, item := range items {
		decision, err := p.admitter.Admit(ctx, item)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			log.Error().
				Err(err).
				Str("source", string(item.Source)).
				Str("external_id", item.ExternalID).
				Msg("Failed to admit item")
			report.Failed++
			continue
		}

		switch decision.Outcome {
		case dedup.Accepted:
			report.Accepted++
		case dedup.Suppressed:
			report.Suppressed++
			log.Debug().
				Int64("id", decision.ID).
				Int64("duplicate_of", decision.DuplicateOf).
				Str("title", item.Title).
				Msg("Duplicate suppressed")
		case dedup.AlreadyIngested:
			report.AlreadyIngested++
		}
	}

	return report, nil
}
