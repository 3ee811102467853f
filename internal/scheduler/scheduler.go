package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bilgisen/postgen/internal/logger"
)

// Job is one scheduled run
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron schedule, skipping a tick while the previous
// run is still going
type Scheduler struct {
	cron    *cron.Cron
	job     Job
	timeout time.Duration

	mu      sync.Mutex
	running bool
	entry   cron.EntryID
}

func New(job Job, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		job:     job,
		timeout: timeout,
	}
}

// Start registers the job under schedule ("@every 6h", "0 */4 * * *") and starts the cron loop
func (s *Scheduler) Start(schedule string) error {
	id, err := s.cron.AddFunc(schedule, s.Run)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.mu.Lock()
	s.entry = id
	s.mu.Unlock()

	s.cron.Start()
	logger.Info().Str("schedule", schedule).Msg("Scheduler started")
	return nil
}

// Next returns the next planned run, zero before Start
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// Run executes the job once unless a run is already in progress
func (s *Scheduler) Run() {
	log := logger.Component("scheduler")

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn().Msg("Previous run still in progress, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.job(ctx); err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Scheduled run failed")
		return
	}
	log.Info().Dur("duration", time.Since(start)).Msg("Scheduled run finished")
}

// Stop stops the cron loop and waits for a running job until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
