package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/bilgisen/postgen/internal/api"
	"github.com/bilgisen/postgen/internal/logger"
	"github.com/bilgisen/postgen/internal/scheduler"
)

// scheduledFetchTimeout bounds one cron-triggered ingestion run
const scheduledFetchTimeout = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled fetch",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Get()
		ctx := cmd.Context()

		server := api.NewServer(cfg, application)

		var sched *scheduler.Scheduler
		if cfg.FetchSchedule != "" {
			sched = scheduler.New(func(ctx context.Context) error {
				_, err := application.Fetch(ctx)
				return err
			}, scheduledFetchTimeout)
			if err := sched.Start(cfg.FetchSchedule); err != nil {
				return err
			}
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("port", cfg.Port).Msg("Starting server")
			errCh <- server.Listen(":" + cfg.Port)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return err
			}
		case <-ctx.Done():
		}

		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if sched != nil {
			errs = append(errs, sched.Stop(shutdownCtx))
		}
		if err := server.ShutdownWithContext(shutdownCtx); err != nil {
			logger.WithError(err).Msg("Server forced to shutdown")
			errs = append(errs, err)
		}

		log.Info().Msg("Server exited properly")
		return errors.Join(errs...)
	},
}
