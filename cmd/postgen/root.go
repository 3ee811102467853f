package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bilgisen/postgen/internal/app"
	"github.com/bilgisen/postgen/internal/config"
	"github.com/bilgisen/postgen/internal/logger"
	"github.com/bilgisen/postgen/internal/models"
)

var (
	cfg         *config.Config
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "postgen",
	Short: "Tech content aggregator and LinkedIn post drafter",
	Long: `postgen pulls tech content from arXiv, Hacker News, Dev.to and Reddit,
removes duplicates, ranks what is left and drafts LinkedIn posts from the
best items with Gemini. Drafts are reviewed and marked as posted by hand.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		output := cfg.LogFile
		if output == "" {
			output = "stderr"
		}
		if err := logger.Init(logger.Config{
			Level:  cfg.LogLevel,
			Output: output,
			Pretty: cfg.Env == "development",
		}); err != nil {
			return err
		}

		application, err = app.New(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("starting postgen: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if application == nil {
			return nil
		}
		return application.Close()
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(listDraftsCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(markPostedCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(serveCmd)
}

func parseWindowFlag(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	w, err := config.ParseWindow(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --window value: %w", err)
	}
	return w, nil
}

func parseCategoryFlag(s string) (models.Category, error) {
	if s == "" {
		return "", nil
	}
	c, err := models.ParseCategory(s)
	if err != nil {
		return "", fmt.Errorf("invalid --category value: %w", err)
	}
	return c, nil
}

func formatDuration(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
	return d.String()
}
