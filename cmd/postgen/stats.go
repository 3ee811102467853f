package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bilgisen/postgen/internal/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show content and draft statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		window, err := parseWindowFlag(flagWindow)
		if err != nil {
			return err
		}

		s, err := application.Stats(cmd.Context(), window)
		if err != nil {
			return err
		}

		heading("Content")
		field("Total items", s.TotalContent)
		field(fmt.Sprintf("Ingested in last %s", formatDuration(s.Window)), s.ContentInWindow)
		field("Suppressed duplicates", s.SuppressedCount)
		for _, src := range models.Sources {
			if n := s.ContentBySource[src]; n > 0 {
				field("  "+string(src), n)
			}
		}
		if s.LastFetch != nil {
			field("Last fetch", s.LastFetch.Local().Format("2006-01-02 15:04"))
		} else {
			field("Last fetch", mutedStyle.Render("never"))
		}

		fmt.Println()
		heading("Drafts")
		field("Total", s.TotalDrafts)
		field("Draft", s.DraftsByStatus[models.StatusDraft])
		field("Posted", s.DraftsByStatus[models.StatusPosted])
		field("News / Tip", fmt.Sprintf("%d / %d", s.DraftsByType[models.PostTypeNews], s.DraftsByType[models.PostTypeTip]))
		field("Engagement total", s.EngagementTotal)
		field("Engagement average", fmt.Sprintf("%.1f", s.EngagementAverage))
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&flagWindow, "window", "", "window for recent counts; defaults to WINDOW")
}
