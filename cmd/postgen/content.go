package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/bilgisen/postgen/internal/app"
	"github.com/bilgisen/postgen/internal/feed"
	"github.com/bilgisen/postgen/internal/selection"
	"github.com/bilgisen/postgen/internal/utils"
)

var (
	flagWindow   string
	flagCategory string
	flagLimit    int
	flagSave     bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch content from every source into the pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := application.Fetch(cmd.Context())
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview-content",
	Short: "Show the ranked content pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		window, err := parseWindowFlag(flagWindow)
		if err != nil {
			return err
		}
		category, err := parseCategoryFlag(flagCategory)
		if err != nil {
			return err
		}

		ranked, err := application.Preview(cmd.Context(), app.PreviewRequest{
			Window:   window,
			Category: category,
			Limit:    flagLimit,
		})
		if err != nil {
			return err
		}
		if len(ranked) == 0 {
			fmt.Println(warnStyle.Render("No content in the window. Run `postgen fetch` or widen --window."))
			return nil
		}

		rows := make([][]string, 0, len(ranked))
		for i, rc := range ranked {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				strconv.FormatInt(rc.Item.ID, 10),
				fmt.Sprintf("%.3f", rc.Score),
				fmt.Sprintf("%.2f/%.2f/%.2f", rc.Recency, rc.Engagement, rc.Relevance),
				string(rc.Item.Source),
				string(rc.Item.Category),
				utils.Truncate(rc.Item.Title, 60),
			})
		}
		heading(fmt.Sprintf("Top %d items", len(ranked)))
		table([]string{"#", "ID", "SCORE", "REC/ENG/REL", "SOURCE", "CATEGORY", "TITLE"}, rows)
		return nil
	},
}

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Fetch content, then draft a news post from the top item",
	RunE: func(cmd *cobra.Command, args []string) error {
		window, err := parseWindowFlag(flagWindow)
		if err != nil {
			return err
		}
		category, err := parseCategoryFlag(flagCategory)
		if err != nil {
			return err
		}

		out, err := application.Workflow(cmd.Context(), category, window, flagSave)
		if out != nil && out.Report != nil {
			printReport(out.Report)
			fmt.Println()
		}
		if errors.Is(err, selection.ErrNoEligibleContent) {
			printNoEligible()
			return nil
		}
		if err != nil {
			return err
		}
		printDraft(out.Result)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{previewCmd, workflowCmd} {
		c.Flags().StringVar(&flagWindow, "window", "", "content window (e.g. 7d, 48h); defaults to WINDOW")
		c.Flags().StringVar(&flagCategory, "category", "", "AI, DevOps, Cloud, DataScience or Other")
	}
	previewCmd.Flags().IntVar(&flagLimit, "limit", 10, "number of items to show")
	workflowCmd.Flags().BoolVar(&flagSave, "save-file", false, "export the draft as markdown")
}

func printReport(r *feed.IngestReport) {
	heading("Ingestion report")
	field("Run", r.RunID)
	field("Duration", r.Duration.Round(time.Millisecond))
	field("Fetched", r.Fetched)
	field("Accepted", successStyle.Render(strconv.Itoa(r.Accepted)))
	field("Duplicates suppressed", r.Suppressed)
	field("Already ingested", r.AlreadyIngested)
	field("Rejected by filter", r.Rejected)
	if r.Failed > 0 {
		field("Failed", warnStyle.Render(strconv.Itoa(r.Failed)))
	}
	for _, g := range r.Gaps {
		fmt.Println(warnStyle.Render(fmt.Sprintf("  ! %s: %s", g.Source, g.Reason)))
	}
}

func printNoEligible() {
	fmt.Println(warnStyle.Render("No eligible content for a news post."))
	fmt.Println(mutedStyle.Render("Every matching item is already used or the window is empty; try a wider --window or run `postgen fetch`."))
}
