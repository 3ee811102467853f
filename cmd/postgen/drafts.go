package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bilgisen/postgen/internal/app"
	"github.com/bilgisen/postgen/internal/models"
	"github.com/bilgisen/postgen/internal/selection"
	"github.com/bilgisen/postgen/internal/utils"
)

var (
	flagType       string
	flagStatus     string
	flagID         int64
	flagEngagement int
	flagDraftLimit int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft a news or tip post",
	RunE: func(cmd *cobra.Command, args []string) error {
		postType, err := models.ParsePostType(flagType)
		if err != nil {
			return err
		}
		window, err := parseWindowFlag(flagWindow)
		if err != nil {
			return err
		}
		category, err := parseCategoryFlag(flagCategory)
		if err != nil {
			return err
		}

		res, err := application.Generate(cmd.Context(), app.GenerateRequest{
			Type:     postType,
			Category: category,
			Window:   window,
			Save:     flagSave,
		})
		if errors.Is(err, selection.ErrNoEligibleContent) {
			printNoEligible()
			return nil
		}
		if err != nil {
			return err
		}
		printDraft(res)
		return nil
	},
}

var listDraftsCmd = &cobra.Command{
	Use:   "list-drafts",
	Short: "List drafts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var status *models.DraftStatus
		if flagStatus != "" {
			s, err := models.ParseDraftStatus(flagStatus)
			if err != nil {
				return err
			}
			status = &s
		}

		list, err := application.ListDrafts(cmd.Context(), status, flagDraftLimit)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println(mutedStyle.Render("No drafts yet. Run `postgen generate`."))
			return nil
		}

		rows := make([][]string, 0, len(list))
		for _, d := range list {
			rows = append(rows, []string{
				strconv.FormatInt(d.ID, 10),
				string(d.Type),
				string(d.Category),
				string(d.Status),
				d.CreatedAt.Local().Format("2006-01-02 15:04"),
				utils.Truncate(firstLine(d.Body), 50),
			})
		}
		table([]string{"ID", "TYPE", "CATEGORY", "STATUS", "CREATED", "PREVIEW"}, rows)
		return nil
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Show a draft with its sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := application.Review(cmd.Context(), flagID, flagSave)
		if err != nil {
			return err
		}
		printDraft(res)
		return nil
	},
}

var markPostedCmd = &cobra.Command{
	Use:   "mark-posted",
	Short: "Record that a draft was published",
	RunE: func(cmd *cobra.Command, args []string) error {
		var engagement *int
		if cmd.Flags().Changed("engagement") {
			engagement = &flagEngagement
		}

		d, err := application.MarkPosted(cmd.Context(), flagID, engagement)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Draft %d marked as posted at %s", d.ID, d.PostedAt.Local().Format("2006-01-02 15:04"))))
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&flagType, "type", "news", "post type: news or tip")
	generateCmd.Flags().StringVar(&flagCategory, "category", "", "AI, DevOps, Cloud, DataScience or Other")
	generateCmd.Flags().StringVar(&flagWindow, "window", "", "content window (e.g. 7d, 48h); defaults to WINDOW")
	generateCmd.Flags().BoolVar(&flagSave, "save-file", false, "export the draft as markdown")

	listDraftsCmd.Flags().StringVar(&flagStatus, "status", "", "filter by status: draft or posted")
	listDraftsCmd.Flags().IntVar(&flagDraftLimit, "limit", 20, "maximum number of drafts")

	reviewCmd.Flags().Int64Var(&flagID, "id", 0, "draft id")
	reviewCmd.Flags().BoolVar(&flagSave, "save", false, "export the draft as markdown")
	_ = reviewCmd.MarkFlagRequired("id")

	markPostedCmd.Flags().Int64Var(&flagID, "id", 0, "draft id")
	markPostedCmd.Flags().IntVar(&flagEngagement, "engagement", 0, "reactions + comments at the time of marking")
	_ = markPostedCmd.MarkFlagRequired("id")
}

func printDraft(res *app.DraftResult) {
	d := res.Draft
	heading(fmt.Sprintf("Draft #%d", d.ID))
	field("Type", d.Type)
	field("Category", d.Category)
	field("Status", d.Status)
	field("Created", d.CreatedAt.Local().Format("2006-01-02 15:04"))
	if d.Topic != "" {
		field("Topic", d.Topic)
	}
	if d.PostedAt != nil {
		field("Posted", d.PostedAt.Local().Format("2006-01-02 15:04"))
	}
	if d.Engagement != nil {
		field("Engagement", *d.Engagement)
	}

	fmt.Println(bodyStyle.Render(d.Body))

	if len(res.Sources) > 0 {
		fmt.Println(headerStyle.Render("Sources"))
		for _, s := range res.Sources {
			fmt.Printf("  [%s] %s\n  %s\n", s.Source, s.Title, mutedStyle.Render(s.URL))
		}
	}
	if res.Path != "" {
		field("Saved to", res.Path)
	}
	if res.ArchiveKey != "" {
		field("Archived as", res.ArchiveKey)
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
