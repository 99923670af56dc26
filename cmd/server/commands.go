package main

import (
	"fmt"
	"strconv"
	"time"

	"voicesocial/internal/db"
	"voicesocial/internal/services"

	"github.com/spf13/cobra"
)

func newMigrateCommand(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := app.database()
			if err != nil {
				return err
			}
			if err := db.Migrate(conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newPruneHistoryCommand(app *app) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune-history",
		Short: "Delete voice rotation history older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := app.settings()
			if err != nil {
				return err
			}
			conn, err := app.database()
			if err != nil {
				return err
			}
			if olderThan == 0 {
				olderThan = cfg.HistoryRetention()
			}

			rotation := services.NewRotationService(conn, cfg.RotationWindow(), logger)
			deleted, err := rotation.PruneHistory(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d history rows older than %s\n", deleted, olderThan)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Retention period (defaults to feed.history_retention_hours)")
	return cmd
}

func newLeaderboardCommand(app *app) *cobra.Command {
	var (
		timeframe string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the points leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			tf, err := services.ParseTimeframe(timeframe)
			if err != nil {
				return err
			}
			svc, err := app.buildServices(nil)
			if err != nil {
				return err
			}

			entries, err := svc.leaderboard.Leaderboard(cmd.Context(), tf, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users on the leaderboard")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.Itoa(e.Rank),
					e.User.FID.String(),
					e.User.Name(),
					strconv.Itoa(e.Points.TotalPoints),
					strconv.Itoa(e.Points.ViewPoints),
					strconv.Itoa(e.Points.LikePoints),
					strconv.Itoa(e.Points.CommentPoints),
					strconv.FormatInt(e.VoiceCount, 10),
					e.Level,
				})
			}
			headers := []string{"Rank", "FID", "Name", "Total", "Views", "Likes", "Comments", "Voices", "Level"}
			aligns := []columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
	cmd.Flags().StringVar(&timeframe, "timeframe", "all", "all, weekly or monthly")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of rows (defaults to leaderboard.default_limit)")
	return cmd
}
