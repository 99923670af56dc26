package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	app := newApp(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "voicesocial",
		Short:         "Voice Social API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
		// 不带子命令时直接启动服务
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), app)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (defaults to $VOICE_SOCIAL_CONFIG)")

	rootCmd.AddCommand(newServeCommand(app))
	rootCmd.AddCommand(newMigrateCommand(app))
	rootCmd.AddCommand(newPruneHistoryCommand(app))
	rootCmd.AddCommand(newLeaderboardCommand(app))

	return rootCmd
}
