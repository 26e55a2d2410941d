package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/autopilot/internal/collector"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Record file writes made outside the agent until interrupted",
	GroupID: "work",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireSession(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cmd.Printf("Watching %s (Ctrl-C to stop)\n", env.root)
		rec := collector.StoreRecorder{Store: env.store}
		return collector.Watch(ctx, env.root, rec, env.resolved.Config.IgnorePatterns, env.log.Category("watch"))
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
