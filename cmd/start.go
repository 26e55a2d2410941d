package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/autopilot/internal/session"
)

var startSummary string

var startCmd = &cobra.Command{
	Use:     "start <KEY>",
	Short:   "Make an issue the current one and claim unattributed work",
	GroupID: "work",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEngine()
		var claimed int
		s, err := mutateSession(cmd.Context(), e, func(s *session.Session) error {
			var err error
			claimed, err = e.StartIssue(cmd.Context(), s, args[0], startSummary)
			return err
		})
		if err != nil {
			return err
		}
		key, _ := s.CurrentIssue.Key()
		if summary := s.ActiveIssues[key].Summary; summary != "" {
			cmd.Printf("Tracking %s: %s\n", key, summary)
		} else {
			cmd.Printf("Tracking %s\n", key)
		}
		if claimed > 0 {
			cmd.Printf("Claimed %d unattributed chunks\n", claimed)
		}
		return nil
	},
}

func init() {
	startCmd.Flags().StringVarP(&startSummary, "summary", "s", "", "issue summary (fetched from Jira when omitted)")
	rootCmd.AddCommand(startCmd)
}
