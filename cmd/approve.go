package cmd

import (
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/autopilot/internal/engine"
	"github.com/fakeyudi/autopilot/internal/report"
	"github.com/fakeyudi/autopilot/internal/session"
	"github.com/fakeyudi/autopilot/internal/tui"
)

var (
	approveAll   bool
	approveIssue string
)

var approveCmd = &cobra.Command{
	Use:     "approve",
	Short:   "Review queued worklogs and post the approved ones",
	GroupID: "work",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession()
		if err != nil {
			return err
		}

		var decisions []engine.Decision
		switch {
		case approveAll:
			decisions = engine.ApproveAll(s, approveIssue)
		case term.IsTerminal(os.Stdin.Fd()):
			decisions, err = tui.RunApproval(report.FromSession(s), "Approve worklogs", approveIssue)
			if err != nil {
				return err
			}
		default:
			cmd.Println("stdin is not a terminal; use --all to approve every pending worklog")
			return nil
		}
		if len(decisions) == 0 {
			cmd.Println("nothing to approve")
			return nil
		}

		e := newEngine()
		var rep engine.Report
		_, err = saveSession(requireSession, func(s *session.Session) error {
			rep = e.Approve(cmd.Context(), s, decisions)
			return nil
		})
		if err != nil {
			return err
		}
		printDelivery(cmd, e, rep)
		return nil
	},
}

var postCmd = &cobra.Command{
	Use:     "post",
	Short:   "Post approved worklogs to Jira",
	GroupID: "work",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEngine()
		var rep engine.Report
		_, err := saveSession(requireSession, func(s *session.Session) error {
			rep = e.PostApproved(cmd.Context(), s)
			return nil
		})
		if err != nil {
			return err
		}
		printDelivery(cmd, e, rep)
		return nil
	},
}

func printDelivery(cmd *cobra.Command, e *engine.Engine, rep engine.Report) {
	if e.Tracker == nil {
		cmd.Println("Jira credentials are not configured; approved worklogs stay queued (run 'autopilot setup')")
		return
	}
	cmd.Printf("Posted %d worklogs", rep.Posted)
	if rep.Failed > 0 {
		cmd.Printf(", %d failed (review them with 'autopilot approve')", rep.Failed)
	}
	cmd.Println()
}

func init() {
	approveCmd.Flags().BoolVar(&approveAll, "all", false, "approve every pending worklog without prompting")
	approveCmd.Flags().StringVar(&approveIssue, "issue", "", "issue key for unattributed worklogs")
	rootCmd.AddCommand(approveCmd, postCmd)
}
