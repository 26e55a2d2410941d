package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/autopilot/internal/report"
	"github.com/fakeyudi/autopilot/internal/session"
)

var (
	statusLabel   = lipgloss.NewStyle().Bold(true).Width(14)
	statusCurrent = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	statusMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the current tracking session status",
	GroupID: "work",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession()
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				cmd.Println("no active session")
				return nil
			}
			return err
		}
		r := report.FromSession(s)

		row := func(label, value string) {
			cmd.Println(statusLabel.Render(label) + value)
		}
		row("Session:", s.ID)
		row("Started:", r.Session.StartTime.Local().Format(time.RFC3339))
		row("Autonomy:", fmt.Sprintf("%s (accuracy %d)", s.AutonomyLevel, s.Accuracy))
		if key, ok := s.CurrentIssue.Key(); ok {
			row("Current:", statusCurrent.Render(key))
		} else {
			row("Current:", statusMuted.Render("none"))
		}

		cmd.Println()
		cmd.Println(statusLabel.Render("Issues:"))
		if len(r.Issues) == 0 {
			cmd.Println("  " + statusMuted.Render("(none)"))
		}
		for _, is := range r.Issues {
			line := fmt.Sprintf("  %-12s %6s", is.Key, report.FormatSeconds(s.ActiveIssues[is.Key].TotalSeconds))
			if is.Paused {
				line += " " + statusMuted.Render("paused")
			}
			if is.Summary != "" {
				line += "  " + is.Summary
			}
			cmd.Println(line)
		}

		cmd.Println()
		row("Buffered:", fmt.Sprintf("%d activities", len(s.Buffer)))
		row("Chunks:", fmt.Sprintf("%d (%s tracked, %s unattributed)", len(r.Chunks),
			report.FormatSeconds(r.Session.TrackedSeconds), report.FormatSeconds(r.Session.UnattributedSeconds)))

		counts := map[string]int{}
		for _, w := range r.Worklogs {
			counts[w.Status]++
		}
		row("Worklogs:", fmt.Sprintf("%d pending, %d approved, %d unattributed, %d failed",
			counts[string(session.StatusPending)], counts[string(session.StatusApproved)],
			counts[string(session.StatusUnattributed)], counts[string(session.StatusFailed)]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
