package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/autopilot/internal/classify"
	"github.com/fakeyudi/autopilot/internal/config"
	"github.com/fakeyudi/autopilot/internal/engine"
	"github.com/fakeyudi/autopilot/internal/report"
	"github.com/fakeyudi/autopilot/internal/session"
)

var jsonOutput bool

// printJSON writes v indented, for commands that support --json.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

var classifyCmd = &cobra.Command{
	Use:     "classify <text>",
	Short:   "Classify a summary as a Bug or a Task",
	GroupID: "work",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		res := classify.DefaultKeyword().Classify(text, nil)
		if jsonOutput {
			return printJSON(cmd, res)
		}
		cmd.Printf("%s (confidence %.2f)\n", res.Type, res.Confidence)
		if len(res.Signals) > 0 {
			cmd.Printf("Signals: %s\n", strings.Join(res.Signals, ", "))
		}
		return nil
	},
}

var buildWorklogCmd = &cobra.Command{
	Use:     "build-worklog <KEY>",
	Short:   "Preview the worklog an issue would receive now",
	GroupID: "work",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := requireSession()
		if err != nil {
			return err
		}
		pw := newEngine().Preview(s, args[0])
		if jsonOutput {
			return printJSON(cmd, pw)
		}
		if pw.Seconds == 0 {
			cmd.Printf("No tracked time for %s\n", args[0])
			return nil
		}
		cmd.Printf("%s: %s\n", args[0], report.FormatSeconds(pw.Seconds))
		if pw.Capped {
			cmd.Println("(capped at 4h)")
		}
		cmd.Printf("Summary: %s\n", pw.Summary)
		if len(pw.RawFacts.Files) > 0 {
			cmd.Printf("Files: %s\n", strings.Join(pw.RawFacts.Files, ", "))
		}
		return nil
	},
}

var autoCreateCmd = &cobra.Command{
	Use:     "auto-create <prompt>",
	Short:   "Create a Jira issue from a prompt when automation allows it",
	GroupID: "work",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEngine()
		var out engine.Outcome
		_, err := mutateSession(cmd.Context(), e, func(s *session.Session) error {
			// A save conflict reloads the session; the issue already exists.
			if out.OK() {
				e.Adopt(s, out)
				return nil
			}
			out = e.AutoCreate(cmd.Context(), s, strings.Join(args, " "))
			return nil
		})
		if err != nil {
			return err
		}
		if out.OK() && !out.Duplicate && out.ParentKey != "" {
			if err := config.RememberParent(env.root, out.ParentKey); err != nil {
				env.log.Warn("failed to remember parent", "parent", out.ParentKey, "err", err)
			}
		}
		if jsonOutput {
			return printJSON(cmd, out)
		}
		switch {
		case out.Duplicate:
			cmd.Printf("Matches active issue %s\n", out.Key)
		case out.OK():
			cmd.Printf("Created %s (%s): %s\n", out.Key, out.Type, out.Summary)
		default:
			cmd.Printf("No issue created: %s\n", out.Reason)
		}
		return nil
	},
}

var suggestParentCmd = &cobra.Command{
	Use:     "suggest-parent [summary]",
	Short:   "Print parent issue candidates as JSON",
	GroupID: "work",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		return printJSON(cmd, engine.SuggestParent(s, strings.Join(args, " "), env.resolved.RecentParents))
	},
}

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Short:   "List the Jira projects visible to the configured account",
	GroupID: "work",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEngine()
		if e.Tracker == nil {
			return errors.New("tracker credentials are not configured (run 'autopilot setup')")
		}
		projects, err := e.Tracker.ListProjects(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, projects)
		}
		for _, p := range projects {
			marker := " "
			if p.Key == env.resolved.Config.ProjectKey {
				marker = "*"
			}
			cmd.Printf("%s %-10s %s\n", marker, p.Key, p.Name)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{classifyCmd, buildWorklogCmd, autoCreateCmd, projectsCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(suggestParentCmd)
}
