package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/autopilot/internal/report"
	"github.com/fakeyudi/autopilot/internal/session"
	"github.com/fakeyudi/autopilot/internal/tui"
)

var (
	summaryFormat string
	summaryTUI    bool
	summaryOutput string
)

var summaryCmd = &cobra.Command{
	Use:     "summary [archive]",
	Short:   "Render a session report (latest archive by default)",
	GroupID: "work",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, title, err := loadReport(args)
		if err != nil {
			return err
		}
		if summaryTUI {
			return tui.Run(r, title)
		}

		renderer, err := report.NewRenderer(summaryFormat)
		if err != nil {
			return err
		}
		data, err := renderer.Render(r)
		if err != nil {
			return err
		}

		if summaryOutput != "" {
			if err := os.WriteFile(summaryOutput, data, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			cmd.Printf("Report written to %s\n", summaryOutput)
			return nil
		}

		_, isMarkdown := renderer.(*report.MarkdownRenderer)
		if isMarkdown && cmd.OutOrStdout() == os.Stdout && term.IsTerminal(os.Stdout.Fd()) {
			if out, err := renderMarkdown(string(data)); err == nil {
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// loadReport resolves the report to show: an explicit file, the newest
// archive, or the live session when nothing has been archived yet.
func loadReport(args []string) (*report.Report, string, error) {
	if len(args) == 1 {
		r, err := report.Load(args[0])
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return r, filepath.Base(args[0]), nil
	}
	if path, err := report.Latest(session.ArchiveDir(env.root)); err == nil {
		r, err := report.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return r, filepath.Base(path), nil
	}
	s, err := requireSession()
	if err != nil {
		return nil, "", err
	}
	return report.FromSession(s), "current session", nil
}

// renderMarkdown styles a Markdown report for the terminal. The embedded
// data markers are dropped since they only matter to the parser.
func renderMarkdown(md string) (string, error) {
	var lines []string
	for _, line := range strings.Split(md, "\n") {
		if !strings.HasPrefix(line, "<!-- autopilot-") {
			lines = append(lines, line)
		}
	}
	width := 100
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		width = min(w, 120)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(strings.Join(lines, "\n"))
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryFormat, "format", "f", "markdown", "output format: markdown, json or yaml")
	summaryCmd.Flags().BoolVar(&summaryTUI, "tui", false, "open the report in the interactive viewer")
	summaryCmd.Flags().StringVarP(&summaryOutput, "output", "o", "", "write the report to a file instead of stdout")
	rootCmd.AddCommand(summaryCmd)
}
