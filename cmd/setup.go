package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/autopilot/internal/config"
	"github.com/fakeyudi/autopilot/internal/profile"
	"github.com/fakeyudi/autopilot/internal/tracker"
)

var setupCmd = &cobra.Command{
	Use:     "setup",
	Short:   "Configure Jira credentials and defaults (re-run anytime to edit)",
	GroupID: "work",
	Args:    cobra.NoArgs,
	// Bypass the normal PersistentPreRunE so setup works before any config exists.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd)
	},
}

// runSetup runs the interactive wizard and saves the global file.
func runSetup(cmd *cobra.Command) error {
	existing, err := config.LoadGlobal()
	if err != nil {
		var perr *config.ParseError
		if !errors.As(err, &perr) {
			return err
		}
		cmd.Printf("  ⚠ %v; starting from scratch\n", err)
		existing = &config.Global{}
	}

	w := profile.Wizard{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(os.Stdin.Fd()) {
		w.Secret = func() (string, error) {
			b, err := term.ReadPassword(os.Stdin.Fd())
			return string(b), err
		}
	}
	g, err := w.Run(existing)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	if err := config.SaveGlobal(g); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("  ✓ Settings saved.")

	if g.HasTracker() {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		projects, err := tracker.NewClient(g.BaseURL, g.Email, g.APIToken).ListProjects(ctx)
		if err != nil {
			cmd.Printf("  ⚠ Could not reach Jira: %v\n", err)
			cmd.Println("    You can retry with: autopilot setup")
		} else {
			cmd.Printf("  ✓ Connected to Jira (%d projects visible).\n", len(projects))
		}
	}
	cmd.Println()
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
