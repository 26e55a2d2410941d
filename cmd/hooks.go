package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/autopilot/internal/config"
	"github.com/fakeyudi/autopilot/internal/engine"
	"github.com/fakeyudi/autopilot/internal/hook"
	"github.com/fakeyudi/autopilot/internal/session"
)

// hookRun adapts a hook body to cobra. Hooks run inside the host's event
// loop, so failures are logged and reported on stderr but never turn into a
// non-zero exit.
func hookRun(run func(cmd *cobra.Command, e *engine.Engine) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if env.store == nil || !env.resolved.Config.IsEnabled() {
			return nil
		}
		err := run(cmd, newEngine())
		if err != nil && !errors.Is(err, session.ErrNoSession) {
			env.log.Error("hook failed", "hook", cmd.Name(), "err", err)
			fmt.Fprintf(cmd.ErrOrStderr(), "autopilot %s: %v\n", cmd.Name(), err)
		}
		return nil
	}
}

var sessionStartCmd = &cobra.Command{
	Use:     "session-start",
	Short:   "Start or resume tracking for the project",
	GroupID: hookGroup,
	Args:    cobra.NoArgs,
	RunE: hookRun(func(cmd *cobra.Command, e *engine.Engine) error {
		ctx := cmd.Context()
		autoSetup(ctx, cmd, e)
		s, err := saveSession(func() (*session.Session, error) {
			existing, err := loadSession()
			if err != nil {
				return nil, err
			}
			return e.StartSession(ctx, existing), nil
		}, func(*session.Session) error { return nil })
		if err != nil {
			return err
		}
		if key, ok := s.CurrentIssue.Key(); ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "autopilot: tracking %s\n", key)
		}
		return nil
	}),
}

// autoSetup writes a project file when only global credentials exist and git
// history names a project the tracker knows.
func autoSetup(ctx context.Context, cmd *cobra.Command, e *engine.Engine) {
	if env.resolved.HasProject || e.Tracker == nil {
		return
	}
	key, ok := e.DetectProject(ctx)
	if !ok {
		return
	}
	if err := config.SaveProject(env.root, &config.Config{ProjectKey: key}); err != nil {
		env.log.Warn("failed to write project config", "err", err)
		return
	}
	env.resolved.HasProject = true
	env.resolved.Config.ProjectKey = key
	e.Config.ProjectKey = key
	env.log.Info("auto-configured project", "key", key)
	fmt.Fprintf(cmd.ErrOrStderr(), "autopilot: configured project %s\n", key)
}

var logActivityCmd = &cobra.Command{
	Use:     "log-activity",
	Short:   "Record a tool-use event read from stdin",
	GroupID: hookGroup,
	Args:    cobra.NoArgs,
	RunE: hookRun(func(cmd *cobra.Command, e *engine.Engine) error {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read hook input: %w", err)
		}
		p, err := hook.Parse(data)
		if err != nil {
			env.log.Debug("ignoring hook payload", "err", err)
			return nil
		}
		_, err = saveSession(requireSession, func(s *session.Session) error {
			if !e.LogActivity(s, p.Event) {
				env.log.Debug("skipped untracked tool", "tool", p.Event.ToolName())
			}
			return nil
		})
		return err
	}),
}

var preToolUseCmd = &cobra.Command{
	Use:     "pre-tool-use",
	Short:   "Ask for the current issue key in commit messages",
	GroupID: hookGroup,
	Args:    cobra.NoArgs,
	RunE: hookRun(func(cmd *cobra.Command, e *engine.Engine) error {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read hook input: %w", err)
		}
		p, err := hook.Parse(data)
		if err != nil {
			return nil
		}
		s, err := requireSession()
		if err != nil {
			return err
		}
		if out, ok := hook.CommitHint(p.Event, s.CurrentIssue); ok {
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
		}
		return nil
	}),
}

var drainCmd = &cobra.Command{
	Use:     "drain",
	Short:   "Turn buffered activity into work chunks and flush due worklogs",
	GroupID: hookGroup,
	Args:    cobra.NoArgs,
	RunE: hookRun(func(cmd *cobra.Command, e *engine.Engine) error {
		var rep engine.Report
		_, err := saveSession(requireSession, func(s *session.Session) error {
			rep = e.Drain(cmd.Context(), s)
			return nil
		})
		if err != nil {
			return err
		}
		env.log.Debug("drained", "chunks", rep.NewChunks, "flushed", rep.Flushed, "queued", rep.Queued)
		if rep.Posted > 0 || rep.Failed > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "autopilot: posted %d worklogs, %d failed\n", rep.Posted, rep.Failed)
		}
		return nil
	}),
}

var sessionEndCmd = &cobra.Command{
	Use:     "session-end",
	Short:   "Queue worklogs for the session and archive it",
	GroupID: hookGroup,
	Args:    cobra.NoArgs,
	RunE: hookRun(func(cmd *cobra.Command, e *engine.Engine) error {
		var rep engine.Report
		_, err := saveSession(requireSession, func(s *session.Session) error {
			var err error
			rep, err = e.EndSession(cmd.Context(), s, env.store)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "autopilot: %s\n", endSummary(rep))
		return nil
	}),
}

func endSummary(rep engine.Report) string {
	msg := fmt.Sprintf("session archived, %d worklogs queued", rep.Queued)
	if rep.Posted > 0 || rep.Failed > 0 {
		msg += fmt.Sprintf(", %d posted, %d failed", rep.Posted, rep.Failed)
	}
	if rep.Created != "" {
		msg += ", unattributed time logged to " + rep.Created
	}
	return msg
}

func init() {
	rootCmd.AddCommand(sessionStartCmd, logActivityCmd, preToolUseCmd, drainCmd, sessionEndCmd)
}
