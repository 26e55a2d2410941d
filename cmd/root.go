package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/autopilot/internal/collector"
	"github.com/fakeyudi/autopilot/internal/config"
	"github.com/fakeyudi/autopilot/internal/engine"
	"github.com/fakeyudi/autopilot/internal/enrich"
	"github.com/fakeyudi/autopilot/internal/logging"
	"github.com/fakeyudi/autopilot/internal/session"
	"github.com/fakeyudi/autopilot/internal/tracker"
)

const hookGroup = "hooks"

// rootDir is the --root flag; empty means the working directory.
var rootDir string

// environment is what every command works with. It is populated in
// PersistentPreRunE.
type environment struct {
	root     string
	resolved config.Resolved
	store    session.Store
	log      *logging.Logger
	api      *logging.Logger
}

var env environment

// gitRunner overrides how git is invoked; nil runs the real binary.
var gitRunner collector.GitRunner

var rootCmd = &cobra.Command{
	Use:          "autopilot",
	Short:        "Track coding-agent work and log it to Jira",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		hook := cmd.GroupID == hookGroup

		// First run: no global file yet, so walk the user through setup.
		// Hooks never prompt; they run with whatever is configured.
		if !hook && !globalExists() && term.IsTerminal(os.Stdin.Fd()) {
			cmd.Println()
			cmd.Println("  Welcome to autopilot! Looks like this is your first time.")
			if err := runSetup(cmd); err != nil {
				return err
			}
		}

		err := loadEnvironment()
		if err != nil && hook {
			// Hooks keep going with defaults so the host session is never blocked.
			fmt.Fprintf(cmd.ErrOrStderr(), "autopilot: %v\n", err)
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "project root (default: current directory)")
	rootCmd.AddGroup(
		&cobra.Group{ID: hookGroup, Title: "Hook Commands:"},
		&cobra.Group{ID: "work", Title: "Commands:"},
	)
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func globalExists() bool {
	path, err := config.GlobalPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func projectRoot() (string, error) {
	if rootDir != "" {
		return filepath.Abs(rootDir)
	}
	return os.Getwd()
}

// loadEnvironment resolves configuration, opens the session store and the
// log files. On error env still holds usable defaults.
func loadEnvironment() error {
	env = environment{
		resolved: config.Resolved{Config: config.Merge(nil, nil)},
		log:      logging.Discard(),
		api:      logging.Discard(),
	}
	root, err := projectRoot()
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	env.root = root

	resolved, cfgErr := config.Load(root)
	if cfgErr == nil {
		env.resolved = resolved
	}
	cfg := env.resolved.Config
	env.log = logging.Open(root, cfg.DebugEnabled())
	env.api = logging.OpenAPI(root, cfg.DebugEnabled() || env.resolved.Credentials.HasTracker())

	store, err := session.NewStore(root)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	env.store = store
	if cfgErr != nil {
		env.log.Error("config load failed, using defaults", "err", cfgErr)
		return cfgErr
	}
	return nil
}

// newEngine wires the engine to the configured tracker and enricher.
func newEngine() *engine.Engine {
	e := &engine.Engine{
		Config: env.resolved.Config,
		Git:    &collector.GitCollector{WorkDir: env.root, Runner: gitRunner},
		Log:    env.log,
	}
	creds := env.resolved.Credentials
	if creds.HasTracker() {
		e.Tracker = tracker.NewClient(creds.BaseURL, creds.Email, creds.APIToken, tracker.WithLogger(env.api))
	}
	if creds.AnthropicAPIKey != "" {
		e.Enricher = enrich.NewAnthropic(creds.AnthropicAPIKey, env.api)
	}
	return e
}

// loadSession returns the stored session, or nil when there is none.
// A corrupt file is reported and treated as absent.
func loadSession() (*session.Session, error) {
	if env.store == nil {
		return nil, errors.New("session store is not available")
	}
	s, err := env.store.Load()
	switch {
	case errors.Is(err, session.ErrNoSession):
		return nil, nil
	case errors.Is(err, session.ErrCorrupt):
		env.log.Warn("discarding corrupt session", "err", err)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return s, nil
}

// saveSession loads a session with open, applies fn and saves it. A save
// that loses a race with another writer is redone once from a fresh load.
func saveSession(open func() (*session.Session, error), fn func(s *session.Session) error) (*session.Session, error) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var s *session.Session
		if s, err = open(); err != nil {
			return nil, err
		}
		if err = fn(s); err != nil {
			return nil, err
		}
		if err = env.store.Save(s); !errors.Is(err, session.ErrConflict) {
			if err != nil {
				return nil, fmt.Errorf("failed to save session: %w", err)
			}
			return s, nil
		}
		env.log.Warn("session changed while saving, retrying", "attempt", attempt+1)
	}
	return nil, err
}

// mutateSession applies fn to the live session, starting one when none is
// stored.
func mutateSession(ctx context.Context, e *engine.Engine, fn func(s *session.Session) error) (*session.Session, error) {
	return saveSession(func() (*session.Session, error) {
		s, err := loadSession()
		if err != nil || s != nil {
			return s, err
		}
		return e.StartSession(ctx, nil), nil
	}, fn)
}

// requireSession loads the live session for read-mostly commands.
func requireSession() (*session.Session, error) {
	s, err := loadSession()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, session.ErrNoSession
	}
	return s, nil
}
