package engine

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/fakeyudi/autopilot/internal/hook"
	"github.com/fakeyudi/autopilot/internal/redact"
	"github.com/fakeyudi/autopilot/internal/session"
	"github.com/fakeyudi/autopilot/internal/tracker"
)

// ErrNoIssueKey is returned by StartIssue for an empty key.
var ErrNoIssueKey = errors.New("issue key is required")

// StartSession resumes existing when it still tracks issues and starts a
// fresh session otherwise, keeping any queued worklogs. It then attributes
// the session to the issue named by the current branch, or tries to
// auto-create one from the last commit.
func (e *Engine) StartSession(ctx context.Context, existing *session.Session) *session.Session {
	now := e.now()
	var s *session.Session
	if existing != nil && len(existing.ActiveIssues) > 0 {
		s = existing
		if pruned := s.PruneStale(now); len(pruned) > 0 {
			e.log().Info("pruned stale issues", "issues", pruned)
		}
		resanitize(s)
		e.log().Info("resumed session", "id", s.ID, "issues", len(s.ActiveIssues))
	} else {
		s = session.New(uuid.NewString(), now)
		if existing != nil {
			// Worklogs still awaiting approval or delivery outlive the session.
			s.Revision = existing.Revision
			s.PendingWorklogs = existing.PendingWorklogs
		}
		e.log().Info("started session", "id", s.ID)
	}
	s.AutonomyLevel = e.Config.AutonomyLevel
	s.Accuracy = e.Config.Accuracy

	if key := e.git().BranchIssue(e.Config.BranchPattern, e.Config.ProjectKey); key != "" {
		e.log().Info("detected issue from branch", "issue", key)
		e.activate(s, key, "")
		return s
	}
	if s.AutonomyLevel == session.AutonomyA && e.Config.AutoCreateEnabled() {
		if commits := e.git().RecentCommits(1); len(commits) > 0 {
			e.AutoCreate(ctx, s, commits[0])
		}
	}
	return s
}

func resanitize(s *session.Session) {
	for i := range s.Buffer {
		s.Buffer[i].Command = redact.String(s.Buffer[i].Command)
	}
	for i := range s.Chunks {
		for j := range s.Chunks[i].Activities {
			a := &s.Chunks[i].Activities[j]
			a.Command = redact.String(a.Command)
		}
	}
	for i := range s.PendingWorklogs {
		redact.Strings(s.PendingWorklogs[i].RawFacts.Commands)
	}
}

// LogActivity appends ev to the buffer under the current issue and runs the
// planning and task timers, which queue their worklogs directly. It reports
// false when the event is not buffered.
func (e *Engine) LogActivity(s *session.Session, ev hook.Event) bool {
	a, ok := hook.ToActivity(ev, e.now(), s.CurrentIssue)
	if ok {
		s.Buffer = append(s.Buffer, a)
	}
	e.track(s, ev)
	return ok
}

// StartIssue makes key the current issue. Without a summary the tracker is
// asked for one when credentials exist.
func (e *Engine) StartIssue(ctx context.Context, s *session.Session, key, summary string) (int, error) {
	if key == "" {
		return 0, ErrNoIssueKey
	}
	if summary == "" && e.Tracker != nil {
		if issue, err := e.Tracker.GetIssue(ctx, key); err != nil {
			e.log().Warn("failed to fetch issue", "issue", key, "err", err)
		} else {
			summary = issue.Summary
		}
	}
	return e.activate(s, key, summary), nil
}

// DetectProject returns the project key most used in git history when the
// tracker confirms it exists.
func (e *Engine) DetectProject(ctx context.Context) (string, bool) {
	key := e.git().DetectProjectKey()
	if key == "" || e.Tracker == nil {
		return "", false
	}
	projects, err := e.Tracker.ListProjects(ctx)
	if err != nil {
		e.log().Warn("failed to list projects", "err", err)
		return "", false
	}
	if !slices.ContainsFunc(projects, func(p tracker.Project) bool { return p.Key == key }) {
		e.log().Info("detected project key not found in tracker", "key", key)
		return "", false
	}
	return key, true
}
