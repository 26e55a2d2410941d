package engine

import (
	"context"
	"strings"

	"github.com/fakeyudi/autopilot/internal/session"
	"github.com/fakeyudi/autopilot/internal/worklog"
)

// PostApproved delivers every approved worklog that has an issue and time.
// Nothing is attempted without a tracker.
func (e *Engine) PostApproved(ctx context.Context, s *session.Session) Report {
	var rep Report
	e.post(ctx, s, &rep)
	return rep
}

func (e *Engine) post(ctx context.Context, s *session.Session, rep *Report) {
	if e.Tracker == nil {
		return
	}
	log := e.log().Category("post")
	for i := range s.PendingWorklogs {
		pw := &s.PendingWorklogs[i]
		key, ok := pw.Issue.Key()
		if pw.Status != session.StatusApproved || !ok || pw.Seconds <= 0 {
			continue
		}
		if strings.TrimSpace(pw.Summary) == "" {
			pw.Summary = worklog.Summarize(pw.RawFacts.Files, e.Config.LogLanguage)
		}
		if err := e.Tracker.PostWorklog(ctx, key, pw.Seconds, pw.Summary); err != nil {
			log.Warn("failed to post worklog", "issue", key, "seconds", pw.Seconds, "err", err)
			pw.Status = session.StatusFailed
			rep.Failed++
			continue
		}
		log.Info("posted worklog", "issue", key, "seconds", pw.Seconds)
		pw.Status = session.StatusPosted
		rep.Posted++
	}
}

// Decision approves or rejects the pending worklog at Index. Issue assigns
// a key to an unattributed entry being approved.
type Decision struct {
	Index   int
	Approve bool
	Issue   string
}

// ApproveAll approves every pending entry. Unattributed entries are included
// only when issue is given.
func ApproveAll(s *session.Session, issue string) []Decision {
	var ds []Decision
	for i, pw := range s.PendingWorklogs {
		switch {
		case pw.Status == session.StatusPending:
			ds = append(ds, Decision{Index: i, Approve: true})
		case pw.Status == session.StatusUnattributed && issue != "":
			ds = append(ds, Decision{Index: i, Approve: true, Issue: issue})
		}
	}
	return ds
}

// Approve applies decisions, removes rejected entries and posts what was
// approved. Decisions for entries already posted are ignored.
func (e *Engine) Approve(ctx context.Context, s *session.Session, decisions []Decision) Report {
	rejected := map[int]bool{}
	for _, d := range decisions {
		if d.Index < 0 || d.Index >= len(s.PendingWorklogs) {
			continue
		}
		pw := &s.PendingWorklogs[d.Index]
		if pw.Status == session.StatusPosted {
			continue
		}
		if !d.Approve {
			rejected[d.Index] = true
			continue
		}
		if d.Issue != "" && !pw.Issue.IsAttributed() {
			pw.Issue = session.Attributed(d.Issue)
		}
		if pw.Issue.IsAttributed() {
			pw.Status = session.StatusApproved
		}
	}
	if len(rejected) > 0 {
		kept := s.PendingWorklogs[:0]
		for i, pw := range s.PendingWorklogs {
			if !rejected[i] {
				kept = append(kept, pw)
			}
		}
		s.PendingWorklogs = kept
		e.log().Info("rejected worklogs", "count", len(rejected))
	}
	return e.PostApproved(ctx, s)
}

// Preview builds the worklog key would receive now, rounded but not queued.
func (e *Engine) Preview(s *session.Session, key string) session.PendingWorklog {
	w := worklog.Build(s, key, e.Config.LogLanguage)
	status := session.StatusApproved
	if s.AutonomyLevel == session.AutonomyC {
		status = session.StatusPending
	}
	return worklog.Pending(w, e.Config.TimeRounding, s.Accuracy, status)
}
