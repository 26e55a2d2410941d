package engine

import (
	"context"
	"strings"

	"github.com/fakeyudi/autopilot/internal/enrich"
	"github.com/fakeyudi/autopilot/internal/segment"
	"github.com/fakeyudi/autopilot/internal/session"
	"github.com/fakeyudi/autopilot/internal/worklog"
)

// batch records which chunks a flush consumed.
type batch struct {
	issues       map[string]bool
	unattributed bool
}

// Drain segments the buffer into chunks and then runs Flush. Between
// flushes it still posts approved worklogs, such as timed planning and task
// work, outside autonomy C.
func (e *Engine) Drain(ctx context.Context, s *session.Session) Report {
	chunks := segment.Drain(s, e.segmentOptions(s))
	if len(chunks) > 0 {
		e.log().Debug("drained buffer", "chunks", len(chunks))
	}
	rep := e.Flush(ctx, s)
	if !rep.Flushed && s.AutonomyLevel != session.AutonomyC {
		e.post(ctx, s, &rep)
	}
	rep.NewChunks = len(chunks)
	return rep
}

// Flush turns chunks into pending worklogs once the worklog interval has
// elapsed since the last flush. Consumed chunks are removed and, outside
// autonomy C, approved worklogs are posted. The interval restarts only when
// something was queued.
func (e *Engine) Flush(ctx context.Context, s *session.Session) Report {
	now := e.now()
	var rep Report
	if now-s.LastWorklogTime < int64(e.Config.WorklogInterval)*60 {
		return rep
	}
	b := e.collect(ctx, s, &rep)
	if rep.Queued == 0 {
		return rep
	}
	if s.AutonomyLevel != session.AutonomyC {
		e.post(ctx, s, &rep)
	}
	s.RemoveChunks(b.issues, b.unattributed)
	s.LastWorklogTime = now
	rep.Flushed = true
	return rep
}

// collect queues a worklog for every active issue with time, then deals with
// the remaining unattributed chunks.
func (e *Engine) collect(ctx context.Context, s *session.Session, rep *Report) batch {
	lang := e.Config.LogLanguage
	status := session.StatusApproved
	if s.AutonomyLevel == session.AutonomyC {
		status = session.StatusPending
	}

	b := batch{issues: map[string]bool{}}
	for _, key := range s.IssueKeys() {
		w := worklog.Build(s, key, lang)
		if w.Empty() {
			continue
		}
		e.queue(ctx, s, w, status, rep)
		b.issues[key] = true
	}
	// The sole active issue already absorbed the unattributed chunks.
	if len(s.ActiveIssues) == 1 && len(b.issues) == 1 {
		b.unattributed = true
		return b
	}
	if !s.HasUnattributed() {
		return b
	}

	w := worklog.BuildUnattributed(s, lang)
	if w.Empty() {
		return b
	}
	if key, ok := e.claimUnattributed(ctx, s, w); ok {
		w.Issue = session.Attributed(key)
		w.Summary = worklog.Summarize(w.RawFacts.Files, lang)
		e.queue(ctx, s, w, session.StatusApproved, rep)
		b.issues[key] = true
		rep.Created = key
		return b
	}
	e.queue(ctx, s, w, session.StatusUnattributed, rep)
	b.unattributed = true
	return b
}

// claimUnattributed tries auto-create for unattributed time, seeded from the
// latest commit subject or the generated summary.
func (e *Engine) claimUnattributed(ctx context.Context, s *session.Session, w worklog.Worklog) (string, bool) {
	if s.AutonomyLevel != session.AutonomyA || !e.Config.AutoCreateEnabled() {
		return "", false
	}
	hint := w.Summary
	if commits := e.git().RecentCommits(1); len(commits) > 0 && strings.TrimSpace(commits[0]) != "" {
		hint = commits[0]
	}
	out := e.AutoCreate(ctx, s, hint)
	if !out.OK() {
		e.log().Debug("unattributed time left queued", "reason", out.Reason)
		return "", false
	}
	if out.Duplicate {
		s.Claim(out.Key)
	}
	return out.Key, true
}

func (e *Engine) queue(ctx context.Context, s *session.Session, w worklog.Worklog, status session.WorklogStatus, rep *Report) {
	pw := worklog.Pending(w, e.Config.TimeRounding, s.Accuracy, status)
	pw.Summary = enrich.Summary(ctx, e.Enricher, w.RawFacts, e.Config.LogLanguage, w.Summary)
	s.PendingWorklogs = append(s.PendingWorklogs, pw)
	rep.Queued++
	e.log().Info("queued worklog", "issue", pw.Issue, "seconds", pw.Seconds, "status", pw.Status, "capped", pw.Capped)
}
