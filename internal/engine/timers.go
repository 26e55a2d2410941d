package engine

import (
	"github.com/fakeyudi/autopilot/internal/hook"
	"github.com/fakeyudi/autopilot/internal/session"
	"github.com/fakeyudi/autopilot/internal/worklog"
)

// MinTimedSeconds is the shortest planning span or task that gets a worklog.
const MinTimedSeconds = 60

// implTools end an open planning span.
var implTools = map[string]bool{"Edit": true, "Write": true, "MultiEdit": true, "NotebookEdit": true}

// track runs the planning and task timers for ev.
func (e *Engine) track(s *session.Session, ev hook.Event) {
	switch ev := ev.(type) {
	case hook.Planning:
		if ev.Starts() {
			e.startPlanning(s, ev.Skill)
		} else {
			e.closePlanning(s)
		}
	case hook.TaskChange:
		e.trackTask(s, ev)
	default:
		if implTools[ev.ToolName()] {
			e.closePlanning(s)
		}
	}
}

func (e *Engine) startPlanning(s *session.Session, skill string) {
	if s.ActivePlanning != nil {
		return
	}
	subject := "Planning"
	if skill != "" {
		subject = "Planning: " + skill
	}
	s.ActivePlanning = &session.Planning{StartTime: e.now(), Issue: s.CurrentIssue, Subject: subject}
	e.log().Debug("planning started", "subject", subject)
}

// closePlanning ends the open planning span. Time goes to the issue current
// when planning started, else the current issue, else the last parent.
func (e *Engine) closePlanning(s *session.Session) int {
	p := s.ActivePlanning
	if p == nil {
		return 0
	}
	s.ActivePlanning = nil
	elapsed := e.now() - p.StartTime
	if elapsed < MinTimedSeconds {
		e.log().Debug("planning discarded", "subject", p.Subject, "elapsed", elapsed)
		return 0
	}
	target := p.Issue
	if !target.IsAttributed() {
		target = s.CurrentIssue
	}
	if !target.IsAttributed() {
		target = session.Attributed(s.LastParentKey)
	}
	return e.queueTimed(s, target, p.Subject, elapsed)
}

// trackTask caches task subjects and times a task from in_progress to
// completed. Task time goes to the current issue.
func (e *Engine) trackTask(s *session.Session, ev hook.TaskChange) int {
	if ev.ID == "" {
		return 0
	}
	if s.TaskSubjects == nil {
		s.TaskSubjects = map[string]string{}
	}
	if s.ActiveTasks == nil {
		s.ActiveTasks = map[string]*session.Task{}
	}
	subject := ev.Subject
	if ev.Tool == "TaskCreate" && subject != "" {
		s.TaskSubjects[ev.ID] = subject
	}
	if subject == "" {
		subject = s.TaskSubjects[ev.ID]
	}

	switch ev.Status {
	case "in_progress":
		if _, ok := s.ActiveTasks[ev.ID]; !ok {
			s.ActiveTasks[ev.ID] = &session.Task{Subject: subject, StartTime: e.now()}
			e.log().Debug("task started", "task", ev.ID, "subject", subject)
		}
	case "completed":
		task, ok := s.ActiveTasks[ev.ID]
		if !ok {
			return 0
		}
		delete(s.ActiveTasks, ev.ID)
		delete(s.TaskSubjects, ev.ID)
		elapsed := e.now() - task.StartTime
		if elapsed < MinTimedSeconds {
			e.log().Debug("task discarded", "task", ev.ID, "elapsed", elapsed)
			return 0
		}
		if task.Subject != "" {
			subject = task.Subject
		}
		return e.queueTimed(s, s.CurrentIssue, subject, elapsed)
	}
	return 0
}

// queueTimed queues the raw elapsed time of a planning span or task. It is
// not rounded.
func (e *Engine) queueTimed(s *session.Session, target session.IssueRef, subject string, seconds int64) int {
	if !target.IsAttributed() {
		e.log().Debug("timed work skipped without a target issue", "subject", subject, "seconds", seconds)
		return 0
	}
	status := session.StatusApproved
	if s.AutonomyLevel == session.AutonomyC {
		status = session.StatusPending
	}
	pw := session.PendingWorklog{
		Issue:   target,
		Seconds: min(seconds, worklog.MaxSeconds),
		Summary: subject,
		Status:  status,
		Capped:  seconds > worklog.MaxSeconds,
	}
	s.PendingWorklogs = append(s.PendingWorklogs, pw)
	e.log().Info("queued timed worklog", "issue", target, "subject", subject, "seconds", pw.Seconds)
	return 1
}
