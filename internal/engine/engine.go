// Package engine drives a tracking session: it records activities, drains
// the buffer into chunks, flushes chunks into worklogs and delivers them.
// Every exported operation returns a result instead of failing on
// recoverable problems; callers persist the session afterwards.
package engine

import (
	"time"

	"github.com/fakeyudi/autopilot/internal/classify"
	"github.com/fakeyudi/autopilot/internal/collector"
	"github.com/fakeyudi/autopilot/internal/config"
	"github.com/fakeyudi/autopilot/internal/enrich"
	"github.com/fakeyudi/autopilot/internal/logging"
	"github.com/fakeyudi/autopilot/internal/segment"
	"github.com/fakeyudi/autopilot/internal/session"
	"github.com/fakeyudi/autopilot/internal/tracker"
)

// Engine holds the collaborators for one command invocation.
type Engine struct {
	Config     config.Config
	Tracker    tracker.Tracker     // nil when no credentials are configured
	Enricher   enrich.Enricher     // nil disables AI summaries
	Classifier classify.Classifier // defaults to classify.DefaultKeyword()
	Git        *collector.GitCollector
	Log        *logging.Logger
	Now        func() time.Time
}

// Report describes what a drain, flush or end cycle did.
type Report struct {
	NewChunks int
	Flushed   bool
	Queued    int
	Created   string // issue created or matched for unattributed time
	Posted    int
	Failed    int
	Pruned    []string
	Archive   string
}

func (e *Engine) now() int64 {
	if e.Now == nil {
		return time.Now().Unix()
	}
	return e.Now().Unix()
}

func (e *Engine) log() *logging.Logger {
	if e.Log == nil {
		return logging.Discard()
	}
	return e.Log
}

func (e *Engine) classifier() classify.Classifier {
	if e.Classifier == nil {
		return classify.DefaultKeyword()
	}
	return e.Classifier
}

func (e *Engine) git() *collector.GitCollector {
	if e.Git == nil {
		return &collector.GitCollector{}
	}
	return e.Git
}

func (e *Engine) segmentOptions(s *session.Session) segment.Options {
	return segment.Options{
		IdleThreshold: segment.IdleThreshold(e.Config.IdleThreshold, s.Accuracy),
		Accuracy:      s.Accuracy,
		ClusterDepth:  segment.DefaultClusterDepth,
	}
}

// activate makes key the current issue, pausing the previous one, and
// claims unattributed chunks for it.
func (e *Engine) activate(s *session.Session, key, summary string) int {
	now := e.now()
	if prev, ok := s.CurrentIssue.Key(); ok && prev != key {
		if ai := s.ActiveIssues[prev]; ai != nil {
			ai.Paused = true
		}
	}
	ai, ok := s.ActiveIssues[key]
	if !ok {
		ai = &session.ActiveIssue{StartTime: now}
		s.ActiveIssues[key] = ai
	}
	ai.Paused = false
	if summary != "" {
		ai.Summary = summary
	}
	s.CurrentIssue = session.Attributed(key)

	claimed := s.Claim(key)
	if claimed > 0 {
		e.log().Info("claimed unattributed chunks", "issue", key, "count", claimed)
	}
	return claimed
}
