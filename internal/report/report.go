// Package report turns an archived session into a renderable summary of the
// issues worked on, the worklogs queued for them and the raw work chunks.
package report

import (
	"fmt"
	"time"

	"github.com/fakeyudi/autopilot/internal/session"
)

// Report is the complete, renderable representation of one session.
type Report struct {
	Session  Meta      `json:"session" yaml:"session"`
	Issues   []Issue   `json:"issues" yaml:"issues"`
	Worklogs []Worklog `json:"worklogs" yaml:"worklogs"`
	Chunks   []Chunk   `json:"chunks" yaml:"chunks"`
}

// Meta holds summary metadata about the session.
type Meta struct {
	ID                  string    `json:"id" yaml:"id"`
	StartTime           time.Time `json:"start_time" yaml:"start_time"`
	ArchivedAt          time.Time `json:"archived_at" yaml:"archived_at"`
	Duration            string    `json:"duration" yaml:"duration"` // human-readable, e.g. "2h15m"
	Autonomy            string    `json:"autonomy" yaml:"autonomy"`
	Accuracy            int       `json:"accuracy" yaml:"accuracy"`
	TrackedSeconds      int64     `json:"tracked_seconds" yaml:"tracked_seconds"`
	UnattributedSeconds int64     `json:"unattributed_seconds" yaml:"unattributed_seconds"`
}

// Issue is one active issue and the time logged against it.
type Issue struct {
	Key           string `json:"key" yaml:"key"`
	Summary       string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Paused        bool   `json:"paused" yaml:"paused"`
	LoggedSeconds int64  `json:"logged_seconds" yaml:"logged_seconds"`
}

// Worklog mirrors a queued worklog. Issue is empty for unattributed time.
type Worklog struct {
	Issue      string   `json:"issue,omitempty" yaml:"issue,omitempty"`
	Seconds    int64    `json:"seconds" yaml:"seconds"`
	Summary    string   `json:"summary" yaml:"summary"`
	Status     string   `json:"status" yaml:"status"`
	Capped     bool     `json:"capped,omitempty" yaml:"capped,omitempty"`
	Files      []string `json:"files" yaml:"files"`
	Commands   []string `json:"commands" yaml:"commands"`
	Activities int      `json:"activities" yaml:"activities"`
}

// Chunk is a condensed work chunk.
type Chunk struct {
	ID               string    `json:"id" yaml:"id"`
	Issue            string    `json:"issue,omitempty" yaml:"issue,omitempty"`
	Start            time.Time `json:"start" yaml:"start"`
	End              time.Time `json:"end" yaml:"end"`
	Seconds          int64     `json:"seconds" yaml:"seconds"`
	IdleSeconds      int64     `json:"idle_seconds" yaml:"idle_seconds"`
	Files            []string  `json:"files" yaml:"files"`
	NeedsAttribution bool      `json:"needs_attribution" yaml:"needs_attribution"`
}

// FromSession builds a Report. Worklogs keep the order of
// s.PendingWorklogs so indexes can be used to act on them.
func FromSession(s *session.Session) *Report {
	r := &Report{
		Session: Meta{
			ID:         s.ID,
			StartTime:  unix(s.StartTime),
			ArchivedAt: unix(s.ArchivedAt),
			Autonomy:   string(s.AutonomyLevel),
			Accuracy:   s.Accuracy,
		},
		Issues:   []Issue{},
		Worklogs: []Worklog{},
		Chunks:   []Chunk{},
	}
	if s.ArchivedAt > s.StartTime {
		r.Session.Duration = FormatSeconds(s.ArchivedAt - s.StartTime)
	}

	logged := map[string]int64{}
	for _, pw := range s.PendingWorklogs {
		key, _ := pw.Issue.Key()
		logged[key] += pw.Seconds
		r.Worklogs = append(r.Worklogs, Worklog{
			Issue:      key,
			Seconds:    pw.Seconds,
			Summary:    pw.Summary,
			Status:     string(pw.Status),
			Capped:     pw.Capped,
			Files:      nonNil(pw.RawFacts.Files),
			Commands:   nonNil(pw.RawFacts.Commands),
			Activities: pw.RawFacts.ActivityCount,
		})
	}
	for _, key := range s.IssueKeys() {
		ai := s.ActiveIssues[key]
		r.Issues = append(r.Issues, Issue{Key: key, Summary: ai.Summary, Paused: ai.Paused, LoggedSeconds: logged[key]})
	}
	for _, c := range s.Chunks {
		key, ok := c.Issue.Key()
		d := c.Duration()
		r.Session.TrackedSeconds += d
		if !ok {
			r.Session.UnattributedSeconds += d
		}
		var idle int64
		for _, g := range c.IdleGaps {
			idle += g.Seconds
		}
		r.Chunks = append(r.Chunks, Chunk{
			ID:               c.ID,
			Issue:            key,
			Start:            unix(c.StartTime),
			End:              unix(c.EndTime),
			Seconds:          d,
			IdleSeconds:      idle,
			Files:            nonNil(c.FilesChanged),
			NeedsAttribution: c.NeedsAttribution,
		})
	}
	return r
}

// FormatSeconds renders a duration as "1h30m", "45m" or "0m".
func FormatSeconds(sec int64) string {
	if sec <= 0 {
		return "0m"
	}
	h, m := sec/3600, (sec%3600+59)/60
	if m == 60 {
		h, m = h+1, 0
	}
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%dm", h, m)
	}
}

func unix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
