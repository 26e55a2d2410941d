// Package worklog aggregates work chunks into worklogs.
package worklog

import (
	"fmt"
	"path"
	"strings"

	"github.com/fakeyudi/autopilot/internal/redact"
	"github.com/fakeyudi/autopilot/internal/session"
)

// MaxSeconds caps any single worklog at four hours.
const MaxSeconds = 4 * 60 * 60

// maxSummaryFiles is how many basenames a generated summary lists.
const maxSummaryFiles = 8

// Worklog is the aggregate of the chunks selected for one issue.
type Worklog struct {
	Issue    session.IssueRef
	Seconds  int64
	Summary  string
	RawFacts session.RawFacts
	Capped   bool
}

// Empty reports whether w carries no time.
func (w Worklog) Empty() bool { return w.Seconds <= 0 }

// Build aggregates the chunks attributed to key. When key is the only active
// issue, unattributed chunks count towards it too. Build does not modify s.
func Build(s *session.Session, key, language string) Worklog {
	if key == "" {
		return Worklog{}
	}
	sole := len(s.ActiveIssues) == 1 && s.HasIssue(key)
	w := aggregate(s.Chunks, func(c session.WorkChunk) bool {
		return c.Issue.Is(key) || (sole && !c.Issue.IsAttributed())
	})
	w.Issue = session.Attributed(key)
	w.Summary = Summarize(w.RawFacts.Files, language)
	return w
}

// BuildUnattributed aggregates every chunk without an issue.
func BuildUnattributed(s *session.Session, language string) Worklog {
	w := aggregate(s.Chunks, func(c session.WorkChunk) bool {
		return !c.Issue.IsAttributed()
	})
	if len(w.RawFacts.Files) > 0 {
		w.Summary = Summarize(w.RawFacts.Files, language)
	} else {
		w.Summary = unattributedPhrase(language)
	}
	return w
}

func aggregate(chunks []session.WorkChunk, include func(session.WorkChunk) bool) Worklog {
	w := Worklog{RawFacts: session.RawFacts{Files: []string{}, Commands: []string{}}}
	seenFile := map[string]bool{}
	seenCmd := map[string]bool{}

	for _, c := range chunks {
		if !include(c) {
			continue
		}
		w.Seconds += c.Duration()
		for _, f := range c.FilesChanged {
			if !seenFile[f] {
				seenFile[f] = true
				w.RawFacts.Files = append(w.RawFacts.Files, f)
			}
		}
		for _, a := range c.Activities {
			w.RawFacts.ActivityCount++
			if a.Command == "" {
				continue
			}
			cmd := redact.String(a.Command)
			if !seenCmd[cmd] {
				seenCmd[cmd] = true
				w.RawFacts.Commands = append(w.RawFacts.Commands, cmd)
			}
		}
	}

	if w.Seconds > MaxSeconds {
		w.Seconds = MaxSeconds
		w.Capped = true
	}
	return w
}

// Summarize lists up to eight file basenames, with a "+N" suffix for the
// rest. Without files it returns the fallback phrase for language.
func Summarize(files []string, language string) string {
	if len(files) == 0 {
		return FallbackPhrase(language)
	}
	names := make([]string, 0, min(len(files), maxSummaryFiles))
	for _, f := range files[:min(len(files), maxSummaryFiles)] {
		names = append(names, path.Base(strings.ReplaceAll(f, `\`, "/")))
	}
	summary := strings.Join(names, ", ")
	if extra := len(files) - maxSummaryFiles; extra > 0 {
		summary += fmt.Sprintf(" +%d", extra)
	}
	return summary
}

// FallbackPhrase is the summary used when no files were touched.
func FallbackPhrase(language string) string {
	if IsHebrew(language) {
		return "עבודה על המשימה"
	}
	return "Work on task"
}

func unattributedPhrase(language string) string {
	if IsHebrew(language) {
		return "עבודה לא משויכת"
	}
	return "Unattributed work"
}

// IsHebrew reports whether language names Hebrew.
func IsHebrew(language string) bool {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "hebrew", "he", "heb", "עברית":
		return true
	}
	return false
}

// Pending converts w into a queued worklog with rounded seconds.
func Pending(w Worklog, roundingMinutes, accuracy int, status session.WorklogStatus) session.PendingWorklog {
	return session.PendingWorklog{
		Issue:    w.Issue,
		Seconds:  capRounded(Round(w.Seconds, roundingMinutes, accuracy), Granularity(roundingMinutes, accuracy)),
		Summary:  w.Summary,
		RawFacts: w.RawFacts,
		Status:   status,
		Capped:   w.Capped,
	}
}

// capRounded keeps a rounded duration on the rounding grid: past the cap it
// falls back to the largest multiple of g that fits.
func capRounded(seconds, g int64) int64 {
	if seconds <= MaxSeconds {
		return seconds
	}
	if g > MaxSeconds {
		return MaxSeconds
	}
	return MaxSeconds / g * g
}
