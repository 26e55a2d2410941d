// Package classify scores free text as a Bug or a Task and detects
// duplicate issue summaries.
package classify

import (
	"math"
	"strings"
)

// IssueType is the tracker issue type chosen for a summary.
type IssueType string

const (
	Bug  IssueType = "Bug"
	Task IssueType = "Task"
)

// Context carries optional file statistics that bias the score.
type Context struct {
	NewFilesCreated int
	FilesEdited     int
}

// Result is a classification with a confidence in [0, 1].
type Result struct {
	Type       IssueType `json:"type"`
	Confidence float64   `json:"confidence"`
	Signals    []string  `json:"signals"`
}

// Classifier assigns an issue type to a summary.
type Classifier interface {
	Classify(summary string, ctx *Context) Result
}

// Keyword scores summaries by counting substring matches against two
// signal lists.
type Keyword struct {
	BugSignals  []string
	TaskSignals []string
}

// DefaultKeyword returns the built-in English signal lists.
func DefaultKeyword() Keyword {
	return Keyword{
		BugSignals: []string{
			"fix", "bug", "broken", "crash", "error", "fail",
			"regression", "not working", "issue with",
		},
		TaskSignals: []string{
			"add", "create", "implement", "build", "setup",
			"configure", "refactor", "update", "migrate",
		},
	}
}

func (k Keyword) Classify(summary string, ctx *Context) Result {
	lower := strings.ToLower(summary)
	signals := []string{}

	bugScore := 0
	for _, s := range k.BugSignals {
		if strings.Contains(lower, s) {
			bugScore++
			signals = append(signals, s)
		}
	}
	taskScore := 0
	for _, s := range k.TaskSignals {
		if strings.Contains(lower, s) {
			taskScore++
			signals = append(signals, s)
		}
	}

	if ctx != nil {
		if ctx.NewFilesCreated == 0 && ctx.FilesEdited > 0 {
			bugScore++
		}
		if ctx.NewFilesCreated > 0 {
			taskScore++
		}
	}

	if bugScore >= 2 || (bugScore > taskScore && bugScore >= 1) {
		return Result{Type: Bug, Confidence: confidence(bugScore), Signals: signals}
	}
	return Result{Type: Task, Confidence: confidence(max(taskScore, 1)), Signals: signals}
}

func confidence(score int) float64 {
	c := math.Min(0.5+float64(score)*0.15, 0.95)
	return math.Round(c*100) / 100
}
