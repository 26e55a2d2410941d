package engine

import (
	"context"

	"github.com/fakeyudi/autopilot/internal/classify"
	"github.com/fakeyudi/autopilot/internal/session"
	"github.com/fakeyudi/autopilot/internal/tracker"
)

// MinCreateConfidence is the classification confidence below which no issue
// is created automatically.
const MinCreateConfidence = 0.65

// Outcome is the result of an auto-create attempt. Key is empty when nothing
// was created or matched; Reason then says which gate stopped it.
type Outcome struct {
	Key        string             `json:"key,omitempty"`
	Duplicate  bool               `json:"duplicate,omitempty"`
	Summary    string             `json:"summary,omitempty"`
	Type       classify.IssueType `json:"type,omitempty"`
	Confidence float64            `json:"confidence,omitempty"`
	ParentKey  string             `json:"parent,omitempty"`
	Reason     string             `json:"reason,omitempty"`
}

// OK reports whether an issue key was produced.
func (o Outcome) OK() bool { return o.Key != "" }

// AutoCreate derives an issue from prompt and creates it when every gate
// passes. A duplicate of an active issue returns that issue's key without
// creating or changing anything. A created issue becomes current and claims
// the unattributed chunks.
func (e *Engine) AutoCreate(ctx context.Context, s *session.Session, prompt string) Outcome {
	log := e.log().Category("auto-create")
	switch {
	case s.AutonomyLevel == session.AutonomyC:
		return Outcome{Reason: "autonomy level C requires manual creation"}
	case !e.Config.AutoCreateEnabled():
		return Outcome{Reason: "autoCreate is disabled"}
	case e.Tracker == nil:
		return Outcome{Reason: "tracker credentials are missing"}
	}

	summary := classify.ExtractSummary(prompt)
	if summary == "" {
		return Outcome{Reason: "no summary in prompt"}
	}

	summaries := make(map[string]string, len(s.ActiveIssues))
	for k, ai := range s.ActiveIssues {
		summaries[k] = ai.Summary
	}
	if key, ok := classify.FindDuplicate(summary, summaries); ok {
		log.Info("matched existing issue", "issue", key, "summary", summary)
		return Outcome{Key: key, Duplicate: true, Summary: summary}
	}

	res := e.classifier().Classify(summary, fileContext(s))
	out := Outcome{Summary: summary, Type: res.Type, Confidence: res.Confidence}
	if res.Confidence < MinCreateConfidence {
		out.Reason = "classification confidence too low"
		return out
	}
	if e.Config.ProjectKey == "" {
		out.Reason = "no project key configured"
		return out
	}

	parent := s.LastParentKey
	if parent == "" {
		parent, _ = s.CurrentIssue.Key()
	}
	issue, err := e.Tracker.CreateIssue(ctx, tracker.IssueRequest{
		ProjectKey: e.Config.ProjectKey,
		Summary:    summary,
		Type:       string(res.Type),
		ParentKey:  parent,
	})
	if err != nil {
		log.Warn("failed to create issue", "summary", summary, "err", err)
		out.Reason = "tracker rejected the issue"
		return out
	}

	out.Key, out.ParentKey = issue.Key, parent
	e.Adopt(s, out)
	log.Info("created issue", "issue", issue.Key, "type", res.Type, "confidence", res.Confidence)
	return out
}

// Adopt applies a created issue to s without calling the tracker: it becomes
// current, claims the unattributed chunks and its parent is remembered.
// Duplicates and failed outcomes leave s unchanged.
func (e *Engine) Adopt(s *session.Session, out Outcome) {
	if !out.OK() || out.Duplicate {
		return
	}
	e.activate(s, out.Key, out.Summary)
	if out.ParentKey != "" {
		s.LastParentKey = out.ParentKey
	}
}

// fileContext counts distinct written and edited files seen this session.
func fileContext(s *session.Session) *classify.Context {
	written, edited := map[string]bool{}, map[string]bool{}
	count := func(a session.Activity) {
		if a.File == "" {
			return
		}
		switch a.Kind {
		case session.KindFileWrite:
			written[a.File] = true
		case session.KindFileEdit:
			edited[a.File] = true
		}
	}
	for _, c := range s.Chunks {
		for _, a := range c.Activities {
			count(a)
		}
	}
	for _, a := range s.Buffer {
		count(a)
	}
	return &classify.Context{NewFilesCreated: len(written), FilesEdited: len(edited)}
}
