package engine

import (
	"cmp"
	"slices"

	"github.com/fakeyudi/autopilot/internal/classify"
	"github.com/fakeyudi/autopilot/internal/session"
)

// ParentRef is one parent candidate.
type ParentRef struct {
	Key     string `json:"key"`
	Summary string `json:"summary,omitempty"`
}

// Suggestion lists parent candidates for a new issue.
type Suggestion struct {
	SessionDefault *string     `json:"sessionDefault"`
	Contextual     []ParentRef `json:"contextual"`
	Recent         []ParentRef `json:"recent"`
}

// SuggestParent offers the session's last parent, active issues whose
// summary shares words with summary (best match first) and the recently
// used parents from the local config.
func SuggestParent(s *session.Session, summary string, recent []string) Suggestion {
	out := Suggestion{Contextual: []ParentRef{}, Recent: []ParentRef{}}
	if s != nil && s.LastParentKey != "" {
		key := s.LastParentKey
		out.SessionDefault = &key
	}
	for _, key := range recent {
		out.Recent = append(out.Recent, ParentRef{Key: key})
	}
	if s == nil {
		return out
	}

	type scored struct {
		ref   ParentRef
		score float64
	}
	var matches []scored
	for _, key := range s.IssueKeys() {
		ai := s.ActiveIssues[key]
		if ai == nil || ai.Summary == "" {
			continue
		}
		if score := classify.Similarity(summary, ai.Summary); score > 0 {
			matches = append(matches, scored{ParentRef{Key: key, Summary: ai.Summary}, score})
		}
	}
	slices.SortStableFunc(matches, func(a, b scored) int { return cmp.Compare(b.score, a.score) })
	for _, m := range matches {
		out.Contextual = append(out.Contextual, m.ref)
	}
	return out
}
