package engine

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/fakeyudi/autopilot/internal/session"
)

func TestSuggestParent(t *testing.T) {
	s := session.New("s", 0)
	s.LastParentKey = "ABC-100"
	s.ActiveIssues["ABC-1"] = &session.ActiveIssue{Summary: "Add retry backoff to sync client"}
	s.ActiveIssues["ABC-2"] = &session.ActiveIssue{Summary: "Sync client retry"}
	s.ActiveIssues["ABC-3"] = &session.ActiveIssue{Summary: "Dark mode toggle"}
	s.ActiveIssues["ABC-4"] = &session.ActiveIssue{}

	got := SuggestParent(s, "sync client retry limits", []string{"ABC-100", "ABC-50"})
	if got.SessionDefault == nil || *got.SessionDefault != "ABC-100" {
		t.Errorf("SessionDefault = %v", got.SessionDefault)
	}
	var keys []string
	for _, c := range got.Contextual {
		keys = append(keys, c.Key)
	}
	if !slices.Equal(keys, []string{"ABC-2", "ABC-1"}) {
		t.Errorf("contextual = %+v", got.Contextual)
	}
	if len(got.Recent) != 2 || got.Recent[0].Key != "ABC-100" || got.Recent[1].Key != "ABC-50" {
		t.Errorf("recent = %+v", got.Recent)
	}
}

func TestSuggestParentWithoutHistory(t *testing.T) {
	data, err := json.Marshal(SuggestParent(nil, "anything", nil))
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"sessionDefault":null,"contextual":[],"recent":[]}`; string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
