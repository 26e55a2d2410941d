package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/autopilot/internal/report"
)

func sampleReport() *report.Report {
	return &report.Report{
		Session: report.Meta{ID: "s1", Autonomy: "C", Accuracy: 5},
		Worklogs: []report.Worklog{
			{Issue: "ABC-1", Seconds: 1800, Summary: "a.go", Status: "pending", Files: []string{"src/a.go"}},
			{Seconds: 900, Summary: "Unattributed work", Status: "unattributed"},
			{Issue: "ABC-2", Seconds: 900, Summary: "b.go", Status: "posted"},
		},
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func TestApprovalMarks(t *testing.T) {
	m := New(sampleReport(), "s1", true, "")
	m = press(m,
		runes("a"),
		tea.KeyMsg{Type: tea.KeyDown}, runes("a"), // unattributed without an issue to assign
		runes("x"),
		tea.KeyMsg{Type: tea.KeyDown}, runes("x"), // already posted
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	ds := m.Decisions()
	if len(ds) != 2 {
		t.Fatalf("decisions = %+v", ds)
	}
	if ds[0].Index != 0 || !ds[0].Approve {
		t.Errorf("first decision = %+v", ds[0])
	}
	if ds[1].Index != 1 || ds[1].Approve {
		t.Errorf("second decision = %+v", ds[1])
	}
}

func TestApproveAllAssignsIssue(t *testing.T) {
	m := New(sampleReport(), "s1", true, "ABC-9")
	m = press(m, runes("A"), tea.KeyMsg{Type: tea.KeyEnter})

	ds := m.Decisions()
	if len(ds) != 2 || ds[1].Issue != "ABC-9" || ds[0].Issue != "" {
		t.Fatalf("decisions = %+v", ds)
	}
}

func TestQuitWithoutConfirmDiscards(t *testing.T) {
	m := New(sampleReport(), "s1", true, "")
	m = press(m, runes("a"), runes("q"))
	if ds := m.Decisions(); ds != nil {
		t.Errorf("decisions = %+v, want nil", ds)
	}
}

func TestViewRendersTabs(t *testing.T) {
	m := New(sampleReport(), "s1", false, "")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"Worklogs", "ABC-1", "30m"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(m, runes("4"))
	if !strings.Contains(m.View(), "Session Summary") {
		t.Errorf("summary tab not shown")
	}
}
