package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/fakeyudi/autopilot/internal/config"
	"github.com/fakeyudi/autopilot/internal/report"
	"github.com/fakeyudi/autopilot/internal/session"
)

func archived(t *testing.T, root, id string) string {
	t.Helper()
	store, err := session.NewStore(root)
	if err != nil {
		t.Fatal(err)
	}
	s := session.New(id, 1_700_000_000)
	s.ArchivedAt = 1_700_003_600
	s.ActiveIssues["ABC-1"] = &session.ActiveIssue{Summary: "Fix login"}
	s.PendingWorklogs = []session.PendingWorklog{
		{Issue: session.Attributed("ABC-1"), Seconds: 1800, Summary: "Worked on login.go", Status: session.StatusPosted},
	}
	path, err := store.Archive(s)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	return path
}

func TestSummaryRendersLatestArchive(t *testing.T) {
	root := newProject(t, nil, config.Credentials{})
	archived(t, root, "sess-1")

	out, err := executeCommand(rootCmd, "summary", "--format", "json", "--root", root)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	r, err := report.JSONParser{}.Parse([]byte(out))
	if err != nil {
		t.Fatalf("output is not a JSON report: %v\n%s", err, out)
	}
	if r.Session.ID != "sess-1" || len(r.Worklogs) != 1 || r.Session.Duration != "1h" {
		t.Errorf("report = %+v", r.Session)
	}
}

func TestSummaryExplicitArchive(t *testing.T) {
	root := newProject(t, nil, config.Credentials{})
	path := archived(t, root, "sess-2")

	out, err := executeCommand(rootCmd, "summary", path, "--root", root)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{"autopilot-report-version", "ABC-1", "Worked on login.go"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestSummaryFallsBackToLiveSession(t *testing.T) {
	root := newProject(t, nil, config.Credentials{})
	s := session.New("live", 1_700_000_000)
	s.ActiveIssues["ABC-7"] = &session.ActiveIssue{}
	saveState(t, root, s)

	out, err := executeCommand(rootCmd, "summary", "--format", "yaml", "--root", root)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	r, err := report.YAMLParser{}.Parse([]byte(out))
	if err != nil {
		t.Fatalf("output is not a YAML report: %v", err)
	}
	if r.Session.ID != "live" || len(r.Issues) != 1 || r.Issues[0].Key != "ABC-7" {
		t.Errorf("report = %+v", r)
	}
}

func TestSummaryWritesFile(t *testing.T) {
	root := newProject(t, nil, config.Credentials{})
	archived(t, root, "sess-3")
	dest := filepath.Join(t.TempDir(), "report.md")

	out, err := executeCommand(rootCmd, "summary", "-o", dest, "--root", root)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out, "Report written to") {
		t.Errorf("output = %q", out)
	}
	r, err := report.Load(dest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Session.ID != "sess-3" {
		t.Errorf("session id = %q", r.Session.ID)
	}
}

func TestSummaryErrors(t *testing.T) {
	root := newProject(t, nil, config.Credentials{})
	if _, err := executeCommand(rootCmd, "summary", "--root", root); err == nil {
		t.Error("expected an error with nothing to summarise")
	}

	archived(t, root, "sess-4")
	if _, err := executeCommand(rootCmd, "summary", "--format", "xml", "--root", root); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
