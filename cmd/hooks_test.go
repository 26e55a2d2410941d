package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fakeyudi/autopilot/internal/config"
	"github.com/fakeyudi/autopilot/internal/session"
)

const editPayload = `{"session_id":"abc","cwd":"/repo","tool_name":"Edit","tool_input":{"file_path":"/repo/internal/auth/login.go"}}`

func TestSessionStartDetectsBranchIssue(t *testing.T) {
	root := newProject(t, &config.Config{ProjectKey: "ABC"}, config.Credentials{})
	gitRunner = fakeGit("feature/ABC-12-login", "")

	out, err := executeCommand(rootCmd, "session-start", "--root", root)
	if err != nil {
		t.Fatalf("session-start: %v", err)
	}
	if !strings.Contains(out, "tracking ABC-12") {
		t.Errorf("output = %q, want tracking message", out)
	}
	s := loadState(t, root)
	if !s.CurrentIssue.Is("ABC-12") || !s.HasIssue("ABC-12") {
		t.Errorf("current issue = %v, issues = %v", s.CurrentIssue, s.IssueKeys())
	}
}

func TestSessionStartResumesTrackedSession(t *testing.T) {
	root := newProject(t, &config.Config{ProjectKey: "ABC", AutonomyLevel: session.AutonomyB}, config.Credentials{})
	s := session.New("keep-me", time.Now().Unix())
	s.ActiveIssues["ABC-1"] = &session.ActiveIssue{StartTime: time.Now().Unix()}
	s.CurrentIssue = session.Attributed("ABC-1")
	saveState(t, root, s)

	if _, err := executeCommand(rootCmd, "session-start", "--root", root); err != nil {
		t.Fatalf("session-start: %v", err)
	}
	got := loadState(t, root)
	if got.ID != "keep-me" {
		t.Errorf("session id = %q, want resumed session", got.ID)
	}
	if got.AutonomyLevel != session.AutonomyB {
		t.Errorf("autonomy = %s, want B synced from config", got.AutonomyLevel)
	}
}

func TestSessionStartAutoSetup(t *testing.T) {
	j := &jira{}
	root := newProject(t, nil, j.serve(t))
	gitRunner = fakeGit("main", "abc1234 ABC-3 fix login\ndef5678 ABC-4 add export\n")

	out, err := executeCommand(rootCmd, "session-start", "--root", root)
	if err != nil {
		t.Fatalf("session-start: %v", err)
	}
	if !strings.Contains(out, "configured project ABC") {
		t.Errorf("output = %q", out)
	}
	cfg, err := config.LoadProject(root)
	if err != nil || cfg == nil {
		t.Fatalf("project config not written: %v", err)
	}
	if cfg.ProjectKey != "ABC" {
		t.Errorf("ProjectKey = %q, want ABC", cfg.ProjectKey)
	}
}

func TestSessionStartSkipsWhenDisabled(t *testing.T) {
	root := newProject(t, &config.Config{Enabled: boolPtr(false)}, config.Credentials{})

	if _, err := executeCommand(rootCmd, "session-start", "--root", root); err != nil {
		t.Fatalf("session-start: %v", err)
	}
	if _, err := os.Stat(session.StatePath(root)); !os.IsNotExist(err) {
		t.Errorf("session file written while disabled: %v", err)
	}
}

func TestHookSurvivesMalformedConfig(t *testing.T) {
	root := newProject(t, nil, config.Credentials{})
	if err := os.MkdirAll(filepath.Dir(config.ProjectPath(root)), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(config.ProjectPath(root), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand(rootCmd, "session-start", "--root", root)
	if err != nil {
		t.Fatalf("hook returned error: %v", err)
	}
	if !strings.Contains(out, "failed to parse config file") {
		t.Errorf("output = %q, want parse error reported", out)
	}
	if _, err := os.Stat(session.StatePath(root)); err != nil {
		t.Errorf("session not started with defaults: %v", err)
	}
}

func TestLogActivityRecordsEvent(t *testing.T) {
	root := newProject(t, nil, config.Credentials{})
	s := session.New("s", time.Now().Unix())
	s.CurrentIssue = session.Attributed("ABC-1")
	saveState(t, root, s)

	if _, err := executeWithInput(editPayload, "log-activity", "--root", root); err != nil {
		t.Fatalf("log-activity: %v", err)
	}
	got := loadState(t, root)
	if len(got.Buffer) != 1 {
		t.Fatalf("buffer = %+v, want one activity", got.Buffer)
	}
	a := got.Buffer[0]
	if a.Kind != session.KindFileEdit || a.File != "/repo/internal/auth/login.go" || !a.Issue.Is("ABC-1") {
		t.Errorf("activity = %+v", a)
	}
}

func TestLogActivityTimesPlanning(t *testing.T) {
	root := newProject(t, nil, config.Credentials{})
	now := time.Now().Unix()
	s := session.New("s", now)
	s.CurrentIssue = session.Attributed("ABC-1")
	s.ActivePlanning = &session.Planning{StartTime: now - 600, Issue: session.Attributed("ABC-1"), Subject: "Planning"}
	saveState(t, root, s)

	if _, err := executeWithInput(`{"tool_name":"ExitPlanMode","tool_input":{"plan":"x"}}`, "log-activity", "--root", root); err != nil {
		t.Fatalf("log-activity: %v", err)
	}
	got := loadState(t, root)
	if got.ActivePlanning != nil {
		t.Errorf("planning still open: %+v", got.ActivePlanning)
	}
	if len(got.PendingWorklogs) != 1 || !got.PendingWorklogs[0].Issue.Is("ABC-1") || got.PendingWorklogs[0].Seconds < 600 {
		t.Errorf("pending = %+v", got.PendingWorklogs)
	}
}

func TestLogActivityTracksTasks(t *testing.T) {
	root := newProject(t, nil, config.Credentials{})
	saveState(t, root, session.New("s", time.Now().Unix()))

	for _, in := range []string{
		`{"tool_name":"TaskCreate","tool_input":{"subject":"Wire retries"},"tool_response":{"taskId":"4"}}`,
		`{"tool_name":"TaskUpdate","tool_input":{"taskId":"4","status":"in_progress"}}`,
	} {
		if _, err := executeWithInput(in, "log-activity", "--root", root); err != nil {
			t.Fatalf("log-activity: %v", err)
		}
	}
	got := loadState(t, root)
	if task := got.ActiveTasks["4"]; task == nil || task.Subject != "Wire retries" {
		t.Errorf("active tasks = %+v", got.ActiveTasks)
	}
}

func TestLogActivityIgnoresUnusableInput(t *testing.T) {
	tests := []struct {
		name        string
		withSession bool
		input       string
	}{
		{"no session", false, editPayload},
		{"not json", true, "not json"},
		{"missing tool name", true, `{"tool_input":{}}`},
		{"read-only tool", true, `{"tool_name":"Read","tool_input":{"file_path":"/repo/a.go"}}`},
		{"internal file", true, `{"tool_name":"Write","tool_input":{"file_path":"/repo/.claude/notes.md"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newProject(t, nil, config.Credentials{})
			if tt.withSession {
				saveState(t, root, session.New("s", time.Now().Unix()))
			}

			out, err := executeWithInput(tt.input, "log-activity", "--root", root)
			if err != nil {
				t.Fatalf("log-activity returned error: %v", err)
			}
			if out != "" {
				t.Errorf("unexpected output %q", out)
			}
			if !tt.withSession {
				if _, err := os.Stat(session.StatePath(root)); !os.IsNotExist(err) {
					t.Errorf("session created by log-activity")
				}
				return
			}
			if got := loadState(t, root); len(got.Buffer) != 0 {
				t.Errorf("buffer = %+v, want empty", got.Buffer)
			}
		})
	}
}

func TestPreToolUseCommitHint(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    bool
	}{
		{"commit without key", `git commit -m "wip"`, true},
		{"commit with key", `git commit -m "ABC-1 wip"`, false},
		{"not a commit", `git status`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newProject(t, nil, config.Credentials{})
			s := session.New("s", time.Now().Unix())
			s.CurrentIssue = session.Attributed("ABC-1")
			saveState(t, root, s)

			payload := `{"tool_name":"Bash","tool_input":{"command":` + quote(tt.command) + `}}`
			out, err := executeWithInput(payload, "pre-tool-use", "--root", root)
			if err != nil {
				t.Fatalf("pre-tool-use: %v", err)
			}
			got := strings.Contains(out, "systemMessage") && strings.Contains(out, "ABC-1")
			if got != tt.want {
				t.Errorf("hint printed = %v, want %v (output %q)", got, tt.want, out)
			}
		})
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func TestDrainTurnsBufferIntoChunks(t *testing.T) {
	root := newProject(t, nil, config.Credentials{})
	now := time.Now().Unix()
	s := session.New("s", now)
	s.ActiveIssues["ABC-1"] = &session.ActiveIssue{StartTime: now - 300}
	s.CurrentIssue = session.Attributed("ABC-1")
	s.Buffer = []session.Activity{
		{Timestamp: now - 120, Tool: "Edit", Kind: session.KindFileEdit, Issue: session.Attributed("ABC-1"), File: "/repo/a.go"},
		{Timestamp: now - 60, Tool: "Edit", Kind: session.KindFileEdit, Issue: session.Attributed("ABC-1"), File: "/repo/b.go"},
	}
	saveState(t, root, s)

	if _, err := executeCommand(rootCmd, "drain", "--root", root); err != nil {
		t.Fatalf("drain: %v", err)
	}
	got := loadState(t, root)
	if len(got.Buffer) != 0 {
		t.Errorf("buffer not drained: %+v", got.Buffer)
	}
	if len(got.Chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	if len(got.PendingWorklogs) != 0 {
		t.Errorf("flush ran before the interval: %+v", got.PendingWorklogs)
	}
}

func TestSessionEndArchivesAndQueues(t *testing.T) {
	root := newProject(t, nil, config.Credentials{})
	now := time.Now().Unix()
	s := session.New("ended", now-3600)
	s.ActiveIssues["ABC-1"] = &session.ActiveIssue{StartTime: now - 3600}
	s.CurrentIssue = session.Attributed("ABC-1")
	s.Chunks = []session.WorkChunk{{
		ID:           "c1",
		Issue:        session.Attributed("ABC-1"),
		StartTime:    now - 2000,
		EndTime:      now - 500,
		FilesChanged: []string{"/repo/a.go"},
	}}
	saveState(t, root, s)

	out, err := executeCommand(rootCmd, "session-end", "--root", root)
	if err != nil {
		t.Fatalf("session-end: %v", err)
	}
	if !strings.Contains(out, "session archived, 1 worklogs queued") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(session.ArchiveDir(root), "ended.json")); err != nil {
		t.Errorf("archive missing: %v", err)
	}

	got := loadState(t, root)
	if got.ID == "ended" {
		t.Errorf("live session kept the archived id")
	}
	if len(got.Chunks) != 0 {
		t.Errorf("chunks not consumed: %+v", got.Chunks)
	}
	if len(got.PendingWorklogs) != 1 || got.PendingWorklogs[0].Status != session.StatusPending {
		t.Errorf("pending worklogs = %+v", got.PendingWorklogs)
	}
}

func TestSessionEndClosesPlanning(t *testing.T) {
	root := newProject(t, nil, config.Credentials{})
	now := time.Now().Unix()
	s := session.New("ended", now-3600)
	s.LastParentKey = "ABC-100"
	s.ActivePlanning = &session.Planning{StartTime: now - 900, Subject: "Planning: research"}
	saveState(t, root, s)

	out, err := executeCommand(rootCmd, "session-end", "--root", root)
	if err != nil {
		t.Fatalf("session-end: %v", err)
	}
	if !strings.Contains(out, "1 worklogs queued") {
		t.Errorf("output = %q", out)
	}
	got := loadState(t, root)
	if got.ActivePlanning != nil {
		t.Errorf("planning survived the session: %+v", got.ActivePlanning)
	}
	if len(got.PendingWorklogs) != 1 || !got.PendingWorklogs[0].Issue.Is("ABC-100") || got.PendingWorklogs[0].Summary != "Planning: research" {
		t.Errorf("pending worklogs = %+v", got.PendingWorklogs)
	}
}
