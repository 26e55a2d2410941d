package hook

import (
	"errors"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/fakeyudi/autopilot/internal/session"
)

func TestParseClassifiesTools(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Event
	}{
		{"edit", `{"tool_name":"Edit","tool_input":{"file_path":"/p/src/a.go"}}`, FileEdit{Tool: "Edit", Path: "/p/src/a.go"}},
		{"multi edit", `{"tool_name":"MultiEdit","tool_input":{"file_path":"/p/b.go"}}`, FileEdit{Tool: "MultiEdit", Path: "/p/b.go"}},
		{"notebook", `{"tool_name":"NotebookEdit","tool_input":{"notebook_path":"/p/n.ipynb"}}`, FileEdit{Tool: "NotebookEdit", Path: "/p/n.ipynb"}},
		{"write", `{"tool_name":"Write","tool_input":{"file_path":"/p/c.go","content":"x"}}`, FileWrite{Path: "/p/c.go"}},
		{"bash", `{"tool_name":"Bash","tool_input":{"command":"go test ./..."}}`, Bash{Command: "go test ./..."}},
		{"task", `{"tool_name":"Task","tool_input":{"description":"explore"}}`, Agent{Tool: "Task", Description: "explore"}},
		{"read", `{"tool_name":"Read","tool_input":{"file_path":"/p/a.go"}}`, ReadOnly{Tool: "Read"}},
		{"grep", `{"tool_name":"Grep","tool_input":{"pattern":"x"}}`, ReadOnly{Tool: "Grep"}},
		{"mcp", `{"tool_name":"mcp__x__y","tool_input":{}}`, Other{Tool: "mcp__x__y"}},
		{"plan mode", `{"tool_name":"EnterPlanMode","tool_input":{}}`, Planning{Tool: "EnterPlanMode"}},
		{"exit plan mode", `{"tool_name":"ExitPlanMode","tool_input":{"plan":"x"}}`, Planning{Tool: "ExitPlanMode"}},
		{"planning skill", `{"tool_name":"Skill","tool_input":{"skill":"superpowers:brainstorming"}}`, Planning{Tool: "Skill", Skill: "superpowers:brainstorming"}},
		{"other skill", `{"tool_name":"Skill","tool_input":{"skill":"pdf"}}`, ReadOnly{Tool: "Skill"}},
		{"task create", `{"tool_name":"TaskCreate","tool_input":{"subject":"Add retries"},"tool_response":{"taskId":"7"}}`, TaskChange{Tool: "TaskCreate", ID: "7", Subject: "Add retries"}},
		{"task update", `{"tool_name":"TaskUpdate","tool_input":{"taskId":3,"status":"in_progress"},"tool_response":"ok"}`, TaskChange{Tool: "TaskUpdate", ID: "3", Status: "in_progress"}},
		{"task response wins", `{"tool_name":"TaskUpdate","tool_input":{"taskId":"3","status":"pending"},"tool_response":{"status":"completed"}}`, TaskChange{Tool: "TaskUpdate", ID: "3", Status: "completed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse([]byte(tt.payload))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if p.Event != tt.want {
				t.Errorf("Event = %#v, want %#v", p.Event, tt.want)
			}
		})
	}
}

func TestParseRejectsInvalidPayloads(t *testing.T) {
	for _, in := range []string{``, `not json`, `[1,2]`, `{"tool_input":{}}`, `{"tool_name":"  "}`} {
		if _, err := Parse([]byte(in)); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidPayload", in, err)
		}
	}
}

func TestParseSessionFields(t *testing.T) {
	p, err := Parse([]byte(`{"session_id":"abc","cwd":"/p","tool_name":"Bash","tool_input":{"command":"ls"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if p.SessionID != "abc" || p.Cwd != "/p" {
		t.Errorf("payload = %+v", p)
	}
}

func TestToActivity(t *testing.T) {
	issue := session.Attributed("ABC-1")

	a, ok := ToActivity(FileEdit{Tool: "Edit", Path: "/p/a.go"}, 10, issue)
	if !ok || a.Kind != session.KindFileEdit || a.File != "/p/a.go" || !a.Issue.Is("ABC-1") || a.Timestamp != 10 {
		t.Errorf("edit activity = %+v, %v", a, ok)
	}

	a, ok = ToActivity(Bash{Command: "curl -u me@x.io:secret https://x"}, 10, session.Unattributed)
	if !ok || a.Kind != session.KindBash || a.Command != "curl -u me@x.io:[REDACTED] https://x" {
		t.Errorf("bash activity = %+v", a)
	}

	a, ok = ToActivity(Agent{Tool: "Task"}, 10, issue)
	if !ok || a.Kind != session.KindAgent || a.Tool != "Task" {
		t.Errorf("agent activity = %+v", a)
	}

	a, ok = ToActivity(Planning{Tool: "EnterPlanMode"}, 10, issue)
	if !ok || a.Kind != session.KindOther || a.Tool != "EnterPlanMode" {
		t.Errorf("plan mode activity = %+v", a)
	}
	if _, ok := ToActivity(Planning{Tool: "Skill", Skill: "brainstorm"}, 10, issue); ok {
		t.Errorf("planning skill recorded")
	}
	if _, ok := ToActivity(ReadOnly{Tool: "Read"}, 10, issue); ok {
		t.Errorf("read-only tool recorded")
	}
	if _, ok := ToActivity(FileWrite{Path: "/p/.claude/settings.json"}, 10, issue); ok {
		t.Errorf(".claude file recorded")
	}
}

func TestPlanningSkill(t *testing.T) {
	for name, want := range map[string]bool{
		"writing-plans":    true,
		"Brainstorming":    true,
		"spec-review":      true,
		"explore-codebase": true,
		"deep-research":    true,
		"pdf":              false,
		"frontend-design":  false,
	} {
		if got := PlanningSkill(name); got != want {
			t.Errorf("PlanningSkill(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCommitHint(t *testing.T) {
	issue := session.Attributed("ABC-12")

	out, ok := CommitHint(Bash{Command: `git commit -m "fix login"`}, issue)
	if !ok {
		t.Fatal("expected a hint")
	}
	msg := gjson.GetBytes(out, "systemMessage").String()
	if msg == "" || !strings.Contains(msg, "ABC-12") {
		t.Errorf("systemMessage = %q", msg)
	}

	tests := []struct {
		name  string
		ev    Event
		issue session.IssueRef
	}{
		{"already has key", Bash{Command: `git commit -m "ABC-12: fix"`}, issue},
		{"no issue", Bash{Command: `git commit -m "fix"`}, session.Unattributed},
		{"not a commit", Bash{Command: `git status`}, issue},
		{"not bash", FileEdit{Tool: "Edit", Path: "x"}, issue},
	}
	for _, tt := range tests {
		if _, ok := CommitHint(tt.ev, tt.issue); ok {
			t.Errorf("%s: unexpected hint", tt.name)
		}
	}

	for _, cmd := range []string{
		`git -C repo commit -am wip`,
		`git -c user.name=bot commit -m wip`,
		`git --no-pager -C ../app commit -m wip`,
		`git --git-dir .git --work-tree . commit -m wip`,
		`cd app && git commit -m wip`,
	} {
		if _, ok := CommitHint(Bash{Command: cmd}, issue); !ok {
			t.Errorf("%q not detected as a commit", cmd)
		}
	}
	for _, cmd := range []string{`git log --grep commit`, `git status`} {
		if _, ok := CommitHint(Bash{Command: cmd}, issue); ok {
			t.Errorf("%q detected as a commit", cmd)
		}
	}
}
