// Package hook parses host tool-use payloads into typed events.
package hook

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fakeyudi/autopilot/internal/redact"
	"github.com/fakeyudi/autopilot/internal/session"
)

// Event is one of FileEdit, FileWrite, Bash, Agent, Planning, TaskChange,
// ReadOnly or Other.
type Event interface {
	ToolName() string
	isEvent()
}

// FileEdit is an in-place edit: Edit, MultiEdit or NotebookEdit.
type FileEdit struct {
	Tool string
	Path string
}

// FileWrite is a whole-file write.
type FileWrite struct {
	Path string
}

// Bash is a shell command.
type Bash struct {
	Command string
}

// Agent is a delegated sub-agent task.
type Agent struct {
	Tool        string
	Description string
}

// Planning opens or closes a planning span: EnterPlanMode, ExitPlanMode, or
// a Skill whose name marks it as planning (Skill is set then).
type Planning struct {
	Tool  string
	Skill string
}

// Starts reports whether the event opens a planning span.
func (p Planning) Starts() bool { return p.Tool == "EnterPlanMode" || p.Skill != "" }

// TaskChange is a host task-list update: TaskCreate or TaskUpdate.
type TaskChange struct {
	Tool    string
	ID      string
	Subject string
	Status  string
}

// ReadOnly is a tool that changes nothing and is not tracked.
type ReadOnly struct {
	Tool string
}

// Other is any tool not listed above.
type Other struct {
	Tool string
	Path string
}

func (e FileEdit) ToolName() string { return e.Tool }
func (FileWrite) ToolName() string { return "Write" }
func (Bash) ToolName() string { return "Bash" }
func (e Agent) ToolName() string { return e.Tool }
func (e Planning) ToolName() string { return e.Tool }
func (e TaskChange) ToolName() string { return e.Tool }
func (e ReadOnly) ToolName() string { return e.Tool }
func (e Other) ToolName() string { return e.Tool }
func (FileEdit) isEvent() {}
func (FileWrite) isEvent() {}
func (Bash) isEvent() {}
func (Agent) isEvent() {}
func (Planning) isEvent() {}
func (TaskChange) isEvent() {}
func (ReadOnly) isEvent() {}
func (Other) isEvent() {}

var readOnlyTools = map[string]bool{
	"Read": true, "Glob": true, "Grep": true, "LS": true,
	"WebSearch": true, "WebFetch": true, "TodoRead": true, "NotebookRead": true,
	"AskUserQuestion": true, "TaskList": true, "TaskGet": true, "ToolSearch": true,
	"Skill": true, "ListMcpResourcesTool": true, "BashOutput": true,
}

// planningSkillWords mark a Skill name as planning when any is a substring.
var planningSkillWords = []string{"plan", "brainstorm", "spec", "explore", "research"}

// PlanningSkill reports whether a Skill name is a planning or research skill.
func PlanningSkill(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range planningSkillWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Payload is a validated hook invocation.
type Payload struct {
	SessionID string
	Cwd       string
	Event     Event
}

// ErrInvalidPayload is returned for malformed hook input.
var ErrInvalidPayload = errors.New("invalid hook payload")

// Parse validates a hook JSON object and classifies its tool.
func Parse(data []byte) (Payload, error) {
	if !gjson.ValidBytes(data) {
		return Payload{}, ErrInvalidPayload
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Payload{}, ErrInvalidPayload
	}
	tool := strings.TrimSpace(root.Get("tool_name").String())
	if tool == "" {
		return Payload{}, errors.Join(ErrInvalidPayload, errors.New("missing tool_name"))
	}
	input := root.Get("tool_input")
	return Payload{
		SessionID: root.Get("session_id").String(),
		Cwd:       root.Get("cwd").String(),
		Event:     classify(tool, input, root.Get("tool_response")),
	}, nil
}

func classify(tool string, input, response gjson.Result) Event {
	path := input.Get("file_path").String()
	if path == "" {
		path = input.Get("notebook_path").String()
	}
	// The response wins over the input for task fields.
	field := func(name string) string {
		if response.IsObject() && response.Get(name).String() != "" {
			return response.Get(name).String()
		}
		return input.Get(name).String()
	}
	switch {
	case tool == "Skill" && PlanningSkill(input.Get("skill").String()):
		return Planning{Tool: tool, Skill: input.Get("skill").String()}
	case tool == "EnterPlanMode" || tool == "ExitPlanMode":
		return Planning{Tool: tool}
	case tool == "TaskCreate" || tool == "TaskUpdate":
		return TaskChange{Tool: tool, ID: field("taskId"), Subject: field("subject"), Status: field("status")}
	case readOnlyTools[tool]:
		return ReadOnly{Tool: tool}
	case tool == "Edit" || tool == "MultiEdit" || tool == "NotebookEdit":
		return FileEdit{Tool: tool, Path: path}
	case tool == "Write":
		return FileWrite{Path: path}
	case tool == "Bash":
		return Bash{Command: input.Get("command").String()}
	case tool == "Task" || tool == "Agent":
		return Agent{Tool: tool, Description: input.Get("description").String()}
	default:
		return Other{Tool: tool, Path: path}
	}
}

// ToActivity converts an event into a buffer entry. It reports false for
// read-only tools, planning skills and files inside a .claude directory.
func ToActivity(ev Event, ts int64, issue session.IssueRef) (session.Activity, bool) {
	a := session.Activity{Timestamp: ts, Tool: ev.ToolName(), Issue: issue}
	switch e := ev.(type) {
	case ReadOnly:
		return session.Activity{}, false
	case FileEdit:
		a.Kind, a.File = session.KindFileEdit, e.Path
	case FileWrite:
		a.Kind, a.File = session.KindFileWrite, e.Path
	case Bash:
		a.Kind, a.Command = session.KindBash, redact.String(e.Command)
	case Agent:
		a.Kind = session.KindAgent
	case Planning:
		if e.Skill != "" {
			return session.Activity{}, false
		}
		a.Kind = session.KindOther
	case TaskChange:
		a.Kind = session.KindOther
	case Other:
		a.Kind, a.File = session.KindOther, e.Path
	default:
		return session.Activity{}, false
	}
	if internalPath(a.File) {
		return session.Activity{}, false
	}
	return a, true
}

func internalPath(p string) bool {
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.Contains(p, "/.claude/") || strings.HasPrefix(p, ".claude/")
}
