// Package install registers autopilot's hook commands in the project's
// Claude Code settings file.
package install

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Hook is one host event wired to an autopilot subcommand.
type Hook struct {
	Event   string // host hook event, e.g. PostToolUse
	Matcher string // tool matcher; empty matches every event
	Command string // autopilot subcommand
}

// Hooks are the entries Install writes.
var Hooks = []Hook{
	{Event: "SessionStart", Command: "session-start"},
	{Event: "PostToolUse", Matcher: "*", Command: "log-activity"},
	{Event: "PreToolUse", Matcher: "Bash", Command: "pre-tool-use"},
	{Event: "Stop", Command: "drain"},
	{Event: "SessionEnd", Command: "session-end"},
}

// ErrInvalidSettings is returned when the settings file is not a JSON object.
var ErrInvalidSettings = errors.New("settings file is not a JSON object")

// SettingsPath is the project settings file the host reads hooks from.
func SettingsPath(root string) string {
	return filepath.Join(root, ".claude", "settings.json")
}

type entry struct {
	Matcher string    `json:"matcher,omitempty"`
	Hooks   []command `json:"hooks"`
}

type command struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

func commandLine(binary, sub string) string {
	if strings.ContainsAny(binary, " \t") {
		binary = `"` + binary + `"`
	}
	return binary + " " + sub
}

// Install adds every missing hook for binary to the settings under root and
// returns the events it added. Existing entries, including other tools'
// hooks, are left untouched.
func Install(root, binary string) ([]string, error) {
	data, err := readSettings(root)
	if err != nil {
		return nil, err
	}
	var added []string
	for _, h := range Hooks {
		line := commandLine(binary, h.Command)
		if has(data, h.Event, line) {
			continue
		}
		raw, err := json.Marshal(entry{Matcher: h.Matcher, Hooks: []command{{Type: "command", Command: line}}})
		if err != nil {
			return nil, err
		}
		path := "hooks." + h.Event
		if gjson.GetBytes(data, path).IsArray() {
			path += ".-1"
		} else {
			raw = append(append([]byte("["), raw...), ']')
		}
		if data, err = sjson.SetRawBytes(data, path, raw); err != nil {
			return nil, fmt.Errorf("failed to add %s hook: %w", h.Event, err)
		}
		added = append(added, h.Event)
	}
	if len(added) == 0 {
		return nil, nil
	}
	return added, writeSettings(root, data)
}

// Uninstall removes every hook entry whose command runs an autopilot
// subcommand through binary. Events left without entries are dropped.
func Uninstall(root, binary string) ([]string, error) {
	data, err := readSettings(root)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, h := range Hooks {
		line := commandLine(binary, h.Command)
		if !has(data, h.Event, line) {
			continue
		}
		var kept []string
		gjson.GetBytes(data, "hooks."+h.Event).ForEach(func(_, e gjson.Result) bool {
			if !runs(e, line) {
				kept = append(kept, e.Raw)
			}
			return true
		})
		path := "hooks." + h.Event
		if len(kept) == 0 {
			data, err = sjson.DeleteBytes(data, path)
		} else {
			data, err = sjson.SetRawBytes(data, path, []byte("["+strings.Join(kept, ",")+"]"))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to remove %s hook: %w", h.Event, err)
		}
		removed = append(removed, h.Event)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if hooks := gjson.GetBytes(data, "hooks"); hooks.IsObject() && len(hooks.Map()) == 0 {
		if data, err = sjson.DeleteBytes(data, "hooks"); err != nil {
			return nil, err
		}
	}
	return removed, writeSettings(root, data)
}

// Installed lists the events that already run binary's hook commands.
func Installed(root, binary string) ([]string, error) {
	data, err := readSettings(root)
	if err != nil {
		return nil, err
	}
	var events []string
	for _, h := range Hooks {
		if has(data, h.Event, commandLine(binary, h.Command)) {
			events = append(events, h.Event)
		}
	}
	return events, nil
}

func has(data []byte, event, line string) bool {
	found := false
	gjson.GetBytes(data, "hooks."+event).ForEach(func(_, e gjson.Result) bool {
		found = runs(e, line)
		return !found
	})
	return found
}

func runs(e gjson.Result, line string) bool {
	for _, c := range e.Get("hooks.#.command").Array() {
		if c.String() == line {
			return true
		}
	}
	return false
}

func readSettings(root string) ([]byte, error) {
	data, err := os.ReadFile(SettingsPath(root))
	if errors.Is(err, os.ErrNotExist) {
		return []byte(`{}`), nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []byte(`{}`), nil
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSettings, SettingsPath(root))
	}
	return data, nil
}

func writeSettings(root string, data []byte) error {
	path := SettingsPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.WriteFile(path, pretty.Pretty(data), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
