package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LevelWarn, &buf)
	l.Info("hidden")
	l.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("warn missing: %q", out)
	}
}

func TestNilAndDiscardLoggersAreSafe(t *testing.T) {
	var l *Logger
	l.Info("nothing")
	l.Category("x").Error("nothing")
	Discard().Debug("nothing")
}

func TestLoggerRedacts(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(LevelDebug, &buf).Category("api").Debug("request", "cmd", "curl -u me@x.io:hunter2 https://x")
	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Errorf("secret leaked: %q", out)
	}
	if !strings.Contains(out, "category=api") {
		t.Errorf("category missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"off", LevelOff},
		{"", LevelInfo},
		{"loud", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in, LevelInfo); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRotatingFileRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	f := &RotatingFile{Path: path, MaxBytes: 16}

	if _, err := f.Write([]byte("0123456789\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("abcdefghij\n")); err != nil {
		t.Fatal(err)
	}

	old, err := os.ReadFile(path + ".1")
	if err != nil {
		t.Fatalf("rotated file missing: %v", err)
	}
	if string(old) != "0123456789\n" {
		t.Errorf("rotated content = %q", old)
	}
	cur, _ := os.ReadFile(path)
	if string(cur) != "abcdefghij\n" {
		t.Errorf("current content = %q", cur)
	}
}

func TestOpenDisabled(t *testing.T) {
	root := t.TempDir()
	Open(root, false).Info("nothing")
	if _, err := os.Stat(DebugPath(root)); !os.IsNotExist(err) {
		t.Errorf("disabled log created a file: %v", err)
	}
}

func TestDebugPathOverride(t *testing.T) {
	t.Setenv("AUTOPILOT_DEBUG_LOG", "/tmp/custom.log")
	if got := DebugPath("/proj"); got != "/tmp/custom.log" {
		t.Errorf("DebugPath = %q", got)
	}
}
