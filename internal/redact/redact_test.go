package redact

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		leaking string
	}{
		{
			name:    "atlassian token",
			in:      "export TOKEN=ATATT3xFfGF0abcdefghijklmnopqrstuvwxyz",
			want:    "export TOKEN=[REDACTED_TOKEN]",
			leaking: "ATATT3x",
		},
		{
			name:    "authorization header",
			in:      `curl -H "Authorization: Basic dXNlcjpzZWNyZXQ=" https://x`,
			want:    `curl -H "Authorization: Basic [REDACTED] https://x`,
			leaking: "dXNlcjpzZWNyZXQ",
		},
		{
			name:    "curl user",
			in:      "curl -u me@example.com:hunter2 https://x",
			want:    "curl -u me@example.com:[REDACTED] https://x",
			leaking: "hunter2",
		},
		{
			name:    "printf credentials",
			in:      "printf 'me@example.com:s3cret' | base64",
			want:    "printf '[REDACTED]' | base64",
			leaking: "s3cret",
		},
		{
			name:    "json api token",
			in:      `echo '{"ApiToken": "abc123"}' > cfg.json`,
			want:    `echo '{"ApiToken": "[REDACTED]"}' > cfg.json`,
			leaking: "abc123",
		},
		{
			name:    "bare bearer",
			in:      "http GET api Bearer eyJhbGciOiJIUzI1NiJ9",
			want:    "http GET api Bearer [REDACTED]",
			leaking: "eyJhbGci",
		},
		{
			name: "harmless command",
			in:   "go test ./...",
			want: "go test ./...",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := String(tt.in)
			if got != tt.want {
				t.Errorf("String(%q)\n got  %q\n want %q", tt.in, got, tt.want)
			}
			if tt.leaking != "" && strings.Contains(got, tt.leaking) {
				t.Errorf("output still contains %q", tt.leaking)
			}
		})
	}
}

func TestStringIdempotent(t *testing.T) {
	in := "curl -u a@b.c:tok -H 'Authorization: Bearer abcdefghijk'"
	once := String(in)
	if twice := String(once); twice != once {
		t.Errorf("not idempotent:\n once  %q\n twice %q", once, twice)
	}
}
