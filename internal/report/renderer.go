package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	versionSentinel = "<!-- autopilot-report-version: 1 -->"
	dataPrefix      = "<!-- autopilot-data: "
	dataSuffix      = " -->"
)

// Renderer serializes a Report to bytes.
type Renderer interface {
	Render(r *Report) ([]byte, error)
}

// NewRenderer returns the renderer for format: markdown, json or yaml.
func NewRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "markdown", "md":
		return &MarkdownRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "yaml", "yml":
		return &YAMLRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want markdown, json or yaml)", format)
}

// JSONRenderer renders a Report as indented JSON.
type JSONRenderer struct{}

func (JSONRenderer) Render(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// YAMLRenderer renders a Report as YAML.
type YAMLRenderer struct{}

func (YAMLRenderer) Render(r *Report) ([]byte, error) {
	return yaml.Marshal(r)
}

// MarkdownRenderer renders a Report as Markdown with an embedded base64
// JSON payload so the file can be parsed back losslessly.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Render(r *Report) ([]byte, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, base64.StdEncoding.EncodeToString(payload), dataSuffix)

	fmt.Fprintf(&sb, "# Autopilot session %s\n\n", r.Session.ID)

	sb.WriteString("## Summary\n\n")
	if !r.Session.StartTime.IsZero() {
		fmt.Fprintf(&sb, "- Started: %s\n", r.Session.StartTime.Format("2006-01-02 15:04:05 MST"))
	}
	if !r.Session.ArchivedAt.IsZero() {
		fmt.Fprintf(&sb, "- Ended: %s\n", r.Session.ArchivedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if r.Session.Duration != "" {
		fmt.Fprintf(&sb, "- Duration: %s\n", r.Session.Duration)
	}
	fmt.Fprintf(&sb, "- Autonomy: %s, accuracy %d\n", r.Session.Autonomy, r.Session.Accuracy)
	fmt.Fprintf(&sb, "- Tracked: %s (%s unattributed)\n",
		FormatSeconds(r.Session.TrackedSeconds), FormatSeconds(r.Session.UnattributedSeconds))
	sb.WriteString("\n")

	sb.WriteString("## Issues\n\n")
	if len(r.Issues) == 0 {
		sb.WriteString("_No issues were active._\n")
	} else {
		sb.WriteString("| Key | Summary | Logged | State |\n")
		sb.WriteString("|-----|---------|--------|-------|\n")
		for _, is := range r.Issues {
			state := "active"
			if is.Paused {
				state = "paused"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", is.Key, cell(is.Summary), FormatSeconds(is.LoggedSeconds), state)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Worklogs\n\n")
	if len(r.Worklogs) == 0 {
		sb.WriteString("_No worklogs queued._\n")
	} else {
		sb.WriteString("| Issue | Time | Status | Summary |\n")
		sb.WriteString("|-------|------|--------|---------|\n")
		for _, w := range r.Worklogs {
			issue := w.Issue
			if issue == "" {
				issue = "_unattributed_"
			}
			t := FormatSeconds(w.Seconds)
			if w.Capped {
				t += " (capped)"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", issue, t, w.Status, cell(w.Summary))
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Work Chunks\n\n")
	if len(r.Chunks) == 0 {
		sb.WriteString("_No work chunks recorded._\n")
	} else {
		for _, c := range r.Chunks {
			issue := c.Issue
			if issue == "" {
				issue = "unattributed"
			}
			fmt.Fprintf(&sb, "- %s to %s, %s, %s", c.Start.Format("15:04:05"), c.End.Format("15:04:05"), FormatSeconds(c.Seconds), issue)
			if c.NeedsAttribution {
				sb.WriteString(" (needs attribution)")
			}
			sb.WriteString("\n")
			for _, f := range c.Files {
				fmt.Fprintf(&sb, "  - `%s`\n", f)
			}
		}
	}
	sb.WriteString("\n")

	return []byte(sb.String()), nil
}

// cell escapes pipes so a value stays inside its table cell.
func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
