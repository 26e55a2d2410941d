package report

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/autopilot/internal/session"
)

// Parser deserializes a rendered report back into structured data.
type Parser interface {
	Parse(data []byte) (*Report, error)
}

// JSONParser parses a JSON-encoded Report.
type JSONParser struct{}

func (JSONParser) Parse(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse JSON report: %w", err)
	}
	return &r, nil
}

// YAMLParser parses a YAML-encoded Report.
type YAMLParser struct{}

func (YAMLParser) Parse(data []byte) (*Report, error) {
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse YAML report: %w", err)
	}
	return &r, nil
}

// MarkdownParser extracts the embedded payload written by MarkdownRenderer.
type MarkdownParser struct{}

func (MarkdownParser) Parse(data []byte) (*Report, error) {
	content := string(data)
	if !strings.Contains(content, versionSentinel) {
		return nil, errors.New("not a valid autopilot report: missing version sentinel")
	}
	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, errors.New("not a valid autopilot report: missing data payload")
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, errors.New("not a valid autopilot report: malformed data payload")
	}

	payload, err := base64.StdEncoding.DecodeString(content[start : start+end])
	if err != nil {
		return nil, fmt.Errorf("not a valid autopilot report: corrupted base64 payload: %w", err)
	}
	var r Report
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("not a valid autopilot report: failed to parse embedded JSON: %w", err)
	}
	return &r, nil
}

// ParseArchive reads a session archive and builds its Report.
func ParseArchive(data []byte) (*Report, error) {
	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrCorrupt, err)
	}
	s.Normalize()
	return FromSession(&s), nil
}

// Load reads path as a session archive or any rendered report, choosing the
// parser by extension. JSON files are reports when they carry a top-level
// "session" object and archives otherwise.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return MarkdownParser{}.Parse(data)
	case ".yaml", ".yml":
		return YAMLParser{}.Parse(data)
	}
	if gjson.GetBytes(data, "session").IsObject() {
		return JSONParser{}.Parse(data)
	}
	return ParseArchive(data)
}

// Latest returns the most recently modified archive in dir.
func Latest(dir string) (string, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return "", err
	}
	type archive struct {
		path string
		mod  int64
	}
	var found []archive
	for _, p := range entries {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		found = append(found, archive{p, info.ModTime().UnixNano()})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no archived sessions in %s", dir)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].mod > found[j].mod })
	return found[0].path, nil
}
