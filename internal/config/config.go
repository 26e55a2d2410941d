package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/fakeyudi/autopilot/internal/session"
)

// DefaultBranchPattern matches branches such as feature/ABC-123-login.
// {key} is replaced by the regex-escaped project key.
const DefaultBranchPattern = `^(?:feature|fix|hotfix|chore|docs)/({key}-\d+)`

// Config holds the tracking behaviour for one project. Pointer fields are
// unset when nil so Merge can tell "false" from "not configured".
type Config struct {
	ProjectKey      string           `json:"projectKey,omitempty"`
	Enabled         *bool            `json:"enabled,omitempty"`
	AutonomyLevel   session.Autonomy `json:"autonomyLevel,omitempty"`
	Accuracy        int              `json:"accuracy,omitempty"`
	IdleThreshold   int              `json:"idleThreshold,omitempty"`   // minutes
	TimeRounding    int              `json:"timeRounding,omitempty"`    // minutes
	WorklogInterval int              `json:"worklogInterval,omitempty"` // minutes
	AutoCreate      *bool            `json:"autoCreate,omitempty"`
	BranchPattern   string           `json:"branchPattern,omitempty"`
	LogLanguage     string           `json:"logLanguage,omitempty"`
	DebugLog        *bool            `json:"debugLog,omitempty"`
	IgnorePatterns  []string         `json:"ignorePatterns,omitempty"` // watch command
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		Enabled:         boolPtr(true),
		AutonomyLevel:   session.AutonomyC,
		Accuracy:        5,
		IdleThreshold:   15,
		TimeRounding:    15,
		WorklogInterval: 15,
		AutoCreate:      boolPtr(false),
		BranchPattern:   DefaultBranchPattern,
		LogLanguage:     "English",
		DebugLog:        boolPtr(false),
		IgnorePatterns:  []string{},
	}
}

func boolPtr(b bool) *bool { return &b }

// IsEnabled reports whether tracking is on for the project.
func (c Config) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

// AutoCreateEnabled reports whether issues may be created automatically.
func (c Config) AutoCreateEnabled() bool { return c.AutoCreate != nil && *c.AutoCreate }

// DebugEnabled reports whether the debug log is written.
func (c Config) DebugEnabled() bool { return c.DebugLog != nil && *c.DebugLog }

// Credentials authenticate against the tracker and the enrichment API.
type Credentials struct {
	BaseURL         string `json:"baseUrl,omitempty"`
	Email           string `json:"email,omitempty"`
	APIToken        string `json:"apiToken,omitempty"`
	AccountID       string `json:"accountId,omitempty"`
	AnthropicAPIKey string `json:"anthropicApiKey,omitempty"`
}

// Get returns a credential by its JSON field name, or "" if unset.
func (c Credentials) Get(field string) string {
	switch field {
	case "baseUrl":
		return c.BaseURL
	case "email":
		return c.Email
	case "apiToken":
		return c.APIToken
	case "accountId":
		return c.AccountID
	case "anthropicApiKey":
		return c.AnthropicAPIKey
	}
	return ""
}

// HasTracker reports whether enough is set to call the tracker.
func (c Credentials) HasTracker() bool {
	return c.BaseURL != "" && c.Email != "" && c.APIToken != ""
}

// Global is the per-user file: credentials plus default settings.
type Global struct {
	Credentials
	Config
}

// ProjectPath is the project settings file.
func ProjectPath(root string) string {
	return filepath.Join(root, ".claude", "autopilot.json")
}

// LocalPath is the project-local credentials file, kept out of version control.
func LocalPath(root string) string {
	return filepath.Join(root, ".claude", "autopilot.local.json")
}

// GlobalPath is ~/.claude/autopilot.global.json.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "autopilot.global.json"), nil
}

// LoadGlobal reads the global file. Returns an empty Global if it is absent.
func LoadGlobal() (*Global, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	var g Global
	found, err := loadFile(path, &g)
	if err != nil {
		return nil, err
	}
	if !found {
		return &Global{}, nil
	}
	return &g, nil
}

// SaveGlobal writes the global file with user-only permissions.
func SaveGlobal(g *Global) error {
	path, err := GlobalPath()
	if err != nil {
		return err
	}
	return saveFile(path, g, 0o600)
}

// LoadProject reads <root>/.claude/autopilot.json.
// Returns nil (no error) if the file is absent.
func LoadProject(root string) (*Config, error) {
	var cfg Config
	found, err := loadFile(ProjectPath(root), &cfg)
	if err != nil || !found {
		return nil, err
	}
	return &cfg, nil
}

// SaveProject writes <root>/.claude/autopilot.json.
func SaveProject(root string, cfg *Config) error {
	return saveFile(ProjectPath(root), cfg, 0o644)
}

// Local is the project-local file: credentials plus the parents recently
// used for created issues.
type Local struct {
	Credentials
	RecentParents []string `json:"recentParents,omitempty"`
}

// MaxRecentParents is how many parent keys RememberParent keeps.
const MaxRecentParents = 5

// LoadLocal reads <root>/.claude/autopilot.local.json.
// Returns nil (no error) if the file is absent.
func LoadLocal(root string) (*Local, error) {
	var l Local
	found, err := loadFile(LocalPath(root), &l)
	if err != nil || !found {
		return nil, err
	}
	return &l, nil
}

// RememberParent moves key to the front of the local recentParents list,
// keeping at most MaxRecentParents entries. Other fields in the file are
// left as they are.
func RememberParent(root, key string) error {
	if key == "" {
		return nil
	}
	path := LocalPath(root)
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte(`{}`)
	}
	if !gjson.ValidBytes(data) {
		return &ParseError{Path: path, Err: errors.New("invalid JSON")}
	}

	recent := []string{key}
	for _, r := range gjson.GetBytes(data, "recentParents").Array() {
		if k := r.String(); k != "" && k != key && len(recent) < MaxRecentParents {
			recent = append(recent, k)
		}
	}
	if data, err = sjson.SetBytes(data, "recentParents", recent); err != nil {
		return fmt.Errorf("failed to update %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.WriteFile(path, pretty.Pretty(data), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// loadFile reads and parses a JSON file at path into v.
// It reports found=false when the file is absent.
func loadFile(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, &ParseError{Path: path, Err: err}
	}
	return true, nil
}

func saveFile(path string, v any, perm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	overlay(&result, global)
	overlay(&result, project)
	result.normalize()
	return result
}

func overlay(dst, src *Config) {
	if src == nil {
		return
	}
	if src.ProjectKey != "" {
		dst.ProjectKey = src.ProjectKey
	}
	if src.Enabled != nil {
		dst.Enabled = src.Enabled
	}
	if src.AutonomyLevel != "" {
		dst.AutonomyLevel = src.AutonomyLevel
	}
	if src.Accuracy != 0 {
		dst.Accuracy = src.Accuracy
	}
	if src.IdleThreshold != 0 {
		dst.IdleThreshold = src.IdleThreshold
	}
	if src.TimeRounding != 0 {
		dst.TimeRounding = src.TimeRounding
	}
	if src.WorklogInterval != 0 {
		dst.WorklogInterval = src.WorklogInterval
	}
	if src.AutoCreate != nil {
		dst.AutoCreate = src.AutoCreate
	}
	if src.BranchPattern != "" {
		dst.BranchPattern = src.BranchPattern
	}
	if src.LogLanguage != "" {
		dst.LogLanguage = src.LogLanguage
	}
	if src.DebugLog != nil {
		dst.DebugLog = src.DebugLog
	}
	if len(src.IgnorePatterns) > 0 {
		dst.IgnorePatterns = src.IgnorePatterns
	}
}

func (c *Config) normalize() {
	d := Defaults()
	if !c.AutonomyLevel.Valid() {
		c.AutonomyLevel = session.AutonomyC
	}
	c.Accuracy = min(max(c.Accuracy, 1), 10)
	if c.IdleThreshold < 1 {
		c.IdleThreshold = d.IdleThreshold
	}
	if c.TimeRounding < 1 {
		c.TimeRounding = d.TimeRounding
	}
	if c.WorklogInterval < 1 {
		c.WorklogInterval = d.WorklogInterval
	}
}

// MergeCredentials resolves each field from local first, then global.
func MergeCredentials(global, local *Credentials) Credentials {
	var out Credentials
	for _, src := range []*Credentials{global, local} {
		if src == nil {
			continue
		}
		out.BaseURL = pick(src.BaseURL, out.BaseURL)
		out.Email = pick(src.Email, out.Email)
		out.APIToken = pick(src.APIToken, out.APIToken)
		out.AccountID = pick(src.AccountID, out.AccountID)
		out.AnthropicAPIKey = pick(src.AnthropicAPIKey, out.AnthropicAPIKey)
	}
	return out
}

func pick(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// Resolved is everything a command needs from the three files.
type Resolved struct {
	Config        Config
	Credentials   Credentials
	RecentParents []string
	HasProject    bool // a project file exists
}

// Load reads the global, project and local files for root and merges them.
func Load(root string) (Resolved, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Resolved{}, err
	}
	project, err := LoadProject(root)
	if err != nil {
		return Resolved{}, err
	}
	local, err := LoadLocal(root)
	if err != nil {
		return Resolved{}, err
	}
	r := Resolved{
		Config:     Merge(&global.Config, project),
		HasProject: project != nil,
	}
	if local != nil {
		r.Credentials = MergeCredentials(&global.Credentials, &local.Credentials)
		r.RecentParents = local.RecentParents
	} else {
		r.Credentials = MergeCredentials(&global.Credentials, nil)
	}
	return r, nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
