package session

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// IssueRef is either Attributed(key) or Unattributed. The zero value is
// Unattributed. It encodes to a JSON string or null.
type IssueRef struct {
	key string
}

// Unattributed is the IssueRef carried by work with no known issue.
var Unattributed = IssueRef{}

// Attributed returns a reference to key. An empty key yields Unattributed.
func Attributed(key string) IssueRef {
	return IssueRef{key: key}
}

// Key returns the issue key and whether the reference is attributed.
func (r IssueRef) Key() (string, bool) {
	return r.key, r.key != ""
}

// IsAttributed reports whether r names an issue.
func (r IssueRef) IsAttributed() bool {
	return r.key != ""
}

// Is reports whether r refers to key.
func (r IssueRef) Is(key string) bool {
	return key != "" && r.key == key
}

// String returns the key, or "unattributed".
func (r IssueRef) String() string {
	if r.key == "" {
		return "unattributed"
	}
	return r.key
}

func (r IssueRef) MarshalJSON() ([]byte, error) {
	if r.key == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.key)
}

func (r *IssueRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		r.key = ""
		return nil
	}
	var key string
	if err := json.Unmarshal(data, &key); err != nil {
		return fmt.Errorf("issue key: %w", err)
	}
	r.key = key
	return nil
}
