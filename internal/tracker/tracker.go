// Package tracker talks to the Jira Cloud REST API.
package tracker

import (
	"context"
	"fmt"
)

// Tracker is the capability the engine uses to create issues and log work.
type Tracker interface {
	CreateIssue(ctx context.Context, req IssueRequest) (*Issue, error)
	GetIssue(ctx context.Context, key string) (*Issue, error)
	PostWorklog(ctx context.Context, key string, seconds int64, comment string) error
	ListProjects(ctx context.Context) ([]Project, error)
}

// IssueRequest describes an issue to create. ParentKey is optional.
type IssueRequest struct {
	ProjectKey string
	Summary    string
	Type       string
	ParentKey  string
}

// Issue is the subset of issue fields the tool reads.
type Issue struct {
	Key       string `json:"key"`
	Summary   string `json:"summary"`
	Status    string `json:"status,omitempty"`
	Type      string `json:"type,omitempty"`
	ParentKey string `json:"parent,omitempty"`
	Assignee  string `json:"assignee,omitempty"`
}

// Project is one entry from project search.
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}
