package session

import "sort"

// ActivityKind categorises a tool-use observation.
type ActivityKind string

const (
	KindFileEdit  ActivityKind = "file_edit"
	KindFileWrite ActivityKind = "file_write"
	KindBash      ActivityKind = "bash"
	KindAgent     ActivityKind = "agent"
	KindOther     ActivityKind = "other"
)

// Session is the aggregate root persisted between hook invocations.
type Session struct {
	ID string `json:"id"`
	// Revision increases by one on every successful Save. A Save whose
	// Revision does not match the stored one fails with ErrConflict.
	Revision        int64                   `json:"revision"`
	AutonomyLevel   Autonomy                `json:"autonomy_level"`
	Accuracy        int                     `json:"accuracy"`
	CurrentIssue    IssueRef                `json:"current_issue"`
	LastParentKey   string                  `json:"last_parent_key,omitempty"`
	StartTime       int64                   `json:"start_time"`
	LastWorklogTime int64                   `json:"last_worklog_time"`
	ActiveIssues    map[string]*ActiveIssue `json:"active_issues"`
	Buffer          []Activity              `json:"activity_buffer"`
	Chunks          []WorkChunk             `json:"work_chunks"`
	PendingWorklogs []PendingWorklog        `json:"pending_worklogs"`
	ActivePlanning  *Planning               `json:"active_planning,omitempty"`
	ActiveTasks     map[string]*Task        `json:"active_tasks,omitempty"`
	TaskSubjects    map[string]string       `json:"task_subjects,omitempty"`
	ArchivedAt      int64                   `json:"archived_at,omitempty"`
}

// Planning is an open plan-mode or planning-skill span. Issue is the current
// issue when it started.
type Planning struct {
	StartTime int64    `json:"start_time"`
	Issue     IssueRef `json:"issue_key"`
	Subject   string   `json:"subject"`
}

// Task is a host task that has been marked in progress.
type Task struct {
	Subject   string `json:"subject"`
	StartTime int64  `json:"start_time"`
}

// Activity is one tool-use observation. Timestamps are epoch seconds.
type Activity struct {
	Timestamp int64        `json:"timestamp"`
	Tool      string       `json:"tool"`
	Kind      ActivityKind `json:"type"`
	Issue     IssueRef     `json:"issue_key"`
	File      string       `json:"file,omitempty"`
	Command   string       `json:"command,omitempty"`
}

// IdleGap is an interval excluded from a chunk's duration.
type IdleGap struct {
	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time"`
	Seconds   int64 `json:"seconds"`
}

// WorkChunk is a contiguous span of activities sharing one attribution.
type WorkChunk struct {
	ID               string     `json:"id"`
	Issue            IssueRef   `json:"issue_key"`
	StartTime        int64      `json:"start_time"`
	EndTime          int64      `json:"end_time"`
	Activities       []Activity `json:"activities"`
	FilesChanged     []string   `json:"files_changed"`
	IdleGaps         []IdleGap  `json:"idle_gaps"`
	NeedsAttribution bool       `json:"needs_attribution"`
}

// Duration is the chunk's span minus its idle gaps, never negative.
func (c WorkChunk) Duration() int64 {
	d := c.EndTime - c.StartTime
	for _, g := range c.IdleGaps {
		d -= g.Seconds
	}
	if d < 0 {
		return 0
	}
	return d
}

// ActiveIssue tracks time attributed to one issue during the session.
type ActiveIssue struct {
	StartTime    int64  `json:"start_time"`
	TotalSeconds int64  `json:"total_seconds"`
	Paused       bool   `json:"paused"`
	Summary      string `json:"summary,omitempty"`
}

// WorklogStatus is the lifecycle state of a queued worklog.
type WorklogStatus string

const (
	StatusPending      WorklogStatus = "pending"
	StatusApproved     WorklogStatus = "approved"
	StatusUnattributed WorklogStatus = "unattributed"
	StatusPosted       WorklogStatus = "posted"
	StatusFailed       WorklogStatus = "failed"
)

// RawFacts are the observations a worklog summary is derived from.
type RawFacts struct {
	Files         []string `json:"files"`
	Commands      []string `json:"commands"`
	ActivityCount int      `json:"activity_count"`
}

// PendingWorklog is a worklog queued for approval or delivery.
type PendingWorklog struct {
	Issue    IssueRef      `json:"issue_key"`
	Seconds  int64         `json:"seconds"`
	Summary  string        `json:"summary"`
	RawFacts RawFacts      `json:"raw_facts"`
	Status   WorklogStatus `json:"status"`
	Capped   bool          `json:"capped,omitempty"`
}

// New returns an empty session with the given id and start time.
func New(id string, now int64) *Session {
	return &Session{
		ID:              id,
		AutonomyLevel:   AutonomyC,
		Accuracy:        5,
		StartTime:       now,
		LastWorklogTime: now,
		ActiveIssues:    map[string]*ActiveIssue{},
	}
}

// Normalize fills nil collections left by older or hand-edited session files.
func (s *Session) Normalize() {
	if s.ActiveIssues == nil {
		s.ActiveIssues = map[string]*ActiveIssue{}
	}
	for k, v := range s.ActiveIssues {
		if v == nil {
			s.ActiveIssues[k] = &ActiveIssue{}
		}
	}
	for k, v := range s.ActiveTasks {
		if v == nil {
			delete(s.ActiveTasks, k)
		}
	}
	if !s.AutonomyLevel.Valid() {
		s.AutonomyLevel = AutonomyC
	}
	if s.Accuracy < 1 || s.Accuracy > 10 {
		s.Accuracy = 5
	}
}

// IssueKeys returns the active issue keys in sorted order.
func (s *Session) IssueKeys() []string {
	keys := make([]string, 0, len(s.ActiveIssues))
	for k := range s.ActiveIssues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasIssue reports whether key is an active issue.
func (s *Session) HasIssue(key string) bool {
	_, ok := s.ActiveIssues[key]
	return ok
}

// HasUnattributed reports whether any chunk lacks an issue.
func (s *Session) HasUnattributed() bool {
	for _, c := range s.Chunks {
		if !c.Issue.IsAttributed() {
			return true
		}
	}
	return false
}
