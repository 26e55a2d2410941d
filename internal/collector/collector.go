// Package collector observes the repository: git state for issue detection
// and a file watcher that feeds the activity buffer.
package collector

import "github.com/fakeyudi/autopilot/internal/session"

// Recorder accepts activities observed outside the hook stream.
type Recorder interface {
	Record(a session.Activity) error
}

// StoreRecorder appends activities to the persisted session buffer,
// attributing them to the session's current issue.
type StoreRecorder struct {
	Store session.Store
}

func (r StoreRecorder) Record(a session.Activity) error {
	return session.Update(r.Store, func(s *session.Session) error {
		a.Issue = s.CurrentIssue
		s.Buffer = append(s.Buffer, a)
		return nil
	})
}
