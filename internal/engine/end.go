package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fakeyudi/autopilot/internal/segment"
	"github.com/fakeyudi/autopilot/internal/session"
)

// Archiver writes an immutable copy of a session. session.Store implements it.
type Archiver interface {
	Archive(s *session.Session) (string, error)
}

// EndSession closes any open planning span, drains the buffer, queues
// worklogs for everything tracked, posts approved ones outside autonomy C
// and archives the session. Ghost issues are dropped only after their
// chunks were built. The live session keeps only what still needs
// attention: pending, failed and unattributed worklogs plus chunks that were
// not consumed. It continues under a new id so the next archive does not
// replace this one.
func (e *Engine) EndSession(ctx context.Context, s *session.Session, archiver Archiver) (Report, error) {
	now := e.now()
	var rep Report
	rep.Queued = e.closePlanning(s)
	rep.NewChunks = len(segment.Drain(s, e.segmentOptions(s)))

	b := e.collect(ctx, s, &rep)
	rep.Pruned = s.PruneGhosts()
	if s.AutonomyLevel != session.AutonomyC {
		e.post(ctx, s, &rep)
	}
	rep.Flushed = true

	s.ArchivedAt = now
	path, err := archiver.Archive(s)
	s.ArchivedAt = 0
	if err != nil {
		return rep, fmt.Errorf("failed to archive session %s: %w", s.ID, err)
	}
	rep.Archive = path
	e.log().Info("archived session", "id", s.ID, "path", path, "queued", rep.Queued, "posted", rep.Posted)

	s.RemoveChunks(b.issues, b.unattributed)
	kept := s.PendingWorklogs[:0]
	for _, pw := range s.PendingWorklogs {
		if pw.Status != session.StatusPosted {
			kept = append(kept, pw)
		}
	}
	s.PendingWorklogs = kept
	for key := range b.issues {
		if ai := s.ActiveIssues[key]; ai != nil {
			ai.StartTime = now
		}
	}
	s.ID = uuid.NewString()
	s.StartTime = now
	s.LastWorklogTime = now
	return rep, nil
}
