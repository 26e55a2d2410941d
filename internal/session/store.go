package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNoSession is returned by Load when no session file exists on disk.
	ErrNoSession = errors.New("no active session")
	// ErrCorrupt is returned by Load when the session file cannot be parsed.
	ErrCorrupt = errors.New("corrupt session state")
	// ErrConflict is returned by Save when another writer saved first.
	ErrConflict = errors.New("session was modified by another writer")
)

// Store persists a Session. Callers follow an at-most-one-writer contract:
// Load, mutate, Save. Save rejects a session whose Revision is stale.
type Store interface {
	Load() (*Session, error) // ErrNoSession or ErrCorrupt when unusable
	Save(s *Session) error
	Archive(s *Session) (string, error)
	Delete() error
}

// StatePath is the session file for a project root.
func StatePath(root string) string {
	return filepath.Join(root, ".claude", "autopilot-session.json")
}

// ArchiveDir holds one immutable snapshot per ended session.
func ArchiveDir(root string) string {
	return filepath.Join(root, ".claude", "autopilot-sessions")
}

// diskStore is the concrete Store that writes under <root>/.claude.
type diskStore struct {
	path       string
	archiveDir string
}

// NewStore returns a Store backed by <root>/.claude/autopilot-session.json.
func NewStore(root string) (Store, error) {
	path := StatePath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return &diskStore{path: path, archiveDir: ArchiveDir(root)}, nil
}

// Save checks the stored revision, bumps s.Revision and writes atomically.
// An absent or unreadable file counts as revision 0.
func (d *diskStore) Save(s *Session) error {
	if cur := d.storedRevision(); cur != s.Revision {
		return fmt.Errorf("%w: have revision %d, stored %d", ErrConflict, s.Revision, cur)
	}
	s.Revision++
	if err := writeAtomic(d.path, s); err != nil {
		s.Revision--
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	return nil
}

func (d *diskStore) storedRevision() int64 {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return 0
	}
	var head struct {
		Revision int64 `json:"revision"`
	}
	if json.Unmarshal(data, &head) != nil {
		return 0
	}
	return head.Revision
}

// Load reads and unmarshals the session file.
func (d *diskStore) Load() (*Session, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session state: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	s.Normalize()
	return &s, nil
}

// Archive writes an immutable snapshot to <archiveDir>/<id>.json and returns
// its path. An existing archive for the same id is replaced.
func (d *diskStore) Archive(s *Session) (string, error) {
	if err := os.MkdirAll(d.archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to archive session: %w", err)
	}
	path := filepath.Join(d.archiveDir, s.ID+".json")
	if err := writeAtomic(path, s); err != nil {
		return "", fmt.Errorf("failed to archive session: %w", err)
	}
	return path, nil
}

// Delete removes the session file from disk.
func (d *diskStore) Delete() error {
	if err := os.Remove(d.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}

// writeAtomic marshals v and replaces path via a temp file + os.Rename.
func writeAtomic(path string, v any) (err error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	// Write to a temp file in the same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(filepath.Dir(path), "session-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Update loads the session, applies fn and saves it. On ErrConflict it
// reloads and applies fn once more before giving up.
func Update(st Store, fn func(s *Session) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var s *Session
		s, err = st.Load()
		if err != nil {
			return err
		}
		if err = fn(s); err != nil {
			return err
		}
		if err = st.Save(s); !errors.Is(err, ErrConflict) {
			return err
		}
	}
	return err
}
