package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fakeyudi/autopilot/internal/redact"
)

// MaxLogSize is the size at which a log file is rotated to <name>.1.
const MaxLogSize = 1 << 20

// RotatingFile appends to a file, moving it aside once it reaches MaxBytes.
// Each Write opens and closes the file, so several short-lived processes
// can share one log.
type RotatingFile struct {
	Path     string
	MaxBytes int64

	mu sync.Mutex
}

// NewRotatingFile returns a RotatingFile with the default size limit.
func NewRotatingFile(path string) *RotatingFile {
	return &RotatingFile{Path: path, MaxBytes: MaxLogSize}
}

func (f *RotatingFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return 0, err
	}
	if st, err := os.Stat(f.Path); err == nil && st.Size()+int64(len(p)) > f.MaxBytes {
		if err := os.Rename(f.Path, f.Path+".1"); err != nil {
			return 0, err
		}
	}
	out, err := os.OpenFile(f.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return 0, err
	}
	n, err := out.Write(p)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}

type redactWriter struct {
	w io.Writer
}

func (r redactWriter) Write(p []byte) (int, error) {
	if _, err := r.w.Write([]byte(redact.String(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// DebugPath is the debug log for a project, overridable with AUTOPILOT_DEBUG_LOG.
func DebugPath(root string) string {
	if p := os.Getenv("AUTOPILOT_DEBUG_LOG"); p != "" {
		return p
	}
	return filepath.Join(root, ".claude", "autopilot-debug.log")
}

// APIPath is the API call log for a project, overridable with AUTOPILOT_API_LOG.
func APIPath(root string) string {
	if p := os.Getenv("AUTOPILOT_API_LOG"); p != "" {
		return p
	}
	return filepath.Join(root, ".claude", "autopilot-api.log")
}

// Open returns the debug logger for root, or a discarding logger when the
// debug log is disabled.
func Open(root string, enabled bool) *Logger {
	if !enabled {
		return Discard()
	}
	return NewLogger(ParseLevel(os.Getenv("LOG_LEVEL"), LevelDebug), NewRotatingFile(DebugPath(root)))
}

// OpenAPI returns the logger that records tracker and enrichment calls.
func OpenAPI(root string, enabled bool) *Logger {
	if !enabled {
		return Discard()
	}
	return NewLogger(LevelInfo, NewRotatingFile(APIPath(root)))
}
