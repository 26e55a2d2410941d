package collector

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/autopilot/internal/logging"
	"github.com/fakeyudi/autopilot/internal/session"
)

// skipDirs are never watched.
var skipDirs = map[string]bool{
	".git":         true,
	".claude":      true,
	"node_modules": true,
	"vendor":       true,
}

// FileWatcher records file writes under Root as file_write activities.
type FileWatcher struct {
	Root           string
	IgnorePatterns []string
	Recorder       Recorder
	Log            *logging.Logger
	Now            func() time.Time
}

// Watch starts a recursive fsnotify watcher on root and records Write/Create
// events until ctx is cancelled. This is called from `autopilot watch`.
func Watch(ctx context.Context, root string, rec Recorder, ignorePatterns []string, log *logging.Logger) error {
	fw := &FileWatcher{Root: root, IgnorePatterns: ignorePatterns, Recorder: rec, Log: log}
	return fw.Run(ctx, nil)
}

// Run watches until ctx is cancelled. ready, if non-nil, is closed once all
// directories are being watched.
func (fw *FileWatcher) Run(ctx context.Context, ready chan<- struct{}) error {
	if fw.Now == nil {
		fw.Now = time.Now
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := fw.addTree(watcher, fw.Root); err != nil {
		return err
	}
	patterns, _ := fw.loadIgnorePatterns()
	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				// A new directory: watch it too, but do not record it.
				if event.Has(fsnotify.Create) {
					_ = fw.addTree(watcher, event.Name)
				}
				continue
			}
			if fw.isIgnored(event.Name, patterns) {
				continue
			}
			// A failed save drops this write; the watcher keeps going.
			err := fw.Recorder.Record(session.Activity{
				Timestamp: fw.Now().Unix(),
				Tool:      "watch",
				Kind:      session.KindFileWrite,
				File:      event.Name,
			})
			if err != nil {
				fw.Log.Warn("failed to record file write", "file", event.Name, "err", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fw.Log.Warn("watcher error", "err", err)
		}
	}
}

// addTree walks dir and adds a watch for every directory not skipped.
func (fw *FileWatcher) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !d.IsDir() {
			return nil
		}
		if path != fw.Root && skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// isIgnored reports whether path matches any of the given glob patterns or
// lies under a skipped directory.
func (fw *FileWatcher) isIgnored(path string, patterns []string) bool {
	// Normalise to a relative path for matching when possible.
	rel := path
	if fw.Root != "" {
		if r, err := filepath.Rel(fw.Root, path); err == nil {
			rel = r
		}
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if skipDirs[part] {
			return true
		}
	}
	base := filepath.Base(path)

	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(pattern, "/")
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

// loadIgnorePatterns merges the configured patterns with those from
// .gitignore in the root.
func (fw *FileWatcher) loadIgnorePatterns() ([]string, error) {
	patterns := make([]string, len(fw.IgnorePatterns))
	copy(patterns, fw.IgnorePatterns)

	extra, err := readPatternFile(filepath.Join(fw.Root, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return patterns, nil
		}
		return patterns, err
	}
	return append(patterns, extra...), nil
}

// readPatternFile reads a gitignore-style file and returns non-empty, non-comment lines.
func readPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}
