package preview

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// watchSet decides which filesystem events belong to the site inputs.
// Single files are watched through their parent directory so editors that
// replace files on save keep working.
type watchSet struct {
	dirs  []string
	files map[string]bool
}

// newWatcher watches every existing path in paths. Directories are watched
// recursively; missing paths are skipped.
func newWatcher(paths []string) (*fsnotify.Watcher, *watchSet, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, errors.WrapError(err, errors.CategoryServe, "create file watcher").Fatal().Build()
	}
	set := &watchSet{files: map[string]bool{}}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		fi, err := os.Stat(abs)
		if err != nil {
			slog.Debug("watch path missing", logfields.Path(abs))
			continue
		}
		if fi.IsDir() {
			set.dirs = append(set.dirs, abs)
			addDirsRecursive(w, abs)
			continue
		}
		set.files[abs] = true
		if err := w.Add(filepath.Dir(abs)); err != nil {
			slog.Warn("watch add failed", logfields.Path(abs), logfields.Error(err))
		}
	}
	return w, set, nil
}

// relevant reports whether name is inside a watched directory or is a watched file.
func (s *watchSet) relevant(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if s.files[abs] {
		return true
	}
	for _, d := range s.dirs {
		if abs == d || strings.HasPrefix(abs, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// handleEvent returns true when ev should trigger a rebuild. New
// directories are added to the watcher.
func (s *watchSet) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event) bool {
	if shouldIgnore(ev.Name) || !s.relevant(ev.Name) {
		return false
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			addDirsRecursive(w, ev.Name)
		}
	}
	if ev.Op == fsnotify.Chmod {
		return false
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

func addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnore filters hidden files and editor scratch files.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasSuffix(base, ".tmp"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "4913", base == "Thumbs.db":
		return true
	}
	return false
}
