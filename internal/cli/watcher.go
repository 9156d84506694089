package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/toyz/scaffold/internal/errors"
	"github.com/toyz/scaffold/internal/utils"
)

// DefaultDebounce groups bursts of file events into one regeneration
const DefaultDebounce = 200 * time.Millisecond

// Watcher re-runs generation when its inputs change
type Watcher struct {
	debounce    time.Duration
	scanner     *DirectoryScanner
	diagnostics *utils.DiagnosticSystem
}

// NewWatcher creates a watcher. A non-positive debounce uses DefaultDebounce.
func NewWatcher(debounce time.Duration, diagnostics *utils.DiagnosticSystem) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if diagnostics == nil {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticSilent)
	}
	return &Watcher{debounce: debounce, scanner: NewDirectoryScanner(), diagnostics: diagnostics}
}

// Watch calls run once, then again after every debounced change to one of
// files or to anything under dirs, until ctx is done. run reports its own
// failures; watching continues regardless.
func (w *Watcher) Watch(ctx context.Context, files, dirs []string, run func(context.Context)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapFileSystemError("watch", "", err)
	}
	defer fw.Close()

	targets := newWatchTargets(files, dirs)
	subscribed := make(map[string]bool)
	subscribe := func(dir string) {
		if subscribed[dir] {
			return
		}
		if err := fw.Add(dir); err != nil {
			w.diagnostics.Warn("cannot watch %s: %v", dir, err)
			return
		}
		subscribed[dir] = true
		w.diagnostics.Debug("watching %s", dir)
	}

	for f := range targets.files {
		subscribe(filepath.Dir(f))
	}
	scanned, err := w.scanner.ScanDirectories(dirs)
	if err != nil {
		return err
	}
	for _, d := range scanned {
		subscribe(d)
	}

	run(ctx)

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && targets.underDir(ev.Name) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					subscribe(ev.Name)
				}
			}
			if ev.Op == fsnotify.Chmod || !targets.matches(ev.Name) {
				continue
			}
			w.diagnostics.Debug("%s: %s", ev.Op, ev.Name)
			fire = time.After(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.diagnostics.Warn("watch error: %v", err)
		case <-fire:
			fire = nil
			w.diagnostics.Info("change detected, regenerating")
			run(ctx)
		}
	}
}

type watchTargets struct {
	files map[string]bool
	dirs  []string
}

func newWatchTargets(files, dirs []string) *watchTargets {
	t := &watchTargets{files: make(map[string]bool)}
	for _, f := range files {
		if abs, err := filepath.Abs(f); err == nil {
			t.files[abs] = true
		}
	}
	for _, d := range dirs {
		if abs, err := filepath.Abs(d); err == nil {
			t.dirs = append(t.dirs, abs)
		}
	}
	return t
}

func (t *watchTargets) underDir(name string) bool {
	for _, d := range t.dirs {
		if name == d || strings.HasPrefix(name, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (t *watchTargets) matches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return t.files[abs] || t.underDir(abs)
}
