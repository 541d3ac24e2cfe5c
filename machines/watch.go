package machines

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Change is one edited file in the override dir.
type Change struct {
	Path string
	// Definition is the affected definition name, or "" when a script
	// changed and any definition may use it.
	Definition string
}

// Script reports whether the change touched a lifecycle script.
func (c Change) Script() bool { return c.Definition == "" }

// classify maps a watched path to a Change. Files that are neither
// definitions nor scripts are ignored.
func classify(path string) (Change, bool) {
	switch {
	case isSpecFile(path):
		return Change{Path: path, Definition: DefinitionName(path)}, true
	case isScriptFile(path):
		return Change{Path: path}, true
	default:
		return Change{}, false
	}
}

// debouncer collapses editor save bursts (write, chmod, rename) per path.
type debouncer struct {
	window time.Duration
	last   map[string]time.Time
}

func (d *debouncer) allow(path string, now time.Time) bool {
	if t, ok := d.last[path]; ok && now.Sub(t) < d.window {
		return false
	}
	d.last[path] = now
	return true
}

// Watcher reports edits to a Library's override dir. The frame loop polls
// it with Drain; Changes and Errors are exposed for callers that block.
type Watcher struct {
	fs      *fsnotify.Watcher
	Changes chan Change
	Errors  chan error

	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// Watch starts watching the library's override dir and, if present, its
// scripts subdir.
func (l *Library) Watch() (*Watcher, error) {
	if l.dir == "" {
		return nil, errors.New("machines: no override dir to watch")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dirs := []string{l.dir}
	if info, err := os.Stat(filepath.Join(l.dir, "scripts")); err == nil && info.IsDir() {
		dirs = append(dirs, filepath.Join(l.dir, "scripts"))
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fs:      fsw,
		Changes: make(chan Change, 16),
		Errors:  make(chan error, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.loop(&debouncer{window: watchDebounce, last: map[string]time.Time{}})
	return w, nil
}

// Close stops the watcher and closes its channels.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.fs.Close()
		<-w.stopped
		close(w.Changes)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) loop(d *debouncer) {
	defer close(w.stopped)
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	for {
		select {
		case <-w.stop:
			return
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// keep only the first unread error
			select {
			case w.Errors <- err:
			default:
			}
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&relevant == 0 {
				continue
			}
			change, ok := classify(ev.Name)
			if !ok || !d.allow(ev.Name, time.Now()) {
				continue
			}
			select {
			case w.Changes <- change:
			case <-w.stop:
				return
			}
		}
	}
}

// Drain returns the changes queued so far without blocking.
func (w *Watcher) Drain() []Change {
	var out []Change
	for {
		select {
		case c, ok := <-w.Changes:
			if !ok {
				return out
			}
			out = append(out, c)
		default:
			return out
		}
	}
}

func isSpecFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func isScriptFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".tengo")
}

// DefinitionName returns the definition a spec file path declares, or ""
// for any other file.
func DefinitionName(path string) string {
	if !isSpecFile(path) {
		return ""
	}
	return trimExt(filepath.Base(path))
}
