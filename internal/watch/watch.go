// ============================================================================
// shcst - Lossless Shell CST Toolkit
// ============================================================================
//
// Package:     watch
// Description: Re-checks shell scripts when they change on disk
// Author:      msto63
// Created:     2026-10-09
// License:     MIT
// ============================================================================

package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	mdwlog "github.com/msto63/shcst/foundation/core/log"
	"github.com/msto63/shcst/internal/check"
)

// Op is the kind of change that triggered an event
type Op string

const (
	OpInitial Op = "initial"
	OpWrite   Op = "write"
	OpCreate  Op = "create"
	OpRemove  Op = "remove"
)

// Event reports a re-check of one file
type Event struct {
	Path string
	Op   Op
	Time time.Time
	// Outcome is nil for removed files
	Outcome *check.Outcome
}

// Handler receives events from a single goroutine
type Handler func(Event)

// Options configures a Watcher
type Options struct {
	Check     check.Options
	Debounce  time.Duration
	Recursive bool
	// Initial checks every matching file once before waiting for changes
	Initial bool
	Logger  *mdwlog.Logger
}

type pending struct {
	op    Op
	timer *time.Timer
}

// Watcher watches files and directories and re-checks changed scripts
type Watcher struct {
	fsw     *fsnotify.Watcher
	opts    Options
	handler Handler
	logger  *mdwlog.Logger

	// files named explicitly; directories are filtered by extension
	files map[string]bool
	dirs  map[string]bool

	mu      sync.Mutex
	pending map[string]*pending

	ready    chan string
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher for paths. Run starts delivering events.
func New(paths []string, opts Options, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, watchError(err, "failed to create watcher", "")
	}

	logger := opts.Logger
	if logger == nil {
		logger = mdwlog.Discard()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 200 * time.Millisecond
	}

	w := &Watcher{
		fsw:     fsw,
		opts:    opts,
		handler: handler,
		logger:  logger,
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		pending: make(map[string]*pending),
		ready:   make(chan string),
		done:    make(chan struct{}),
	}

	for _, p := range paths {
		if err := w.add(p); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func watchError(err error, msg, path string) *mdwerror.Error {
	e := mdwerror.Wrap(err, msg).
		WithCode(mdwerror.CodeWatchError).
		WithOperation("watch.New")
	if path != "" {
		e = e.WithDetail("path", path)
	}
	return e
}

func (w *Watcher) add(path string) error {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return watchError(err, "cannot watch path", path)
	}
	if !info.IsDir() {
		w.files[path] = true
		return w.addDir(filepath.Dir(path), false)
	}
	if !w.opts.Recursive {
		return w.addDir(path, true)
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.addDir(p, true)
	})
}

// addDir registers a directory with fsnotify. scripts marks directories
// whose matching files are all tracked.
func (w *Watcher) addDir(dir string, scripts bool) error {
	if scripts {
		w.dirs[dir] = true
	}
	if err := w.fsw.Add(dir); err != nil {
		return watchError(err, "failed to watch directory", dir)
	}
	return nil
}

func (w *Watcher) tracked(path string) bool {
	if w.files[path] {
		return true
	}
	return w.dirs[filepath.Dir(path)] && check.HasExtension(path, w.opts.Check.Extensions)
}

// Files returns the tracked files currently on disk
func (w *Watcher) Files() []string {
	var out []string
	for f := range w.files {
		if _, err := os.Stat(f); err == nil {
			out = append(out, f)
		}
	}
	for d := range w.dirs {
		entries, err := os.ReadDir(d)
		if err != nil {
			continue
		}
		for _, e := range entries {
			p := filepath.Join(d, e.Name())
			if !e.IsDir() && !w.files[p] && check.HasExtension(p, w.opts.Check.Extensions) {
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Run delivers events until ctx is done or Close is called
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	if w.opts.Initial {
		for _, p := range w.Files() {
			w.emit(ctx, p, OpInitial)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnWithErr("Watcher error", err)

		case path := <-w.ready:
			w.mu.Lock()
			p := w.pending[path]
			delete(w.pending, path)
			w.mu.Unlock()
			if p != nil {
				w.emit(ctx, path, p.op)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	if ev.Has(fsnotify.Create) && w.opts.Recursive && w.dirs[filepath.Dir(path)] {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.add(path); err != nil {
				w.logger.WarnWithErr("Cannot watch new directory", err, mdwlog.Fields{"path": path})
			}
			return
		}
	}
	if !w.tracked(path) {
		return
	}

	var op Op
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		op = OpRemove
	case ev.Has(fsnotify.Create):
		op = OpCreate
	case ev.Has(fsnotify.Write):
		op = OpWrite
	default:
		return
	}
	w.schedule(path, op)
}

// schedule restarts the debounce timer of path
func (w *Watcher) schedule(path string, op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		if p.op == OpCreate && op == OpWrite {
			op = OpCreate
		}
	}
	w.pending[path] = &pending{
		op: op,
		timer: time.AfterFunc(w.opts.Debounce, func() {
			select {
			case w.ready <- path:
			case <-w.done:
			}
		}),
	}
}

func (w *Watcher) emit(ctx context.Context, path string, op Op) {
	ev := Event{Path: path, Op: op, Time: time.Now()}
	if op != OpRemove {
		if _, err := os.Stat(path); err != nil {
			ev.Op = OpRemove
		} else {
			ev.Outcome = check.File(ctx, path, w.opts.Check)
		}
	}
	w.logger.Debug("File event", mdwlog.Fields{"path": path, "op": string(ev.Op)})
	if w.handler != nil {
		w.handler(ev)
	}
}

// Close stops the watcher and pending timers
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		for _, p := range w.pending {
			p.timer.Stop()
		}
		w.pending = make(map[string]*pending)
		w.mu.Unlock()
		err = w.fsw.Close()
	})
	return err
}
