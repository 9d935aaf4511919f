// Package watch reports changes to individual files.
//
// Editors often save by writing a temporary file and renaming it over the
// original, which drops a plain inotify watch on the file. Watcher
// therefore watches each file's directory and filters by name, and
// coalesces the bursts of operations a single save produces into one
// Event per file.
package watch

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op is a set of file operations.
type Op uint8

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// Has reports whether op includes o.
func (op Op) Has(o Op) bool {
	return op&o != 0
}

// String returns the operations joined with "|".
func (op Op) String() string {
	var names []string
	for _, n := range []struct {
		op   Op
		name string
	}{{OpCreate, "create"}, {OpWrite, "write"}, {OpRemove, "remove"}, {OpRename, "rename"}, {OpChmod, "chmod"}} {
		if op.Has(n.op) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Event reports that a watched file changed.
type Event struct {
	Path      string
	Op        Op
	Timestamp time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must stay quiet before its event is
// delivered. Zero delivers every operation at once.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.delay = d
		}
	}
}

// WithBufferSize sets the capacity of the event channel.
func WithBufferSize(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.bufSize = n
		}
	}
}

// WithLogger sets the logger for dropped events.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

type pending struct {
	op    Op
	timer *time.Timer
}

// Watcher delivers debounced change events for a set of files.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	files   map[string]bool
	dirs    map[string]int // watched directory -> number of files in it
	pending map[string]*pending

	delay   time.Duration
	bufSize int
	logger  *slog.Logger

	events  chan Event
	errors  chan error
	fire    chan string
	closed  bool
	closeCh chan struct{}
	done    sync.WaitGroup
}

// New starts a watcher with no files.
func New(opts ...Option) (*Watcher, error) {
	w := &Watcher{
		files:   make(map[string]bool),
		dirs:    make(map[string]int),
		pending: make(map[string]*pending),
		delay:   100 * time.Millisecond,
		bufSize: 64,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsw = fsw
	w.events = make(chan Event, w.bufSize)
	w.errors = make(chan error, w.bufSize)
	w.fire = make(chan string, w.bufSize)
	w.closeCh = make(chan struct{})

	w.done.Add(1)
	go w.processLoop()
	return w, nil
}

// Add starts watching a regular file.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if info.IsDir() {
		return ErrIsDirectory
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if w.files[abs] {
		return ErrAlreadyWatching
	}
	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[abs] = true
	return nil
}

// Remove stops watching a file.
func (w *Watcher) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if !w.files[abs] {
		return ErrNotWatching
	}
	delete(w.files, abs)
	if p, ok := w.pending[abs]; ok {
		p.timer.Stop()
		delete(w.pending, abs)
	}
	dir := filepath.Dir(abs)
	if w.dirs[dir]--; w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		return w.fsw.Remove(dir)
	}
	return nil
}

// Files returns the watched files.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	return files
}

// Events returns the event channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and drops pending events.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.done.Wait()
	close(w.events)
	close(w.errors)
	return w.fsw.Close()
}

// processLoop is the only sender on events and errors.
func (w *Watcher) processLoop() {
	defer w.done.Done()
	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case path := <-w.fire:
			w.deliver(path)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Debug("watch error dropped", "error", err)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	op := convertOp(ev.Op)
	if op == 0 {
		return
	}
	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	if !w.files[path] {
		w.mu.Unlock()
		return
	}
	if w.delay == 0 {
		w.mu.Unlock()
		w.send(Event{Path: path, Op: op, Timestamp: time.Now()})
		return
	}
	if p, ok := w.pending[path]; ok {
		p.op |= op
		p.timer.Reset(w.delay)
		w.mu.Unlock()
		return
	}
	w.pending[path] = &pending{
		op: op,
		timer: time.AfterFunc(w.delay, func() {
			select {
			case w.fire <- path:
			case <-w.closeCh:
			}
		}),
	}
	w.mu.Unlock()
}

func (w *Watcher) deliver(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if ok {
		delete(w.pending, path)
	}
	w.mu.Unlock()
	if ok {
		w.send(Event{Path: path, Op: p.op, Timestamp: time.Now()})
	}
}

func (w *Watcher) send(ev Event) {
	select {
	case w.events <- ev:
	default:
		w.logger.Debug("watch event dropped", "path", ev.Path, "op", ev.Op)
	}
}

func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	if fsOp.Has(fsnotify.Chmod) {
		op |= OpChmod
	}
	return op
}
