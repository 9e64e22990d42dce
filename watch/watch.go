// watch.go - filesystem change notification with debouncing and rename
// detection
//
// (c) 2024 Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

// Package watch turns a noisy stream of fsnotify events into a
// debounced, coalesced sequence of Changes: rapid create/write/remove
// bursts on the same path collapse into a single event, and a
// remove+create pair on the same inode within a short window is
// reported as a rename. A Watcher moves through the states
// Idle -> Running -> Stopped exactly once; Stop is idempotent.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/opencoff/fsx"
	"github.com/opencoff/fsx/walk"
)

// ChangeType classifies a coalesced filesystem Change.
type ChangeType int

const (
	Create ChangeType = iota
	Modify
	Remove
	Rename
)

func (c ChangeType) String() string {
	switch c {
	case Create:
		return "create"
	case Modify:
		return "modify"
	case Remove:
		return "remove"
	case Rename:
		return "rename"
	default:
		return "unknown"
	}
}

// Change is a single debounced filesystem event ready for delivery.
// OldPath is set only when Type is Rename. Time is monotonic:
// nanoseconds elapsed since the watcher's Start, not a wall-clock
// timestamp.
type Change struct {
	Type    ChangeType
	Path    string
	OldPath string
	Time    time.Duration
}

// Options controls a Watcher.
type Options struct {
	// Ignore is a list of shell-glob patterns matched against each
	// entry's basename; matching paths (and, for directories, their
	// subtrees) are never watched or reported.
	Ignore []string

	// DebounceDelay is how long a pending change waits for further
	// activity on the same path before it is flushed. <= 0 defaults
	// to 100ms.
	DebounceDelay time.Duration

	// QueueCap bounds the number of undelivered Changes held between
	// Poll calls. <= 0 defaults to 10000. Once full, the oldest
	// queued Change is dropped and the next Poll surfaces a
	// *fsx.WatchError alongside whatever it did return.
	QueueCap int

	// Recursive causes newly discovered (and newly created)
	// subdirectories to be watched too. The zero value (false)
	// watches only root itself; New does not change it.
	Recursive bool
}

type state int32

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

// Watcher monitors a directory tree for changes.
type Watcher struct {
	root string
	opt  Options
	filt fsx.Filter

	start        time.Time
	renameWindow time.Duration

	fsw   *fsnotify.Watcher
	state atomic.Int32

	mu         sync.Mutex
	pending    map[string]*pendingChange
	removeSeen map[string]removeInfo

	pathCache sync.Map // path -> *fsx.Info, primed on create/write, read on remove

	q       *readyQueue
	lastErr atomic.Value // error

	stopCh chan struct{}
	stop   sync.Once
	wg     sync.WaitGroup
}

type pendingChange struct {
	typ       ChangeType
	firstSeen time.Time
	timer     *time.Timer
}

type removeInfo struct {
	path string
	time time.Time
}

// New prepares a Watcher rooted at root. root must exist and be a
// directory; New does not start watching until Start is called.
func New(root string, opt Options) (*Watcher, error) {
	fi, err := fsx.Lstat(root)
	if err != nil {
		return nil, &fsx.WatchError{Op: "new", Path: root, Err: err}
	}
	if !fi.IsDir() {
		return nil, &fsx.WatchError{Op: "new", Path: root, Err: fmt.Errorf("not a directory")}
	}

	if opt.DebounceDelay <= 0 {
		opt.DebounceDelay = 100 * time.Millisecond
	}
	if opt.QueueCap <= 0 {
		opt.QueueCap = 10000
	}

	w := &Watcher{
		root:         root,
		opt:          opt,
		filt:         fsx.Filter{Ignore: opt.Ignore},
		renameWindow: 2 * opt.DebounceDelay,
		pending:      make(map[string]*pendingChange),
		removeSeen:   make(map[string]removeInfo),
		q:            newReadyQueue(opt.QueueCap),
		stopCh:       make(chan struct{}),
	}
	return w, nil
}

// Start begins watching. It is an error to call Start more than once.
func (w *Watcher) Start() error {
	if !w.state.CompareAndSwap(int32(stateIdle), int32(stateRunning)) {
		return &fsx.WatchError{Op: "start", Path: w.root, Err: fmt.Errorf("watcher already started")}
	}
	w.start = time.Now()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.state.Store(int32(stateIdle))
		return &fsx.WatchError{Op: "start", Path: w.root, Err: err}
	}
	w.fsw = fsw

	if err := w.prime(); err != nil {
		fsw.Close()
		w.state.Store(int32(stateIdle))
		return err
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop ends watching. It is safe to call Stop multiple times or
// before Start.
func (w *Watcher) Stop() error {
	w.stop.Do(func() {
		w.state.Store(int32(stateStopped))
		close(w.stopCh)
		if w.fsw != nil {
			w.fsw.Close()
		}
	})
	w.wg.Wait()
	return nil
}

// Poll waits up to timeout for at least one Change and returns
// whatever is available when it returns. A zero-length, nil-error
// result means the timeout elapsed with nothing pending.
func (w *Watcher) Poll(timeout time.Duration) ([]Change, error) {
	if changes, overflowed := w.q.popAll(); len(changes) > 0 {
		return changes, w.queueErr(overflowed)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-w.q.notify:
			changes, overflowed := w.q.popAll()
			if len(changes) == 0 {
				// wakeup left by a push that an earlier Poll already drained
				continue
			}
			return changes, w.queueErr(overflowed)
		case <-timer.C:
			return nil, nil
		case <-w.stopCh:
			changes, overflowed := w.q.popAll()
			if len(changes) > 0 {
				return changes, w.queueErr(overflowed)
			}
			return nil, &fsx.WatchError{Op: "poll", Path: w.root, Err: fmt.Errorf("watcher stopped")}
		}
	}
}

// elapsed converts a wall-clock instant into the monotonic
// nanoseconds-since-Start that Change.Time reports.
func (w *Watcher) elapsed(t time.Time) time.Duration {
	return t.Sub(w.start)
}

func (w *Watcher) queueErr(overflowed bool) error {
	if overflowed {
		return &fsx.WatchError{Op: "poll", Path: w.root, Err: fmt.Errorf("ready queue overflowed, oldest entries dropped")}
	}
	if v := w.lastErr.Load(); v != nil {
		w.lastErr.Store((error)(nil))
		return v.(error)
	}
	return nil
}

// prime walks the tree once, adding every directory to the fsnotify
// watch set and seeding pathCache so later Remove events can recover
// the removed entry's inode for rename pairing.
func (w *Watcher) prime() error {
	entries, err := walk.Collect(context.Background(), []string{w.root}, fsx.Filter{Type: fsx.AnyType, Ignore: w.opt.Ignore}, walk.Options{}, false)
	if err != nil {
		return &fsx.WatchError{Op: "start", Path: w.root, Err: err}
	}

	if err := w.fsw.Add(w.root); err != nil {
		return &fsx.WatchError{Op: "start", Path: w.root, Err: err}
	}

	for _, e := range entries {
		if w.filt.Ignored(filepath.Base(e.Path)) {
			continue
		}
		if e.IsDir {
			if w.opt.Recursive {
				if err := w.fsw.Add(e.Path); err != nil {
					return &fsx.WatchError{Op: "start", Path: e.Path, Err: err}
				}
			}
			continue
		}
		w.pathCache.Store(e.Path, e.Info)
	}
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.lastErr.Store(&fsx.WatchError{Op: "watch", Path: w.root, Err: err})
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	name := ev.Name
	if w.filt.Ignored(filepath.Base(name)) {
		return
	}

	switch {
	case ev.Op&fsnotify.Create != 0:
		fi, err := fsx.Lstat(name)
		if err == nil {
			w.pathCache.Store(name, fi)
			if fi.IsDir() && w.opt.Recursive {
				w.fsw.Add(name)
			}
		}
		w.onCreate(name, fi, time.Now())

	case ev.Op&fsnotify.Write != 0:
		fi, err := fsx.Lstat(name)
		if err == nil {
			w.pathCache.Store(name, fi)
		}
		w.coalesce(name, Modify, time.Now())

	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		v, _ := w.pathCache.Load(name)
		w.pathCache.Delete(name)
		var fi *fsx.Info
		if v != nil {
			fi = v.(*fsx.Info)
		}
		w.onRemove(name, fi, time.Now())
	}
}
