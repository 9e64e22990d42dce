// coalesce.go - debounce map and remove/create rename pairing
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

package watch

import (
	"fmt"
	"time"

	"github.com/opencoff/fsx"
)

// onCreate checks whether name's inode matches a Remove seen within
// the rename window; if so the pair is reported as a Rename instead
// of a standalone Create.
func (w *Watcher) onCreate(name string, fi *fsx.Info, now time.Time) {
	if fi != nil {
		key := renameKey(fi)
		w.mu.Lock()
		ri, ok := w.removeSeen[key]
		if ok {
			delete(w.removeSeen, key)
		}
		w.mu.Unlock()

		if ok && now.Sub(ri.time) <= w.renameWindow {
			w.cancelPending(ri.path)
			w.cancelPending(name)
			w.q.push(Change{Type: Rename, Path: name, OldPath: ri.path, Time: w.elapsed(now)})
			return
		}
	}
	w.coalesce(name, Create, now)
}

// onRemove records name's inode (when known) so a later Create can
// pair with it as a rename; the Remove is flushed on its own after
// renameWindow if nothing claims it.
func (w *Watcher) onRemove(name string, fi *fsx.Info, now time.Time) {
	if fi == nil {
		w.coalesce(name, Remove, now)
		return
	}

	key := renameKey(fi)
	w.mu.Lock()
	w.removeSeen[key] = removeInfo{path: name, time: now}
	w.mu.Unlock()

	time.AfterFunc(w.renameWindow, func() {
		w.mu.Lock()
		ri, ok := w.removeSeen[key]
		if !ok || ri.path != name {
			w.mu.Unlock()
			return
		}
		delete(w.removeSeen, key)
		w.mu.Unlock()
		w.q.push(Change{Type: Remove, Path: name, Time: w.elapsed(time.Now())})
	})
}

func renameKey(fi *fsx.Info) string {
	return fmt.Sprintf("%d:%d", fi.Dev, fi.Ino)
}

// coalesce applies the (previous, next) transition table to the
// pending change for path and (re)arms its debounce timer.
func (w *Watcher) coalesce(path string, next ChangeType, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pc, ok := w.pending[path]
	if !ok {
		pc = &pendingChange{typ: next, firstSeen: now}
		w.pending[path] = pc
		pc.timer = time.AfterFunc(w.opt.DebounceDelay, func() { w.flush(path) })
		return
	}

	switch {
	case pc.typ == Create && next == Modify:
		// stays Create: a file that hasn't been seen yet doesn't
		// need a separate modify notification.
	case pc.typ == Create && next == Remove:
		// created and removed within the debounce window: nothing
		// to report.
		if pc.timer != nil {
			pc.timer.Stop()
		}
		delete(w.pending, path)
		return
	case pc.typ == Modify && next == Remove:
		pc.typ = Remove
	case pc.typ == Remove && next == Create:
		pc.typ = Create
	default:
		pc.typ = next
	}

	if pc.timer != nil {
		pc.timer.Stop()
	}
	pc.timer = time.AfterFunc(w.opt.DebounceDelay, func() { w.flush(path) })
}

func (w *Watcher) flush(path string) {
	w.mu.Lock()
	pc, ok := w.pending[path]
	if ok {
		delete(w.pending, path)
	}
	w.mu.Unlock()
	if !ok {
		return
	}
	w.q.push(Change{Type: pc.typ, Path: path, Time: w.elapsed(time.Now())})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pc, ok := w.pending[path]; ok {
		if pc.timer != nil {
			pc.timer.Stop()
		}
		delete(w.pending, path)
	}
}
