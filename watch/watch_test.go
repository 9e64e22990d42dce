package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencoff/fsx/internal/testutil"
)

func TestWatchCreate(t *testing.T) {
	assert := testutil.Assert(t)

	root := t.TempDir()
	w, err := New(root, Options{DebounceDelay: 20 * time.Millisecond})
	assert(err == nil, "new: %s", err)
	assert(w.Start() == nil, "start")
	defer w.Stop()

	fn := filepath.Join(root, "hello.txt")
	assert(testutil.MkFile(fn, []byte("hi")...) == nil, "mkfile")

	changes, err := waitFor(w, 2*time.Second, func(c Change) bool {
		return c.Path == fn && c.Type == Create
	})
	assert(err == nil, "poll: %s", err)
	assert(len(changes) > 0, "expected a create change for %s", fn)
}

func TestWatchModify(t *testing.T) {
	assert := testutil.Assert(t)

	root := t.TempDir()
	fn := filepath.Join(root, "f.txt")
	assert(testutil.MkFile(fn, []byte("v1")...) == nil, "mkfile")

	w, err := New(root, Options{DebounceDelay: 20 * time.Millisecond})
	assert(err == nil, "new: %s", err)
	assert(w.Start() == nil, "start")
	defer w.Stop()

	assert(os.WriteFile(fn, []byte("v2"), 0644) == nil, "rewrite")

	changes, err := waitFor(w, 2*time.Second, func(c Change) bool {
		return c.Path == fn && (c.Type == Modify || c.Type == Create)
	})
	assert(err == nil, "poll: %s", err)
	assert(len(changes) > 0, "expected a change for %s", fn)
}

func TestWatchRemove(t *testing.T) {
	assert := testutil.Assert(t)

	root := t.TempDir()
	fn := filepath.Join(root, "gone.txt")
	assert(testutil.MkFile(fn) == nil, "mkfile")

	w, err := New(root, Options{DebounceDelay: 20 * time.Millisecond})
	assert(err == nil, "new: %s", err)
	assert(w.Start() == nil, "start")
	defer w.Stop()

	assert(os.Remove(fn) == nil, "remove")

	changes, err := waitFor(w, 2*time.Second, func(c Change) bool {
		return c.Path == fn && c.Type == Remove
	})
	assert(err == nil, "poll: %s", err)
	assert(len(changes) > 0, "expected a remove change for %s", fn)
}

func TestWatchIgnore(t *testing.T) {
	assert := testutil.Assert(t)

	root := t.TempDir()
	w, err := New(root, Options{DebounceDelay: 20 * time.Millisecond, Ignore: []string{"*.tmp"}})
	assert(err == nil, "new: %s", err)
	assert(w.Start() == nil, "start")
	defer w.Stop()

	fn := filepath.Join(root, "ignored.tmp")
	assert(testutil.MkFile(fn) == nil, "mkfile")

	fn2 := filepath.Join(root, "kept.txt")
	assert(testutil.MkFile(fn2) == nil, "mkfile")

	changes, err := waitFor(w, 2*time.Second, func(c Change) bool {
		return c.Path == fn2
	})
	assert(err == nil, "poll: %s", err)
	for _, c := range changes {
		assert(c.Path != fn, "ignored file %s should not produce a change", fn)
	}
}

func TestWatchStopIdempotent(t *testing.T) {
	assert := testutil.Assert(t)

	root := t.TempDir()
	w, err := New(root, Options{})
	assert(err == nil, "new: %s", err)
	assert(w.Start() == nil, "start")
	assert(w.Stop() == nil, "stop 1")
	assert(w.Stop() == nil, "stop 2")
}

func TestWatchStartTwice(t *testing.T) {
	assert := testutil.Assert(t)

	root := t.TempDir()
	w, err := New(root, Options{})
	assert(err == nil, "new: %s", err)
	assert(w.Start() == nil, "start 1")
	defer w.Stop()
	assert(w.Start() != nil, "start 2: expected error")
}

func TestWatchBadRoot(t *testing.T) {
	assert := testutil.Assert(t)

	_, err := New(filepath.Join(t.TempDir(), "nope"), Options{})
	assert(err != nil, "new: expected error for missing root")
}

func waitFor(w *Watcher, total time.Duration, match func(Change) bool) ([]Change, error) {
	deadline := time.Now().Add(total)
	var all []Change
	for time.Now().Before(deadline) {
		changes, err := w.Poll(100 * time.Millisecond)
		if err != nil {
			return all, err
		}
		all = append(all, changes...)
		for _, c := range changes {
			if match(c) {
				return all, nil
			}
		}
	}
	return all, nil
}
