// Package testutil holds the small set of test helpers shared by the
// walk, hash, xfer, watch and dedup packages, so each doesn't need its
// own copy of the teacher's hand-rolled assertion idiom.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// Assert returns a closure that fails the test (via t.Fatalf) when cond
// is false, reporting the caller's file:line.
func Assert(t *testing.T) func(cond bool, msg string, args ...interface{}) {
	return func(cond bool, msg string, args ...interface{}) {
		if cond {
			return
		}

		_, file, line, ok := runtime.Caller(1)
		if !ok {
			file = "???"
			line = 0
		}

		s := fmt.Sprintf(msg, args...)
		t.Fatalf("\n%s: %d: Assertion failed: %s\n", file, line, s)
	}
}

// MkFile creates fn (and its parent directories) with the given
// contents, defaulting to a small fixed payload when body is empty.
func MkFile(fn string, body ...byte) error {
	bn := filepath.Dir(fn)
	if err := os.MkdirAll(bn, 0700); err != nil {
		return fmt.Errorf("mkdir: %s: %w", bn, err)
	}

	fd, err := os.OpenFile(fn, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("creat: %s: %w", fn, err)
	}

	if len(body) == 0 {
		body = []byte("hello")
	}
	fd.Write(body)
	fd.Sync()
	return fd.Close()
}

// MkTree creates a small nested directory tree under root for walk/dedup
// tests: root/a/one, root/a/two, root/b/c/three.
func MkTree(t *testing.T, root string) {
	t.Helper()
	files := []string{
		filepath.Join(root, "a", "one"),
		filepath.Join(root, "a", "two"),
		filepath.Join(root, "b", "c", "three"),
	}
	for _, f := range files {
		if err := MkFile(f); err != nil {
			t.Fatalf("mktree: %s: %s", f, err)
		}
	}
}
