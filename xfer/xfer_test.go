package xfer

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/opencoff/fsx/internal/testutil"
)

func TestCopySingleFile(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	src := filepath.Join(tmp, "src.txt")
	dst := filepath.Join(tmp, "dst.txt")

	assert(testutil.MkFile(src, []byte("hello world")...) == nil, "mkfile")

	dsts, err := Copy(context.Background(), []string{src}, dst, Options{})
	assert(err == nil, "copy: %s", err)
	assert(len(dsts) == 1 && dsts[0] == dst, "copy: unexpected dsts %v", dsts)

	body, err := os.ReadFile(dst)
	assert(err == nil, "readfile: %s", err)
	assert(string(body) == "hello world", "copy: content mismatch: %s", body)
}

func TestCopyRefusesOverwrite(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	src := filepath.Join(tmp, "src.txt")
	dst := filepath.Join(tmp, "dst.txt")

	assert(testutil.MkFile(src) == nil, "mkfile src")
	assert(testutil.MkFile(dst) == nil, "mkfile dst")

	_, err := Copy(context.Background(), []string{src}, dst, Options{})
	assert(err != nil, "copy: expected error for pre-existing destination")
}

func TestCopyOverwrite(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	src := filepath.Join(tmp, "src.txt")
	dst := filepath.Join(tmp, "dst.txt")

	assert(testutil.MkFile(src, []byte("new")...) == nil, "mkfile src")
	assert(testutil.MkFile(dst, []byte("old")...) == nil, "mkfile dst")

	_, err := Copy(context.Background(), []string{src}, dst, Options{Overwrite: true})
	assert(err == nil, "copy: %s", err)

	body, err := os.ReadFile(dst)
	assert(err == nil, "readfile: %s", err)
	assert(string(body) == "new", "copy: content mismatch: %s", body)
}

func TestCopyTree(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	dst := filepath.Join(tmp, "dst")
	testutil.MkTree(t, src)

	_, err := Copy(context.Background(), []string{src}, dst, Options{})
	assert(err == nil, "copy: %s", err)

	for _, rel := range []string{"a/one", "a/two", "b/c/three"} {
		p := filepath.Join(dst, rel)
		_, err := os.Stat(p)
		assert(err == nil, "%s: missing after copy tree", p)
	}
}

func TestCopyIntoExistingDir(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	src1 := filepath.Join(tmp, "one.txt")
	src2 := filepath.Join(tmp, "two.txt")
	destDir := filepath.Join(tmp, "dest")

	assert(testutil.MkFile(src1) == nil, "mkfile")
	assert(testutil.MkFile(src2) == nil, "mkfile")
	assert(os.MkdirAll(destDir, 0700) == nil, "mkdir")

	dsts, err := Copy(context.Background(), []string{src1, src2}, destDir, Options{})
	assert(err == nil, "copy: %s", err)
	assert(len(dsts) == 2, "copy: exp 2 dsts, saw %d", len(dsts))

	for _, nm := range []string{"one.txt", "two.txt"} {
		_, err := os.Stat(filepath.Join(destDir, nm))
		assert(err == nil, "%s: missing in dest dir", nm)
	}
}

func TestMoveSameFS(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	src := filepath.Join(tmp, "src.txt")
	dst := filepath.Join(tmp, "dst.txt")

	assert(testutil.MkFile(src, []byte("move-me")...) == nil, "mkfile")

	_, err := Move(context.Background(), []string{src}, dst, Options{})
	assert(err == nil, "move: %s", err)

	_, err = os.Stat(src)
	assert(os.IsNotExist(err), "move: source still present")

	body, err := os.ReadFile(dst)
	assert(err == nil, "readfile: %s", err)
	assert(string(body) == "move-me", "move: content mismatch: %s", body)
}

func TestCopyProgress(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	dst := filepath.Join(tmp, "dst")
	testutil.MkTree(t, src)

	var calls atomic.Int64
	_, err := Copy(context.Background(), []string{src}, dst, Options{
		Progress: func(p *Progress) { calls.Add(1) },
	})
	assert(err == nil, "copy: %s", err)
	assert(calls.Load() > 0, "progress: callback never invoked")
}
