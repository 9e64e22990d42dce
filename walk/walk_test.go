package walk

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/opencoff/fsx"
	"github.com/opencoff/fsx/internal/testutil"
)

func TestCollectAll(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	testutil.MkTree(t, tmp)

	entries, err := Collect(context.Background(), []string{tmp}, fsx.Filter{Type: fsx.FileType}, Options{}, true)
	assert(err == nil, "collect: %s", err)
	assert(len(entries) == 3, "collect: exp 3 files, saw %d", len(entries))

	for _, e := range entries {
		assert(e.IsFile, "%s: expected file", e.Path)
		assert(!e.IsDir, "%s: unexpected dir", e.Path)
	}
}

func TestCollectMaxDepth(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	testutil.MkTree(t, tmp)

	entries, err := Collect(context.Background(), []string{tmp}, fsx.Filter{Type: fsx.FileType, MaxDepth: 1}, Options{}, true)
	assert(err == nil, "collect: %s", err)

	for _, e := range entries {
		assert(e.Path != filepath.Join(tmp, "b", "c", "three"), "%s: should have been pruned by MaxDepth", e.Path)
	}
}

func TestCollectGlob(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	testutil.MkTree(t, tmp)

	entries, err := Collect(context.Background(), []string{tmp}, fsx.Filter{Type: fsx.FileType, Glob: "one"}, Options{}, true)
	assert(err == nil, "collect: %s", err)
	assert(len(entries) == 1, "collect: exp 1 entry, saw %d", len(entries))
	assert(filepath.Base(entries[0].Path) == "one", "collect: exp 'one', saw %s", entries[0].Path)
}

func TestCollectIgnore(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	testutil.MkTree(t, tmp)

	entries, err := Collect(context.Background(), []string{tmp}, fsx.Filter{Type: fsx.FileType, Ignore: []string{"c"}}, Options{}, true)
	assert(err == nil, "collect: %s", err)
	for _, e := range entries {
		assert(filepath.Base(filepath.Dir(e.Path)) != "c", "%s: should have been pruned by Ignore", e.Path)
	}
}

func TestCollectCancel(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	testutil.MkTree(t, tmp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries, _ := Collect(ctx, []string{tmp}, fsx.Filter{Type: fsx.FileType}, Options{}, true)
	assert(len(entries) <= 3, "cancel: unexpectedly saw %d entries", len(entries))
}
