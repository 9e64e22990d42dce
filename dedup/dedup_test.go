package dedup

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/opencoff/fsx/internal/testutil"
)

func TestFindBasicDuplicates(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	body := []byte("duplicate content, long enough to matter")

	paths := []string{
		filepath.Join(tmp, "a.txt"),
		filepath.Join(tmp, "sub", "b.txt"),
		filepath.Join(tmp, "c.txt"),
	}
	assert(testutil.MkFile(paths[0], body...) == nil, "mkfile")
	assert(testutil.MkFile(paths[1], body...) == nil, "mkfile")
	assert(testutil.MkFile(paths[2], append(body, '!')...) == nil, "mkfile")

	groups, err := Find(context.Background(), []string{tmp}, Options{})
	assert(err == nil, "find: %s", err)
	assert(len(groups) == 1, "find: exp 1 group, saw %d", len(groups))
	assert(len(groups[0].Paths) == 2, "find: exp 2 paths in group, saw %d", len(groups[0].Paths))
	assert(groups[0].Wasted == groups[0].Size, "wasted: exp %d, saw %d", groups[0].Size, groups[0].Wasted)
}

func TestFindNoDuplicates(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	assert(testutil.MkFile(filepath.Join(tmp, "one"), []byte("one")...) == nil, "mkfile")
	assert(testutil.MkFile(filepath.Join(tmp, "two"), []byte("two-different")...) == nil, "mkfile")

	groups, err := Find(context.Background(), []string{tmp}, Options{})
	assert(err == nil, "find: %s", err)
	assert(len(groups) == 0, "find: exp 0 groups, saw %d", len(groups))
}

func TestFindMinSize(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	body := []byte("x")
	assert(testutil.MkFile(filepath.Join(tmp, "a"), body...) == nil, "mkfile")
	assert(testutil.MkFile(filepath.Join(tmp, "b"), body...) == nil, "mkfile")

	groups, err := Find(context.Background(), []string{tmp}, Options{MinSize: 100})
	assert(err == nil, "find: %s", err)
	assert(len(groups) == 0, "find: exp 0 groups above MinSize, saw %d", len(groups))
}

func TestFindProgressCallback(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	body := []byte("identical-body-for-progress-test")
	assert(testutil.MkFile(filepath.Join(tmp, "a"), body...) == nil, "mkfile")
	assert(testutil.MkFile(filepath.Join(tmp, "b"), body...) == nil, "mkfile")

	var stages []string
	_, err := Find(context.Background(), []string{tmp}, Options{
		Progress: func(stage string, done, total int) { stages = append(stages, stage) },
	})
	assert(err == nil, "find: %s", err)
	assert(len(stages) >= 3, "progress: exp at least 3 stage callbacks, saw %d", len(stages))
}

func TestFindSortedByWasted(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	small := []byte("small-dup")
	big := make([]byte, 4096+10)
	for i := range big {
		big[i] = byte(i)
	}

	assert(testutil.MkFile(filepath.Join(tmp, "s1"), small...) == nil, "mkfile")
	assert(testutil.MkFile(filepath.Join(tmp, "s2"), small...) == nil, "mkfile")
	assert(testutil.MkFile(filepath.Join(tmp, "b1"), big...) == nil, "mkfile")
	assert(testutil.MkFile(filepath.Join(tmp, "b2"), big...) == nil, "mkfile")

	groups, err := Find(context.Background(), []string{tmp}, Options{})
	assert(err == nil, "find: %s", err)
	assert(len(groups) == 2, "find: exp 2 groups, saw %d", len(groups))
	assert(groups[0].Size > groups[1].Size, "sort: exp larger group first")
}
