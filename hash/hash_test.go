package hash

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/opencoff/fsx/internal/testutil"
)

func TestFileKnownValueBlake3(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	fn := filepath.Join(tmp, "hello.txt")
	assert(testutil.MkFile(fn, []byte("hello world")...) == nil, "mkfile")

	r, err := File(fn, Blake3)
	assert(err == nil, "hash: %s", err)
	assert(r.Size == 11, "size: exp 11, saw %d", r.Size)
	assert(r.Hex == "d74981efa70a0c880b8d8c1985d075dbcbf679b99a5f9914e5aaf96b831a9e24",
		"blake3 hex mismatch: %s", r.Hex)
}

func TestFileKnownValueSHA256(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	fn := filepath.Join(tmp, "hello.txt")
	assert(testutil.MkFile(fn, []byte("hello world")...) == nil, "mkfile")

	r, err := File(fn, SHA256)
	assert(err == nil, "hash: %s", err)
	assert(r.Hex == "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		"sha256 hex mismatch: %s", r.Hex)
}

func TestFileMissing(t *testing.T) {
	assert := testutil.Assert(t)

	_, err := File(filepath.Join(t.TempDir(), "nope"), Blake3)
	assert(err != nil, "hash: expected error for missing file")
}

func TestFileAboveMmapThreshold(t *testing.T) {
	assert := testutil.Assert(t)

	old := MmapThreshold
	defer func() { MmapThreshold = old }()

	tmp := t.TempDir()
	fn := filepath.Join(tmp, "big.bin")
	body := make([]byte, 1024)
	for i := range body {
		body[i] = byte(i)
	}
	assert(testutil.MkFile(fn, body...) == nil, "mkfile")

	// 1024 bytes is below the default threshold: chunked reads.
	chunked, err := File(fn, Blake3)
	assert(err == nil, "hash chunked: %s", err)

	// lowering the threshold pushes the same file onto the mmap path.
	MmapThreshold = 16
	mmapped, err := FileContext(context.Background(), fn, Blake3)
	assert(err == nil, "hash mmap: %s", err)

	assert(chunked.Hex == mmapped.Hex, "mmap/chunked mismatch: %s vs %s", chunked.Hex, mmapped.Hex)
}

func TestFilesPreservesOrder(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	var paths []string
	for _, nm := range []string{"a", "b", "c", "d", "e"} {
		fn := filepath.Join(tmp, nm)
		assert(testutil.MkFile(fn, []byte(nm)...) == nil, "mkfile")
		paths = append(paths, fn)
	}

	results, err := Files(paths, Blake3, 3, nil)
	assert(err == nil, "files: %s", err)
	assert(len(results) == len(paths), "files: exp %d results, saw %d", len(paths), len(results))
	for i, r := range results {
		assert(r.Path == paths[i], "files: order mismatch at %d: %s != %s", i, r.Path, paths[i])
	}
}

func TestFilesCallback(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	var paths []string
	for _, nm := range []string{"x", "y"} {
		fn := filepath.Join(tmp, nm)
		assert(testutil.MkFile(fn, []byte(nm)...) == nil, "mkfile")
		paths = append(paths, fn)
	}

	var calls atomic.Int64
	_, err := Files(paths, SHA256, 0, func(r *Result) { calls.Add(1) })
	assert(err == nil, "files: %s", err)
	assert(calls.Load() == int64(len(paths)), "callback: exp %d calls, saw %d", len(paths), calls.Load())
}

func TestFilesContextCancel(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	fn := filepath.Join(tmp, "f")
	assert(testutil.MkFile(fn) == nil, "mkfile")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FilesContext(ctx, []string{fn}, Blake3, 1, nil)
	assert(err != nil, "files: expected cancellation error")
}

func TestUnknownAlgorithm(t *testing.T) {
	assert := testutil.Assert(t)

	tmp := t.TempDir()
	fn := filepath.Join(tmp, "f")
	assert(testutil.MkFile(fn) == nil, "mkfile")

	_, err := File(fn, Algorithm(99))
	assert(err != nil, "hash: expected error for unknown algorithm")
}
