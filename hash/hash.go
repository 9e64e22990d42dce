// hash.go - content hashing with BLAKE3/SHA-256, mmap'd for large files
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

// Package hash computes content digests for files, reading
// ordinary-sized files through a 1 MiB buffer and switching to
// mmap(2) once a file crosses MmapThreshold.
package hash

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/opencoff/fsx"
	"github.com/opencoff/go-mmap"
	"github.com/zeebo/blake3"
)

// Algorithm selects the digest function used by File/Files.
type Algorithm int

const (
	// Blake3 is the default: fast, parallel-friendly, 256-bit.
	Blake3 Algorithm = iota
	SHA256
)

func (a Algorithm) String() string {
	switch a {
	case Blake3:
		return "blake3"
	case SHA256:
		return "sha256"
	default:
		return "unknown"
	}
}

// New returns a fresh hash.Hash for a, so callers that need partial or
// ranged hashing (e.g. the dedup pipeline's prefix probe) can drive
// Write/Sum directly instead of going through File.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case Blake3:
		return blake3.New(), nil
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unknown algorithm %d", int(a))
	}
}

// Result is the digest of a single file.
type Result struct {
	Path      string
	Algorithm Algorithm
	Size      int64
	Hex       string
}

// chunkSize is the buffered-read chunk size used below MmapThreshold.
const chunkSize = 1 << 20 // 1 MiB

// MmapThreshold is the file size above which File switches from
// chunked reads to mmap(2).
var MmapThreshold int64 = 8 << 20 // 8 MiB

// File computes the digest of the file at path using alg. Files at or
// below MmapThreshold are read in chunkSize chunks; larger files are
// hashed via mmap(2).
func File(path string, alg Algorithm) (*Result, error) {
	return FileContext(context.Background(), path, alg)
}

// FileContext is File with cooperative cancellation via ctx.
func FileContext(ctx context.Context, path string, alg Algorithm) (*Result, error) {
	fi, err := fsx.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &fsx.NotFoundError{Op: "hash", Path: path, Err: err}
		}
		return nil, &fsx.HashError{Op: "stat", Path: path, Err: err}
	}

	h, err := alg.New()
	if err != nil {
		return nil, &fsx.HashError{Op: "new", Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &fsx.HashError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	if fi.Size() > MmapThreshold {
		if _, err := mmap.Reader(f, func(b []byte) error {
			select {
			case <-ctx.Done():
				return &fsx.CancelledError{Op: "hash"}
			default:
			}
			_, err := h.Write(b)
			return err
		}); err != nil {
			return nil, &fsx.HashError{Op: "mmap-read", Path: path, Err: err}
		}
	} else if err := chunkedCopy(ctx, h, f); err != nil {
		return nil, &fsx.HashError{Op: "read", Path: path, Err: err}
	}

	return &Result{
		Path:      path,
		Algorithm: alg,
		Size:      fi.Size(),
		Hex:       hex.EncodeToString(h.Sum(nil)),
	}, nil
}

func chunkedCopy(ctx context.Context, h hash.Hash, r io.Reader) error {
	buf := make([]byte, chunkSize)
	for {
		select {
		case <-ctx.Done():
			return fsx.ErrCancelled
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := h.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Files hashes every path in paths on a pool of its own with the given
// number of workers (<= 0 means runtime.NumCPU()); the process-wide
// fsx.Pool() is not used. It calls cb (if
// non-nil) once per completed file. Results are returned in the same
// order as paths regardless of completion order.
func Files(paths []string, alg Algorithm, concurrency int, cb func(*Result)) ([]*Result, error) {
	return FilesContext(context.Background(), paths, alg, concurrency, cb)
}

// FilesContext is Files with cooperative cancellation via ctx.
func FilesContext(ctx context.Context, paths []string, alg Algorithm, concurrency int, cb func(*Result)) ([]*Result, error) {
	results := make([]*Result, len(paths))

	pool := fsx.NewWorkPool(concurrency, func(_ int, idx int) error {
		select {
		case <-ctx.Done():
			return &fsx.CancelledError{Op: "hash"}
		default:
		}

		r, err := FileContext(ctx, paths[idx], alg)
		if err != nil {
			return err
		}
		results[idx] = r
		if cb != nil {
			cb(r)
		}
		return nil
	})

	for i := range paths {
		pool.Submit(i)
	}
	pool.Close()
	if err := pool.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
