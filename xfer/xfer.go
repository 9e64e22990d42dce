// xfer.go - copy/move engine with progress reporting
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

// Package xfer copies and moves files and directory trees, reporting
// progress as it goes. It clones file attributes (xattr, uid/gid,
// mode, mtime) the same way the rest of this toolkit's metadata
// layer does, and uses copy-on-write/reflink where the underlying
// filesystem supports it, falling back to a plain mmap-based copy
// otherwise.
package xfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/opencoff/fsx"
	"github.com/opencoff/fsx/walk"
)

// Progress describes the state of an in-flight Copy or Move.
type Progress struct {
	TotalFiles int
	FilesDone  int
	TotalBytes int64
	BytesDone  int64
	Current    string
}

// Options controls a Copy or Move.
type Options struct {
	// Overwrite allows an existing destination entry to be replaced.
	// Without it, a pre-existing destination is a *fsx.CopyError.
	Overwrite bool

	// Progress, if non-nil, is called as the transfer proceeds. It
	// may be called concurrently from multiple goroutines and is
	// rate-limited to roughly once per 50ms per file.
	Progress func(*Progress)

	// Concurrency bounds the number of files copied in parallel.
	// <= 0 means runtime.NumCPU().
	Concurrency int
}

const progressInterval = 50 * time.Millisecond

// job describes a single source -> destination entry operation: a
// directory to create, a file to copy, or (when it appears in the
// links list) a hardlink to recreate.
type job struct {
	src, dst string
	fi       *fsx.Info
}

type xferState struct {
	opt   Options
	total atomic.Int64
	bytes atomic.Int64
	done  atomic.Int64
	bdone atomic.Int64

	lastEmit sync.Map // path -> time.Time
}

// Copy copies every entry in sources into dest. When dest already
// exists and is a directory, each source is placed at
// dest/basename(source). When there is exactly one source and dest
// does not exist, dest becomes the copy of that source (file or
// whole directory tree). Returns the list of destination paths
// written.
func Copy(ctx context.Context, sources []string, dest string, opt Options) ([]string, error) {
	if opt.Concurrency <= 0 {
		opt.Concurrency = runtime.NumCPU()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	mapping, err := planCopy(sources, dest)
	if err != nil {
		return nil, err
	}

	dirs, files, links, err := expandJobs(mapping)
	if err != nil {
		return nil, err
	}

	// Directories must exist before any file below them is copied;
	// dirs is already in lexicographic (parent-before-child) order
	// from walk.Collect(sorted=true), so a single sequential pass
	// suffices ahead of the concurrent file copy below.
	for _, d := range dirs {
		if err := copyDir(d.dst, d.src, opt.Overwrite); err != nil {
			return nil, err
		}
	}

	st := &xferState{opt: opt}
	st.total.Store(int64(len(files)))
	for _, j := range files {
		if j.fi != nil {
			st.bytes.Add(j.fi.Size())
		}
	}

	pool := fsx.NewWorkPool(opt.Concurrency, func(_ int, j job) error {
		select {
		case <-ctx.Done():
			return &fsx.CancelledError{Op: "copy"}
		default:
		}
		return st.copyOne(j)
	})

	dsts := make([]string, 0, len(dirs)+len(files)+len(links))
	for _, d := range dirs {
		dsts = append(dsts, d.dst)
	}
	for _, j := range files {
		dsts = append(dsts, j.dst)
		pool.Submit(j)
	}
	pool.Close()
	if err := pool.Wait(); err != nil {
		return dsts, err
	}

	// Hardlinks are only safe to recreate once their original has
	// been copied, so they are applied after the pool drains.
	for _, l := range links {
		if !opt.Overwrite {
			if _, err := fsx.Lstat(l.dst); err == nil {
				return dsts, &fsx.CopyError{Op: "exists", Src: l.src, Dst: l.dst, Err: fmt.Errorf("destination already exists, use overwrite to replace it")}
			}
		} else if _, err := fsx.Lstat(l.dst); err == nil {
			os.Remove(l.dst)
		}
		if err := os.Link(l.src, l.dst); err != nil {
			return dsts, &fsx.CopyError{Op: "hardlink", Src: l.src, Dst: l.dst, Err: err}
		}
		dsts = append(dsts, l.dst)
	}
	return dsts, nil
}

// Move relocates every entry in sources into dest, following the
// same destination-resolution rules as Copy. It tries a plain rename
// first; if the source and destination are on different filesystems
// (EXDEV), it falls back to copying then removing the source, and
// leaves the source untouched if the copy fails.
func Move(ctx context.Context, sources []string, dest string, opt Options) ([]string, error) {
	mapping, err := planCopy(sources, dest)
	if err != nil {
		return nil, err
	}

	dsts := make([]string, 0, len(mapping))
	var toCopy []string
	copyDest := dest

	for src, dst := range mapping {
		if err := os.Rename(src, dst); err == nil {
			dsts = append(dsts, dst)
			continue
		} else if !isCrossDevice(err) {
			return dsts, &fsx.CopyError{Op: "rename", Src: src, Dst: dst, Err: err}
		}
		toCopy = append(toCopy, src)
	}

	if len(toCopy) == 0 {
		return dsts, nil
	}

	// len(mapping) > 1 means dest is a directory; single-source moves
	// keep dest as the literal target path planCopy already resolved.
	if len(mapping) > 1 {
		copyDest = dest
	} else {
		copyDest = mapping[toCopy[0]]
	}

	copied, err := Copy(ctx, toCopy, copyDest, opt)
	if err != nil {
		return append(dsts, copied...), err
	}

	for _, src := range toCopy {
		if err := os.RemoveAll(src); err != nil {
			return append(dsts, copied...), &fsx.CopyError{Op: "remove-src", Src: src, Dst: mapping[src], Err: err}
		}
	}
	return append(dsts, copied...), nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// planCopy resolves each source to its final destination path.
func planCopy(sources []string, dest string) (map[string]string, error) {
	if len(sources) == 0 {
		return nil, &fsx.CopyError{Op: "plan", Src: "", Dst: dest, Err: fmt.Errorf("no sources given")}
	}

	mapping := make(map[string]string, len(sources))
	di, err := fsx.Lstat(dest)
	destIsDir := err == nil && di.IsDir()

	if len(sources) > 1 && !destIsDir {
		return nil, &fsx.CopyError{Op: "plan", Src: sources[0], Dst: dest, Err: fmt.Errorf("destination must be a directory for multiple sources")}
	}

	seen := make(map[string]string)
	for _, src := range sources {
		var dst string
		if destIsDir || len(sources) > 1 {
			dst = filepath.Join(dest, filepath.Base(filepath.Clean(src)))
		} else {
			dst = dest
		}
		if prior, ok := seen[dst]; ok {
			return nil, &fsx.CopyError{Op: "plan", Src: src, Dst: dst, Err: fmt.Errorf("duplicate destination with %s", prior)}
		}
		seen[dst] = src
		mapping[src] = dst
	}
	return mapping, nil
}

// expandJobs walks every (src,dst) pair into a directory-creation list
// (in parent-before-child order), a flat list of regular-file copy
// jobs, and a list of hardlinks: regular files that share a source
// inode with one already queued are recreated as a link to that
// file's destination instead of being copied twice.
func expandJobs(mapping map[string]string) (dirs []job, files []job, links []job, err error) {
	hl := newHardlinker()

	addFile := func(src, dst string, fi *fsx.Info) {
		if orig, isLink := hl.track(fi, dst); isLink {
			links = append(links, job{src: orig, dst: dst, fi: fi})
			return
		}
		files = append(files, job{src: src, dst: dst, fi: fi})
	}

	for src, dst := range mapping {
		fi, serr := fsx.Lstat(src)
		if serr != nil {
			return nil, nil, nil, &fsx.NotFoundError{Op: "stat", Path: src, Err: serr}
		}

		if !fi.IsDir() {
			addFile(src, dst, fi)
			continue
		}

		dirs = append(dirs, job{src: src, dst: dst, fi: fi})

		entries, cerr := walk.Collect(context.Background(), []string{src}, fsxAllFilter(), walk.Options{}, true)
		if cerr != nil {
			return nil, nil, nil, cerr
		}

		for _, e := range entries {
			rel, rerr := filepath.Rel(src, e.Path)
			if rerr != nil {
				return nil, nil, nil, &fsx.CopyError{Op: "relpath", Src: e.Path, Dst: dst, Err: rerr}
			}
			if rel == "." {
				continue // src itself, already queued above
			}
			edst := filepath.Join(dst, rel)
			if e.IsDir {
				dirs = append(dirs, job{src: e.Path, dst: edst, fi: e.Info})
				continue
			}
			addFile(e.Path, edst, e.Info)
		}
	}
	return dirs, files, links, nil
}

func fsxAllFilter() fsx.Filter {
	return fsx.Filter{Type: fsx.AnyType}
}

func copyDir(dst, src string, overwrite bool) error {
	if err := copyEntry(dst, src, overwrite); err != nil {
		return err
	}
	return nil
}

func (st *xferState) copyOne(j job) error {
	if !st.opt.Overwrite {
		if _, err := fsx.Lstat(j.dst); err == nil {
			return &fsx.CopyError{Op: "exists", Src: j.src, Dst: j.dst, Err: fmt.Errorf("destination already exists, use overwrite to replace it")}
		}
	}

	if err := copyEntry(j.dst, j.src, st.opt.Overwrite); err != nil {
		return err
	}

	st.done.Add(1)
	var sz int64
	if j.fi != nil {
		sz = j.fi.Size()
	}
	st.bdone.Add(sz)
	st.emit(j.src)
	return nil
}

func (st *xferState) emit(path string) {
	if st.opt.Progress == nil {
		return
	}

	now := time.Now()
	if v, ok := st.lastEmit.Load(path); ok {
		if now.Sub(v.(time.Time)) < progressInterval {
			return
		}
	}
	st.lastEmit.Store(path, now)

	st.opt.Progress(&Progress{
		TotalFiles: int(st.total.Load()),
		FilesDone:  int(st.done.Load()),
		TotalBytes: st.bytes.Load(),
		BytesDone:  st.bdone.Load(),
		Current:    path,
	})
}
