// walk.go - concurrent fs-walker
//
// (c) 2022- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

// Package walk does a concurrent file system traversal and returns
// each entry it admits under a caller supplied fsx.Filter. This
// library uses all the available CPUs (as returned by
// runtime.NumCPU()) to maximize concurrency of the file tree
// traversal, unless the caller asks for a smaller degree of
// parallelism.
package walk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/opencoff/fsx"
)

// Entry is a single filesystem object admitted by a walk's Filter.
type Entry struct {
	Path      string
	Depth     int
	IsFile    bool
	IsDir     bool
	IsSymlink bool
	Size      int64

	// Info is the full metadata record this entry was built from.
	Info *fsx.Info
}

// Options controls the degree of parallelism used by a walk; the admit
// predicate itself is entirely described by an fsx.Filter.
type Options struct {
	// Concurrency is the number of goroutines processing directories
	// concurrently. <= 0 means runtime.NumCPU().
	Concurrency int
}

// internal state
type walkState struct {
	Options
	filt fsx.Filter
	ctx  context.Context

	ch    chan work
	out   chan *Entry
	errch chan error

	dirWg sync.WaitGroup
	wg    sync.WaitGroup

	visited sync.Map
}

type work struct {
	path  string
	depth int
}

// Walk traverses roots concurrently and streams admitted entries on
// the returned channel; traversal and read errors are sent on the
// second channel. Both channels are closed once the walk completes.
// The walk stops early, draining both channels closed, if ctx is
// cancelled.
func Walk(ctx context.Context, roots []string, filt fsx.Filter, opt Options) (<-chan *Entry, <-chan error) {
	if opt.Concurrency <= 0 {
		opt.Concurrency = runtime.NumCPU()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d := &walkState{
		Options: opt,
		filt:    filt,
		ctx:     ctx,
		ch:      make(chan work, opt.Concurrency),
		out:     make(chan *Entry, opt.Concurrency),
		errch:   make(chan error, opt.Concurrency),
	}

	d.wg.Add(opt.Concurrency)
	for i := 0; i < opt.Concurrency; i++ {
		go d.worker()
	}

	d.start(roots)

	go func() {
		d.dirWg.Wait()
		close(d.ch)
		d.wg.Wait()
		close(d.out)
		close(d.errch)
	}()

	return d.out, d.errch
}

// Collect runs a walk to completion and returns every admitted entry.
// When sorted is true, entries are returned in lexicographic path
// order; otherwise order reflects traversal concurrency and is not
// stable across runs. If ctx is cancelled, the entries gathered so far
// are returned with a *fsx.CancelledError.
func Collect(ctx context.Context, roots []string, filt fsx.Filter, opt Options, sorted bool) ([]*Entry, error) {
	out, errch := Walk(ctx, roots, filt, opt)

	var entries []*Entry
	var errs []error

	done := false
	for !done {
		select {
		case e, ok := <-out:
			if !ok {
				out = nil
				break
			}
			entries = append(entries, e)
		case err, ok := <-errch:
			if !ok {
				errch = nil
				break
			}
			errs = append(errs, err)
		}
		done = out == nil && errch == nil
	}

	if sorted {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Path < entries[j].Path
		})
	}

	if ctx != nil && ctx.Err() != nil {
		return entries, &fsx.CancelledError{Op: "walk"}
	}

	if len(errs) > 0 {
		var msgs []string
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return entries, &fsx.WalkError{Op: "collect", Path: strings.Join(roots, ","), Err: fmt.Errorf("%s", strings.Join(msgs, "; "))}
	}
	return entries, nil
}

func (d *walkState) start(roots []string) {
	var ws []work
	for _, r := range roots {
		r = strings.TrimSuffix(r, "/")
		if len(r) == 0 {
			r = "/"
		}
		ws = append(ws, work{path: r, depth: 0})
	}
	d.enq(ws)
}

func (d *walkState) worker() {
	defer d.wg.Done()
	for w := range d.ch {
		d.visit(w)
		d.dirWg.Done()
	}
}

// visit stats w.path, emits it if admitted, and (for directories that
// should be descended) reads its children and enqueues them.
func (d *walkState) visit(w work) {
	select {
	case <-d.ctx.Done():
		return
	default:
	}

	fi, err := fsx.Lstat(w.path)
	if err != nil {
		d.error(&fsx.WalkError{Op: "lstat", Path: w.path, Err: err})
		return
	}

	if d.seen(fi) {
		return
	}

	resolved := fi
	isSymlink := fi.Mode()&os.ModeSymlink != 0
	if isSymlink && d.filt.FollowSymlinks {
		target, err := filepath.EvalSymlinks(w.path)
		if err != nil {
			d.error(&fsx.WalkError{Op: "symlink", Path: w.path, Err: err})
			return
		}
		tfi, err := fsx.Stat(target)
		if err != nil {
			d.error(&fsx.WalkError{Op: "symlink-stat", Path: w.path, Err: err})
			return
		}
		if d.seen(tfi) {
			return
		}
		resolved = tfi
	}

	if d.filt.Emit(resolved, w.path, w.depth) {
		d.out <- &Entry{
			Path:      w.path,
			Depth:     w.depth,
			IsFile:    resolved.IsRegular(),
			IsDir:     resolved.IsDir() && !isSymlink,
			IsSymlink: isSymlink,
			Size:      resolved.Size(),
			Info:      resolved,
		}
	}

	if resolved.IsDir() && d.filt.Descend(resolved, w.depth) {
		d.readDir(w.path, w.depth+1)
	}
}

func (d *walkState) readDir(dir string, depth int) {
	fd, err := os.Open(dir)
	if err != nil {
		d.error(&fsx.WalkError{Op: "readdir", Path: dir, Err: err})
		return
	}
	names, err := fd.Readdirnames(-1)
	fd.Close()
	if err != nil {
		d.error(&fsx.WalkError{Op: "readdirnames", Path: dir, Err: err})
		return
	}

	base := dir
	if base == "/" {
		base = ""
	}

	ws := make([]work, 0, len(names))
	for _, nm := range names {
		ws = append(ws, work{path: fmt.Sprintf("%s/%s", base, nm), depth: depth})
	}
	d.enq(ws)
}

func (d *walkState) enq(ws []work) {
	if len(ws) == 0 {
		return
	}
	d.dirWg.Add(len(ws))
	go func(ws []work) {
		for _, w := range ws {
			d.ch <- w
		}
	}(ws)
}

func (d *walkState) seen(fi *fsx.Info) bool {
	if !d.filt.FollowSymlinks {
		return false
	}
	key := fmt.Sprintf("%d:%d:%d", fi.Dev, fi.Rdev, fi.Ino)
	_, loaded := d.visited.LoadOrStore(key, true)
	return loaded
}

func (d *walkState) error(e error) {
	select {
	case d.errch <- e:
	case <-d.ctx.Done():
	}
}
