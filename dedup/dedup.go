// dedup.go - three-stage duplicate file detection
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

// Package dedup finds duplicate files under a set of roots by
// progressively narrowing candidate groups: first by size, then by a
// cheap prefix hash, then by a full-content hash. Each stage only
// pays for I/O on files that survived the previous one.
package dedup

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/opencoff/fsx"
	"github.com/opencoff/fsx/hash"
	"github.com/opencoff/fsx/walk"
)

// Group is a set of files confirmed to share identical content.
type Group struct {
	Paths  []string
	Size   int64
	Hex    string
	Wasted int64 // Size * (len(Paths)-1): bytes reclaimable by deduplicating
}

// Options controls Find.
type Options struct {
	// MinSize excludes files smaller than this from consideration.
	// Zero admits zero-length files too (they are all identical).
	MinSize int64

	// Algorithm is used for the final full-content confirmation.
	// Defaults to hash.Blake3.
	Algorithm hash.Algorithm

	// Concurrency is the walk's degree of parallelism (<= 0 means
	// runtime.NumCPU()). The hashing stages run on fsx.Pool() and
	// are not bounded by it.
	Concurrency int

	// Progress, if non-nil, is called once per stage as
	// (stage, done, total), on the goroutine that called Find,
	// after that stage completes.
	Progress func(stage string, done, total int)
}

const partialProbeSize = 4096

// Find walks roots and returns groups of files with identical
// content, sorted by Wasted desc, ties by Size desc then by the
// lexicographically smallest path in the group.
func Find(ctx context.Context, roots []string, opt Options) ([]Group, error) {
	// walk.Collect returns whatever entries it did admit alongside a
	// non-nil *fsx.WalkError when some per-path error was recorded
	// (e.g. a permission-denied subdirectory); per-path walk failures
	// must not abort the whole dedup run, so walkErr is carried
	// through and returned at the end rather than short-circuiting.
	entries, walkErr := walk.Collect(ctx, roots, fsx.Filter{Type: fsx.FileType}, walk.Options{Concurrency: opt.Concurrency}, false)

	bySize := sizeGroup(entries, opt.MinSize)
	stageTotal := len(bySize)
	report(opt.Progress, stageSizeGrouping, stageTotal, stageTotal)

	byPartial := refine(ctx, bySize, opt, func(path string) (string, error) {
		return probeHash(path, opt.Algorithm, partialProbeSize)
	})
	report(opt.Progress, stagePartialHash, len(byPartial), stageTotal)

	byFull := refine(ctx, byPartial, opt, func(path string) (string, error) {
		r, err := hash.FileContext(ctx, path, opt.Algorithm)
		if err != nil {
			return "", err
		}
		return r.Hex, nil
	})
	report(opt.Progress, stageFullHash, len(byFull), len(byPartial))

	groups := make([]Group, 0, len(byFull))
	for hex, paths := range byFull {
		if len(paths) < 2 {
			continue
		}
		sort.Strings(paths)
		sz := sizeOf(entries, paths[0])
		groups = append(groups, Group{
			Paths:  paths,
			Size:   sz,
			Hex:    hex,
			Wasted: sz * int64(len(paths)-1),
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Wasted != groups[j].Wasted {
			return groups[i].Wasted > groups[j].Wasted
		}
		if groups[i].Size != groups[j].Size {
			return groups[i].Size > groups[j].Size
		}
		return groups[i].Paths[0] < groups[j].Paths[0]
	})
	if ctx.Err() != nil {
		return groups, &fsx.CancelledError{Op: "dedup"}
	}
	return groups, walkErr
}

// Stage names reported to Options.Progress, fixed by contract so a
// host can switch on them.
const (
	stageSizeGrouping = "size_grouping"
	stagePartialHash  = "partial_hash"
	stageFullHash     = "full_hash"
)

func report(cb func(string, int, int), stage string, done, total int) {
	if cb != nil {
		cb(stage, done, total)
	}
}

// sizeGroup buckets files by size, dropping singleton buckets and
// (unless MinSize == 0) zero-length files.
func sizeGroup(entries []*walk.Entry, minSize int64) map[int64][]string {
	buckets := make(map[int64][]string)
	for _, e := range entries {
		if e.Size < minSize {
			continue
		}
		if e.Size == 0 && minSize > 0 {
			continue
		}
		buckets[e.Size] = append(buckets[e.Size], e.Path)
	}
	for sz, paths := range buckets {
		if len(paths) < 2 {
			delete(buckets, sz)
		}
	}
	return buckets
}

// refine re-keys every surviving group of paths by probe(path),
// dropping any resulting sub-group with fewer than 2 members. The
// files of one group are hashed concurrently on fsx.Pool(); groups
// are processed one after another. The returned map is keyed by the
// bare probe digest (never a stage prefix) so a later stage's map can
// be read directly into a Group's Hex field.
func refine[K comparable](ctx context.Context, groups map[K][]string, opt Options, probe func(string) (string, error)) map[string][]string {
	type keyed struct {
		key string
		err error
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string][]string)
	)

	for _, paths := range groups {
		paths := paths
		results := make([]keyed, len(paths))
		for i, p := range paths {
			i, p := i, p
			wg.Add(1)
			fsx.Pool().Go(func() {
				defer wg.Done()
				select {
				case <-ctx.Done():
					results[i] = keyed{err: fsx.ErrCancelled}
					return
				default:
				}
				k, err := probe(p)
				results[i] = keyed{key: k, err: err}
			})
		}
		wg.Wait()

		sub := make(map[string][]string)
		for i, r := range results {
			if r.err != nil {
				continue // a file that fails to hash mid-pipeline drops from its group
			}
			sub[r.key] = append(sub[r.key], paths[i])
		}

		mu.Lock()
		for k, ps := range sub {
			if len(ps) < 2 {
				continue
			}
			out[k] = append(out[k], ps...)
		}
		mu.Unlock()
	}
	return out
}

func probeHash(path string, alg hash.Algorithm, n int64) (string, error) {
	h, err := alg.New()
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.CopyN(h, f, n); err != nil && err != io.EOF {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sizeOf(entries []*walk.Entry, path string) int64 {
	for _, e := range entries {
		if e.Path == path {
			return e.Size
		}
	}
	return 0
}
