// diff.go -- compare two directory trees by walking and hashing them
// with this module's own walk/hash packages, rather than a dedicated
// comparison engine.

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/opencoff/fsx"
	"github.com/opencoff/fsx/hash"
	"github.com/opencoff/fsx/walk"
)

type treeKind int

const (
	kindFile treeKind = iota
	kindDir
	kindOther
)

type treeEntry struct {
	kind treeKind
	full string
}

// treeDiff is the result of comparing two directory trees entry by
// entry, keyed by path relative to each tree's root.
type treeDiff struct {
	LeftDirs, RightDirs, CommonDirs    []string
	LeftFiles, RightFiles, CommonFiles []string
	Diff  []string // common files whose content differs
	Funny []string // same relative path, different entry kind, or neither file nor dir
}

func scanTree(ctx context.Context, root string, concurrency int) (map[string]treeEntry, error) {
	filt := fsx.Filter{Type: fsx.AnyType}
	entries, err := walk.Collect(ctx, []string{root}, filt, walk.Options{Concurrency: concurrency}, false)
	if err != nil {
		return nil, err
	}

	m := make(map[string]treeEntry, len(entries))
	for _, e := range entries {
		rel, err := filepath.Rel(root, e.Path)
		if err != nil {
			return nil, err
		}
		if rel == "." {
			continue
		}

		k := kindOther
		switch {
		case e.IsDir:
			k = kindDir
		case e.IsFile:
			k = kindFile
		}
		m[rel] = treeEntry{kind: k, full: e.Path}
	}
	return m, nil
}

// diffTrees walks lhs and rhs and classifies every relative path into
// one of the expect DSL's buckets (left/right-only dirs and files,
// common dirs and files, content-differing files, and "funny" entries
// whose kind doesn't match on both sides or that are neither a regular
// file nor a directory on both sides).
func diffTrees(ctx context.Context, lhs, rhs string, concurrency int) (*treeDiff, error) {
	lm, err := scanTree(ctx, lhs, concurrency)
	if err != nil {
		return nil, err
	}
	rm, err := scanTree(ctx, rhs, concurrency)
	if err != nil {
		return nil, err
	}

	d := &treeDiff{}
	for rel, le := range lm {
		re, ok := rm[rel]
		if !ok {
			if le.kind == kindDir {
				d.LeftDirs = append(d.LeftDirs, rel)
			} else {
				d.LeftFiles = append(d.LeftFiles, rel)
			}
			continue
		}

		if le.kind != re.kind {
			d.Funny = append(d.Funny, rel)
			continue
		}

		switch le.kind {
		case kindDir:
			d.CommonDirs = append(d.CommonDirs, rel)
		case kindFile:
			d.CommonFiles = append(d.CommonFiles, rel)
			same, err := sameContent(le.full, re.full)
			if err != nil {
				return nil, err
			}
			if !same {
				d.Diff = append(d.Diff, rel)
			}
		default:
			d.Funny = append(d.Funny, rel)
		}
	}

	for rel, re := range rm {
		if _, ok := lm[rel]; ok {
			continue
		}
		if re.kind == kindDir {
			d.RightDirs = append(d.RightDirs, rel)
		} else {
			d.RightFiles = append(d.RightFiles, rel)
		}
	}

	return d, nil
}

func sameContent(a, b string) (bool, error) {
	ra, err := hash.File(a, hash.Blake3)
	if err != nil {
		return false, err
	}
	rb, err := hash.File(b, hash.Blake3)
	if err != nil {
		return false, err
	}
	return ra.Hex == rb.Hex, nil
}

func (d *treeDiff) String() string {
	return fmt.Sprintf("ld=%d lf=%d rd=%d rf=%d cd=%d cf=%d diff=%d funny=%d",
		len(d.LeftDirs), len(d.LeftFiles), len(d.RightDirs), len(d.RightFiles),
		len(d.CommonDirs), len(d.CommonFiles), len(d.Diff), len(d.Funny))
}
