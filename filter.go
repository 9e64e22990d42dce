// filter.go - path/filter engine: normalized paths, glob matching,
// depth/type filtering shared by walk, watch and dedup.
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

package fsx

import (
	"os"
	"path"
	"strings"
)

// EntryType is a bitmask describing the kinds of filesystem entries a
// Filter will admit.
type EntryType uint

const (
	FileType    EntryType = 1 << iota // regular file
	DirType                           // directory
	SymlinkType                       // symbolic link
	DeviceType                        // block/char device
	SpecialType                       // named pipe, socket, etc

	// AnyType is a shortcut for "admit every entry type"
	AnyType = FileType | DirType | SymlinkType | DeviceType | SpecialType
)

// Filter is a pure predicate over (entry metadata, depth). Filters that
// can reject an entry without inspecting its children (ignore patterns,
// max depth) are applied before a directory is queued for descent;
// filters that require the entry's own metadata (type, glob pattern)
// are applied after it has been read.
type Filter struct {
	// Type restricts which kinds of entries are emitted. Zero value
	// means AnyType.
	Type EntryType

	// MaxDepth bounds how deep the walk descends; root is depth 0.
	// <= 0 means unbounded.
	MaxDepth int

	// Glob is a UNIX shell pattern (path.Match syntax: *, ?, [...])
	// matched against the entry's basename, unless the pattern
	// contains a '/' in which case it is matched against the full
	// path relative to the walk root.
	Glob string

	// FollowSymlinks causes the walker to resolve and descend into
	// symlinked directories. Cycles are broken with a visited set
	// keyed by device and inode, so any entry whose inode was already
	// visited (a hard link included) is skipped.
	FollowSymlinks bool

	// Ignore is a list of shell-glob patterns matched against the
	// basename of every entry (files and directories alike); a
	// matching directory is not descended.
	Ignore []string
}

func (f *Filter) entryType() EntryType {
	if f.Type == 0 {
		return AnyType
	}
	return f.Type
}

// ignored reports whether name (a basename) matches any Ignore pattern.
func (f *Filter) ignored(name string) bool {
	return matchAny(f.Ignore, name)
}

// Ignored reports whether name (a basename) matches any of f's Ignore
// patterns. Exported so other packages (such as watch) can reuse the
// same basename-glob matcher without duplicating path.Match plumbing.
func (f *Filter) Ignored(name string) bool {
	return f.ignored(name)
}

// Descend reports whether the directory fi, seen at the given depth,
// should be queued for traversal of its children.
func (f *Filter) Descend(fi *Info, depth int) bool {
	if !fi.IsDir() {
		return false
	}
	if f.ignored(fi.Name()) {
		return false
	}
	if f.MaxDepth > 0 && depth >= f.MaxDepth {
		return false
	}
	return true
}

// Emit reports whether the entry fi (with path relative to the walk
// root given by relPath), seen at the given depth, should be handed to
// the caller.
func (f *Filter) Emit(fi *Info, relPath string, depth int) bool {
	if f.ignored(fi.Name()) {
		return false
	}
	if f.MaxDepth > 0 && depth > f.MaxDepth {
		return false
	}
	if !f.typeMatch(fi) {
		return false
	}
	if len(f.Glob) > 0 && !f.globMatch(relPath, fi.Name()) {
		return false
	}
	return true
}

func (f *Filter) typeMatch(fi *Info) bool {
	t := f.entryType()
	m := fi.Mode()
	switch {
	case m.IsDir():
		return t&DirType != 0
	case m&os.ModeSymlink != 0:
		return t&SymlinkType != 0
	case m&(os.ModeDevice|os.ModeCharDevice) != 0:
		return t&DeviceType != 0
	case m.IsRegular():
		return t&FileType != 0
	default:
		return t&SpecialType != 0
	}
}

func (f *Filter) globMatch(relPath, base string) bool {
	pat := f.Glob
	target := base
	if strings.Contains(pat, "/") {
		target = relPath
	}
	ok, _ := path.Match(pat, target)
	return ok
}

func matchAny(patterns []string, name string) bool {
	for _, pat := range patterns {
		if ok, _ := path.Match(pat, name); ok {
			return true
		}
	}
	return false
}
