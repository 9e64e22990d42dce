// entry.go - copy a single filesystem entry, reusing the root
// package's reflink-or-mmap clone primitive for the actual bytes and
// metadata.
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

package xfer

import (
	"os"

	"github.com/opencoff/fsx"
)

// copyEntry clones src onto dst, removing any pre-existing dst first
// when overwrite is set. Directories are created (without recursing;
// the caller has already expanded the tree into one job per entry).
func copyEntry(dst, src string, overwrite bool) error {
	if overwrite {
		if _, err := fsx.Lstat(dst); err == nil {
			if err := os.RemoveAll(dst); err != nil {
				return &fsx.CopyError{Op: "overwrite", Src: src, Dst: dst, Err: err}
			}
		}
	}

	if err := fsx.CloneFile(dst, src); err != nil {
		return &fsx.CopyError{Op: "copy", Src: src, Dst: dst, Err: err}
	}
	return nil
}
