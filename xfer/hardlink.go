// hardlink.go -- tracking & recreating hardlinks during a copy
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

//go:build unix

package xfer

import (
	"fmt"

	"github.com/opencoff/fsx"
	"github.com/puzpuzpuz/xsync/v3"
)

// We track hardlinked files using the src file's properties. Only the
// source knows how many hardlinks a faithful copy must recreate. The
// first time we encounter a destination whose source has more than 1
// hard link, we track it in 'm'. Subsequent copies of the same source
// inode are recorded as links back to that first destination instead
// of being copied again.
type hardlinker struct {
	// tracks src:inode -> first dst seen for that inode
	m *xsync.MapOf[string, string]

	// new_dst -> orig_dst, populated once a repeat is seen
	links *xsync.MapOf[string, string]
}

func newHardlinker() *hardlinker {
	return &hardlinker{
		m:     xsync.NewMapOf[string, string](),
		links: xsync.NewMapOf[string, string](),
	}
}

func hardlinkKey(fi *fsx.Info) string {
	return fmt.Sprintf("%d:%d:%d", fi.Dev, fi.Rdev, fi.Ino)
}

// track records dst as a copy of src. When src's inode has already
// been copied to another destination, track returns that destination
// and true, meaning dst should be created as a hardlink to it instead
// of being copied again.
func (h *hardlinker) track(src *fsx.Info, dst string) (string, bool) {
	if src.Nlink <= 1 || !src.IsRegular() {
		return "", false
	}

	k := hardlinkKey(src)
	orig, loaded := h.m.LoadOrStore(k, dst)
	if !loaded {
		return "", false
	}

	h.links.Store(dst, orig)
	return orig, true
}

// apply hardlinks every destination queued by track to its original.
func (h *hardlinker) apply(fp func(dst, orig string) error) error {
	var err error
	h.links.Range(func(dst, orig string) bool {
		if e := fp(dst, orig); e != nil {
			err = e
			return false
		}
		return true
	})
	return err
}
