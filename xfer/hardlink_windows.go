// hardlink_windows.go -- hardlink tracking stub for windows
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

//go:build windows

package xfer

import (
	"github.com/opencoff/fsx"
)

// We don't recreate hardlinks on windows; every entry is copied in full.
type hardlinker struct{}

func newHardlinker() *hardlinker {
	return &hardlinker{}
}

func (h *hardlinker) track(src *fsx.Info, dst string) (string, bool) {
	return "", false
}

func (h *hardlinker) apply(fp func(dst, orig string) error) error {
	return nil
}
