// walk_cmd.go - `fsx walk` subcommand
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

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opencoff/fsx"
	"github.com/opencoff/fsx/walk"
)

var (
	walkMaxDepth int
	walkGlob     string
	walkIgnore   []string
	walkType     string
	walkFollow   bool
	walkConcur   int
)

var walkCmd = &cobra.Command{
	Use:   "walk ROOT [ROOT...]",
	Short: "List filesystem entries under one or more roots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filt := fsx.Filter{
			Type:           parseEntryType(walkType),
			MaxDepth:       walkMaxDepth,
			Glob:           walkGlob,
			FollowSymlinks: walkFollow,
			Ignore:         walkIgnore,
		}
		opt := walk.Options{Concurrency: walkConcur}

		entries, err := walk.Collect(context.Background(), args, filt, opt, true)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Println(e.Path)
		}
		log.Info("walk: %d roots, %d entries", len(args), len(entries))
		return nil
	},
}

func init() {
	walkCmd.Flags().IntVar(&walkMaxDepth, "max-depth", 0, "limit descent depth (0 = unbounded)")
	walkCmd.Flags().StringVar(&walkGlob, "glob", "", "only emit entries matching this shell glob")
	walkCmd.Flags().StringArrayVar(&walkIgnore, "ignore", nil, "basename glob to skip (repeatable)")
	walkCmd.Flags().StringVar(&walkType, "type", "any", "entry types to emit: any,file,dir,symlink,device,special (comma-separated)")
	walkCmd.Flags().BoolVar(&walkFollow, "follow-symlinks", false, "descend into symlinked directories")
	walkCmd.Flags().IntVar(&walkConcur, "concurrency", 0, "worker count (0 = runtime default)")
}

func parseEntryType(s string) fsx.EntryType {
	if s == "" || s == "any" {
		return fsx.AnyType
	}
	var t fsx.EntryType
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case "file":
			t |= fsx.FileType
		case "dir":
			t |= fsx.DirType
		case "symlink":
			t |= fsx.SymlinkType
		case "device":
			t |= fsx.DeviceType
		case "special":
			t |= fsx.SpecialType
		}
	}
	if t == 0 {
		return fsx.AnyType
	}
	return t
}
