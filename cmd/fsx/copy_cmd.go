// copy_cmd.go - `fsx copy` and `fsx move` subcommands
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

	"github.com/opencoff/go-utils"
	"github.com/spf13/cobra"

	"github.com/opencoff/fsx/xfer"
)

var (
	xferOverwrite bool
	xferConcur    int
	xferProgress  bool
)

var copyCmd = &cobra.Command{
	Use:   "copy SOURCE [SOURCE...] DEST",
	Short: "Copy files or directory trees",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runXfer(xfer.Copy, args)
	},
}

var moveCmd = &cobra.Command{
	Use:   "move SOURCE [SOURCE...] DEST",
	Short: "Move files or directory trees",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runXfer(xfer.Move, args)
	},
}

func init() {
	for _, c := range []*cobra.Command{copyCmd, moveCmd} {
		c.Flags().BoolVar(&xferOverwrite, "overwrite", false, "replace an existing destination entry")
		c.Flags().IntVar(&xferConcur, "concurrency", 0, "worker count (0 = runtime.NumCPU())")
		c.Flags().BoolVar(&xferProgress, "progress", false, "print progress as the transfer proceeds")
	}
}

type xferFunc func(ctx context.Context, sources []string, dest string, opt xfer.Options) ([]string, error)

func runXfer(fn xferFunc, args []string) error {
	sources, dest := args[:len(args)-1], args[len(args)-1]

	opt := xfer.Options{
		Overwrite:   xferOverwrite,
		Concurrency: xferConcur,
	}
	if xferProgress {
		opt.Progress = func(p *xfer.Progress) {
			fmt.Printf("\r%d/%d files, %s/%s, %s", p.FilesDone, p.TotalFiles,
				utils.HumanizeSize(uint64(p.BytesDone)), utils.HumanizeSize(uint64(p.TotalBytes)), p.Current)
		}
	}

	dsts, err := fn(context.Background(), sources, dest, opt)
	if xferProgress {
		fmt.Println()
	}
	log.Info("transfer: %d sources -> %d entries written", len(sources), len(dsts))
	return err
}
