// dedup_cmd.go - `fsx dedup` subcommand
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

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/opencoff/fsx/dedup"
)

var (
	dedupMinSize int64
	dedupAlgo    string
	dedupConcur  int
)

var dedupCmd = &cobra.Command{
	Use:   "dedup ROOT [ROOT...]",
	Short: "Find duplicate files under one or more roots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		alg, err := parseAlgorithm(dedupAlgo)
		if err != nil {
			return err
		}

		groups, err := dedup.Find(context.Background(), args, dedup.Options{
			MinSize:     dedupMinSize,
			Algorithm:   alg,
			Concurrency: dedupConcur,
			Progress: func(stage string, done, total int) {
				log.Debug("dedup stage %s: %d/%d groups", stage, done, total)
			},
		})
		if err != nil {
			return err
		}

		var wasted uint64
		for _, g := range groups {
			fmt.Printf("%s wasted, %d copies, %s each:\n", humanize.IBytes(uint64(g.Wasted)), len(g.Paths), humanize.IBytes(uint64(g.Size)))
			for _, p := range g.Paths {
				fmt.Printf("  %s\n", p)
			}
			wasted += uint64(g.Wasted)
		}
		fmt.Printf("\n%d duplicate groups, %s reclaimable\n", len(groups), humanize.IBytes(wasted))
		log.Info("dedup: %d groups, %s reclaimable", len(groups), humanize.IBytes(wasted))
		return nil
	},
}

func init() {
	dedupCmd.Flags().Int64Var(&dedupMinSize, "min-size", 1, "ignore files smaller than this many bytes")
	dedupCmd.Flags().StringVar(&dedupAlgo, "algorithm", "blake3", "digest algorithm: blake3 or sha256")
	dedupCmd.Flags().IntVar(&dedupConcur, "concurrency", 0, "worker count (0 = runtime default)")
}
