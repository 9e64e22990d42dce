// hash_cmd.go - `fsx hash` subcommand
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

	"github.com/spf13/cobra"

	"github.com/opencoff/fsx/hash"
)

var (
	hashAlgo   string
	hashConcur int
)

var hashCmd = &cobra.Command{
	Use:   "hash FILE [FILE...]",
	Short: "Compute content digests for one or more files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		alg, err := parseAlgorithm(hashAlgo)
		if err != nil {
			return err
		}

		results, err := hash.FilesContext(context.Background(), args, alg, hashConcur, func(r *hash.Result) {
			log.Debug("hashed %s (%d bytes)", r.Path, r.Size)
		})
		for _, r := range results {
			if r == nil {
				continue
			}
			fmt.Printf("%s  %s\n", r.Hex, r.Path)
		}
		return err
	},
}

func init() {
	hashCmd.Flags().StringVar(&hashAlgo, "algorithm", "blake3", "digest algorithm: blake3 or sha256")
	hashCmd.Flags().IntVar(&hashConcur, "concurrency", 0, "worker count (0 = runtime default)")
}

func parseAlgorithm(s string) (hash.Algorithm, error) {
	switch s {
	case "", "blake3":
		return hash.Blake3, nil
	case "sha256":
		return hash.SHA256, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q", s)
	}
}
