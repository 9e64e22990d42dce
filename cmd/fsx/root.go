// root.go - top-level command tree and shared logger
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
	"github.com/opencoff/go-logger"
	"github.com/spf13/cobra"
)

var (
	logFile string
	verbose bool

	log logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "fsx",
	Short:         "Concurrent filesystem toolkit: walk, hash, copy/move, watch, dedup",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		prio := logger.LOG_INFO
		if verbose {
			prio = logger.LOG_DEBUG
		}

		l, err := logger.NewLogger(logFile, prio, "fsx", logger.Ldate|logger.Ltime|logger.Lmicroseconds)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "STDOUT", "write log output to `FILE`")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	rootCmd.AddCommand(walkCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(dedupCmd)
	rootCmd.AddCommand(batchCmd)
}
