// watch_cmd.go - `fsx watch` subcommand
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
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencoff/fsx/watch"
)

var (
	watchIgnore   []string
	watchDebounce time.Duration
	watchPoll     time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch ROOT",
	Short: "Print filesystem changes under ROOT until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := watch.New(args[0], watch.Options{
			Ignore:        watchIgnore,
			DebounceDelay: watchDebounce,
			Recursive:     true,
		})
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		log.Info("watching %s", args[0])
		for {
			select {
			case <-sig:
				return nil
			default:
			}

			changes, err := w.Poll(watchPoll)
			if err != nil {
				log.Warning("%s", err)
				continue
			}
			for _, c := range changes {
				if c.Type == watch.Rename {
					fmt.Printf("%s\t%s -> %s\n", c.Type, c.OldPath, c.Path)
				} else {
					fmt.Printf("%s\t%s\n", c.Type, c.Path)
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringArrayVar(&watchIgnore, "ignore", nil, "basename glob to skip (repeatable)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 100*time.Millisecond, "quiet period before a change is reported")
	watchCmd.Flags().DurationVar(&watchPoll, "poll-interval", 1*time.Second, "how long each Poll call waits for activity")
}
