// main.go - fsx command-line tool
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

// Command fsx exposes the toolkit's walk, hash, copy/move, watch and
// dedup engines as a single CLI, the one sanctioned place that logs,
// parses flags and prints to a terminal on the core packages' behalf.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Die prints a formatted error to stderr and exits, matching the
// teacher's testsuite tools' error-reporting idiom.
func Die(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "fsx: "+format+"\n", args...)
	os.Exit(1)
}
