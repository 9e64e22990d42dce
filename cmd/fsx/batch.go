// batch.go - `fsx batch` scripted batch mode
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

// batch mode replays a script of one fsx invocation per line, each
// split with shlex (so quoted paths with spaces work) and parsed
// with opencoff/pflag the same way the teacher's testsuite/main.go
// tool parses its own scripted test commands.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	flag "github.com/opencoff/pflag"
	"github.com/opencoff/shlex"
	"github.com/spf13/cobra"

	"github.com/opencoff/fsx/dedup"
	"github.com/opencoff/fsx/hash"
	"github.com/opencoff/fsx/walk"
	"github.com/opencoff/fsx"
)

var batchCmd = &cobra.Command{
	Use:   "batch SCRIPT",
	Short: "Run a script of walk/hash/dedup commands, one per line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(args[0])
	},
}

func runBatch(script string) error {
	f, err := os.Open(script)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tokens, err := shlex.Split(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(tokens) == 0 {
			continue
		}

		if err := batchDispatch(tokens[0], tokens[1:]); err != nil {
			return fmt.Errorf("line %d: %s: %w", lineNo, tokens[0], err)
		}
	}
	return sc.Err()
}

func batchDispatch(verb string, args []string) error {
	switch verb {
	case "walk":
		return batchWalk(args)
	case "hash":
		return batchHash(args)
	case "dedup":
		return batchDedup(args)
	default:
		return fmt.Errorf("unknown batch command %q", verb)
	}
}

func batchWalk(args []string) error {
	var maxDepth int
	var glob string

	fs := flag.NewFlagSet("walk", flag.ExitOnError)
	fs.IntVarP(&maxDepth, "max-depth", "d", 0, "limit descent to `N` levels")
	fs.StringVarP(&glob, "glob", "g", "", "only emit entries matching `PAT`")
	if err := fs.Parse(args); err != nil {
		return err
	}

	roots := fs.Args()
	if len(roots) == 0 {
		return fmt.Errorf("usage: walk [-d N] [-g PAT] ROOT [ROOT...]")
	}

	filt := fsx.Filter{MaxDepth: maxDepth, Glob: glob}
	entries, err := walk.Collect(context.Background(), roots, filt, walk.Options{}, true)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Println(e.Path)
	}
	return nil
}

func batchHash(args []string) error {
	var algo string

	fs := flag.NewFlagSet("hash", flag.ExitOnError)
	fs.StringVarP(&algo, "algorithm", "a", "blake3", "digest `ALG`: blake3 or sha256")
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths := fs.Args()
	if len(paths) == 0 {
		return fmt.Errorf("usage: hash [-a ALG] FILE [FILE...]")
	}

	alg, err := parseAlgorithm(algo)
	if err != nil {
		return err
	}

	results, err := hash.Files(paths, alg, 0, nil)
	for _, r := range results {
		if r != nil {
			fmt.Printf("%s  %s\n", r.Hex, r.Path)
		}
	}
	return err
}

func batchDedup(args []string) error {
	var minSize int64

	fs := flag.NewFlagSet("dedup", flag.ExitOnError)
	fs.Int64VarP(&minSize, "min-size", "m", 1, "ignore files smaller than `N` bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	roots := fs.Args()
	if len(roots) == 0 {
		return fmt.Errorf("usage: dedup [-m N] ROOT [ROOT...]")
	}

	groups, err := dedup.Find(context.Background(), roots, dedup.Options{MinSize: minSize})
	if err != nil {
		return err
	}
	for _, g := range groups {
		fmt.Printf("%d bytes wasted across %d copies\n", g.Wasted, len(g.Paths))
	}
	return nil
}
