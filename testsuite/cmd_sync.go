// cmd_sync.go -- implements the "sync" command

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/opencoff/fsx"
	"github.com/opencoff/fsx/walk"
)

type syncCmd struct {
}

func (t *syncCmd) New() Cmd {
	return &syncCmd{}
}

func (t *syncCmd) Run(env *TestEnv, args []string) error {
	dirs := []string{
		env.Lhs,
		env.Rhs,
	}

	now := env.Start

	// first adjtime every non-dir entry
	filt := fsx.Filter{Type: fsx.AnyType &^ fsx.DirType}
	entries, err := walk.Collect(context.Background(), dirs, filt, walk.Options{Concurrency: 8}, false)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	for _, e := range entries {
		if e.IsSymlink {
			continue
		}
		if err := os.Chtimes(e.Path, now, now); err != nil {
			return fmt.Errorf("adjtime: %w", err)
		}
	}

	// now fixup the dirs themselves
	dfilt := fsx.Filter{Type: fsx.DirType}
	dentries, err := walk.Collect(context.Background(), dirs, dfilt, walk.Options{Concurrency: 8}, false)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	for _, e := range dentries {
		if err := os.Chtimes(e.Path, now, now); err != nil {
			return fmt.Errorf("adjtime: %w", err)
		}
	}

	return nil
}

func (t *syncCmd) Name() string {
	return "sync"
}

var _ Cmd = &syncCmd{}

func init() {
	RegisterCommand(&syncCmd{})
}
