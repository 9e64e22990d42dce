// cmd_clone.go -- implements the "clone" command to clone dir trees

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencoff/fsx/xfer"
)

type cloneCmd struct {
}

func (t *cloneCmd) Reset() {
}

// clone - takes no options and recreates every entry under lhs into
// rhs, overwriting whatever is already there. Each top-level lhs
// entry is copied individually so the tree lands *inside* rhs rather
// than nested under a new "lhs" subdirectory.
func (t *cloneCmd) Run(env *TestEnv, args []string) error {
	des, err := os.ReadDir(env.Lhs)
	if err != nil {
		return fmt.Errorf("clone: %w", err)
	}

	sources := make([]string, 0, len(des))
	for _, d := range des {
		sources = append(sources, filepath.Join(env.Lhs, d.Name()))
	}
	if len(sources) == 0 {
		return nil
	}

	opt := xfer.Options{
		Overwrite:   true,
		Concurrency: 8,
	}

	_, err = xfer.Copy(context.Background(), sources, env.Rhs, opt)
	return err
}

func (t *cloneCmd) Name() string {
	return "clone"
}

var _ Cmd = &cloneCmd{}

func init() {
	RegisterCommand(&cloneCmd{})
}
