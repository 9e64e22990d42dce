// cmd_expect.go -- implements the "expect" command

package main

import (
	"context"
	"fmt"
)

type expectCmd struct {
}

func (t *expectCmd) New() Cmd {
	return &expectCmd{}
}

func (t *expectCmd) Name() string {
	return "expect"
}

func (t *expectCmd) Run(env *TestEnv, args []string) error {
	exp := map[string][]string{
		"ld":    {}, // left only dirs
		"lf":    {}, // left only files
		"rd":    {}, // right only dirs
		"rf":    {}, // right only files
		"cd":    {}, // common dirs
		"cf":    {}, // common files
		"diff":  {}, // different files
		"funny": {}, // funny entries
	}

	for i := range args {
		arg := args[i]

		key, vals, err := Split(arg)
		if err != nil {
			return err
		}

		_, ok := exp[key]
		if !ok {
			return fmt.Errorf("expect: unknown keyword %s", key)
		}

		if len(vals) > 0 {
			exp[key] = append(exp[key], vals...)
		}
	}

	ncpu := env.ncpu
	if ncpu <= 0 {
		ncpu = 8
	}

	// now run the difference engine and collect output
	diff, err := diffTrees(context.Background(), env.Lhs, env.Rhs, ncpu)
	if err != nil {
		return err
	}

	env.log.Debug(diff.String())

	for k, v := range exp {
		switch k {
		case "ld":
			err = match(k, v, diff.LeftDirs)
		case "lf":
			err = match(k, v, diff.LeftFiles)
		case "rd":
			err = match(k, v, diff.RightDirs)
		case "rf":
			err = match(k, v, diff.RightFiles)

		case "cd":
			err = match(k, v, diff.CommonDirs)
		case "cf":
			err = match(k, v, diff.CommonFiles)
		case "diff":
			err = match(k, v, diff.Diff)
		case "funny":
			err = match(k, v, diff.Funny)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func match(key string, exp, have []string) error {
	if len(exp) != len(have) {
		return fmt.Errorf("%s: exp %d entries, have %d", key, len(exp), len(have))
	}

	mkmap := func(v []string) map[string]bool {
		m := make(map[string]bool)
		for _, nm := range v {
			m[nm] = true
		}
		return m
	}

	e := mkmap(exp)
	h := mkmap(have)

	// every element in have must be in exp
	for _, nm := range have {
		if _, ok := e[nm]; !ok {
			return fmt.Errorf("%s: missing %s", key, nm)
		}
	}

	// every element in exp must be in have
	for _, nm := range exp {
		if _, ok := h[nm]; !ok {
			return fmt.Errorf("%s exp to see %s", key, nm)
		}
	}
	return nil
}

var _ Cmd = &expectCmd{}

func init() {
	RegisterCommand(&expectCmd{})
}
