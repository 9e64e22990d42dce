// die.go -- print a formatted error to stderr and exit

package main

import (
	"fmt"
	"os"
)

func Die(s string, v ...interface{}) {
	z := fmt.Sprintf("%s: %s", os.Args[0], s)
	m := fmt.Sprintf(z, v...)
	if n := len(m); n == 0 || m[n-1] != '\n' {
		m += "\n"
	}
	fmt.Fprint(os.Stderr, m)
	os.Exit(1)
}
