// Package main provides the sysabi command, which validates the syscall ABI
// table and generates kernel dispatch code and user stubs from it.
package main

import (
	"os"

	"github.com/leapstack-labs/sysabi/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
