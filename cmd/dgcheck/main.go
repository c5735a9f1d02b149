// Package main provides the dgcheck CLI.
package main

import (
	"os"

	"github.com/compilertools/dgcheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
