// Package main is the doctable command.
package main

import (
	"os"

	"github.com/leapstack-labs/doctable/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
