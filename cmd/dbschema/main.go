// Package main is the dbschema command.
package main

import (
	"os"

	"github.com/leapstack-labs/dbschema/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
