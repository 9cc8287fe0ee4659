// Package main provides the sceneqa command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/sceneqa/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
