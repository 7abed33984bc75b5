// Package main provides the entry point for the duckhttp CLI.
package main

import (
	"os"

	"github.com/oraichain/duckdb-http/logger"
)

func main() {
	defer logger.Sync()
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
