// Package main provides the matchctl command-line tool.
package main

import (
	"os"

	"github.com/datamatch/datamatch/internal/cli"
)

// Version information is set at compile time via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
