package main

import (
	"os"

	"github.com/runnerr0/visited/internal/cli"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	if err := cli.Run(version); err != nil {
		os.Exit(1)
	}
}
