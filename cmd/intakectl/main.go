package main

import (
	"fmt"
	"os"

	"github.com/intake-tracker/backend/internal/cli"
)

// Version info (set during build)
var Version = "dev"

func main() {
	cli.Version = Version
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
