package main

import (
	"os"

	"github.com/nmillrr/sec-clearance-algo/cmd/clearance/commands"
)

// main is the entry point for the clearance CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
