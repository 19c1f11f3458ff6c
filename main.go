package main

import (
	"os"

	_ "go.uber.org/automaxprocs"
)

// Entry point for the gatekeeper toll gate controller.
func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
