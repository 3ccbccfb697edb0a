// Package main provides the entry point for the modcurator CLI.
package main

import (
	"os"

	"github.com/TheVirusNVGM/modcurator/cmd/modcurator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
