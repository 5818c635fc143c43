// Package main is the entry point for the pricecalc CLI.
package main

import (
	"os"

	"pricecalc/cmd/cli/cmd"
	"pricecalc/internal/logging"
)

func main() {
	err := cmd.Execute()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}
