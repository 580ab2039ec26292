// Package main is the entry point for the echotrace CLI.
package main

import (
	"os"

	"github.com/tanversoccho/EchoTrace/cmd/echotrace/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
