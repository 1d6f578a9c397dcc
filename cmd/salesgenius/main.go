// Package main provides the SalesGenius CLI entrypoint.
package main

import (
	"os"

	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
