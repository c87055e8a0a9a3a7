// Package main provides the entry point for the musage CLI tool.
package main

import (
	"fmt"
	"os"

	"musage/cmd/musage/commands"
)

const version = "1.0.0"

func main() {
	err := commands.NewRootCommand(version).Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
