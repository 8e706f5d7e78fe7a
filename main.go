// Package main is the entry point for the switch-agent data plane daemon.
package main

import (
	"fmt"
	"os"

	"icc.tech/switch-agent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
