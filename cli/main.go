package main

import (
	"os"

	"github.com/vocal-agents/vocal-stack/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
