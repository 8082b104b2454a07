package main

import (
	"os"

	"github.com/bz888/scribe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.PrintError("%v", err)
		os.Exit(1)
	}
}
