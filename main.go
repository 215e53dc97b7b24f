package main

import (
	"os"

	"github.com/lifeline-ems/lifeline/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
