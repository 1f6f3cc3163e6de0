package main

import (
	"os"

	"housing-explorer/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
