package main

import (
	"fmt"
	"os"

	"popfitup-backend/internal/cli"
)

func main() {
	if err := cli.NewAPICmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
