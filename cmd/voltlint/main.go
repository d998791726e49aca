package main

import (
	"fmt"
	"os"

	"github.com/voltlint/voltlint/internal/nec"
)

func main() {
	// The conductor and derating tables are the foundation of every
	// calculation; refuse to start if they are inconsistent.
	if err := nec.ValidateTables(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: conductor tables: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
