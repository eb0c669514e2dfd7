// Package main provides equipctl, a command-line tool for pricing equipment,
// converting wei amounts, verifying the pricing artifact, and preparing
// marketplace transactions.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
