// Package main - refdata CLI
// Builds and inspects the company reference file.
//
// Usage:
//
//	go run ./cmd/refdata generate
//	go run ./cmd/refdata sectors
//	go run ./cmd/refdata companies Technology
package main

import (
	"os"

	"github.com/wonny/sectorwatch/cmd/refdata/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
