//go:build mage

package main

import "fmt"

// Fetch prints the go run command for the CLI's fetch subcommand; it does
// not run the orchestrator itself.
// See cmd/fulltext-engine/fetch.go for the full flag surface.
func Fetch() error {
	fmt.Println("[fetch] use `go run ./cmd/fulltext-engine fetch --doi=...` directly.")
	return nil
}
