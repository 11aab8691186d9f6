package main

import (
	"os"

	"github.com/fincept/analytics/cmd/fincept/commands"
)

// main is the entry point for the Fincept analytics CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/fincept [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
