package main

import (
	"os"
	"path/filepath"
	"testing"
)

// getBinaryPath returns the path to the boletim binary for testing
func getBinaryPath(t *testing.T) string {
	binaryName := "boletim"
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath, err := filepath.Abs(filepath.Join("..", "..", "bin", binaryName))
	if err != nil {
		t.Fatalf("failed to resolve binary path: %v", err)
	}
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/boletim ./cmd/boletim'", binaryPath)
	}

	return binaryPath
}
