package main

import (
	"os"
	"testing"
)

// TestMain runs before all tests and loads .env files if available
func TestMain(m *testing.M) {
	loadEnvFiles()
	os.Exit(m.Run())
}
