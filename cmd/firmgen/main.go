// Package main provides the entry point for the firmgen CLI.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
