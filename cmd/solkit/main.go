package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine, the process environment still applies.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
