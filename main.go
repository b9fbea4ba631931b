package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"solpulse-swap/cmd"
)

func main() {
	// .env is optional; plain environment variables are enough.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
