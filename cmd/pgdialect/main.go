package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/pgdialect/pgdialect/cmd"
)

func main() {
	// Load .env if present (silently ignore errors).
	_ = godotenv.Load()

	os.Exit(cmd.Execute())
}
