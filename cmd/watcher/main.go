package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/campuswatch/watcher/internal/adapters/driving/cli"
)

func main() {
	// Secrets load from the environment; a local .env is optional.
	_ = godotenv.Load()

	os.Exit(cli.Execute())
}
