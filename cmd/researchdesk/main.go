package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/vijay-prabhu/researchdesk/internal/cli"
)

// Version information (set by build script)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// API keys may live in a local .env file; a missing file is fine
	_ = godotenv.Load()

	cli.SetVersionInfo(Version, Commit, BuildTime)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
