package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/keshikomi-dev/keshikomi/cmd/keshikomi/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Optional environment file; absence is fine.
	godotenv.Load()

	cmd.SetVersionInfo(version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.NewCLIErrorHandler().HandleError(err))
	}
}
