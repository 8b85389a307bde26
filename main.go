package main

import (
	"os"

	"github.com/bitrise-io/bitrise-plugins-ai-research/cmd"
	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
)

func main() {
	defer logger.Sync()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
