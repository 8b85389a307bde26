package common

import (
	"errors"
	"io/fs"

	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from the given .env files without overriding
// values already present in the environment. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, path := range paths {
		err := godotenv.Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debugf("No env file at %s", path)
			continue
		}
		if err != nil {
			return err
		}
		logger.Debugf("Loaded environment from %s", path)
	}
	return nil
}
