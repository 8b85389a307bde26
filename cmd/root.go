package cmd

import (
	"github.com/bitrise-io/bitrise-plugins-ai-research/common"
	"github.com/bitrise-io/bitrise-plugins-ai-research/credential"
	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
	"github.com/spf13/cobra"
)

var (
	// Command line flags
	logLevel     string
	settingsPath string
	envFile      string

	// Loaded before every subcommand runs
	settings = common.WithDefaultSettings()
)

var rootCmd = &cobra.Command{
	Use:   "ai-research",
	Short: "AI Research Agent - hosted model predictions and research reports",
	Long: `AI Research Agent calls models hosted on Clarifai.
It can send a single prompt to a model, or run a research analyst agent on a topic
from the terminal or from a small web form.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(logLevel)
		logger.Debugf("Log level set to: %s", logLevel)

		if err := common.LoadDotEnv(envFile); err != nil {
			return err
		}

		settings = common.WithYamlFile(settingsPath)
		logger.Debugf("Using settings: %+v", settings)
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command and handles errors
func Execute() error {
	// Subcommands are added in their respective init() functions
	return rootCmd.Execute()
}

func resolver() credential.Resolver {
	return credential.NewResolver(settings.CredentialEnv)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Set the logging level (debug, info, warn, error, dpanic, panic, fatal)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "config", "",
		"Path to a settings YAML file (defaults to research.bitrise.yml when present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"Load environment variables from this file when it exists")
}
