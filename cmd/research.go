package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bitrise-io/bitrise-plugins-ai-research/common"
	"github.com/bitrise-io/bitrise-plugins-ai-research/credential"
	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
	"github.com/bitrise-io/bitrise-plugins-ai-research/render"
	"github.com/bitrise-io/bitrise-plugins-ai-research/research"
	"github.com/bitrise-io/bitrise-plugins-ai-research/web"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

// newGenerator is swapped in tests
var newGenerator = func() web.Generator { return research.NewGenerator() }

// researchInput is everything one research run needs, before the credential is resolved
type researchInput struct {
	Topic  string
	UseEnv bool
	PAT    string
	Config research.Config
}

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Run the research analyst agent on a topic",
	Long: `Ask the Senior Research Analyst agent for a bullet point report on a topic.
Without --interactive every option comes from flags and the settings file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := researchInputFromFlags(cmd, args)

		interactive, _ := cmd.Flags().GetBool("interactive")
		if interactive {
			if err := promptResearchInput(&in); err != nil {
				return err
			}
		}

		_, apiKey, err := resolver().Resolve(in.UseEnv, in.PAT)
		if err != nil {
			return errors.New(credentialHint(err))
		}

		if strings.TrimSpace(in.Topic) == "" {
			logger.Warn("Research skipped, the topic is empty")
			fmt.Fprintln(cmd.ErrOrStderr(), "Please enter a research topic.")
			return nil
		}

		cfg := in.Config
		cfg.APIKey = apiKey
		cfg = cfg.Normalize()
		logger.Debugf("Research config: model=%s temperature=%.2f max_tokens=%d credential=%s",
			cfg.Model, cfg.Temperature, cfg.MaxTokens, credential.Mask(apiKey))

		plain, _ := cmd.Flags().GetBool("plain")
		gen := newGenerator()

		var report string
		run := func() {
			report, err = gen.Generate(cmd.Context(), cfg, in.Topic)
		}
		if plain {
			run()
		} else if spinErr := spinner.New().
			Title(fmt.Sprintf("Researching '%s'...", strings.TrimSpace(in.Topic))).
			Action(run).
			Run(); spinErr != nil {
			return spinErr
		}
		if err != nil {
			return fmt.Errorf("research failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if plain {
			fmt.Fprintln(out, "Research Report")
			fmt.Fprintln(out, report)
			return nil
		}
		fmt.Fprint(out, render.Terminal("### Research Report\n\n"+report))
		return nil
	},
}

func credentialHint(err error) string {
	if errors.Is(err, credential.ErrMissing) {
		return fmt.Sprintf("Please enter a valid Clarifai PAT with --pat or set %s in the environment.", settings.CredentialEnv)
	}
	return err.Error()
}

// researchInputFromFlags starts from the settings and applies every flag the user set
func researchInputFromFlags(cmd *cobra.Command, args []string) researchInput {
	flags := cmd.Flags()
	in := researchInput{
		UseEnv: true,
		Config: research.ConfigFromSettings(settings),
	}

	in.Topic, _ = flags.GetString("topic")
	if in.Topic == "" && len(args) > 0 {
		in.Topic = strings.Join(args, " ")
	}

	in.PAT, _ = flags.GetString("pat")
	if flags.Changed("use-env") {
		in.UseEnv, _ = flags.GetBool("use-env")
	} else if strings.TrimSpace(in.PAT) != "" {
		in.UseEnv = false
	}

	if flags.Changed("provider") {
		in.Config.Provider, _ = flags.GetString("provider")
	}
	if flags.Changed("model") {
		in.Config.Model, _ = flags.GetString("model")
	}
	if flags.Changed("temperature") {
		in.Config.Temperature, _ = flags.GetFloat64("temperature")
	}
	if flags.Changed("max-tokens") {
		in.Config.MaxTokens, _ = flags.GetInt("max-tokens")
	}
	if flags.Changed("default-max-tokens") {
		in.Config.UseDefaultMaxTokens, _ = flags.GetBool("default-max-tokens")
	}
	if flags.Changed("verbose") {
		in.Config.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("allow-delegation") {
		in.Config.AllowDelegation, _ = flags.GetBool("allow-delegation")
	}

	return in
}

// promptResearchInput collects the same controls as the web form in the terminal
func promptResearchInput(in *researchInput) error {
	useEnv := in.UseEnv
	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Use %s from environment?", settings.CredentialEnv)).
			Value(&useEnv),
	)).Run(); err != nil {
		return err
	}
	in.UseEnv = useEnv

	if !in.UseEnv {
		if err := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Clarifai PAT").
				EchoMode(huh.EchoModePassword).
				Value(&in.PAT),
		)).Run(); err != nil {
			return err
		}
	}

	temperature := strconv.FormatFloat(in.Config.Temperature, 'f', 2, 64)
	maxTokens := strconv.Itoa(in.Config.MaxTokens)
	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Model").Value(&in.Config.Model),
		huh.NewInput().Title("Temperature (0.0 - 1.0)").Value(&temperature).Validate(validateTemperature),
		huh.NewConfirm().Title("Use default max tokens?").Value(&in.Config.UseDefaultMaxTokens),
	)).Run(); err != nil {
		return err
	}

	if !in.Config.UseDefaultMaxTokens {
		if err := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Max tokens (at least %d)", common.MinMaxTokens)).
				Value(&maxTokens).
				Validate(validateMaxTokens),
		)).Run(); err != nil {
			return err
		}
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title("Verbose output?").Value(&in.Config.Verbose),
		huh.NewConfirm().Title("Allow delegation?").Value(&in.Config.AllowDelegation),
		huh.NewInput().Title("Enter the research topic").Value(&in.Topic),
	)).Run(); err != nil {
		return err
	}

	in.Config.Temperature, _ = strconv.ParseFloat(temperature, 64)
	in.Config.MaxTokens, _ = strconv.Atoi(maxTokens)
	return nil
}

func validateTemperature(s string) error {
	t, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || t < 0 || t > 1 {
		return fmt.Errorf("must be a number between 0.0 and 1.0")
	}

	return nil
}

func validateMaxTokens(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < common.MinMaxTokens {
		return fmt.Errorf("must be an integer of at least %d", common.MinMaxTokens)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(researchCmd)

	researchCmd.Flags().StringP("topic", "t", "", "Research topic")
	researchCmd.Flags().Bool("use-env", true, "Read the credential from the environment")
	researchCmd.Flags().String("pat", "", "Clarifai PAT to use instead of the environment")
	researchCmd.Flags().StringP("provider", "p", common.ProviderOpenAI, "LLM provider (openai, anthropic)")
	researchCmd.Flags().StringP("model", "m", common.DefaultResearchModel, "Model identifier, may carry a provider prefix")
	researchCmd.Flags().Float64("temperature", common.DefaultTemperature, "Sampling temperature (0.0 - 1.0)")
	researchCmd.Flags().Int("max-tokens", common.DefaultMaxTokens, "Maximum tokens in the report")
	researchCmd.Flags().Bool("default-max-tokens", false, "Let the provider decide the maximum tokens")
	researchCmd.Flags().BoolP("verbose", "v", true, "Log the agent's task and final answer")
	researchCmd.Flags().Bool("allow-delegation", false, "Allow the agent to delegate work")
	researchCmd.Flags().BoolP("interactive", "i", false, "Collect the options with an interactive form")
	researchCmd.Flags().Bool("plain", false, "Print the raw report without a spinner or terminal styling")
}
