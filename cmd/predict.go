package cmd

import (
	"fmt"
	"strings"

	"github.com/bitrise-io/bitrise-plugins-ai-research/clarifai"
	"github.com/bitrise-io/bitrise-plugins-ai-research/common"
	"github.com/bitrise-io/bitrise-plugins-ai-research/credential"
	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
	"github.com/bitrise-io/bitrise-plugins-ai-research/prompt"
	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict [prompt]",
	Short: "Send a single prompt to a hosted model",
	Long: `Build a client for the model at --model-url, send one prompt and print the text it returns.
The credential is read from the environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		modelURL := settings.Predict.ModelURL
		if cmd.Flags().Changed("model-url") {
			modelURL, _ = cmd.Flags().GetString("model-url")
		}
		deploymentID := settings.Predict.DeploymentID
		if cmd.Flags().Changed("deployment-id") {
			deploymentID, _ = cmd.Flags().GetString("deployment-id")
		}
		apiURL := settings.Predict.APIBaseURL
		if cmd.Flags().Changed("api-url") {
			apiURL, _ = cmd.Flags().GetString("api-url")
		}
		wrap, _ := cmd.Flags().GetInt("wrap")

		text := prompt.DefaultPredictPrompt
		if len(args) > 0 {
			text = strings.Join(args, " ")
		}

		_, pat, err := resolver().Resolve(true, "")
		if err != nil {
			return fmt.Errorf("%w (set %s)", err, settings.CredentialEnv)
		}
		logger.Debugf("Using credential %s", credential.Mask(pat))

		retry := common.RetryConfigFromSettings(settings.Retry, settings.LLM.APITimeout)
		model, err := clarifai.NewModel(modelURL,
			clarifai.WithPAT(pat),
			clarifai.WithDeploymentID(deploymentID),
			clarifai.WithBaseURL(apiURL),
			clarifai.WithHTTPClient(common.NewRetryableClient(retry).StandardClient()),
		)
		if err != nil {
			return fmt.Errorf("failed to create model client: %w", err)
		}

		ref := model.Ref()
		logger.Infof("Predicting with model %s of %s/%s", ref.ModelID, ref.UserID, ref.AppID)

		response, err := model.Predict(cmd.Context(), text)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), common.WrapString(response, wrap))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringP("model-url", "m", common.DefaultPredictModel, "URL of the hosted model")
	predictCmd.Flags().StringP("deployment-id", "d", "", "Dedicated deployment to route the prediction to (optional)")
	predictCmd.Flags().String("api-url", common.ClarifaiAPIBaseURL, "Root of the Clarifai API")
	predictCmd.Flags().IntP("wrap", "w", 0, "Wrap the response at this many characters (0 disables wrapping)")
}
