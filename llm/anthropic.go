package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/bitrise-io/bitrise-plugins-ai-research/common"
	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
)

// The Messages API requires max_tokens, so "use the default" maps to this
const anthropicDefaultMaxTokens = 4096

// AnthropicModel implements the LLM interface using Anthropic's API
type AnthropicModel struct {
	client anthropic.Client
	config
}

// NewAnthropic creates a new Anthropic client
func NewAnthropic(apiKey string, opts ...Option) (*AnthropicModel, error) {
	if apiKey == "" {
		logger.Error("Anthropic API key cannot be empty")
		return nil, ErrMissingAPIKey
	}

	model := &AnthropicModel{
		config: config{
			modelName: string(anthropic.ModelClaude3_7SonnetLatest),
			retry:     common.DefaultRetryConfig(),
		},
	}
	applyOptions(&model.config, opts)

	retryClient := common.NewRetryableClient(model.retry)
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(retryClient.StandardClient()),
		option.WithMaxRetries(0),
	}
	if model.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(model.baseURL))
	}
	model.client = anthropic.NewClient(clientOpts...)

	logger.Debugf("Anthropic client initialized with model: %s, base URL: %q, max tokens: %d, timeout: %d seconds",
		model.modelName, model.baseURL, model.maxTokens, model.apiTimeout)

	return model, nil
}

// ModelName returns the model identifier sent to the API
func (a *AnthropicModel) ModelName() string {
	return a.modelName
}

// Prompt sends a request to Anthropic and returns the response
func (a *AnthropicModel) Prompt(ctx context.Context, req Request) Response {
	ctx, cancel := timeoutContext(ctx, a.apiTimeout)
	defer cancel()

	maxTokens := a.maxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.modelName),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}
	if a.temperature != nil {
		params.Temperature = anthropic.Float(*a.temperature)
	}

	logger.Infof("Sending request to Anthropic with model %s, max tokens %d", a.modelName, maxTokens)

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		logger.Errorf("failed to create message: %v", err)
		return Response{
			Error: fmt.Errorf("failed to create message: %w", err),
		}
	}

	// Extract text content from the response
	var content string
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += b.Text
		}
	}

	return Response{
		Content: content,
	}
}
