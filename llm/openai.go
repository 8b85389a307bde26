package llm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bitrise-io/bitrise-plugins-ai-research/common"
	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
	"github.com/sashabaranov/go-openai"
)

// OpenAIModel implements the LLM interface against any OpenAI-compatible API,
// Clarifai's by default
type OpenAIModel struct {
	client *openai.Client
	config
}

// NewOpenAI creates a new OpenAI-compatible client
func NewOpenAI(apiKey string, opts ...Option) (*OpenAIModel, error) {
	if apiKey == "" {
		logger.Error("OpenAI API key cannot be empty")
		return nil, ErrMissingAPIKey
	}

	_, defaultModel := SplitModel(common.DefaultResearchModel)
	model := &OpenAIModel{
		config: config{
			modelName: defaultModel,
			baseURL:   common.ClarifaiOpenAIBaseURL,
			retry:     common.DefaultRetryConfig(),
		},
	}
	applyOptions(&model.config, opts)

	retryClient := common.NewRetryableClient(model.retry)

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = model.baseURL
	clientConfig.HTTPClient = retryClient.StandardClient()
	model.client = openai.NewClientWithConfig(clientConfig)

	logger.Debugf("OpenAI client initialized with model: %s, base URL: %s, max tokens: %d, timeout: %d seconds",
		model.modelName, model.baseURL, model.maxTokens, model.apiTimeout)

	return model, nil
}

// ModelName returns the model identifier sent to the API
func (o *OpenAIModel) ModelName() string {
	return o.modelName
}

// Prompt sends a request to the OpenAI-compatible API and returns the response
func (o *OpenAIModel) Prompt(ctx context.Context, req Request) Response {
	logger.Debugf("Sending prompt to OpenAI model: %s", o.modelName)

	ctx, cancel := timeoutContext(ctx, o.apiTimeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{}
	if req.SystemPrompt != "" {
		logger.Debug("Adding system prompt to OpenAI request")
		logger.Debug(req.SystemPrompt)
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	logger.Debug("Adding user prompt to OpenAI request")
	logger.Debug(req.UserPrompt)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:     o.modelName,
		Messages:  messages,
		MaxTokens: o.maxTokens,
	}
	if o.temperature != nil {
		chatReq.Temperature = float32(*o.temperature)
		// Temperature is omitempty, a literal zero would never be sent
		if chatReq.Temperature == 0 {
			chatReq.Temperature = math.SmallestNonzeroFloat32
		}
	}

	logger.Infof("Sending request to OpenAI with model %s, max tokens %d", o.modelName, o.maxTokens)

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		logger.Errorf("failed to create chat completion: %v", err)
		return Response{
			Error: fmt.Errorf("failed to create chat completion: %w", err),
		}
	}

	if len(resp.Choices) == 0 {
		errMsg := "OpenAI response contained no choices"
		logger.Error(errMsg)
		return Response{
			Error: errors.New(errMsg),
		}
	}

	return Response{
		Content: resp.Choices[0].Message.Content,
	}
}
