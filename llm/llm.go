package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitrise-io/bitrise-plugins-ai-research/common"
	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
)

// ErrMissingAPIKey is returned before any call when no key was supplied
var ErrMissingAPIKey = errors.New("API key cannot be empty")

// OptionType defines the type of option
type OptionType string

// Available option types
const (
	ModelNameOption   OptionType = "model"
	MaxTokensOption   OptionType = "max_tokens"
	TemperatureOption OptionType = "temperature"
	BaseURLOption     OptionType = "base_url"
	APITimeoutOption  OptionType = "api_timeout"
	RetryOption       OptionType = "retry"
)

// Option represents a generic configuration option for any LLM provider
type Option struct {
	Type  OptionType
	Value any
}

// WithModel creates an option to set the model name
func WithModel(model string) Option {
	return Option{
		Type:  ModelNameOption,
		Value: model,
	}
}

// WithMaxTokens creates an option to set the max tokens, 0 keeps the provider default
func WithMaxTokens(maxTokens int) Option {
	return Option{
		Type:  MaxTokensOption,
		Value: maxTokens,
	}
}

// WithTemperature creates an option to set the sampling temperature
func WithTemperature(temperature float64) Option {
	return Option{
		Type:  TemperatureOption,
		Value: temperature,
	}
}

// WithBaseURL creates an option to point the client at another endpoint
func WithBaseURL(baseURL string) Option {
	return Option{
		Type:  BaseURLOption,
		Value: baseURL,
	}
}

// WithAPITimeout creates an option to set the API timeout in seconds, 0 disables it
func WithAPITimeout(timeout int) Option {
	return Option{
		Type:  APITimeoutOption,
		Value: timeout,
	}
}

// WithRetryConfig creates an option to configure the HTTP retry behaviour
func WithRetryConfig(config common.RetryConfig) Option {
	return Option{
		Type:  RetryOption,
		Value: config,
	}
}

// Request represents the data needed to generate a prompt for the LLM
type Request struct {
	SystemPrompt string
	UserPrompt   string
}

// Response represents the response from the LLM
type Response struct {
	Content string
	Error   error
}

// LLM defines the interface for language model prompting
type LLM interface {
	// Prompt sends a request to the language model and returns its response
	Prompt(ctx context.Context, req Request) Response
}

// config is the provider independent view of the applied options
type config struct {
	modelName   string
	maxTokens   int
	temperature *float64
	baseURL     string
	apiTimeout  int
	retry       common.RetryConfig
}

func applyOptions(c *config, opts []Option) {
	for _, opt := range opts {
		switch opt.Type {
		case ModelNameOption:
			if modelName, ok := opt.Value.(string); ok && modelName != "" {
				c.modelName = modelName
			}
		case MaxTokensOption:
			if maxTokens, ok := opt.Value.(int); ok {
				c.maxTokens = maxTokens
			}
		case TemperatureOption:
			if temperature, ok := opt.Value.(float64); ok {
				t := common.ClampTemperature(temperature)
				c.temperature = &t
			}
		case BaseURLOption:
			if baseURL, ok := opt.Value.(string); ok && baseURL != "" {
				c.baseURL = strings.TrimRight(baseURL, "/")
			}
		case APITimeoutOption:
			if timeout, ok := opt.Value.(int); ok {
				c.apiTimeout = timeout
			}
		case RetryOption:
			if retry, ok := opt.Value.(common.RetryConfig); ok {
				c.retry = retry
			}
		}
	}
}

// SplitModel separates a "provider/model" identifier. Identifiers without a
// known provider prefix are returned unchanged with an empty provider.
func SplitModel(model string) (string, string) {
	provider, rest, found := strings.Cut(model, "/")
	if !found {
		return "", model
	}
	switch provider {
	case common.ProviderOpenAI, common.ProviderAnthropic:
		return provider, rest
	}
	return "", model
}

// NewLLM creates a client for the given provider. A provider prefix on the
// model name takes precedence over providerName and is stripped exactly once,
// so "openai/openai/chat-completion/models/o4-mini" is sent as
// "openai/chat-completion/models/o4-mini". The configured base URL is kept
// whichever provider the prefix selects.
func NewLLM(providerName, apiKey string, opts ...Option) (LLM, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	var c config
	applyOptions(&c, opts)
	if prefix, model := SplitModel(c.modelName); prefix != "" {
		providerName = prefix
		opts = append(opts, WithModel(model))
	}

	var llmClient LLM
	var err error

	switch providerName {
	case common.ProviderOpenAI, "":
		llmClient, err = NewOpenAI(apiKey, opts...)
	case common.ProviderAnthropic:
		llmClient, err = NewAnthropic(apiKey, opts...)
	default:
		err = fmt.Errorf("unsupported provider: %s", providerName)
	}

	if err == nil {
		logger.Infof("Using LLM provider: %s", providerName)
	}

	return llmClient, err
}

func timeoutContext(ctx context.Context, seconds int) (context.Context, context.CancelFunc) {
	if seconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
}
