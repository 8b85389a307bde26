package research

import (
	"github.com/bitrise-io/bitrise-plugins-ai-research/common"
	"github.com/bitrise-io/bitrise-plugins-ai-research/llm"
)

// Config is the per-run model configuration. It is never persisted.
type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string

	Temperature float64
	MaxTokens   int
	// UseDefaultMaxTokens ignores MaxTokens and lets the provider decide
	UseDefaultMaxTokens bool
	APITimeout          int

	Verbose         bool
	AllowDelegation bool

	Retry   common.RetryConfig
	Persona Persona
}

// Normalize clamps temperature to [0, 1] and a non-default token cap to at least 64
func (c Config) Normalize() Config {
	c.Temperature = common.ClampTemperature(c.Temperature)
	if c.UseDefaultMaxTokens {
		c.MaxTokens = 0
	} else {
		c.MaxTokens = common.NormalizeMaxTokens(c.MaxTokens)
	}
	if c.Model == "" {
		c.Model = common.DefaultResearchModel
	}
	return c
}

// LLMOptions converts the configuration into client options
func (c Config) LLMOptions() []llm.Option {
	opts := []llm.Option{
		llm.WithModel(c.Model),
		llm.WithTemperature(c.Temperature),
		llm.WithMaxTokens(c.MaxTokens),
		llm.WithAPITimeout(c.APITimeout),
	}
	if c.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(c.BaseURL))
	}
	if c.Retry.RetryMax > 0 || c.Retry.RetryWaitMin > 0 {
		opts = append(opts, llm.WithRetryConfig(c.Retry))
	}
	return opts
}
