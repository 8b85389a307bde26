package web

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/bitrise-io/bitrise-plugins-ai-research/common"
	"github.com/bitrise-io/bitrise-plugins-ai-research/research"
)

// Form is the state of the sidebar and topic controls
type Form struct {
	UseEnv              bool
	PAT                 string
	Model               string
	Temperature         float64
	MaxTokens           int
	UseDefaultMaxTokens bool
	Verbose             bool
	AllowDelegation     bool
	Topic               string
}

// DefaultForm is what a fresh page shows
func DefaultForm(s common.Settings) Form {
	return Form{
		UseEnv:              true,
		Model:               s.LLM.Model,
		Temperature:         common.ClampTemperature(s.LLM.Temperature),
		MaxTokens:           common.NormalizeMaxTokens(s.LLM.MaxTokens),
		UseDefaultMaxTokens: s.LLM.UseDefaultMaxTokens,
		Verbose:             s.Agent.Verbose,
		AllowDelegation:     s.Agent.AllowDelegation,
	}
}

// ParseForm reads a submitted form. Unchecked checkboxes are absent from the
// submission, so their state only comes from presence. Out of range numbers
// are clamped and unparsable ones fall back to the defaults.
func ParseForm(values url.Values, s common.Settings) Form {
	f := DefaultForm(s)

	f.UseEnv = values.Has("use_env")
	f.PAT = strings.TrimSpace(values.Get("pat"))
	f.UseDefaultMaxTokens = values.Has("default_max_tokens")
	f.Verbose = values.Has("verbose")
	f.AllowDelegation = values.Has("allow_delegation")
	f.Topic = values.Get("topic")

	if model := strings.TrimSpace(values.Get("model")); model != "" {
		f.Model = model
	}

	if t, err := strconv.ParseFloat(values.Get("temperature"), 64); err == nil {
		f.Temperature = common.ClampTemperature(t)
	}

	if n, err := strconv.Atoi(values.Get("max_tokens")); err == nil {
		f.MaxTokens = common.NormalizeMaxTokens(n)
	}

	return f
}

// Config builds the per-run model configuration
func (f Form) Config(s common.Settings, apiKey string) research.Config {
	cfg := research.ConfigFromSettings(s)
	cfg.APIKey = apiKey
	cfg.Model = f.Model
	cfg.Temperature = f.Temperature
	cfg.MaxTokens = f.MaxTokens
	cfg.UseDefaultMaxTokens = f.UseDefaultMaxTokens
	cfg.Verbose = f.Verbose
	cfg.AllowDelegation = f.AllowDelegation
	return cfg.Normalize()
}
