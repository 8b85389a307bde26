// Package research builds the single-agent research crew: one analyst
// persona, one templated task, run sequentially.
package research

import (
	"context"
	"errors"
	"strings"

	"github.com/bitrise-io/bitrise-plugins-ai-research/common"
	"github.com/bitrise-io/bitrise-plugins-ai-research/credential"
	"github.com/bitrise-io/bitrise-plugins-ai-research/crew"
	"github.com/bitrise-io/bitrise-plugins-ai-research/llm"
	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
	"github.com/bitrise-io/bitrise-plugins-ai-research/prompt"
)

// ErrEmptyTopic is returned for empty or whitespace-only topics
var ErrEmptyTopic = errors.New("please enter a research topic")

// Persona describes the researcher agent
type Persona struct {
	Role      string
	Goal      string
	Backstory string
}

// DefaultPersona is the senior research analyst
func DefaultPersona() Persona {
	return Persona{
		Role:      prompt.ResearcherRole,
		Goal:      prompt.ResearcherGoal,
		Backstory: prompt.ResearcherBackstory,
	}
}

func (p Persona) withDefaults() Persona {
	d := DefaultPersona()
	if strings.TrimSpace(p.Role) == "" {
		p.Role = d.Role
	}
	if strings.TrimSpace(p.Goal) == "" {
		p.Goal = d.Goal
	}
	if strings.TrimSpace(p.Backstory) == "" {
		p.Backstory = d.Backstory
	}
	return p
}

// NewResearcher creates the analyst agent
func NewResearcher(p Persona, verbose, allowDelegation bool, l llm.LLM) *crew.Agent {
	p = p.withDefaults()
	return &crew.Agent{
		Role:            p.Role,
		Goal:            p.Goal,
		Backstory:       p.Backstory,
		Verbose:         verbose,
		AllowDelegation: allowDelegation,
		LLM:             l,
	}
}

// NewResearchTask creates the analysis task for topic, bound to agent
func NewResearchTask(topic string, agent *crew.Agent) *crew.Task {
	return &crew.Task{
		Description:    prompt.GetResearchTaskPrompt(topic),
		ExpectedOutput: prompt.ResearchExpectedOutput,
		Agent:          agent,
	}
}

// LLMFactory builds the model client for one run
type LLMFactory func(provider, apiKey string, opts ...llm.Option) (llm.LLM, error)

// Generator produces research reports. Every call builds its client, agent
// and task from scratch; nothing is shared between runs.
type Generator struct {
	NewLLM LLMFactory
}

// NewGenerator returns a Generator backed by the real LLM clients
func NewGenerator() *Generator {
	return &Generator{NewLLM: llm.NewLLM}
}

// Generate runs the research task for topic and returns the report verbatim.
// Empty topics and missing credentials are rejected before any call.
func (g *Generator) Generate(ctx context.Context, cfg Config, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrEmptyTopic
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return "", credential.ErrMissing
	}

	cfg = cfg.Normalize()

	factory := g.NewLLM
	if factory == nil {
		factory = llm.NewLLM
	}

	client, err := factory(cfg.Provider, cfg.APIKey, cfg.LLMOptions()...)
	if err != nil {
		return "", err
	}

	researcher := NewResearcher(cfg.Persona, cfg.Verbose, cfg.AllowDelegation, client)
	task := NewResearchTask(topic, researcher)

	c := &crew.Crew{
		Agents:  []*crew.Agent{researcher},
		Tasks:   []*crew.Task{task},
		Process: crew.Sequential,
		Verbose: cfg.Verbose,
	}

	logger.Infof("Researching '%s' with model %s", topic, cfg.Model)

	out, err := c.Kickoff(ctx)
	if err != nil {
		return "", err
	}

	return out.Raw, nil
}

// ConfigFromSettings seeds a Config from the loaded settings. The API key is
// left empty and must be resolved separately.
func ConfigFromSettings(s common.Settings) Config {
	return Config{
		Provider:            s.LLM.Provider,
		Model:               s.LLM.Model,
		BaseURL:             s.LLM.BaseURL,
		Temperature:         s.LLM.Temperature,
		MaxTokens:           s.LLM.MaxTokens,
		UseDefaultMaxTokens: s.LLM.UseDefaultMaxTokens,
		APITimeout:          s.LLM.APITimeout,
		Verbose:             s.Agent.Verbose,
		AllowDelegation:     s.Agent.AllowDelegation,
		Retry:               common.RetryConfigFromSettings(s.Retry, s.LLM.APITimeout),
		Persona: Persona{
			Role:      s.Agent.Role,
			Goal:      s.Agent.Goal,
			Backstory: s.Agent.Backstory,
		},
	}
}
