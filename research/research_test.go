package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bitrise-io/bitrise-plugins-ai-research/common"
	"github.com/bitrise-io/bitrise-plugins-ai-research/credential"
	"github.com/bitrise-io/bitrise-plugins-ai-research/llm"
	"github.com/bitrise-io/bitrise-plugins-ai-research/llm/llmtest"
	"github.com/bitrise-io/bitrise-plugins-ai-research/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type factoryCall struct {
	provider string
	apiKey   string
	opts     []llm.Option
}

func newTestGenerator(rec *llmtest.Recorder) (*Generator, *[]factoryCall) {
	var calls []factoryCall
	g := &Generator{
		NewLLM: func(provider, apiKey string, opts ...llm.Option) (llm.LLM, error) {
			calls = append(calls, factoryCall{provider: provider, apiKey: apiKey, opts: opts})
			return rec, nil
		},
	}
	return g, &calls
}

func testConfig() Config {
	cfg := ConfigFromSettings(common.WithDefaultSettings())
	cfg.APIKey = "test-pat"
	return cfg
}

func TestGenerate_EmptyTopicMakesNoCall(t *testing.T) {
	rec := &llmtest.Recorder{Content: "report"}
	g, calls := newTestGenerator(rec)

	for _, topic := range []string{"", " ", "\t\n  "} {
		_, err := g.Generate(context.Background(), testConfig(), topic)
		assert.ErrorIs(t, err, ErrEmptyTopic, "topic %q", topic)
	}

	assert.Empty(t, *calls)
	assert.Equal(t, 0, rec.Calls())
}

func TestGenerate_MissingCredentialMakesNoCall(t *testing.T) {
	rec := &llmtest.Recorder{Content: "report"}
	g, calls := newTestGenerator(rec)

	cfg := testConfig()
	cfg.APIKey = " "

	_, err := g.Generate(context.Background(), cfg, "quantum computing")
	assert.ErrorIs(t, err, credential.ErrMissing)
	assert.Empty(t, *calls)
	assert.Equal(t, 0, rec.Calls())
}

func TestGenerate_QuantumComputing(t *testing.T) {
	rec := &llmtest.Recorder{Content: "## Report\n- qubits"}
	g, calls := newTestGenerator(rec)

	report, err := g.Generate(context.Background(), testConfig(), "  quantum computing ")
	require.NoError(t, err)

	assert.Equal(t, "## Report\n- qubits", report)
	require.Len(t, *calls, 1)
	assert.Equal(t, "test-pat", (*calls)[0].apiKey)

	require.Equal(t, 1, rec.Calls())
	req := rec.Requests()[0]
	assert.Contains(t, req.UserPrompt, "quantum computing")
	assert.Contains(t, req.UserPrompt, prompt.ResearchExpectedOutput)
	assert.Contains(t, req.SystemPrompt, prompt.ResearcherRole)
}

func TestGenerate_FactoryErrorPropagates(t *testing.T) {
	g := &Generator{
		NewLLM: func(string, string, ...llm.Option) (llm.LLM, error) {
			return nil, errors.New("unsupported provider: x")
		},
	}

	_, err := g.Generate(context.Background(), testConfig(), "topic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestGenerate_RemoteErrorPropagates(t *testing.T) {
	remote := errors.New("401 unauthorized")
	g, _ := newTestGenerator(&llmtest.Recorder{Err: remote})

	_, err := g.Generate(context.Background(), testConfig(), "topic")
	assert.ErrorIs(t, err, remote)
}

func TestNewResearchTaskEmbedsTopic(t *testing.T) {
	agent := NewResearcher(Persona{}, false, false, nil)
	task := NewResearchTask("quantum computing", agent)

	assert.True(t, strings.Contains(task.Description, "'quantum computing'"))
	assert.Equal(t, prompt.ResearchExpectedOutput, task.ExpectedOutput)
	assert.Same(t, agent, task.Agent)
	assert.Equal(t, task.Description, NewResearchTask("quantum computing", agent).Description)
}

func TestNewResearcherPersona(t *testing.T) {
	agent := NewResearcher(Persona{Role: "Historian"}, true, true, nil)

	assert.Equal(t, "Historian", agent.Role)
	assert.Equal(t, prompt.ResearcherGoal, agent.Goal)
	assert.Equal(t, prompt.ResearcherBackstory, agent.Backstory)
	assert.True(t, agent.Verbose)
	assert.True(t, agent.AllowDelegation)
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{Temperature: 1.4, MaxTokens: 10}.Normalize()
	assert.Equal(t, 1.0, cfg.Temperature)
	assert.Equal(t, 64, cfg.MaxTokens)
	assert.Equal(t, common.DefaultResearchModel, cfg.Model)

	cfg = Config{Temperature: -3, MaxTokens: 5056, UseDefaultMaxTokens: true}.Normalize()
	assert.Equal(t, 0.0, cfg.Temperature)
	assert.Equal(t, 0, cfg.MaxTokens)

	cfg = Config{Temperature: 0.7, MaxTokens: 512, Model: "m"}.Normalize()
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Equal(t, "m", cfg.Model)
}

func TestConfigLLMOptions(t *testing.T) {
	cfg := testConfig().Normalize()
	opts := cfg.LLMOptions()

	byType := map[llm.OptionType]any{}
	for _, o := range opts {
		byType[o.Type] = o.Value
	}

	assert.Equal(t, common.DefaultResearchModel, byType[llm.ModelNameOption])
	assert.Equal(t, 0.7, byType[llm.TemperatureOption])
	assert.Equal(t, 5056, byType[llm.MaxTokensOption])
	assert.Equal(t, common.ClarifaiOpenAIBaseURL, byType[llm.BaseURLOption])
	assert.Contains(t, byType, llm.RetryOption)
}
