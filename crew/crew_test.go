package crew

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bitrise-io/bitrise-plugins-ai-research/llm/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAgent(l *llmtest.Recorder) *Agent {
	return &Agent{
		Role:      "Analyst",
		Goal:      "Find facts",
		Backstory: "You read a lot.",
		LLM:       l,
	}
}

func TestKickoff_SingleTask(t *testing.T) {
	rec := &llmtest.Recorder{Content: "- fact one\n- fact two"}
	agent := newAgent(rec)
	task := &Task{Description: "Analyse topic", ExpectedOutput: "Bullet points", Agent: agent}

	c := &Crew{Agents: []*Agent{agent}, Tasks: []*Task{task}, Process: Sequential}
	out, err := c.Kickoff(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "- fact one\n- fact two", out.Raw)
	assert.Equal(t, out.Raw, out.String())
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, "Analyst", out.Tasks[0].Agent)

	require.Equal(t, 1, rec.Calls())
	req := rec.Requests()[0]
	assert.Contains(t, req.SystemPrompt, "You are Analyst.")
	assert.Contains(t, req.SystemPrompt, "Find facts")
	assert.Contains(t, req.UserPrompt, "Analyse topic")
	assert.Contains(t, req.UserPrompt, "Bullet points")
}

func TestKickoff_SequentialPassesContext(t *testing.T) {
	rec := &llmtest.Recorder{Content: "step output"}
	agent := newAgent(rec)
	c := &Crew{
		Agents: []*Agent{agent},
		Tasks: []*Task{
			{Description: "first", ExpectedOutput: "x", Agent: agent},
			{Description: "second", ExpectedOutput: "y", Agent: agent},
		},
	}

	out, err := c.Kickoff(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Tasks, 2)

	reqs := rec.Requests()
	require.Len(t, reqs, 2)
	assert.NotContains(t, reqs[0].UserPrompt, "context you're working with")
	assert.True(t, strings.Contains(reqs[1].UserPrompt, "step output"))
}

func TestKickoff_ErrorPropagates(t *testing.T) {
	remote := errors.New("quota exceeded")
	rec := &llmtest.Recorder{Err: remote}
	agent := newAgent(rec)
	c := &Crew{Agents: []*Agent{agent}, Tasks: []*Task{{Description: "d", Agent: agent}}}

	_, err := c.Kickoff(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, remote)
	assert.Equal(t, 1, rec.Calls())
}

func TestValidate(t *testing.T) {
	rec := &llmtest.Recorder{}
	agent := newAgent(rec)
	stranger := newAgent(rec)

	cases := []struct {
		name string
		crew *Crew
		want string
	}{
		{"no tasks", &Crew{Agents: []*Agent{agent}}, "no tasks"},
		{"hierarchical", &Crew{Agents: []*Agent{agent}, Tasks: []*Task{{Agent: agent}}, Process: Hierarchical}, "unsupported process"},
		{"unbound task", &Crew{Agents: []*Agent{agent}, Tasks: []*Task{{Description: "d"}}}, "has no agent"},
		{"foreign agent", &Crew{Agents: []*Agent{agent}, Tasks: []*Task{{Agent: stranger}}}, "not part of the crew"},
		{"nil agent", &Crew{Agents: []*Agent{agent, nil}, Tasks: []*Task{{Agent: agent}}}, "agent 1 is nil"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.crew.Kickoff(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	assert.Equal(t, 0, rec.Calls())
}

func TestKickoff_CancelledContext(t *testing.T) {
	rec := &llmtest.Recorder{Content: "never"}
	agent := newAgent(rec)
	c := &Crew{Agents: []*Agent{agent}, Tasks: []*Task{{Description: "d", Agent: agent}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Kickoff(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, rec.Calls())
}

func TestExecute_NoLLM(t *testing.T) {
	agent := &Agent{Role: "Idle"}
	_, err := agent.Execute(context.Background(), &Task{Description: "d"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no LLM")
}
