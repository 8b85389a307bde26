// Package crew runs tasks through agents backed by an LLM. Only the
// sequential process is supported: tasks run in order and every task sees
// the outputs of the tasks before it.
package crew

import (
	"context"
	"fmt"

	"github.com/bitrise-io/bitrise-plugins-ai-research/llm"
	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
	"github.com/bitrise-io/bitrise-plugins-ai-research/prompt"
)

// Agent is a persona that executes tasks with its LLM
type Agent struct {
	Role            string
	Goal            string
	Backstory       string
	Verbose         bool
	AllowDelegation bool
	LLM             llm.LLM
}

func (a *Agent) systemPrompt() string {
	return prompt.GetAgentSystemPrompt(a.Role, a.Backstory, a.Goal)
}

// Execute runs a single task and returns the raw model output
func (a *Agent) Execute(ctx context.Context, task *Task, history []string) (string, error) {
	if a.LLM == nil {
		return "", fmt.Errorf("agent %q has no LLM configured", a.Role)
	}

	req := llm.Request{
		SystemPrompt: a.systemPrompt(),
		UserPrompt:   prompt.GetTaskPrompt(task.Description, task.ExpectedOutput, history),
	}

	if a.Verbose {
		logger.Infof("[%s] Task: %s", a.Role, task.Description)
	}

	resp := a.LLM.Prompt(ctx, req)
	if resp.Error != nil {
		return "", resp.Error
	}

	if a.Verbose {
		logger.Infof("[%s] Final Answer: %s", a.Role, resp.Content)
	}

	return resp.Content, nil
}
