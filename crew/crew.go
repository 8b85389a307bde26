package crew

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
)

// Process selects how tasks are scheduled
type Process string

const (
	Sequential   Process = "sequential"
	Hierarchical Process = "hierarchical"
)

var (
	ErrNoTasks            = errors.New("crew has no tasks")
	ErrUnsupportedProcess = errors.New("unsupported process")
)

// Crew is the execution context for a set of agents and tasks
type Crew struct {
	Agents  []*Agent
	Tasks   []*Task
	Process Process
	Verbose bool
}

// Output holds every task result; Raw is the last task's text
type Output struct {
	Raw   string
	Tasks []TaskOutput
}

func (o Output) String() string {
	return o.Raw
}

// Validate checks the crew can be kicked off
func (c *Crew) Validate() error {
	process := c.Process
	if process == "" {
		process = Sequential
	}
	if process != Sequential {
		return fmt.Errorf("%w: %s", ErrUnsupportedProcess, process)
	}

	if len(c.Tasks) == 0 {
		return ErrNoTasks
	}

	for i, agent := range c.Agents {
		if agent == nil {
			return fmt.Errorf("agent %d is nil", i)
		}
	}

	for i, task := range c.Tasks {
		if task == nil {
			return fmt.Errorf("task %d is nil", i)
		}
		if task.Agent == nil {
			return fmt.Errorf("task %d has no agent", i)
		}
		if !slices.Contains(c.Agents, task.Agent) {
			return fmt.Errorf("task %d is assigned to agent %q which is not part of the crew", i, task.Agent.Role)
		}
	}

	return nil
}

// Kickoff runs every task in order. The first failing task stops the run and
// its error is returned wrapped with the task index.
func (c *Crew) Kickoff(ctx context.Context) (Output, error) {
	if err := c.Validate(); err != nil {
		return Output{}, err
	}

	for _, agent := range c.Agents {
		if agent.AllowDelegation && len(c.Agents) < 2 {
			logger.Debugf("Agent %q allows delegation but has no coworkers; delegation disabled", agent.Role)
		}
	}

	if c.Verbose {
		logger.Infof("Crew kickoff: %d agent(s), %d task(s), process %s", len(c.Agents), len(c.Tasks), Sequential)
	}

	output := Output{Tasks: make([]TaskOutput, 0, len(c.Tasks))}
	var history []string

	for i, task := range c.Tasks {
		if err := ctx.Err(); err != nil {
			return output, err
		}

		raw, err := task.Agent.Execute(ctx, task, history)
		if err != nil {
			return output, fmt.Errorf("task %d (%s): %w", i, task.Agent.Role, err)
		}

		output.Tasks = append(output.Tasks, TaskOutput{
			Description: task.Description,
			Agent:       task.Agent.Role,
			Raw:         raw,
		})
		output.Raw = raw
		history = append(history, raw)
	}

	if c.Verbose {
		logger.Infof("Crew finished %d task(s)", len(output.Tasks))
	}

	return output, nil
}
