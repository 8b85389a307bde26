package crew

// Task is an instruction bound to the agent that executes it
type Task struct {
	Description    string
	ExpectedOutput string
	Agent          *Agent
}

// TaskOutput is the result of one executed task
type TaskOutput struct {
	Description string
	Agent       string
	Raw         string
}
