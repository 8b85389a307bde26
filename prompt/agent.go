package prompt

import "strings"

// GetAgentSystemPrompt describes the persona an agent speaks as
func GetAgentSystemPrompt(role, backstory, goal string) string {
	return `You are ` + role + `. ` + backstory + `
Your personal goal is: ` + goal + `
- Work only from what you know to be accurate; say so when something is uncertain.
- Format your final answer as Markdown.`
}

// GetTaskPrompt is the user turn for a single task. Outputs of the tasks that
// ran before it are passed in as context.
func GetTaskPrompt(description, expectedOutput string, history []string) string {
	var sb strings.Builder

	sb.WriteString("Current Task: ")
	sb.WriteString(description)
	sb.WriteString("\n\nThis is the expected criteria for your final answer: ")
	sb.WriteString(expectedOutput)
	sb.WriteString("\nYou MUST return the actual complete content as the final answer, not a summary.")

	if len(history) > 0 {
		sb.WriteString("\n\nThis is the context you're working with:\n")
		sb.WriteString(strings.Join(history, "\n\n----------\n\n"))
	}

	sb.WriteString("\n\nBegin! Give your best final answer.")
	return sb.String()
}
