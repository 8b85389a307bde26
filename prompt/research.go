package prompt

import "fmt"

const (
	ResearcherRole      = "Senior Research Analyst"
	ResearcherGoal      = "Uncover cutting-edge developments and facts on a given topic"
	ResearcherBackstory = `You are a meticulous and insightful research analyst at a tech think tank.
You specialize in identifying trends, gathering verified information,
and presenting concise insights.`

	ResearchExpectedOutput = "A detailed analysis report in bullet points, including sources if possible."

	// DefaultPredictPrompt is sent by the predict command when no prompt is given
	DefaultPredictPrompt = "What is a usecase for AI Agents for students?"
)

// GetResearchTaskPrompt embeds topic verbatim into the research task description
func GetResearchTaskPrompt(topic string) string {
	return fmt.Sprintf(`Conduct a comprehensive analysis of '%s'.
Identify key trends, breakthrough technologies, important figures, and potential industry impacts.
Focus on factual and verifiable information.`, topic)
}
