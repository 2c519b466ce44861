package prompts

// ResearcherPromptData feeds the top-level research agent prompt.
type ResearcherPromptData struct {
	SystemPrompt string
	MemoryBlocks map[string]string
	CurrentDate  string
}

const researcherTemplate = `{{.SystemPrompt}}

You work in steps. For each step, reason about what information is still
missing, then either call one of the available functions to gather it or,
when you have enough, write the final answer. Prefer the knowledge base for
questions about indexed documents and the web research functions for current
or external information. Cite the sources you used in the final answer.

Today's date is {{.CurrentDate}}.
{{if .MemoryBlocks}}
What you remember about the user:
{{formatMemoryBlocks .MemoryBlocks}}
{{end}}`

// ResearcherPrompt renders the system prompt for the main agent loop.
func ResearcherPrompt(data ResearcherPromptData) (string, error) {
	return generateFromTemplate(researcherTemplate, data)
}
