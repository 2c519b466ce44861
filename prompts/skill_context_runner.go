package prompts

// SkillContextRunnerPromptData feeds the system prompt of a skill's inner
// completion loop.
type SkillContextRunnerPromptData struct {
	MainAgentSystemPrompt string
	SkillSystemPrompt     string
	MemoryBlocks          map[string]string
}

const skillContextRunnerTemplate = `{{.MainAgentSystemPrompt}}

{{.SkillSystemPrompt}}

Use the available functions to complete the requested step. When you are
done, reply with a concise summary of what you found, including source URLs
or document references. Do not address the user directly; your reply is
consumed by another agent.
{{if .MemoryBlocks}}
What you remember about the user:
{{formatMemoryBlocks .MemoryBlocks}}
{{end}}`

// SkillContextRunnerPrompt renders the system prompt for a skill loop.
func SkillContextRunnerPrompt(data SkillContextRunnerPromptData) (string, error) {
	return generateFromTemplate(skillContextRunnerTemplate, data)
}
