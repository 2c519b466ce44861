package scoutpod

import (
	"fmt"

	"github.com/openai/openai-go/v2"
)

// Skill groups tools behind a single function the top-level model can call.
// The skill runs its own completion loop with its own system prompt, so the
// main conversation only sees the skill's final answer.
type Skill struct {
	Name          string
	Description   string
	SystemPrompt  string
	StatusMessage string
	Tools         []Tool
}

func (s *Skill) GetTools() []openai.ChatCompletionToolUnionParam {
	tools := []openai.ChatCompletionToolUnionParam{}
	for _, tool := range s.Tools {
		tools = append(tools, tool.OpenAI()...)
	}
	return tools
}

func (s *Skill) GetTool(name string) (Tool, error) {
	for _, tool := range s.Tools {
		if tool.Name() == name {
			return tool, nil
		}
	}
	return nil, fmt.Errorf("tool %s not found", name)
}
