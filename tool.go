// Package scoutpod is a web-research agent runtime. An Agent drives a hosted
// chat-completion model in a tool-calling loop, skills group the research
// tools (web search, crawl, extract, knowledge-base retrieval), and a Session
// streams partial output back to the caller.
package scoutpod

import (
	"context"

	"github.com/openai/openai-go/v2"
)

// Tool is a callable capability exposed to the model as a function.
type Tool interface {
	Name() string
	Description() string
	// StatusMessage is streamed to the user while the tool runs. Empty means
	// no status update.
	StatusMessage() string
	// OpenAI returns the function declarations advertised for this tool.
	OpenAI() []openai.ChatCompletionToolUnionParam
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}
