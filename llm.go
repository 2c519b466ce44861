package scoutpod

import (
	"context"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/packages/ssestream"
	"github.com/openai/openai-go/v2/shared"
)

// ContextKey is the type for values scoutpod stores on the request context
// (session and customer identifiers, extra metadata).
type ContextKey string

// LLM is the minimal contract the agent runtime needs from a language-model
// provider. Implementations may add helper methods but only the operations
// below are relied upon by the rest of the codebase.
type LLM interface {
	// New issues a non-streaming chat completion request.
	New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)

	// NewStreaming issues a streaming chat completion request, returning an
	// ssestream.Stream to consume the chunks.
	NewStreaming(ctx context.Context, params openai.ChatCompletionNewParams) *ssestream.Stream[openai.ChatCompletionChunk]

	// StrongModel is the reasoning-heavy model the skill loops run on.
	StrongModel() shared.ChatModel

	// GenerationModel drives the top-level loop: it picks skills and writes
	// the user-facing answer.
	GenerationModel() shared.ChatModel
}
