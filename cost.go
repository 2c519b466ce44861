package scoutpod

import (
	"sync"

	"github.com/openai/openai-go/v2"
)

type TokenRates struct {
	Input  float64
	Output float64
}

// Pricing in dollars per million tokens.
const (
	GPT41InputRate      = 2.0
	GPT41OutputRate     = 8.0
	GPT41MiniInputRate  = 0.40
	GPT41MiniOutputRate = 1.60
	GPT4oInputRate      = 2.5
	GPT4oOutputRate     = 10.0
	GPT4oMiniInputRate  = 0.15
	GPT4oMiniOutputRate = 0.60
	O3MiniInputRate     = 1.10
	O3MiniOutputRate    = 4.40
)

// ModelPricings maps model names to their token rates.
var ModelPricings = map[string]TokenRates{
	"gpt-4.1": {
		Input:  GPT41InputRate,
		Output: GPT41OutputRate,
	},
	"gpt-4.1-mini": {
		Input:  GPT41MiniInputRate,
		Output: GPT41MiniOutputRate,
	},
	"gpt-4o": {
		Input:  GPT4oInputRate,
		Output: GPT4oOutputRate,
	},
	"gpt-4o-mini": {
		Input:  GPT4oMiniInputRate,
		Output: GPT4oMiniOutputRate,
	},
	"o3-mini": {
		Input:  O3MiniInputRate,
		Output: O3MiniOutputRate,
	},
	"azure/gpt-4o": {
		Input:  GPT4oInputRate,
		Output: GPT4oOutputRate,
	},
	"azure/gpt-4o-mini": {
		Input:  GPT4oMiniInputRate,
		Output: GPT4oMiniOutputRate,
	},
	"azure/o3-mini": {
		Input:  O3MiniInputRate,
		Output: O3MiniOutputRate,
	},
}

// Usage accumulates token counts across every completion a session issues,
// including the skill sub-loops which may run concurrently.
type Usage struct {
	mu           sync.Mutex
	inputTokens  int64
	outputTokens int64
}

func (u *Usage) Add(usage openai.CompletionUsage) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.inputTokens += usage.PromptTokens
	u.outputTokens += usage.CompletionTokens
}

func (u *Usage) Tokens() (input, output int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.inputTokens, u.outputTokens
}

// CostDetails is the priced usage of a session.
type CostDetails struct {
	InputTokens  int64
	OutputTokens int64
	TotalCost    float64
}

// Cost prices the accumulated usage against the session's strong model. The
// second return is false when the model has no pricing entry.
func (s *Session) Cost() (*CostDetails, bool) {
	pricing, exists := ModelPricings[string(s.llm.StrongModel())]
	if !exists {
		return nil, false
	}

	input, output := s.usage.Tokens()
	inputCost := float64(input) * pricing.Input / 1000000
	outputCost := float64(output) * pricing.Output / 1000000

	return &CostDetails{
		InputTokens:  input,
		OutputTokens: output,
		TotalCost:    inputCost + outputCost,
	}, true
}
