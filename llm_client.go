package scoutpod

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/ssestream"
	"github.com/openai/openai-go/v2/shared"
)

// OpenAILLM wraps the openai client, injecting per-session identifiers into
// each request so gateway-side logs can be attributed.
type OpenAILLM struct {
	apiKey          string
	baseURL         string
	strongModel     shared.ChatModel
	generationModel shared.ChatModel
	client          openai.Client
}

var _ LLM = &OpenAILLM{}

// NewLLM builds an OpenAILLM. baseURL may be empty for the default OpenAI
// endpoint; set it to route through a gateway or a compatible provider.
func NewLLM(apiKey, baseURL, strongModel, generationModel string) *OpenAILLM {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAILLM{
		apiKey:          apiKey,
		baseURL:         baseURL,
		strongModel:     shared.ChatModel(strongModel),
		generationModel: shared.ChatModel(generationModel),
		client:          openai.NewClient(opts...),
	}
}

func (c *OpenAILLM) StrongModel() shared.ChatModel     { return c.strongModel }
func (c *OpenAILLM) GenerationModel() shared.ChatModel { return c.generationModel }

func optsWithIds(ctx context.Context, opts []option.RequestOption) []option.RequestOption {
	if sessionID, ok := ctx.Value(ContextKey("sessionID")).(string); ok {
		opts = append(opts, option.WithJSONSet("custom_identifier", sessionID))
	}

	if customerID, ok := ctx.Value(ContextKey("customerID")).(string); ok {
		opts = append(opts, option.WithJSONSet("customer_identifier", customerID))
	}

	if extraMeta, ok := ctx.Value(ContextKey("extra")).(map[string]string); ok {
		for key, value := range extraMeta {
			opts = append(opts, option.WithJSONSet(key, value))
		}
	}

	return opts
}

func (c *OpenAILLM) New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	opts := []option.RequestOption{}
	opts = optsWithIds(ctx, opts)
	return c.client.Chat.Completions.New(ctx, params, opts...)
}

func (c *OpenAILLM) NewStreaming(ctx context.Context, params openai.ChatCompletionNewParams) *ssestream.Stream[openai.ChatCompletionChunk] {
	opts := []option.RequestOption{}
	opts = optsWithIds(ctx, opts)
	return c.client.Chat.Completions.NewStreaming(ctx, params, opts...)
}

// GenerateSchema reflects T into a JSON schema suitable for structured
// output or function parameters.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// FunctionParametersFor reflects T into the FunctionParameters map the chat
// completions API expects for a tool declaration.
func FunctionParametersFor[T any]() (shared.FunctionParameters, error) {
	schema := GenerateSchema[T]()
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	params := shared.FunctionParameters{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return params, nil
}
