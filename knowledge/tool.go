package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/boat-builder/scoutpod"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/openai/openai-go/v2/shared"
)

// RetrieverArgs are the model-facing arguments of knowledge_search.
type RetrieverArgs struct {
	Query string `json:"query" jsonschema:"description=What to look up in the knowledge base"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"description=Number of passages to return (default 5)"`
}

// RetrieverTool exposes similarity search over the knowledge base as a
// scoutpod tool.
type RetrieverTool struct {
	store    *Store
	embedder Embedder
}

var _ scoutpod.Tool = &RetrieverTool{}

func NewRetrieverTool(store *Store, embedder Embedder) *RetrieverTool {
	return &RetrieverTool{store: store, embedder: embedder}
}

func (t *RetrieverTool) Name() string { return "knowledge_search" }

func (t *RetrieverTool) Description() string {
	return "Search the indexed document collection and return the most relevant passages with their sources."
}

func (t *RetrieverTool) StatusMessage() string { return "Searching the knowledge base" }

func (t *RetrieverTool) OpenAI() []openai.ChatCompletionToolUnionParam {
	params, err := scoutpod.FunctionParametersFor[RetrieverArgs]()
	if err != nil {
		panic(err)
	}
	return []openai.ChatCompletionToolUnionParam{
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: param.NewOpt(t.Description()),
			Parameters:  params,
		}),
	}
}

func (t *RetrieverTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", scoutpod.NewRetryableError(fmt.Errorf("invalid arguments: %w", err))
	}
	var retrieverArgs RetrieverArgs
	if err := json.Unmarshal(raw, &retrieverArgs); err != nil {
		return "", scoutpod.NewRetryableError(fmt.Errorf("invalid arguments: %w", err))
	}
	if retrieverArgs.Query == "" {
		return "", scoutpod.NewRetryableError(errors.New("query is required"))
	}
	if retrieverArgs.TopK <= 0 {
		retrieverArgs.TopK = 5
	}

	queryEmbedding, err := t.embedder.EmbedQuery(ctx, retrieverArgs.Query)
	if err != nil {
		return "", scoutpod.NewRetryableError(err)
	}

	docs, err := t.store.Search(ctx, queryEmbedding, retrieverArgs.TopK)
	if err != nil {
		return "", scoutpod.NewIgnorableError(err)
	}
	if len(docs) == 0 {
		return "The knowledge base has no matching passages", nil
	}

	var builder strings.Builder
	for i, doc := range docs {
		builder.WriteString(fmt.Sprintf("%d. [%s] %s (score %.3f)\n%s\n\n", i+1, doc.Source, doc.Title, doc.Score, doc.Content))
	}
	return builder.String(), nil
}

// NewKnowledgeSkill bundles retrieval into the skill the agent advertises to
// the model.
func NewKnowledgeSkill(store *Store, embedder Embedder) scoutpod.Skill {
	return scoutpod.Skill{
		Name:          "knowledge_base",
		Description:   "Look up information in the locally indexed document collection",
		SystemPrompt:  "You are a retrieval specialist. Query the knowledge base, possibly with rephrased queries, and report the passages that answer the request together with their sources.",
		StatusMessage: "Consulting the knowledge base",
		Tools: []scoutpod.Tool{
			NewRetrieverTool(store, embedder),
		},
	}
}
