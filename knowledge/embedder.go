// Package knowledge implements the local knowledge base: documents are
// chunked, embedded, and persisted in a SQLite file with vector search, then
// exposed to the agent as a retrieval tool.
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Embedder computes vector embeddings for documents and queries.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

const (
	defaultEmbedBaseURL   = "https://api.openai.com/v1"
	embeddingsEndpoint    = "/embeddings"
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultHTTPClientTO   = 30 * time.Second
)

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

var _ Embedder = &OpenAIEmbedder{}

func NewOpenAIEmbedder(apiKey, model string) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		BaseURL:    defaultEmbedBaseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: defaultHTTPClientTO},
	}
	if e.APIKey == "" {
		e.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if e.Model == "" {
		e.Model = defaultEmbeddingModel
	}
	return e
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func (e *OpenAIEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody, err := json.Marshal(embeddingRequest{Model: e.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+embeddingsEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, fmt.Errorf("embeddings API error (%s): %s", errResp.Error.Type, errResp.Error.Message)
		}
		return nil, fmt.Errorf("embeddings API error: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var parsed embeddingResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for %d inputs", len(parsed.Data), len(texts))
	}

	out := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		out[parsed.Data[i].Index] = parsed.Data[i].Embedding
	}
	return out, nil
}

func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	return e.embed(ctx, docs)
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
