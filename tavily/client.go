// Package tavily wraps the Tavily web search, extract and crawl APIs and
// exposes them as scoutpod tools.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	defaultBaseURL      = "https://api.tavily.com"
	searchEndpoint      = "/search"
	extractEndpoint     = "/extract"
	crawlEndpoint       = "/crawl"
	defaultHTTPClientTO = 60 * time.Second
)

// Client is a minimal Tavily REST client.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(apiKey string) *Client {
	c := &Client{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: defaultHTTPClientTO},
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("TAVILY_API_KEY")
	}
	return c
}

// SearchRequest is the payload for the /search endpoint.
type SearchRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth,omitempty"`
	Topic         string `json:"topic,omitempty"`
	MaxResults    int    `json:"max_results,omitempty"`
	IncludeAnswer bool   `json:"include_answer,omitempty"`
}

// SearchResult is a single hit in a search response.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResponse is the body of a /search response.
type SearchResponse struct {
	Query        string         `json:"query"`
	Answer       string         `json:"answer,omitempty"`
	Results      []SearchResult `json:"results"`
	ResponseTime float64        `json:"response_time"`
}

// ExtractRequest is the payload for the /extract endpoint.
type ExtractRequest struct {
	URLs         []string `json:"urls"`
	ExtractDepth string   `json:"extract_depth,omitempty"`
}

// ExtractResult is the parsed content of one URL.
type ExtractResult struct {
	URL        string `json:"url"`
	RawContent string `json:"raw_content"`
}

// FailedResult reports a URL the service could not process.
type FailedResult struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// ExtractResponse is the body of an /extract response.
type ExtractResponse struct {
	Results       []ExtractResult `json:"results"`
	FailedResults []FailedResult  `json:"failed_results,omitempty"`
}

// CrawlRequest is the payload for the /crawl endpoint.
type CrawlRequest struct {
	URL          string `json:"url"`
	Instructions string `json:"instructions,omitempty"`
	MaxDepth     int    `json:"max_depth,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// CrawlResponse is the body of a /crawl response.
type CrawlResponse struct {
	BaseURL string          `json:"base_url"`
	Results []ExtractResult `json:"results"`
}

// APIError is a non-2xx response from the service. Temporary reports whether
// the request is worth retrying.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("tavily: %s (status %d)", e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("tavily: request failed with status %d", e.StatusCode)
}

func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out interface{}) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Detail struct {
				Error string `json:"error"`
			} `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return &APIError{StatusCode: resp.StatusCode, Detail: errResp.Detail.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Search runs a web search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.post(ctx, searchEndpoint, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Extract parses the content of up to 20 URLs.
func (c *Client) Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	var out ExtractResponse
	if err := c.post(ctx, extractEndpoint, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Crawl fetches pages reachable from a root URL.
func (c *Client) Crawl(ctx context.Context, req CrawlRequest) (*CrawlResponse, error) {
	var out CrawlResponse
	if err := c.post(ctx, crawlEndpoint, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
