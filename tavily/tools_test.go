package tavily

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/boat-builder/scoutpod"
)

func TestSearchToolExecute(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !req.IncludeAnswer {
			t.Error("expected include_answer to be set")
		}
		if req.MaxResults != 5 {
			t.Errorf("expected the default of 5 results, got %d", req.MaxResults)
		}
		json.NewEncoder(w).Encode(SearchResponse{
			Answer: "Paris",
			Results: []SearchResult{
				{Title: "Paris", URL: "https://example.com/paris", Content: "Paris is the capital"},
			},
		})
	})
	defer server.Close()

	output, err := NewSearchTool(client).Execute(context.Background(), map[string]interface{}{
		"query": "capital of France",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Summary: Paris", "1. Paris", "https://example.com/paris"} {
		if !strings.Contains(output, want) {
			t.Fatalf("output is missing %q:\n%s", want, output)
		}
	}
}

func TestSearchToolRequiresQuery(t *testing.T) {
	tool := NewSearchTool(NewClient("test-key"))

	_, err := tool.Execute(context.Background(), map[string]interface{}{})
	var retryable *scoutpod.RetryableError
	if !errors.As(err, &retryable) {
		t.Fatalf("expected a retryable error, got %v", err)
	}
}

func TestSearchToolErrorMapping(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})

		_, err := NewSearchTool(client).Execute(context.Background(), map[string]interface{}{"query": "q"})
		server.Close()
		if err == nil {
			t.Fatalf("status %d: expected an error", tc.status)
		}
		var retryable *scoutpod.RetryableError
		var ignorable *scoutpod.IgnorableError
		switch {
		case tc.retryable && !errors.As(err, &retryable):
			t.Fatalf("status %d: expected a retryable error, got %v", tc.status, err)
		case !tc.retryable && !errors.As(err, &ignorable):
			t.Fatalf("status %d: expected an ignorable error, got %v", tc.status, err)
		}
	}
}

func TestExtractToolExecute(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ExtractResponse{
			Results:       []ExtractResult{{URL: "https://example.com", RawContent: "page body"}},
			FailedResults: []FailedResult{{URL: "https://broken.example.com", Error: "timeout"}},
		})
	})
	defer server.Close()

	output, err := NewExtractTool(client).Execute(context.Background(), map[string]interface{}{
		"urls": []interface{}{"https://example.com", "https://broken.example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output, "page body") {
		t.Fatalf("extracted content missing:\n%s", output)
	}
	if !strings.Contains(output, "Failed to extract: timeout") {
		t.Fatalf("failure report missing:\n%s", output)
	}
}

func TestCrawlToolExecute(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var req CrawlRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.MaxDepth != 1 {
			t.Errorf("expected the default depth of 1, got %d", req.MaxDepth)
		}
		json.NewEncoder(w).Encode(CrawlResponse{
			Results: []ExtractResult{{URL: "https://example.com/a", RawContent: "page a"}},
		})
	})
	defer server.Close()

	output, err := NewCrawlTool(client).Execute(context.Background(), map[string]interface{}{
		"url": "https://example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output, "page a") {
		t.Fatalf("crawled content missing:\n%s", output)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", maxToolOutputChars+100)
	out := truncate(long, maxToolOutputChars)
	if len(out) > maxToolOutputChars+len("\n[truncated]") {
		t.Fatalf("output not truncated, length %d", len(out))
	}
	if !strings.HasSuffix(out, "[truncated]") {
		t.Fatal("expected the truncation marker")
	}
	if short := truncate("short", maxToolOutputChars); short != "short" {
		t.Fatalf("short input changed: %q", short)
	}
}

func TestWebResearchSkill(t *testing.T) {
	skill := NewWebResearchSkill(NewClient("test-key"))
	if skill.Name != "web_research" {
		t.Fatalf("unexpected skill name %q", skill.Name)
	}
	if len(skill.Tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(skill.Tools))
	}
	for _, name := range []string{"web_search", "web_extract", "web_crawl"} {
		if _, err := skill.GetTool(name); err != nil {
			t.Fatalf("missing tool %s: %v", name, err)
		}
	}
	// Every tool must produce a valid function declaration.
	for _, tool := range skill.Tools {
		params := tool.OpenAI()
		if len(params) != 1 || params[0].OfFunction == nil {
			t.Fatalf("tool %s has no function declaration", tool.Name())
		}
	}
}
