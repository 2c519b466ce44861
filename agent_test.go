package scoutpod

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/openai/openai-go/v2"
)

func sseResponse(w http.ResponseWriter, chunks []string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, chunk := range chunks {
		fmt.Fprintf(w, "data: %s\n\n", chunk)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func contentChunk(content string) string {
	return fmt.Sprintf(`{"id":"chatcmpl-test","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"role":"assistant","content":%q},"finish_reason":null}]}`, content)
}

func finishChunk(reason string) string {
	return fmt.Sprintf(`{"id":"chatcmpl-test","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{},"finish_reason":%q}]}`, reason)
}

func usageChunk(prompt, completion int) string {
	return fmt.Sprintf(`{"id":"chatcmpl-test","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[],"usage":{"prompt_tokens":%d,"completion_tokens":%d,"total_tokens":%d}}`, prompt, completion, prompt+completion)
}

func toolCallChunk(callID, name, arguments string) string {
	return fmt.Sprintf(`{"id":"chatcmpl-test","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"role":"assistant","tool_calls":[{"index":0,"id":%q,"type":"function","function":{"name":%q,"arguments":%q}}]},"finish_reason":null}]}`, callID, name, arguments)
}

func collectResponses(t *testing.T, outChan chan Response) (answer string, statuses []string, errs []string) {
	t.Helper()
	for response := range outChan {
		switch response.Type {
		case ResponseTypePartialText:
			answer += response.Content
		case ResponseTypeStatus:
			statuses = append(statuses, response.Content)
		case ResponseTypeError:
			errs = append(errs, response.Content)
		}
	}
	return answer, statuses, errs
}

func TestAgentStreamsPlainAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sseResponse(w, []string{
			contentChunk("Hello "),
			contentChunk("world"),
			finishChunk("stop"),
			usageChunk(10, 5),
		})
	}))
	defer server.Close()

	llm := NewLLM("test-key", server.URL, "o3-mini", "gpt-4o-mini")
	ag := NewAgent("You are a test assistant", nil)
	usage := &Usage{}
	outChan := make(chan Response)

	go ag.Run(context.Background(), llm, NewMessageList(UserMessage("hi")), NewMemoryBlock(), usage, outChan)
	answer, _, errs := collectResponses(t, outChan)

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if answer != "Hello world" {
		t.Fatalf("expected %q, got %q", "Hello world", answer)
	}
	input, output := usage.Tokens()
	if input != 10 || output != 5 {
		t.Fatalf("expected usage 10/5, got %d/%d", input, output)
	}
}

func TestAgentDispatchesSkill(t *testing.T) {
	var streamCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), `"stream":true`) {
			if atomic.AddInt32(&streamCalls, 1) == 1 {
				sseResponse(w, []string{
					toolCallChunk("call_1", "web_research", `{"instruction":"Find the capital of France"}`),
					finishChunk("tool_calls"),
					usageChunk(12, 4),
				})
			} else {
				sseResponse(w, []string{
					contentChunk("Paris"),
					finishChunk("stop"),
					usageChunk(30, 2),
				})
			}
			return
		}
		// The skill loop issues non-streaming completions.
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"chatcmpl-skill","object":"chat.completion","created":1,"model":"o3-mini","choices":[{"index":0,"message":{"role":"assistant","content":"The capital of France is Paris"},"finish_reason":"stop"}],"usage":{"prompt_tokens":20,"completion_tokens":10,"total_tokens":30}}`)
	}))
	defer server.Close()

	llm := NewLLM("test-key", server.URL, "o3-mini", "gpt-4o-mini")
	ag := NewAgent("You are a research assistant", []Skill{{
		Name:          "web_research",
		Description:   "Research a topic on the web",
		SystemPrompt:  "You are a web research specialist",
		StatusMessage: "Researching the web",
	}})
	usage := &Usage{}
	outChan := make(chan Response)

	go ag.Run(context.Background(), llm, NewMessageList(UserMessage("What is the capital of France?")), NewMemoryBlock(), usage, outChan)
	answer, statuses, errs := collectResponses(t, outChan)

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if answer != "Paris" {
		t.Fatalf("expected %q, got %q", "Paris", answer)
	}
	if len(statuses) != 1 || statuses[0] != "Researching the web" {
		t.Fatalf("expected the skill status message, got %v", statuses)
	}
	input, output := usage.Tokens()
	if input != 62 || output != 16 {
		t.Fatalf("expected usage 62/16, got %d/%d", input, output)
	}
}

func TestAgentReportsStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	llm := NewLLM("test-key", server.URL, "o3-mini", "gpt-4o-mini")
	ag := NewAgent("You are a test assistant", nil)
	outChan := make(chan Response)

	go ag.Run(context.Background(), llm, NewMessageList(UserMessage("hi")), NewMemoryBlock(), &Usage{}, outChan)
	answer, _, errs := collectResponses(t, outChan)

	if answer != "" {
		t.Fatalf("expected no answer, got %q", answer)
	}
	if len(errs) != 1 {
		t.Fatalf("expected one error response, got %v", errs)
	}
}

func TestConvertSkillsToTools(t *testing.T) {
	ag := NewAgent("prompt", []Skill{
		{Name: "web_research", Description: "the web"},
		{Name: "knowledge_base", Description: "the docs"},
	})

	tools := ag.ConvertSkillsToTools()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	for i, name := range []string{"web_research", "knowledge_base"} {
		if tools[i].OfFunction == nil {
			t.Fatalf("tool %d is not a function tool", i)
		}
		if got := tools[i].OfFunction.Function.Name; got != name {
			t.Fatalf("expected tool name %q, got %q", name, got)
		}
	}
}

type stubTool struct {
	name    string
	execute func(ctx context.Context, args map[string]interface{}) (string, error)
}

func (s *stubTool) Name() string          { return s.name }
func (s *stubTool) Description() string   { return "stub tool" }
func (s *stubTool) StatusMessage() string { return "" }

func (s *stubTool) OpenAI() []openai.ChatCompletionToolUnionParam { return nil }

func (s *stubTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	return s.execute(ctx, args)
}

func TestRunToolErrorShaping(t *testing.T) {
	retrying := &stubTool{name: "retrying", execute: func(ctx context.Context, args map[string]interface{}) (string, error) {
		return "", NewRetryableError(errors.New("rate limited"))
	}}
	failing := &stubTool{name: "failing", execute: func(ctx context.Context, args map[string]interface{}) (string, error) {
		return "", NewIgnorableError(errors.New("bad url"))
	}}
	succeeding := &stubTool{name: "succeeding", execute: func(ctx context.Context, args map[string]interface{}) (string, error) {
		return "all good", nil
	}}

	skill := Skill{Name: "test_skill", Tools: []Tool{retrying, failing, succeeding}}
	ag := NewAgent("prompt", []Skill{skill})
	outChan := make(chan Response, 8)

	cases := []struct {
		toolName  string
		arguments string
		want      string
	}{
		{"retrying", `{}`, "Error: rate limited.\nRetry"},
		{"failing", `{}`, "Error occurred while running. Do not retry"},
		{"succeeding", `{}`, "all good"},
		{"missing", `{}`, "Error occurred while running. Do not retry"},
		{"succeeding", `not-json`, "Error: arguments are not valid JSON.\nRetry"},
	}
	for _, tc := range cases {
		result := ag.runTool(context.Background(), &skill, outChan, "call_1", tc.toolName, tc.arguments)
		if result.OfTool == nil {
			t.Fatalf("%s: expected a tool message", tc.toolName)
		}
		if got := result.OfTool.Content.OfString.Value; got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.toolName, tc.want, got)
		}
	}
}
