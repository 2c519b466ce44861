package tavily

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

// maxToolOutputChars caps what a single tool call feeds back into the model
// context. Crawled pages can be arbitrarily large.
const maxToolOutputChars = 20000

func decodeArgs(args map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// wrapAPIError maps service failures onto the agent's retry semantics.
func wrapAPIError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && !apiErr.Temporary() {
		return scoutpod.NewIgnorableError(err)
	}
	return scoutpod.NewRetryableError(err)
}

func functionTool(name, description string, params shared.FunctionParameters) []openai.ChatCompletionToolUnionParam {
	return []openai.ChatCompletionToolUnionParam{
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        name,
			Description: param.NewOpt(description),
			Parameters:  params,
		}),
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "\n[truncated]"
}

// SearchArgs are the model-facing arguments of web_search.
type SearchArgs struct {
	Query      string `json:"query" jsonschema:"description=The search query"`
	Topic      string `json:"topic,omitempty" jsonschema:"enum=general,enum=news,description=Search category"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Number of results to return (default 5)"`
}

// SearchTool exposes Tavily web search as a scoutpod tool.
type SearchTool struct {
	client *Client
}

var _ scoutpod.Tool = &SearchTool{}

func NewSearchTool(client *Client) *SearchTool {
	return &SearchTool{client: client}
}

func (t *SearchTool) Name() string { return "web_search" }

func (t *SearchTool) Description() string {
	return "Search the web and return ranked result snippets with URLs. Use for current events and anything beyond the knowledge base."
}

func (t *SearchTool) StatusMessage() string { return "Searching the web" }

func (t *SearchTool) OpenAI() []openai.ChatCompletionToolUnionParam {
	params, err := scoutpod.FunctionParametersFor[SearchArgs]()
	if err != nil {
		panic(err)
	}
	return functionTool(t.Name(), t.Description(), params)
}

func (t *SearchTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	var searchArgs SearchArgs
	if err := decodeArgs(args, &searchArgs); err != nil {
		return "", scoutpod.NewRetryableError(fmt.Errorf("invalid arguments: %w", err))
	}
	if searchArgs.Query == "" {
		return "", scoutpod.NewRetryableError(errors.New("query is required"))
	}
	if searchArgs.MaxResults <= 0 {
		searchArgs.MaxResults = 5
	}

	resp, err := t.client.Search(ctx, SearchRequest{
		Query:         searchArgs.Query,
		Topic:         searchArgs.Topic,
		MaxResults:    searchArgs.MaxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return "", wrapAPIError(err)
	}

	var builder strings.Builder
	if resp.Answer != "" {
		builder.WriteString(fmt.Sprintf("Summary: %s\n\n", resp.Answer))
	}
	for i, result := range resp.Results {
		builder.WriteString(fmt.Sprintf("%d. %s\n%s\n%s\n\n", i+1, result.Title, result.URL, result.Content))
	}
	if len(resp.Results) == 0 {
		builder.WriteString("No results found")
	}
	return truncate(builder.String(), maxToolOutputChars), nil
}

// ExtractArgs are the model-facing arguments of web_extract.
type ExtractArgs struct {
	URLs []string `json:"urls" jsonschema:"description=URLs to fetch and parse into clean text"`
}

// ExtractTool exposes Tavily content extraction as a scoutpod tool.
type ExtractTool struct {
	client *Client
}

var _ scoutpod.Tool = &ExtractTool{}

func NewExtractTool(client *Client) *ExtractTool {
	return &ExtractTool{client: client}
}

func (t *ExtractTool) Name() string { return "web_extract" }

func (t *ExtractTool) Description() string {
	return "Fetch specific web pages and return their full text content. Use after web_search when a snippet is not enough."
}

func (t *ExtractTool) StatusMessage() string { return "Reading web pages" }

func (t *ExtractTool) OpenAI() []openai.ChatCompletionToolUnionParam {
	params, err := scoutpod.FunctionParametersFor[ExtractArgs]()
	if err != nil {
		panic(err)
	}
	return functionTool(t.Name(), t.Description(), params)
}

func (t *ExtractTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	var extractArgs ExtractArgs
	if err := decodeArgs(args, &extractArgs); err != nil {
		return "", scoutpod.NewRetryableError(fmt.Errorf("invalid arguments: %w", err))
	}
	if len(extractArgs.URLs) == 0 {
		return "", scoutpod.NewRetryableError(errors.New("at least one url is required"))
	}

	resp, err := t.client.Extract(ctx, ExtractRequest{URLs: extractArgs.URLs})
	if err != nil {
		return "", wrapAPIError(err)
	}

	var builder strings.Builder
	for _, result := range resp.Results {
		builder.WriteString(fmt.Sprintf("## %s\n%s\n\n", result.URL, result.RawContent))
	}
	for _, failed := range resp.FailedResults {
		builder.WriteString(fmt.Sprintf("## %s\nFailed to extract: %s\n\n", failed.URL, failed.Error))
	}
	return truncate(builder.String(), maxToolOutputChars), nil
}

// CrawlArgs are the model-facing arguments of web_crawl.
type CrawlArgs struct {
	URL          string `json:"url" jsonschema:"description=Root URL to crawl"`
	Instructions string `json:"instructions,omitempty" jsonschema:"description=Natural-language guidance on which pages matter"`
	MaxDepth     int    `json:"max_depth,omitempty" jsonschema:"description=How many links deep to follow (default 1)"`
}

// CrawlTool exposes Tavily site crawling as a scoutpod tool.
type CrawlTool struct {
	client *Client
}

var _ scoutpod.Tool = &CrawlTool{}

func NewCrawlTool(client *Client) *CrawlTool {
	return &CrawlTool{client: client}
}

func (t *CrawlTool) Name() string { return "web_crawl" }

func (t *CrawlTool) Description() string {
	return "Crawl a website starting from a root URL and return the content of the pages found. Use when the answer is spread across a site."
}

func (t *CrawlTool) StatusMessage() string { return "Crawling the site" }

func (t *CrawlTool) OpenAI() []openai.ChatCompletionToolUnionParam {
	params, err := scoutpod.FunctionParametersFor[CrawlArgs]()
	if err != nil {
		panic(err)
	}
	return functionTool(t.Name(), t.Description(), params)
}

func (t *CrawlTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	var crawlArgs CrawlArgs
	if err := decodeArgs(args, &crawlArgs); err != nil {
		return "", scoutpod.NewRetryableError(fmt.Errorf("invalid arguments: %w", err))
	}
	if crawlArgs.URL == "" {
		return "", scoutpod.NewRetryableError(errors.New("url is required"))
	}
	if crawlArgs.MaxDepth <= 0 {
		crawlArgs.MaxDepth = 1
	}

	resp, err := t.client.Crawl(ctx, CrawlRequest{
		URL:          crawlArgs.URL,
		Instructions: crawlArgs.Instructions,
		MaxDepth:     crawlArgs.MaxDepth,
	})
	if err != nil {
		return "", wrapAPIError(err)
	}

	var builder strings.Builder
	for _, result := range resp.Results {
		builder.WriteString(fmt.Sprintf("## %s\n%s\n\n", result.URL, result.RawContent))
	}
	if len(resp.Results) == 0 {
		builder.WriteString("The crawl returned no pages")
	}
	return truncate(builder.String(), maxToolOutputChars), nil
}

// NewWebResearchSkill bundles the three web tools into the skill the agent
// advertises to the model.
func NewWebResearchSkill(client *Client) scoutpod.Skill {
	return scoutpod.Skill{
		Name:          "web_research",
		Description:   "Research a topic on the live web: search, read specific pages, or crawl a site",
		SystemPrompt:  "You are a web research specialist. Search first, then extract or crawl the most promising sources. Always report the URLs you relied on.",
		StatusMessage: "Researching the web",
		Tools: []scoutpod.Tool{
			NewSearchTool(client),
			NewExtractTool(client),
			NewCrawlTool(client),
		},
	}
}
