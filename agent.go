package scoutpod

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"context"

	"github.com/boat-builder/scoutpod/prompts"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/openai/openai-go/v2/shared"
)

// DefaultMaxTurns bounds the number of model round-trips in a single run so
// a confused model cannot loop on tool calls forever.
const DefaultMaxTurns = 10

// Agent orchestrates calls to the LLM, dispatches skills, and streams the
// answer. The same Agent can serve many sessions; all per-conversation state
// lives in the arguments of Run.
type Agent struct {
	prompt   string
	skills   []Skill
	maxTurns int
	logger   *slog.Logger
}

// NewAgent creates an Agent with the given system prompt and skills.
func NewAgent(prompt string, skills []Skill) *Agent {
	return &Agent{
		prompt:   prompt,
		skills:   skills,
		maxTurns: DefaultMaxTurns,
		logger:   slog.Default(),
	}
}

func (a *Agent) SetLogger(logger *slog.Logger) {
	a.logger = logger
}

// SetMaxTurns overrides the round-trip bound. Values below 1 are ignored.
func (a *Agent) SetMaxTurns(turns int) {
	if turns >= 1 {
		a.maxTurns = turns
	}
}

func (a *Agent) GetSkill(name string) (*Skill, error) {
	for i := range a.skills {
		if a.skills[i].Name == name {
			return &a.skills[i], nil
		}
	}
	return nil, errors.New("skill " + name + " not found")
}

// ConvertSkillsToTools advertises each skill as a single function. The
// model passes an instruction describing the step; the skill loop decides
// which of its own tools to call.
func (a *Agent) ConvertSkillsToTools() []openai.ChatCompletionToolUnionParam {
	tools := []openai.ChatCompletionToolUnionParam{}
	for _, skill := range a.skills {
		tools = append(tools, openai.ChatCompletionFunctionTool(
			shared.FunctionDefinitionParam{
				Name:        skill.Name,
				Description: param.NewOpt(skill.Description),
				Parameters: shared.FunctionParameters{
					"type": "object",
					"properties": map[string]interface{}{
						"instruction": map[string]interface{}{
							"type":        "string",
							"description": "What this skill should accomplish in this step",
						},
					},
					"required": []string{"instruction"},
				},
			},
		))
	}
	return tools
}

// Run drives the conversation until the model stops calling skills or the
// turn budget runs out. Chunks of the answer, skill status updates, and
// errors are sent on outChan; the channel is closed when the run finishes.
func (a *Agent) Run(ctx context.Context, llm LLM, messageHistory *MessageList, memoryBlock *MemoryBlock, usage *Usage, outChan chan Response) {
	defer close(outChan)

	if memoryBlock == nil {
		memoryBlock = NewMemoryBlock()
	}
	systemPrompt, err := prompts.ResearcherPrompt(prompts.ResearcherPromptData{
		SystemPrompt: a.prompt,
		MemoryBlocks: memoryBlock.Parse(),
		CurrentDate:  time.Now().Format("2006-01-02"),
	})
	if err != nil {
		a.logger.Error("Error rendering system prompt", "error", err)
		outChan <- Response{Content: err.Error(), Type: ResponseTypeError}
		return
	}
	messageHistory.AddFirst(systemPrompt)

	skillTools := a.ConvertSkillsToTools()

	for turn := 0; turn < a.maxTurns; turn++ {
		params := openai.ChatCompletionNewParams{
			Messages: messageHistory.All(),
			Model:    llm.GenerationModel(),
			StreamOptions: openai.ChatCompletionStreamOptionsParam{
				IncludeUsage: param.NewOpt(true),
			},
		}
		if len(skillTools) > 0 {
			params.Tools = skillTools
		}

		stream := llm.NewStreaming(ctx, params)
		completion := openai.ChatCompletionAccumulator{}
		for stream.Next() {
			chunk := stream.Current()
			completion.AddChunk(chunk)
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				outChan <- Response{
					Content: chunk.Choices[0].Delta.Content,
					Type:    ResponseTypePartialText,
				}
			}
		}
		if err := stream.Err(); err != nil {
			stream.Close()
			a.logger.Error("Error streaming completion", "error", err)
			outChan <- Response{Content: err.Error(), Type: ResponseTypeError}
			return
		}
		stream.Close()
		usage.Add(completion.Usage)

		if len(completion.Choices) == 0 {
			a.logger.Error("Completion has no choices")
			outChan <- Response{Content: "model returned no choices", Type: ResponseTypeError}
			return
		}
		message := completion.Choices[0].Message

		// Not fatal, but the flow assumes the model either talks or calls a
		// skill, never both in one turn.
		if len(message.ToolCalls) > 0 && message.Content != "" {
			a.logger.Error("Expectation is that tool call and content shouldn't both be non-empty")
		}

		// Clone before appending the assistant message so skill loops see the
		// history as it was when the skill was selected.
		clonedMessages := messageHistory.CloneWithoutDeveloperMessages()
		messageHistory.Add(message.ToParam())

		if len(message.ToolCalls) == 0 {
			return
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		results := make(map[string]openai.ChatCompletionMessageParamUnion)

		for _, toolCall := range message.ToolCalls {
			skill, err := a.GetSkill(toolCall.Function.Name)
			if err != nil {
				a.logger.Error("Error getting skill", "skill", toolCall.Function.Name, "error", err)
				mu.Lock()
				results[toolCall.ID] = MessageWhenToolError(toolCall.ID)
				mu.Unlock()
				continue
			}

			if skill.StatusMessage != "" {
				outChan <- Response{Content: skill.StatusMessage, Type: ResponseTypeStatus}
			}

			wg.Add(1)
			go func(skill *Skill, toolCallID string) {
				defer wg.Done()
				result, err := a.SkillContextRunner(ctx, clonedMessages.Clone(), llm, usage, outChan, memoryBlock, skill, toolCallID)
				if err != nil {
					a.logger.Error("Error running skill", "skill", skill.Name, "error", err)
				}

				mu.Lock()
				results[toolCallID] = openai.ChatCompletionMessageParamUnion{OfTool: result}
				mu.Unlock()
			}(skill, toolCall.ID)
		}
		wg.Wait()

		// Tool results must follow the assistant message in call order.
		for _, toolCall := range message.ToolCalls {
			if result, ok := results[toolCall.ID]; ok {
				messageHistory.Add(result)
			}
		}
	}

	a.logger.Error("Run ended after reaching the turn limit", "maxTurns", a.maxTurns)
	outChan <- Response{Content: "turn limit reached before the research finished", Type: ResponseTypeError}
}
