package scoutpod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/boat-builder/scoutpod/prompts"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
)

func MessageWhenToolError(toolCallID string) openai.ChatCompletionMessageParamUnion {
	return openai.ToolMessage("Error occurred while running. Do not retry", toolCallID)
}

func MessageWhenToolErrorWithRetry(errorString string, toolCallID string) openai.ChatCompletionMessageParamUnion {
	return openai.ToolMessage(fmt.Sprintf("Error: %s.\nRetry", errorString), toolCallID)
}

// SkillContextRunner executes one skill's completion loop. It installs the
// skill's system prompt on a cloned history, lets the model call the skill's
// tools (concurrently within a turn) until it answers in plain text, and
// returns that answer as the tool message for the parent call.
func (a *Agent) SkillContextRunner(ctx context.Context, messageHistory *MessageList, llm LLM, usage *Usage, outChan chan Response, memoryBlock *MemoryBlock, skill *Skill, skillToolCallID string) (*openai.ChatCompletionToolMessageParam, error) {
	a.logger.Info("Running skill", "skill", skill.Name)

	systemPrompt, err := prompts.SkillContextRunnerPrompt(prompts.SkillContextRunnerPromptData{
		MainAgentSystemPrompt: a.prompt,
		SkillSystemPrompt:     skill.SystemPrompt,
		MemoryBlocks:          memoryBlock.Parse(),
	})
	if err != nil {
		a.logger.Error("Error rendering skill system prompt", "error", err)
		return MessageWhenToolError(skillToolCallID).OfTool, err
	}
	messageHistory.AddFirst(systemPrompt)

	for turn := 0; turn < a.maxTurns; turn++ {
		params := openai.ChatCompletionNewParams{
			Messages:        messageHistory.All(),
			Model:           llm.StrongModel(),
			ReasoningEffort: shared.ReasoningEffortMedium,
		}
		if len(skill.GetTools()) > 0 {
			params.Tools = skill.GetTools()
		}

		completion, err := llm.New(ctx, params)
		if err != nil {
			a.logger.Error("Error calling LLM while running skill", "skill", skill.Name, "error", err)
			return MessageWhenToolErrorWithRetry("Network error", skillToolCallID).OfTool, err
		}
		usage.Add(completion.Usage)
		if len(completion.Choices) == 0 {
			return MessageWhenToolError(skillToolCallID).OfTool, fmt.Errorf("skill %s: model returned no choices", skill.Name)
		}
		message := completion.Choices[0].Message
		messageHistory.Add(message.ToParam())

		if len(message.ToolCalls) > 0 && message.Content != "" {
			a.logger.Error("Expectation is that tool call and content shouldn't both be non-empty", "skill", skill.Name)
		}

		if len(message.ToolCalls) == 0 {
			if message.Content == "" {
				return MessageWhenToolError(skillToolCallID).OfTool, nil
			}
			return openai.ToolMessage(message.Content, skillToolCallID).OfTool, nil
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		results := make(map[string]openai.ChatCompletionMessageParamUnion)

		for _, toolCall := range message.ToolCalls {
			wg.Add(1)
			go func(toolCallID, name, rawArguments string) {
				defer wg.Done()

				result := a.runTool(ctx, skill, outChan, toolCallID, name, rawArguments)

				mu.Lock()
				results[toolCallID] = result
				mu.Unlock()
			}(toolCall.ID, toolCall.Function.Name, toolCall.Function.Arguments)
		}
		wg.Wait()

		for _, toolCall := range message.ToolCalls {
			messageHistory.Add(results[toolCall.ID])
		}
	}

	a.logger.Error("Skill ended after reaching the turn limit", "skill", skill.Name, "maxTurns", a.maxTurns)
	return openai.ToolMessage("The skill ran out of steps before finishing. Use what has been gathered so far", skillToolCallID).OfTool, nil
}

// runTool executes a single tool call and shapes the failure modes into the
// messages the model should see: retryable errors invite another attempt,
// ignorable ones close the path.
func (a *Agent) runTool(ctx context.Context, skill *Skill, outChan chan Response, toolCallID, name, rawArguments string) openai.ChatCompletionMessageParamUnion {
	tool, err := skill.GetTool(name)
	if err != nil {
		a.logger.Error("Error getting tool", "tool", name, "error", err)
		return MessageWhenToolError(toolCallID)
	}

	if tool.StatusMessage() != "" {
		outChan <- Response{Content: tool.StatusMessage(), Type: ResponseTypeStatus}
	}

	arguments := map[string]interface{}{}
	if err := json.Unmarshal([]byte(rawArguments), &arguments); err != nil {
		a.logger.Error("Error unmarshalling tool arguments", "tool", name, "error", err)
		return MessageWhenToolErrorWithRetry("arguments are not valid JSON", toolCallID)
	}

	a.logger.Info("Tool", "tool", name, "arguments", rawArguments)
	output, err := tool.Execute(ctx, arguments)
	if err != nil {
		a.logger.Error("Error executing tool", "tool", name, "error", err)
		var retErr *RetryableError
		if errors.As(err, &retErr) {
			return MessageWhenToolErrorWithRetry(retErr.Error(), toolCallID)
		}
		return MessageWhenToolError(toolCallID)
	}
	return openai.ToolMessage(output, toolCallID)
}
