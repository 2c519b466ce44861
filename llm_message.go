package scoutpod

import (
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/packages/param"
)

func UserMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.UserMessage(content)
}

func AssistantMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.AssistantMessage(content)
}

func DeveloperMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.DeveloperMessage(content)
}

// MessageList holds an ordered collection of chat messages to preserve the
// conversation history.
type MessageList struct {
	Messages []openai.ChatCompletionMessageParamUnion
}

func NewMessageList(msgs ...openai.ChatCompletionMessageParamUnion) *MessageList {
	return &MessageList{Messages: msgs}
}

func (ml *MessageList) Len() int {
	return len(ml.Messages)
}

// Add appends one or more messages in FIFO order.
func (ml *MessageList) Add(msgs ...openai.ChatCompletionMessageParamUnion) {
	ml.Messages = append(ml.Messages, msgs...)
}

// AddFirst prepends the prompt as a developer message.
func (ml *MessageList) AddFirst(prompt string) {
	ml.Messages = append([]openai.ChatCompletionMessageParamUnion{DeveloperMessage(prompt)}, ml.Messages...)
}

func (ml *MessageList) All() []openai.ChatCompletionMessageParamUnion {
	return ml.Messages
}

// Clone returns a shallow copy that can be mutated independently.
func (ml *MessageList) Clone() *MessageList {
	cloned := make([]openai.ChatCompletionMessageParamUnion, len(ml.Messages))
	copy(cloned, ml.Messages)
	return &MessageList{Messages: cloned}
}

// CloneWithoutDeveloperMessages returns a copy that excludes developer and
// system messages, preserving the order of the rest. Used when handing the
// history to a skill loop that installs its own system prompt.
func (ml *MessageList) CloneWithoutDeveloperMessages() *MessageList {
	filtered := make([]openai.ChatCompletionMessageParamUnion, 0, len(ml.Messages))
	for _, msg := range ml.Messages {
		if msg.OfDeveloper == nil && msg.OfSystem == nil {
			filtered = append(filtered, msg)
		}
	}
	return &MessageList{Messages: filtered}
}

// LastUserMessageString returns the content of the most recent user message,
// or "" when there is none.
func (ml *MessageList) LastUserMessageString() string {
	for i := len(ml.Messages) - 1; i >= 0; i-- {
		msg := ml.Messages[i]
		if msg.OfUser != nil && !param.IsOmitted(msg.OfUser.Content.OfString) {
			return msg.OfUser.Content.OfString.Value
		}
	}
	return ""
}

func (ml *MessageList) Clear() {
	ml.Messages = nil
}

// String renders the history for debugging.
func (ml *MessageList) String() string {
	out := ""
	for _, msg := range ml.Messages {
		role := "unknown"
		content := ""

		switch {
		case msg.OfUser != nil:
			role = "user"
			if !param.IsOmitted(msg.OfUser.Content.OfString) {
				content = msg.OfUser.Content.OfString.Value
			}
		case msg.OfAssistant != nil:
			role = "assistant"
			if !param.IsOmitted(msg.OfAssistant.Content.OfString) {
				content = msg.OfAssistant.Content.OfString.Value
			}
			for _, toolCall := range msg.OfAssistant.ToolCalls {
				if toolCall.OfFunction != nil {
					content += fmt.Sprintf("\n- Function: %s", toolCall.OfFunction.Function.Name)
					content += fmt.Sprintf("\n  Arguments: %s", toolCall.OfFunction.Function.Arguments)
				}
			}
		case msg.OfDeveloper != nil:
			role = "developer"
			if !param.IsOmitted(msg.OfDeveloper.Content.OfString) {
				content = msg.OfDeveloper.Content.OfString.Value
			}
		case msg.OfTool != nil:
			role = "tool"
			if !param.IsOmitted(msg.OfTool.Content.OfString) {
				content = msg.OfTool.Content.OfString.Value
			}
		}

		out += fmt.Sprintf("Role: %s\nContent: %s\n\n", role, content)
	}
	return out
}
