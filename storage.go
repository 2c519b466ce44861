package scoutpod

import "context"

// Storage persists conversations so past research is reviewable and can be
// replayed into a new session's history.
type Storage interface {
	// CreateConversation records the user message when a session starts.
	CreateConversation(ctx context.Context, sessionID, customerID, userMessage string) error

	// FinishConversation attaches the final assistant answer to an existing
	// conversation.
	FinishConversation(ctx context.Context, sessionID, assistantMessage string) error

	// GetConversations returns past exchanges for a customer, most recent
	// first, as alternating user/assistant messages.
	GetConversations(ctx context.Context, customerID string, limit, offset int) (*MessageList, error)
}
