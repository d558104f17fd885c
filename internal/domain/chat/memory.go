package chat

import "context"

// ReplyMemory keeps the most recent answer per user so "explain more"
// follow-ups can reuse the same query, response, and retrieval context.
// Implementations expire entries on their own; the service additionally
// rejects entries older than Config.ExplainWindow.
type ReplyMemory interface {
	Store(ctx context.Context, userID string, reply LastReply) error
	Get(ctx context.Context, userID string) (LastReply, bool, error)
	Clear(ctx context.Context, userID string) error
}
