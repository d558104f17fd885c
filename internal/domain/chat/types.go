// Package chat orchestrates inbound messages: greetings, the FAQ flow,
// follow-up elaboration, and retrieval-augmented answers.
package chat

import (
	"time"

	"github.com/yanqian/campusbot/pkg/metrics"
)

// Channel identifies the surface a message arrived on.
type Channel string

const (
	ChannelWeb      Channel = "web"
	ChannelWhatsApp Channel = "whatsapp"
)

// Request is one inbound user message.
type Request struct {
	UserID  string  `json:"userId"`
	Message string  `json:"message"`
	Channel Channel `json:"channel"`
}

// ReplySource tags which pipeline produced the reply.
type ReplySource string

const (
	SourceGreeting  ReplySource = "greeting"
	SourceFAQ       ReplySource = "faq"
	SourceExplain   ReplySource = "explain"
	SourceRetrieval ReplySource = "retrieval"
	SourceClarify   ReplySource = "clarify"
)

// Reply is the rendered answer sent back to the user.
type Reply struct {
	Text   string             `json:"text"`
	Source ReplySource        `json:"source"`
	Usage  metrics.TokenUsage `json:"usage,omitempty"`
}

// LastReply is the per-user context kept for "explain more" follow-ups.
type LastReply struct {
	Query    string    `json:"query"`
	Response string    `json:"response"`
	Context  []string  `json:"context"`
	StoredAt time.Time `json:"storedAt"`
}
