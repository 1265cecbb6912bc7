// Package models holds the backend handles that turn a composed
// conversation into a streamed completion. One constructor per backend
// kind; construction never performs network I/O.
package models

import "context"

// Role values for conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamChunk is one increment of a streamed completion. A chunk with
// Done set is terminal: FullText carries the accumulated text and Err
// the failure, if any. At most one terminal chunk is ever sent.
type StreamChunk struct {
	Delta    string
	FullText string
	Done     bool
	Err      error
}

// ChatModel is a handle to one backend able to stream a chat
// completion. Implementations forward deltas in arrival order and
// close the channel after the terminal chunk.
type ChatModel interface {
	StreamChat(ctx context.Context, model string, messages []Message) (<-chan StreamChunk, error)
}

// send delivers one chunk unless the consumer is gone. Every producer
// send goes through here so a canceled request never blocks a producer
// goroutine.
func send(ctx context.Context, ch chan<- StreamChunk, c StreamChunk) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- c:
		return true
	}
}
