package models

import (
	"context"
	"fmt"
	"strings"
)

// DummyLLM is a backend stand-in for tests and local runs without API
// calls. It answers with the last user message, streamed word by word.
type DummyLLM struct {
	Prefix string
	// FailWith, when set, ends the stream with this error after the
	// first delta.
	FailWith error
}

func NewDummyLLM(prefix string) *DummyLLM {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyLLM{Prefix: prefix}
}

func (d *DummyLLM) StreamChat(ctx context.Context, _ string, messages []Message) (<-chan StreamChunk, error) {
	var lastUser string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			lastUser = messages[i].Content
			break
		}
	}
	if lastUser == "" {
		lastUser = "<empty prompt>"
	}
	reply := fmt.Sprintf("%s %s", d.Prefix, lastUser)

	ch := make(chan StreamChunk, 1)
	go func() {
		defer close(ch)

		var sb strings.Builder
		for i, word := range strings.Fields(reply) {
			if i > 0 {
				word = " " + word
			}
			sb.WriteString(word)
			if !send(ctx, ch, StreamChunk{Delta: word}) {
				return
			}
			if d.FailWith != nil {
				send(ctx, ch, StreamChunk{Done: true, FullText: sb.String(), Err: d.FailWith})
				return
			}
		}
		send(ctx, ch, StreamChunk{Done: true, FullText: sb.String()})
	}()
	return ch, nil
}

var _ ChatModel = (*DummyLLM)(nil)
