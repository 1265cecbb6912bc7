package models

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Protocol-Lattice/go-chatstream/src/config"
)

// ---------------------------- Anthropic ---------------------------------------

const anthropicMaxTokens = 4096

// AnthropicLLM streams responses from the Anthropic Messages API.
type AnthropicLLM struct {
	Provider  string
	Client    *anthropic.Client
	MaxTokens int64
}

// NewAnthropicLLM prepares the client. The SDK carries the production
// endpoint, so a base URL is only needed for proxies.
func NewAnthropicLLM(name string, p *config.Provider) (*AnthropicLLM, error) {
	key, err := credential(name, p)
	if err != nil {
		return nil, err
	}
	opts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(key)}
	if p.BaseURL != "" {
		opts = append(opts, anthropicopt.WithBaseURL(p.BaseURL))
	}
	cl := anthropic.NewClient(opts...)
	return &AnthropicLLM{Provider: name, Client: &cl, MaxTokens: anthropicMaxTokens}, nil
}

func (a *AnthropicLLM) StreamChat(ctx context.Context, model string, messages []Message) (<-chan StreamChunk, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: a.MaxTokens,
	}
	// The Messages API keeps the system prompt outside the turn list.
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params.System = []anthropic.TextBlockParam{{Text: m.Content}}
		case RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	ch := make(chan StreamChunk, 1)
	go func() {
		defer close(ch)

		stream := a.Client.Messages.NewStreaming(ctx, params)
		var sb strings.Builder
		for stream.Next() {
			event := stream.Current()
			switch v := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch d := v.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if d.Text == "" {
						continue
					}
					sb.WriteString(d.Text)
					if !send(ctx, ch, StreamChunk{Delta: d.Text}) {
						return
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			send(ctx, ch, StreamChunk{Done: true, FullText: sb.String(), Err: a.wrapErr(err)})
			return
		}
		send(ctx, ch, StreamChunk{Done: true, FullText: sb.String()})
	}()
	return ch, nil
}

func (a *AnthropicLLM) wrapErr(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &BackendError{Provider: a.Provider, StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
	}
	if isConnErr(err) {
		return &ConnectionError{Provider: a.Provider, Err: err}
	}
	return err
}

var _ ChatModel = (*AnthropicLLM)(nil)
