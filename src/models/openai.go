package models

import (
	"context"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Protocol-Lattice/go-chatstream/src/config"
)

// ---------------------------- OpenAI-compatible -------------------------------

// OpenAILLM speaks to any OpenAI-compatible chat completion endpoint.
// The hosted providers of the default config (IONOS and Google's
// compatibility endpoint) both go through here.
type OpenAILLM struct {
	Provider string
	Client   *openai.Client
}

// NewOpenAILLM validates credential and endpoint and prepares the
// client. OpenAI-compatible providers have no default endpoint, so the
// base URL must be configured.
func NewOpenAILLM(name string, p *config.Provider) (*OpenAILLM, error) {
	key, err := credential(name, p)
	if err != nil {
		return nil, err
	}
	if p.BaseURL == "" {
		return nil, config.Errorf("base URL not configured for %s", name)
	}
	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = p.BaseURL
	return &OpenAILLM{Provider: name, Client: openai.NewClientWithConfig(cfg)}, nil
}

func (o *OpenAILLM) StreamChat(ctx context.Context, model string, messages []Message) (<-chan StreamChunk, error) {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(messages),
		Stream:   true,
	}

	ch := make(chan StreamChunk, 1)
	go func() {
		defer close(ch)

		stream, err := o.Client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			send(ctx, ch, StreamChunk{Done: true, Err: o.wrapErr(err)})
			return
		}
		defer stream.Close()

		var sb strings.Builder
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				send(ctx, ch, StreamChunk{Done: true, FullText: sb.String()})
				return
			}
			if err != nil {
				send(ctx, ch, StreamChunk{Done: true, FullText: sb.String(), Err: o.wrapErr(err)})
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			sb.WriteString(delta)
			if !send(ctx, ch, StreamChunk{Delta: delta}) {
				return
			}
		}
	}()
	return ch, nil
}

func (o *OpenAILLM) wrapErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &BackendError{Provider: o.Provider, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	if isConnErr(err) {
		return &ConnectionError{Provider: o.Provider, Err: err}
	}
	return err
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

var _ ChatModel = (*OpenAILLM)(nil)
