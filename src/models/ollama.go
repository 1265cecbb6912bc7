package models

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"

	ollama "github.com/ollama/ollama/api"

	"github.com/Protocol-Lattice/go-chatstream/src/config"
)

// ---------------------------- Ollama ------------------------------------------

const defaultOllamaHost = "http://localhost:11434"

// OllamaLLM talks to a locally hosted backend over its native API.
// No credential is required; a configured one is accepted and ignored.
type OllamaLLM struct {
	Provider string
	Client   *ollama.Client
}

// NewOllamaLLM prepares the native client. Host resolution order:
// OLLAMA_HOST, the configured base URL, the standard local default.
func NewOllamaLLM(name string, p *config.Provider) (*OllamaLLM, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = p.BaseURL
	}
	if host == "" {
		host = defaultOllamaHost
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, config.Errorf("invalid base URL %q for %s: %v", host, name, err)
	}
	// No client timeout: streams are long-lived and the request context
	// is the cancellation mechanism.
	return &OllamaLLM{Provider: name, Client: ollama.NewClient(u, &http.Client{})}, nil
}

func (o *OllamaLLM) StreamChat(ctx context.Context, model string, messages []Message) (<-chan StreamChunk, error) {
	req := &ollama.ChatRequest{
		Model:    model,
		Messages: toOllamaMessages(messages),
	}

	ch := make(chan StreamChunk, 1)
	go func() {
		defer close(ch)

		var sb strings.Builder
		err := o.Client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
			if resp.Message.Content == "" {
				return nil
			}
			sb.WriteString(resp.Message.Content)
			if !send(ctx, ch, StreamChunk{Delta: resp.Message.Content}) {
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			send(ctx, ch, StreamChunk{Done: true, FullText: sb.String(), Err: o.wrapErr(err)})
			return
		}
		send(ctx, ch, StreamChunk{Done: true, FullText: sb.String()})
	}()
	return ch, nil
}

// ListLocalModels asks the backend which models it has pulled. Purely
// informational; request-time selection never depends on it.
func (o *OllamaLLM) ListLocalModels(ctx context.Context) ([]string, error) {
	resp, err := o.Client.List(ctx)
	if err != nil {
		return nil, o.wrapErr(err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (o *OllamaLLM) wrapErr(err error) error {
	var statusErr ollama.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.ErrorMessage
		if msg == "" {
			msg = statusErr.Status
		}
		return &BackendError{Provider: o.Provider, StatusCode: statusErr.StatusCode, Message: msg}
	}
	if isConnErr(err) {
		return &ConnectionError{Provider: o.Provider, Err: err}
	}
	return err
}

func toOllamaMessages(msgs []Message) []ollama.Message {
	out := make([]ollama.Message, len(msgs))
	for i, m := range msgs {
		out[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

var _ ChatModel = (*OllamaLLM)(nil)
