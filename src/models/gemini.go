package models

import (
	"context"
	"errors"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/Protocol-Lattice/go-chatstream/src/config"
)

// ---------------------------- Google Gemini ----------------------------------

// GeminiLLM streams responses from the Google Generative AI API.
type GeminiLLM struct {
	Provider string
	Client   *genai.Client
}

// NewGeminiLLM prepares the client. The SDK knows its endpoint, so only
// the credential is mandatory.
func NewGeminiLLM(ctx context.Context, name string, p *config.Provider) (*GeminiLLM, error) {
	key, err := credential(name, p)
	if err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, config.Errorf("gemini client for %s: %v", name, err)
	}
	return &GeminiLLM{Provider: name, Client: client}, nil
}

// StreamChat sends the final user turn with the preceding turns as chat
// history. The conversation must end with a user message.
func (g *GeminiLLM) StreamChat(ctx context.Context, model string, messages []Message) (<-chan StreamChunk, error) {
	if len(messages) == 0 || messages[len(messages)-1].Role != RoleUser {
		return nil, errors.New("gemini: conversation must end with a user message")
	}

	gm := g.Client.GenerativeModel(model)
	var history []*genai.Content
	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case RoleSystem:
			gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(m.Content)}}
		case RoleUser:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		case RoleAssistant:
			// Gemini calls the assistant side "model".
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	prompt := messages[len(messages)-1].Content

	ch := make(chan StreamChunk, 1)
	go func() {
		defer close(ch)

		cs := gm.StartChat()
		cs.History = history
		iter := cs.SendMessageStream(ctx, genai.Text(prompt))

		var sb strings.Builder
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				send(ctx, ch, StreamChunk{Done: true, FullText: sb.String()})
				return
			}
			if err != nil {
				send(ctx, ch, StreamChunk{Done: true, FullText: sb.String(), Err: g.wrapErr(err)})
				return
			}
			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					txt, ok := part.(genai.Text)
					if !ok || txt == "" {
						continue
					}
					sb.WriteString(string(txt))
					if !send(ctx, ch, StreamChunk{Delta: string(txt)}) {
						return
					}
				}
			}
		}
	}()
	return ch, nil
}

// Close releases the underlying API connection.
func (g *GeminiLLM) Close() error { return g.Client.Close() }

func (g *GeminiLLM) wrapErr(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &BackendError{Provider: g.Provider, StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	if isConnErr(err) {
		return &ConnectionError{Provider: g.Provider, Err: err}
	}
	return err
}

var _ ChatModel = (*GeminiLLM)(nil)
