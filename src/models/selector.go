package models

import (
	"context"
	"os"

	"github.com/Protocol-Lattice/go-chatstream/src/config"
)

// Selection is the outcome of resolving a chat request against the
// configuration: a ready backend handle plus the model to use.
type Selection struct {
	Provider string
	Model    string
	Handle   ChatModel
}

// Select resolves the provider and model against cfg and constructs the
// backend handle. No network I/O happens here; unreachable backends
// only fail once the stream starts.
func Select(ctx context.Context, cfg *config.Config, provider, model string) (*Selection, error) {
	p, ok := cfg.Provider(provider)
	if !ok {
		return nil, config.Errorf("unknown provider: %q", provider)
	}
	resolved, err := resolveModel(provider, p, model)
	if err != nil {
		return nil, err
	}
	handle, err := newHandle(ctx, provider, p)
	if err != nil {
		return nil, err
	}
	return &Selection{Provider: provider, Model: resolved, Handle: handle}, nil
}

// resolveModel applies the fallback chain: requested model when listed,
// then the configured default, then the first listed model.
func resolveModel(provider string, p *config.Provider, requested string) (string, error) {
	if requested != "" && p.HasModel(requested) {
		return requested, nil
	}
	if p.DefaultModel != "" {
		return p.DefaultModel, nil
	}
	if len(p.Models) > 0 {
		return p.Models[0], nil
	}
	return "", config.Errorf("no valid model for provider %q", provider)
}

// newHandle builds the backend handle for the provider's kind. The set
// of kinds is closed: a new backend means a new config.Kind constant
// plus one constructor case here.
func newHandle(ctx context.Context, name string, p *config.Provider) (ChatModel, error) {
	switch p.Kind {
	case config.KindOpenAI:
		return NewOpenAILLM(name, p)
	case config.KindOllama:
		return NewOllamaLLM(name, p)
	case config.KindAnthropic:
		return NewAnthropicLLM(name, p)
	case config.KindGemini:
		return NewGeminiLLM(ctx, name, p)
	}
	return nil, config.Errorf("unknown provider kind %q for %s", p.Kind, name)
}

// credential reads the provider's API key, preferring an inline config
// value over the environment variable named by api_key_env.
func credential(name string, p *config.Provider) (string, error) {
	if p.APIKey != "" {
		return p.APIKey, nil
	}
	if p.APIKeyEnv == "" {
		return "", config.Errorf("API key environment variable not configured for %s", name)
	}
	key := os.Getenv(p.APIKeyEnv)
	if key == "" {
		return "", config.Errorf("API key environment variable %q not found for %s", p.APIKeyEnv, name)
	}
	return key, nil
}
