// Package chatstream drives one chat turn end to end: uploaded files
// are extracted into a bounded context string, a persona system prompt
// and the conversation history are composed with the user prompt, and
// the configured backend streams the response back as chunks.
package chatstream

import (
	"context"
	"errors"

	"github.com/Protocol-Lattice/go-chatstream/src/config"
	"github.com/Protocol-Lattice/go-chatstream/src/filectx"
	"github.com/Protocol-Lattice/go-chatstream/src/models"
	"github.com/Protocol-Lattice/go-chatstream/src/sanitize"
)

// Request carries one chat turn from the front-end.
type Request struct {
	Provider string
	Model    string
	Persona  string
	Prompt   string
	History  []models.Message
	Files    []filectx.UploadedFile
}

// SelectorFunc resolves a provider and model pair into a ready backend
// handle.
type SelectorFunc func(ctx context.Context, cfg *config.Config, provider, model string) (*models.Selection, error)

// Service wires extraction, persona resolution, provider selection and
// streaming behind a single operation, StreamQuestion.
type Service struct {
	cfg       *config.Config
	assembler *filectx.Assembler
	sanitizer *sanitize.Sanitizer
	selector  SelectorFunc
}

// Options configure a new Service.
type Options struct {
	Config *config.Config
	// Assembler overrides the one derived from Config when set.
	Assembler *filectx.Assembler
	// Selector overrides backend resolution. Tests use it to
	// substitute fake backends.
	Selector SelectorFunc
}

// New creates a Service with the provided options.
func New(opts Options) (*Service, error) {
	if opts.Config == nil {
		return nil, errors.New("service requires a configuration")
	}

	asm := opts.Assembler
	if asm == nil {
		asm = filectx.NewAssembler()
		asm.MaxContextChars = opts.Config.Server.MaxContextChars
		asm.MaxFileBytes = opts.Config.Files.MaxFileBytes
		asm.Workers = opts.Config.Files.Workers
	}

	selector := opts.Selector
	if selector == nil {
		selector = models.Select
	}

	return &Service{
		cfg:       opts.Config,
		assembler: asm,
		sanitizer: sanitize.New(opts.Config.HTMLSanitization),
		selector:  selector,
	}, nil
}

// Config returns the read-only configuration the service was built with.
func (s *Service) Config() *config.Config { return s.cfg }

// Sanitizer returns the HTML cleaning policy for display-path callers.
func (s *Service) Sanitizer() *sanitize.Sanitizer { return s.sanitizer }

// LocalModels lists the models a locally-hosted provider currently
// serves. Only ollama-kind providers support discovery; failures here
// never affect request-time selection.
func (s *Service) LocalModels(ctx context.Context, provider string) ([]string, error) {
	p, ok := s.cfg.Provider(provider)
	if !ok {
		return nil, config.Errorf("unknown provider: %q", provider)
	}
	if p.Kind != config.KindOllama {
		return nil, config.Errorf("provider %q is not locally hosted", provider)
	}
	handle, err := models.NewOllamaLLM(provider, p)
	if err != nil {
		return nil, err
	}
	return handle.ListLocalModels(ctx)
}
