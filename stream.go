package chatstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Protocol-Lattice/go-chatstream/src/config"
	"github.com/Protocol-Lattice/go-chatstream/src/models"
	"github.com/Protocol-Lattice/go-chatstream/src/observability"
)

// StreamQuestion runs one chat turn and returns the response as a lazy,
// single-pass chunk stream. The channel closes after the terminal
// chunk. Every failure mode surfaces in-band as exactly one terminal
// error chunk, so the caller never needs a second error path. No
// retries: a failure ends the request.
func (s *Service) StreamQuestion(ctx context.Context, req Request) <-chan models.StreamChunk {
	ch := make(chan models.StreamChunk, 1)
	go func() {
		defer close(ch)
		s.run(ctx, req, ch)
	}()
	return ch
}

func (s *Service) run(ctx context.Context, req Request, ch chan<- models.StreamChunk) {
	log := observability.LoggerFromContext(ctx)

	// Reject before touching any backend.
	if strings.TrimSpace(req.Prompt) == "" || req.Provider == "" || req.Model == "" {
		s.fail(ctx, ch, validationErrorf("missing required fields: message, provider, or model"))
		return
	}

	sel, err := s.selector(ctx, s.cfg, req.Provider, req.Model)
	if err != nil {
		s.fail(ctx, ch, err)
		return
	}
	defer releaseHandle(log, sel.Handle)

	system, exact := s.cfg.Personas.Resolve(req.Persona)
	if !exact {
		log.Warn("persona not configured, using fallback", "persona", req.Persona)
	}

	fileContext, err := s.assembler.Assemble(ctx, req.Files)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Per-file failures are already rendered in-band by the
		// pipeline, so an error here is assembler-level. The request
		// carries on with prompt-only content.
		log.Warn("file context assembly failed, continuing without file context", "error", err)
		warn := fmt.Sprintf("[Warning: file processing failed: %v. Continuing without file context.]\n\n", err)
		if !send(ctx, ch, models.StreamChunk{Delta: warn, FullText: warn}) {
			return
		}
		fileContext = ""
	}

	msgs := ComposeMessages(system, req.History, req.Prompt, fileContext)
	log.Info("starting chat stream",
		"provider", sel.Provider,
		"model", sel.Model,
		"messages", len(msgs),
		"files", len(req.Files))

	stream, err := sel.Handle.StreamChat(ctx, sel.Model, msgs)
	if err != nil {
		s.fail(ctx, ch, err)
		return
	}

	for chunk := range stream {
		if chunk.Err != nil {
			s.fail(ctx, ch, chunk.Err)
			return
		}
		if !send(ctx, ch, chunk) {
			return
		}
		if chunk.Done {
			return
		}
	}
}

// fail converts err into the single terminal error chunk of the
// stream. The error text rides in Delta as well, so a consumer that
// only renders deltas still shows the failure.
func (s *Service) fail(ctx context.Context, ch chan<- models.StreamChunk, err error) {
	observability.LoggerFromContext(ctx).Error("chat stream failed", "error", err)
	text := "Error: " + errorMessage(err)
	send(ctx, ch, models.StreamChunk{Delta: text, FullText: text, Err: err, Done: true})
}

// errorMessage maps the error taxonomy onto user-visible wording:
// backend API failures, configuration and validation problems,
// connection failures, and a catch-all.
func errorMessage(err error) string {
	var backendErr *models.BackendError
	var connErr *models.ConnectionError
	var configErr *config.ConfigurationError
	var validationErr *ValidationError
	switch {
	case errors.As(err, &backendErr):
		return backendErr.Error()
	case errors.As(err, &configErr):
		return "Configuration or Value Error: " + configErr.Reason
	case errors.As(err, &validationErr):
		return "Configuration or Value Error: " + validationErr.Reason
	case errors.As(err, &connErr):
		return connErr.Error()
	default:
		return fmt.Sprintf("An unexpected error occurred during generation: %v", err)
	}
}

// releaseHandle closes backend handles that hold a connection, such as
// the gemini client.
func releaseHandle(log *slog.Logger, h models.ChatModel) {
	c, ok := h.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("closing backend handle", "error", err)
	}
}

// send delivers one chunk unless the consumer is gone. Selecting on
// ctx.Done for every send keeps a canceled request from blocking the
// producer goroutine.
func send(ctx context.Context, ch chan<- models.StreamChunk, c models.StreamChunk) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- c:
		return true
	}
}
