package models

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func collect(t *testing.T, ch <-chan StreamChunk) []StreamChunk {
	t.Helper()
	var out []StreamChunk
	deadline := time.After(5 * time.Second)
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, c)
		case <-deadline:
			t.Fatalf("stream did not finish; got %d chunks", len(out))
		}
	}
}

func TestDummyStreamChat(t *testing.T) {
	d := NewDummyLLM("Echo:")
	ch, err := d.StreamChat(context.Background(), "any-model", []Message{
		{Role: RoleSystem, Content: "You are a helpful assistant."},
		{Role: RoleUser, Content: "one two three"},
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	chunks := collect(t, ch)
	if len(chunks) == 0 {
		t.Fatalf("no chunks received")
	}

	last := chunks[len(chunks)-1]
	if !last.Done || last.Err != nil {
		t.Fatalf("terminal chunk = %+v", last)
	}
	var assembled strings.Builder
	doneCount := 0
	for _, c := range chunks {
		if c.Done {
			doneCount++
			continue
		}
		if c.Delta == "" {
			t.Fatalf("empty delta chunk: %+v", c)
		}
		assembled.WriteString(c.Delta)
	}
	if doneCount != 1 {
		t.Fatalf("terminal chunk count = %d, want 1", doneCount)
	}
	if assembled.String() != last.FullText {
		t.Fatalf("deltas %q do not reassemble FullText %q", assembled.String(), last.FullText)
	}
	if want := "Echo: one two three"; last.FullText != want {
		t.Fatalf("FullText = %q, want %q", last.FullText, want)
	}
}

func TestDummyStreamChatFailure(t *testing.T) {
	boom := errors.New("backend exploded")
	d := &DummyLLM{Prefix: "Echo:", FailWith: boom}

	ch, err := d.StreamChat(context.Background(), "m", []Message{{Role: RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	chunks := collect(t, ch)

	terminals := 0
	for _, c := range chunks {
		if c.Done {
			terminals++
			if !errors.Is(c.Err, boom) {
				t.Fatalf("terminal Err = %v, want %v", c.Err, boom)
			}
		}
	}
	if terminals != 1 {
		t.Fatalf("terminal chunks = %d, want exactly 1", terminals)
	}
}

func TestDummyStreamChatCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDummyLLM("Echo:")

	ch, err := d.StreamChat(ctx, "m", []Message{{Role: RoleUser, Content: strings.Repeat("word ", 200)}})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	// Take one chunk, then walk away.
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("no first chunk")
	}
	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return // producer shut down cleanly
			}
		case <-deadline:
			t.Fatalf("producer did not stop after cancellation")
		}
	}
}

func TestBackendErrorMessage(t *testing.T) {
	err := &BackendError{Provider: "IONOS", StatusCode: 401, Message: "bad key"}
	want := "API Error from IONOS: Status=401, Message=bad key"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}

	noStatus := &BackendError{Provider: "IONOS", Message: "oops"}
	if got := noStatus.Error(); got != "API Error from IONOS: oops" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestConnectionErrorMessage(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	err := &ConnectionError{Provider: "OLLAMA", Err: inner}
	if got := err.Error(); got != "Connection Error for OLLAMA: dial tcp: connection refused" {
		t.Fatalf("Error() = %q", got)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("expected Unwrap to reach the inner error")
	}
}
