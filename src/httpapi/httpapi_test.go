package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	chatstream "github.com/Protocol-Lattice/go-chatstream"
	"github.com/Protocol-Lattice/go-chatstream/src/config"
	"github.com/Protocol-Lattice/go-chatstream/src/models"
)

const testConfig = `
providers:
  IONOS:
    base_url: https://inference.example.com/v1
    api_key_env: IONOS_API_KEY
    models:
      - model-a
      - model-b
    default_model: model-b
personas:
  Default: You are concise.
  Reviewer: You review code.
`

// fakeModel replays scripted deltas and records the composed messages.
type fakeModel struct {
	msgs   []models.Message
	deltas []string
	err    error
}

func (m *fakeModel) StreamChat(ctx context.Context, _ string, msgs []models.Message) (<-chan models.StreamChunk, error) {
	m.msgs = msgs
	ch := make(chan models.StreamChunk, 1)
	go func() {
		defer close(ch)
		for _, d := range m.deltas {
			select {
			case <-ctx.Done():
				return
			case ch <- models.StreamChunk{Delta: d}:
			}
		}
		select {
		case <-ctx.Done():
		case ch <- models.StreamChunk{Done: true, Err: m.err}:
		}
	}()
	return ch, nil
}

var _ models.ChatModel = (*fakeModel)(nil)

func newTestRouter(t *testing.T, backend models.ChatModel) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.Parse([]byte(testConfig))
	if err != nil {
		t.Fatalf("parsing config: %v", err)
	}
	svc, err := chatstream.New(chatstream.Options{
		Config: cfg,
		Selector: func(_ context.Context, _ *config.Config, provider, model string) (*models.Selection, error) {
			return &models.Selection{Provider: provider, Model: model, Handle: backend}, nil
		},
	})
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	r := gin.New()
	RegisterRoutes(r, svc)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	for name, content := range files {
		fw, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("creating file part %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("writing file part %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, &fakeModel{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestConfigDocument(t *testing.T) {
	r := newTestRouter(t, &fakeModel{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/config", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var doc struct {
		Providers map[string]struct {
			Models       []string `json:"models"`
			DefaultModel string   `json:"default_model"`
		} `json:"providers"`
		Personas []string `json:"personas"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decoding config document: %v", err)
	}

	p, ok := doc.Providers["IONOS"]
	if !ok {
		t.Fatalf("providers = %v, want IONOS", doc.Providers)
	}
	if len(p.Models) != 2 || p.DefaultModel != "model-b" {
		t.Fatalf("IONOS entry = %+v", p)
	}
	if len(doc.Personas) != 2 || doc.Personas[0] != "Default" {
		t.Fatalf("personas = %v, want declared order starting with Default", doc.Personas)
	}
}

func TestChatStreamsResponse(t *testing.T) {
	backend := &fakeModel{deltas: []string{"It says ", "hello."}}
	r := newTestRouter(t, backend)

	body, contentType := multipartBody(t,
		map[string]string{
			"provider": "IONOS",
			"model":    "model-a",
			"persona":  "Default",
			"message":  "Summarize",
		},
		map[string]string{"upload.txt": "hello world"},
	)
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %q", w.Code, w.Body.String())
	}
	out := w.Body.String()
	if !strings.Contains(out, "event:chunk") || !strings.Contains(out, `"content":"It says "`) {
		t.Fatalf("missing chunk events: %q", out)
	}
	if !strings.Contains(out, "event:end") || !strings.Contains(out, "Stream ended") {
		t.Fatalf("missing end event: %q", out)
	}

	wantUser := "Summarize\n\n--- Attached Files Context ---\n" +
		"--- Start of File: upload.txt ---\n\nhello world\n--- End of File: upload.txt ---"
	got := backend.msgs[len(backend.msgs)-1].Content
	if got != wantUser {
		t.Fatalf("composed user message = %q, want %q", got, wantUser)
	}
}

func TestChatMalformedHistory(t *testing.T) {
	r := newTestRouter(t, &fakeModel{})

	body, contentType := multipartBody(t, map[string]string{
		"provider": "IONOS",
		"model":    "model-a",
		"message":  "hi",
		"history":  "{not json",
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	out := w.Body.String()
	if !strings.Contains(out, "event:error") || !strings.Contains(out, "Invalid history format received.") {
		t.Fatalf("body = %q", out)
	}
}

func TestChatValidationErrorInStream(t *testing.T) {
	r := newTestRouter(t, &fakeModel{})

	body, contentType := multipartBody(t, map[string]string{
		"provider": "IONOS",
		"model":    "model-a",
		"message":  "   ",
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := w.Body.String()
	if !strings.Contains(out, "event:error") || !strings.Contains(out, "missing required fields") {
		t.Fatalf("body = %q", out)
	}
	if strings.Contains(out, "event:chunk") || strings.Contains(out, "event:end") {
		t.Fatalf("rejected request still streamed content: %q", out)
	}
}

func TestChatNotMultipart(t *testing.T) {
	r := newTestRouter(t, &fakeModel{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("message=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid request form received.") {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestRequestIDHeader(t *testing.T) {
	r := newTestRouter(t, &fakeModel{})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if w.Header().Get("X-Request-ID") == "" {
			t.Fatal("response lacks X-Request-ID")
		}
	})

	t.Run("honored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
			t.Fatalf("X-Request-ID = %q, want abc-123", got)
		}
	})
}

func TestMergeModels(t *testing.T) {
	cases := []struct {
		name       string
		configured []string
		discovered []string
		want       []string
	}{
		{"no discovery", []string{"a", "b"}, nil, []string{"a", "b"}},
		{"appends new", []string{"a"}, []string{"b", "c"}, []string{"a", "b", "c"}},
		{"dedupes", []string{"a", "b"}, []string{"b", "a", "c"}, []string{"a", "b", "c"}},
		{"drops blanks", []string{"a", ""}, []string{""}, []string{"a"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mergeModels(tc.configured, tc.discovered)
			if len(got) != len(tc.want) {
				t.Fatalf("mergeModels = %v, want %v", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("mergeModels = %v, want %v", got, tc.want)
				}
			}
		})
	}
}
