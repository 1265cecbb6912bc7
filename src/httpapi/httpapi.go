// Package httpapi exposes the chat service over HTTP: a multipart chat
// endpoint streaming server-sent events, a config document for the
// front-end, and a health probe.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	chatstream "github.com/Protocol-Lattice/go-chatstream"
	"github.com/Protocol-Lattice/go-chatstream/src/cache"
	"github.com/Protocol-Lattice/go-chatstream/src/config"
	"github.com/Protocol-Lattice/go-chatstream/src/observability"
)

// discoveryTimeout bounds one live model-discovery call; the cached or
// configured list answers when the backend is slow.
const discoveryTimeout = 2 * time.Second

// RegisterRoutes wires the chat endpoints onto r.
func RegisterRoutes(r *gin.Engine, svc *chatstream.Service) {
	localModels := cache.New[[]string](8, time.Minute)

	r.Use(requestID(), accessLog(), bodyLimit(svc.Config().Server.MaxUploadBytes))

	r.GET("/healthz", func(c *gin.Context) { health(c) })
	r.GET("/config", func(c *gin.Context) { configDoc(c, svc, localModels) })
	r.POST("/chat", func(c *gin.Context) { chat(c, svc) })
}

// requestID tags every request with an id, honoring one supplied by the
// caller, and threads it through the request context for logging.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := observability.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		observability.LoggerFromContext(c.Request.Context()).Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// bodyLimit caps the request body so an oversized upload fails the form
// parse instead of exhausting memory.
func bodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// providerInfo is the per-provider slice of the front-end config
// document.
type providerInfo struct {
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`
}

// configDoc serves the bootstrap document the front-end needs: provider
// names with their model lists and the configured persona names. For
// locally-hosted providers the configured list is united with live
// discovery when the backend answers in time.
func configDoc(c *gin.Context, svc *chatstream.Service, localModels *cache.Cache[[]string]) {
	cfg := svc.Config()
	providers := make(map[string]providerInfo, len(cfg.Providers))
	for name, p := range cfg.Providers {
		info := providerInfo{Models: p.Models, DefaultModel: p.DefaultModel}
		if p.Kind == config.KindOllama {
			info.Models = discoverModels(c, svc, localModels, name, p.Models)
		}
		providers[name] = info
	}
	c.JSON(http.StatusOK, gin.H{
		"providers": providers,
		"personas":  cfg.Personas.Names(),
	})
}

// discoverModels unites the configured model list with what the local
// backend currently serves. Discovery failures degrade to the
// configured list and are never surfaced to the caller.
func discoverModels(c *gin.Context, svc *chatstream.Service, localModels *cache.Cache[[]string], provider string, configured []string) []string {
	if discovered, ok := localModels.Get(provider); ok {
		return mergeModels(configured, discovered)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), discoveryTimeout)
	defer cancel()

	discovered, err := svc.LocalModels(ctx, provider)
	if err != nil {
		observability.LoggerFromContext(c.Request.Context()).Warn("model discovery failed",
			"provider", provider, "error", err)
		return configured
	}
	localModels.Set(provider, discovered)
	return mergeModels(configured, discovered)
}

// mergeModels keeps the configured order and appends newly discovered
// models, dropping duplicates.
func mergeModels(configured, discovered []string) []string {
	seen := make(map[string]bool, len(configured)+len(discovered))
	out := make([]string, 0, len(configured)+len(discovered))
	for _, lists := range [][]string{configured, discovered} {
		for _, m := range lists {
			if m == "" || seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
