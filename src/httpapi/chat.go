package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	chatstream "github.com/Protocol-Lattice/go-chatstream"
	"github.com/Protocol-Lattice/go-chatstream/src/filectx"
	"github.com/Protocol-Lattice/go-chatstream/src/observability"
)

// chat answers a multipart chat request with a server-sent event
// stream: zero or more "chunk" events, then exactly one "end" or
// "error" event. Request-level failures before the stream starts are a
// single "error" event with a 400 status.
func chat(c *gin.Context, svc *chatstream.Service) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	log := observability.LoggerFromContext(c.Request.Context())

	form, err := c.MultipartForm()
	if err != nil {
		log.Warn("rejecting malformed chat form", "error", err)
		c.Status(http.StatusBadRequest)
		c.SSEvent("error", gin.H{"message": "Invalid request form received."})
		return
	}

	history, err := chatstream.ParseHistory(c.PostForm("history"))
	if err != nil {
		log.Warn("rejecting malformed history", "error", err)
		c.Status(http.StatusBadRequest)
		c.SSEvent("error", gin.H{"message": "Invalid history format received."})
		return
	}

	req := chatstream.Request{
		Provider: c.PostForm("provider"),
		Model:    c.PostForm("model"),
		Persona:  c.PostForm("persona"),
		Prompt:   c.PostForm("message"),
		History:  history,
	}

	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			cl.Close()
		}
	}()
	for _, fh := range form.File["files"] {
		if fh == nil || fh.Filename == "" {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			// One unreadable upload must not sink the request; the
			// remaining files and the prompt still go through.
			log.Warn("skipping unreadable upload", "file", fh.Filename, "error", err)
			continue
		}
		closers = append(closers, f)
		req.Files = append(req.Files, filectx.UploadedFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Reader:      f,
		})
	}

	// The request context is canceled when the client disconnects,
	// which stops the producer; the loop then ends on channel close.
	for chunk := range svc.StreamQuestion(c.Request.Context(), req) {
		switch {
		case chunk.Err != nil:
			c.SSEvent("error", gin.H{"message": chunk.Delta})
		case chunk.Done:
			c.SSEvent("end", gin.H{"message": "Stream ended"})
		default:
			c.SSEvent("chunk", gin.H{"content": chunk.Delta})
		}
		c.Writer.Flush()
	}
}
