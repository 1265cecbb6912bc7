// Package filectx assembles uploaded files into a bounded context
// string for the final user prompt.
package filectx

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/Protocol-Lattice/go-chatstream/src/concurrent"
	"github.com/Protocol-Lattice/go-chatstream/src/extract"
	"github.com/Protocol-Lattice/go-chatstream/src/observability"
)

// UploadedFile is one incoming attachment. ContentType is what the
// client declared; it is logged but never trusted for dispatch.
type UploadedFile struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.ReadSeeker
}

const (
	// DefaultMaxContextChars bounds the assembled context.
	DefaultMaxContextChars = 50000
	// DefaultMaxFileBytes bounds a single upload; larger files are
	// reported in-band instead of read.
	DefaultMaxFileBytes = 10 << 20

	truncationMarker = "[Content Truncated]"
)

// Assembler renders uploads into one bounded context string. The zero
// value is not usable; construct with NewAssembler.
type Assembler struct {
	Registry        *extract.Registry
	MaxContextChars int
	MaxFileBytes    int64
	Workers         int
}

// NewAssembler returns an assembler with the default extractor registry
// and limits, processing files sequentially.
func NewAssembler() *Assembler {
	return &Assembler{
		Registry:        extract.NewRegistry(),
		MaxContextChars: DefaultMaxContextChars,
		MaxFileBytes:    DefaultMaxFileBytes,
		Workers:         1,
	}
}

// Assemble renders every file in input order and joins the blocks with
// blank lines, truncating the result to MaxContextChars. Empty input
// yields "". The only error cause is context cancellation.
func (a *Assembler) Assemble(ctx context.Context, files []UploadedFile) (string, error) {
	if len(files) == 0 {
		return "", nil
	}

	blocks, err := concurrent.ParallelMap(ctx, files, func(f UploadedFile) (string, error) {
		return a.renderOne(ctx, f), nil
	}, a.workers())
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b != "" {
			parts = append(parts, b)
		}
	}
	return Truncate(strings.Join(parts, "\n\n"), a.maxChars()), nil
}

// renderOne produces the delimited block for a single upload, or ""
// when the file is skipped outright.
func (a *Assembler) renderOne(ctx context.Context, f UploadedFile) string {
	log := observability.LoggerFromContext(ctx)

	name := SanitizeName(f.Name)
	if name == "" {
		log.Warn("skipping upload with unusable name", "name", f.Name)
		return ""
	}
	log.Debug("extracting upload", "name", name, "declared_type", f.ContentType, "size", f.Size)

	if a.MaxFileBytes > 0 && f.Size > a.MaxFileBytes {
		notice := fmt.Sprintf("[File too large: %d bytes exceeds the %d byte limit]", f.Size, a.MaxFileBytes)
		return extract.Block(name, notice)
	}
	return a.Registry.Render(&extract.File{Name: name, Size: f.Size, Reader: f.Reader})
}

func (a *Assembler) workers() int {
	if a.Workers > 1 {
		return a.Workers
	}
	return 1
}

func (a *Assembler) maxChars() int {
	if a.MaxContextChars > 0 {
		return a.MaxContextChars
	}
	return DefaultMaxContextChars
}

// SanitizeName reduces an untrusted upload name to a safe display name:
// path components are stripped and control characters dropped. An empty
// result means the file should be skipped.
func SanitizeName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// Truncate caps s at max characters, appending the truncation marker
// when content was cut. The result never exceeds max plus the marker
// length.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + truncationMarker
}
