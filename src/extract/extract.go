// Package extract turns uploaded files into plain text for prompt
// context. Extraction never fails past its boundary: every file renders
// to a delimited block, and failures are described inside the block.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// File is one upload handed to an extractor. Reader must be rewindable;
// extractors may reposition it freely and never use it after returning.
type File struct {
	Name   string
	Size   int64
	Reader io.ReadSeeker
}

// Ext returns the lower-cased extension of the file name, leading dot
// included.
func (f *File) Ext() string { return strings.ToLower(filepath.Ext(f.Name)) }

// Extractor converts a single file into UTF-8 text. Dispatch is by
// extension: declared content types are advisory at best.
type Extractor interface {
	Supports(ext string) bool
	Extract(f *File) (string, error)
}

// Registry dispatches files to extractors in registration order.
type Registry struct {
	extractors []Extractor
}

// NewRegistry returns a registry with the default extractor chain, with
// any extra extractors consulted first. Specialized formats precede the
// plain-text handler so .csv does not fall through to it.
func NewRegistry(extra ...Extractor) *Registry {
	base := []Extractor{
		CSVExtractor{},
		ExcelExtractor{},
		DocxExtractor{},
		PDFExtractor{},
		ZipExtractor{},
		TextExtractor{},
	}
	return &Registry{extractors: append(extra, base...)}
}

// Lookup returns the first extractor claiming ext, or nil.
func (r *Registry) Lookup(ext string) Extractor {
	for _, ex := range r.extractors {
		if ex.Supports(ext) {
			return ex
		}
	}
	return nil
}

// Block wraps already-extracted content in the standard delimiters.
func Block(name, content string) string {
	return fmt.Sprintf("--- Start of File: %s ---\n\n%s\n--- End of File: %s ---", name, content, name)
}

// Render extracts f and wraps the result in its delimiter block. Any
// failure, including a parser panic inside a format library, is folded
// into the block text.
func (r *Registry) Render(f *File) string {
	return Block(f.Name, r.contentOf(f))
}

func (r *Registry) contentOf(f *File) string {
	ext := f.Ext()
	ex := r.Lookup(ext)
	if ex == nil {
		if ext == "" {
			ext = "(no extension)"
		}
		return fmt.Sprintf("[Unsupported file type: %s]", ext)
	}
	text, err := safeExtract(ex, f)
	if err != nil {
		return fmt.Sprintf("[Error processing %s: %v]", f.Name, err)
	}
	return text
}

// safeExtract shields the pipeline from panics in format libraries fed
// hostile input.
func safeExtract(ex Extractor, f *File) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parser failure: %v", rec)
		}
	}()
	return ex.Extract(f)
}

// readAll rewinds the source and reads it whole.
func readAll(f *File) ([]byte, error) {
	if _, err := f.Reader.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f.Reader)
}

// readerAt adapts the source for libraries that need random access,
// buffering into memory when the source does not support it.
func readerAt(f *File) (io.ReaderAt, int64, error) {
	if ra, ok := f.Reader.(io.ReaderAt); ok {
		return ra, f.Size, nil
	}
	buf, err := readAll(f)
	if err != nil {
		return nil, 0, err
	}
	br := bytes.NewReader(buf)
	f.Reader = br
	f.Size = int64(len(buf))
	return br, f.Size, nil
}
