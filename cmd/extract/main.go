// main.go — offline extraction tool
// Runs the upload extraction pipeline over local files and prints the
// assembled context, for checking what a chat request would see.
//
// Examples:
//
//	go run ./cmd/extract notes.md report.pdf data.csv
//	go run ./cmd/extract -json -max-chars 2000 archive.zip
//	go run ./cmd/extract -sanitize-html page.html
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Protocol-Lattice/go-chatstream/src/config"
	"github.com/Protocol-Lattice/go-chatstream/src/extract"
	"github.com/Protocol-Lattice/go-chatstream/src/filectx"
	"github.com/Protocol-Lattice/go-chatstream/src/sanitize"
)

// ---- output structs ----

type FileItem struct {
	File      string `json:"file"`
	SizeBytes int64  `json:"size_bytes"`
	Block     string `json:"block,omitempty"`
	Err       string `json:"error,omitempty"`
}

type Report struct {
	Items      []FileItem `json:"items"`
	Context    string     `json:"context"`
	TotalChars int        `json:"total_chars"`
	Truncated  bool       `json:"truncated"`
	Failed     int        `json:"failed"`
}

var (
	flagMaxChars    = flag.Int("max-chars", filectx.DefaultMaxContextChars, "Context budget in characters")
	flagMaxFile     = flag.Int64("max-file-bytes", filectx.DefaultMaxFileBytes, "Per-file size cap in bytes")
	flagWorkers     = flag.Int("workers", 1, "Parallel extraction workers; 1 = sequential")
	flagJSON        = flag.Bool("json", false, "Print a JSON report with per-file blocks instead of the raw context")
	flagSanitize    = flag.Bool("sanitize-html", false, "Clean the printed context with the HTML sanitization policy")
	flagAllowedTags = flag.String("allowed-tags", "a,b,blockquote,code,em,i,li,ol,p,pre,strong,ul", "Comma-separated tags kept by -sanitize-html")
)

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("Usage: extract [flags] <file1> [file2 ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	asm := filectx.NewAssembler()
	asm.MaxContextChars = *flagMaxChars
	asm.MaxFileBytes = *flagMaxFile
	asm.Workers = *flagWorkers

	report := Report{Items: make([]FileItem, 0, flag.NArg())}
	var uploads []filectx.UploadedFile
	var handles []*os.File
	defer func() {
		for _, h := range handles {
			h.Close()
		}
	}()

	for _, path := range flag.Args() {
		item := FileItem{File: path}

		f, err := os.Open(path)
		if err != nil {
			item.Err = fmt.Sprintf("open: %v", err)
			report.Items = append(report.Items, item)
			report.Failed++
			fmt.Fprintf(os.Stderr, "✖ open %s: %v\n", path, err)
			continue
		}
		handles = append(handles, f)

		info, err := f.Stat()
		if err != nil {
			item.Err = fmt.Sprintf("stat: %v", err)
			report.Items = append(report.Items, item)
			report.Failed++
			fmt.Fprintf(os.Stderr, "✖ stat %s: %v\n", path, err)
			continue
		}
		item.SizeBytes = info.Size()

		if *flagJSON {
			// Extractors rewind the source themselves, so rendering the
			// per-file block here does not disturb the assembly below.
			item.Block = asm.Registry.Render(&extract.File{
				Name:   filepath.Base(path),
				Size:   info.Size(),
				Reader: f,
			})
		}

		uploads = append(uploads, filectx.UploadedFile{
			Name:   filepath.Base(path),
			Size:   info.Size(),
			Reader: f,
		})
		report.Items = append(report.Items, item)
	}

	fileContext, err := asm.Assemble(context.Background(), uploads)
	check(err)

	if *flagSanitize {
		policy := sanitize.New(&config.Sanitization{AllowedTags: splitCSV(*flagAllowedTags)})
		fileContext = policy.Clean(fileContext)
	}

	report.Context = fileContext
	report.TotalChars = utf8.RuneCountInString(fileContext)
	report.Truncated = strings.HasSuffix(fileContext, "[Content Truncated]")

	if *flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		check(enc.Encode(report))
	} else {
		fmt.Println(fileContext)
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func check(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
