package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

const zipPreviewEntries = 20

// ZipExtractor lists archive contents without extracting them.
type ZipExtractor struct{}

func (ZipExtractor) Supports(ext string) bool { return ext == ".zip" }

func (ZipExtractor) Extract(f *File) (string, error) {
	raw, err := readAll(f)
	if err != nil {
		return "", err
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "[Corrupted or unreadable ZIP archive]", nil
	}

	names := make([]string, 0, len(zr.File))
	for _, entry := range zr.File {
		names = append(names, entry.Name)
	}
	if len(names) == 0 {
		return "ZIP archive with 0 entries", nil
	}

	shown := names
	if len(shown) > zipPreviewEntries {
		shown = shown[:zipPreviewEntries]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ZIP archive with %d entries:\n", len(names))
	b.WriteString(strings.Join(shown, "\n"))
	if rest := len(names) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "\n[%d more entries not shown]", rest)
	}
	return b.String(), nil
}
