package extract

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor pulls page text out of PDF documents. Pages without
// extractable text (scans, pure images) are skipped, not errors.
type PDFExtractor struct{}

func (PDFExtractor) Supports(ext string) bool { return ext == ".pdf" }

func (PDFExtractor) Extract(f *File) (string, error) {
	ra, size, err := readerAt(f)
	if err != nil {
		return "", err
	}
	rdr, err := pdf.NewReader(ra, size)
	if err != nil {
		return "", err
	}

	n := rdr.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := rdr.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if s := strings.TrimSpace(txt); s != "" {
			pages = append(pages, s)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}
