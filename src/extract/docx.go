package extract

import (
	"strings"

	docx "github.com/fumiama/go-docx"
)

// DocxExtractor reads Word documents: paragraph text first, then each
// table flattened row by row with pipe-joined cells.
type DocxExtractor struct{}

func (DocxExtractor) Supports(ext string) bool { return ext == ".docx" }

func (DocxExtractor) Extract(f *File) (string, error) {
	ra, size, err := readerAt(f)
	if err != nil {
		return "", err
	}
	doc, err := docx.Parse(ra, size)
	if err != nil {
		return "", err
	}

	var paras, rows []string
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			if s := strings.TrimSpace(v.String()); s != "" {
				paras = append(paras, s)
			}
		case *docx.Table:
			for _, row := range v.TableRows {
				cells := make([]string, 0, len(row.TableCells))
				for _, cell := range row.TableCells {
					cells = append(cells, cellText(cell))
				}
				rows = append(rows, strings.Join(cells, " | "))
			}
		}
	}
	return strings.Join(append(paras, rows...), "\n"), nil
}

func cellText(cell *docx.WTableCell) string {
	parts := make([]string, 0, len(cell.Paragraphs))
	for _, p := range cell.Paragraphs {
		if s := strings.TrimSpace(p.String()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
