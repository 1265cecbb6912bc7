package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/thedatashed/xlsxreader"
	"github.com/xuri/excelize/v2"
)

const excelPreviewRows = 10

// ExcelExtractor summarizes workbook files sheet by sheet. excelize
// handles well-formed files; anything it rejects gets a second chance
// with the lower-level xlsxreader before the failure goes in-band.
type ExcelExtractor struct{}

func (ExcelExtractor) Supports(ext string) bool { return ext == ".xlsx" || ext == ".xls" }

func (ExcelExtractor) Extract(f *File) (string, error) {
	raw, err := readAll(f)
	if err != nil {
		return "", err
	}
	if text, err := extractWorkbook(raw); err == nil {
		return text, nil
	}
	return extractWorkbookRaw(raw)
}

func extractWorkbook(raw []byte) (string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	defer wb.Close()

	var b strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", err
		}
		preview := rows
		if len(preview) > excelPreviewRows {
			preview = preview[:excelPreviewRows]
		}
		writeSheet(&b, sheet, preview, len(rows))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func extractWorkbookRaw(raw []byte) (string, error) {
	xl, err := xlsxreader.NewReader(raw)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, sheet := range xl.Sheets {
		var preview [][]string
		total := 0
		// Drain the channel fully so the reader goroutine exits.
		for row := range xl.ReadRows(sheet) {
			if row.Error != nil {
				continue
			}
			total++
			if len(preview) < excelPreviewRows {
				cells := make([]string, 0, len(row.Cells))
				for _, c := range row.Cells {
					cells = append(cells, c.Value)
				}
				preview = append(preview, cells)
			}
		}
		writeSheet(&b, sheet, preview, total)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func writeSheet(b *strings.Builder, name string, preview [][]string, total int) {
	fmt.Fprintf(b, "Sheet: %s (%d rows)\n", name, total)
	for _, row := range preview {
		b.WriteString(strings.Join(row, " | "))
		b.WriteByte('\n')
	}
	if rest := total - len(preview); rest > 0 {
		fmt.Fprintf(b, "[%d more rows not shown]\n", rest)
	}
	b.WriteByte('\n')
}
