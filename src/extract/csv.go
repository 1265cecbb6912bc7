package extract

import (
	"encoding/csv"
	"fmt"
	"strings"
)

const (
	csvPreviewRows = 10
	csvSniffBytes  = 4096
	csvSniffLines  = 5
)

// CSVExtractor summarizes CSV files: header, row count and a short
// preview, with the column separator sniffed from a prefix.
type CSVExtractor struct{}

func (CSVExtractor) Supports(ext string) bool { return ext == ".csv" }

func (CSVExtractor) Extract(f *File) (string, error) {
	raw, err := readAll(f)
	if err != nil {
		return "", err
	}
	text := DecodeText(raw)

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "CSV file: 0 rows", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CSV file: %d rows\n", len(records))
	fmt.Fprintf(&b, "Header: %s\n", strings.Join(records[0], " | "))

	data := records[1:]
	shown := data
	if len(shown) > csvPreviewRows {
		shown = shown[:csvPreviewRows]
	}
	for _, row := range shown {
		b.WriteString(strings.Join(row, " | "))
		b.WriteByte('\n')
	}
	if rest := len(data) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "[%d more rows not shown]\n", rest)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// sniffDelimiter guesses the column separator by counting candidate
// runes outside quoted regions in the first lines of the sample.
// Nothing conclusive means the comma default.
func sniffDelimiter(sample string) rune {
	if len(sample) > csvSniffBytes {
		sample = sample[:csvSniffBytes]
	}
	candidates := []rune{',', ';', '\t', '|'}
	counts := make(map[rune]int, len(candidates))
	inQuotes := false
	lines := 0
scan:
	for _, r := range sample {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case '\n':
			lines++
			if lines >= csvSniffLines {
				break scan
			}
		default:
			if inQuotes {
				continue
			}
			for _, c := range candidates {
				if r == c {
					counts[r]++
					break
				}
			}
		}
	}

	best, bestCount := ',', 0
	for _, c := range candidates {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}
