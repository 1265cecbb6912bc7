package extract

import (
	"encoding/json"
	"strings"
)

// textExts are the extensions treated as plain text. .csv is absent on
// purpose: it has a dedicated extractor with dialect sniffing.
var textExts = map[string]struct{}{
	".txt": {}, ".md": {}, ".markdown": {}, ".log": {},
	".html": {}, ".htm": {}, ".css": {}, ".xml": {}, ".json": {},
	".yaml": {}, ".yml": {}, ".toml": {}, ".ini": {}, ".sh": {},
	".go": {}, ".py": {}, ".js": {}, ".ts": {}, ".java": {},
	".c": {}, ".cpp": {}, ".cs": {}, ".rs": {}, ".sql": {},
}

// TextExtractor handles plain-text-like files: decode with the detected
// charset, pretty-print JSON documents, pass everything else through.
type TextExtractor struct{}

func (TextExtractor) Supports(ext string) bool {
	_, ok := textExts[ext]
	return ok
}

func (TextExtractor) Extract(f *File) (string, error) {
	raw, err := readAll(f)
	if err != nil {
		return "", err
	}
	text := strings.ReplaceAll(DecodeText(raw), "\r\n", "\n")
	if f.Ext() == ".json" {
		if pretty, ok := prettyJSON(text); ok {
			return pretty, nil
		}
	}
	return text, nil
}

// prettyJSON re-indents a JSON document; malformed input keeps its raw
// form.
func prettyJSON(s string) (string, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return "", false
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", false
	}
	return string(out), true
}
