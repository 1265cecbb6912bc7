package extract

import (
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

// detectSample caps how much of a file feeds the charset detector.
const detectSample = 1024

// DetectEncoding returns a best-guess charset label for raw text bytes.
// It never fails: empty input, detector errors and zero-confidence
// guesses all degrade to UTF-8.
func DetectEncoding(b []byte) string {
	if len(b) > detectSample {
		b = b[:detectSample]
	}
	if len(b) == 0 {
		return "UTF-8"
	}
	best, err := chardet.NewTextDetector().DetectBest(b)
	if err != nil || best == nil || best.Charset == "" || best.Confidence == 0 {
		return "UTF-8"
	}
	return best.Charset
}

// DecodeText converts raw bytes to a string using the detected charset.
// Undecodable sequences become the replacement rune; a charset the
// decoder table does not know falls back to treating the bytes as UTF-8.
func DecodeText(b []byte) string {
	enc, err := htmlindex.Get(strings.ToLower(DetectEncoding(b)))
	if err != nil || enc == nil {
		return string(b)
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
