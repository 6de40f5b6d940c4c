// Package extract pulls plain text out of downloaded documents for indexing.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedType signals content the extractor has no decoder for.
var ErrUnsupportedType = errors.New("unsupported content type")

// Text extracts plain text from content by mime type. Plain text passes
// through UTF-8 validated; PDF goes through the page decoder. Anything else
// is ErrUnsupportedType so the caller can record it and move on.
func Text(content []byte, mimeType string) (string, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	switch {
	case mt == "application/pdf":
		return pdfText(content)
	case strings.HasPrefix(mt, "text/"), mt == "application/json":
		return plainText(content), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
}

// plainText returns content as a string, replacing invalid UTF-8 sequences.
func plainText(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�")
	}
	return string(content)
}
