package filter

import "strings"

// categoryMimes maps coarse category tokens to the concrete mime strings the
// remote provider uses for them. Google editor formats and their office
// equivalents share a category.
var categoryMimes = map[string][]string{
	"pdf": {"application/pdf"},
	"doc": {
		"application/vnd.google-apps.document",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	},
	"sheet": {
		"application/vnd.google-apps.spreadsheet",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	},
	"slides": {
		"application/vnd.google-apps.presentation",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	},
	"image":  {"image/jpeg", "image/png", "image/gif", "image/webp", "image/svg+xml"},
	"video":  {"video/mp4", "video/quicktime", "video/webm"},
	"audio":  {"audio/mpeg", "audio/wav", "audio/ogg"},
	"text":   {"text/plain", "text/markdown", "text/csv", "text/html"},
	"folder": {"application/vnd.google-apps.folder"},
}

var mimeCategory = invertCategories()

func invertCategories() map[string]string {
	inv := make(map[string]string, 32)
	for cat, mimes := range categoryMimes {
		for _, m := range mimes {
			inv[m] = cat
		}
	}
	return inv
}

// Category projects a raw mime string onto its coarse category token:
// "application/pdf" -> "pdf", "image/tiff" -> "image". Unknown types fall
// back to the subtype tail so literal tokens like "zip" still match
// "application/zip". Empty input yields "".
func Category(mimeType string) string {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	if m == "" {
		return ""
	}
	if cat, ok := mimeCategory[m]; ok {
		return cat
	}
	for _, prefix := range []string{"image/", "video/", "audio/", "text/"} {
		if strings.HasPrefix(m, prefix) {
			return strings.TrimSuffix(prefix, "/")
		}
	}
	// application/x-zip -> "x-zip"; vnd.oasis.opendocument.text -> "text"
	tail := m[strings.LastIndex(m, "/")+1:]
	if i := strings.LastIndex(tail, "."); i >= 0 {
		tail = tail[i+1:]
	}
	return tail
}

// MimesForCategory expands a filter token into the provider mime strings to
// query for. Literal tokens containing "/" pass through unchanged; unknown
// category tokens expand to nothing and are enforced post-listing only.
func MimesForCategory(token string) []string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return nil
	}
	if strings.Contains(token, "/") {
		return []string{token}
	}
	return categoryMimes[token]
}
