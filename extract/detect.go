package extract

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// mimeFormats maps declared MIME types to format names. The declared type
// from an upload wins over sniffing because browsers usually get it right
// and sniffing zip-based office formats is ambiguous.
var mimeFormats = map[string]string{
	"application/pdf":    "pdf",
	"text/html":          "html",
	"application/xhtml+xml": "html",
	"text/markdown":      "md",
	"text/x-markdown":    "md",
	"application/json":   "json",
	"text/plain":         "txt",
	"text/csv":           "txt",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         "xlsx",
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/bmp":  "bmp",
	"image/webp": "webp",
	"image/tiff": "tiff",
}

var extFormats = map[string]string{
	"pdf": "pdf", "html": "html", "htm": "html",
	"md": "md", "markdown": "md",
	"json": "json",
	"txt": "txt", "text": "txt", "csv": "txt", "log": "txt",
	"docx": "docx", "xlsx": "xlsx",
	"png": "png", "jpg": "jpg", "jpeg": "jpg", "gif": "gif",
	"bmp": "bmp", "webp": "webp", "tif": "tiff", "tiff": "tiff",
}

// ImageFormats lists the formats routed to the vision extractor.
var ImageFormats = []string{"png", "jpg", "gif", "bmp", "webp", "tiff"}

// DetectFormat resolves the format of an upload. Precedence: declared MIME
// type, magic bytes, file extension, then a plain-text fallback. Returns
// "" when the content looks binary and matches nothing.
func DetectFormat(name, declaredMIME string, data []byte) string {
	if declaredMIME != "" {
		mime := declaredMIME
		if i := strings.Index(mime, ";"); i >= 0 {
			mime = mime[:i]
		}
		mime = strings.TrimSpace(strings.ToLower(mime))
		if f, ok := mimeFormats[mime]; ok {
			return f
		}
	}

	if f := sniffMagic(data); f != "" {
		return f
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if f, ok := extFormats[ext]; ok {
		return f
	}

	if looksLikeJSON(data) {
		return "json"
	}
	if looksLikeText(data) {
		return "txt"
	}
	return ""
}

func sniffMagic(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return "pdf"
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return "png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "jpg"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "gif"
	case bytes.HasPrefix(data, []byte("BM")):
		return "bmp"
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return "tiff"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp"
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		// Office formats are zip archives; the member paths disambiguate.
		head := data
		if len(head) > 4096 {
			head = head[:4096]
		}
		if bytes.Contains(head, []byte("word/")) {
			return "docx"
		}
		if bytes.Contains(head, []byte("xl/")) {
			return "xlsx"
		}
		return ""
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	lower := trimmed
	if len(lower) > 256 {
		lower = lower[:256]
	}
	lowered := bytes.ToLower(lower)
	if bytes.HasPrefix(lowered, []byte("<!doctype html")) || bytes.HasPrefix(lowered, []byte("<html")) {
		return "html"
	}
	return ""
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return false
	}
	return json.Valid(data)
}

// looksLikeText accepts content that is valid UTF-8 (or close to it) with
// a low proportion of control bytes.
func looksLikeText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	sample := data
	if len(sample) > 8192 {
		sample = sample[:8192]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return false
	}
	if utf8.Valid(sample) {
		return true
	}
	// Legacy single-byte encodings (windows-1256) are not valid UTF-8 but
	// are still text; accept when control characters are rare.
	control := 0
	for _, b := range sample {
		if b < 0x09 || (b > 0x0D && b < 0x20) {
			control++
		}
	}
	return control*50 < len(sample)
}

// IsImageFormat reports whether the format is handled by the vision path.
func IsImageFormat(format string) bool {
	for _, f := range ImageFormats {
		if f == format {
			return true
		}
	}
	return false
}
