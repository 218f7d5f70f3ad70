package extract

import "testing"

func TestDetectFormatDeclaredMIMEWins(t *testing.T) {
	cases := []struct {
		mime string
		want string
	}{
		{"application/pdf", "pdf"},
		{"text/plain; charset=utf-8", "txt"},
		{"TEXT/HTML", "html"},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "docx"},
		{"image/png", "png"},
	}
	for _, c := range cases {
		if got := DetectFormat("upload.bin", c.mime, nil); got != c.want {
			t.Errorf("DetectFormat(mime=%q) = %q, want %q", c.mime, got, c.want)
		}
	}
}

func TestDetectFormatMagicBytes(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"doc", []byte("%PDF-1.7\n..."), "pdf"},
		{"img", []byte{0x89, 'P', 'N', 'G', '\r', '\n'}, "png"},
		{"img", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpg"},
		{"img", []byte("GIF89a"), "gif"},
		{"img", []byte("II*\x00\x08\x00\x00\x00"), "tiff"},
		{"page", []byte("  \n<!DOCTYPE html><html></html>"), "html"},
		{"archive", []byte("PK\x03\x04....word/document.xml"), "docx"},
		{"archive", []byte("PK\x03\x04....xl/workbook.xml"), "xlsx"},
	}
	for _, c := range cases {
		if got := DetectFormat(c.name, "", c.data); got != c.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", c.data[:min(len(c.data), 12)], got, c.want)
		}
	}
}

func TestDetectFormatExtensionFallback(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"notes.md", "md"},
		{"page.HTM", "html"},
		{"scan.tif", "tiff"},
		{"data.csv", "txt"},
	}
	for _, c := range cases {
		if got := DetectFormat(c.name, "", []byte("no magic here")); got != c.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestDetectFormatContentFallback(t *testing.T) {
	if got := DetectFormat("payload", "", []byte(`{"items":[1,2]}`)); got != "json" {
		t.Errorf("valid JSON detected as %q", got)
	}
	if got := DetectFormat("readme", "", []byte("نص عربي عادي")); got != "txt" {
		t.Errorf("plain text detected as %q", got)
	}
	if got := DetectFormat("blob", "", []byte{0x00, 0x01, 0x02, 0x03}); got != "" {
		t.Errorf("binary blob detected as %q, want empty", got)
	}
}

func TestIsImageFormat(t *testing.T) {
	if !IsImageFormat("png") || !IsImageFormat("tiff") {
		t.Error("image formats not recognized")
	}
	if IsImageFormat("pdf") || IsImageFormat("") {
		t.Error("non-image format recognized as image")
	}
}
