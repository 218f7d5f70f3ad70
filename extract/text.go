package extract

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// TextExtractor handles plain text, decoding the legacy encodings Arabic
// documents still ship in (windows-1256, ISO-8859-6, UTF-16).
type TextExtractor struct{}

func (e *TextExtractor) Formats() []string { return []string{"txt"} }

func (e *TextExtractor) Extract(_ context.Context, name string, data []byte) (*Result, error) {
	text, encodingName, warning := decodeText(data)

	res := &Result{
		Format: "txt",
		Docs: []Doc{{
			Name:   name,
			Blocks: BlocksFromText(text, 0),
			Metadata: map[string]any{
				"encoding": encodingName,
			},
		}},
	}
	if warning != "" {
		res.Warnings = append(res.Warnings, warning)
	}
	return res, nil
}

// decodeText converts raw bytes to a UTF-8 string, trying BOM-declared
// encodings first, then UTF-8, then the Arabic legacy code pages. Returns
// the decoded text, the encoding used, and an optional warning.
func decodeText(data []byte) (string, string, string) {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return string(data[3:]), "utf-8", ""
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		if s, err := decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder(), data); err == nil {
			return s, "utf-16le", ""
		}
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		if s, err := decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder(), data); err == nil {
			return s, "utf-16be", ""
		}
	}

	if utf8.Valid(data) {
		return string(data), "utf-8", ""
	}

	// No BOM and not UTF-8: decode with both Arabic code pages and keep
	// the candidate containing more Arabic letters. Windows-1256 is far
	// more common in the wild, so it wins ties.
	win, werr := decodeWith(charmap.Windows1256.NewDecoder(), data)
	iso, ierr := decodeWith(charmap.ISO8859_6.NewDecoder(), data)
	switch {
	case werr == nil && (ierr != nil || arabicCount(win) >= arabicCount(iso)):
		return win, "windows-1256", "decoded as windows-1256 (no BOM, not valid UTF-8)"
	case ierr == nil:
		return iso, "iso-8859-6", "decoded as iso-8859-6 (no BOM, not valid UTF-8)"
	}

	// Last resort: lossy UTF-8.
	return strings.ToValidUTF8(string(data), "�"), "utf-8", "invalid bytes replaced during decoding"
}

func decodeWith(dec *encoding.Decoder, data []byte) (string, error) {
	out, err := dec.Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func arabicCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x0600 && r <= 0x06FF {
			n++
		}
	}
	return n
}

// BlocksFromText splits flat text into structural blocks using layout
// heuristics: short standalone lines in title case or ending with a colon
// become headings, pipe-delimited line runs become tables, bullet or
// numbered line runs become lists, and everything else groups into
// paragraphs on blank lines.
func BlocksFromText(text string, page int) []Block {
	lines := strings.Split(text, "\n")
	var blocks []Block
	var para []string

	flushPara := func() {
		if len(para) == 0 {
			return
		}
		joined := strings.TrimSpace(strings.Join(para, "\n"))
		if joined != "" {
			blocks = append(blocks, Block{Text: joined, Type: BlockText, Page: page})
		}
		para = nil
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "":
			flushPara()
		case isTableLine(line):
			flushPara()
			start := i
			for i+1 < len(lines) && isTableLine(strings.TrimSpace(lines[i+1])) {
				i++
			}
			rows := make([]string, 0, i-start+1)
			for _, l := range lines[start : i+1] {
				rows = append(rows, strings.TrimSpace(l))
			}
			blocks = append(blocks, Block{Text: strings.Join(rows, "\n"), Type: BlockTable, Page: page})
		case isListLine(line):
			flushPara()
			start := i
			for i+1 < len(lines) && isListLine(strings.TrimSpace(lines[i+1])) {
				i++
			}
			items := make([]string, 0, i-start+1)
			for _, l := range lines[start : i+1] {
				items = append(items, strings.TrimSpace(l))
			}
			blocks = append(blocks, Block{Text: strings.Join(items, "\n"), Type: BlockList, Page: page})
		case isHeadingLine(line, para):
			flushPara()
			blocks = append(blocks, Block{Text: strings.TrimSuffix(line, ":"), Type: BlockHeading, Level: 2, Page: page})
		default:
			para = append(para, line)
		}
	}
	flushPara()
	return blocks
}

func isTableLine(line string) bool {
	return strings.Count(line, "|") >= 2
}

func isListLine(line string) bool {
	if line == "" {
		return false
	}
	for _, p := range []string{"- ", "* ", "• ", "– "} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	// numbered items: "1. ", "٢. ", "3) "
	r := []rune(line)
	i := 0
	for i < len(r) && (r[i] >= '0' && r[i] <= '9' || r[i] >= '٠' && r[i] <= '٩') {
		i++
	}
	return i > 0 && i < len(r) && (r[i] == '.' || r[i] == ')') && i+1 < len(r) && r[i+1] == ' '
}

// isHeadingLine treats a short line with no terminal punctuation as a
// heading when it is not part of a running paragraph.
func isHeadingLine(line string, para []string) bool {
	if len(para) > 0 {
		return false
	}
	runes := []rune(line)
	if len(runes) == 0 || len(runes) > 60 {
		return false
	}
	last := runes[len(runes)-1]
	if last == '.' || last == '؟' || last == '!' || last == '?' || last == '،' || last == ',' {
		return false
	}
	if strings.HasSuffix(line, ":") {
		return true
	}
	return len(strings.Fields(line)) <= 6
}
