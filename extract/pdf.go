package extract

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts per-page text and strips the repeated furniture
// (running headers, footers, page numbers) that would otherwise pollute
// every chunk of a scanned report.
type PDFExtractor struct{}

func (e *PDFExtractor) Formats() []string { return []string{"pdf"} }

func (e *PDFExtractor) Extract(_ context.Context, name string, data []byte) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([][]string, 0, numPages)
	var warnings []string

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: text extraction failed", i))
			pages = append(pages, nil)
			continue
		}
		pages = append(pages, strings.Split(text, "\n"))
	}

	repeated := repeatedLines(pages)

	var blocks []Block
	emptyPages := 0
	for i, lines := range pages {
		cleaned := cleanPage(lines, repeated)
		if cleaned == "" {
			emptyPages++
			continue
		}
		blocks = append(blocks, BlocksFromText(cleaned, i+1)...)
	}

	if emptyPages == numPages && numPages > 0 {
		warnings = append(warnings, "no extractable text; the document may be scanned images")
	}

	return &Result{
		Format: "pdf",
		Docs: []Doc{{
			Name:   name,
			Blocks: blocks,
			Metadata: map[string]any{
				"pages": numPages,
			},
		}},
		Warnings: warnings,
	}, nil
}

// pageNumberPatterns match lines that are only page numbering.
var pageNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^[٠-٩]+$`),
	regexp.MustCompile(`(?i)^page\s+\d+(\s+of\s+\d+)?$`),
	regexp.MustCompile(`^صفحة\s+[\d٠-٩]+$`),
	regexp.MustCompile(`^[-–]\s*\d+\s*[-–]$`),
}

func isPageNumber(line string) bool {
	for _, p := range pageNumberPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// repeatedLines returns trimmed lines that appear on three or more
// distinct pages. These are running headers and footers.
func repeatedLines(pages [][]string) map[string]bool {
	counts := make(map[string]int)
	for _, lines := range pages {
		seen := make(map[string]bool)
		for _, l := range lines {
			l = strings.TrimSpace(l)
			if l == "" || seen[l] {
				continue
			}
			seen[l] = true
			counts[l]++
		}
	}
	repeated := make(map[string]bool)
	for l, n := range counts {
		if n >= 3 {
			repeated[l] = true
		}
	}
	return repeated
}

func cleanPage(lines []string, repeated map[string]bool) string {
	var kept []string
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			kept = append(kept, "")
			continue
		}
		if repeated[trimmed] || isPageNumber(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
