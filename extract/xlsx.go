package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXExtractor turns each sheet into a doc with a single table block,
// one line per row with " | " between cells. Empty rows and sheets are
// skipped.
type XLSXExtractor struct{}

func (e *XLSXExtractor) Formats() []string { return []string{"xlsx"} }

func (e *XLSXExtractor) Extract(_ context.Context, name string, data []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	var docs []Doc
	var warnings []string

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("sheet %s: %v", sheet, err))
			continue
		}

		var lines []string
		for _, row := range rows {
			joined := strings.TrimSpace(strings.Join(row, " | "))
			if strings.Trim(joined, "| ") == "" {
				continue
			}
			lines = append(lines, joined)
		}
		if len(lines) == 0 {
			continue
		}

		docs = append(docs, Doc{
			Name: fmt.Sprintf("%s#%s", name, sheet),
			Blocks: []Block{
				{Text: sheet, Type: BlockHeading, Level: 1},
				{Text: strings.Join(lines, "\n"), Type: BlockTable},
			},
			Metadata: map[string]any{"sheet": sheet},
		})
	}

	if len(docs) == 0 {
		warnings = append(warnings, "workbook has no non-empty sheets")
	}

	return &Result{Format: "xlsx", Docs: docs, Warnings: warnings}, nil
}
