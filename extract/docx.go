package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DOCXExtractor reads word/document.xml out of the docx zip and walks the
// WordprocessingML token stream. Paragraph styles map to heading levels
// and tables are linearized row-wise.
type DOCXExtractor struct{}

func (e *DOCXExtractor) Formats() []string { return []string{"docx"} }

func (e *DOCXExtractor) Extract(_ context.Context, name string, data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening docx archive: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("opening document.xml: %w", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("reading document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return nil, fmt.Errorf("docx archive has no word/document.xml")
	}

	blocks, err := parseDocumentXML(docXML)
	if err != nil {
		return nil, err
	}

	return &Result{
		Format: "docx",
		Docs:   []Doc{{Name: name, Blocks: blocks}},
	}, nil
}

// parseDocumentXML streams the document body. Paragraphs accumulate run
// text; a pStyle of Heading1..9 or Title marks a heading. Tables collect
// cell text per row. Consecutive list paragraphs (numPr present) merge
// into a single list block.
func parseDocumentXML(docXML []byte) ([]Block, error) {
	dec := xml.NewDecoder(bytes.NewReader(docXML))

	var blocks []Block
	var listItems []string

	flushList := func() {
		if len(listItems) > 0 {
			blocks = append(blocks, Block{Text: strings.Join(listItems, "\n"), Type: BlockList})
			listItems = nil
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing document.xml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "tbl":
			flushList()
			rows, err := parseTable(dec)
			if err != nil {
				return nil, err
			}
			if len(rows) > 0 {
				blocks = append(blocks, Block{Text: strings.Join(rows, "\n"), Type: BlockTable})
			}
		case "p":
			text, style, isList, err := parseParagraph(dec)
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			switch {
			case isList:
				listItems = append(listItems, "- "+text)
			case headingLevel(style) > 0:
				flushList()
				blocks = append(blocks, Block{Text: text, Type: BlockHeading, Level: headingLevel(style)})
			default:
				flushList()
				blocks = append(blocks, Block{Text: text, Type: BlockText})
			}
		}
	}
	flushList()
	return blocks, nil
}

// parseParagraph consumes tokens until </w:p>, returning the joined run
// text, the paragraph style, and whether numbering properties were seen.
func parseParagraph(dec *xml.Decoder) (text, style string, isList bool, err error) {
	var b strings.Builder
	depth := 1
	inText := false

	for depth > 0 {
		tok, terr := dec.Token()
		if terr != nil {
			return "", "", false, fmt.Errorf("parsing paragraph: %w", terr)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				depth++
			case "t":
				inText = true
			case "pStyle":
				for _, a := range t.Attr {
					if a.Name.Local == "val" {
						style = a.Value
					}
				}
			case "numPr":
				isList = true
			case "tab":
				b.WriteByte('\t')
			case "br":
				b.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				depth--
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return collapseSpace(b.String()), style, isList, nil
}

// parseTable consumes tokens until </w:tbl> and returns one line per row.
func parseTable(dec *xml.Decoder) ([]string, error) {
	var rows []string
	var cells []string
	var cell strings.Builder
	depth := 1
	inText := false
	inCell := false

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing table: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				depth++
			case "tc":
				inCell = true
				cell.Reset()
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				depth--
			case "tc":
				inCell = false
				cells = append(cells, collapseSpace(cell.String()))
			case "tr":
				if len(cells) > 0 {
					rows = append(rows, strings.Join(cells, " | "))
					cells = nil
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inCell && inText {
				cell.Write(t)
			}
		}
	}
	return rows, nil
}

// headingLevel maps a WordprocessingML paragraph style to a heading level.
func headingLevel(style string) int {
	s := strings.ToLower(style)
	if s == "title" {
		return 1
	}
	if strings.HasPrefix(s, "heading") {
		rest := strings.TrimPrefix(s, "heading")
		switch rest {
		case "1":
			return 1
		case "2":
			return 2
		case "3":
			return 3
		case "4":
			return 4
		case "5":
			return 5
		case "6", "7", "8", "9":
			return 6
		}
	}
	return 0
}
