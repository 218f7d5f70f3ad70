package extract

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSONExtractor handles crawler exports. Two shapes are recognized: an
// object with a "pages" array (firecrawl-style crawls, each page carrying
// markdown or text plus url/title metadata) and a generic top-level array
// of objects or strings. Each element becomes its own doc so page-level
// metadata survives into chunk payloads.
type JSONExtractor struct{}

func (e *JSONExtractor) Formats() []string { return []string{"json"} }

func (e *JSONExtractor) Extract(ctx context.Context, name string, data []byte) (*Result, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}

	var elements []any
	switch v := root.(type) {
	case map[string]any:
		if pages, ok := v["pages"].([]any); ok {
			elements = pages
		} else {
			elements = []any{v}
		}
	case []any:
		elements = v
	default:
		return nil, fmt.Errorf("json root must be an object or array")
	}

	var docs []Doc
	var warnings []string

	for i, el := range elements {
		docName := fmt.Sprintf("%s#%d", name, i)
		switch item := el.(type) {
		case string:
			if item == "" {
				continue
			}
			docs = append(docs, Doc{Name: docName, Blocks: BlocksFromText(item, 0)})
		case map[string]any:
			text, meta := splitElement(item)
			if text == "" {
				warnings = append(warnings, fmt.Sprintf("element %d has no text field", i))
				continue
			}
			var blocks []Block
			if _, isMD := item["markdown"]; isMD {
				md := &MarkdownExtractor{}
				res, err := md.Extract(ctx, docName, []byte(text))
				if err == nil && len(res.Docs) == 1 {
					blocks = res.Docs[0].Blocks
				}
			}
			if blocks == nil {
				blocks = BlocksFromText(text, 0)
			}
			docs = append(docs, Doc{Name: docName, Blocks: blocks, Metadata: meta})
		default:
			warnings = append(warnings, fmt.Sprintf("element %d is not text or object", i))
		}
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("json contains no extractable text")
	}
	return &Result{Format: "json", Docs: docs, Warnings: warnings}, nil
}

// textFields are checked in order for the element body.
var textFields = []string{"markdown", "text", "content", "body"}

// splitElement pulls the body text out of an element and keeps the scalar
// remainder as metadata.
func splitElement(el map[string]any) (string, map[string]any) {
	var text string
	var used string
	for _, f := range textFields {
		if v, ok := el[f].(string); ok && v != "" {
			text = v
			used = f
			break
		}
	}

	meta := make(map[string]any)
	for k, v := range el {
		if k == used {
			continue
		}
		switch v.(type) {
		case string, float64, bool:
			meta[k] = v
		}
	}
	if len(meta) == 0 {
		meta = nil
	}
	return text, meta
}
