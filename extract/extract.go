// Package extract turns uploaded files into structured text blocks.
//
// Each format has an extractor registered by name. Extractors return
// ordered blocks (headings, paragraphs, tables, lists, code) so the
// chunker can size and label chunks by structure instead of treating
// every document as flat prose.
package extract

import (
	"context"
	"fmt"
)

// Block types produced by extractors.
const (
	BlockText             = "text"
	BlockHeading          = "heading"
	BlockTable            = "table"
	BlockList             = "list"
	BlockCode             = "code"
	BlockImageText        = "image_text"
	BlockImageDescription = "image_description"
)

// Block is a structural unit of extracted text.
type Block struct {
	Text     string
	Type     string
	Level    int    // heading level, 1-6; 0 otherwise
	Language string // code fence language, if any
	Page     int    // source page, 0 when not paginated
	Metadata map[string]any
}

// Doc is one logical document produced from a file. Most formats yield a
// single doc; spreadsheets yield one per sheet and JSON bundles one per
// element.
type Doc struct {
	Name     string
	Blocks   []Block
	Metadata map[string]any
}

// Result is the outcome of extraction.
type Result struct {
	Docs     []Doc
	Format   string
	Warnings []string
}

// Text concatenates all block text of all docs, blank-line separated.
// Convenience for callers that only need flat text.
func (r *Result) Text() string {
	var out string
	for _, d := range r.Docs {
		for _, b := range d.Blocks {
			if b.Text == "" {
				continue
			}
			if out != "" {
				out += "\n\n"
			}
			out += b.Text
		}
	}
	return out
}

// Extractor handles one or more file formats.
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) (*Result, error)
	Formats() []string
}

// Registry maps format names to extractors.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry returns a registry with all built-in extractors registered.
// Image extraction is only available after SetVision.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	for _, e := range []Extractor{
		&TextExtractor{},
		&PDFExtractor{},
		&HTMLExtractor{},
		&MarkdownExtractor{},
		&DOCXExtractor{},
		&XLSXExtractor{},
		&JSONExtractor{},
	} {
		for _, f := range e.Formats() {
			r.extractors[f] = e
		}
	}
	return r
}

// SetVision registers the image extractor backed by a vision model.
func (r *Registry) SetVision(e Extractor) {
	for _, f := range e.Formats() {
		r.extractors[f] = e
	}
}

// Get returns the extractor for a format.
func (r *Registry) Get(format string) (Extractor, error) {
	e, ok := r.extractors[format]
	if !ok {
		return nil, fmt.Errorf("no extractor for format: %s", format)
	}
	return e, nil
}

// Register adds or replaces the extractor for a format.
func (r *Registry) Register(format string, e Extractor) {
	r.extractors[format] = e
}

// Supported reports whether a format has a registered extractor.
func (r *Registry) Supported(format string) bool {
	_, ok := r.extractors[format]
	return ok
}
