package chunker

import (
	"strings"

	"github.com/dalilchat/dalil/extract"
)

// Dynamic size targets per block type. Headings are short labels, tables
// and lists compress well per line, prose tolerates longer spans.
const (
	targetHeading = 150
	targetTable   = 250
	targetList    = 300
	targetProse   = 400
)

// StructureChunker converts extracted blocks into chunks, keeping tables
// and lists intact where possible and labeling every chunk with its type
// and nearest section heading.
type StructureChunker struct {
	cfg      Config
	sentence *SentenceChunker
}

// NewStructure returns a structure-aware chunker.
func NewStructure(cfg Config) *StructureChunker {
	cfg = cfg.withDefaults()
	return &StructureChunker{cfg: cfg, sentence: NewSentence(cfg)}
}

// Chunk converts a document's blocks into a flat chunk slice with Index
// and Total assigned across the whole document.
func (c *StructureChunker) Chunk(blocks []extract.Block) []Chunk {
	var chunks []Chunk
	section := ""

	for _, b := range blocks {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}

		switch b.Type {
		case extract.BlockHeading:
			section = text
			chunks = append(chunks, c.newChunk(text, "heading", section, b))

		case extract.BlockTable:
			for _, frag := range c.splitTable(text) {
				chunks = append(chunks, c.newChunk(frag, "table", section, b))
			}

		case extract.BlockList:
			for _, frag := range packLines(strings.Split(text, "\n"), c.sizeFor(targetList)) {
				chunks = append(chunks, c.newChunk(frag, "list", section, b))
			}

		case extract.BlockCode:
			max := c.cfg.MaxChunkSize
			if runeLen(text) <= max+max/2 {
				chunks = append(chunks, c.newChunk(text, "code", section, b))
			} else {
				for _, frag := range packLines(strings.Split(text, "\n"), max) {
					chunks = append(chunks, c.newChunk(frag, "code", section, b))
				}
			}

		case extract.BlockImageText, extract.BlockImageDescription:
			for _, sc := range c.proseChunks(text) {
				chunks = append(chunks, c.newChunk(sc, b.Type, section, b))
			}

		default: // prose
			for _, sc := range c.proseChunks(text) {
				chunks = append(chunks, c.newChunk(sc, "text", section, b))
			}
		}
	}
	return finalize(chunks)
}

func (c *StructureChunker) newChunk(content, contentType, section string, b extract.Block) Chunk {
	var meta map[string]any
	if b.Page > 0 || b.Language != "" || len(b.Metadata) > 0 {
		meta = make(map[string]any, len(b.Metadata)+2)
		for k, v := range b.Metadata {
			meta[k] = v
		}
		if b.Page > 0 {
			meta["page"] = b.Page
		}
		if b.Language != "" {
			meta["language"] = b.Language
		}
	}
	return Chunk{
		Content:       content,
		ContentType:   contentType,
		SectionHeader: section,
		Metadata:      meta,
	}
}

// sizeFor applies the dynamic target when enabled, capped by the hard
// maximum only when the configured maximum is smaller than the default.
func (c *StructureChunker) sizeFor(target int) int {
	if !c.cfg.Dynamic {
		return c.cfg.MaxChunkSize
	}
	return target
}

func (c *StructureChunker) proseChunks(text string) []string {
	size := c.sizeFor(targetProse)
	sc := c.sentence
	if size != c.cfg.MaxChunkSize {
		sc = NewSentence(Config{MaxChunkSize: size, Overlap: c.cfg.Overlap})
	}
	parts := sc.Chunk(text)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.Content
	}
	return out
}

// splitTable keeps a table whole when it fits within 1.5x the chunk
// budget; otherwise it splits row-wise, repeating the header row in every
// fragment so each stays interpretable on its own.
func (c *StructureChunker) splitTable(table string) []string {
	max := c.cfg.MaxChunkSize
	if runeLen(table) <= max+max/2 {
		return []string{table}
	}

	rows := strings.Split(table, "\n")
	if len(rows) < 2 {
		return []string{table}
	}
	header := rows[0]
	target := c.sizeFor(targetTable)

	var fragments []string
	cur := []string{header}
	curLen := runeLen(header)

	for _, row := range rows[1:] {
		rowLen := runeLen(row) + 1
		if len(cur) > 1 && curLen+rowLen > target {
			fragments = append(fragments, strings.Join(cur, "\n"))
			cur = []string{header}
			curLen = runeLen(header)
		}
		cur = append(cur, row)
		curLen += rowLen
	}
	if len(cur) > 1 {
		fragments = append(fragments, strings.Join(cur, "\n"))
	}
	return fragments
}

// packLines greedily joins lines into fragments of at most max runes.
// A single oversized line becomes its own fragment.
func packLines(lines []string, max int) []string {
	var fragments []string
	var cur []string
	curLen := 0

	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		lineLen := runeLen(line) + 1
		if len(cur) > 0 && curLen+lineLen > max {
			fragments = append(fragments, strings.Join(cur, "\n"))
			cur = nil
			curLen = 0
		}
		cur = append(cur, line)
		curLen += lineLen
	}
	if len(cur) > 0 {
		fragments = append(fragments, strings.Join(cur, "\n"))
	}
	return fragments
}
