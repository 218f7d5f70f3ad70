// Package chunker splits text into embedding-sized chunks. The sentence
// chunker handles flat prose; the structure chunker consumes extracted
// blocks and sizes chunks by their type.
package chunker

// Chunk is a unit of text ready for embedding.
type Chunk struct {
	Content       string
	Index         int    // position within the document
	Total         int    // total chunks in the document
	ContentType   string // text, heading, table, list, code, image_text, image_description
	SectionHeader string // nearest preceding heading, if any
	Metadata      map[string]any
}

// Config controls chunk sizing. Sizes are in runes, not bytes; Arabic is
// multi-byte in UTF-8 and byte sizing would halve the effective budget.
type Config struct {
	MaxChunkSize int  // maximum chunk length (default 350)
	Overlap      int  // trailing runes of a chunk repeated at the start of the next (default 100)
	Dynamic      bool // per-type size targets for structural chunks
}

func (c Config) withDefaults() Config {
	if c.MaxChunkSize == 0 {
		c.MaxChunkSize = 350
	}
	if c.Overlap == 0 {
		c.Overlap = 100
	}
	if c.Overlap >= c.MaxChunkSize {
		c.Overlap = c.MaxChunkSize / 4
	}
	return c
}

// finalize assigns Index and Total across a document's chunks.
func finalize(chunks []Chunk) []Chunk {
	for i := range chunks {
		chunks[i].Index = i
		chunks[i].Total = len(chunks)
	}
	return chunks
}
