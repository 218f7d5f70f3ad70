package chunker

import "strings"

// SentenceChunker packs whole sentences into chunks with a rune-overlap
// tail carried between consecutive chunks.
type SentenceChunker struct {
	cfg Config
}

// NewSentence returns a sentence chunker. Zero-value config fields get
// defaults.
func NewSentence(cfg Config) *SentenceChunker {
	return &SentenceChunker{cfg: cfg.withDefaults()}
}

// Chunk splits text into sentence-packed chunks. Empty or whitespace-only
// input yields no chunks. Apart from the overlap prefix each chunk
// carries, joining the chunks reconstructs the input up to whitespace
// collapse.
func (c *SentenceChunker) Chunk(text string) []Chunk {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var contents []string
	var cur strings.Builder
	curLen := 0 // runes in cur, excluding the overlap prefix bookkeeping

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		contents = append(contents, cur.String())
		cur.Reset()
		curLen = 0
	}

	for _, sent := range sentences {
		sentLen := runeLen(sent)

		// A single sentence longer than the budget splits at whitespace.
		if sentLen > c.cfg.MaxChunkSize {
			flush()
			pieces := splitAtWhitespace(sent, c.cfg.MaxChunkSize)
			contents = append(contents, pieces...)
			continue
		}

		if curLen > 0 && curLen+1+sentLen > c.cfg.MaxChunkSize {
			flush()
		}

		if cur.Len() == 0 && len(contents) > 0 {
			// Start the new chunk with the tail of the previous one.
			overlap := tailRunes(contents[len(contents)-1], c.cfg.Overlap)
			if overlap != "" {
				cur.WriteString(overlap)
				cur.WriteByte(' ')
			}
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(sent)
		curLen += sentLen
	}
	flush()

	chunks := make([]Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = Chunk{Content: content, ContentType: "text"}
	}
	return finalize(chunks)
}

// Sentence terminators: Latin and Arabic.
func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '؟'
}

// SplitSentences splits text into sentences, keeping the terminator
// attached. Text after the last terminator forms a final sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	for _, r := range text {
		cur.WriteRune(r)
		if isTerminator(r) {
			if s := strings.TrimSpace(cur.String()); s != "" {
				sentences = append(sentences, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// splitAtWhitespace breaks an oversized sentence into pieces of at most
// max runes, cutting only between words. A single word longer than max
// becomes its own piece.
func splitAtWhitespace(text string, max int) []string {
	words := strings.Fields(text)
	var pieces []string
	var cur strings.Builder
	curLen := 0

	for _, w := range words {
		wLen := runeLen(w)
		if curLen > 0 && curLen+1+wLen > max {
			pieces = append(pieces, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(w)
		curLen += wLen
	}
	if cur.Len() > 0 {
		pieces = append(pieces, cur.String())
	}
	return pieces
}

// tailRunes returns the last n runes of s, cut forward to the next word
// boundary so the overlap never starts mid-word.
func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	tail := string(runes[len(runes)-n:])
	if i := strings.IndexByte(tail, ' '); i >= 0 {
		tail = tail[i+1:]
	}
	return strings.TrimSpace(tail)
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
