package chunker

import (
	"strings"
	"testing"
)

func TestSplitSentencesKeepsTerminators(t *testing.T) {
	text := "الجملة الأولى. هل هذه الثانية؟ نعم! And an English one."
	sentences := SplitSentences(text)
	want := []string{
		"الجملة الأولى.",
		"هل هذه الثانية؟",
		"نعم!",
		"And an English one.",
	}
	if len(sentences) != len(want) {
		t.Fatalf("got %d sentences, want %d: %v", len(sentences), len(want), sentences)
	}
	for i := range want {
		if sentences[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, sentences[i], want[i])
		}
	}
}

func TestSplitSentencesTrailingText(t *testing.T) {
	sentences := SplitSentences("جملة كاملة. ذيل بدون نهاية")
	if len(sentences) != 2 {
		t.Fatalf("got %d sentences, want 2", len(sentences))
	}
	if sentences[1] != "ذيل بدون نهاية" {
		t.Errorf("trailing sentence = %q", sentences[1])
	}
}

func TestSentenceChunkEmpty(t *testing.T) {
	c := NewSentence(Config{})
	if got := c.Chunk(""); got != nil {
		t.Errorf("empty input: got %v, want nil", got)
	}
	if got := c.Chunk("   \n\t "); got != nil {
		t.Errorf("whitespace input: got %v, want nil", got)
	}
}

func TestSentenceChunkSingleFits(t *testing.T) {
	c := NewSentence(Config{MaxChunkSize: 100, Overlap: 20})
	chunks := c.Chunk("جملة قصيرة واحدة.")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Index != 0 || chunks[0].Total != 1 {
		t.Errorf("index/total = %d/%d, want 0/1", chunks[0].Index, chunks[0].Total)
	}
	if chunks[0].ContentType != "text" {
		t.Errorf("content type = %q, want text", chunks[0].ContentType)
	}
}

func TestSentenceChunkPacking(t *testing.T) {
	// Four ~30-rune sentences with a 70-rune budget: two per chunk.
	sent := strings.Repeat("كلمه ", 5) + "نهايه."
	text := strings.Join([]string{sent, sent, sent, sent}, " ")

	c := NewSentence(Config{MaxChunkSize: 70, Overlap: 10})
	chunks := c.Chunk(text)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d has Index %d", i, ch.Index)
		}
		if ch.Total != len(chunks) {
			t.Errorf("chunk %d has Total %d, want %d", i, ch.Total, len(chunks))
		}
	}
}

func TestSentenceChunkOverlapIsSuffixOfPrevious(t *testing.T) {
	sent := strings.Repeat("word ", 8) + "end."
	text := strings.Join([]string{sent, sent, sent, sent, sent}, " ")

	c := NewSentence(Config{MaxChunkSize: 90, Overlap: 20})
	chunks := c.Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("need multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		// The chunk starts with the overlap tail of its predecessor.
		head := strings.SplitN(chunks[i].Content, " ", 2)[0]
		if !strings.Contains(chunks[i-1].Content, head) {
			t.Errorf("chunk %d head %q not found in previous chunk", i, head)
		}
	}
}

func TestSentenceChunkReconstruction(t *testing.T) {
	const overlap = 15
	text := "الجمله الاولي تشرح بداية الموضوع بوضوح. " +
		"الجمله الثانيه تكمل الشرح بتفصيل اكبر. " +
		"الجمله الثالثه تختم الموضوع بخلاصه نهائيه."

	c := NewSentence(Config{MaxChunkSize: 60, Overlap: overlap})
	chunks := c.Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("need multiple chunks, got %d", len(chunks))
	}

	// Strip each chunk's overlap prefix (the suffix it shares with its
	// predecessor, at most Overlap runes) and re-join; the result must
	// equal the input modulo whitespace collapse. Bounding the search to
	// the overlap budget keeps repeated sentence text in the body from
	// being mistaken for overlap.
	var rebuilt strings.Builder
	for i, ch := range chunks {
		content := ch.Content
		if i > 0 {
			prev := chunks[i-1].Content
			limit := len(content)
			if r := []rune(content); len(r) > overlap {
				limit = len(string(r[:overlap]))
			}
			// Longest bounded prefix of content that is a suffix of prev.
			cut := 0
			for j := limit; j > 0; j-- {
				if strings.HasSuffix(prev, content[:j]) {
					cut = j
					break
				}
			}
			content = strings.TrimSpace(content[cut:])
		}
		if rebuilt.Len() > 0 && content != "" {
			rebuilt.WriteByte(' ')
		}
		rebuilt.WriteString(content)
	}

	wantNorm := strings.Join(strings.Fields(text), " ")
	gotNorm := strings.Join(strings.Fields(rebuilt.String()), " ")
	if gotNorm != wantNorm {
		t.Errorf("reconstruction mismatch:\n got %q\nwant %q", gotNorm, wantNorm)
	}
}

func TestSentenceChunkOversizedSentence(t *testing.T) {
	long := strings.Repeat("طويله ", 40) + "." // far beyond the budget
	c := NewSentence(Config{MaxChunkSize: 50, Overlap: 10})
	chunks := c.Chunk(long)

	if len(chunks) < 2 {
		t.Fatalf("oversized sentence should split, got %d chunks", len(chunks))
	}
	for i, ch := range chunks {
		if runeLen(ch.Content) > 50 {
			t.Errorf("chunk %d has %d runes, budget 50", i, runeLen(ch.Content))
		}
	}
}
