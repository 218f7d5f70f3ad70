package chunker

import (
	"strings"
	"testing"

	"github.com/dalilchat/dalil/extract"
)

func TestStructureHeadingsOwnChunksAndCarry(t *testing.T) {
	blocks := []extract.Block{
		{Text: "المقدمة", Type: extract.BlockHeading, Level: 1},
		{Text: "هذا نص الفقرة الأولى.", Type: extract.BlockText},
		{Text: "الفصل الثاني", Type: extract.BlockHeading, Level: 1},
		{Text: "نص الفصل الثاني.", Type: extract.BlockText},
	}

	c := NewStructure(Config{MaxChunkSize: 350, Overlap: 100, Dynamic: true})
	chunks := c.Chunk(blocks)

	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	if chunks[0].ContentType != "heading" {
		t.Errorf("chunk 0 type = %q, want heading", chunks[0].ContentType)
	}
	if chunks[1].SectionHeader != "المقدمة" {
		t.Errorf("chunk 1 section = %q, want المقدمة", chunks[1].SectionHeader)
	}
	if chunks[3].SectionHeader != "الفصل الثاني" {
		t.Errorf("chunk 3 section = %q, want الفصل الثاني", chunks[3].SectionHeader)
	}
	for i, ch := range chunks {
		if ch.Index != i || ch.Total != 4 {
			t.Errorf("chunk %d index/total = %d/%d", i, ch.Index, ch.Total)
		}
	}
}

func TestStructureSmallTableStaysWhole(t *testing.T) {
	table := "الاسم | العمر\nأحمد | 30\nليلى | 25"
	c := NewStructure(Config{MaxChunkSize: 350, Overlap: 100})
	chunks := c.Chunk([]extract.Block{{Text: table, Type: extract.BlockTable}})

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].ContentType != "table" {
		t.Errorf("type = %q, want table", chunks[0].ContentType)
	}
	if chunks[0].Content != table {
		t.Errorf("table content modified:\n%q", chunks[0].Content)
	}
}

func TestStructureLargeTableSplitsWithHeader(t *testing.T) {
	header := "name | value"
	rows := make([]string, 0, 40)
	rows = append(rows, header)
	for i := 0; i < 40; i++ {
		rows = append(rows, strings.Repeat("x", 20)+" | row")
	}
	table := strings.Join(rows, "\n")

	c := NewStructure(Config{MaxChunkSize: 120, Overlap: 20, Dynamic: true})
	chunks := c.Chunk([]extract.Block{{Text: table, Type: extract.BlockTable}})

	if len(chunks) < 2 {
		t.Fatalf("large table should split, got %d chunks", len(chunks))
	}
	for i, ch := range chunks {
		if !strings.HasPrefix(ch.Content, header) {
			t.Errorf("fragment %d does not start with the header row", i)
		}
		if ch.ContentType != "table" {
			t.Errorf("fragment %d type = %q, want table", i, ch.ContentType)
		}
	}
}

func TestStructureListPacking(t *testing.T) {
	items := make([]string, 20)
	for i := range items {
		items[i] = "- " + strings.Repeat("بند ", 10)
	}
	c := NewStructure(Config{MaxChunkSize: 350, Overlap: 100, Dynamic: true})
	chunks := c.Chunk([]extract.Block{{Text: strings.Join(items, "\n"), Type: extract.BlockList}})

	if len(chunks) < 2 {
		t.Fatalf("long list should split, got %d chunks", len(chunks))
	}
	for i, ch := range chunks {
		if ch.ContentType != "list" {
			t.Errorf("chunk %d type = %q, want list", i, ch.ContentType)
		}
	}
}

func TestStructureCarriesPageMetadata(t *testing.T) {
	c := NewStructure(Config{})
	chunks := c.Chunk([]extract.Block{
		{Text: "نص من الصفحة الثالثة.", Type: extract.BlockText, Page: 3},
	})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if page, _ := chunks[0].Metadata["page"].(int); page != 3 {
		t.Errorf("page metadata = %v, want 3", chunks[0].Metadata["page"])
	}
}

func TestStructureSkipsEmptyBlocks(t *testing.T) {
	c := NewStructure(Config{})
	chunks := c.Chunk([]extract.Block{
		{Text: "   ", Type: extract.BlockText},
		{Text: "", Type: extract.BlockHeading},
	})
	if len(chunks) != 0 {
		t.Errorf("got %d chunks, want 0", len(chunks))
	}
}
