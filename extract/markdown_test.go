package extract

import (
	"context"
	"strings"
	"testing"
)

const markdownSample = `# عنوان رئيسي

## قسم فرعي

فقرة اولى
تكمل على سطرين.

- بند اول
- بند ثاني

| الاسم | العدد |
|------|------|
| كتب | 5 |

` + "```go\nfmt.Println(\"hi\")\n```\n"

func TestMarkdownExtractor(t *testing.T) {
	e := &MarkdownExtractor{}
	res, err := e.Extract(context.Background(), "doc.md", []byte(markdownSample))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	blocks := res.Docs[0].Blocks
	if len(blocks) != 6 {
		t.Fatalf("got %d blocks, want 6: %+v", len(blocks), blocks)
	}

	if blocks[0].Type != BlockHeading || blocks[0].Level != 1 || blocks[0].Text != "عنوان رئيسي" {
		t.Errorf("block 0 = %+v", blocks[0])
	}
	if blocks[1].Type != BlockHeading || blocks[1].Level != 2 {
		t.Errorf("block 1 = %+v", blocks[1])
	}
	if blocks[2].Type != BlockText || blocks[2].Text != "فقرة اولى تكمل على سطرين." {
		t.Errorf("block 2 = %+v, want wrapped lines joined with a space", blocks[2])
	}
	if blocks[3].Type != BlockList || strings.Count(blocks[3].Text, "\n") != 1 {
		t.Errorf("block 3 = %+v", blocks[3])
	}
	if blocks[4].Type != BlockTable {
		t.Fatalf("block 4 = %+v", blocks[4])
	}
	if strings.Contains(blocks[4].Text, "---") {
		t.Error("table separator row must be dropped")
	}
	if strings.Count(blocks[4].Text, "\n") != 1 {
		t.Errorf("table should keep header and one data row: %q", blocks[4].Text)
	}
	if blocks[5].Type != BlockCode || blocks[5].Language != "go" {
		t.Errorf("block 5 = %+v, want go code block", blocks[5])
	}
	if blocks[5].Text != `fmt.Println("hi")` {
		t.Errorf("code body = %q", blocks[5].Text)
	}
}

func TestMarkdownExtractorUnclosedFence(t *testing.T) {
	e := &MarkdownExtractor{}
	res, err := e.Extract(context.Background(), "doc.md", []byte("```\ncode line\n"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	blocks := res.Docs[0].Blocks
	if len(blocks) != 1 || blocks[0].Type != BlockCode || blocks[0].Text != "code line" {
		t.Errorf("unclosed fence: %+v", blocks)
	}
}

func TestMarkdownExtractorEmpty(t *testing.T) {
	e := &MarkdownExtractor{}
	res, err := e.Extract(context.Background(), "empty.md", []byte("   \n\n  "))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Docs[0].Blocks) != 0 {
		t.Errorf("empty input produced blocks: %+v", res.Docs[0].Blocks)
	}
}
