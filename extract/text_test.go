package extract

import (
	"context"
	"strings"
	"testing"
)

func TestDecodeTextUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("مرحبا")...)
	text, enc, warning := decodeText(data)
	if text != "مرحبا" || enc != "utf-8" || warning != "" {
		t.Errorf("got (%q, %q, %q)", text, enc, warning)
	}
}

func TestDecodeTextUTF16LE(t *testing.T) {
	data := []byte{0xFF, 0xFE, 'a', 0x00, 'b', 0x00}
	text, enc, _ := decodeText(data)
	if text != "ab" || enc != "utf-16le" {
		t.Errorf("got (%q, %q)", text, enc)
	}
}

func TestDecodeTextWindows1256(t *testing.T) {
	// "مرحبا" in windows-1256.
	data := []byte{0xE3, 0xD1, 0xCD, 0xC8, 0xC7}
	text, enc, warning := decodeText(data)
	if text != "مرحبا" {
		t.Errorf("decoded text = %q, want مرحبا", text)
	}
	if enc != "windows-1256" {
		t.Errorf("encoding = %q, want windows-1256", enc)
	}
	if warning == "" {
		t.Error("legacy decode should carry a warning")
	}
}

func TestDecodeTextValidUTF8Passthrough(t *testing.T) {
	text, enc, warning := decodeText([]byte("plain utf-8 text"))
	if text != "plain utf-8 text" || enc != "utf-8" || warning != "" {
		t.Errorf("got (%q, %q, %q)", text, enc, warning)
	}
}

func TestBlocksFromTextStructure(t *testing.T) {
	input := "مقدمة:\n\n" +
		"هذه فقرة طويلة نوعا ما تشرح الموضوع بشيء من التفصيل الكافي.\n\n" +
		"- بند اول\n- بند ثاني\n\n" +
		"الاسم | العدد | الفئة\nكتب | 5 | ادب\n"

	blocks := BlocksFromText(input, 2)
	if len(blocks) != 4 {
		t.Fatalf("got %d blocks, want 4: %+v", len(blocks), blocks)
	}

	if blocks[0].Type != BlockHeading || blocks[0].Text != "مقدمة" {
		t.Errorf("block 0 = %+v, want heading with colon stripped", blocks[0])
	}
	if blocks[1].Type != BlockText {
		t.Errorf("block 1 type = %q, want text", blocks[1].Type)
	}
	if blocks[2].Type != BlockList || !strings.Contains(blocks[2].Text, "بند ثاني") {
		t.Errorf("block 2 = %+v, want a two-item list", blocks[2])
	}
	if blocks[3].Type != BlockTable || strings.Count(blocks[3].Text, "\n") != 1 {
		t.Errorf("block 3 = %+v, want a two-row table", blocks[3])
	}
	for i, b := range blocks {
		if b.Page != 2 {
			t.Errorf("block %d page = %d, want 2", i, b.Page)
		}
	}
}

func TestBlocksFromTextParagraphGrouping(t *testing.T) {
	input := "السطر الاول من الفقرة يحمل بداية الفكرة الرئيسية للنص.\nوالسطر الثاني يكملها حتي نهاية الفقرة بشكل طبيعي.\n\nفقرة ثانية مستقلة تتحدث عن موضوع اخر تماما في النص."
	blocks := BlocksFromText(input, 0)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2: %+v", len(blocks), blocks)
	}
	if !strings.Contains(blocks[0].Text, "\n") {
		t.Error("first paragraph should keep its two lines together")
	}
}

func TestTextExtractor(t *testing.T) {
	e := &TextExtractor{}
	res, err := e.Extract(context.Background(), "notes.txt", []byte("نص بسيط للاختبار في ملف نصي."))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Format != "txt" || len(res.Docs) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Docs[0].Metadata["encoding"] != "utf-8" {
		t.Errorf("encoding metadata = %v", res.Docs[0].Metadata["encoding"])
	}
	if !strings.Contains(res.Text(), "نص بسيط") {
		t.Errorf("extracted text = %q", res.Text())
	}
}
