package llm

import (
	"strings"
	"testing"
)

func TestTruncateMessagesNoop(t *testing.T) {
	msgs := []Message{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "hi"},
	}
	out := TruncateMessages(msgs, 10000)
	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2", len(out))
	}
	out = TruncateMessages(msgs, 0)
	if len(out) != 2 {
		t.Fatalf("maxTokens=0 should disable truncation, got %d messages", len(out))
	}
}

func TestTruncateMessagesDropsOldest(t *testing.T) {
	long := strings.Repeat("word ", 200)
	msgs := []Message{
		{Role: "system", Content: "system prompt"},
		{Role: "user", Content: long},
		{Role: "assistant", Content: long},
		{Role: "user", Content: "final question"},
	}

	out := TruncateMessages(msgs, 300)

	if out[0].Role != "system" {
		t.Errorf("system message must survive, got role %q", out[0].Role)
	}
	if out[len(out)-1].Content != "final question" {
		t.Errorf("final message must survive, got %q", out[len(out)-1].Content)
	}
	if len(out) >= len(msgs) {
		t.Errorf("expected some messages dropped, got %d of %d", len(out), len(msgs))
	}
}

func TestTruncateMessagesKeepsFinalEvenWhenOversized(t *testing.T) {
	msgs := []Message{
		{Role: "user", Content: strings.Repeat("word ", 500)},
	}
	out := TruncateMessages(msgs, 10)
	if len(out) != 1 {
		t.Fatalf("single message must survive, got %d", len(out))
	}
}

func TestCountTokensNonZero(t *testing.T) {
	if CountTokens("مرحبا بالعالم") == 0 {
		t.Error("Arabic text should count tokens")
	}
	if CountTokens("hello world") == 0 {
		t.Error("Latin text should count tokens")
	}
}
