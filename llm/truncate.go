package llm

import (
	"math"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// CountTokens estimates the token count of text using the cl100k_base
// encoding. When the encoding cannot be loaded (offline first run), a
// word-count heuristic stands in; Arabic tokenizes at roughly 1.5 tokens
// per word.
func CountTokens(text string) int {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err == nil {
			enc = e
		}
	})
	if enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) * 1.5))
}

// messageOverheadTokens covers role markers and separators per message.
const messageOverheadTokens = 4

// TruncateMessages drops the oldest non-system messages until the total
// token estimate fits maxTokens. The system message (index 0 when role is
// system) and the final message always survive. A non-positive maxTokens
// disables truncation.
func TruncateMessages(messages []Message, maxTokens int) []Message {
	if maxTokens <= 0 || len(messages) <= 1 {
		return messages
	}

	total := 0
	for _, m := range messages {
		total += CountTokens(m.Content) + messageOverheadTokens
	}
	if total <= maxTokens {
		return messages
	}

	head := 0
	if messages[0].Role == "system" {
		head = 1
	}

	// Drop from the front of the droppable window until it fits.
	start := head
	for start < len(messages)-1 && total > maxTokens {
		total -= CountTokens(messages[start].Content) + messageOverheadTokens
		start++
	}

	out := make([]Message, 0, head+len(messages)-start)
	out = append(out, messages[:head]...)
	out = append(out, messages[start:]...)
	return out
}
