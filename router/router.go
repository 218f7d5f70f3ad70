// Package router classifies queries before any model is called. Greetings
// and arithmetic get instant answers, short factual questions skip
// retrieval, everything else goes through the full RAG path.
package router

import (
	"strings"
	"unicode"

	"github.com/dalilchat/dalil/normalize"
)

// QueryType is the closed set of routing outcomes.
type QueryType string

const (
	TypeGreeting   QueryType = "greeting"
	TypeCalculator QueryType = "calculator"
	TypeSimple     QueryType = "simple"
	TypeRAG        QueryType = "rag"
)

// Config bounds the classification rules.
type Config struct {
	// SimpleMaxTokens is the word-count ceiling for the simple route
	// (default 8).
	SimpleMaxTokens int
	// CalculatorMaxLen is the rune ceiling for arithmetic expressions
	// (default 64); longer expressions route to rag.
	CalculatorMaxLen int
}

func (c Config) withDefaults() Config {
	if c.SimpleMaxTokens == 0 {
		c.SimpleMaxTokens = 8
	}
	if c.CalculatorMaxLen == 0 {
		c.CalculatorMaxLen = 64
	}
	return c
}

// Router classifies normalized queries.
type Router struct {
	cfg Config
}

// New returns a router.
func New(cfg Config) *Router {
	return &Router{cfg: cfg.withDefaults()}
}

// greetings holds the fixed phrase set in normalized form (the router
// normalizes input before comparing, so أهلا and اهلا both match).
var greetings = map[string]bool{
	"مرحبا":         true,
	"اهلا":          true,
	"اهلا وسهلا":    true,
	"اهلين":         true,
	"سلام":          true,
	"السلام عليكم":  true,
	"صباح الخير":    true,
	"مساء الخير":    true,
	"ازيك":          true,
	"هاي":           true,
	"hello":         true,
	"hi":            true,
	"hey":           true,
	"good morning":  true,
	"good evening":  true,
	"salam":         true,
}

// questionWords signal factual lookup. A query containing any of them
// needs the document collection, so it routes to rag.
var questionWords = map[string]bool{
	"ما": true, "ماذا": true, "متي": true, "اين": true, "كيف": true,
	"لماذا": true, "هل": true, "كم": true,
	"what": true, "when": true, "where": true, "why": true,
	"how": true, "which": true,
}

// smallTalk phrases are conversational and never need retrieval, even
// though some start with a question word. Prefix-matched in normalized
// form.
var smallTalk = []string{
	"ما اسمك",
	"من انت",
	"كيف حالك",
	"شكرا",
	"who are you",
	"how are you",
	"thank",
}

// Classify returns the query type. Tie-break priority is greeting,
// calculator, simple, rag. Empty input classifies as simple. The simple
// route is for short conversational turns: a query carrying a factual
// question word goes to rag regardless of length.
func (r *Router) Classify(query string) QueryType {
	norm := normalize.Normalize(query)
	if norm == "" {
		return TypeSimple
	}
	lower := strings.ToLower(norm)

	if greetings[stripPunct(lower)] {
		return TypeGreeting
	}

	if expr, ok := extractExpression(norm); ok {
		if len([]rune(expr)) <= r.cfg.CalculatorMaxLen {
			return TypeCalculator
		}
		// Arithmetic-looking but too long to trust the grammar.
		return TypeRAG
	}

	if isSmallTalk(lower) {
		return TypeSimple
	}

	tokens := strings.Fields(lower)
	if len(tokens) < r.cfg.SimpleMaxTokens && !hasQuestionWord(tokens) {
		return TypeSimple
	}

	return TypeRAG
}

func isSmallTalk(lower string) bool {
	for _, p := range smallTalk {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	// "what's your name" and its spelling variants.
	return strings.HasPrefix(lower, "what") && strings.Contains(lower, "your name")
}

func hasQuestionWord(tokens []string) bool {
	for _, t := range tokens {
		if questionWords[strings.TrimRight(t, "؟?")] {
			return true
		}
	}
	return false
}

// Expression extracts the arithmetic expression from a calculator query,
// with the احسب/calculate prefix removed. ok is false for non-arithmetic
// input.
func (r *Router) Expression(query string) (string, bool) {
	expr, ok := extractExpression(normalize.Normalize(query))
	if !ok || len([]rune(expr)) > r.cfg.CalculatorMaxLen {
		return "", false
	}
	return expr, true
}

// calcPrefixes may precede an arithmetic expression.
var calcPrefixes = []string{"احسب", "calculate", "compute"}

// extractExpression reports whether the query is an arithmetic expression
// (optionally prefixed) and returns the bare expression.
func extractExpression(norm string) (string, bool) {
	expr := strings.ToLower(strings.TrimSpace(norm))
	for _, p := range calcPrefixes {
		if strings.HasPrefix(expr, p) {
			expr = strings.TrimSpace(strings.TrimPrefix(expr, p))
			break
		}
	}
	if expr == "" {
		return "", false
	}

	hasDigit := false
	hasOperator := false
	for _, r := range expr {
		switch {
		case r >= '0' && r <= '9' || r >= '٠' && r <= '٩':
			hasDigit = true
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '×' || r == '÷':
			hasOperator = true
		case r == '(' || r == ')' || r == '.' || r == '٫' || unicode.IsSpace(r):
		default:
			return "", false
		}
	}
	if !hasDigit || !hasOperator {
		return "", false
	}
	return expr, true
}

// stripPunct removes punctuation from both ends for greeting matching
// ("مرحبا!" still greets).
func stripPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
