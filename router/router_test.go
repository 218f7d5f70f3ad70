package router

import (
	"strings"
	"testing"
)

func TestClassifyGreetings(t *testing.T) {
	r := New(Config{})
	for _, q := range []string{
		"مرحبا",
		"أهلاً وسهلاً", // normalizes into the phrase set
		"السلام عليكم",
		"صباح الخير",
		"hello",
		"Hi",
		"مرحبا!",
	} {
		if got := r.Classify(q); got != TypeGreeting {
			t.Errorf("Classify(%q) = %s, want greeting", q, got)
		}
	}
}

func TestClassifyCalculator(t *testing.T) {
	r := New(Config{})
	for _, q := range []string{
		"1 + 2",
		"احسب 3 * (4 - 1)",
		"calculate 10 / 4",
		"٥ × ٣",
		"2.5+2.5",
	} {
		if got := r.Classify(q); got != TypeCalculator {
			t.Errorf("Classify(%q) = %s, want calculator", q, got)
		}
	}
}

func TestClassifySimple(t *testing.T) {
	r := New(Config{})
	for _, q := range []string{
		// Small talk, including phrases that start with a question word.
		"ما اسمك",
		"من أنت؟",
		"كيف حالك",
		"who are you",
		"thank you so much",
		// Short turns without factual question words.
		"شكرا جزيلا",
		"انت مساعد رائع",
	} {
		if got := r.Classify(q); got != TypeSimple {
			t.Errorf("Classify(%q) = %s, want simple", q, got)
		}
	}
}

func TestClassifyRAG(t *testing.T) {
	r := New(Config{})
	for _, q := range []string{
		"اشرح لي سياسة الاسترجاع في المتجر بالتفصيل",
		"قارن بين الخطة الأولى والخطة الثانية من حيث التكلفة والمزايا",
		"tell me everything about the refund policy",
		// Factual question words route to retrieval even when short.
		"ما هي عاصمة مصر؟",
		"متى تأسست الجامعة",
		"أين يقع المقر الرئيسي",
		"what is this",
		"هل هذا صحيح",
		"ما هي الإجراءات المطلوبة لتسجيل شركة جديدة في السجل التجاري المصري خطوة بخطوة",
	} {
		if got := r.Classify(q); got != TypeRAG {
			t.Errorf("Classify(%q) = %s, want rag", q, got)
		}
	}
}

func TestClassifyEmptyIsSimple(t *testing.T) {
	r := New(Config{})
	if got := r.Classify(""); got != TypeSimple {
		t.Errorf("Classify(\"\") = %s, want simple", got)
	}
	if got := r.Classify("   \t "); got != TypeSimple {
		t.Errorf("whitespace = %s, want simple", got)
	}
}

func TestClassifyLongArithmeticRoutesToRAG(t *testing.T) {
	r := New(Config{CalculatorMaxLen: 64})
	long := strings.Repeat("1+", 60) + "1"
	if got := r.Classify(long); got != TypeRAG {
		t.Errorf("Classify(long expr) = %s, want rag", got)
	}
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"1 + 2", 3},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"-3 + 5", 2},
		{"٥ × ٣", 15},
		{"٢٠ ÷ ٤", 5},
		{"2.5 + 2.5", 5},
	}
	for _, c := range cases {
		got, err := Evaluate(c.expr)
		if err != nil {
			t.Errorf("Evaluate(%q): %v", c.expr, err)
			continue
		}
		if got != c.want {
			t.Errorf("Evaluate(%q) = %v, want %v", c.expr, got, c.want)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	for _, expr := range []string{
		"1 / 0",
		"1 + ",
		"(1 + 2",
		"1 ++ 2",
	} {
		if _, err := Evaluate(expr); err == nil {
			t.Errorf("Evaluate(%q): expected error", expr)
		}
	}
}

func TestFormatResult(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{3, "3"},
		{2.5, "2.5"},
		{-7, "-7"},
	}
	for _, c := range cases {
		if got := FormatResult(c.in); got != c.want {
			t.Errorf("FormatResult(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExpressionExtraction(t *testing.T) {
	r := New(Config{})
	expr, ok := r.Expression("احسب 3 + 4")
	if !ok {
		t.Fatal("expected an expression")
	}
	if got, _ := Evaluate(expr); got != 7 {
		t.Errorf("evaluated %q = %v, want 7", expr, got)
	}

	if _, ok := r.Expression("ما عاصمة مصر"); ok {
		t.Error("non-arithmetic input should not extract")
	}
}
