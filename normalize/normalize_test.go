package normalize

import "testing"

func TestNormalizeAlefVariants(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"أحمد", "احمد"},
		{"إسلام", "اسلام"},
		{"آمال", "امال"},
		{"ٱلله", "الله"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeLetterFolding(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"مستشفى", "مستشفي"}, // Alef Maqsura -> Ya
		{"مدرسة", "مدرسه"},   // Ta Marbuta -> Ha
		{"گلچین", "كلجين"},   // Persian letters -> Arabic
		{"پژمان", "بزمان"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeStripsDiacriticsAndTatweel(t *testing.T) {
	if got := Normalize("مُحَمَّدٌ"); got != "محمد" {
		t.Errorf("diacritics: got %q, want %q", got, "محمد")
	}
	if got := Normalize("العـــربية"); got != "العربيه" {
		t.Errorf("tatweel: got %q, want %q", got, "العربيه")
	}
}

func TestNormalizeCollapsesElongation(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"جمييييييل", "جمييل"},
		{"coooool", "cool"},
		{"هه", "هه"}, // two repeats untouched
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  مرحبا   بالعالم  ", "مرحبا بالعالم"},
		{"a\t\nb", "a b"},
		{"", ""},
		{"   \t\n ", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"أهلاً وسهلاً بكم في المكتبــــة",
		"ما هي عاصمة مصر؟",
		"The quick brown fox",
		"مُدَرِّسَة عربيــــة فی گلستان",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizePassesThroughLatin(t *testing.T) {
	if got := Normalize("hello world"); got != "hello world" {
		t.Errorf("got %q, want unchanged", got)
	}
}
