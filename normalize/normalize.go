// Package normalize folds Arabic text into a canonical search form.
//
// The same transform is applied to queries and to chunk text before
// embedding, so both sides of the similarity comparison see identical
// character forms. The transform is idempotent: applying it twice yields
// the same string.
package normalize

import (
	"strings"
	"unicode"
)

// charFold maps orthographic variants onto a single canonical rune.
// Alef variants collapse to bare Alef, Alef Maqsura to Ya, Ta Marbuta to
// Ha. Persian letters that commonly leak into Arabic text map to their
// Arabic counterparts.
var charFold = map[rune]rune{
	'أ': 'ا', // أ -> ا
	'إ': 'ا', // إ -> ا
	'آ': 'ا', // آ -> ا
	'ٱ': 'ا', // ٱ -> ا
	'ى': 'ي', // ى -> ي
	'ة': 'ه', // ة -> ه
	'گ': 'ك', // گ -> ك
	'چ': 'ج', // چ -> ج
	'پ': 'ب', // پ -> ب
	'ژ': 'ز', // ژ -> ز
	'ک': 'ك', // ک -> ك (Farsi Kaf)
	'ی': 'ي', // ی -> ي (Farsi Ya)
}

// isDiacritic reports whether r is an Arabic diacritic or honorific mark
// that carries no lexical meaning for retrieval.
func isDiacritic(r rune) bool {
	switch {
	case r >= 'ؐ' && r <= 'ؚ':
		return true
	case r >= 'ً' && r <= 'ْ':
		return true
	case r == 'ٰ': // superscript Alef
		return true
	}
	return false
}

const tatweel = 'ـ'

// Normalize returns the canonical form of s: character variants folded,
// diacritics and tatweel stripped, elongated runs collapsed, whitespace
// runs reduced to single spaces, and surrounding space trimmed.
// Whitespace-only input yields "".
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	repeat := 0
	pendingSpace := false
	wroteAny := false

	for _, r := range s {
		if isDiacritic(r) || r == tatweel {
			continue
		}
		if folded, ok := charFold[r]; ok {
			r = folded
		}
		if isSpace(r) {
			if wroteAny {
				pendingSpace = true
			}
			prev = 0
			repeat = 0
			continue
		}

		// Collapse elongation: a rune repeated three or more times in a
		// row keeps only two occurrences ("جمييييل" -> "جمييل").
		if r == prev {
			repeat++
			if repeat >= 2 {
				continue
			}
		} else {
			prev = r
			repeat = 0
		}

		if pendingSpace {
			b.WriteRune(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
		wroteAny = true
	}

	return b.String()
}

// isSpace treats zero-width space and BOM as whitespace in addition to the
// Unicode space classes; both show up in copy-pasted Arabic web text.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\u200b' || r == '\ufeff'
}
