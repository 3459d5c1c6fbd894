// Package normalize provides the text cleaning applied to every field that
// ends up in the search index.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// emoji covers the pictographic blocks that occasionally leak into product
// names and descriptions from supplier feeds.
var emoji = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2600, Hi: 0x26FF, Stride: 1}, // miscellaneous symbols
	},
	R32: []unicode.Range32{
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1}, // symbols and pictographs
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1}, // emoticons
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1}, // transport and map
	},
}

// Normalize cleans a text value for indexing: invalid UTF-8 sequences are
// dropped, runes in the Unicode "other" categories (control, format,
// surrogate, private use, unassigned) and emoji are removed, whitespace runs
// collapse to a single space, and the result is trimmed. Tab, newline and
// carriage return survive the category filter and collapse with the rest of
// the whitespace. The function is pure and never fails.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
			continue
		}
		if unicode.In(r, unicode.C) || unicode.In(r, emoji) {
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
