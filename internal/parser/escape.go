package parser

import "strings"

// Grammar delimiters.
const (
	ClauseDelimiter = ';'
	ValueDelimiter  = ','
	EscapeChar      = '\\'
)

// Escape makes s safe to embed between delim separators: the escape
// character and delim are each prefixed with the escape character.
func Escape(s string, delim rune) string {
	if !strings.ContainsRune(s, EscapeChar) && !strings.ContainsRune(s, delim) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if r == EscapeChar || r == delim {
			b.WriteRune(EscapeChar)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Unescape reverses Escape. An escape character followed by anything other
// than itself or delim is kept literally, as is a trailing escape character.
func Unescape(s string, delim rune) string {
	if !strings.ContainsRune(s, EscapeChar) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if rs[i] == EscapeChar && i+1 < len(rs) && (rs[i+1] == EscapeChar || rs[i+1] == delim) {
			b.WriteRune(rs[i+1])
			i++
			continue
		}
		b.WriteRune(rs[i])
	}
	return b.String()
}

// Split cuts s at every delim not preceded by an escape. Pieces are
// returned still escaped; run Unescape on each one. An escape character
// always consumes the rune after it, so an escaped escape never hides the
// delimiter that follows.
func Split(s string, delim rune) []string {
	var parts []string
	var cur strings.Builder
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		switch {
		case rs[i] == EscapeChar && i+1 < len(rs):
			cur.WriteRune(rs[i])
			cur.WriteRune(rs[i+1])
			i++
		case rs[i] == delim:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(rs[i])
		}
	}
	return append(parts, cur.String())
}

// SplitUnescape splits s on delim and unescapes every piece.
func SplitUnescape(s string, delim rune) []string {
	parts := Split(s, delim)
	for i, p := range parts {
		parts[i] = Unescape(p, delim)
	}
	return parts
}

// Join escapes every value and joins them with delim. SplitUnescape
// reverses it.
func Join(values []string, delim rune) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = Escape(v, delim)
	}
	return strings.Join(escaped, string(delim))
}
