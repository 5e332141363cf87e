// Package latex converts between free text, the structured resume model and
// LaTeX source: sanitizing model-authored prose, rendering full documents or
// splicing sections into an existing template, and stripping LaTeX down to
// plain text for ATS analysis.
package latex

import "strings"

// allowedCommands are the only backslash commands model-authored prose may
// carry into a document. Anything else is stripped before escaping.
var allowedCommands = map[string]bool{
	"textbf":    true,
	"textit":    true,
	"underline": true,
	"hfill":     true,
}

func isSpecialChar(c byte) bool {
	switch c {
	case '&', '%', '$', '#', '_', '{', '}', '^', '~', '\\':
		return true
	}
	return false
}

func isCommandLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Escape sanitizes free text for embedding into LaTeX source. Backslash
// command tokens outside the allow-list are stripped, already-escaped special
// symbols (\&, \%, ...) pass through untouched, and the remaining special
// characters are escaped. Allowed commands keep their brace group, with the
// group's content escaped recursively.
//
// Empty input returns unchanged. Applying Escape to its own output can
// double-escape; callers sanitize exactly once, immediately before final
// serialization.
func Escape(text string) string {
	if text == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(text)/8)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if c == '\\' {
			i = writeBackslashToken(&b, text, i)
			continue
		}

		writeEscapedChar(&b, c)
	}

	return b.String()
}

// writeBackslashToken handles the token starting at the backslash at text[i]
// and returns the index of the last consumed byte.
func writeBackslashToken(b *strings.Builder, text string, i int) int {
	if i+1 >= len(text) {
		b.WriteString(`\textbackslash{}`)
		return i
	}

	next := text[i+1]

	// A literal escaped symbol is already sanitized.
	if isSpecialChar(next) && next != '\\' {
		b.WriteByte('\\')
		b.WriteByte(next)
		return i + 1
	}

	if !isCommandLetter(next) {
		b.WriteString(`\textbackslash{}`)
		return i
	}

	end := i + 1
	for end < len(text) && isCommandLetter(text[end]) {
		end++
	}
	name := text[i+1 : end]

	if !allowedCommands[name] {
		// Drop the hallucinated command token, keep whatever follows.
		return end - 1
	}

	b.WriteByte('\\')
	b.WriteString(name)

	// Keep the command's brace group intact, escaping its content.
	if end < len(text) && text[end] == '{' {
		close := matchingBrace(text, end)
		if close > end {
			b.WriteByte('{')
			b.WriteString(Escape(text[end+1 : close]))
			b.WriteByte('}')
			return close
		}
	}
	return end - 1
}

func writeEscapedChar(b *strings.Builder, c byte) {
	switch c {
	case '&', '%', '$', '#', '_':
		b.WriteByte('\\')
		b.WriteByte(c)
	case '{':
		b.WriteString(`\{`)
	case '}':
		b.WriteString(`\}`)
	case '^':
		b.WriteString(`\^{}`)
	case '~':
		b.WriteString(`\~{}`)
	default:
		b.WriteByte(c)
	}
}

// matchingBrace returns the index of the brace closing the group opened at
// text[open], or -1 when the group never closes.
func matchingBrace(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
