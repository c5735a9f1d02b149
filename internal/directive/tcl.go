package directive

import (
	"fmt"
	"strings"
	"unicode"
)

// Word is a single word of a Tcl list.
type Word struct {
	// Text is the word content after quote removal and, for quoted and bare
	// words, backslash substitution.
	Text string
	// Braced marks words that were {brace} quoted. Braced words are taken
	// verbatim and may themselves be split again as a list (dg-final bodies,
	// dg-skip-if option lists).
	Braced bool
}

// SplitList splits s using Tcl word rules: whitespace separates words,
// {braces} group verbatim (nesting allowed), "quotes" group with backslash
// substitution, and backslashes escape in bare words.
//
// Directives embed Tcl fragments, so patterns like "fmov.s\t@r\[0-9]\+" must
// be decoded exactly the way a Tcl interpreter would before they reach the
// regexp engine.
func SplitList(s string) ([]Word, error) {
	var words []Word
	i := 0
	n := len(s)
	for i < n {
		for i < n && unicode.IsSpace(rune(s[i])) {
			i++
		}
		if i >= n {
			break
		}
		switch s[i] {
		case '{':
			inner, next, err := matchBrace(s, i)
			if err != nil {
				return nil, err
			}
			words = append(words, Word{Text: inner, Braced: true})
			i = next
		case '"':
			text, next, err := readQuoted(s, i)
			if err != nil {
				return nil, err
			}
			words = append(words, Word{Text: text})
			i = next
		default:
			text, next := readBare(s, i)
			words = append(words, Word{Text: text})
			i = next
		}
	}
	return words, nil
}

// matchBrace returns the content between the brace at s[open] and its
// balanced closing brace, plus the index just past the closing brace. The
// content is verbatim: brace quoting preserves whitespace, so a braced scan
// pattern keeps its leading and trailing spaces.
func matchBrace(s string, open int) (string, int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++ // escaped char never opens or closes a brace
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[open+1 : i], i + 1, nil
			}
		}
	}
	return "", 0, fmt.Errorf("unbalanced brace starting at offset %d", open)
}

func readQuoted(s string, open int) (string, int, error) {
	var b strings.Builder
	for i := open + 1; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			if i+1 >= len(s) {
				return "", 0, fmt.Errorf("trailing backslash in quoted word")
			}
			b.WriteByte(substBackslash(s[i+1]))
			i++
			continue
		}
		if c == '"' {
			return b.String(), i + 1, nil
		}
		b.WriteByte(c)
	}
	return "", 0, fmt.Errorf("unterminated quoted word starting at offset %d", open)
}

func readBare(s string, start int) (string, int) {
	var b strings.Builder
	i := start
	for i < len(s) {
		c := s[i]
		if unicode.IsSpace(rune(c)) {
			break
		}
		if c == '\\' && i+1 < len(s) {
			b.WriteByte(substBackslash(s[i+1]))
			i += 2
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), i
}

// substBackslash implements Tcl backslash substitution for a single escaped
// character. Unrecognized escapes yield the character itself, which is what
// makes "\[0-9]\+" decode to "[0-9]+".
func substBackslash(c byte) byte {
	switch c {
	case 'a':
		return '\a'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'v':
		return '\v'
	default:
		return c
	}
}
