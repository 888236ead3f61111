// Package strip removes comments from source text before it is placed in a prompt.
//
// The scanner is lexical: it knows each language's comment markers, string
// delimiters and escape rules, and nothing else. Constructs that need a parser
// to recognise (regex literals, heredocs, shell parameter expansions such as
// ${#var}) are not understood and may be stripped or preserved incorrectly.
// Unknown extensions are returned unchanged.
package strip

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// Comments returns contents with the line and block comments of the language
// identified by ext removed. Newlines inside block comments are kept so the
// code after them stays on its original line. A single-line block comment
// whose removal would glue two tokens into a new comment marker is replaced by
// one space. Input without comment syntax is
// returned unchanged.
func Comments(contents, ext string) string {
	syn, ok := lookup(ext)
	if !ok {
		return contents
	}
	return syn.strip(contents)
}

// Supported reports whether ext has a comment syntax table.
func Supported(ext string) bool {
	_, ok := lookup(ext)
	return ok
}

func (s *syntax) strip(src string) string {
	out := make([]byte, 0, len(src))
	i := 0

	if s.shebang && strings.HasPrefix(src, "#!") {
		end := strings.IndexByte(src, '\n')
		if end < 0 {
			return src
		}
		out = append(out, src[:end]...)
		i = end
	}

	for i < len(src) {
		if bp, ok := s.blockAt(src, i); ok {
			var end int
			before := len(out)
			out, end = s.skipBlock(out, src, i, bp)
			if len(out) == before && s.joinsMarker(out, src[end:]) {
				out = append(out, ' ')
			}
			i = end
			continue
		}

		if s.lineAt(src, i) {
			out = trimTrailingBlanks(out)
			nl := strings.IndexByte(src[i:], '\n')
			if nl < 0 {
				i = len(src)
			} else {
				i += nl // the newline itself is kept
			}
			continue
		}

		if q, ok := s.quoteAt(src, i); ok {
			end := q.end(src, i)
			out = append(out, src[i:end]...)
			i = end
			continue
		}

		if s.charLiterals && src[i] == '\'' {
			if end := charLiteralEnd(src, i); end > 0 {
				out = append(out, src[i:end]...)
				i = end
				continue
			}
		}

		out = append(out, src[i])
		i++
	}

	return string(out)
}

func (s *syntax) blockAt(src string, i int) (blockPair, bool) {
	for _, bp := range s.blocks {
		if strings.HasPrefix(src[i:], bp.open) {
			return bp, true
		}
	}
	return blockPair{}, false
}

func (s *syntax) lineAt(src string, i int) bool {
	for _, marker := range s.line {
		if strings.HasPrefix(src[i:], marker) {
			return true
		}
	}
	return false
}

func (s *syntax) quoteAt(src string, i int) (quote, bool) {
	for _, q := range s.quotes {
		if strings.HasPrefix(src[i:], q.delim) {
			return q, true
		}
	}
	return quote{}, false
}

// joinsMarker reports whether out followed directly by rest would spell a
// comment opener or multi-byte string delimiter across the seam.
func (s *syntax) joinsMarker(out []byte, rest string) bool {
	seam := func(m string) bool {
		for k := 1; k < len(m); k++ {
			if bytes.HasSuffix(out, []byte(m[:k])) && strings.HasPrefix(rest, m[k:]) {
				return true
			}
		}
		return false
	}
	for _, m := range s.line {
		if seam(m) {
			return true
		}
	}
	for _, bp := range s.blocks {
		if seam(bp.open) {
			return true
		}
	}
	for _, q := range s.quotes {
		if seam(q.delim) {
			return true
		}
	}
	return false
}

// skipBlock consumes the block comment opening at i and returns the index just
// past its close. Newlines inside the comment are appended to out. An
// unterminated comment runs to the end of src.
func (s *syntax) skipBlock(out []byte, src string, i int, bp blockPair) ([]byte, int) {
	depth := 1
	j := i + len(bp.open)
	for j < len(src) {
		switch {
		case s.nested && strings.HasPrefix(src[j:], bp.open):
			depth++
			j += len(bp.open)
		case strings.HasPrefix(src[j:], bp.close):
			depth--
			j += len(bp.close)
			if depth == 0 {
				return out, j
			}
		default:
			if src[j] == '\n' {
				out = append(out, '\n')
			}
			j++
		}
	}
	return out, len(src)
}

// end returns the index just past the string literal opening at i. Strings
// that may not span lines stop before the newline when left unterminated.
func (q quote) end(src string, i int) int {
	j := i + len(q.delim)
	for j < len(src) {
		switch {
		case q.escapes && src[j] == '\\':
			j += 2
		case strings.HasPrefix(src[j:], q.delim):
			return j + len(q.delim)
		case src[j] == '\n' && !q.multiline:
			return j
		default:
			j++
		}
	}
	return len(src)
}

// charLiteralEnd recognises 'x' and '\n'-style literals starting at i and
// returns the index past the closing quote, or -1 when the quote starts a
// lifetime or label instead.
func charLiteralEnd(src string, i int) int {
	j := i + 1
	if j >= len(src) {
		return -1
	}
	if src[j] == '\\' {
		start := j + 2
		if start > len(src) {
			return -1
		}
		limit := start + 10
		if limit > len(src) {
			limit = len(src)
		}
		if k := strings.IndexByte(src[start:limit], '\''); k >= 0 {
			return start + k + 1
		}
		return -1
	}
	_, size := utf8.DecodeRuneInString(src[j:])
	if j+size < len(src) && src[j+size] == '\'' {
		return j + size + 1
	}
	return -1
}

func trimTrailingBlanks(out []byte) []byte {
	for len(out) > 0 {
		c := out[len(out)-1]
		if c != ' ' && c != '\t' {
			break
		}
		out = out[:len(out)-1]
	}
	return out
}
