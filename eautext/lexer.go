package eautext

import (
	"fmt"
	"strconv"
	"strings"

	"eau-tools/eau"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string // source text; decoded contents for strings
	line int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return strconv.Quote(t.text)
	}
	return "'" + t.text + "'"
}

func (t token) is(punct string) bool {
	return t.kind == tokPunct && t.text == punct
}

// lexer tokenizes EAU-Text. Lines are 1-based and offset by the line the
// source slice started on, so nested blocks report absolute lines.
type lexer struct {
	src  string
	pos  int
	line int
}

func newLexer(src string, line int) *lexer {
	return &lexer{src: src, line: line}
}

func syntaxErr(line int, format string, args ...any) error {
	return &eau.SyntaxError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line}, nil
	}
	start := l.pos
	c := l.src[l.pos]
	switch {
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], line: l.line}, nil

	case c >= '0' && c <= '9':
		if strings.HasPrefix(l.src[l.pos:], "0x") || strings.HasPrefix(l.src[l.pos:], "0X") {
			l.pos += 2
			for l.pos < len(l.src) && isHexDigit(l.src[l.pos]) {
				l.pos++
			}
			if l.pos == start+2 {
				return token{}, syntaxErr(l.line, "malformed hex integer")
			}
		} else {
			for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
				l.pos++
			}
		}
		if l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
			return token{}, syntaxErr(l.line, "malformed integer %q", l.src[start:l.pos+1])
		}
		return token{kind: tokInt, text: l.src[start:l.pos], line: l.line}, nil

	case c == '"':
		return l.str()

	case c == '.':
		if strings.HasPrefix(l.src[l.pos:], "..") {
			l.pos += 2
			return token{kind: tokPunct, text: "..", line: l.line}, nil
		}

	case strings.IndexByte(";{}=+*", c) >= 0:
		l.pos++
		return token{kind: tokPunct, text: string(c), line: l.line}, nil
	}
	return token{}, syntaxErr(l.line, "unexpected character %q", c)
}

func (l *lexer) str() (token, error) {
	line := l.line
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '"':
			l.pos++
			return token{kind: tokString, text: b.String(), line: line}, nil
		case '\n':
			return token{}, syntaxErr(line, "unterminated string")
		case '\\':
			if l.pos+1 >= len(l.src) {
				return token{}, syntaxErr(line, "unterminated string")
			}
			l.pos++
			switch e := l.src[l.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '"':
				b.WriteByte(e)
			case 'x':
				if l.pos+2 >= len(l.src) {
					return token{}, syntaxErr(line, "short \\x escape")
				}
				v, err := strconv.ParseUint(l.src[l.pos+1:l.pos+3], 16, 8)
				if err != nil {
					return token{}, syntaxErr(line, "bad \\x escape")
				}
				b.WriteByte(byte(v))
				l.pos += 2
			default:
				return token{}, syntaxErr(line, "unknown escape \\%c", e)
			}
			l.pos++
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return token{}, syntaxErr(line, "unterminated string")
}

// block consumes through the '}' matching an already-consumed '{' and returns
// the enclosed source with the line it starts on.
func (l *lexer) block(openLine int) (string, int, error) {
	start, startLine := l.pos, l.line
	depth := 1
	for {
		tok, err := l.next()
		if err != nil {
			return "", 0, err
		}
		switch {
		case tok.kind == tokEOF:
			return "", 0, syntaxErr(openLine, "unclosed block")
		case tok.is("{"):
			depth++
		case tok.is("}"):
			depth--
			if depth == 0 {
				return l.src[start : l.pos-1], startLine, nil
			}
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
