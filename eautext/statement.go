package eautext

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// statement is one "head args... ;" or "head args... { body }" unit
type statement struct {
	head token
	args []token
	body *block
}

// block is the source between a pair of braces, compiled on its own
type block struct {
	src  string
	line int
}

type parser struct {
	lex *lexer
}

func newParser(src string, line int) *parser {
	return &parser{lex: newLexer(src, line)}
}

func (b *block) parser() *parser {
	return newParser(b.src, b.line)
}

// statement returns the next statement, or nil at end of input
func (p *parser) statement() (*statement, error) {
	var head token
	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokEOF {
			return nil, nil
		}
		if tok.is(";") {
			continue
		}
		if tok.kind != tokIdent && tok.kind != tokInt {
			return nil, syntaxErr(tok.line, "unexpected %s", tok)
		}
		head = tok
		break
	}
	st := &statement{head: head}
	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.is(";"):
			return st, nil
		case tok.is("{"):
			src, line, err := p.lex.block(tok.line)
			if err != nil {
				return nil, err
			}
			st.body = &block{src: src, line: line}
			return st, nil
		case tok.is("}"):
			return nil, syntaxErr(tok.line, "unexpected '}'")
		case tok.kind == tokEOF:
			return nil, syntaxErr(head.line, "missing ';' after %s", head)
		}
		st.args = append(st.args, tok)
	}
}

// all reads every remaining statement
func (p *parser) all() ([]*statement, error) {
	var out []*statement
	for {
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		if st == nil {
			return out, nil
		}
		out = append(out, st)
	}
}

func (s *statement) name() string { return s.head.text }
func (s *statement) line() int    { return s.head.line }

func (s *statement) errorf(format string, args ...any) error {
	return syntaxErr(s.head.line, "%s: %s", s.head.text, fmt.Sprintf(format, args...))
}

// simple requires a plain statement with exactly n arguments
func (s *statement) simple(n int) error {
	if s.body != nil {
		return s.errorf("unexpected block")
	}
	if len(s.args) != n {
		return s.errorf("expected %d argument(s), found %d", n, len(s.args))
	}
	return nil
}

// needBlock requires a block with no arguments
func (s *statement) needBlock() error {
	if s.body == nil {
		return s.errorf("expected a { } block")
	}
	if len(s.args) != 0 {
		return s.errorf("unexpected arguments before block")
	}
	return nil
}

// intArg returns the single integer argument, bounded to [lo, hi]
func (s *statement) intArg(lo, hi int) (int, error) {
	if err := s.simple(1); err != nil {
		return 0, err
	}
	return parseInt(s.args[0], lo, hi)
}

// ints returns every argument as an integer in [lo, hi]
func (s *statement) ints(lo, hi int) ([]int, error) {
	if s.body != nil {
		return nil, s.errorf("unexpected block")
	}
	out := make([]int, len(s.args))
	for i, tok := range s.args {
		v, err := parseInt(tok, lo, hi)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *statement) stringArg() (string, error) {
	if err := s.simple(1); err != nil {
		return "", err
	}
	if s.args[0].kind != tokString {
		return "", syntaxErr(s.args[0].line, "expected string, found %s", s.args[0])
	}
	return s.args[0].text, nil
}

func parseInt(tok token, lo, hi int) (int, error) {
	if tok.kind != tokInt {
		return 0, syntaxErr(tok.line, "expected integer, found %s", tok)
	}
	v, err := strconv.ParseInt(tok.text, 0, 64)
	if err != nil || v < int64(lo) || v > int64(hi) {
		return 0, syntaxErr(tok.line, "integer %s out of range %d..%d", tok.text, lo, hi)
	}
	return int(v), nil
}

// hexBytes decodes a 0x literal of any length into bytes
func hexBytes(tok token) ([]byte, error) {
	if tok.kind != tokInt || !strings.HasPrefix(strings.ToLower(tok.text), "0x") {
		return nil, syntaxErr(tok.line, "expected 0x hex data, found %s", tok)
	}
	digits := tok.text[2:]
	if len(digits)%2 != 0 {
		return nil, syntaxErr(tok.line, "hex data %s has an odd digit count", tok.text)
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return nil, syntaxErr(tok.line, "bad hex data %s", tok.text)
	}
	return b, nil
}

// rawStatements reports whether a block is raw hex data (each statement made of
// 0x literals) and returns the concatenated bytes if so.
func rawStatements(stmts []*statement) ([]byte, bool, error) {
	if len(stmts) == 0 || stmts[0].head.kind != tokInt {
		return nil, false, nil
	}
	var out []byte
	for _, st := range stmts {
		if st.body != nil {
			return nil, true, st.errorf("unexpected block in raw data")
		}
		for _, tok := range append([]token{st.head}, st.args...) {
			b, err := hexBytes(tok)
			if err != nil {
				return nil, true, err
			}
			out = append(out, b...)
		}
	}
	return out, true, nil
}

// fieldSet rejects repeated fields within one block
type fieldSet map[string]bool

func (f fieldSet) claim(st *statement) error {
	if f[st.name()] {
		return syntaxErr(st.line(), "duplicate field %q", st.name())
	}
	f[st.name()] = true
	return nil
}
