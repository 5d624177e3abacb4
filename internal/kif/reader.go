package kif

import (
	"fmt"
	"io"
	"os"

	"kifgraph/internal/logging"
)

// SyntaxError reports malformed KIF text with its 1-based position.
type SyntaxError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// ParseFile reads every top-level expression of a KIF file.
func ParseFile(path string) ([]Expr, error) {
	timer := logging.StartTimer(logging.CategoryKIF, "ParseFile")
	defer timer.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read kif file: %w", err)
	}
	exprs, err := parseBytes(path, data)
	if err != nil {
		return nil, err
	}
	logging.KIFDebug("Parsed %d expressions from %s", len(exprs), path)
	return exprs, nil
}

// Parse reads every top-level expression from r.
func Parse(r io.Reader) ([]Expr, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read kif input: %w", err)
	}
	return parseBytes("", data)
}

// ParseString is Parse over an in-memory string.
func ParseString(src string) ([]Expr, error) {
	return parseBytes("", []byte(src))
}

// MustParse parses src and panics on error. Intended for tests and fixtures.
func MustParse(src string) Expr {
	exprs, err := ParseString(src)
	if err != nil {
		panic(err)
	}
	if len(exprs) != 1 {
		panic(fmt.Sprintf("kif: expected one expression, got %d", len(exprs)))
	}
	return exprs[0]
}

type reader struct {
	file string
	src  []byte
	pos  int
	line int
	col  int
}

func parseBytes(file string, src []byte) ([]Expr, error) {
	r := &reader{file: file, src: src, line: 1, col: 1}
	var out []Expr
	for {
		r.skipSpace()
		if r.eof() {
			return out, nil
		}
		e, err := r.expr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

func (r *reader) eof() bool { return r.pos >= len(r.src) }

func (r *reader) errorf(line, col int, format string, args ...interface{}) error {
	return &SyntaxError{File: r.file, Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (r *reader) advance() byte {
	c := r.src[r.pos]
	r.pos++
	if c == '\n' {
		r.line++
		r.col = 1
	} else {
		r.col++
	}
	return c
}

// skipSpace consumes whitespace and ; comments.
func (r *reader) skipSpace() {
	for !r.eof() {
		c := r.src[r.pos]
		switch {
		case c == ';':
			for !r.eof() && r.src[r.pos] != '\n' {
				r.advance()
			}
		case isSpace(c):
			r.advance()
		default:
			return
		}
	}
}

func (r *reader) expr() (Expr, error) {
	line, col := r.line, r.col
	switch c := r.src[r.pos]; c {
	case '(':
		r.advance()
		var items []Expr
		for {
			r.skipSpace()
			if r.eof() {
				return Expr{}, r.errorf(line, col, "unterminated list")
			}
			if r.src[r.pos] == ')' {
				r.advance()
				return Expr{kind: KindList, items: items}, nil
			}
			it, err := r.expr()
			if err != nil {
				return Expr{}, err
			}
			items = append(items, it)
		}
	case ')':
		return Expr{}, r.errorf(line, col, "unexpected ')'")
	case '"':
		return r.str(line, col)
	default:
		start := r.pos
		for !r.eof() {
			c := r.src[r.pos]
			if isSpace(c) || c == '(' || c == ')' || c == '"' || c == ';' {
				break
			}
			r.advance()
		}
		return Token(string(r.src[start:r.pos])), nil
	}
}

// str reads a quoted literal, keeping both quotes in the token text.
func (r *reader) str(line, col int) (Expr, error) {
	start := r.pos
	r.advance()
	for !r.eof() {
		c := r.advance()
		if c == '\\' && !r.eof() {
			r.advance()
			continue
		}
		if c == '"' {
			return Token(string(r.src[start:r.pos])), nil
		}
	}
	return Expr{}, r.errorf(line, col, "unterminated string literal")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
