// Package kif holds the parsed form of KIF/SUMO axioms.
// An Expr is either a token or an ordered list of expressions. Tokens are
// classified once, when they are built, so consumers never sniff prefixes.
package kif

import "strings"

// Kind classifies an expression by its lexical shape.
type Kind int

const (
	KindList     Kind = iota // (a b c)
	KindVariable             // ?x or @row
	KindString               // "quoted literal"
	KindSymbol               // everything else
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindVariable:
		return "variable"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	default:
		return "unknown"
	}
}

// Expr is an immutable KIF expression.
type Expr struct {
	kind  Kind
	text  string
	items []Expr
}

// Token builds an atomic expression and classifies it.
func Token(text string) Expr {
	return Expr{kind: classify(text), text: text}
}

// List builds a compound form. The items slice is copied.
func List(items ...Expr) Expr {
	cp := make([]Expr, len(items))
	copy(cp, items)
	return Expr{kind: KindList, items: cp}
}

// Tokens is shorthand for a list made only of tokens.
func Tokens(texts ...string) Expr {
	items := make([]Expr, len(texts))
	for i, t := range texts {
		items[i] = Token(t)
	}
	return Expr{kind: KindList, items: items}
}

func classify(text string) Kind {
	switch {
	case strings.HasPrefix(text, "?"), strings.HasPrefix(text, "@"):
		return KindVariable
	case strings.HasPrefix(text, `"`):
		return KindString
	default:
		return KindSymbol
	}
}

func (e Expr) Kind() Kind { return e.kind }

// IsAtom reports whether e is a token rather than a list.
func (e Expr) IsAtom() bool { return e.kind != KindList }

func (e Expr) IsVariable() bool { return e.kind == KindVariable }

// Text returns the token text; empty for lists.
func (e Expr) Text() string { return e.text }

// Items returns the children of a list. The returned slice must not be modified.
func (e Expr) Items() []Expr { return e.items }

func (e Expr) Len() int { return len(e.items) }

// Item returns the i-th child, or the zero Expr when out of range.
func (e Expr) Item(i int) Expr {
	if i < 0 || i >= len(e.items) {
		return Expr{}
	}
	return e.items[i]
}

// Head returns the leading token of a list form, if it has one.
func (e Expr) Head() (string, bool) {
	if e.kind != KindList || len(e.items) == 0 || !e.items[0].IsAtom() {
		return "", false
	}
	return e.items[0].text, true
}

// HeadIs reports whether e is a list whose head token equals name.
func (e Expr) HeadIs(name string) bool {
	h, ok := e.Head()
	return ok && h == name
}

// Equal compares two expressions structurally.
func (e Expr) Equal(o Expr) bool {
	if e.kind != o.kind || e.text != o.text || len(e.items) != len(o.items) {
		return false
	}
	for i := range e.items {
		if !e.items[i].Equal(o.items[i]) {
			return false
		}
	}
	return true
}

// String renders e back into KIF notation.
func (e Expr) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e Expr) write(b *strings.Builder) {
	if e.IsAtom() {
		b.WriteString(e.text)
		return
	}
	b.WriteByte('(')
	for i, it := range e.items {
		if i > 0 {
			b.WriteByte(' ')
		}
		it.write(b)
	}
	b.WriteByte(')')
}
