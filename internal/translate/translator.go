// Package translate compiles KIF expressions into graph atoms.
//
// Atomic tokens become nodes, compound forms become links. Quantified
// forms become scope links carrying typed variable declarations, and every
// other form is resolved by the operator policy: a fixed table of logical
// connectives first, then the operator's role in the symbol table.
package translate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"kifgraph/internal/graph"
	"kifgraph/internal/kif"
	"kifgraph/internal/logging"
	"kifgraph/internal/symtab"
)

const (
	kwForall  = "forall"
	kwExists  = "exists"
	kwKappa   = "KappaFn"
	kwImplies = "=>"
	kwIff     = "<=>"

	// functionalSuffix marks operators that denote functions even when the
	// symbol table does not say so.
	functionalSuffix = "Fn"
)

// specialLinkTypes maps logical keywords straight onto link types; no
// operator node is created for them.
var specialLinkTypes = map[string]graph.Type{
	"=>":          graph.ImplicationLink,
	"<=>":         graph.EquivalenceLink,
	"and":         graph.AndLink,
	"or":          graph.OrLink,
	"not":         graph.NotLink,
	"subclass":    graph.InheritanceLink,
	"member":      graph.MemberLink,
	"instance":    graph.MemberLink,
	"subrelation": graph.ImplicationLink,
	"exists":      graph.ExistsLink,
	"forall":      graph.ForAllLink,
	"causes":      graph.ImplicationLink,
}

// FormError reports a compound form the translator cannot interpret.
type FormError struct {
	Form kif.Expr
	Msg  string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("malformed form %s: %s", e.Form, e.Msg)
}

func formErrorf(form kif.Expr, format string, args ...interface{}) error {
	return &FormError{Form: form, Msg: fmt.Sprintf(format, args...)}
}

// Stats counts what a Translator produced.
type Stats struct {
	Axioms       int
	ClosedAxioms int // axioms wrapped in an implicit forall
	// Forms counts distinct links by type. Re-adding an existing link is
	// not counted again.
	Forms map[graph.Type]int
}

// Translator writes translated expressions into a store. It is not safe
// for concurrent use; run one Translator per store.
type Translator struct {
	store   graph.Store
	symbols symtab.Resolver
	log     *logging.Logger
	stats   Stats
	linked  map[string]struct{}
}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger overrides the translate category logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Translator) { t.log = l }
}

// New creates a Translator over store. A nil symbols resolves every symbol
// to RoleConcept.
func New(store graph.Store, symbols symtab.Resolver, opts ...Option) *Translator {
	if symbols == nil {
		symbols = symtab.New()
	}
	t := &Translator{
		store:   store,
		symbols: symbols,
		log:     logging.Get(logging.CategoryTranslate),
		stats:   Stats{Forms: make(map[graph.Type]int)},
		linked:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Stats returns a copy of the counters.
func (t *Translator) Stats() Stats {
	forms := make(map[graph.Type]int, len(t.stats.Forms))
	for k, v := range t.stats.Forms {
		forms[k] = v
	}
	return Stats{Axioms: t.stats.Axioms, ClosedAxioms: t.stats.ClosedAxioms, Forms: forms}
}

// TranslateAxiom translates one top-level axiom. Axioms are implicitly
// universally closed: free variables are bound by a wrapping forall.
func (t *Translator) TranslateAxiom(expr kif.Expr) (graph.Atom, error) {
	t.stats.Axioms++
	if free := FreeVariables(expr); len(free) > 0 {
		vars := make([]kif.Expr, len(free))
		for i, v := range free {
			vars[i] = kif.Token(v)
		}
		expr = kif.List(kif.Token(kwForall), kif.List(vars...), expr)
		t.stats.ClosedAxioms++
		t.log.Debug("Closing axiom over %v", free)
	}
	tv := graph.LinkTV
	return t.Translate(expr, &tv)
}

// TranslateAll translates axioms in order and stops at the first failure.
func (t *Translator) TranslateAll(exprs []kif.Expr) ([]graph.Atom, error) {
	out := make([]graph.Atom, 0, len(exprs))
	for i, e := range exprs {
		a, err := t.TranslateAxiom(e)
		if err != nil {
			return out, fmt.Errorf("axiom %d: %w", i+1, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Translate converts expr into an atom. tv is attached to the resulting
// link; nil leaves the store default in place.
func (t *Translator) Translate(expr kif.Expr, tv *graph.TruthValue) (graph.Atom, error) {
	if expr.IsAtom() {
		return t.TranslateToken(expr)
	}
	link, ok, err := t.translateQuantifier(expr, tv)
	if err != nil {
		return nil, err
	}
	if ok {
		return link, nil
	}
	return t.translateApplication(expr, tv)
}

// TranslateToken converts a token into a node.
func (t *Translator) TranslateToken(tok kif.Expr) (*graph.Node, error) {
	switch tok.Kind() {
	case kif.KindVariable:
		return t.store.AddNode(graph.VariableNode, tok.Text(), nil)
	case kif.KindString:
		return t.symbolNode(stripLiteral(tok.Text()))
	case kif.KindSymbol:
		return t.symbolNode(tok.Text())
	default:
		return nil, formErrorf(tok, "expected a token")
	}
}

func (t *Translator) symbolNode(name string) (*graph.Node, error) {
	tv := graph.NodeTV
	return t.store.AddNode(t.symbols.Resolve(name).NodeType(), name, &tv)
}

// stripLiteral drops the opening quote, the closing quote and the
// character before it, which for well-formed literals is the terminating
// punctuation.
func stripLiteral(text string) string {
	if utf8.RuneCountInString(text) < 3 {
		return strings.Trim(text, `"`)
	}
	body := strings.TrimSuffix(text[1:], `"`)
	_, size := utf8.DecodeLastRuneInString(body)
	return body[:len(body)-size]
}

// translateApplication handles (operator arg...) forms that are not
// quantifiers.
func (t *Translator) translateApplication(form kif.Expr, tv *graph.TruthValue) (graph.Atom, error) {
	if form.Len() == 0 {
		return nil, formErrorf(form, "empty form")
	}
	op := form.Item(0)
	if !op.IsAtom() {
		return nil, formErrorf(form, "operator must be a token")
	}

	args, err := t.translateEach(form.Items()[1:])
	if err != nil {
		return nil, err
	}

	if lt, ok := specialLinkTypes[op.Text()]; ok {
		return t.addLink(lt, args, tv)
	}

	linkType, nodeType := t.operatorShape(op)
	opTV := graph.PredicateTV
	opNode, err := t.store.AddNode(nodeType, op.Text(), &opTV)
	if err != nil {
		return nil, err
	}

	var packed graph.Atom
	if len(args) == 1 {
		packed = args[0]
	} else {
		if packed, err = t.addLink(graph.ListLink, args, nil); err != nil {
			return nil, err
		}
	}
	return t.addLink(linkType, []graph.Atom{opNode, packed}, tv)
}

// operatorShape decides which link an applied operator becomes and which
// node type represents the operator.
func (t *Translator) operatorShape(op kif.Expr) (linkType, nodeType graph.Type) {
	name := op.Text()
	switch role := t.symbols.Resolve(name); {
	case role == symtab.RoleSchema:
		return graph.ExecutionOutputLink, graph.SchemaNode
	case role == symtab.RolePredicate:
		return graph.EvaluationLink, graph.PredicateNode
	case strings.HasSuffix(name, functionalSuffix):
		// Functions not yet classified upstream.
		return graph.ExecutionOutputLink, graph.SchemaNode
	case op.IsVariable():
		// A variable in operator position ranges over relations.
		return graph.EvaluationLink, graph.VariableNode
	default:
		return graph.EvaluationLink, graph.PredicateNode
	}
}

// translateEach translates nested expressions with no truth value of
// their own.
func (t *Translator) translateEach(exprs []kif.Expr) ([]graph.Atom, error) {
	out := make([]graph.Atom, 0, len(exprs))
	for _, e := range exprs {
		a, err := t.Translate(e, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (t *Translator) addLink(lt graph.Type, outgoing []graph.Atom, tv *graph.TruthValue) (*graph.Link, error) {
	l, err := t.store.AddLink(lt, outgoing, tv)
	if err != nil {
		return nil, err
	}
	if _, seen := t.linked[l.ContentHash()]; !seen {
		t.linked[l.ContentHash()] = struct{}{}
		t.stats.Forms[lt]++
	}
	return l, nil
}
