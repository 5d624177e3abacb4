// Package kifgraph is the public entry point to the KIF to Atomese
// compiler. It re-exports the parser, symbol tables, translator and graph
// store, and adds one-call helpers for the common case.
package kifgraph

import (
	"strings"

	"kifgraph/internal/graph"
	"kifgraph/internal/kif"
	"kifgraph/internal/mangle"
	"kifgraph/internal/symtab"
	"kifgraph/internal/translate"
)

// KIF expressions.
type Expr = kif.Expr
type SyntaxError = kif.SyntaxError

var Parse = kif.Parse
var ParseString = kif.ParseString
var ParseFile = kif.ParseFile

// Symbol tables.
type Role = symtab.Role
type SymbolTable = symtab.Table
type Resolver = symtab.Resolver

const (
	RoleConcept   = symtab.RoleConcept
	RolePredicate = symtab.RolePredicate
	RoleSchema    = symtab.RoleSchema
)

var NewSymbolTable = symtab.New
var LoadSymbols = symtab.Load
var InferSymbols = symtab.Infer

// Graph.
type Atom = graph.Atom
type Node = graph.Node
type Link = graph.Link
type Type = graph.Type
type TruthValue = graph.TruthValue
type AtomSpace = graph.AtomSpace
type Store = graph.Store
type SchemeOptions = graph.SchemeOptions

var NewAtomSpace = graph.NewAtomSpace
var Asserted = graph.Asserted
var WriteAsserted = graph.WriteAsserted

// Translation.
type Translator = translate.Translator
type FormError = translate.FormError
type Stats = translate.Stats

var NewTranslator = translate.New
var FreeVariables = translate.FreeVariables

// Mangle export.
type Fact = mangle.Fact

var FactsFromGraph = mangle.FactsFromGraph
var NewGraphEngine = mangle.NewGraphEngine
var DefaultEngineConfig = mangle.DefaultConfig

// Compile parses src and translates every axiom into a fresh AtomSpace.
// A nil symbols resolves every symbol as a concept.
func Compile(src string, symbols Resolver) (*AtomSpace, error) {
	exprs, err := kif.ParseString(src)
	if err != nil {
		return nil, err
	}
	space := graph.NewAtomSpace()
	if _, err := translate.New(space, symbols).TranslateAll(exprs); err != nil {
		return nil, err
	}
	return space, nil
}

// CompileScheme is Compile followed by rendering the asserted links, one
// per line.
func CompileScheme(src string, symbols Resolver) (string, error) {
	space, err := Compile(src, symbols)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if _, err := graph.WriteAsserted(&b, space, graph.SchemeOptions{}); err != nil {
		return "", err
	}
	return b.String(), nil
}
