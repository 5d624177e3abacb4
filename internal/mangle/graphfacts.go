package mangle

import (
	"bufio"
	"fmt"
	"io"

	"kifgraph/internal/graph"
	"kifgraph/internal/logging"
)

// GraphSchema declares the relational view of an atom graph. Handles are
// the store handles of the translated graph, so children always carry
// smaller handles than their parents.
const GraphSchema = `
# Base relations, one set per atom.
Decl atom_node(Handle, Type, Name)
  descr [mode("-", "-", "-")]
  bound [/number, /string, /string].

Decl atom_link(Handle, Type)
  descr [mode("-", "-")]
  bound [/number, /string].

Decl link_child(Link, Position, Child)
  descr [mode("-", "-", "-")]
  bound [/number, /number, /number].

Decl asserted(Handle)
  descr [mode("-")]
  bound [/number].

# Derived relations.
Decl scope_link(Handle) descr [mode("-")].
Decl operator_of(Link, Name) descr [mode("-", "-")].
Decl scope_binds(Scope, Variable) descr [mode("-", "-")].
Decl axiom_kind(Handle, Type) descr [mode("-", "-")].

scope_link(S) :- atom_link(S, "ForAllLink").
scope_link(S) :- atom_link(S, "ExistsLink").
scope_link(S) :- atom_link(S, "ImplicationScopeLink").
scope_link(S) :- atom_link(S, "EquivalenceScopeLink").
scope_link(S) :- atom_link(S, "SatisfyingSetScopeLink").

operator_of(L, Name) :- atom_link(L, "EvaluationLink"), link_child(L, 0, Op), atom_node(Op, _, Name).
operator_of(L, Name) :- atom_link(L, "ExecutionOutputLink"), link_child(L, 0, Op), atom_node(Op, _, Name).

scope_binds(S, V) :- scope_link(S), link_child(S, 0, D), atom_link(D, "TypedVariableLink"),
  link_child(D, 0, N), atom_node(N, "VariableNode", V).
scope_binds(S, V) :- scope_link(S), link_child(S, 0, D), atom_link(D, "VariableList"),
  link_child(D, _, T), link_child(T, 0, N), atom_node(N, "VariableNode", V).

axiom_kind(H, T) :- asserted(H), atom_link(H, T).
`

// FactsFromGraph converts atoms into base facts of GraphSchema. Atoms must
// be in creation order so every child precedes its parent.
func FactsFromGraph(atoms []graph.Atom) []Fact {
	facts := make([]Fact, 0, len(atoms)*2)
	for _, a := range atoms {
		h := int64(a.Handle())
		switch v := a.(type) {
		case *graph.Node:
			facts = append(facts, Fact{Predicate: "atom_node", Args: []interface{}{h, v.Type().String(), v.Name()}})
		case *graph.Link:
			facts = append(facts, Fact{Predicate: "atom_link", Args: []interface{}{h, v.Type().String()}})
			for i, child := range v.Outgoing() {
				facts = append(facts, Fact{Predicate: "link_child", Args: []interface{}{h, int64(i), int64(child.Handle())}})
			}
			if v.TV().Count() > 0 {
				facts = append(facts, Fact{Predicate: "asserted", Args: []interface{}{h}})
			}
		}
	}
	return facts
}

// LoadGraph adds GraphSchema on first use, inserts the facts of atoms and
// evaluates the derived relations.
func (e *Engine) LoadGraph(atoms []graph.Atom) error {
	e.mu.RLock()
	_, loaded := e.preds["atom_node"]
	e.mu.RUnlock()
	if !loaded {
		if err := e.AddRules(GraphSchema); err != nil {
			return err
		}
	}

	facts := FactsFromGraph(atoms)
	if err := e.Insert(facts...); err != nil {
		return err
	}
	logging.Mangle("Loaded %d facts from %d atoms", len(facts), len(atoms))
	return nil
}

// NewGraphEngine returns an engine holding the relational view of atoms.
func NewGraphEngine(cfg Config, atoms []graph.Atom) (*Engine, error) {
	e := NewEngine(cfg)
	if err := e.LoadGraph(atoms); err != nil {
		return nil, err
	}
	return e, nil
}

// WriteFacts writes a self-contained Mangle source file: GraphSchema
// followed by one fact per line.
func WriteFacts(w io.Writer, source string, atoms []graph.Atom) (int, error) {
	bw := bufio.NewWriter(w)
	if source != "" {
		fmt.Fprintf(bw, "# Generated by kifgraph from %s\n", source)
	}
	bw.WriteString(GraphSchema)
	bw.WriteString("\n")

	facts := FactsFromGraph(atoms)
	for _, f := range facts {
		bw.WriteString(f.String())
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write facts: %w", err)
	}
	return len(facts), nil
}
