// Package graph implements the typed, content-addressed knowledge graph that
// translated axioms are written into. Nodes are identified by (type, name),
// links by (type, ordered children); adding identical content twice returns
// the entity created the first time.
package graph

import "fmt"

// Type is an atom type. Node types sort before FirstLinkType.
type Type int

const (
	NoType Type = iota

	ConceptNode
	PredicateNode
	SchemaNode
	VariableNode
	TypeNode

	FirstLinkType // marker, not a real type

	TypeChoice
	TypedVariableLink
	VariableList
	ListLink
	EvaluationLink
	ExecutionOutputLink
	ImplicationLink
	EquivalenceLink
	AndLink
	OrLink
	NotLink
	InheritanceLink
	MemberLink
	ExistsLink
	ForAllLink
	ImplicationScopeLink
	EquivalenceScopeLink
	SatisfyingSetScopeLink

	lastType
)

var typeNames = map[Type]string{
	ConceptNode:            "ConceptNode",
	PredicateNode:          "PredicateNode",
	SchemaNode:             "SchemaNode",
	VariableNode:           "VariableNode",
	TypeNode:               "TypeNode",
	TypeChoice:             "TypeChoice",
	TypedVariableLink:      "TypedVariableLink",
	VariableList:           "VariableList",
	ListLink:               "ListLink",
	EvaluationLink:         "EvaluationLink",
	ExecutionOutputLink:    "ExecutionOutputLink",
	ImplicationLink:        "ImplicationLink",
	EquivalenceLink:        "EquivalenceLink",
	AndLink:                "AndLink",
	OrLink:                 "OrLink",
	NotLink:                "NotLink",
	InheritanceLink:        "InheritanceLink",
	MemberLink:             "MemberLink",
	ExistsLink:             "ExistsLink",
	ForAllLink:             "ForAllLink",
	ImplicationScopeLink:   "ImplicationScopeLink",
	EquivalenceScopeLink:   "EquivalenceScopeLink",
	SatisfyingSetScopeLink: "SatisfyingSetScopeLink",
}

var typesByName = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, n := range typeNames {
		m[n] = t
	}
	return m
}()

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsNode reports whether t names a node type.
func (t Type) IsNode() bool { return t > NoType && t < FirstLinkType }

// IsLink reports whether t names a link type.
func (t Type) IsLink() bool { return t > FirstLinkType && t < lastType }

// ParseType resolves a type by its exact name, e.g. "PredicateNode".
func ParseType(name string) (Type, error) {
	if t, ok := typesByName[name]; ok {
		return t, nil
	}
	return NoType, fmt.Errorf("unknown atom type %q", name)
}

// Types lists every real atom type in declaration order.
func Types() []Type {
	out := make([]Type, 0, len(typeNames))
	for t := NoType + 1; t < lastType; t++ {
		if t == FirstLinkType {
			continue
		}
		out = append(out, t)
	}
	return out
}
