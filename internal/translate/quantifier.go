package translate

import (
	"kifgraph/internal/graph"
	"kifgraph/internal/kif"
	"kifgraph/internal/symtab"
)

// boundVariableDomain is the type every quantified variable may range
// over. The set is closed; adding a role here widens every declaration.
var boundVariableDomain = []symtab.Role{symtab.RolePredicate, symtab.RoleSchema, symtab.RoleConcept}

// translateQuantifier builds scope links for forall, exists and KappaFn.
// ok is false when form is not a quantifier.
func (t *Translator) translateQuantifier(form kif.Expr, tv *graph.TruthValue) (link *graph.Link, ok bool, err error) {
	head, isForm := form.Head()
	if !isForm {
		return nil, false, nil
	}

	switch head {
	case kwForall, kwExists:
		if form.Len() < 3 {
			return nil, true, formErrorf(form, "%s needs a variable list and a body", head)
		}
		decl, err := t.declareVariables(form, form.Item(1))
		if err != nil {
			return nil, true, err
		}
		body := form.Item(2)

		linkType, parts := graph.ForAllLink, form.Items()[2:]
		switch {
		case head == kwExists:
			linkType = graph.ExistsLink
		case body.HeadIs(kwImplies):
			linkType, parts = graph.ImplicationScopeLink, body.Items()[1:]
		case body.HeadIs(kwIff):
			linkType, parts = graph.EquivalenceScopeLink, body.Items()[1:]
		}
		link, err = t.scope(linkType, decl, parts, tv)
		return link, true, err

	case kwKappa:
		if form.Len() < 3 {
			return nil, true, formErrorf(form, "KappaFn needs a variable and a body")
		}
		v := form.Item(1)
		if !v.IsAtom() {
			if v.Len() != 1 {
				return nil, true, formErrorf(form, "KappaFn binds exactly one variable")
			}
			v = v.Item(0)
		}
		decl, err := t.typedVariable(form, v)
		if err != nil {
			return nil, true, err
		}
		link, err = t.scope(graph.SatisfyingSetScopeLink, decl, form.Items()[2:], tv)
		return link, true, err
	}
	return nil, false, nil
}

func (t *Translator) scope(lt graph.Type, decl graph.Atom, parts []kif.Expr, tv *graph.TruthValue) (*graph.Link, error) {
	body, err := t.translateEach(parts)
	if err != nil {
		return nil, err
	}
	return t.addLink(lt, append([]graph.Atom{decl}, body...), tv)
}

// declareVariables turns a quantifier's variable part into a declaration
// atom: a single typed variable, or a VariableList of them.
func (t *Translator) declareVariables(form, vars kif.Expr) (graph.Atom, error) {
	if vars.IsAtom() {
		return t.typedVariable(form, vars)
	}
	if vars.Len() == 0 {
		return nil, formErrorf(form, "empty variable list")
	}
	if vars.Len() == 1 {
		return t.typedVariable(form, vars.Item(0))
	}
	decls := make([]graph.Atom, 0, vars.Len())
	for _, v := range vars.Items() {
		d, err := t.typedVariable(form, v)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return t.addLink(graph.VariableList, decls, nil)
}

func (t *Translator) typedVariable(form, v kif.Expr) (*graph.Link, error) {
	if !v.IsVariable() {
		return nil, formErrorf(form, "cannot bind %s", v)
	}
	node, err := t.store.AddNode(graph.VariableNode, v.Text(), nil)
	if err != nil {
		return nil, err
	}
	choice, err := t.variableDomain()
	if err != nil {
		return nil, err
	}
	return t.addLink(graph.TypedVariableLink, []graph.Atom{node, choice}, nil)
}

func (t *Translator) variableDomain() (*graph.Link, error) {
	types := make([]graph.Atom, 0, len(boundVariableDomain))
	for _, r := range boundVariableDomain {
		n, err := t.store.AddNode(graph.TypeNode, r.NodeType().String(), nil)
		if err != nil {
			return nil, err
		}
		types = append(types, n)
	}
	return t.addLink(graph.TypeChoice, types, nil)
}
