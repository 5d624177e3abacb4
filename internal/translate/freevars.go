package translate

import "kifgraph/internal/kif"

// hiddenSet is the set of variables bound by enclosing quantifiers. It is
// never mutated once built; entering a quantifier produces a new set, so
// bindings made inside one branch cannot leak into its siblings.
type hiddenSet map[string]struct{}

func (h hiddenSet) with(names []string) hiddenSet {
	out := make(hiddenSet, len(h)+len(names))
	for k := range h {
		out[k] = struct{}{}
	}
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

func (h hiddenSet) has(name string) bool {
	_, ok := h[name]
	return ok
}

// FreeVariables returns the variables of expr not bound by an enclosing
// forall or exists, in order of first occurrence. The variable list of a
// quantifier is not itself scanned.
func FreeVariables(expr kif.Expr) []string {
	var out []string
	seen := make(map[string]bool)
	collectFree(expr, nil, func(v string) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	})
	return out
}

func collectFree(e kif.Expr, hidden hiddenSet, emit func(string)) {
	if e.IsAtom() {
		if e.IsVariable() && !hidden.has(e.Text()) {
			emit(e.Text())
		}
		return
	}
	if isBinder(e) && e.Len() >= 2 {
		inner := hidden.with(boundNames(e.Item(1)))
		for _, body := range e.Items()[2:] {
			collectFree(body, inner, emit)
		}
		return
	}
	for _, child := range e.Items() {
		collectFree(child, hidden, emit)
	}
}

// isBinder reports whether e is a forall or exists form. KappaFn is not a
// binder for closure purposes.
func isBinder(e kif.Expr) bool {
	return e.HeadIs(kwForall) || e.HeadIs(kwExists)
}

// boundNames lists the names declared by a quantifier's variable part,
// which is normally a list but may be a lone token.
func boundNames(decl kif.Expr) []string {
	if decl.IsAtom() {
		return []string{decl.Text()}
	}
	names := make([]string, 0, decl.Len())
	for _, v := range decl.Items() {
		if v.IsAtom() {
			names = append(names, v.Text())
		}
	}
	return names
}
