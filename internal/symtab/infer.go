package symtab

import (
	"strings"

	"kifgraph/internal/kif"
)

// predicateClasses are SUMO classes whose instances are relations that
// translate to predicates.
var predicateClasses = map[string]bool{
	"Predicate":               true,
	"BinaryPredicate":         true,
	"TernaryPredicate":        true,
	"QuaternaryPredicate":     true,
	"QuintaryPredicate":       true,
	"VariableArityPredicate":  true,
	"BinaryRelation":          true,
	"TernaryRelation":         true,
	"QuaternaryRelation":      true,
	"QuintaryRelation":        true,
	"VariableArityRelation":   true,
	"ReflexiveRelation":       true,
	"IrreflexiveRelation":     true,
	"SymmetricRelation":       true,
	"AsymmetricRelation":      true,
	"AntisymmetricRelation":   true,
	"TransitiveRelation":      true,
	"IntransitiveRelation":    true,
	"TrichotomizingRelation":  true,
	"EquivalenceRelation":     true,
	"PartialOrderingRelation": true,
	"TotalOrderingRelation":   true,
	"CaseRole":                true,
	"SpatialRelation":         true,
	"TemporalRelation":        true,
	"PropositionalAttitude":   true,
}

// functionClasses are SUMO classes whose instances translate to schemas.
var functionClasses = map[string]bool{
	"Function":                      true,
	"UnaryFunction":                 true,
	"BinaryFunction":                true,
	"TernaryFunction":               true,
	"QuaternaryFunction":            true,
	"VariableArityFunction":         true,
	"AssociativeFunction":           true,
	"CommutativeFunction":           true,
	"OneToOneFunction":              true,
	"SequenceFunction":              true,
	"UnaryConstantFunctionQuantity": true,
	"TimeDependentQuantity":         true,
}

// Infer derives a symbol table from the instance, subrelation, domain and
// range declarations found in axioms. Function evidence beats predicate
// evidence for the same symbol.
func Infer(exprs []kif.Expr) *Table {
	t := New()
	var subrelations [][2]string

	mark := func(symbol string, role Role) {
		if cur, ok := t.Lookup(symbol); ok && cur == RoleSchema {
			return
		}
		t.Set(symbol, role)
	}

	for _, e := range exprs {
		head, ok := e.Head()
		if !ok || e.Len() < 3 {
			continue
		}
		subject := e.Item(1)
		if subject.Kind() != kif.KindSymbol {
			continue
		}
		name := subject.Text()

		switch head {
		case "instance":
			class := e.Item(2).Text()
			switch {
			case functionClasses[class]:
				mark(name, RoleSchema)
			case predicateClasses[class]:
				mark(name, relationRole(name))
			}
		case "subrelation":
			if parent := e.Item(2); parent.Kind() == kif.KindSymbol {
				subrelations = append(subrelations, [2]string{name, parent.Text()})
			}
		case "domain", "domainSubclass":
			if _, known := t.Lookup(name); !known {
				mark(name, relationRole(name))
			}
		case "range", "rangeSubclass":
			mark(name, RoleSchema)
		}
	}

	// Propagate through subrelation chains until nothing changes.
	for changed := true; changed; {
		changed = false
		for _, sr := range subrelations {
			child, parent := sr[0], sr[1]
			if _, known := t.Lookup(child); known {
				continue
			}
			if role, ok := t.Lookup(parent); ok {
				t.Set(child, role)
				changed = true
			}
		}
	}
	return t
}

func relationRole(name string) Role {
	if strings.HasSuffix(name, "Fn") {
		return RoleSchema
	}
	return RolePredicate
}
