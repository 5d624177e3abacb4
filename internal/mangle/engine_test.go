package mangle

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kifgraph/internal/graph"
	"kifgraph/internal/kif"
	"kifgraph/internal/symtab"
	"kifgraph/internal/translate"
)

func TestEngineRequiresRules(t *testing.T) {
	e := NewEngine(DefaultConfig())
	assert.Error(t, e.Insert(Fact{Predicate: "anything", Args: []interface{}{"x"}}))
	assert.Error(t, e.Evaluate())

	_, err := e.Query(context.Background(), "anything(X)")
	assert.Error(t, err)
}

func TestEngineInsertAndFacts(t *testing.T) {
	e := NewEngine(DefaultConfig())
	require.NoError(t, e.AddRules(`Decl person(Name, Age) descr [mode("-", "-")].`))

	require.NoError(t, e.Insert(
		Fact{Predicate: "person", Args: []interface{}{"Alice", int64(30)}},
		Fact{Predicate: "person", Args: []interface{}{"Bob", int64(25)}},
	))

	facts, err := e.Facts("person")
	require.NoError(t, err)
	assert.Len(t, facts, 2)

	assert.Error(t, e.Insert(Fact{Predicate: "person", Args: []interface{}{"Carol"}}), "arity is checked")
	assert.Error(t, e.Insert(Fact{Predicate: "undeclared", Args: []interface{}{"x"}}))

	_, err = e.Facts("undeclared")
	assert.Error(t, err)
}

func TestEngineFactLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFacts = 1
	e := NewEngine(cfg)
	require.NoError(t, e.AddRules(`Decl item(X).`))

	require.NoError(t, e.Insert(Fact{Predicate: "item", Args: []interface{}{"a"}}))
	assert.Error(t, e.Insert(Fact{Predicate: "item", Args: []interface{}{"b"}}))
}

func TestEngineReset(t *testing.T) {
	e := NewEngine(DefaultConfig())
	require.NoError(t, e.AddRules(`Decl data(Value).`))
	require.NoError(t, e.Insert(Fact{Predicate: "data", Args: []interface{}{"test"}}))

	e.Reset()

	facts, err := e.Facts("data")
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestAddRulesRejectsUnparsableFragment(t *testing.T) {
	e := NewEngine(DefaultConfig())
	require.NoError(t, e.AddRules(`Decl edge(X, Y).`))

	assert.Error(t, e.AddRules(`path(X, Y) :- edge(X, Y`))

	require.NoError(t, e.Insert(Fact{Predicate: "edge", Args: []interface{}{"a", "b"}}))
	_, err := e.Facts("path")
	assert.Error(t, err)
}

func TestFactString(t *testing.T) {
	tests := []struct {
		fact Fact
		want string
	}{
		{Fact{Predicate: "atom_node", Args: []interface{}{int64(3), "ConceptNode", "Fido"}}, `atom_node(3, "ConceptNode", "Fido").`},
		{Fact{Predicate: "status", Args: []interface{}{"/active"}}, `status(/active).`},
		{Fact{Predicate: "quoted", Args: []interface{}{`say "hi"`}}, `quoted("say \"hi\"").`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.fact.String())
	}
}

func translateGraph(t *testing.T, src string) *graph.AtomSpace {
	t.Helper()
	exprs, err := kif.ParseString(src)
	require.NoError(t, err)

	tbl := symtab.New()
	tbl.Set("likes", symtab.RolePredicate)
	tbl.Set("MeasureFn", symtab.RoleSchema)

	space := graph.NewAtomSpace()
	_, err = translate.New(space, tbl).TranslateAll(exprs)
	require.NoError(t, err)
	return space
}

func TestFactsFromGraph(t *testing.T) {
	space := translateGraph(t, "(likes Fido Rex)")
	facts := FactsFromGraph(space.Atoms())

	var lines []string
	for _, f := range facts {
		lines = append(lines, f.String())
	}
	want := []string{
		`atom_node(1, "ConceptNode", "Fido").`,
		`atom_node(2, "ConceptNode", "Rex").`,
		`atom_node(3, "PredicateNode", "likes").`,
		`atom_link(4, "ListLink").`,
		`link_child(4, 0, 1).`,
		`link_child(4, 1, 2).`,
		`atom_link(5, "EvaluationLink").`,
		`link_child(5, 0, 3).`,
		`link_child(5, 1, 4).`,
		`asserted(5).`,
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("FactsFromGraph() mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphEngineDerivedRelations(t *testing.T) {
	space := translateGraph(t, `
(likes Fido Rex)
(forall (?x) (=> (instance ?x Dog) (likes ?x Bone)))
(exists (?m ?n) (MeasureFn ?m ?n))
`)
	e, err := NewGraphEngine(DefaultConfig(), space.Atoms())
	require.NoError(t, err)

	kinds, err := e.Facts("axiom_kind")
	require.NoError(t, err)
	var gotKinds []string
	for _, f := range kinds {
		gotKinds = append(gotKinds, f.Args[1].(string))
	}
	sort.Strings(gotKinds)
	assert.Equal(t, []string{"EvaluationLink", "ExistsLink", "ImplicationScopeLink"}, gotKinds)

	ops, err := e.Facts("operator_of")
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range ops {
		names[f.Args[1].(string)] = true
	}
	assert.Equal(t, map[string]bool{"likes": true, "MeasureFn": true}, names)

	binds, err := e.Facts("scope_binds")
	require.NoError(t, err)
	vars := make(map[string]bool)
	for _, f := range binds {
		vars[f.Args[1].(string)] = true
	}
	assert.Equal(t, map[string]bool{"?x": true, "?m": true, "?n": true}, vars)

	assert.Equal(t, 3, e.Counts()["asserted"])
}

func TestGraphEngineQuery(t *testing.T) {
	space := translateGraph(t, "(likes Fido Rex)\n(likes Rex Fido)")
	e, err := NewGraphEngine(DefaultConfig(), space.Atoms())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := e.Query(ctx, "atom_node(H, \"ConceptNode\", Name)")
	require.NoError(t, err)
	assert.Equal(t, []string{"H", "Name"}, res.Variables)

	var names []string
	for _, row := range res.Bindings {
		names = append(names, row["Name"].(string))
	}
	sort.Strings(names)
	assert.Equal(t, []string{"Fido", "Rex"}, names)

	_, err = e.Query(ctx, "no_such_pred(X)")
	assert.Error(t, err)
	_, err = e.Query(ctx, "  ")
	assert.Error(t, err)
}

func TestWriteFactsIsLoadable(t *testing.T) {
	space := translateGraph(t, "(likes Fido Rex)")

	var buf bytes.Buffer
	n, err := WriteFacts(&buf, "pets.kif", space.Atoms())
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Contains(t, buf.String(), "# Generated by kifgraph from pets.kif")

	e := NewEngine(DefaultConfig())
	require.NoError(t, e.AddRules(buf.String()))
	require.NoError(t, e.Evaluate())

	kinds, err := e.Facts("axiom_kind")
	require.NoError(t, err)
	require.Len(t, kinds, 1)
	assert.Equal(t, "EvaluationLink", kinds[0].Args[1])
}

func TestRulesOverLoadedGraph(t *testing.T) {
	space := translateGraph(t, "(likes Fido Rex)\n(not (likes Rex Fido))")
	e, err := NewGraphEngine(DefaultConfig(), space.Atoms())
	require.NoError(t, err)

	rules := filepath.Join(t.TempDir(), "negated.mg")
	require.NoError(t, os.WriteFile(rules, []byte(`
Decl negated(L) descr [mode("-")].
negated(L) :- asserted(L), atom_link(L, "NotLink").
`), 0644))
	require.NoError(t, e.AddRulesFile(rules))

	res, err := e.Query(context.Background(), "negated(L)")
	require.NoError(t, err)
	assert.Len(t, res.Bindings, 1)

	assert.Error(t, e.AddRulesFile(filepath.Join(t.TempDir(), "missing.mg")))
}
