package symtab

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kifgraph/internal/graph"
	"kifgraph/internal/kif"
)

func TestResolveDefaultsToConcept(t *testing.T) {
	tbl := New()
	tbl.Set("likes", RolePredicate)

	assert.Equal(t, RolePredicate, tbl.Resolve("likes"))
	assert.Equal(t, RoleConcept, tbl.Resolve("Dog"))

	var nilTable *Table
	assert.Equal(t, RoleConcept, nilTable.Resolve("anything"))
	assert.Zero(t, nilTable.Len())
}

func TestRoleNodeType(t *testing.T) {
	assert.Equal(t, graph.ConceptNode, RoleConcept.NodeType())
	assert.Equal(t, graph.PredicateNode, RolePredicate.NodeType())
	assert.Equal(t, graph.SchemaNode, RoleSchema.NodeType())
}

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"PredicateNode": RolePredicate,
		"SchemaNode":    RoleSchema,
		"ConceptNode":   RoleConcept,
		"predicate":     RolePredicate,
		"Schema":        RoleSchema,
	}
	for in, want := range tests {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseRole("NumberNode")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	src := `
# generated table
likes PredicateNode
MeasureFn SchemaNode extra-ignored
; comment
Dog ConceptNode
`
	tbl, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, RoleSchema, tbl.Resolve("MeasureFn"))

	if diff := cmp.Diff([]string{"Dog", "MeasureFn", "likes"}, tbl.Symbols()); diff != "" {
		t.Errorf("Symbols() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMalformedLineIsFatal(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"missing field", "likes PredicateNode\nlonely\n", 2},
		{"unknown role", "likes PredicateNode\nx FrobNode\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Parse(strings.NewReader(tt.src))
			assert.Nil(t, tbl, "no partial table on error")
			var le *LineError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.line, le.Line)
		})
	}
}

func TestLoadAndWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "types.txt")
	require.NoError(t, os.WriteFile(path, []byte("b SchemaNode\na PredicateNode\n"), 0644))

	tbl, err := Load(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = tbl.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "a PredicateNode\nb SchemaNode\n", buf.String())

	_, err = Load(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestInfer(t *testing.T) {
	exprs, err := kif.ParseString(`
(instance likes BinaryPredicate)
(instance MeasureFn BinaryFunction)
(instance MeasureFn BinaryRelation)
(subrelation adores likes)
(subrelation worships adores)
(domain neighbor 1 Human)
(domain HeightFn 1 Object)
(range AgeFn TimeDuration)
(instance Fido Dog)
(subclass Dog Mammal)
`)
	require.NoError(t, err)

	tbl := Infer(exprs)
	want := map[string]Role{
		"likes":     RolePredicate,
		"MeasureFn": RoleSchema,
		"adores":    RolePredicate,
		"worships":  RolePredicate,
		"neighbor":  RolePredicate,
		"HeightFn":  RoleSchema,
		"AgeFn":     RoleSchema,
	}
	got := make(map[string]Role)
	for _, s := range tbl.Symbols() {
		got[s] = tbl.Resolve(s)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Infer() mismatch (-want +got):\n%s", diff)
	}
}
