package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kifgraph/internal/graph"
	"kifgraph/internal/kif"
	"kifgraph/internal/symtab"
	"kifgraph/internal/translate"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "graph.db"), DriverSQLite)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func translated(t *testing.T, src string) *graph.AtomSpace {
	t.Helper()
	exprs, err := kif.ParseString(src)
	require.NoError(t, err)
	tbl := symtab.New()
	tbl.Set("likes", symtab.RolePredicate)
	space := graph.NewAtomSpace()
	_, err = translate.New(space, tbl).TranslateAll(exprs)
	require.NoError(t, err)
	return space
}

func asserted(t *testing.T, s graph.Store) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := graph.WriteAsserted(&buf, s, graph.SchemeOptions{})
	require.NoError(t, err)
	return buf.String()
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "x.db"), "postgres")
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	space := translated(t, `
(likes Fido Rex)
(forall (?x) (=> (instance ?x Dog) (likes ?x Bone)))
(documentation Dog EnglishLanguage "A domestic dog.")
`)

	res, err := s.SaveGraph(ctx, "pets.kif", space.Atoms())
	require.NoError(t, err)
	assert.Equal(t, len(space.Atoms()), res.Inserted)

	loaded := graph.NewAtomSpace()
	n, err := s.LoadGraph(ctx, loaded)
	require.NoError(t, err)
	assert.Equal(t, len(space.Atoms()), n)

	wantNodes, wantLinks := space.Size()
	gotNodes, gotLinks := loaded.Size()
	assert.Equal(t, wantNodes, gotNodes)
	assert.Equal(t, wantLinks, gotLinks)
	assert.Equal(t, asserted(t, space), asserted(t, loaded))

	for _, a := range space.Atoms() {
		b, ok := loaded.Lookup(a.ContentHash())
		require.True(t, ok, "missing %s", graph.Scheme(a, graph.SchemeOptions{}))
		assert.Equal(t, a.TV(), b.TV())
	}
}

func TestSaveIsContentAddressed(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first := translated(t, "(likes Fido Rex)")
	_, err := s.SaveGraph(ctx, "a.kif", first.Atoms())
	require.NoError(t, err)

	again, err := s.SaveGraph(ctx, "a.kif", first.Atoms())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Inserted)

	second := translated(t, "(likes Fido Rex)\n(likes Rex Fido)")
	res, err := s.SaveGraph(ctx, "b.kif", second.Atoms())
	require.NoError(t, err)
	// Only the ListLink over (Rex Fido) and its EvaluationLink are new.
	assert.Equal(t, 2, res.Inserted)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Nodes)
	assert.Equal(t, 4, st.Links)
	assert.Equal(t, 2, st.Asserted)
	assert.Equal(t, 2, st.Sources)
	assert.Equal(t, 2, st.ByType["EvaluationLink"])
}

func TestSaveUpdatesAssertedTruthValue(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	// The nested form is saved first without evidence, then asserted.
	nested := translated(t, "(not (likes Fido Rex))")
	_, err := s.SaveGraph(ctx, "a.kif", nested.Atoms())
	require.NoError(t, err)

	top := translated(t, "(likes Fido Rex)")
	_, err = s.SaveGraph(ctx, "b.kif", top.Atoms())
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Asserted)
}

func TestSaveRequiresChildrenFirst(t *testing.T) {
	s := openTestStore(t)
	space := translated(t, "(likes Fido Rex)")

	links := space.Links()
	_, err := s.SaveGraph(context.Background(), "a.kif", []graph.Atom{links[len(links)-1]})
	assert.Error(t, err)

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.Nodes+st.Links, "failed save is rolled back")
}
