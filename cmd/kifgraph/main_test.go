package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kifgraph/internal/logging"
	"kifgraph/internal/symtab"
)

const likesAxiom = `(EvaluationLink (stv 1 1) (PredicateNode "likes" (stv 0.1 1)) ` +
	`(ListLink (ConceptNode "Fido" (stv 0.01 1)) (ConceptNode "Rex" (stv 0.01 1))))`

// execute runs the root command with a fresh set of flag values and a
// config path that does not exist, so only defaults apply.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, env := range []string{"KIFGRAPH_SYMBOLS", "KIFGRAPH_DB", "KIFGRAPH_LOG_LEVEL", "KIFGRAPH_WORKERS"} {
		t.Setenv(env, "")
	}

	cfgPath, symbolsPath, verbose = "", "", false
	convertOutDir, convertFormat, convertDB, convertPretty, convertWorkers = "", "", "", false, 0
	translateRender, translatePretty = false, false
	inferOut = ""
	statsByType = false
	queryRules = nil
	dumpDB, dumpPretty, dumpStats = "", false, false

	full := append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(full)
	err := rootCmd.Execute()
	logging.Initialize(nil, logging.Config{})
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func petTypes(t *testing.T, dir string) string {
	return writeFile(t, dir, "pets.types", "likes PredicateNode\n")
}

func TestTranslateCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "translate", "--symbols", petTypes(t, dir), "(likes Fido Rex)")
	require.NoError(t, err)
	assert.Equal(t, likesAxiom+"\n", out)
}

func TestTranslateCommandJoinsArguments(t *testing.T) {
	out, err := execute(t, "translate", "(likes", "Fido", "Rex)", "(Dog Fido)")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
}

func TestTranslateCommandRender(t *testing.T) {
	out, err := execute(t, "translate", "--render", "(likes Fido Rex)")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestTranslateCommandReportsSyntaxErrors(t *testing.T) {
	_, err := execute(t, "translate", "(likes Fido")
	assert.Error(t, err)
}

func TestFreevarsCommand(t *testing.T) {
	out, err := execute(t, "freevars", "(likes ?a ?b) (forall (?x) (P ?x ?y)) (Dog Fido)")
	require.NoError(t, err)
	assert.Equal(t,
		"(likes ?a ?b): ?a ?b\n(forall (?x) (P ?x ?y)): ?y\n(Dog Fido): (closed)\n",
		out)
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "pets.kif", "(likes Fido Rex)\n")
	outDir := filepath.Join(dir, "out")
	db := filepath.Join(dir, "graph.db")

	out, err := execute(t, "convert", "--symbols", petTypes(t, dir),
		"--out-dir", outDir, "--format", "both", "--db", db, in)
	require.NoError(t, err)
	assert.Contains(t, out, "Converted 1 files")

	scm, err := os.ReadFile(filepath.Join(outDir, "pets.scm"))
	require.NoError(t, err)
	assert.Equal(t, likesAxiom+"\n", string(scm))
	assert.FileExists(t, filepath.Join(outDir, "pets.mg"))

	dumped, err := execute(t, "dump", "--symbols", petTypes(t, dir), "--db", db)
	require.NoError(t, err)
	assert.Equal(t, likesAxiom+"\n", dumped)

	summary, err := execute(t, "dump", "--db", db, "--stats")
	require.NoError(t, err)
	assert.Contains(t, summary, "Asserted")
}

func TestConvertCommandRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "pets.kif", "(likes Fido Rex)\n")
	_, err := execute(t, "convert", "--format", "xml", in)
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "pets.scm"))
}

func TestDumpRequiresDatabase(t *testing.T) {
	_, err := execute(t, "dump")
	assert.Error(t, err)
}

func TestSymbolsInferCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "decls.kif", `
(instance likes BinaryPredicate)
(instance MotherFn UnaryFunction)
(subrelation adores likes)
`)
	table := filepath.Join(dir, "sumo.types")

	_, err := execute(t, "symbols", "infer", "-o", table, in)
	require.NoError(t, err)

	tbl, err := symtab.Load(table)
	require.NoError(t, err)
	assert.Equal(t, symtab.RolePredicate, tbl.Resolve("likes"))
	assert.Equal(t, symtab.RolePredicate, tbl.Resolve("adores"))
	assert.Equal(t, symtab.RoleSchema, tbl.Resolve("MotherFn"))

	shown, err := execute(t, "symbols", "show", "--symbols", table)
	require.NoError(t, err)
	assert.Contains(t, shown, "MotherFn SchemaNode")
}

func TestQueryCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "pets.kif", "(likes Fido Rex)\n")

	out, err := execute(t, "query", "--symbols", petTypes(t, dir), in, "operator_of(L, Name)")
	require.NoError(t, err)
	assert.Contains(t, out, "likes")
	assert.Contains(t, out, "1 results")
}

func TestQueryCommandWithRules(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "pets.kif", "(likes Fido Rex)\n(=> (Dog ?x) (likes ?x Rex))\n")
	rules := writeFile(t, dir, "rules.mg", `
Decl rule_axiom(L) descr [mode("-")].
rule_axiom(L) :- axiom_kind(L, "ImplicationScopeLink").
`)

	out, err := execute(t, "query", "--rules", rules, in, "rule_axiom(L)")
	require.NoError(t, err)
	assert.Contains(t, out, "1 results")
}

func TestStatsCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "pets.kif", "(likes Fido Rex)\n(=> (Dog ?x) (likes ?x Rex))\n")

	out, err := execute(t, "stats", "--by-type", in)
	require.NoError(t, err)
	assert.Contains(t, out, "pets.kif")
	assert.Contains(t, out, "ImplicationScopeLink")
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "kifgraph.yaml", "pipeline:\n  workers: 0\n")
	_, err := execute(t, "--config", bad, "freevars", "(P ?x)")
	assert.Error(t, err)
}
