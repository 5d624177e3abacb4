package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kifgraph/internal/mangle"
	"kifgraph/internal/pipeline"
)

var queryCmd = &cobra.Command{
	Use:   "query FILE QUERY",
	Short: "Translate a KIF file and query its graph with Mangle",
	Long: `Translates FILE, loads the graph as Mangle facts and evaluates QUERY
against it. Besides the base relations (atom_node, atom_link,
link_child, asserted) the following are derived:

  scope_link(L)           L is a quantifier or scope link
  operator_of(L, Name)    L applies the predicate or schema Name
  scope_binds(L, Decl)    L declares its variables in Decl
  axiom_kind(L, Type)     asserted link L has link type Type

--rules adds Mangle source files on top. Predicates they define can be
queried once declared with a mode, e.g. Decl p(X) descr [mode("-")].`,
	Example: `  kifgraph query Merge.kif 'operator_of(L, Name)'
  kifgraph query Merge.kif 'axiom_kind(L, "ImplicationScopeLink")'`,
	Args: cobra.ExactArgs(2),
	RunE: runQuery,
}

var queryRules []string

func init() {
	queryCmd.Flags().StringSliceVarP(&queryRules, "rules", "r", nil, "Additional Mangle rule files")
}

func runQuery(cmd *cobra.Command, args []string) error {
	space, _, err := pipeline.TranslateFile(args[0], symbols)
	if err != nil {
		return err
	}
	engine, err := mangle.NewGraphEngine(mangle.DefaultConfig(), space.Atoms())
	if err != nil {
		return err
	}
	for _, path := range queryRules {
		if err := engine.AddRulesFile(path); err != nil {
			return err
		}
	}
	result, err := engine.Query(cmd.Context(), args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(result.Variables) == 0 {
		if len(result.Bindings) > 0 {
			fmt.Fprintln(out, "true")
		} else {
			fmt.Fprintln(out, "false")
		}
		return nil
	}

	rows := make([][]string, 0, len(result.Bindings))
	for _, binding := range result.Bindings {
		row := make([]string, len(result.Variables))
		for i, v := range result.Variables {
			row[i] = fmt.Sprint(binding[v])
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(out, renderTable(result.Variables, rows))
	printNote(out, "%d results for %s in %v", len(rows), strings.TrimSpace(args[1]), result.Duration)
	return nil
}
