package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kifgraph/internal/graph"
	"kifgraph/internal/kif"
	"kifgraph/internal/logging"
	"kifgraph/internal/translate"
)

var (
	translateRender bool
	translatePretty bool
)

var translateCmd = &cobra.Command{
	Use:   "translate KIF...",
	Short: "Translate inline KIF axioms and print the Scheme",
	Long: `Translates the axioms given on the command line, joined by spaces,
and prints the asserted links in creation order.`,
	Example: `  kifgraph translate '(subclass Dog Canine)'
  kifgraph translate --render '(=> (instance ?x Dog) (attribute ?x Loyal))'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranslate,
}

var freevarsCmd = &cobra.Command{
	Use:   "freevars KIF...",
	Short: "List the free variables of each expression",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exprs, err := kif.ParseString(strings.Join(args, " "))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, e := range exprs {
			vars := translate.FreeVariables(e)
			if len(vars) == 0 {
				fmt.Fprintf(out, "%s: (closed)\n", e)
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", e, strings.Join(vars, " "))
		}
		return nil
	},
}

func init() {
	translateCmd.Flags().BoolVar(&translateRender, "render", false, "Render as terminal markdown")
	translateCmd.Flags().BoolVar(&translatePretty, "pretty", false, "Indent nested links")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	exprs, err := kif.ParseString(strings.Join(args, " "))
	if err != nil {
		return err
	}

	space := graph.NewAtomSpace()
	tr := translate.New(space, symbols)
	if _, err := tr.TranslateAll(exprs); err != nil {
		return err
	}

	var src strings.Builder
	n, err := graph.WriteAsserted(&src, space, graph.SchemeOptions{Pretty: translatePretty || translateRender})
	if err != nil {
		return err
	}

	stats := tr.Stats()
	logging.Translate("Translated %d axioms (%d closed) into %d asserted links", stats.Axioms, stats.ClosedAxioms, n)

	out := cmd.OutOrStdout()
	if !translateRender {
		fmt.Fprint(out, src.String())
		return nil
	}
	rendered, err := renderScheme(fmt.Sprintf("%d axioms, %d closed, %d asserted links", stats.Axioms, stats.ClosedAxioms, n), src.String())
	if err != nil {
		return err
	}
	fmt.Fprint(out, rendered)
	return nil
}
