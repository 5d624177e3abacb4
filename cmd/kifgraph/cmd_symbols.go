package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"kifgraph/internal/kif"
	"kifgraph/internal/logging"
	"kifgraph/internal/symtab"
)

var inferOut string

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Inspect and build symbol type tables",
}

var symbolsInferCmd = &cobra.Command{
	Use:   "infer FILE...",
	Short: "Derive a symbol type table from KIF declarations",
	Long: `Reads instance, subrelation, domain and range declarations from the
given KIF files and writes a table mapping each relation to its node
type. The output can be passed back through --symbols.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSymbolsInfer,
}

var symbolsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the loaded symbol table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := symbols.WriteTo(cmd.OutOrStdout())
		return err
	},
}

func init() {
	symbolsInferCmd.Flags().StringVarP(&inferOut, "output", "o", "", "Write the table to this file instead of stdout")
	symbolsCmd.AddCommand(symbolsInferCmd)
	symbolsCmd.AddCommand(symbolsShowCmd)
}

func runSymbolsInfer(cmd *cobra.Command, args []string) error {
	var all []kif.Expr
	for _, path := range args {
		exprs, err := kif.ParseFile(path)
		if err != nil {
			return err
		}
		all = append(all, exprs...)
	}
	tbl := symtab.Infer(all)
	logging.Boot("Inferred %d symbol roles from %d expressions", tbl.Len(), len(all))

	var w io.Writer = cmd.OutOrStdout()
	if inferOut != "" {
		f, err := os.Create(inferOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", inferOut, err)
		}
		defer f.Close()
		w = f
	}
	if _, err := tbl.WriteTo(w); err != nil {
		return err
	}
	if inferOut != "" {
		printNote(cmd.OutOrStdout(), "wrote %d symbols to %s", tbl.Len(), inferOut)
	}
	return nil
}
