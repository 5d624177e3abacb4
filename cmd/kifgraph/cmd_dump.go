package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kifgraph/internal/graph"
	"kifgraph/internal/store"
)

var (
	dumpDB     string
	dumpPretty bool
	dumpStats  bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print a persisted graph as Scheme",
	Long: `Reloads every atom stored in the SQLite database and prints the
asserted links. With --stats only the archive summary is shown.`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpDB, "db", "", "SQLite database (default: store.path from config)")
	dumpCmd.Flags().BoolVar(&dumpPretty, "pretty", false, "Indent nested links")
	dumpCmd.Flags().BoolVar(&dumpStats, "stats", false, "Print archive statistics instead of atoms")
}

func runDump(cmd *cobra.Command, args []string) error {
	path := cfg.Store.Path
	if dumpDB != "" {
		path = dumpDB
	}
	if path == "" {
		return fmt.Errorf("no database given: use --db or set store.path")
	}
	db, err := store.Open(path, cfg.Store.Driver)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if dumpStats {
		st, err := db.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Nodes", "Links", "Asserted", "Sources"},
			[][]string{{fmt.Sprint(st.Nodes), fmt.Sprint(st.Links), fmt.Sprint(st.Asserted), fmt.Sprint(st.Sources)}},
		))
		return nil
	}

	space := graph.NewAtomSpace()
	if _, err := db.LoadGraph(cmd.Context(), space); err != nil {
		return err
	}
	_, err = graph.WriteAsserted(out, space, graph.SchemeOptions{Pretty: dumpPretty})
	return err
}
