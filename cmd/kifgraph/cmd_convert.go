package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"kifgraph/internal/config"
	"kifgraph/internal/pipeline"
	"kifgraph/internal/store"
)

var (
	convertOutDir  string
	convertFormat  string
	convertDB      string
	convertPretty  bool
	convertWorkers int
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE...",
	Short: "Translate KIF files into Atomese",
	Long: `Parses each KIF file, translates every axiom into a fresh graph and
writes the asserted links next to the input (Merge.kif -> Merge.scm), or
into --out-dir. With --format mangle or both, a self-contained Mangle
program (Merge.mg) is written as well. With --db the graphs are also
persisted to SQLite.

Files are converted in parallel; the first failure stops the run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutDir, "out-dir", "o", "", "Output directory (default: next to each input)")
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "", "Output format: scheme, mangle or both")
	convertCmd.Flags().StringVar(&convertDB, "db", "", "Persist graphs to this SQLite database")
	convertCmd.Flags().BoolVar(&convertPretty, "pretty", false, "Indent Scheme output")
	convertCmd.Flags().IntVarP(&convertWorkers, "workers", "j", 0, "Files converted concurrently")
}

func runConvert(cmd *cobra.Command, args []string) error {
	opts := pipeline.Options{
		OutDir:  cfg.Output.Dir,
		Format:  cfg.Output.Format,
		Pretty:  cfg.Output.Pretty || convertPretty,
		Workers: cfg.Pipeline.Workers,
	}
	if convertOutDir != "" {
		opts.OutDir = convertOutDir
	}
	if convertFormat != "" {
		switch convertFormat {
		case config.FormatScheme, config.FormatMangle, config.FormatBoth:
			opts.Format = convertFormat
		default:
			return fmt.Errorf("unknown format %q (want scheme, mangle or both)", convertFormat)
		}
	}
	if convertWorkers > 0 {
		opts.Workers = convertWorkers
	}

	dbPath := cfg.Store.Path
	if convertDB != "" {
		dbPath = convertDB
	}
	if dbPath != "" {
		db, err := store.Open(dbPath, cfg.Store.Driver)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Store = db
	}

	im := pipeline.New(symbols, opts)
	results, err := im.Run(cmd.Context(), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var rows [][]string
	var axioms, asserted int
	for _, res := range results {
		axioms += res.Axioms
		asserted += res.Asserted
		for _, path := range res.Outputs {
			rows = append(rows, []string{
				path,
				strconv.Itoa(res.Axioms),
				strconv.Itoa(res.Nodes),
				strconv.Itoa(res.Links),
				strconv.Itoa(res.Asserted),
				res.Duration.Round(time.Millisecond).String(),
			})
		}
	}
	printTitle(out, "Converted %d files", len(results))
	fmt.Fprintln(out, renderTable([]string{"Output", "Axioms", "Nodes", "Links", "Asserted", "Time"}, rows))
	printNote(out, "run %s: %d axioms, %d asserted links", im.RunID(), axioms, asserted)
	if dbPath != "" {
		printNote(out, "persisted to %s", dbPath)
	}
	return nil
}
