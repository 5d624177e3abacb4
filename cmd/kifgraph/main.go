// Package main implements the kifgraph CLI: it compiles SUMO/KIF axioms
// into an Atomese hypergraph and exports, persists, queries and watches
// the result.
//
// Usage:
//
//	kifgraph convert Merge.kif Mid-level-ontology.kif --symbols sumo.types
//	kifgraph translate '(=> (instance ?x Dog) (attribute ?x Loyal))'
//	kifgraph query Merge.kif 'operator_of(L, Name)'
//	kifgraph watch ./ontology
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kifgraph/internal/config"
	"kifgraph/internal/logging"
	"kifgraph/internal/symtab"
)

var (
	// Global flags
	cfgPath     string
	symbolsPath string
	verbose     bool

	// Resolved in PersistentPreRunE
	cfg     *config.Config
	symbols *symtab.Table
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kifgraph",
	Short: "kifgraph - SUMO/KIF to Atomese hypergraph compiler",
	Long: `kifgraph translates first-order KIF axioms, as used by the SUMO
ontology, into a typed hypergraph of nodes and links (Atomese).

Every top-level axiom becomes an asserted link; free variables are
closed by universal quantification. The graph is written as Scheme,
exported as Mangle facts, or persisted to SQLite.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if symbolsPath != "" {
			cfg.Symbols = symbolsPath
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logCfg := logging.Config{
			Level:      cfg.Logging.Level,
			Format:     cfg.Logging.Format,
			File:       cfg.Logging.File,
			Categories: cfg.Logging.Categories,
		}
		if verbose {
			logCfg.Level = "debug"
		}
		logger, err = logging.NewZapLogger(logCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Initialize(logger, logCfg)
		logging.BootDebug("Config loaded from %s", cfgPath)

		if cfg.Symbols == "" {
			symbols = symtab.New()
			return nil
		}
		symbols, err = symtab.Load(cfg.Symbols)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().StringVarP(&symbolsPath, "symbols", "s", "", "Symbol type table (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(freevarsCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(dumpCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
