package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"kifgraph/internal/logging"
	"kifgraph/internal/pipeline"
	"kifgraph/internal/store"
	"kifgraph/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch DIR...",
	Short: "Re-convert KIF files as they change",
	Long: `Watches the given directories and converts every .kif or .kif.tq
file once its writes settle, using the output settings from the config
file. Runs until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts := pipeline.Options{
		OutDir:  cfg.Output.Dir,
		Format:  cfg.Output.Format,
		Pretty:  cfg.Output.Pretty,
		Workers: 1,
	}
	if cfg.Store.Path != "" {
		db, err := store.Open(cfg.Store.Path, cfg.Store.Driver)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Store = db
	}
	im := pipeline.New(symbols, opts)

	out := cmd.OutOrStdout()
	w, err := watch.New(args, cfg.DebounceDuration(), func(ctx context.Context, path string) error {
		res, err := im.ConvertFile(ctx, path)
		if err != nil {
			return err
		}
		printNote(out, "%s: %d axioms -> %v", path, res.Axioms, res.Outputs)
		return nil
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := w.Start(ctx); err != nil {
		return err
	}
	printTitle(out, "Watching %d directories (Ctrl+C to stop)", len(args))
	<-ctx.Done()
	w.Stop()

	st := w.Stats()
	logging.Watch("Watch finished: %d events, %d conversions, %d errors", st.Events, st.Triggered, st.Errors)
	fmt.Fprintf(out, "%d conversions, %d errors\n", st.Triggered, st.Errors)
	return nil
}
