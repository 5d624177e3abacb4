// Package pipeline runs batch imports: every input KIF file is parsed,
// translated into its own graph and written out as Atomese Scheme and/or
// Mangle facts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"kifgraph/internal/config"
	"kifgraph/internal/graph"
	"kifgraph/internal/kif"
	"kifgraph/internal/logging"
	"kifgraph/internal/mangle"
	"kifgraph/internal/store"
	"kifgraph/internal/symtab"
	"kifgraph/internal/translate"
)

// Output file extensions.
const (
	SchemeExt = ".scm"
	MangleExt = ".mg"
)

// ErrOutputConflict reports an output file that would overwrite an input
// or another output of the same run.
var ErrOutputConflict = errors.New("output path conflict")

// Options configures an Importer.
type Options struct {
	OutDir  string // empty = next to each input
	Format  string // config.FormatScheme, FormatMangle or FormatBoth
	Pretty  bool
	Workers int
	// Store, when set, receives every translated graph.
	Store *store.Store
}

// FileResult describes one converted file.
type FileResult struct {
	Input    string
	Outputs  []string
	Axioms   int
	Nodes    int
	Links    int
	Asserted int
	Stats    translate.Stats
	Duration time.Duration
}

// Importer is one batch run. Each run has its own id, attached to every
// log entry it produces.
type Importer struct {
	symbols symtab.Resolver
	opts    Options
	runID   string
	log     *logging.Logger
}

// New creates an importer that resolves symbols through symbols.
func New(symbols symtab.Resolver, opts Options) *Importer {
	if opts.Format == "" {
		opts.Format = config.FormatScheme
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	runID := uuid.NewString()
	return &Importer{
		symbols: symbols,
		opts:    opts,
		runID:   runID,
		log:     logging.WithRun(logging.CategoryPipeline, runID),
	}
}

// RunID returns the run identifier.
func (im *Importer) RunID() string { return im.runID }

// OutputPath derives the output file for input: a trailing ".kif.tq" or
// ".kif" is replaced by ext, any other extension likewise. A non-empty
// outDir replaces the input's directory.
func OutputPath(input, outDir, ext string) string {
	base := input
	switch {
	case strings.HasSuffix(base, ".kif.tq"):
		base = strings.TrimSuffix(base, ".kif.tq") + ext
	case strings.HasSuffix(base, ".kif"):
		base = strings.TrimSuffix(base, ".kif") + ext
	default:
		base = strings.TrimSuffix(base, filepath.Ext(base)) + ext
	}
	if outDir != "" {
		base = filepath.Join(outDir, filepath.Base(base))
	}
	return base
}

// outputs lists the files ConvertFile writes for input.
func (im *Importer) outputs(input string) []string {
	var outs []string
	if im.opts.Format == config.FormatScheme || im.opts.Format == config.FormatBoth {
		outs = append(outs, OutputPath(input, im.opts.OutDir, SchemeExt))
	}
	if im.opts.Format == config.FormatMangle || im.opts.Format == config.FormatBoth {
		outs = append(outs, OutputPath(input, im.opts.OutDir, MangleExt))
	}
	return outs
}

func pathKey(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// checkOutputs rejects a run in which an output lands on one of the inputs
// or two inputs share an output file.
func (im *Importer) checkOutputs(paths []string) error {
	inputs := make(map[string]string, len(paths))
	for _, p := range paths {
		inputs[pathKey(p)] = p
	}
	owners := make(map[string]string)
	for _, p := range paths {
		for _, out := range im.outputs(p) {
			key := pathKey(out)
			if in, ok := inputs[key]; ok {
				return fmt.Errorf("%w: %s would overwrite input %s", ErrOutputConflict, out, in)
			}
			if prev, ok := owners[key]; ok {
				return fmt.Errorf("%w: %s and %s both write %s", ErrOutputConflict, prev, p, out)
			}
			owners[key] = p
		}
	}
	return nil
}

// TranslateFile parses path and translates every axiom into a fresh
// AtomSpace. Any failure aborts the file.
func TranslateFile(path string, symbols symtab.Resolver) (*graph.AtomSpace, translate.Stats, error) {
	exprs, err := kif.ParseFile(path)
	if err != nil {
		return nil, translate.Stats{}, err
	}
	space := graph.NewAtomSpace()
	tr := translate.New(space, symbols)
	if _, err := tr.TranslateAll(exprs); err != nil {
		return nil, tr.Stats(), fmt.Errorf("%s: %w", path, err)
	}
	return space, tr.Stats(), nil
}

// ConvertFile translates one file and writes its outputs.
func (im *Importer) ConvertFile(ctx context.Context, path string) (*FileResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := im.checkOutputs([]string{path}); err != nil {
		return nil, err
	}

	space, stats, err := TranslateFile(path, im.symbols)
	if err != nil {
		return nil, err
	}

	res := &FileResult{Input: path, Axioms: stats.Axioms, Stats: stats}
	res.Nodes, res.Links = space.Size()

	if im.opts.Format == config.FormatScheme || im.opts.Format == config.FormatBoth {
		out := OutputPath(path, im.opts.OutDir, SchemeExt)
		n, err := writeFile(out, func(f *os.File) (int, error) {
			return graph.WriteAsserted(f, space, graph.SchemeOptions{Pretty: im.opts.Pretty})
		})
		if err != nil {
			return nil, err
		}
		res.Asserted = n
		res.Outputs = append(res.Outputs, out)
	}
	if im.opts.Format == config.FormatMangle || im.opts.Format == config.FormatBoth {
		out := OutputPath(path, im.opts.OutDir, MangleExt)
		if _, err := writeFile(out, func(f *os.File) (int, error) {
			return mangle.WriteFacts(f, filepath.Base(path), space.Atoms())
		}); err != nil {
			return nil, err
		}
		res.Outputs = append(res.Outputs, out)
	}
	if res.Asserted == 0 {
		res.Asserted = len(graph.Asserted(space))
	}

	if im.opts.Store != nil {
		if _, err := im.opts.Store.SaveGraph(ctx, path, space.Atoms()); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	res.Duration = time.Since(start)
	im.log.Info("Converted %s: %d axioms, %d nodes, %d links in %v", path, res.Axioms, res.Nodes, res.Links, res.Duration)
	return res, nil
}

func writeFile(path string, write func(*os.File) (int, error)) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	n, err := write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return n, nil
}

// Run converts paths with at most Options.Workers files in flight. The
// first failure cancels the files not yet started and is returned.
// Results are in input order; entries for files that did not finish are nil.
// Output collisions are detected before any file is converted.
func (im *Importer) Run(ctx context.Context, paths []string) ([]*FileResult, error) {
	timer := logging.StartTimer(logging.CategoryPipeline, "Run")
	defer timer.StopWithInfo()

	if err := im.checkOutputs(paths); err != nil {
		im.log.Error("Run rejected: %v", err)
		return nil, err
	}

	im.log.Info("Starting run over %d files with %d workers", len(paths), im.opts.Workers)

	results := make([]*FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.Workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res, err := im.ConvertFile(gctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		im.log.Error("Run failed: %v", err)
		return results, err
	}
	return results, nil
}
