// Package mangle evaluates Datalog over translated graphs with Google
// Mangle. A graph is flattened into base relations (see GraphSchema);
// rule fragments added on top derive further relations that can be
// queried atom by atom.
package mangle

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
	"github.com/google/mangle/unionfind"

	"kifgraph/internal/logging"
)

// Config bounds an engine.
type Config struct {
	MaxFacts     int           // 0 = unbounded
	QueryTimeout time.Duration // applied when the caller sets no deadline
}

// DefaultConfig returns the limits used by the CLI.
func DefaultConfig() Config {
	return Config{
		MaxFacts:     5000000,
		QueryTimeout: 30 * time.Second,
	}
}

// Engine holds a compiled rule program and its fact store.
type Engine struct {
	cfg Config

	mu      sync.RWMutex
	facts   factstore.ConcurrentFactStore
	units   []parse.SourceUnit
	program *analysis.ProgramInfo
	qctx    *mengine.QueryContext
	preds   map[string]ast.PredicateSym
	count   int
}

// Fact is a ground atom with Go-typed arguments: string, int, int64 or
// float64. Strings starting with '/' are Mangle names.
type Fact struct {
	Predicate string
	Args      []interface{}
}

// String renders the fact as a Mangle clause.
func (f Fact) String() string {
	var b strings.Builder
	b.WriteString(f.Predicate)
	b.WriteByte('(')
	for i, arg := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		switch v := arg.(type) {
		case string:
			if strings.HasPrefix(v, "/") {
				b.WriteString(v)
			} else {
				b.WriteString(strconv.Quote(v))
			}
		case int:
			b.WriteString(strconv.Itoa(v))
		case int64:
			b.WriteString(strconv.FormatInt(v, 10))
		case float64:
			b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}
	b.WriteString(").")
	return b.String()
}

// QueryResult holds one row per distinct match, keyed by variable name.
type QueryResult struct {
	Variables []string
	Bindings  []map[string]interface{}
	Duration  time.Duration
}

// NewEngine creates an engine with no rules. Add rules before facts.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:   cfg,
		facts: factstore.NewConcurrentFactStore(factstore.NewSimpleInMemoryStore()),
		preds: make(map[string]ast.PredicateSym),
	}
}

// AddRulesFile reads a Mangle source file and adds it with AddRules.
func (e *Engine) AddRulesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read rules %s: %w", path, err)
	}
	if err := e.AddRules(string(data)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// AddRules compiles src together with every fragment added before it.
// A fragment that fails analysis is discarded. Facts already stored are
// re-evaluated under the new program.
func (e *Engine) AddRules(src string) error {
	unit, err := parse.Unit(strings.NewReader(src))
	if err != nil {
		return fmt.Errorf("failed to parse rules: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	units := append(e.units, unit)
	if err := e.compileLocked(units); err != nil {
		return fmt.Errorf("failed to analyze rules: %w", err)
	}
	e.units = units
	logging.MangleDebug("Program now has %d predicates", len(e.preds))

	if e.count > 0 {
		return e.evaluateLocked()
	}
	return nil
}

func (e *Engine) compileLocked(units []parse.SourceUnit) error {
	var merged parse.SourceUnit
	for _, u := range units {
		merged.Decls = append(merged.Decls, u.Decls...)
		merged.Clauses = append(merged.Clauses, u.Clauses...)
	}
	program, err := analysis.AnalyzeOneUnit(merged, nil)
	if err != nil {
		return err
	}

	preds := make(map[string]ast.PredicateSym, len(program.Decls))
	decls := make(map[ast.PredicateSym]*ast.Decl, len(program.Decls))
	for sym, decl := range program.Decls {
		preds[sym.Symbol] = sym
		decls[sym] = decl
	}
	rules := make(map[ast.PredicateSym][]ast.Clause)
	for _, clause := range program.Rules {
		head := clause.Head.Predicate
		rules[head] = append(rules[head], clause)
	}

	e.program = program
	e.preds = preds
	e.qctx = &mengine.QueryContext{PredToRules: rules, PredToDecl: decls, Store: e.facts}
	return nil
}

// Insert stores facts and evaluates the rules once over the result.
func (e *Engine) Insert(facts ...Fact) error {
	if len(facts) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.program == nil {
		return fmt.Errorf("no rules loaded")
	}
	for _, f := range facts {
		if err := e.insertLocked(f); err != nil {
			return err
		}
	}
	return e.evaluateLocked()
}

// Evaluate runs the rules to a fixpoint over the stored facts.
func (e *Engine) Evaluate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.program == nil {
		return fmt.Errorf("no rules loaded")
	}
	return e.evaluateLocked()
}

func (e *Engine) evaluateLocked() error {
	timer := logging.StartTimer(logging.CategoryMangle, "Evaluate")
	stats, err := mengine.EvalProgramWithStats(e.program, e.facts)
	timer.Stop()
	if err != nil {
		return fmt.Errorf("rule evaluation failed: %w", err)
	}
	logging.MangleDebug("Evaluation stats: %+v", stats)
	return nil
}

func (e *Engine) insertLocked(f Fact) error {
	if e.cfg.MaxFacts > 0 && e.count >= e.cfg.MaxFacts {
		return fmt.Errorf("fact limit of %d reached", e.cfg.MaxFacts)
	}
	sym, ok := e.preds[f.Predicate]
	if !ok {
		return fmt.Errorf("predicate %s is not declared", f.Predicate)
	}
	if len(f.Args) != sym.Arity {
		return fmt.Errorf("%s/%d given %d arguments", f.Predicate, sym.Arity, len(f.Args))
	}

	bounds := declaredBounds(e.qctx.PredToDecl[sym])
	args := make([]ast.BaseTerm, len(f.Args))
	for i, v := range f.Args {
		var bound string
		if i < len(bounds) {
			bound = bounds[i]
		}
		term, err := toConstant(v, bound)
		if err != nil {
			return fmt.Errorf("%s argument %d: %w", f.Predicate, i, err)
		}
		args[i] = term
	}
	if e.facts.Add(ast.Atom{Predicate: sym, Args: args}) {
		e.count++
	}
	return nil
}

// declaredBounds returns the type names of the first bound declaration,
// e.g. ["/number", "/string"].
func declaredBounds(decl *ast.Decl) []string {
	if decl == nil || len(decl.Bounds) == 0 {
		return nil
	}
	names := make([]string, len(decl.Bounds[0].Bounds))
	for i, b := range decl.Bounds[0].Bounds {
		if c, ok := b.(ast.Constant); ok {
			names[i] = c.Symbol
		}
	}
	return names
}

func toConstant(v interface{}, bound string) (ast.BaseTerm, error) {
	switch x := v.(type) {
	case ast.BaseTerm:
		return x, nil
	case string:
		if bound == "/string" || (bound == "" && !strings.HasPrefix(x, "/")) {
			return ast.String(x), nil
		}
		if !strings.HasPrefix(x, "/") {
			x = "/" + x
		}
		return ast.Name(x)
	case int:
		return ast.Number(int64(x)), nil
	case int64:
		return ast.Number(x), nil
	case float64:
		if bound == "/number" {
			return ast.Number(int64(x)), nil
		}
		return ast.Float64(x), nil
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
}

func fromConstant(term ast.BaseTerm) interface{} {
	c, ok := term.(ast.Constant)
	if !ok {
		return fmt.Sprintf("%v", term)
	}
	switch c.Type {
	case ast.StringType, ast.NameType, ast.BytesType:
		return c.Symbol
	case ast.NumberType:
		return c.NumValue
	case ast.Float64Type:
		return math.Float64frombits(uint64(c.NumValue))
	default:
		return c.String()
	}
}

// Query evaluates a single atom such as "operator_of(L, Name)" and returns
// one row per distinct match. "_" arguments are not reported.
func (e *Engine) Query(ctx context.Context, query string) (*QueryResult, error) {
	text := strings.TrimSuffix(strings.TrimSpace(query), ".")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty query")
	}
	goal, err := parse.Atom(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query %q: %w", query, err)
	}

	e.mu.RLock()
	qctx := e.qctx
	e.mu.RUnlock()
	if qctx == nil {
		return nil, fmt.Errorf("no rules loaded")
	}
	decl, ok := qctx.PredToDecl[goal.Predicate]
	if !ok {
		return nil, fmt.Errorf("predicate %s is not declared", goal.Predicate.Symbol)
	}
	modes := decl.Modes()
	if len(modes) == 0 {
		return nil, fmt.Errorf("predicate %s declares no mode", goal.Predicate.Symbol)
	}

	if _, ok := ctx.Deadline(); !ok && e.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.QueryTimeout)
		defer cancel()
	}

	res := &QueryResult{}
	var positions []int
	for i, arg := range goal.Args {
		if v, ok := arg.(ast.Variable); ok && v.Symbol != "_" {
			res.Variables = append(res.Variables, v.Symbol)
			positions = append(positions, i)
		}
	}

	start := time.Now()
	seen := make(map[string]bool)
	err = qctx.EvalQuery(goal, modes[0], unionfind.New(), func(match ast.Atom) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := match.String()
		if seen[key] {
			return nil
		}
		seen[key] = true
		row := make(map[string]interface{}, len(positions))
		for j, pos := range positions {
			row[res.Variables[j]] = fromConstant(match.Args[pos])
		}
		res.Bindings = append(res.Bindings, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query %q failed: %w", query, err)
	}
	res.Duration = time.Since(start)
	logging.MangleDebug("Query %s: %d rows in %v", text, len(res.Bindings), res.Duration)
	return res, nil
}

// Facts returns every stored fact of predicate, derived ones included.
func (e *Engine) Facts(predicate string) ([]Fact, error) {
	e.mu.RLock()
	sym, ok := e.preds[predicate]
	store := e.facts
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("predicate %s is not declared", predicate)
	}

	var out []Fact
	err := store.GetFacts(ast.NewQuery(sym), func(a ast.Atom) error {
		f := Fact{Predicate: predicate, Args: make([]interface{}, len(a.Args))}
		for i, arg := range a.Args {
			f.Args[i] = fromConstant(arg)
		}
		out = append(out, f)
		return nil
	})
	return out, err
}

// Counts returns the number of stored facts per predicate.
func (e *Engine) Counts() map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := make(map[string]int)
	for _, sym := range e.facts.ListPredicates() {
		n := 0
		_ = e.facts.GetFacts(ast.NewQuery(sym), func(ast.Atom) error {
			n++
			return nil
		})
		counts[sym.Symbol] = n
	}
	return counts
}

// Reset drops every fact and keeps the program.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.facts = factstore.NewConcurrentFactStore(factstore.NewSimpleInMemoryStore())
	e.count = 0
	if e.qctx != nil {
		e.qctx.Store = e.facts
	}
}
