// Package symtab holds the symbol type table: the semantic role of every
// known KIF symbol. Unknown symbols resolve to RoleConcept.
package symtab

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"kifgraph/internal/graph"
	"kifgraph/internal/logging"
)

// Role is the semantic category of a symbol.
type Role int

const (
	RoleConcept Role = iota
	RolePredicate
	RoleSchema
)

// Roles lists every role.
var Roles = []Role{RoleConcept, RolePredicate, RoleSchema}

func (r Role) String() string {
	switch r {
	case RolePredicate:
		return "Predicate"
	case RoleSchema:
		return "Schema"
	default:
		return "Concept"
	}
}

// NodeType is the graph node type that represents a symbol of this role.
func (r Role) NodeType() graph.Type {
	switch r {
	case RolePredicate:
		return graph.PredicateNode
	case RoleSchema:
		return graph.SchemaNode
	default:
		return graph.ConceptNode
	}
}

// ParseRole accepts the node type name ("PredicateNode") or the bare role
// name in any case ("predicate").
func ParseRole(name string) (Role, error) {
	switch strings.ToLower(strings.TrimSuffix(name, "Node")) {
	case "concept":
		return RoleConcept, nil
	case "predicate":
		return RolePredicate, nil
	case "schema":
		return RoleSchema, nil
	}
	return RoleConcept, fmt.Errorf("unknown role %q", name)
}

// Resolver is the read-only view the translator needs.
type Resolver interface {
	Resolve(symbol string) Role
}

// Table maps symbol names to roles. The zero value is an empty table.
type Table struct {
	roles map[string]Role
}

// New creates an empty table.
func New() *Table {
	return &Table{roles: make(map[string]Role)}
}

// Resolve returns the role of symbol, RoleConcept when unmapped.
func (t *Table) Resolve(symbol string) Role {
	if t == nil {
		return RoleConcept
	}
	if r, ok := t.roles[symbol]; ok {
		return r
	}
	return RoleConcept
}

// Lookup returns the role and whether the symbol is mapped.
func (t *Table) Lookup(symbol string) (Role, bool) {
	if t == nil {
		return RoleConcept, false
	}
	r, ok := t.roles[symbol]
	return r, ok
}

// Set maps symbol to role.
func (t *Table) Set(symbol string, role Role) {
	if t.roles == nil {
		t.roles = make(map[string]Role)
	}
	t.roles[symbol] = role
}

// Len returns the number of mapped symbols.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.roles)
}

// Symbols returns the mapped symbols in sorted order.
func (t *Table) Symbols() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.roles))
	for s := range t.roles {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// LineError reports a malformed table record. Any LineError aborts the load.
type LineError struct {
	File string
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	loc := fmt.Sprintf("line %d", e.Line)
	if e.File != "" {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	return fmt.Sprintf("%s: %q: %v", loc, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Load reads a table file.
func Load(path string) (*Table, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "symtab.Load")
	defer timer.Stop()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open symbol table: %w", err)
	}
	defer f.Close()

	t, err := parse(path, f)
	if err != nil {
		return nil, err
	}
	logging.Boot("Loaded %d symbol roles from %s", t.Len(), path)
	return t, nil
}

// Parse reads records of the form "<symbol> <role>", one per line. Blank
// lines and lines starting with ';' or '#' are ignored. Extra fields are
// ignored.
func Parse(r io.Reader) (*Table, error) {
	return parse("", r)
}

func parse(file string, r io.Reader) (*Table, error) {
	t := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, ";") || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, &LineError{File: file, Line: line, Text: text, Err: fmt.Errorf("missing role field")}
		}
		role, err := ParseRole(fields[1])
		if err != nil {
			return nil, &LineError{File: file, Line: line, Text: text, Err: err}
		}
		t.Set(fields[0], role)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read symbol table: %w", err)
	}
	return t, nil
}

// WriteTo writes the table in the format Parse reads, sorted by symbol.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, s := range t.Symbols() {
		n, err := fmt.Fprintf(bw, "%s %s\n", s, t.roles[s].NodeType())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}
