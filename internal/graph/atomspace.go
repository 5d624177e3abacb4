package graph

import (
	"errors"
	"fmt"
	"sync"
)

// ErrWrongKind is returned when a link type is used to build a node or the
// other way round.
var ErrWrongKind = errors.New("atom type does not match the requested kind")

// Store is the graph store the translator writes into. Both add operations
// are idempotent: identical content yields the identical entity. A non-nil
// truth value replaces the stored one; nil keeps it (DefaultTV for new atoms).
type Store interface {
	AddNode(t Type, name string, tv *TruthValue) (*Node, error)
	AddLink(t Type, outgoing []Atom, tv *TruthValue) (*Link, error)
	// Atoms returns every atom in creation order.
	Atoms() []Atom
	// Links returns every link in creation order.
	Links() []*Link
}

// AtomSpace is the in-memory Store.
type AtomSpace struct {
	mu     sync.RWMutex
	byHash map[string]Atom
	atoms  []Atom
	nodes  int
	links  int
}

// NewAtomSpace creates an empty in-memory store.
func NewAtomSpace() *AtomSpace {
	return &AtomSpace{byHash: make(map[string]Atom)}
}

var _ Store = (*AtomSpace)(nil)

// AddNode returns the node of type t named name, creating it if needed.
func (as *AtomSpace) AddNode(t Type, name string, tv *TruthValue) (*Node, error) {
	if !t.IsNode() {
		return nil, fmt.Errorf("AddNode(%s, %q): %w", t, name, ErrWrongKind)
	}
	hash := nodeHash(t, name)

	as.mu.Lock()
	defer as.mu.Unlock()

	if existing, ok := as.byHash[hash]; ok {
		n := existing.(*Node)
		if tv != nil {
			n.tv = *tv
		}
		return n, nil
	}
	n := &Node{handle: Handle(len(as.atoms) + 1), typ: t, name: name, tv: DefaultTV, hash: hash}
	if tv != nil {
		n.tv = *tv
	}
	as.byHash[hash] = n
	as.atoms = append(as.atoms, n)
	as.nodes++
	return n, nil
}

// AddLink returns the link of type t over outgoing, creating it if needed.
// Every child must already belong to this store.
func (as *AtomSpace) AddLink(t Type, outgoing []Atom, tv *TruthValue) (*Link, error) {
	if !t.IsLink() {
		return nil, fmt.Errorf("AddLink(%s): %w", t, ErrWrongKind)
	}
	for i, a := range outgoing {
		if a == nil {
			return nil, fmt.Errorf("AddLink(%s): child %d is nil", t, i)
		}
	}
	hash := linkHash(t, outgoing)

	as.mu.Lock()
	defer as.mu.Unlock()

	for i, a := range outgoing {
		if as.byHash[a.ContentHash()] != a {
			return nil, fmt.Errorf("AddLink(%s): child %d (%s) belongs to another store", t, i, a.Type())
		}
	}

	if existing, ok := as.byHash[hash]; ok {
		l := existing.(*Link)
		if tv != nil {
			l.tv = *tv
		}
		return l, nil
	}
	out := make([]Atom, len(outgoing))
	copy(out, outgoing)
	l := &Link{handle: Handle(len(as.atoms) + 1), typ: t, outgoing: out, tv: DefaultTV, hash: hash}
	if tv != nil {
		l.tv = *tv
	}
	as.byHash[hash] = l
	as.atoms = append(as.atoms, l)
	as.links++
	return l, nil
}

// Atoms returns every atom in creation order.
func (as *AtomSpace) Atoms() []Atom {
	as.mu.RLock()
	defer as.mu.RUnlock()
	out := make([]Atom, len(as.atoms))
	copy(out, as.atoms)
	return out
}

// Links returns every link in creation order.
func (as *AtomSpace) Links() []*Link {
	as.mu.RLock()
	defer as.mu.RUnlock()
	out := make([]*Link, 0, as.links)
	for _, a := range as.atoms {
		if l, ok := a.(*Link); ok {
			out = append(out, l)
		}
	}
	return out
}

// Lookup finds an atom by content hash.
func (as *AtomSpace) Lookup(hash string) (Atom, bool) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	a, ok := as.byHash[hash]
	return a, ok
}

// Size returns the number of nodes and links.
func (as *AtomSpace) Size() (nodes, links int) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.nodes, as.links
}

// Asserted returns the links of s whose truth value carries evidence,
// i.e. links that were added with an explicit truth value.
func Asserted(s Store) []*Link {
	var out []*Link
	for _, l := range s.Links() {
		if l.TV().Count() > 0 {
			out = append(out, l)
		}
	}
	return out
}

// CountByType tallies atoms per type.
func CountByType(atoms []Atom) map[Type]int {
	counts := make(map[Type]int)
	for _, a := range atoms {
		counts[a.Type()]++
	}
	return counts
}
