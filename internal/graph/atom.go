package graph

import (
	"crypto/sha256"
	"encoding/hex"
)

// Handle identifies an atom within one store. Handles are assigned in
// creation order starting at 1.
type Handle uint64

// Atom is either a *Node or a *Link.
type Atom interface {
	Handle() Handle
	Type() Type
	TV() TruthValue
	// ContentHash is stable across stores and runs.
	ContentHash() string
	isAtom()
}

// Node is a named atom.
type Node struct {
	handle Handle
	typ    Type
	name   string
	tv     TruthValue
	hash   string
}

func (n *Node) Handle() Handle      { return n.handle }
func (n *Node) Type() Type          { return n.typ }
func (n *Node) Name() string        { return n.name }
func (n *Node) TV() TruthValue      { return n.tv }
func (n *Node) ContentHash() string { return n.hash }
func (*Node) isAtom()               {}

// Link is an atom over an ordered list of children.
type Link struct {
	handle   Handle
	typ      Type
	outgoing []Atom
	tv       TruthValue
	hash     string
}

func (l *Link) Handle() Handle      { return l.handle }
func (l *Link) Type() Type          { return l.typ }
func (l *Link) TV() TruthValue      { return l.tv }
func (l *Link) ContentHash() string { return l.hash }
func (*Link) isAtom()               {}

// Outgoing returns the children of the link. The slice must not be modified.
func (l *Link) Outgoing() []Atom { return l.outgoing }

// Arity is the number of children.
func (l *Link) Arity() int { return len(l.outgoing) }

func nodeHash(t Type, name string) string {
	h := sha256.New()
	h.Write([]byte(t.String()))
	h.Write([]byte{0})
	h.Write([]byte(name))
	return hex.EncodeToString(h.Sum(nil))
}

func linkHash(t Type, outgoing []Atom) string {
	h := sha256.New()
	h.Write([]byte(t.String()))
	for _, a := range outgoing {
		h.Write([]byte{0})
		h.Write([]byte(a.ContentHash()))
	}
	return hex.EncodeToString(h.Sum(nil))
}
