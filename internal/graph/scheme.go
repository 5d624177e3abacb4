package graph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kifgraph/internal/logging"
)

// SchemeOptions controls Atomese Scheme serialization.
type SchemeOptions struct {
	// Pretty indents children on their own lines. Otherwise each atom is
	// written on a single line.
	Pretty bool
}

// Scheme renders one atom (and everything below it) in Atomese notation.
func Scheme(a Atom, opts SchemeOptions) string {
	var b strings.Builder
	writeAtom(&b, a, 0, opts.Pretty)
	return b.String()
}

// WriteScheme writes each atom followed by a newline.
func WriteScheme(w io.Writer, atoms []Atom, opts SchemeOptions) error {
	bw := bufio.NewWriter(w)
	for _, a := range atoms {
		if _, err := bw.WriteString(Scheme(a, opts)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteAsserted writes the asserted links of s, which is what the batch
// export emits.
func WriteAsserted(w io.Writer, s Store, opts SchemeOptions) (int, error) {
	links := Asserted(s)
	atoms := make([]Atom, len(links))
	for i, l := range links {
		atoms[i] = l
	}
	if err := WriteScheme(w, atoms, opts); err != nil {
		return 0, fmt.Errorf("failed to write scheme: %w", err)
	}
	logging.GraphDebug("Wrote %d asserted links", len(links))
	return len(links), nil
}

func writeAtom(b *strings.Builder, a Atom, depth int, pretty bool) {
	indent := ""
	if pretty {
		indent = strings.Repeat("  ", depth)
	}
	b.WriteString(indent)
	b.WriteByte('(')
	b.WriteString(a.Type().String())

	switch v := a.(type) {
	case *Node:
		b.WriteByte(' ')
		b.WriteString(quote(v.name))
		if !v.tv.IsDefault() {
			b.WriteByte(' ')
			b.WriteString(v.tv.String())
		}
		b.WriteByte(')')
	case *Link:
		if !v.tv.IsDefault() {
			b.WriteByte(' ')
			b.WriteString(v.tv.String())
		}
		for _, child := range v.outgoing {
			if pretty {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
			writeAtom(b, child, depth+1, pretty)
		}
		if pretty && len(v.outgoing) > 0 {
			b.WriteByte('\n')
			b.WriteString(indent)
		}
		b.WriteByte(')')
	}
}

// schemeEscaper keeps every serialized atom on one line.
var schemeEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func quote(s string) string {
	return `"` + schemeEscaper.Replace(s) + `"`
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
