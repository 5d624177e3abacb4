package graph

import "fmt"

// TruthValue is a (strength, confidence) pair.
type TruthValue struct {
	Strength   float64
	Confidence float64
}

// countK is the personality parameter relating confidence to count.
const countK = 800.0

// maxConfidence keeps Count finite for fully confident values.
const maxConfidence = 0.9999998

var (
	// NodeTV is attached to every symbol node.
	NodeTV = TruthValue{Strength: 0.01, Confidence: 1}
	// LinkTV is attached to asserted top-level links.
	LinkTV = TruthValue{Strength: 1, Confidence: 1}
	// PredicateTV is attached to operator nodes of applied forms.
	PredicateTV = TruthValue{Strength: 0.1, Confidence: 1}
	// DefaultTV is what the store records when no value is supplied.
	DefaultTV = TruthValue{Strength: 1, Confidence: 0}
)

// Count is the confidence-weighted evidence count. Zero confidence means
// the value carries no evidence at all.
func (tv TruthValue) Count() float64 {
	c := tv.Confidence
	if c <= 0 {
		return 0
	}
	if c > maxConfidence {
		c = maxConfidence
	}
	return countK * c / (1 - c)
}

// IsDefault reports whether tv equals the store default.
func (tv TruthValue) IsDefault() bool { return tv == DefaultTV }

func (tv TruthValue) String() string {
	return fmt.Sprintf("(stv %s %s)", formatFloat(tv.Strength), formatFloat(tv.Confidence))
}
