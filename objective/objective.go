// Package objective implements the classification and storage of a
// single weighted-literal objective: constant,
// unweighted, or weighted, plus the offset each carries.
package objective

import (
	"errors"
	"sort"

	"github.com/xDarkicex/pminimal/varmgr"
)

// ErrNonPositiveWeight is returned by New when a supplied weight is
// zero or negative.
var ErrNonPositiveWeight = errors.New("objective: weight must be positive")

// Kind tags which of the three objective shapes an Objective holds.
// The three shapes are tagged variants of one type, not an
// inheritance hierarchy: callers switch on Kind rather than type-assert.
type Kind int

const (
	// Constant objectives have no literals; their value is always the
	// offset.
	Constant Kind = iota
	// Unweighted objectives have one or more literals all sharing the
	// same positive weight.
	Unweighted
	// Weighted objectives have literals with differing positive
	// weights.
	Weighted
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "Constant"
	case Unweighted:
		return "Unweighted"
	case Weighted:
		return "Weighted"
	default:
		return "Kind(?)"
	}
}

// WeightedLit pairs an objective literal with its positive weight.
type WeightedLit struct {
	Lit    varmgr.Lit
	Weight int
}

// Objective is one of Constant, Unweighted, or Weighted, normalized at
// construction time: empty
// input is Constant; a single distinct weight across all literals is
// Unweighted; anything else is Weighted. Conversion from raw input to
// one of the three shapes is irreversible.
type Objective struct {
	kind Kind
	// Offset is the signed constant added to the literal sum.
	Offset int
	// UnitWeight is meaningful only when Kind == Unweighted.
	UnitWeight int
	// Lits holds every distinct objective literal contributing to the
	// sum, in Unweighted or Weighted form. Empty for Constant.
	Lits []WeightedLit
}

// New classifies an iterable of (literal, weight) pairs plus an
// offset into an Objective. Literals that repeat have their weights
// summed before classification, since the underlying encoder requires
// unique literals. A zero or negative weight anywhere is rejected.
func New(offset int, pairs []WeightedLit) (Objective, error) {
	merged := make(map[varmgr.Lit]int, len(pairs))
	order := make([]varmgr.Lit, 0, len(pairs))
	for _, p := range pairs {
		if p.Weight <= 0 {
			return Objective{}, ErrNonPositiveWeight
		}
		if _, seen := merged[p.Lit]; !seen {
			order = append(order, p.Lit)
		}
		merged[p.Lit] += p.Weight
	}

	if len(order) == 0 {
		return Objective{kind: Constant, Offset: offset}, nil
	}

	lits := make([]WeightedLit, len(order))
	for i, l := range order {
		lits[i] = WeightedLit{Lit: l, Weight: merged[l]}
	}
	sort.Slice(lits, func(i, j int) bool { return lits[i].Lit < lits[j].Lit })

	unit := lits[0].Weight
	uniform := true
	for _, wl := range lits {
		if wl.Weight != unit {
			uniform = false
			break
		}
	}
	if uniform {
		return Objective{kind: Unweighted, Offset: offset, UnitWeight: unit, Lits: lits}, nil
	}
	return Objective{kind: Weighted, Offset: offset, Lits: lits}, nil
}

// Kind reports which shape this objective was classified as.
func (o Objective) Kind() Kind { return o.kind }

// IsConstant reports whether the objective has no literals.
func (o Objective) IsConstant() bool { return o.kind == Constant }

// Weights returns the plain weight slice parallel to Lits, in the
// same order, for callers that only need a uniform (literal, weight)
// iterator regardless of Kind.
func (o Objective) Weights() []int {
	out := make([]int, len(o.Lits))
	for i, wl := range o.Lits {
		if o.kind == Unweighted {
			out[i] = o.UnitWeight
		} else {
			out[i] = wl.Weight
		}
	}
	return out
}

// LitSlice returns the objective literals alone, in the same order as
// Weights.
func (o Objective) LitSlice() []varmgr.Lit {
	out := make([]varmgr.Lit, len(o.Lits))
	for i, wl := range o.Lits {
		out[i] = wl.Lit
	}
	return out
}

// Value computes the objective's cost under lookup, a function
// reporting whether a literal is true. It is used both by cost
// extraction and by tests checking cost correctness.
func (o Objective) Value(lookup func(varmgr.Lit) bool) int {
	sum := o.Offset
	switch o.kind {
	case Constant:
		return sum
	case Unweighted:
		for _, wl := range o.Lits {
			if lookup(wl.Lit) {
				sum += o.UnitWeight
			}
		}
	case Weighted:
		for _, wl := range o.Lits {
			if lookup(wl.Lit) {
				sum += wl.Weight
			}
		}
	}
	return sum
}
