// Package encoding implements the incremental upper-bound encoders the
// objective adapter grows on demand: a cardinality flavor (SeqCounter)
// and a pseudo-Boolean flavor (SeqWeightCounter), both built as
// one-directional Sinz-style sequential counters. Only the
// implication direction "enough true literals forces the register
// true" is encoded, which is sufficient for upper-bound assumptions
// and deliberately omits the reverse direction needed for lower-bound
// reasoning (out of scope for this solver).
package encoding

import (
	"errors"

	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal/varmgr"
)

// ErrUnsat is returned by EnforceUB when the requested bound is below
// the encoder's representable minimum (always 0 here).
var ErrUnsat = errors.New("encoding: requested upper bound is unsatisfiable")

// Range is an inclusive span of internal-cost values [Lo, Hi] the
// caller wants upper-bound support for.
type Range struct {
	Lo, Hi int
}

// ClauseSink receives clauses emitted while growing an encoder.
type ClauseSink func(oracle.Clause)

// Encoder is the incremental upper-bound gadget contract shared by the
// cardinality and pseudo-Boolean flavors. encode_ub_change must be
// idempotent on already-covered subranges; enforce_ub must fail with
// ErrUnsat when k is below the encoder's minimum (always 0).
type Encoder interface {
	// Reserve pre-allocates every auxiliary variable the encoder could
	// ever need, so later variable IDs never interleave with it.
	Reserve(vm *varmgr.Manager)
	// EncodeUBChange emits the clauses needed to support EnforceUB for
	// any k in r, growing the table past whatever was already built.
	EncodeUBChange(r Range, sink ClauseSink, vm *varmgr.Manager) error
	// EnforceUB returns assumption literals such that a model
	// satisfying them has weighted true-count <= k.
	EnforceUB(k int) ([]varmgr.Lit, error)
	// NextHigher returns the smallest representable internal value
	// strictly greater than k.
	NextHigher(k int) int
	// CoarseUB returns the largest value <= k that the encoder treats
	// as reachable, clamped to 0..Max. Enforcing that value
	// instead of k skips provably unreachable intermediate costs; for
	// the dense counters in this package every value is reachable and
	// CoarseUB is the identity on 0..Max.
	CoarseUB(k int) int
	// Max returns the largest internal cost the encoder can certify
	// (the sum of all weights, or the literal count for cardinality).
	Max() int
	// NClauses returns how many clauses the encoder has emitted so
	// far.
	NClauses() int
	// NVars returns how many auxiliary variables the encoder has
	// allocated so far.
	NVars() int
}
