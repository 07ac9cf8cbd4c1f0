package pminimal

import (
	"github.com/xDarkicex/pminimal/encoding"
	"github.com/xDarkicex/pminimal/objective"
	"github.com/xDarkicex/pminimal/varmgr"
)

// objAdapter wraps an incremental upper-bound
// encoder and translates between external (offset-adjusted,
// unit-weighted) cost and the encoder's internal cost units. The
// search loop itself runs entirely in internal units; externalization
// happens when a Pareto point is recorded and in the external
// conversion API below.
type objAdapter struct {
	obj objective.Objective
	enc encoding.Encoder // nil for Constant objectives
}

func pickEncoderKind(kind EncoderKind, obj objective.Objective) EncoderKind {
	if kind != EncoderAuto {
		return kind
	}
	if obj.Kind() == objective.Weighted {
		return EncoderPseudoBoolean
	}
	return EncoderCardinality
}

func newObjAdapter(spec ObjectiveSpec, obj objective.Objective) *objAdapter {
	if obj.IsConstant() {
		return &objAdapter{obj: obj}
	}
	kind := pickEncoderKind(spec.Kind, obj)
	var enc encoding.Encoder
	switch kind {
	case EncoderPseudoBoolean:
		weights := obj.Weights()
		if obj.Kind() == objective.Unweighted {
			// Internal units of an unweighted objective are literal
			// counts, matching pairs().
			for i := range weights {
				weights[i] = 1
			}
		}
		enc = encoding.NewSeqWeightCounter(obj.LitSlice(), weights)
	default:
		enc = encoding.NewSeqCounter(obj.LitSlice())
	}
	return &objAdapter{obj: obj, enc: enc}
}

// pairs returns the unified (objective literal, internal weight)
// iterator over the encoding: weight 1 per literal for unweighted
// objectives, the real weight for weighted ones, nothing for
// constants. The internal cost of a model is the sum over its true
// literals.
func (a *objAdapter) pairs() []objective.WeightedLit {
	if a.obj.IsConstant() {
		return nil
	}
	out := make([]objective.WeightedLit, len(a.obj.Lits))
	for i, wl := range a.obj.Lits {
		w := wl.Weight
		if a.obj.Kind() == objective.Unweighted {
			w = 1
		}
		out[i] = objective.WeightedLit{Lit: wl.Lit, Weight: w}
	}
	return out
}

// externalToInternal converts an external cost to the encoder's
// internal units, clamping at zero. ok is false only for Constant
// objectives, where there is no internal space to map into.
func (a *objAdapter) externalToInternal(ext int) (internal int, ok bool) {
	if a.obj.IsConstant() {
		return 0, false
	}
	var raw int
	if a.obj.Kind() == objective.Unweighted {
		raw = (ext - a.obj.Offset) / a.obj.UnitWeight
	} else {
		raw = ext - a.obj.Offset
	}
	if raw < 0 {
		raw = 0
	}
	return raw, true
}

// internalToExternal applies the offset (and, for unweighted
// objectives, the unit-weight multiplier) to an internal cost.
func (a *objAdapter) internalToExternal(internal int) int {
	if a.obj.Kind() == objective.Unweighted {
		return a.obj.Offset + internal*a.obj.UnitWeight
	}
	return a.obj.Offset + internal
}

// reserve pre-allocates the encoder's auxiliary variables up front.
func (a *objAdapter) reserve(vm *varmgr.Manager) {
	if a.enc != nil {
		a.enc.Reserve(vm)
	}
}

// encodeUBChangeInternal grows the encoder so EnforceUB succeeds for
// any internal cost in [lo, hi]. Constant objectives are a no-op.
func (a *objAdapter) encodeUBChangeInternal(lo, hi int, sink encoding.ClauseSink, vm *varmgr.Manager) error {
	if a.obj.IsConstant() {
		return nil
	}
	return a.enc.EncodeUBChange(encoding.Range{Lo: lo, Hi: hi}, sink, vm)
}

// enforceUBInternal returns assumption literals constraining this
// objective's internal cost to <= k. Constant objectives always
// succeed with no assumptions.
func (a *objAdapter) enforceUBInternal(k int) ([]varmgr.Lit, error) {
	if a.obj.IsConstant() {
		return nil, nil
	}
	return a.enc.EnforceUB(k)
}

// coarseUBInternal returns the tightest internal bound <= k the
// encoder supports, skipping values it knows to be unreachable.
func (a *objAdapter) coarseUBInternal(k int) int {
	if a.obj.IsConstant() {
		return k
	}
	return a.enc.CoarseUB(k)
}

// encodeUBChange is the external-unit counterpart of
// encodeUBChangeInternal: bounds are translated through the offset
// (and unit weight), clamping at zero.
func (a *objAdapter) encodeUBChange(lo, hi int, sink encoding.ClauseSink, vm *varmgr.Manager) error {
	if a.obj.IsConstant() {
		return nil
	}
	loInt, _ := a.externalToInternal(lo)
	hiInt, _ := a.externalToInternal(hi)
	return a.enc.EncodeUBChange(encoding.Range{Lo: loInt, Hi: hiInt}, sink, vm)
}

// enforceUB returns assumption literals constraining this objective's
// cost to <= k (external units). Constant objectives succeed with no
// assumptions whenever k covers the offset; any external k below the
// offset is Unsat before the oracle is ever involved.
func (a *objAdapter) enforceUB(k int) ([]varmgr.Lit, error) {
	if k < a.obj.Offset {
		return nil, encoding.ErrUnsat
	}
	if a.obj.IsConstant() {
		return nil, nil
	}
	internal, _ := a.externalToInternal(k)
	return a.enc.EnforceUB(internal)
}

// nextHigher returns the smallest representable external cost
// strictly greater than k.
func (a *objAdapter) nextHigher(k int) int {
	if a.obj.IsConstant() {
		return k + 1
	}
	internal, _ := a.externalToInternal(k)
	return a.internalToExternal(a.enc.NextHigher(internal))
}

// encodingStats reports the extended-statistics facet for this
// objective's encoding.
func (a *objAdapter) encodingStats() EncodingStats {
	st := EncodingStats{Offset: a.obj.Offset}
	if a.obj.Kind() == objective.Unweighted {
		uw := a.obj.UnitWeight
		st.UnitWeight = &uw
	}
	if a.enc != nil {
		st.NClauses = a.enc.NClauses()
		st.NVars = a.enc.NVars()
	}
	return st
}

// value computes this objective's external cost under lookup.
func (a *objAdapter) value(lookup func(varmgr.Lit) bool) int {
	return a.obj.Value(lookup)
}
