package pminimal

import (
	"github.com/xDarkicex/pminimal/encoding"
	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal/varmgr"
)

// dominanceEngine builds assumption sets that
// force the next candidate to dominate a cost tuple, and builds
// permanent or retractable blocking clauses for dominated regions.
// All cost tuples it handles are in internal encoder units.
type dominanceEngine struct {
	objEncs []*objAdapter
	vm      *varmgr.Manager
	oracle  oracle.Oracle
	coarse  bool
}

func newDominanceEngine(objEncs []*objAdapter, vm *varmgr.Manager, o oracle.Oracle, coarse bool) *dominanceEngine {
	return &dominanceEngine{objEncs: objEncs, vm: vm, oracle: o, coarse: coarse}
}

// sink routes clauses emitted while growing an encoder straight into
// the oracle, keeping the append-before-solve ordering rule. Add
// errors are deferred to the next oracle call via err.
func (d *dominanceEngine) sink(err *error) encoding.ClauseSink {
	return func(c oracle.Clause) {
		if e := d.oracle.AddClause(c); e != nil && *err == nil {
			*err = e
		}
	}
}

// growAndEnforce grows objective i's encoder to cover k (and k+1, the
// usual one-step lookahead) then asks it for assumption literals
// certifying internal cost <= k. With coarse convergence on, the
// enforced bound may drop to the tightest supported value below k
// without ever excluding a reachable cost.
func (d *dominanceEngine) growAndEnforce(i, k int) ([]varmgr.Lit, error) {
	a := d.objEncs[i]
	if d.coarse {
		k = a.coarseUBInternal(k)
	}
	var addErr error
	if err := a.encodeUBChangeInternal(k, k+1, d.sink(&addErr), d.vm); err != nil {
		return nil, err
	}
	if addErr != nil {
		return nil, addErr
	}
	lits, err := a.enforceUBInternal(k)
	if err != nil {
		// k >= 0 always holds here; a failing enforce after a
		// successful grow is a broken encoder.
		panic("pminimal: enforce_ub failed inside the dominance engine: " + err.Error())
	}
	return lits, nil
}

// enforceDominating builds the assumption set guaranteeing that any
// satisfying assignment the oracle returns has internal cost <= c
// componentwise.
func (d *dominanceEngine) enforceDominating(c []int) ([]varmgr.Lit, error) {
	var assumps []varmgr.Lit
	for i, ci := range c {
		lits, err := d.growAndEnforce(i, ci)
		if err != nil {
			return nil, err
		}
		assumps = append(assumps, lits...)
	}
	return assumps, nil
}

// tseitinAnd allocates a fresh variable t with t -> (a1 /\ ... /\ an)
// (the implication direction needed to use t in a blocking clause),
// emitting the defining clauses to the oracle, and returns t's
// positive literal.
func (d *dominanceEngine) tseitinAnd(lits []varmgr.Lit) (varmgr.Lit, error) {
	t := d.vm.NewVar().Pos()
	for _, a := range lits {
		if err := d.oracle.AddClause(oracle.Clause{t.Negate(), a}); err != nil {
			return 0, err
		}
	}
	return t, nil
}

// dominatedBlockClause produces a clause equivalent to "some objective
// is strictly below c[i]": the disjunction, over objectives with
// c[i] > 0, of a literal certifying that objective can still improve.
// Objectives already at internal cost 0 cannot improve and are
// skipped.
func (d *dominanceEngine) dominatedBlockClause(c []int) (oracle.Clause, error) {
	var clause oracle.Clause
	for i, ci := range c {
		if ci <= 0 {
			continue
		}
		a := d.objEncs[i]
		var addErr error
		if err := a.encodeUBChangeInternal(ci-1, ci, d.sink(&addErr), d.vm); err != nil {
			return nil, err
		}
		if addErr != nil {
			return nil, addErr
		}
		lits, err := a.enforceUBInternal(ci - 1)
		if err != nil {
			panic("pminimal: enforce_ub failed inside the dominance engine: " + err.Error())
		}
		switch len(lits) {
		case 0:
			// ci-1 < ci <= Max, so a non-constant encoder always
			// returns at least one assumption; constants were skipped
			// at ci == 0. Nothing to block if it happens anyway.
		case 1:
			clause = append(clause, lits[0])
		default:
			t, err := d.tseitinAnd(lits)
			if err != nil {
				return nil, err
			}
			clause = append(clause, t)
		}
	}
	return clause, nil
}

// tmpBlockDominated is dominatedBlockClause augmented with a fresh
// switch variable: the clause (switch ∨ block...) is added
// permanently, and the caller gets back ¬switch, which activates the
// block when passed as an assumption. Adding that same literal as a
// unit later commits the block for good.
func (d *dominanceEngine) tmpBlockDominated(c []int) (varmgr.Lit, error) {
	clause, err := d.dominatedBlockClause(c)
	if err != nil {
		return 0, err
	}
	sw := d.vm.NewVar().Pos()
	withSwitch := append(oracle.Clause{sw}, clause...)
	if err := d.oracle.AddClause(withSwitch); err != nil {
		return 0, err
	}
	return sw.Negate(), nil
}

// blockParetoMcs blocks the current Pareto-minimal correction subset:
// the set of objective literals true under sol. Duplicates are
// removed and a tautological clause is rejected (reported via ok).
func blockParetoMcs(idx *litIndex, sol oracle.Assignment) (clause oracle.Clause, ok bool) {
	var raw oracle.Clause
	for _, l := range sol.Lits() {
		if idx.isObjLit(l) {
			raw = append(raw, l.Negate())
		}
	}
	norm, taut := raw.Normalize()
	if taut {
		return nil, false
	}
	return norm, true
}
