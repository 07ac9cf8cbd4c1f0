package pminimal

import (
	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal/varmgr"
)

// solutionAndInternalCosts extracts the oracle's model and computes
// the internal cost of every objective, running the heuristic
// improvement pass where the current phase enables it.
func (s *Solver) solutionAndInternalCosts(phase SearchPhase) ([]int, oracle.Assignment, error) {
	mv, ok := s.vm.MaxVar()
	if !ok {
		panic("pminimal: cost extraction without any variables")
	}
	sol, err := s.oracle.Solution(mv)
	if err != nil {
		return nil, oracle.Assignment{}, err
	}
	tightening := s.opts.TighteningPhases.Has(phase)
	learning := s.opts.LearningPhases.Has(phase)
	costs := make([]int, len(s.objEncs))
	for i := range s.objEncs {
		c, err := s.costWithHeuristicImprovements(i, sol, tightening, learning)
		if err != nil {
			return nil, oracle.Assignment{}, err
		}
		costs[i] = c
	}
	return costs, sol, nil
}

// costWithHeuristicImprovements walks one objective's literals over
// the candidate. A true literal whose negation is not itself an
// objective literal may be flipped to false when a flip witness
// exists; with learning on, the witness also yields a clause that is
// added to the oracle permanently after the scan. The returned
// internal cost matches the (possibly modified) candidate and never
// exceeds the original candidate's cost.
func (s *Solver) costWithHeuristicImprovements(objIdx int, sol oracle.Assignment, tightening, learning bool) (int, error) {
	cost := 0
	reduction := 0
	var learned []oracle.Clause
	for _, wl := range s.objEncs[objIdx].pairs() {
		if sol.LitValue(wl.Lit) != oracle.True {
			continue
		}
		if (tightening || learning) && !s.idx.isObjLit(wl.Lit.Negate()) {
			if witness, ok := s.findFlipWitness(wl.Lit, sol); ok {
				if learning {
					cl := make(oracle.Clause, 0, len(witness)+1)
					for _, v := range witness {
						cl = append(cl, v.Negate())
					}
					cl = append(cl, wl.Lit.Negate())
					learned = append(learned, cl)
				}
				if tightening {
					sol.Assign(wl.Lit.Negate())
					reduction += wl.Weight
					continue
				}
			}
		}
		cost += wl.Weight
	}
	if tightening || learning {
		if err := s.logHeuristicImprovement(objIdx, cost+reduction, cost, len(learned)); err != nil {
			return 0, err
		}
	}
	if len(learned) > 0 {
		if err := s.oracle.AddCNF(learned); err != nil {
			return 0, err
		}
	}
	return cost, nil
}

// findFlipWitness looks for a subset of the assignment proving that
// lit can be set false: for every recorded clause containing lit, the
// first other literal true under sol joins the witness; a clause with
// no such literal means no witness exists.
func (s *Solver) findFlipWitness(lit varmgr.Lit, sol oracle.Assignment) ([]varmgr.Lit, bool) {
	entry, ok := s.idx.get(lit)
	if !ok {
		panic("pminimal: flip witness requested for a non-objective literal")
	}
	seen := make(map[varmgr.Lit]bool)
	var witness []varmgr.Lit
	for _, ci := range entry.clauses {
		var sat varmgr.Lit
		found := false
		for _, other := range s.idx.objClauses[ci] {
			if other == lit {
				continue
			}
			if sol.LitValue(other) == oracle.True {
				sat = other
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
		if !seen[sat] {
			seen[sat] = true
			witness = append(witness, sat)
		}
	}
	return witness, true
}
