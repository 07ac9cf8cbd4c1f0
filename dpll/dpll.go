// Package dpll implements a reference incremental Oracle (see package
// oracle) backed by a Davis-Putnam-Logemann-Loveland search with
// activity-guided decisions and phase saving. It has no clause
// learning: conflicts are handled by chronological backtracking, in
// keeping with a solver whose job is correctness and assumption
// support rather than raw throughput.
package dpll

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal/varmgr"
)

const (
	activityIncrement = 1.0
	activityDecay     = 0.95
)

// frame is one entry of the decision stack. An assumption frame can
// never be flipped: if both its "tried" branches would need exploring,
// the search simply fails under that assumption set.
type frame struct {
	trailMark    int
	lit          varmgr.Lit
	tried        bool
	isAssumption bool
}

// Solver is a single-threaded, append-only incremental oracle. It
// satisfies oracle.Oracle and oracle.StatsOracle.
type Solver struct {
	clauses []oracle.Clause

	// assign[v]: 0 unassigned, 1 true, 2 false.
	assign []int8
	reason []int32 // clause index that forced this var, -1 for decision/assumption
	trail  []varmgr.Lit

	stack []frame

	activity []float64

	savedPhase *bitset.BitSet // bit set => variable was last assigned true
	savedSet   *bitset.BitSet // bit set => savedPhase has an entry for this var

	forcedPhase *bitset.BitSet // pinned polarity via PhaseLit
	forcedSet   *bitset.BitSet

	terminator func() oracle.ControlSignal

	stats oracle.SolverStats
}

// NewSolver returns an empty incremental oracle.
func NewSolver() *Solver {
	return &Solver{
		savedPhase:  bitset.New(0),
		savedSet:    bitset.New(0),
		forcedPhase: bitset.New(0),
		forcedSet:   bitset.New(0),
	}
}

func (s *Solver) nvars() int { return len(s.assign) }

func (s *Solver) growTo(v varmgr.Var) {
	need := int(v) + 1
	if need <= s.nvars() {
		return
	}
	grown := make([]int8, need)
	copy(grown, s.assign)
	s.assign = grown

	reasons := make([]int32, need)
	copy(reasons, s.reason)
	for i := s.nvars(); i < need; i++ {
		reasons[i] = -1
	}
	s.reason = reasons

	grownAct := make([]float64, need)
	copy(grownAct, s.activity)
	s.activity = grownAct
}

// Reserve implements oracle.Oracle.
func (s *Solver) Reserve(v varmgr.Var) error {
	s.growTo(v)
	return nil
}

func (s *Solver) touchClauseVars(c oracle.Clause) {
	for _, l := range c {
		s.growTo(l.Var())
	}
}

// AddClause implements oracle.Oracle. The empty clause is accepted and
// makes every future Solve* call return Unsat.
func (s *Solver) AddClause(c oracle.Clause) error {
	norm, taut := c.Normalize()
	if taut {
		return nil
	}
	s.touchClauseVars(norm)
	s.clauses = append(s.clauses, norm)
	return nil
}

// AddUnit implements oracle.Oracle.
func (s *Solver) AddUnit(l varmgr.Lit) error {
	return s.AddClause(oracle.Clause{l})
}

// AddCNF implements oracle.Oracle.
func (s *Solver) AddCNF(cls []oracle.Clause) error {
	for _, c := range cls {
		if err := s.AddClause(c); err != nil {
			return err
		}
	}
	return nil
}

// AttachTerminator implements oracle.Oracle.
func (s *Solver) AttachTerminator(fn func() oracle.ControlSignal) {
	s.terminator = fn
}

// PhaseLit implements oracle.Oracle.
func (s *Solver) PhaseLit(l varmgr.Lit) error {
	s.growTo(l.Var())
	v := uint(l.Var())
	s.forcedSet.Set(v)
	if l.IsPos() {
		s.forcedPhase.Set(v)
	} else {
		s.forcedPhase.Clear(v)
	}
	return nil
}

// UnphaseVar implements oracle.Oracle.
func (s *Solver) UnphaseVar(v varmgr.Var) error {
	s.forcedSet.Clear(uint(v))
	return nil
}

// Stats implements oracle.StatsOracle.
func (s *Solver) Stats() oracle.SolverStats { return s.stats }

func (s *Solver) litValue(l varmgr.Lit) oracle.TernaryVal {
	v := int(l.Var())
	if v >= s.nvars() {
		return oracle.Unknown
	}
	a := s.assign[v]
	if a == 0 {
		return oracle.Unknown
	}
	isTrue := a == 1
	if l.IsPos() == isTrue {
		return oracle.True
	}
	return oracle.False
}

func (s *Solver) assignLit(l varmgr.Lit, reasonClause int32) {
	v := int(l.Var())
	if l.IsPos() {
		s.assign[v] = 1
	} else {
		s.assign[v] = 2
	}
	s.reason[v] = reasonClause
	s.trail = append(s.trail, l)
}

// undoTrailTo pops trail entries back to (but not including) mark,
// saving the phase of every variable it unassigns.
func (s *Solver) undoTrailTo(mark int) {
	for i := len(s.trail) - 1; i >= mark; i-- {
		l := s.trail[i]
		v := uint(l.Var())
		wasTrue := s.assign[l.Var()] == 1
		s.savedSet.Set(v)
		if wasTrue {
			s.savedPhase.Set(v)
		} else {
			s.savedPhase.Clear(v)
		}
		s.assign[l.Var()] = 0
		s.reason[l.Var()] = -1
	}
	s.trail = s.trail[:mark]
}

// propagate scans clauses to a fixpoint, appending forced units to the
// trail. It returns the index of a falsified clause on conflict, or -1
// if none was found.
func (s *Solver) propagate() int {
	changed := true
	for changed {
		changed = false
		for ci := range s.clauses {
			cl := s.clauses[ci]
			satisfied := false
			unassignedCount := 0
			var last varmgr.Lit
			for _, l := range cl {
				switch s.litValue(l) {
				case oracle.True:
					satisfied = true
				case oracle.Unknown:
					unassignedCount++
					last = l
				}
				if satisfied {
					break
				}
			}
			if satisfied {
				continue
			}
			s.stats.Propagations++
			if unassignedCount == 0 {
				return ci
			}
			if unassignedCount == 1 {
				s.assignLit(last, int32(ci))
				changed = true
			}
		}
	}
	return -1
}

// bumpActivity rewards every variable in the conflicting clause and
// decays the rest, the standard VSIDS-style update.
func (s *Solver) bumpActivity(conflictClause int) {
	if conflictClause < 0 || conflictClause >= len(s.clauses) {
		return
	}
	for i := range s.activity {
		s.activity[i] *= activityDecay
	}
	for _, l := range s.clauses[conflictClause] {
		v := int(l.Var())
		if v < len(s.activity) {
			s.activity[v] += activityIncrement
		}
	}
}

func (s *Solver) pickDecisionVar() (varmgr.Var, bool) {
	best := -1
	bestScore := -1.0
	for v := 0; v < s.nvars(); v++ {
		if s.assign[v] != 0 {
			continue
		}
		if best == -1 || s.activity[v] > bestScore {
			best = v
			bestScore = s.activity[v]
		}
	}
	if best == -1 {
		return 0, false
	}
	return varmgr.Var(best), true
}

func (s *Solver) decideLit(v varmgr.Var) varmgr.Lit {
	uv := uint(v)
	if s.forcedSet.Test(uv) {
		if s.forcedPhase.Test(uv) {
			return v.Pos()
		}
		return v.Neg()
	}
	if s.savedSet.Test(uv) {
		if s.savedPhase.Test(uv) {
			return v.Pos()
		}
		return v.Neg()
	}
	return v.Pos()
}

func (s *Solver) pushDecision(lit varmgr.Lit, isAssumption bool) {
	s.stack = append(s.stack, frame{
		trailMark:    len(s.trail),
		lit:          lit,
		isAssumption: isAssumption,
	})
	s.assignLit(lit, -1)
	if !isAssumption {
		s.stats.Decisions++
	}
}

func (s *Solver) polled() bool {
	return s.terminator != nil && s.terminator() == oracle.Terminate
}

// search runs the DPLL loop to a fixpoint, assuming the trail and
// stack already reflect any pushed assumptions.
func (s *Solver) search() (oracle.Result, error) {
	for {
		if s.polled() {
			return oracle.Interrupted, nil
		}

		conflictClause := s.propagate()
		if conflictClause >= 0 {
			s.stats.Conflicts++
			s.bumpActivity(conflictClause)

			for {
				if len(s.stack) == 0 {
					return oracle.Unsat, nil
				}
				top := &s.stack[len(s.stack)-1]
				s.undoTrailTo(top.trailMark)
				if !top.isAssumption && !top.tried {
					top.tried = true
					top.lit = top.lit.Negate()
					s.assignLit(top.lit, -1)
					break
				}
				s.stack = s.stack[:len(s.stack)-1]
			}
			continue
		}

		v, ok := s.pickDecisionVar()
		if !ok {
			return oracle.Sat, nil
		}
		s.pushDecision(s.decideLit(v), false)
	}
}

// resetToLevelZero undoes every assumption/decision from a previous
// call, returning the solver to its permanent, append-only clause
// base with no variables assigned.
func (s *Solver) resetToLevelZero() {
	s.undoTrailTo(0)
	s.stack = s.stack[:0]
}

// Solve implements oracle.Oracle.
func (s *Solver) Solve() (oracle.Result, error) {
	return s.SolveAssumps(nil)
}

// SolveAssumps implements oracle.Oracle. The assumption list is
// ephemeral: it is pushed as a prefix of forced, unflippable decisions.
// On Unsat or Interrupted it is retracted before the call returns; on
// Sat the trail is kept so Solution can read the model, and the next
// Solve* call retracts it before doing anything else.
func (s *Solver) SolveAssumps(assumps []varmgr.Lit) (oracle.Result, error) {
	s.resetToLevelZero()

	for _, a := range assumps {
		s.growTo(a.Var())
	}

	for _, a := range assumps {
		switch s.litValue(a) {
		case oracle.False:
			s.resetToLevelZero()
			return oracle.Unsat, nil
		case oracle.True:
			continue
		}
		s.pushDecision(a, true)
		if conflictClause := s.propagate(); conflictClause >= 0 {
			s.stats.Conflicts++
			s.resetToLevelZero()
			return oracle.Unsat, nil
		}
	}

	result, err := s.search()
	if result != oracle.Sat {
		s.resetToLevelZero()
	}
	return result, err
}

// Solution implements oracle.Oracle.
func (s *Solver) Solution(upTo varmgr.Var) (oracle.Assignment, error) {
	n := int(upTo) + 1
	if n > s.nvars() {
		n = s.nvars()
	}
	a := oracle.NewAssignment(n)
	for v := 0; v < n; v++ {
		switch s.assign[v] {
		case 1:
			a.Set(varmgr.Var(v), oracle.True)
		case 2:
			a.Set(varmgr.Var(v), oracle.False)
		}
	}
	return a, nil
}
