// Package cdcl adapts the gini conflict-driven clause-learning SAT
// engine to the oracle contract in package oracle. It is the backend
// to reach for when instance sizes outgrow the reference dpll solver:
// gini brings watched literals, clause learning, and restarts, while
// this adapter supplies the literal translation, assumption handling,
// and cooperative interruption the search loop expects.
package cdcl

import (
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"

	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal/varmgr"
)

const (
	giniSat   = 1
	giniUnsat = -1

	// termPollInterval is how long one GoSolve slice runs before the
	// terminator callback gets a chance to interrupt.
	termPollInterval = 10 * time.Millisecond
)

// Solver wraps a gini instance behind oracle.Oracle. Phase pinning is
// accepted and ignored, since gini exposes no polarity control; the
// solution-guided-search option degrades to plain search on this
// backend.
type Solver struct {
	g          *gini.Gini
	terminator func() oracle.ControlSignal
}

// NewSolver returns an empty oracle backed by a fresh gini instance.
func NewSolver() *Solver {
	return &Solver{g: gini.New()}
}

// toGini translates a DIMACS-style signed literal into gini's
// representation.
func toGini(l varmgr.Lit) z.Lit {
	return z.Dimacs2Lit(int(l))
}

func (s *Solver) result(r int) oracle.Result {
	switch r {
	case giniSat:
		return oracle.Sat
	case giniUnsat:
		return oracle.Unsat
	default:
		return oracle.Interrupted
	}
}

// solve runs gini to completion, or in short slices interleaved with
// terminator polls when a terminator is attached.
func (s *Solver) solve() (oracle.Result, error) {
	if s.terminator == nil {
		return s.result(s.g.Solve()), nil
	}
	gs := s.g.GoSolve()
	for {
		if r := gs.Try(termPollInterval); r != 0 {
			return s.result(r), nil
		}
		if s.terminator() == oracle.Terminate {
			gs.Stop()
			return oracle.Interrupted, nil
		}
	}
}

// Solve implements oracle.Oracle.
func (s *Solver) Solve() (oracle.Result, error) {
	return s.solve()
}

// SolveAssumps implements oracle.Oracle. gini consumes assumptions on
// the next Solve call, matching the ephemeral-assumptions contract.
func (s *Solver) SolveAssumps(assumps []varmgr.Lit) (oracle.Result, error) {
	for _, l := range assumps {
		s.g.Assume(toGini(l))
	}
	return s.solve()
}

// AddClause implements oracle.Oracle.
func (s *Solver) AddClause(c oracle.Clause) error {
	for _, l := range c {
		s.g.Add(toGini(l))
	}
	s.g.Add(z.LitNull)
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

// Solution implements oracle.Oracle. gini models are total, so no
// variable is left free.
func (s *Solver) Solution(upTo varmgr.Var) (oracle.Assignment, error) {
	a := oracle.NewAssignment(int(upTo) + 1)
	for v := varmgr.Var(0); v <= upTo; v++ {
		if s.g.Value(toGini(v.Pos())) {
			a.Set(v, oracle.True)
		} else {
			a.Set(v, oracle.False)
		}
	}
	return a, nil
}

// PhaseLit implements oracle.Oracle as a no-op: gini has no polarity
// API, and phase hints are best-effort by contract.
func (s *Solver) PhaseLit(l varmgr.Lit) error { return nil }

// UnphaseVar implements oracle.Oracle as a no-op.
func (s *Solver) UnphaseVar(v varmgr.Var) error { return nil }

// Reserve implements oracle.Oracle. gini grows its tables on demand;
// touching the top variable once is all the preallocation it needs.
func (s *Solver) Reserve(v varmgr.Var) error {
	s.g.Add(toGini(v.Pos()))
	s.g.Add(toGini(v.Neg()))
	s.g.Add(z.LitNull)
	return nil
}

// AttachTerminator implements oracle.Oracle.
func (s *Solver) AttachTerminator(fn func() oracle.ControlSignal) {
	s.terminator = fn
}

var _ oracle.Oracle = (*Solver)(nil)
