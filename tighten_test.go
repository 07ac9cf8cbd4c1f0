package pminimal

import (
	"testing"

	"github.com/xDarkicex/pminimal/dpll"
	"github.com/xDarkicex/pminimal/objective"
	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal/varmgr"
)

// tighteningSolver builds a solver over hard (x ∨ y) minimizing x,
// with clause storage enabled.
func tighteningSolver(t *testing.T) *Solver {
	t.Helper()
	x, y := varmgr.Var(0), varmgr.Var(1)
	inst := Instance{
		NumVars: 2,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos()}},
		Objectives: []ObjectiveSpec{
			MinimizeLits(0, []objective.WeightedLit{{Lit: x.Pos(), Weight: 1}}),
		},
	}
	s, err := InitWithOptions(inst, dpll.NewSolver(), Options{TighteningPhases: AllPhases()}, nil)
	if err != nil {
		t.Fatalf("InitWithOptions: %v", err)
	}
	return s
}

func TestFindFlipWitness(t *testing.T) {
	s := tighteningSolver(t)
	x, y := varmgr.Var(0), varmgr.Var(1)

	sol := oracle.NewAssignment(2)
	sol.Assign(x.Pos())
	sol.Assign(y.Pos())

	witness, ok := s.findFlipWitness(x.Pos(), sol)
	if !ok {
		t.Fatalf("expected a flip witness for x with y true")
	}
	if len(witness) != 1 || witness[0] != y.Pos() {
		t.Fatalf("witness = %v, want [y]", witness)
	}

	// With y false, flipping x would falsify (x ∨ y).
	sol.Assign(y.Neg())
	if _, ok := s.findFlipWitness(x.Pos(), sol); ok {
		t.Fatalf("expected no flip witness for x with y false")
	}
}

func TestTighteningFlipsUnforcedLiteral(t *testing.T) {
	s := tighteningSolver(t)
	x, y := varmgr.Var(0), varmgr.Var(1)

	sol := oracle.NewAssignment(2)
	sol.Assign(x.Pos())
	sol.Assign(y.Pos())

	cost, err := s.costWithHeuristicImprovements(0, sol, true, false)
	if err != nil {
		t.Fatalf("costWithHeuristicImprovements: %v", err)
	}
	if cost != 0 {
		t.Fatalf("tightened cost = %d, want 0", cost)
	}
	if sol.LitValue(x.Pos()) != oracle.False {
		t.Fatalf("x was not flipped to false")
	}

	// Idempotence: a second pass neither finds work nor changes cost.
	cost, err = s.costWithHeuristicImprovements(0, sol, true, false)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if cost != 0 {
		t.Fatalf("second pass cost = %d, want 0", cost)
	}
}

func TestTighteningSkipsForcedLiteral(t *testing.T) {
	s := tighteningSolver(t)
	x, y := varmgr.Var(0), varmgr.Var(1)

	sol := oracle.NewAssignment(2)
	sol.Assign(x.Pos())
	sol.Assign(y.Neg())

	cost, err := s.costWithHeuristicImprovements(0, sol, true, false)
	if err != nil {
		t.Fatalf("costWithHeuristicImprovements: %v", err)
	}
	if cost != 1 {
		t.Fatalf("cost = %d, want 1: x is forced by (x ∨ y)", cost)
	}
	if sol.LitValue(x.Pos()) != oracle.True {
		t.Fatalf("x must stay true when no witness exists")
	}
}

func TestLearningEmitsWitnessClauseWithoutFlipping(t *testing.T) {
	x, y := varmgr.Var(0), varmgr.Var(1)
	inst := Instance{
		NumVars: 2,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos()}},
		Objectives: []ObjectiveSpec{
			MinimizeLits(0, []objective.WeightedLit{{Lit: x.Pos(), Weight: 1}}),
		},
	}
	back := dpll.NewSolver()
	s, err := InitWithOptions(inst, back, Options{LearningPhases: AllPhases()}, nil)
	if err != nil {
		t.Fatalf("InitWithOptions: %v", err)
	}

	sol := oracle.NewAssignment(2)
	sol.Assign(x.Pos())
	sol.Assign(y.Pos())

	cost, err := s.costWithHeuristicImprovements(0, sol, false, true)
	if err != nil {
		t.Fatalf("costWithHeuristicImprovements: %v", err)
	}
	if cost != 1 {
		t.Fatalf("cost = %d, want 1: learning alone must not flip", cost)
	}
	if sol.LitValue(x.Pos()) != oracle.True {
		t.Fatalf("x must stay true under learning-only")
	}

	// The learned clause (¬y ∨ ¬x) now excludes the both-true model.
	res, err := back.SolveAssumps([]varmgr.Lit{x.Pos(), y.Pos()})
	if err != nil {
		t.Fatalf("SolveAssumps: %v", err)
	}
	if res != oracle.Unsat {
		t.Fatalf("solve under x, y = %v, want Unsat after learning", res)
	}
}

func TestObjLitIndexLinksHardClauses(t *testing.T) {
	s := tighteningSolver(t)
	x := varmgr.Var(0)

	entry, ok := s.idx.get(x.Pos())
	if !ok {
		t.Fatalf("x is an objective literal but has no index entry")
	}
	if len(entry.objs) != 1 || entry.objs[0] != 0 {
		t.Fatalf("objs = %v, want [0]", entry.objs)
	}
	if len(entry.clauses) != 1 {
		t.Fatalf("clauses = %v, want exactly the hard clause (x ∨ y)", entry.clauses)
	}
}
