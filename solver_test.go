package pminimal_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xDarkicex/pminimal/dpll"
	"github.com/xDarkicex/pminimal/objective"
	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal"
	"github.com/xDarkicex/pminimal/varmgr"
)

func intPtr(n int) *int { return &n }

// minimize builds the objective "offset + sum of w per true literal".
func minimize(offset int, lits ...objective.WeightedLit) pminimal.ObjectiveSpec {
	return pminimal.MinimizeLits(offset, lits)
}

func wl(l varmgr.Lit, w int) objective.WeightedLit {
	return objective.WeightedLit{Lit: l, Weight: w}
}

func solve(t *testing.T, inst pminimal.Instance, opts pminimal.Options, lims pminimal.Limits) (*pminimal.Solver, pminimal.Termination) {
	t.Helper()
	s, err := pminimal.InitWithOptions(inst, dpll.NewSolver(), opts, nil)
	require.NoError(t, err)
	term, err := s.Solve(lims)
	require.NoError(t, err)
	return s, term
}

// findPoint returns the front point with the given cost tuple.
func findPoint(t *testing.T, front pminimal.ParetoFront, cost ...int) pminimal.NonDomPoint {
	t.Helper()
	for _, p := range front.Points {
		if len(p.Cost) != len(cost) {
			continue
		}
		match := true
		for i := range cost {
			if p.Cost[i] != cost[i] {
				match = false
				break
			}
		}
		if match {
			return p
		}
	}
	t.Fatalf("no point with cost %v in front %+v", cost, front.Points)
	return pminimal.NonDomPoint{}
}

func TestTwoIndependentObjectives(t *testing.T) {
	x, y := varmgr.Var(0), varmgr.Var(1)
	inst := pminimal.Instance{
		NumVars: 2,
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 1)),
			minimize(0, wl(y.Pos(), 1)),
		},
	}
	s, term := solve(t, inst, pminimal.Options{}, pminimal.Limits{})
	require.Equal(t, pminimal.Success, term.Code)

	front := s.ParetoFront()
	require.True(t, front.CheckInvariant())
	require.Len(t, front.Points, 1)
	p := findPoint(t, front, 0, 0)
	require.NotEmpty(t, p.Solutions)
	require.Equal(t, oracle.False, p.Solutions[0].LitValue(x.Pos()))
	require.Equal(t, oracle.False, p.Solutions[0].LitValue(y.Pos()))
}

func TestTradeOffFront(t *testing.T) {
	x, y := varmgr.Var(0), varmgr.Var(1)
	inst := pminimal.Instance{
		NumVars: 2,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos()}},
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 1)),
			minimize(0, wl(y.Pos(), 1)),
		},
	}
	s, term := solve(t, inst, pminimal.Options{}, pminimal.Limits{})
	require.Equal(t, pminimal.Success, term.Code)

	front := s.ParetoFront()
	require.True(t, front.CheckInvariant())
	require.Len(t, front.Points, 2)

	p10 := findPoint(t, front, 1, 0)
	require.Equal(t, oracle.True, p10.Solutions[0].LitValue(x.Pos()))
	require.Equal(t, oracle.False, p10.Solutions[0].LitValue(y.Pos()))

	p01 := findPoint(t, front, 0, 1)
	require.Equal(t, oracle.False, p01.Solutions[0].LitValue(x.Pos()))
	require.Equal(t, oracle.True, p01.Solutions[0].LitValue(y.Pos()))
}

func TestOffsetsAndWeights(t *testing.T) {
	x, y, z := varmgr.Var(0), varmgr.Var(1), varmgr.Var(2)
	inst := pminimal.Instance{
		NumVars: 3,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos(), z.Pos()}},
		Objectives: []pminimal.ObjectiveSpec{
			minimize(5, wl(x.Pos(), 2), wl(y.Pos(), 3)),
			minimize(0, wl(z.Pos(), 1)),
		},
	}
	s, term := solve(t, inst, pminimal.Options{}, pminimal.Limits{})
	require.Equal(t, pminimal.Success, term.Code)

	front := s.ParetoFront()
	require.True(t, front.CheckInvariant())
	require.Len(t, front.Points, 2)

	p51 := findPoint(t, front, 5, 1)
	require.Equal(t, oracle.False, p51.Solutions[0].LitValue(x.Pos()))
	require.Equal(t, oracle.False, p51.Solutions[0].LitValue(y.Pos()))
	require.Equal(t, oracle.True, p51.Solutions[0].LitValue(z.Pos()))

	p70 := findPoint(t, front, 7, 0)
	require.Equal(t, oracle.True, p70.Solutions[0].LitValue(x.Pos()))
	require.Equal(t, oracle.False, p70.Solutions[0].LitValue(y.Pos()))
	require.Equal(t, oracle.False, p70.Solutions[0].LitValue(z.Pos()))
}

func TestConstantObjective(t *testing.T) {
	x := varmgr.Var(0)
	inst := pminimal.Instance{
		NumVars: 1,
		Objectives: []pminimal.ObjectiveSpec{
			{Offset: 4},
			minimize(0, wl(x.Pos(), 1)),
		},
	}
	s, term := solve(t, inst, pminimal.Options{}, pminimal.Limits{})
	require.Equal(t, pminimal.Success, term.Code)

	front := s.ParetoFront()
	require.Len(t, front.Points, 1)
	p := findPoint(t, front, 4, 0)
	require.Equal(t, oracle.False, p.Solutions[0].LitValue(x.Pos()))
}

func TestEmptyEncoding(t *testing.T) {
	inst := pminimal.Instance{
		Objectives: []pminimal.ObjectiveSpec{
			{Offset: 4},
			{Offset: -1},
		},
	}
	s, term := solve(t, inst, pminimal.Options{}, pminimal.Limits{})
	require.Equal(t, pminimal.Success, term.Code)

	front := s.ParetoFront()
	require.Len(t, front.Points, 1)
	p := findPoint(t, front, 4, -1)
	require.Len(t, p.Solutions, 1)
	require.Equal(t, 0, p.Solutions[0].NVars())

	// A second run discovers nothing new.
	term, err := s.Solve(pminimal.Limits{})
	require.NoError(t, err)
	require.Equal(t, pminimal.Success, term.Code)
	require.Len(t, s.ParetoFront().Points, 1)
}

func TestSolutionEnumeration(t *testing.T) {
	x := varmgr.Var(0)
	inst := pminimal.Instance{
		NumVars: 2,
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 1)),
		},
	}
	opts := pminimal.Options{
		Enumeration: pminimal.EnumOptions{Mode: pminimal.SolutionsEnum},
	}
	s, term := solve(t, inst, opts, pminimal.Limits{})
	require.Equal(t, pminimal.Success, term.Code)

	front := s.ParetoFront()
	require.Len(t, front.Points, 1)
	// Both models with x false witness the single point (0).
	require.Len(t, findPoint(t, front, 0).Solutions, 2)
	require.Equal(t, 2, s.Stats().NSolutions)
}

func TestPMCSEnumeration(t *testing.T) {
	x, y := varmgr.Var(0), varmgr.Var(1)
	inst := pminimal.Instance{
		NumVars: 2,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos()}},
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 1)),
			minimize(0, wl(y.Pos(), 1)),
		},
	}
	opts := pminimal.Options{
		Enumeration: pminimal.EnumOptions{Mode: pminimal.PMCSsEnum, Limit: intPtr(2)},
	}
	s, term := solve(t, inst, opts, pminimal.Limits{})
	require.Equal(t, pminimal.Success, term.Code)

	front := s.ParetoFront()
	require.True(t, front.CheckInvariant())
	require.Len(t, front.Points, 2)
	// Blocking the single objective literal of each point makes the
	// oracle unsat under the dominance assumptions, so each point
	// carries exactly one witness.
	require.Len(t, findPoint(t, front, 1, 0).Solutions, 1)
	require.Len(t, findPoint(t, front, 0, 1).Solutions, 1)
	require.Equal(t, 2, s.Stats().NSolutions)
}

func TestSolutionLimitTermination(t *testing.T) {
	x, y := varmgr.Var(0), varmgr.Var(1)
	inst := pminimal.Instance{
		NumVars: 2,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos()}},
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 1)),
			minimize(0, wl(y.Pos(), 1)),
		},
	}
	s, term := solve(t, inst, pminimal.Options{}, pminimal.Limits{Solutions: intPtr(1)})
	require.Equal(t, pminimal.SolsLimit, term.Code)

	front := s.ParetoFront()
	require.Len(t, front.Points, 1)
	require.Len(t, front.Points[0].Solutions, 1)
}

func TestParetoPointLimitTermination(t *testing.T) {
	x, y := varmgr.Var(0), varmgr.Var(1)
	inst := pminimal.Instance{
		NumVars: 2,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos()}},
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 1)),
			minimize(0, wl(y.Pos(), 1)),
		},
	}
	s, term := solve(t, inst, pminimal.Options{}, pminimal.Limits{ParetoPoints: intPtr(1)})
	require.Equal(t, pminimal.PPLimit, term.Code)
	require.Len(t, s.ParetoFront().Points, 1)
}

func TestCallbackTermination(t *testing.T) {
	x, y := varmgr.Var(0), varmgr.Var(1)
	inst := pminimal.Instance{
		NumVars: 2,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos()}},
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 1)),
			minimize(0, wl(y.Pos(), 1)),
		},
	}
	s, err := pminimal.InitWithOptions(inst, dpll.NewSolver(), pminimal.Options{}, nil)
	require.NoError(t, err)
	s.AttachTerminator(func() oracle.ControlSignal { return oracle.Terminate })

	term, err := s.Solve(pminimal.Limits{})
	require.NoError(t, err)
	require.Equal(t, pminimal.Callback, term.Code)
}

func TestSolutionGuidedSearch(t *testing.T) {
	x, y := varmgr.Var(0), varmgr.Var(1)
	inst := pminimal.Instance{
		NumVars: 2,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos()}},
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 1)),
			minimize(0, wl(y.Pos(), 1)),
		},
	}
	opts := pminimal.Options{SolutionGuidedSearch: true}
	s, term := solve(t, inst, opts, pminimal.Limits{})
	require.Equal(t, pminimal.Success, term.Code)

	front := s.ParetoFront()
	require.Len(t, front.Points, 2)
	findPoint(t, front, 1, 0)
	findPoint(t, front, 0, 1)
}

func TestTighteningAndLearningPreserveFront(t *testing.T) {
	x, y := varmgr.Var(0), varmgr.Var(1)
	inst := pminimal.Instance{
		NumVars: 2,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos()}},
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 1)),
			minimize(0, wl(y.Pos(), 1)),
		},
	}
	opts := pminimal.Options{
		TighteningPhases: pminimal.AllPhases(),
		LearningPhases:   pminimal.AllPhases(),
	}
	s, term := solve(t, inst, opts, pminimal.Limits{})
	require.Equal(t, pminimal.Success, term.Code)

	front := s.ParetoFront()
	require.True(t, front.CheckInvariant())
	require.Len(t, front.Points, 2)
	findPoint(t, front, 1, 0)
	findPoint(t, front, 0, 1)
}

func TestCoarseConvergencePreservesFront(t *testing.T) {
	x, y, z := varmgr.Var(0), varmgr.Var(1), varmgr.Var(2)
	inst := pminimal.Instance{
		NumVars: 3,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos(), z.Pos()}},
		Objectives: []pminimal.ObjectiveSpec{
			minimize(5, wl(x.Pos(), 2), wl(y.Pos(), 3)),
			minimize(0, wl(z.Pos(), 1)),
		},
	}
	s, term := solve(t, inst, pminimal.Options{CoarseConvergence: true}, pminimal.Limits{})
	require.Equal(t, pminimal.Success, term.Code)

	front := s.ParetoFront()
	require.Len(t, front.Points, 2)
	findPoint(t, front, 5, 1)
	findPoint(t, front, 7, 0)
}

func TestReserveEncVars(t *testing.T) {
	x, y := varmgr.Var(0), varmgr.Var(1)
	inst := pminimal.Instance{
		NumVars: 2,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos()}},
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 1)),
			minimize(0, wl(y.Pos(), 1)),
		},
	}
	s, term := solve(t, inst, pminimal.Options{ReserveEncVars: true}, pminimal.Limits{})
	require.Equal(t, pminimal.Success, term.Code)
	require.Len(t, s.ParetoFront().Points, 2)
}

func TestStatsCounters(t *testing.T) {
	x, y := varmgr.Var(0), varmgr.Var(1)
	inst := pminimal.Instance{
		NumVars: 2,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos()}},
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 1)),
			minimize(0, wl(y.Pos(), 1)),
		},
	}
	s, term := solve(t, inst, pminimal.Options{}, pminimal.Limits{})
	require.Equal(t, pminimal.Success, term.Code)

	st := s.Stats()
	require.Equal(t, 2, st.NObjs)
	require.Equal(t, 1, st.NOrigClauses)
	require.Equal(t, 1, st.NSolveCalls)
	require.Equal(t, 2, st.NParetoPoints)
	require.Equal(t, 2, st.NSolutions)
	require.GreaterOrEqual(t, st.NCandidates, 2)
	require.GreaterOrEqual(t, st.NOracleCalls, st.NCandidates)

	_, ok := s.OracleStats()
	require.True(t, ok, "dpll backend exposes the extended-statistics facet")

	encStats := s.EncodingStats()
	require.Len(t, encStats, 2)
	require.NotNil(t, encStats[0].UnitWeight)
	require.Equal(t, 1, *encStats[0].UnitWeight)
}

type countingLogger struct {
	pminimal.NopLogger
	candidates int
	oracle     int
	solutions  int
	points     int
}

func (c *countingLogger) Candidate(costs []int, phase pminimal.SearchPhase) error {
	c.candidates++
	return nil
}

func (c *countingLogger) OracleCall(res oracle.Result, phase pminimal.SearchPhase) error {
	c.oracle++
	return nil
}

func (c *countingLogger) Solution() error {
	c.solutions++
	return nil
}

func (c *countingLogger) ParetoPoint(p pminimal.NonDomPoint) error {
	c.points++
	return nil
}

func TestLoggerObservesEvents(t *testing.T) {
	x, y := varmgr.Var(0), varmgr.Var(1)
	inst := pminimal.Instance{
		NumVars: 2,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos()}},
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 1)),
			minimize(0, wl(y.Pos(), 1)),
		},
	}
	s, err := pminimal.InitWithOptions(inst, dpll.NewSolver(), pminimal.Options{}, nil)
	require.NoError(t, err)

	cl := &countingLogger{}
	id := s.AttachLogger(cl)

	term, err := s.Solve(pminimal.Limits{})
	require.NoError(t, err)
	require.Equal(t, pminimal.Success, term.Code)

	st := s.Stats()
	require.Equal(t, st.NCandidates, cl.candidates)
	require.Equal(t, st.NOracleCalls, cl.oracle)
	require.Equal(t, st.NSolutions, cl.solutions)
	require.Equal(t, st.NParetoPoints, cl.points)

	require.Equal(t, cl, s.DetachLogger(id))
	require.Nil(t, s.DetachLogger(id))
}

func TestLoggerSlotReuse(t *testing.T) {
	inst := pminimal.Instance{Objectives: []pminimal.ObjectiveSpec{{Offset: 1}}}
	s, err := pminimal.InitWithOptions(inst, dpll.NewSolver(), pminimal.Options{}, nil)
	require.NoError(t, err)

	a, b := &countingLogger{}, &countingLogger{}
	idA := s.AttachLogger(a)
	idB := s.AttachLogger(b)
	require.NotEqual(t, idA, idB)

	s.DetachLogger(idA)
	require.Equal(t, idA, s.AttachLogger(&countingLogger{}))
}

type failingLogger struct {
	pminimal.NopLogger
	err error
}

func (f *failingLogger) Solution() error { return f.err }

func TestLoggerErrorTermination(t *testing.T) {
	x := varmgr.Var(0)
	inst := pminimal.Instance{
		NumVars: 1,
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 1)),
		},
	}
	s, err := pminimal.InitWithOptions(inst, dpll.NewSolver(), pminimal.Options{}, nil)
	require.NoError(t, err)

	boom := errors.New("sink full")
	s.AttachLogger(&failingLogger{err: boom})

	term, err := s.Solve(pminimal.Limits{})
	require.NoError(t, err)
	require.Equal(t, pminimal.LoggerError, term.Code)
	require.ErrorIs(t, term.Err, boom)
}

func TestRejectsNonPositiveWeight(t *testing.T) {
	x := varmgr.Var(0)
	inst := pminimal.Instance{
		NumVars: 1,
		Objectives: []pminimal.ObjectiveSpec{
			minimize(0, wl(x.Pos(), 0)),
		},
	}
	_, err := pminimal.InitWithOptions(inst, dpll.NewSolver(), pminimal.Options{}, nil)
	require.ErrorIs(t, err, objective.ErrNonPositiveWeight)
}

func TestSharedSoftClauseReusesBlit(t *testing.T) {
	// The same soft clause in two objectives must share its blit, so
	// both objectives see the same objective literal and the relaxed
	// clause is added once.
	x, y := varmgr.Var(0), varmgr.Var(1)
	shared := []varmgr.Lit{x.Neg(), y.Neg()}
	inst := pminimal.Instance{
		NumVars: 2,
		Hard:    []oracle.Clause{{x.Pos(), y.Pos()}},
		Objectives: []pminimal.ObjectiveSpec{
			{Softs: []pminimal.SoftClause{{Lits: shared, Weight: 1}}},
			{Softs: []pminimal.SoftClause{{Lits: shared, Weight: 2}}},
		},
	}
	s, term := solve(t, inst, pminimal.Options{}, pminimal.Limits{})
	require.Equal(t, pminimal.Success, term.Code)

	front := s.ParetoFront()
	require.True(t, front.CheckInvariant())
	// (¬x ∨ ¬y) is satisfiable alongside (x ∨ y), so both objectives
	// can reach cost 0 at once.
	require.Len(t, front.Points, 1)
	findPoint(t, front, 0, 0)
}
