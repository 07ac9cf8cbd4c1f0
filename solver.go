package pminimal

import (
	"errors"
	"sort"
	"strings"

	"github.com/xDarkicex/pminimal/objective"
	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal/varmgr"
)

// Solver runs the P-minimization search loop. One Solver
// instance owns its oracle, variable manager, objective encodings,
// indices, and accumulated Pareto front; it is strictly
// single-threaded.
type Solver struct {
	oracle oracle.Oracle
	vm     *varmgr.Manager

	objEncs []*objAdapter
	dom     *dominanceEngine
	idx     *litIndex

	// blits caches the blocking literal relaxing each multi-literal
	// soft clause, so a clause shared across objectives reuses its
	// blit and the objective literal is shared.
	blits map[string]varmgr.Lit

	// maxOrigVar is the boundary between original variables (blits
	// included) and auxiliary variables; frozen at the end of init.
	maxOrigVar  varmgr.Var
	hasOrigVars bool

	bcg   BlockingClauseGen
	front ParetoFront
	opts  Options
	stats Stats
	lims  limState

	loggers []Logger
	termCB  func() oracle.ControlSignal
}

// InitWithOptions constructs a solver over inst, loading the hard and
// relaxed soft clauses into o. The oracle must not have any clauses
// loaded yet. A nil bcg falls back to DefaultBlockingClauseGen.
func InitWithOptions(inst Instance, o oracle.Oracle, opts Options, bcg BlockingClauseGen) (*Solver, error) {
	if bcg == nil {
		bcg = DefaultBlockingClauseGen
	}
	s := &Solver{
		oracle: o,
		vm:     varmgr.NewManager(),
		idx:    newLitIndex(),
		blits:  make(map[string]varmgr.Lit),
		bcg:    bcg,
		opts:   opts,
	}
	if err := s.init(inst); err != nil {
		return nil, err
	}
	return s, nil
}

// New constructs a solver with default options and blocking clause
// generator.
func New(inst Instance, o oracle.Oracle) (*Solver, error) {
	return InitWithOptions(inst, o, Options{}, nil)
}

func (s *Solver) init(inst Instance) error {
	for i := 0; i < inst.NumVars; i++ {
		s.vm.NewVar()
	}
	s.stats.NObjs = len(inst.Objectives)
	s.stats.NOrigClauses = len(inst.Hard)

	// Relax the soft clauses of every objective; the relaxed forms
	// join the hard CNF below.
	var relaxed []oracle.Clause
	for objIdx, spec := range inst.Objectives {
		cls, err := s.addObjective(objIdx, spec)
		if err != nil {
			return err
		}
		relaxed = append(relaxed, cls...)
	}

	if s.opts.storeClauses() {
		// Soft clauses may mention objective literals of other
		// objectives; those links only become complete now.
		s.idx.backlinkStored()
		for _, c := range inst.Hard {
			s.idx.addObjClause(c)
		}
	}

	// Freeze the original-variable boundary before any encoder
	// variable exists.
	if mv, ok := s.vm.MaxVar(); ok {
		s.maxOrigVar = mv
		s.hasOrigVars = true
		if err := s.oracle.Reserve(mv); err != nil {
			return err
		}
	}
	if s.opts.ReserveEncVars {
		for _, a := range s.objEncs {
			a.reserve(s.vm)
		}
	}

	s.dom = newDominanceEngine(s.objEncs, s.vm, s.oracle, s.opts.CoarseConvergence)

	if err := s.oracle.AddCNF(inst.Hard); err != nil {
		return err
	}
	return s.oracle.AddCNF(relaxed)
}

// addObjective relaxes one objective's soft clauses, registers its
// objective literals, classifies it, and constructs its encoding
// adapter. It returns the relaxed clauses that must reach the oracle.
func (s *Solver) addObjective(objIdx int, spec ObjectiveSpec) ([]oracle.Clause, error) {
	var relaxed []oracle.Clause
	pairs := make([]objective.WeightedLit, 0, len(spec.Softs))
	for _, soft := range spec.Softs {
		olit, relaxedCl := s.addSoftClause(soft.Lits)
		s.idx.addObjLit(olit, objIdx)
		if relaxedCl != nil {
			relaxed = append(relaxed, relaxedCl)
		}
		pairs = append(pairs, objective.WeightedLit{Lit: olit, Weight: soft.Weight})
	}
	obj, err := objective.New(spec.Offset, pairs)
	if err != nil {
		return nil, err
	}
	s.objEncs = append(s.objEncs, newObjAdapter(spec, obj))
	return relaxed, nil
}

// addSoftClause turns one soft clause into its objective literal. A
// unit clause (l) costs its weight exactly when l is false, so ¬l is
// the objective literal and no relaxation is needed. A longer clause
// gets a fresh blit appended; the relaxed clause is returned for the
// oracle, and the unrelaxed form is stored for flip-witness lookups.
func (s *Solver) addSoftClause(cls []varmgr.Lit) (varmgr.Lit, oracle.Clause) {
	if len(cls) == 1 {
		return cls[0].Negate(), nil
	}
	key := clauseKey(cls)
	if blit, ok := s.blits[key]; ok {
		return blit, nil
	}
	blit := s.vm.NewVar().Pos()
	s.blits[key] = blit
	if s.opts.storeClauses() {
		ci := s.idx.appendClause(append(oracle.Clause(nil), cls...))
		s.idx.linkLitClause(blit, ci)
	}
	relaxed := append(append(oracle.Clause(nil), cls...), blit)
	return blit, relaxed
}

// clauseKey is the canonical map key for a soft clause: literal order
// does not distinguish clauses.
func clauseKey(cls []varmgr.Lit) string {
	sorted := append([]varmgr.Lit(nil), cls...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var b strings.Builder
	for i, l := range sorted {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(l.String())
	}
	return b.String()
}

// Solve runs the search under the given limits. It returns the typed
// termination (Success when the front is complete) and a non-nil
// error only for fatal oracle or encoder failures.
func (s *Solver) Solve(lims Limits) (Termination, error) {
	s.stats.NSolveCalls++
	s.lims = newLimState(lims)
	err := s.algMain()
	if err == nil {
		return Termination{Code: Success}, nil
	}
	var term *Termination
	if errors.As(err, &term) {
		return *term, nil
	}
	return Termination{}, err
}

// ParetoFront returns a snapshot of the points accumulated so far.
func (s *Solver) ParetoFront() ParetoFront {
	return s.front.clone()
}

// Stats returns the running counters.
func (s *Solver) Stats() Stats { return s.stats }

// OracleStats returns the backend's counters if the oracle implements
// the extended-statistics facet.
func (s *Solver) OracleStats() (oracle.SolverStats, bool) {
	so, ok := s.oracle.(oracle.StatsOracle)
	if !ok {
		return oracle.SolverStats{}, false
	}
	return so.Stats(), true
}

// EncodingStats describes each objective encoding.
func (s *Solver) EncodingStats() []EncodingStats {
	out := make([]EncodingStats, len(s.objEncs))
	for i, a := range s.objEncs {
		out[i] = a.encodingStats()
	}
	return out
}

// AttachLogger registers an observer and returns its id. Detached
// slots are reused.
func (s *Solver) AttachLogger(l Logger) LoggerID {
	for i, slot := range s.loggers {
		if slot == nil {
			s.loggers[i] = l
			return LoggerID(i)
		}
	}
	s.loggers = append(s.loggers, l)
	return LoggerID(len(s.loggers) - 1)
}

// DetachLogger removes the observer with the given id, returning it,
// or nil if the id is unknown.
func (s *Solver) DetachLogger(id LoggerID) Logger {
	if int(id) < 0 || int(id) >= len(s.loggers) {
		return nil
	}
	l := s.loggers[int(id)]
	s.loggers[int(id)] = nil
	return l
}

// AttachTerminator installs a callback polled between phases and
// forwarded to the oracle for interruption during search.
func (s *Solver) AttachTerminator(fn func() oracle.ControlSignal) {
	s.termCB = fn
	s.oracle.AttachTerminator(fn)
}

// DetachTerminator removes the core's callback. The oracle keeps the
// last attached terminator until a new one replaces it.
func (s *Solver) DetachTerminator() { s.termCB = nil }

// algMain is the outer loop: find a feasible starting point, minimize
// it to a Pareto point, enumerate there, commit the retractable block,
// repeat until the oracle is unsatisfiable.
func (s *Solver) algMain() error {
	// Empty encoding: the only model is the empty assignment, whose
	// costs are the objective offsets.
	if !s.hasOrigVars {
		if len(s.front.Points) == 0 {
			pp := NonDomPoint{Cost: s.externalizeCosts(make([]int, len(s.objEncs)))}
			pp.Solutions = append(pp.Solutions, oracle.NewAssignment(0))
			if err := s.logSolution(); err != nil {
				return err
			}
			if err := s.logParetoPoint(pp); err != nil {
				s.front.add(pp)
				return err
			}
			s.front.add(pp)
		}
		return nil
	}
	for {
		res, err := s.oracle.Solve()
		if err != nil {
			return err
		}
		if err := s.logOracleCall(res, PhaseOuterLoop); err != nil {
			return err
		}
		if res == oracle.Unsat {
			return nil
		}
		if res == oracle.Interrupted {
			return terminate(Callback)
		}
		if err := s.checkTerminator(); err != nil {
			return err
		}

		costs, sol, err := s.solutionAndInternalCosts(PhaseOuterLoop)
		if err != nil {
			return err
		}
		if err := s.logCandidate(costs, PhaseOuterLoop); err != nil {
			return err
		}
		if err := s.checkTerminator(); err != nil {
			return err
		}
		if err := s.phaseSolution(sol); err != nil {
			return err
		}

		costs, sol, blockSwitch, err := s.pMinimization(costs, sol)
		if err != nil {
			return err
		}
		if err := s.enumerateAtParetoPoint(costs, sol); err != nil {
			return err
		}

		// Commit the retractable block of the finished point so its
		// dominated region stays excluded from the next outer call.
		if blockSwitch != 0 {
			if err := s.oracle.AddUnit(blockSwitch); err != nil {
				return err
			}
		}
	}
}

// pMinimization repeatedly searches for an assignment strictly
// dominating the current cost tuple until none exists. It returns the
// Pareto-minimal costs, a witnessing assignment, and the activation
// literal of the still-retractable dominance block (0 when
// enumeration is disabled and the block was added permanently).
func (s *Solver) pMinimization(costs []int, sol oracle.Assignment) ([]int, oracle.Assignment, varmgr.Lit, error) {
	var blockSwitch varmgr.Lit
	for {
		assumps, err := s.dom.enforceDominating(costs)
		if err != nil {
			return nil, oracle.Assignment{}, 0, err
		}
		if s.opts.Enumeration.Mode == NoEnum {
			// No enumeration at the Pareto point, so the dominated
			// region can be blocked for good right away.
			clause, err := s.dom.dominatedBlockClause(costs)
			if err != nil {
				return nil, oracle.Assignment{}, 0, err
			}
			if err := s.oracle.AddClause(clause); err != nil {
				return nil, oracle.Assignment{}, 0, err
			}
		} else {
			if blockSwitch != 0 {
				if err := s.oracle.AddUnit(blockSwitch); err != nil {
					return nil, oracle.Assignment{}, 0, err
				}
			}
			blockSwitch, err = s.dom.tmpBlockDominated(costs)
			if err != nil {
				return nil, oracle.Assignment{}, 0, err
			}
			assumps = append(assumps, blockSwitch)
		}

		res, err := s.oracle.SolveAssumps(assumps)
		if err != nil {
			return nil, oracle.Assignment{}, 0, err
		}
		if res == oracle.Interrupted {
			return nil, oracle.Assignment{}, 0, terminate(Callback)
		}
		if err := s.logOracleCall(res, PhaseMinimization); err != nil {
			return nil, oracle.Assignment{}, 0, err
		}
		if res == oracle.Unsat {
			// costs is P-minimal.
			return costs, sol, blockSwitch, nil
		}
		if err := s.checkTerminator(); err != nil {
			return nil, oracle.Assignment{}, 0, err
		}

		costs, sol, err = s.solutionAndInternalCosts(PhaseMinimization)
		if err != nil {
			return nil, oracle.Assignment{}, 0, err
		}
		if err := s.logCandidate(costs, PhaseMinimization); err != nil {
			return nil, oracle.Assignment{}, 0, err
		}
		if err := s.checkTerminator(); err != nil {
			return nil, oracle.Assignment{}, 0, err
		}
		if err := s.phaseSolution(sol); err != nil {
			return nil, oracle.Assignment{}, 0, err
		}
	}
}

// enumerateAtParetoPoint emits the witnessing assignments of one
// Pareto-minimal cost tuple, blocking each and re-solving under the
// dominance assumptions until the configured mode stops or the oracle
// runs dry, then appends the point to the front.
func (s *Solver) enumerateAtParetoPoint(costs []int, sol oracle.Assignment) error {
	if err := s.unphaseSolution(); err != nil {
		return err
	}

	assumps, err := s.dom.enforceDominating(costs)
	if err != nil {
		return err
	}

	pp := NonDomPoint{Cost: s.externalizeCosts(costs)}
	sol = sol.Truncate(s.maxOrigVar)

	for {
		pp.Solutions = append(pp.Solutions, sol)
		if err := s.logSolution(); err != nil {
			// Keep the partially enumerated point: its solutions are
			// valid witnesses even when a limit cuts the run short.
			ppErr := s.logParetoPoint(pp)
			s.front.add(pp)
			if ppErr != nil {
				return ppErr
			}
			return err
		}
		done := false
		switch s.opts.Enumeration.Mode {
		case NoEnum:
			done = true
		case SolutionsEnum, PMCSsEnum:
			lim := s.opts.Enumeration.Limit
			done = lim != nil && len(pp.Solutions) >= *lim
		}
		if done {
			ppErr := s.logParetoPoint(pp)
			s.front.add(pp)
			return ppErr
		}
		if err := s.checkTerminator(); err != nil {
			return err
		}

		switch s.opts.Enumeration.Mode {
		case SolutionsEnum:
			if err := s.oracle.AddClause(s.bcg(sol, s.maxOrigVar)); err != nil {
				return err
			}
		case PMCSsEnum:
			clause, ok := blockParetoMcs(s.idx, sol)
			if !ok {
				panic("pminimal: tautological Pareto-MCS blocking clause")
			}
			if err := s.oracle.AddClause(clause); err != nil {
				return err
			}
		}

		res, err := s.oracle.SolveAssumps(assumps)
		if err != nil {
			return err
		}
		if res == oracle.Interrupted {
			return terminate(Callback)
		}
		if err := s.logOracleCall(res, PhaseEnumeration); err != nil {
			return err
		}
		if res == oracle.Unsat {
			ppErr := s.logParetoPoint(pp)
			s.front.add(pp)
			return ppErr
		}
		if err := s.checkTerminator(); err != nil {
			return err
		}
		sol, err = s.oracle.Solution(s.maxOrigVar)
		if err != nil {
			return err
		}
	}
}

// externalizeCosts applies each objective's offset and unit weight to
// an internal cost tuple.
func (s *Solver) externalizeCosts(costs []int) []int {
	out := make([]int, len(costs))
	for i, c := range costs {
		out[i] = s.objEncs[i].internalToExternal(c)
	}
	return out
}

// phaseSolution pins the oracle's decision polarities to the
// candidate when solution-guided search is on.
func (s *Solver) phaseSolution(sol oracle.Assignment) error {
	if !s.opts.SolutionGuidedSearch {
		return nil
	}
	for _, l := range sol.Lits() {
		if err := s.oracle.PhaseLit(l); err != nil {
			return err
		}
	}
	return nil
}

// unphaseSolution clears every pinned polarity so enumeration at a
// Pareto point explores diverse assignments.
func (s *Solver) unphaseSolution() error {
	if !s.opts.SolutionGuidedSearch {
		return nil
	}
	mv, ok := s.vm.MaxVar()
	if !ok {
		return nil
	}
	for v := varmgr.Var(0); v <= mv; v++ {
		if err := s.oracle.UnphaseVar(v); err != nil {
			return err
		}
	}
	return nil
}

// checkTerminator polls the termination callback between phases.
func (s *Solver) checkTerminator() error {
	if s.termCB != nil && s.termCB() == oracle.Terminate {
		return terminate(Callback)
	}
	return nil
}

// logCandidate dispatches a candidate event and spends the candidate
// budget.
func (s *Solver) logCandidate(costs []int, phase SearchPhase) error {
	s.stats.NCandidates++
	ext := s.externalizeCosts(costs)
	for _, l := range s.loggers {
		if l == nil {
			continue
		}
		if err := l.Candidate(ext, phase); err != nil {
			return &Termination{Code: LoggerError, Err: err}
		}
	}
	if spend(s.lims.candidates) {
		return terminate(CandidatesLimit)
	}
	return nil
}

// logOracleCall dispatches an oracle-call event and spends the
// oracle-call budget.
func (s *Solver) logOracleCall(res oracle.Result, phase SearchPhase) error {
	s.stats.NOracleCalls++
	for _, l := range s.loggers {
		if l == nil {
			continue
		}
		if err := l.OracleCall(res, phase); err != nil {
			return &Termination{Code: LoggerError, Err: err}
		}
	}
	if spend(s.lims.oracleCalls) {
		return terminate(OracleCallsLimit)
	}
	return nil
}

// logSolution dispatches a solution event and spends the solution
// budget.
func (s *Solver) logSolution() error {
	s.stats.NSolutions++
	for _, l := range s.loggers {
		if l == nil {
			continue
		}
		if err := l.Solution(); err != nil {
			return &Termination{Code: LoggerError, Err: err}
		}
	}
	if spend(s.lims.sols) {
		return terminate(SolsLimit)
	}
	return nil
}

// logParetoPoint dispatches a Pareto-point event and spends the point
// budget.
func (s *Solver) logParetoPoint(pp NonDomPoint) error {
	s.stats.NParetoPoints++
	for _, l := range s.loggers {
		if l == nil {
			continue
		}
		if err := l.ParetoPoint(pp); err != nil {
			return &Termination{Code: LoggerError, Err: err}
		}
	}
	if spend(s.lims.pps) {
		return terminate(PPLimit)
	}
	return nil
}

// logHeuristicImprovement dispatches a tightening/learning event.
func (s *Solver) logHeuristicImprovement(objIdx, apparent, improved, learned int) error {
	for _, l := range s.loggers {
		if l == nil {
			continue
		}
		if err := l.HeuristicImprovement(objIdx, apparent, improved, learned); err != nil {
			return &Termination{Code: LoggerError, Err: err}
		}
	}
	return nil
}
