// Package pminimal implements the P-minimization search loop: given a
// hard constraint system and several weighted-literal objectives, it
// enumerates the Pareto front of the multi-objective optimization
// problem by repeatedly driving an incremental decision oracle.
package pminimal

import (
	"fmt"

	"github.com/xDarkicex/pminimal/objective"
	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal/varmgr"
)

// EncoderKind selects which upper-bound encoder flavor an objective
// uses. Auto picks cardinality for Unweighted/Constant objectives and
// pseudo-Boolean for Weighted ones, which is always sound; callers may
// still force a flavor.
type EncoderKind int

const (
	EncoderAuto EncoderKind = iota
	EncoderCardinality
	EncoderPseudoBoolean
)

// SoftClause is one weighted term of an objective as supplied by the
// caller, before relaxation. A unit soft clause (l) contributes the
// objective literal ¬l directly; a longer clause is relaxed with a
// fresh blit, which becomes the objective literal instead.
type SoftClause struct {
	Lits   []varmgr.Lit
	Weight int
}

// ObjectiveSpec is the caller-supplied description of one objective:
// an offset plus a set of weighted soft clauses, and (optionally) an
// explicit encoder flavor.
type ObjectiveSpec struct {
	Offset int
	Softs  []SoftClause
	Kind   EncoderKind
}

// MinimizeLits is a convenience constructor for the common case of an
// objective that is a plain weighted sum of literals: each literal
// becomes a unit soft clause (¬l), so l itself is the objective
// literal.
func MinimizeLits(offset int, lits []objective.WeightedLit) ObjectiveSpec {
	spec := ObjectiveSpec{Offset: offset}
	for _, wl := range lits {
		spec.Softs = append(spec.Softs, SoftClause{Lits: []varmgr.Lit{wl.Lit.Negate()}, Weight: wl.Weight})
	}
	return spec
}

// Instance is everything the solver needs to start: the number of
// original (user-visible) variables, the hard CNF over them, and the
// objective specs.
type Instance struct {
	NumVars    int
	Hard       []oracle.Clause
	Objectives []ObjectiveSpec
}

// SearchPhase names the part of the search loop an event happened in.
// It doubles as the key deciding whether a heuristic-improvement pass
// runs at that point.
type SearchPhase int

const (
	PhaseOuterLoop SearchPhase = iota
	PhaseMinimization
	PhaseEnumeration
)

func (p SearchPhase) String() string {
	switch p {
	case PhaseOuterLoop:
		return "OuterLoop"
	case PhaseMinimization:
		return "Minimization"
	case PhaseEnumeration:
		return "Enumeration"
	default:
		return fmt.Sprintf("SearchPhase(%d)", int(p))
	}
}

// PhaseSet is a small set of SearchPhase values.
type PhaseSet map[SearchPhase]bool

// Has reports whether p is a member of the set. A nil set has no
// members.
func (s PhaseSet) Has(p SearchPhase) bool { return s != nil && s[p] }

// AllPhases is a convenience PhaseSet with every phase enabled.
func AllPhases() PhaseSet {
	return PhaseSet{PhaseOuterLoop: true, PhaseMinimization: true, PhaseEnumeration: true}
}

// OuterLoopOnly enables a pass only on candidates produced by the
// unassumed outer oracle call.
func OuterLoopOnly() PhaseSet {
	return PhaseSet{PhaseOuterLoop: true}
}

// EnumMode selects what happens after a Pareto-minimal point is
// found: stop at one solution, enumerate all witnessing solutions, or
// enumerate Pareto-minimal correction subsets.
type EnumMode int

const (
	NoEnum EnumMode = iota
	SolutionsEnum
	PMCSsEnum
)

// EnumOptions configures per-point enumeration. A nil Limit is
// unlimited.
type EnumOptions struct {
	Mode  EnumMode
	Limit *int
}

// Options configures a Solver's behavior. The zero value is a
// reasonable, conservative default: no enumeration beyond one
// solution per point, tightening and learning off, no phase pinning.
type Options struct {
	Enumeration          EnumOptions
	TighteningPhases     PhaseSet
	LearningPhases       PhaseSet
	ReserveEncVars       bool
	SolutionGuidedSearch bool
	CoarseConvergence    bool
}

// storeClauses reports whether the literal/clause index must record
// objective clauses: both tightening and learning need the clause
// lists to find flip witnesses.
func (o Options) storeClauses() bool {
	return len(o.TighteningPhases) > 0 || len(o.LearningPhases) > 0
}

// Limits bounds a single solve() call. Any nil field is unlimited.
type Limits struct {
	OracleCalls  *int
	Candidates   *int
	Solutions    *int
	ParetoPoints *int
}

// limState is the countdown copy of Limits for one run.
type limState struct {
	oracleCalls *int
	candidates  *int
	sols        *int
	pps         *int
}

func newLimState(l Limits) limState {
	cp := func(p *int) *int {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	return limState{
		oracleCalls: cp(l.OracleCalls),
		candidates:  cp(l.Candidates),
		sols:        cp(l.Solutions),
		pps:         cp(l.ParetoPoints),
	}
}

// spend decrements a countdown and reports whether it just hit zero.
func spend(p *int) bool {
	if p == nil {
		return false
	}
	*p--
	return *p == 0
}

// TerminationCode classifies how solve() stopped.
type TerminationCode int

const (
	Success TerminationCode = iota
	Callback
	OracleCallsLimit
	CandidatesLimit
	SolsLimit
	PPLimit
	LoggerError
)

func (c TerminationCode) String() string {
	switch c {
	case Success:
		return "Success"
	case Callback:
		return "Callback"
	case OracleCallsLimit:
		return "OracleCallsLimit"
	case CandidatesLimit:
		return "CandidatesLimit"
	case SolsLimit:
		return "SolsLimit"
	case PPLimit:
		return "PPLimit"
	case LoggerError:
		return "LoggerError"
	default:
		return "TerminationCode(?)"
	}
}

// Termination is the outcome of a solve() call that did not hit a
// fatal oracle or encoder error. Internally it travels as an error so
// the loop can unwind from any depth; Solve splits it back apart from
// fatal errors at the public boundary.
type Termination struct {
	Code TerminationCode
	// Err holds the logger's returned error when Code == LoggerError.
	Err error
}

func (t *Termination) Error() string {
	if t.Code == LoggerError && t.Err != nil {
		return fmt.Sprintf("termination: %s: %v", t.Code, t.Err)
	}
	return "termination: " + t.Code.String()
}

func terminate(code TerminationCode) error {
	return &Termination{Code: code}
}

// Stats are the running counters exposed by the solver.
type Stats struct {
	NObjs         int
	NOrigClauses  int
	NSolveCalls   int
	NOracleCalls  int
	NCandidates   int
	NSolutions    int
	NParetoPoints int
}

// EncodingStats describes one objective encoding for the
// extended-statistics facet: how many clauses and auxiliary variables
// it has emitted so far, its offset, and the unit weight for
// unweighted objectives (nil otherwise).
type EncodingStats struct {
	NClauses   int
	NVars      int
	Offset     int
	UnitWeight *int
}

// NonDomPoint is one point on the Pareto front: an externalized cost
// tuple together with every witnessing assignment found for it.
type NonDomPoint struct {
	Cost      []int
	Solutions []oracle.Assignment
}

// ParetoFront is the accumulated, ordered set of non-dominated points.
type ParetoFront struct {
	Points []NonDomPoint
}

func leqAll(a, b []int) bool {
	for i := range a {
		if a[i] > b[i] {
			return false
		}
	}
	return true
}

func equalCost(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Dominates reports whether cost a strictly Pareto-dominates cost b:
// componentwise no worse, and not equal.
func Dominates(a, b []int) bool {
	return leqAll(a, b) && !equalCost(a, b)
}

// add appends p to the front. In debug builds callers may additionally
// call CheckInvariant to confirm no two points are comparable.
func (f *ParetoFront) add(p NonDomPoint) {
	f.Points = append(f.Points, p)
}

// clone returns a caller-owned snapshot; the recorded assignments are
// never mutated after insertion, so a shallow point copy suffices.
func (f *ParetoFront) clone() ParetoFront {
	out := ParetoFront{Points: make([]NonDomPoint, len(f.Points))}
	copy(out.Points, f.Points)
	return out
}

// CheckInvariant reports whether the front currently holds the
// Pareto-minimality invariant: no two distinct points have
// componentwise-comparable cost tuples.
func (f *ParetoFront) CheckInvariant() bool {
	for i := range f.Points {
		for j := range f.Points {
			if i == j {
				continue
			}
			a, b := f.Points[i].Cost, f.Points[j].Cost
			if Dominates(a, b) || Dominates(b, a) || equalCost(a, b) {
				return false
			}
		}
	}
	return true
}

// Logger receives search events. Any method may return a non-nil
// error to request that solve() stop with a LoggerError termination.
type Logger interface {
	// Candidate reports a cost tuple (externalized) reached by some
	// model, before it is known to be Pareto-minimal.
	Candidate(costs []int, phase SearchPhase) error
	// OracleCall reports the outcome of one oracle invocation.
	OracleCall(result oracle.Result, phase SearchPhase) error
	// Solution reports that one witnessing assignment was recorded.
	Solution() error
	// ParetoPoint reports a completed point of the front.
	ParetoPoint(p NonDomPoint) error
	// HeuristicImprovement reports a tightening/learning pass over one
	// objective: the internal cost before and after flipping, and how
	// many witness clauses were learned.
	HeuristicImprovement(objIdx, apparentCost, improvedCost, learnedClauses int) error
}

// NopLogger implements Logger with no-ops, useful as an embeddable
// base for callers that only care about one or two events.
type NopLogger struct{}

func (NopLogger) Candidate(costs []int, phase SearchPhase) error { return nil }

func (NopLogger) OracleCall(result oracle.Result, phase SearchPhase) error { return nil }

func (NopLogger) Solution() error { return nil }

func (NopLogger) ParetoPoint(p NonDomPoint) error { return nil }
func (NopLogger) HeuristicImprovement(objIdx, apparent, improved, learned int) error {
	return nil
}

// LoggerID identifies an attached logger so it can be detached later.
type LoggerID int

// BlockingClauseGen produces the clause used to block a just-emitted
// solution during Solutions-mode enumeration. The default generator
// negates the assignment restricted to original variables.
type BlockingClauseGen func(a oracle.Assignment, maxOrigVar varmgr.Var) oracle.Clause

// DefaultBlockingClauseGen negates every literal true in a, up to and
// including maxOrigVar.
func DefaultBlockingClauseGen(a oracle.Assignment, maxOrigVar varmgr.Var) oracle.Clause {
	truncated := a.Truncate(maxOrigVar)
	return oracle.Negated(truncated.Lits())
}
