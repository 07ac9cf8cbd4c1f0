// Package oracle defines the decision-oracle contract the P-minimal
// search loop is built against. The package only carries the shared
// vocabulary, not an implementation: concrete incremental backends
// live in the sibling dpll and cdcl packages and satisfy the Oracle
// interface below.
package oracle

import (
	"fmt"

	"github.com/xDarkicex/pminimal/varmgr"
)

// Result is the outcome of an oracle call.
type Result int

const (
	Sat Result = iota
	Unsat
	Interrupted
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "Sat"
	case Unsat:
		return "Unsat"
	case Interrupted:
		return "Interrupted"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// ControlSignal is returned by a terminator callback to tell the oracle
// whether to keep searching or give up and report Interrupted.
type ControlSignal int

const (
	Continue ControlSignal = iota
	Terminate
)

// Clause is a disjunction of literals. The empty clause is the always
// false clause.
type Clause []varmgr.Lit

// Negated returns a new clause with every literal in lits negated; this
// is the shape of the default blocking clause generator (the negation
// of a full assignment).
func Negated(lits []varmgr.Lit) Clause {
	out := make(Clause, len(lits))
	for i, l := range lits {
		out[i] = l.Negate()
	}
	return out
}

// Normalize deduplicates literals and reports whether the clause is a
// tautology (contains both a literal and its negation), in which case
// it can never usefully be added to the oracle.
func (c Clause) Normalize() (Clause, bool) {
	seen := make(map[varmgr.Lit]bool, len(c))
	out := make(Clause, 0, len(c))
	for _, l := range c {
		if seen[l.Negate()] {
			return nil, true
		}
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out, false
}

// TernaryVal is the value of a literal or variable under a partial
// assignment.
type TernaryVal int

const (
	False TernaryVal = iota
	True
	Unknown
)

// Assignment is a finite partial mapping from variables to {true,
// false, free} with O(1) evaluation of any literal.
type Assignment struct {
	vals []TernaryVal
}

// NewAssignment returns an assignment over the variables 0..n-1, all
// initially unknown.
func NewAssignment(n int) Assignment {
	vals := make([]TernaryVal, n)
	for i := range vals {
		vals[i] = Unknown
	}
	return Assignment{vals: vals}
}

// Set binds v to val.
func (a Assignment) Set(v varmgr.Var, val TernaryVal) {
	a.vals[int(v)] = val
}

// Assign makes l true under the assignment, overwriting any prior
// value of its variable.
func (a Assignment) Assign(l varmgr.Lit) {
	if l.IsPos() {
		a.vals[int(l.Var())] = True
	} else {
		a.vals[int(l.Var())] = False
	}
}

// NVars returns the number of variables this assignment has a slot
// for.
func (a Assignment) NVars() int { return len(a.vals) }

// LitValue evaluates l under the assignment in O(1). Variables beyond
// the assignment's range are Unknown.
func (a Assignment) LitValue(l varmgr.Lit) TernaryVal {
	v := int(l.Var())
	if v >= len(a.vals) {
		return Unknown
	}
	val := a.vals[v]
	if val == Unknown {
		return Unknown
	}
	if l.IsPos() {
		return val
	}
	if val == True {
		return False
	}
	return True
}

// Clone returns an independent copy of the assignment.
func (a Assignment) Clone() Assignment {
	out := make([]TernaryVal, len(a.vals))
	copy(out, a.vals)
	return Assignment{vals: out}
}

// Truncate returns the assignment restricted to variables <= upTo.
func (a Assignment) Truncate(upTo varmgr.Var) Assignment {
	n := int(upTo) + 1
	if n > len(a.vals) {
		n = len(a.vals)
	}
	if n < 0 {
		n = 0
	}
	out := make([]TernaryVal, n)
	copy(out, a.vals[:n])
	return Assignment{vals: out}
}

// Lits returns every literal made true by the assignment, in
// increasing variable order. It is the basis for the default blocking
// clause generator and for Pareto-MCS blocking.
func (a Assignment) Lits() []varmgr.Lit {
	out := make([]varmgr.Lit, 0, len(a.vals))
	for i, v := range a.vals {
		switch v {
		case True:
			out = append(out, varmgr.Var(i).Pos())
		case False:
			out = append(out, varmgr.Var(i).Neg())
		}
	}
	return out
}

// SolverStats carries the optional extended-statistics facet some
// oracles expose.
type SolverStats struct {
	Propagations int64
	Conflicts    int64
	Decisions    int64
	Restarts     int64
}

// Oracle is the incremental decision oracle the core drives. It is a
// pure external collaborator: the core never inspects its internals,
// only the contract below. Implementations must be append-only
// (AddClause/AddUnit/AddCNF never retract earlier clauses) and must
// treat assumption lists passed to SolveAssumps as ephemeral.
type Oracle interface {
	// Solve looks for a model with no assumptions.
	Solve() (Result, error)
	// SolveAssumps looks for a model consistent with assumps. The
	// assumption list does not persist past this call.
	SolveAssumps(assumps []varmgr.Lit) (Result, error)
	// AddClause appends a clause. It must be called before any Solve*
	// call that needs to observe it.
	AddClause(c Clause) error
	// AddUnit is a convenience wrapper equivalent to AddClause with a
	// single-literal clause.
	AddUnit(l varmgr.Lit) error
	// AddCNF appends every clause in cls.
	AddCNF(cls []Clause) error
	// Solution returns the current model, restricted to variables
	// <= upTo. Only valid to call after Solve/SolveAssumps returned
	// Sat.
	Solution(upTo varmgr.Var) (Assignment, error)
	// PhaseLit pins the decision polarity of l's variable to match l.
	PhaseLit(l varmgr.Lit) error
	// UnphaseVar clears any pinned decision polarity for v.
	UnphaseVar(v varmgr.Var) error
	// Reserve pre-allocates internal capacity up to v.
	Reserve(v varmgr.Var) error
	// AttachTerminator installs a callback the oracle polls during
	// search; returning Terminate makes the in-progress Solve* call
	// return Interrupted.
	AttachTerminator(fn func() ControlSignal)
}

// StatsOracle is implemented by oracles that also expose solver
// statistics (the "extended-statistics facet").
type StatsOracle interface {
	Oracle
	Stats() SolverStats
}
