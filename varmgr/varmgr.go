// Package varmgr provides the variable and literal primitives shared by
// every layer of the solver, along with a monotone variable allocator.
//
// Variables are 0-based. A Lit encodes a variable together with its
// polarity using the conventional DIMACS-style signed representation
// (positive integers for positive literals, negation for the negated
// form), which makes Lit negation an O(1) sign flip.
package varmgr

import "fmt"

// Var identifies a Boolean variable. Variables are allocated in
// increasing order starting at 0 and are never reused or renumbered.
type Var int32

// Lit is a signed literal over a Var. The zero value is not a valid
// literal; valid literals start at 1 in absolute value.
type Lit int32

// Pos returns the positive literal for v.
func (v Var) Pos() Lit { return Lit(v + 1) }

// Neg returns the negative literal for v.
func (v Var) Neg() Lit { return Lit(-(v + 1)) }

// String renders the variable as "x<n>".
func (v Var) String() string { return fmt.Sprintf("x%d", int32(v)) }

// Var returns the underlying variable of a literal.
func (l Lit) Var() Var {
	if l < 0 {
		return Var(-l - 1)
	}
	return Var(l - 1)
}

// IsPos reports whether l is an unnegated literal.
func (l Lit) IsPos() bool { return l > 0 }

// Negate returns the complement of l in O(1).
func (l Lit) Negate() Lit { return -l }

// String renders the literal in DIMACS-like form, e.g. "3" or "-3".
func (l Lit) String() string {
	v := l.Var()
	if l.IsPos() {
		return fmt.Sprintf("%d", int32(v)+1)
	}
	return fmt.Sprintf("-%d", int32(v)+1)
}

// Manager is a monotone allocator of fresh variables. It never reuses
// or renumbers a variable once handed out.
type Manager struct {
	next Var
}

// NewManager returns an empty variable manager.
func NewManager() *Manager {
	return &Manager{next: 0}
}

// NewVar allocates and returns a fresh variable.
func (m *Manager) NewVar() Var {
	v := m.next
	m.next++
	return v
}

// MaxVar returns the highest variable allocated so far. The second
// return value is false if no variable has been allocated yet.
func (m *Manager) MaxVar() (Var, bool) {
	if m.next == 0 {
		return 0, false
	}
	return m.next - 1, true
}

// NVars returns the number of variables allocated so far.
func (m *Manager) NVars() int {
	return int(m.next)
}
