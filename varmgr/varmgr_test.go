package varmgr

import "testing"

func TestLitNegationIsInvolution(t *testing.T) {
	v := Var(3)
	pos := v.Pos()
	neg := v.Neg()
	if pos.Negate() != neg {
		t.Fatalf("pos.Negate() = %v, want %v", pos.Negate(), neg)
	}
	if neg.Negate() != pos {
		t.Fatalf("neg.Negate() = %v, want %v", neg.Negate(), pos)
	}
	if pos.Var() != v || neg.Var() != v {
		t.Fatalf("negation changed the underlying variable")
	}
	if !pos.IsPos() || neg.IsPos() {
		t.Fatalf("polarity mismatch: pos=%v neg=%v", pos.IsPos(), neg.IsPos())
	}
}

func TestManagerIsMonotone(t *testing.T) {
	m := NewManager()
	if _, ok := m.MaxVar(); ok {
		t.Fatalf("expected no max var on empty manager")
	}
	var vars []Var
	for i := 0; i < 5; i++ {
		vars = append(vars, m.NewVar())
	}
	for i, v := range vars {
		if int(v) != i {
			t.Fatalf("variable %d allocated out of order: got %v", i, v)
		}
	}
	max, ok := m.MaxVar()
	if !ok || max != vars[len(vars)-1] {
		t.Fatalf("MaxVar() = %v, %v; want %v, true", max, ok, vars[len(vars)-1])
	}
	if m.NVars() != 5 {
		t.Fatalf("NVars() = %d, want 5", m.NVars())
	}
}
