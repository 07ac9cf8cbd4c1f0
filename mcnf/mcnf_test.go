package mcnf

import (
	"errors"
	"testing"

	"github.com/xDarkicex/pminimal"
	"github.com/xDarkicex/pminimal/dpll"
	"github.com/xDarkicex/pminimal/varmgr"
)

const tradeOff = `c minimize x and y under (x or y)
p mcnf 2 1 2
h 1 2 0
o1 1 -1 0
o2 1 -2 0
`

func TestParseTradeOffInstance(t *testing.T) {
	inst, err := ParseString(tradeOff)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if inst.NumVars != 2 {
		t.Fatalf("NumVars = %d, want 2", inst.NumVars)
	}
	if len(inst.Hard) != 1 || len(inst.Hard[0]) != 2 {
		t.Fatalf("Hard = %v, want one binary clause", inst.Hard)
	}
	if len(inst.Objectives) != 2 {
		t.Fatalf("Objectives = %d, want 2", len(inst.Objectives))
	}
	for i, obj := range inst.Objectives {
		if len(obj.Softs) != 1 || obj.Softs[0].Weight != 1 {
			t.Fatalf("objective %d = %+v, want one unit-weight soft clause", i, obj)
		}
	}
	if inst.Objectives[0].Softs[0].Lits[0] != varmgr.Lit(-1) {
		t.Fatalf("objective 1 soft literal = %v, want -1", inst.Objectives[0].Softs[0].Lits[0])
	}
}

func TestParsedInstanceSolves(t *testing.T) {
	inst, err := ParseString(tradeOff)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	s, err := pminimal.New(inst, dpll.NewSolver())
	if err != nil {
		t.Fatalf("pminimal.New: %v", err)
	}
	term, err := s.Solve(pminimal.Limits{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if term.Code != pminimal.Success {
		t.Fatalf("termination = %v, want Success", term.Code)
	}
	front := s.ParetoFront()
	if len(front.Points) != 2 {
		t.Fatalf("front has %d points, want 2", len(front.Points))
	}
	if !front.CheckInvariant() {
		t.Fatalf("front violates the Pareto invariant: %+v", front.Points)
	}
}

func TestParseBareClausesAreHard(t *testing.T) {
	inst, err := ParseString("1 -2 0\n-1 2 0\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if len(inst.Hard) != 2 || inst.NumVars != 2 {
		t.Fatalf("got %d hard clauses over %d vars, want 2 over 2", len(inst.Hard), inst.NumVars)
	}
	if len(inst.Objectives) != 0 {
		t.Fatalf("expected no objectives, got %d", len(inst.Objectives))
	}
}

func TestParseHeaderRaisesVarCount(t *testing.T) {
	inst, err := ParseString("p mcnf 7 1 0\n1 0\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if inst.NumVars != 7 {
		t.Fatalf("NumVars = %d, want 7 from the header", inst.NumVars)
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	cases := []string{
		"o1 0 1 0\n",  // zero weight
		"o1 -3 1 0\n", // negative weight
		"ox 1 1 0\n",  // bad objective tag
		"1 2\n",       // missing terminating 0
		"1 0 2 0\n",   // literals after terminator
		"h 1 q 0\n",   // non-numeric literal
	}
	for _, in := range cases {
		if _, err := ParseString(in); !errors.Is(err, ErrSyntax) {
			t.Fatalf("input %q: err = %v, want ErrSyntax", in, err)
		}
	}
}
