package objective

import (
	"testing"

	"github.com/xDarkicex/pminimal/varmgr"
)

func TestNewEmptyIsConstant(t *testing.T) {
	obj, err := New(4, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if obj.Kind() != Constant {
		t.Fatalf("Kind() = %v, want Constant", obj.Kind())
	}
	if got := obj.Value(func(varmgr.Lit) bool { return false }); got != 4 {
		t.Fatalf("Value() = %d, want 4", got)
	}
}

func TestNewUniformWeightsIsUnweighted(t *testing.T) {
	x0, x1 := varmgr.Var(0), varmgr.Var(1)
	obj, err := New(0, []WeightedLit{{x0.Pos(), 1}, {x1.Pos(), 1}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if obj.Kind() != Unweighted {
		t.Fatalf("Kind() = %v, want Unweighted", obj.Kind())
	}
	if obj.UnitWeight != 1 {
		t.Fatalf("UnitWeight = %d, want 1", obj.UnitWeight)
	}
}

func TestNewSingleLiteralHeavyWeightIsUnweighted(t *testing.T) {
	x0 := varmgr.Var(0)
	obj, err := New(0, []WeightedLit{{x0.Pos(), 5}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if obj.Kind() != Unweighted {
		t.Fatalf("Kind() = %v, want Unweighted (a lone literal is trivially uniform)", obj.Kind())
	}
	if obj.UnitWeight != 5 {
		t.Fatalf("UnitWeight = %d, want 5", obj.UnitWeight)
	}
}

func TestNewDifferingWeightsIsWeighted(t *testing.T) {
	x0, x1 := varmgr.Var(0), varmgr.Var(1)
	obj, err := New(0, []WeightedLit{{x0.Pos(), 2}, {x1.Pos(), 3}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if obj.Kind() != Weighted {
		t.Fatalf("Kind() = %v, want Weighted", obj.Kind())
	}
}

func TestNewDeduplicatesLiteralsBySummingWeights(t *testing.T) {
	x0 := varmgr.Var(0)
	obj, err := New(0, []WeightedLit{{x0.Pos(), 2}, {x0.Pos(), 3}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(obj.Lits) != 1 {
		t.Fatalf("expected literals to be deduplicated, got %v", obj.Lits)
	}
	if obj.Lits[0].Weight != 5 {
		t.Fatalf("duplicate weight = %d, want summed to 5", obj.Lits[0].Weight)
	}
}

func TestNewRejectsNonPositiveWeight(t *testing.T) {
	x0 := varmgr.Var(0)
	if _, err := New(0, []WeightedLit{{x0.Pos(), 0}}); err != ErrNonPositiveWeight {
		t.Fatalf("New with zero weight error = %v, want ErrNonPositiveWeight", err)
	}
	if _, err := New(0, []WeightedLit{{x0.Pos(), -1}}); err != ErrNonPositiveWeight {
		t.Fatalf("New with negative weight error = %v, want ErrNonPositiveWeight", err)
	}
}

func TestValueWeighted(t *testing.T) {
	x0, x1 := varmgr.Var(0), varmgr.Var(1)
	obj, err := New(5, []WeightedLit{{x0.Pos(), 2}, {x1.Pos(), 3}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	trueSet := map[varmgr.Lit]bool{x0.Pos(): true}
	got := obj.Value(func(l varmgr.Lit) bool { return trueSet[l] })
	if got != 7 {
		t.Fatalf("Value() = %d, want 5+2=7", got)
	}
}
