package encoding

import (
	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal/varmgr"
)

// SeqWeightCounter is the pseudo-Boolean generalization of SeqCounter:
// a one-directional sequential weighted counter. Register r[i][j]
// stands for "the weighted sum of the first i literals is >= j",
// built by the same knapsack-style recurrence as the cardinality
// counter but indexed by weight rather than by count.
type SeqWeightCounter struct {
	lits    []varmgr.Lit
	weights []int
	cumW    []int // cumW[i] = sum of weights[0:i], cumW[0] = 0

	reg         map[regKey]varmgr.Lit
	encodedCols int
	nClauses    int
}

// NewSeqWeightCounter builds a pseudo-Boolean encoder where lits[i]
// being true contributes weights[i] to the sum. Weights must be
// positive; the caller (the objective model) is
// responsible for that invariant.
func NewSeqWeightCounter(lits []varmgr.Lit, weights []int) *SeqWeightCounter {
	cumW := make([]int, len(weights)+1)
	for i, w := range weights {
		cumW[i+1] = cumW[i] + w
	}
	return &SeqWeightCounter{
		lits:    append([]varmgr.Lit(nil), lits...),
		weights: append([]int(nil), weights...),
		cumW:    cumW,
		reg:     make(map[regKey]varmgr.Lit),
	}
}

func (s *SeqWeightCounter) n() int { return len(s.lits) }

// Max implements Encoder.
func (s *SeqWeightCounter) Max() int { return s.cumW[s.n()] }

func (s *SeqWeightCounter) regVar(i, j int, vm *varmgr.Manager) varmgr.Lit {
	k := regKey{i, j}
	if l, ok := s.reg[k]; ok {
		return l
	}
	l := vm.NewVar().Pos()
	s.reg[k] = l
	return l
}

func (s *SeqWeightCounter) mustReg(i, j int) varmgr.Lit {
	l, ok := s.reg[regKey{i, j}]
	if !ok {
		panic("encoding: register accessed before it was encoded")
	}
	return l
}

// Reserve implements Encoder: it eagerly allocates one register per
// (prefix i, value j) pair with 1 <= j <= the prefix's weight total,
// the full table this encoder could ever need.
func (s *SeqWeightCounter) Reserve(vm *varmgr.Manager) {
	n := s.n()
	for i := 1; i <= n; i++ {
		for j := 1; j <= s.cumW[i]; j++ {
			s.regVar(i, j, vm)
		}
	}
}

// EncodeUBChange implements Encoder.
func (s *SeqWeightCounter) EncodeUBChange(r Range, sink ClauseSink, vm *varmgr.Manager) error {
	n := s.n()
	total := s.cumW[n]
	target := r.Hi + 1
	if target > total {
		target = total
	}
	if target <= s.encodedCols {
		return nil
	}
	emit := func(c oracle.Clause) {
		s.nClauses++
		sink(c)
	}
	for col := s.encodedCols + 1; col <= target; col++ {
		for i := 1; i <= n; i++ {
			if col > s.cumW[i] {
				continue
			}
			rij := s.regVar(i, col, vm)
			w := s.weights[i-1]

			if col <= s.cumW[i-1] {
				rim1j := s.regVar(i-1, col, vm)
				emit(oracle.Clause{rim1j.Negate(), rij})
			}

			rem := col - w
			switch {
			case rem <= 0:
				emit(oracle.Clause{s.lits[i-1].Negate(), rij})
			case rem <= s.cumW[i-1]:
				rim1rem := s.regVar(i-1, rem, vm)
				emit(oracle.Clause{s.lits[i-1].Negate(), rim1rem.Negate(), rij})
			}
		}
	}
	s.encodedCols = target
	return nil
}

// EnforceUB implements Encoder.
func (s *SeqWeightCounter) EnforceUB(k int) ([]varmgr.Lit, error) {
	if k < 0 {
		return nil, ErrUnsat
	}
	n := s.n()
	total := s.cumW[n]
	if k >= total {
		return nil, nil
	}
	col := k + 1
	if col > s.encodedCols {
		panic("encoding: EnforceUB called before EncodeUBChange covered this range")
	}
	lit := s.mustReg(n, col)
	return []varmgr.Lit{lit.Negate()}, nil
}

// NextHigher implements Encoder. Finding the exact next achievable
// partial sum is a subset-sum query; a safe, always-correct fallback
// is used instead, since NextHigher only feeds the optional
// coarse-convergence traversal, never correctness.
func (s *SeqWeightCounter) NextHigher(k int) int { return k + 1 }

// CoarseUB implements Encoder. Deciding reachability of a weighted
// partial sum is a subset-sum query, so no value is ever skipped; the
// identity on 0..Max is always a sound answer.
func (s *SeqWeightCounter) CoarseUB(k int) int {
	if k < 0 {
		return 0
	}
	if k > s.Max() {
		return s.Max()
	}
	return k
}

// NClauses implements Encoder.
func (s *SeqWeightCounter) NClauses() int { return s.nClauses }

// NVars implements Encoder.
func (s *SeqWeightCounter) NVars() int { return len(s.reg) }
