package encoding

import (
	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal/varmgr"
)

// regKey indexes one register of the sequential counter table: r[i][j]
// stands for "at least j of the first i literals are true".
type regKey struct{ i, j int }

// SeqCounter is a one-directional Sinz sequential counter over a fixed
// set of literals, each contributing weight 1. It supports incremental
// growth of the upper-bound range it can certify.
type SeqCounter struct {
	lits []varmgr.Lit
	reg  map[regKey]varmgr.Lit

	// encodedCols is the highest register column for which clauses
	// have already been emitted; 0 means none.
	encodedCols int
	nClauses    int
}

// NewSeqCounter builds a cardinality encoder over lits, where each lit
// being true counts 1 toward the sum.
func NewSeqCounter(lits []varmgr.Lit) *SeqCounter {
	return &SeqCounter{
		lits: append([]varmgr.Lit(nil), lits...),
		reg:  make(map[regKey]varmgr.Lit),
	}
}

func (s *SeqCounter) n() int { return len(s.lits) }

// Max implements Encoder.
func (s *SeqCounter) Max() int { return s.n() }

func (s *SeqCounter) regVar(i, j int, vm *varmgr.Manager) varmgr.Lit {
	k := regKey{i, j}
	if l, ok := s.reg[k]; ok {
		return l
	}
	l := vm.NewVar().Pos()
	s.reg[k] = l
	return l
}

// mustReg looks up an already-allocated register, without ever
// allocating: callers use it once they know EncodeUBChange already
// covers the column in question.
func (s *SeqCounter) mustReg(i, j int) varmgr.Lit {
	l, ok := s.reg[regKey{i, j}]
	if !ok {
		panic("encoding: register accessed before it was encoded")
	}
	return l
}

// Reserve implements Encoder: it eagerly allocates every register
// r[i][j] with 1 <= j <= i <= n, the most this encoder will ever need.
func (s *SeqCounter) Reserve(vm *varmgr.Manager) {
	n := s.n()
	for i := 1; i <= n; i++ {
		for j := 1; j <= i; j++ {
			s.regVar(i, j, vm)
		}
	}
}

// EncodeUBChange implements Encoder.
func (s *SeqCounter) EncodeUBChange(r Range, sink ClauseSink, vm *varmgr.Manager) error {
	n := s.n()
	target := r.Hi + 1
	if target > n {
		target = n
	}
	if target <= s.encodedCols {
		return nil
	}
	emit := func(c oracle.Clause) {
		s.nClauses++
		sink(c)
	}
	for col := s.encodedCols + 1; col <= target; col++ {
		for i := col; i <= n; i++ {
			rij := s.regVar(i, col, vm)

			// r[i][col] <= r[i-1][col]: carrying an already-satisfied
			// count forward never loses it.
			if i-1 >= col {
				rim1j := s.regVar(i-1, col, vm)
				emit(oracle.Clause{rim1j.Negate(), rij})
			}

			// r[i][col] <= x_i AND r[i-1][col-1]: the i-th literal
			// supplies the last count needed. When col == 1 the
			// predecessor register is the vacuous "0 of 0 true" case
			// and drops out of the clause entirely.
			if col == 1 {
				emit(oracle.Clause{s.lits[i-1].Negate(), rij})
			} else {
				rim1jm1 := s.regVar(i-1, col-1, vm)
				emit(oracle.Clause{s.lits[i-1].Negate(), rim1jm1.Negate(), rij})
			}
		}
	}
	s.encodedCols = target
	return nil
}

// EnforceUB implements Encoder.
func (s *SeqCounter) EnforceUB(k int) ([]varmgr.Lit, error) {
	if k < 0 {
		return nil, ErrUnsat
	}
	n := s.n()
	if k >= n {
		return nil, nil
	}
	col := k + 1
	if col > s.encodedCols {
		panic("encoding: EnforceUB called before EncodeUBChange covered this range")
	}
	lit := s.mustReg(n, col)
	return []varmgr.Lit{lit.Negate()}, nil
}

// NextHigher implements Encoder: cardinality values are consecutive
// integers, so the next representable value always collapses to k+1.
func (s *SeqCounter) NextHigher(k int) int { return k + 1 }

// CoarseUB implements Encoder. Every non-negative integer up to n is
// reachable, so there are no unreachable values to skip.
func (s *SeqCounter) CoarseUB(k int) int {
	if k < 0 {
		return 0
	}
	if k > s.n() {
		return s.n()
	}
	return k
}

// NClauses implements Encoder.
func (s *SeqCounter) NClauses() int { return s.nClauses }

// NVars implements Encoder.
func (s *SeqCounter) NVars() int { return len(s.reg) }
