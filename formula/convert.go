package formula

import (
	"errors"
	"fmt"
	"sort"

	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal/varmgr"
)

// ErrArity is returned when a node carries the wrong number of
// children for its connective.
var ErrArity = errors.New("formula: wrong operand count for connective")

// Converter turns formulas into CNF over a shared variable manager
// using the Tseitin transformation: every compound subformula gets a
// definition variable constrained to be equivalent to it, so the
// output grows linearly in formula size. Named variables are
// allocated on first use and shared across all conversions through
// the same Converter.
type Converter struct {
	vm    *varmgr.Manager
	names map[string]varmgr.Var
}

// NewConverter builds a converter allocating from vm.
func NewConverter(vm *varmgr.Manager) *Converter {
	return &Converter{vm: vm, names: make(map[string]varmgr.Var)}
}

// VarOf returns the variable bound to name, allocating it on first
// use.
func (c *Converter) VarOf(name string) varmgr.Var {
	if v, ok := c.names[name]; ok {
		return v
	}
	v := c.vm.NewVar()
	c.names[name] = v
	return v
}

// Names returns the bound variable names sorted lexicographically,
// for callers mapping models back to formula variables.
func (c *Converter) Names() []string {
	out := make([]string, 0, len(c.names))
	for n := range c.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Convert asserts f and returns the clauses doing so: the Tseitin
// definitions of every compound subformula plus a unit clause forcing
// the root definition literal true.
func (c *Converter) Convert(f *Node) ([]oracle.Clause, error) {
	var cnf []oracle.Clause
	root, err := c.transform(f, &cnf)
	if err != nil {
		return nil, err
	}
	cnf = append(cnf, oracle.Clause{root})
	return cnf, nil
}

// ConvertAll asserts every formula, sharing variable bindings and
// auxiliary definitions allocation across them.
func (c *Converter) ConvertAll(fs ...*Node) ([]oracle.Clause, error) {
	var cnf []oracle.Clause
	for _, f := range fs {
		cls, err := c.Convert(f)
		if err != nil {
			return nil, err
		}
		cnf = append(cnf, cls...)
	}
	return cnf, nil
}

// transform returns a literal equivalent to f, appending the defining
// clauses to cnf. Negation is folded into the returned literal rather
// than spending a definition variable on it.
func (c *Converter) transform(f *Node, cnf *[]oracle.Clause) (varmgr.Lit, error) {
	switch f.Op {
	case OpVar:
		return c.VarOf(f.Name).Pos(), nil

	case OpConst:
		t := c.vm.NewVar().Pos()
		if f.Value {
			*cnf = append(*cnf, oracle.Clause{t})
		} else {
			*cnf = append(*cnf, oracle.Clause{t.Negate()})
		}
		return t, nil

	case OpNot:
		if len(f.Children) != 1 {
			return 0, fmt.Errorf("%w: NOT wants 1, got %d", ErrArity, len(f.Children))
		}
		child, err := c.transform(f.Children[0], cnf)
		if err != nil {
			return 0, err
		}
		return child.Negate(), nil

	case OpAnd:
		return c.transformAnd(f, cnf)

	case OpOr:
		return c.transformOr(f, cnf)

	case OpXor:
		return c.transformXor(f, cnf)

	case OpImplies:
		if len(f.Children) != 2 {
			return 0, fmt.Errorf("%w: IMPLIES wants 2, got %d", ErrArity, len(f.Children))
		}
		a, err := c.transform(f.Children[0], cnf)
		if err != nil {
			return 0, err
		}
		b, err := c.transform(f.Children[1], cnf)
		if err != nil {
			return 0, err
		}
		// t <-> (¬a ∨ b)
		t := c.vm.NewVar().Pos()
		*cnf = append(*cnf,
			oracle.Clause{t.Negate(), a.Negate(), b},
			oracle.Clause{t, a},
			oracle.Clause{t, b.Negate()},
		)
		return t, nil

	case OpIff:
		if len(f.Children) != 2 {
			return 0, fmt.Errorf("%w: IFF wants 2, got %d", ErrArity, len(f.Children))
		}
		a, err := c.transform(f.Children[0], cnf)
		if err != nil {
			return 0, err
		}
		b, err := c.transform(f.Children[1], cnf)
		if err != nil {
			return 0, err
		}
		t := c.biconditional(a, b, cnf)
		return t, nil

	default:
		return 0, fmt.Errorf("formula: unknown connective %v", f.Op)
	}
}

func (c *Converter) transformAnd(f *Node, cnf *[]oracle.Clause) (varmgr.Lit, error) {
	lits, err := c.transformChildren(f, cnf)
	if err != nil {
		return 0, err
	}
	t := c.vm.NewVar().Pos()
	// t -> each child; all children -> t.
	long := make(oracle.Clause, 0, len(lits)+1)
	long = append(long, t)
	for _, l := range lits {
		*cnf = append(*cnf, oracle.Clause{t.Negate(), l})
		long = append(long, l.Negate())
	}
	*cnf = append(*cnf, long)
	return t, nil
}

func (c *Converter) transformOr(f *Node, cnf *[]oracle.Clause) (varmgr.Lit, error) {
	lits, err := c.transformChildren(f, cnf)
	if err != nil {
		return 0, err
	}
	t := c.vm.NewVar().Pos()
	// each child -> t; t -> some child.
	long := make(oracle.Clause, 0, len(lits)+1)
	long = append(long, t.Negate())
	for _, l := range lits {
		*cnf = append(*cnf, oracle.Clause{t, l.Negate()})
		long = append(long, l)
	}
	*cnf = append(*cnf, long)
	return t, nil
}

func (c *Converter) transformXor(f *Node, cnf *[]oracle.Clause) (varmgr.Lit, error) {
	lits, err := c.transformChildren(f, cnf)
	if err != nil {
		return 0, err
	}
	if len(lits) == 0 {
		// Odd parity of nothing is false.
		t := c.vm.NewVar().Pos()
		*cnf = append(*cnf, oracle.Clause{t.Negate()})
		return t, nil
	}
	// Fold pairwise: xor(a, b, c) = (a ^ b) ^ c.
	acc := lits[0]
	for _, l := range lits[1:] {
		acc = c.biconditional(acc, l.Negate(), cnf)
	}
	return acc, nil
}

// biconditional allocates t with t <-> (a <-> b) and appends the four
// defining clauses.
func (c *Converter) biconditional(a, b varmgr.Lit, cnf *[]oracle.Clause) varmgr.Lit {
	t := c.vm.NewVar().Pos()
	*cnf = append(*cnf,
		oracle.Clause{t.Negate(), a.Negate(), b},
		oracle.Clause{t.Negate(), a, b.Negate()},
		oracle.Clause{t, a, b},
		oracle.Clause{t, a.Negate(), b.Negate()},
	)
	return t
}

func (c *Converter) transformChildren(f *Node, cnf *[]oracle.Clause) ([]varmgr.Lit, error) {
	lits := make([]varmgr.Lit, len(f.Children))
	for i, ch := range f.Children {
		l, err := c.transform(ch, cnf)
		if err != nil {
			return nil, err
		}
		lits[i] = l
	}
	return lits, nil
}
