// Package mcnf reads multi-objective CNF instances in the DIMACS-like
// dialect used by multi-objective MaxSAT solvers: `c` comment lines, an
// optional `p` header, hard clause lines (optionally prefixed `h`), and
// soft clause lines `o<idx> <weight> <lits...> 0` assigning the clause
// to the 1-based objective <idx>.
package mcnf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xDarkicex/pminimal"
	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal/varmgr"
)

// ErrSyntax is wrapped by every malformed-input error.
var ErrSyntax = errors.New("mcnf: syntax error")

func syntaxErr(line int, format string, args ...interface{}) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, line, fmt.Sprintf(format, args...))
}

// Parse reads an instance from r. Variables are numbered from 1 in
// the input and renumbered to the solver's 0-based space; the number
// of variables is the maximum variable mentioned (the `p` header, if
// present, only raises it).
func Parse(r io.Reader) (pminimal.Instance, error) {
	var inst pminimal.Instance
	objs := make(map[int]*pminimal.ObjectiveSpec)
	maxObj := 0

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] == "c" {
			continue
		}
		switch {
		case fields[0] == "p":
			// Header: "p mcnf <vars> [<clauses> [<objs>]]"; only the
			// variable count matters, and only as a lower bound.
			if len(fields) >= 3 {
				if n, err := strconv.Atoi(fields[2]); err == nil && n > inst.NumVars {
					inst.NumVars = n
				}
			}

		case fields[0] == "h":
			cl, err := parseClause(fields[1:], lineNo, &inst.NumVars)
			if err != nil {
				return pminimal.Instance{}, err
			}
			inst.Hard = append(inst.Hard, cl)

		case strings.HasPrefix(fields[0], "o"):
			idx, err := strconv.Atoi(fields[0][1:])
			if err != nil || idx < 1 {
				return pminimal.Instance{}, syntaxErr(lineNo, "bad objective tag %q", fields[0])
			}
			if len(fields) < 2 {
				return pminimal.Instance{}, syntaxErr(lineNo, "soft clause missing weight")
			}
			w, err := strconv.Atoi(fields[1])
			if err != nil || w <= 0 {
				return pminimal.Instance{}, syntaxErr(lineNo, "bad weight %q", fields[1])
			}
			cl, err := parseClause(fields[2:], lineNo, &inst.NumVars)
			if err != nil {
				return pminimal.Instance{}, err
			}
			if objs[idx] == nil {
				objs[idx] = &pminimal.ObjectiveSpec{}
			}
			objs[idx].Softs = append(objs[idx].Softs, pminimal.SoftClause{Lits: cl, Weight: w})
			if idx > maxObj {
				maxObj = idx
			}

		default:
			cl, err := parseClause(fields, lineNo, &inst.NumVars)
			if err != nil {
				return pminimal.Instance{}, err
			}
			inst.Hard = append(inst.Hard, cl)
		}
	}
	if err := sc.Err(); err != nil {
		return pminimal.Instance{}, err
	}

	inst.Objectives = make([]pminimal.ObjectiveSpec, maxObj)
	for i := 1; i <= maxObj; i++ {
		if spec := objs[i]; spec != nil {
			inst.Objectives[i-1] = *spec
		}
	}
	return inst, nil
}

// ParseString is a convenience wrapper over Parse.
func ParseString(s string) (pminimal.Instance, error) {
	return Parse(strings.NewReader(s))
}

// parseClause reads 0-terminated DIMACS literals, raising numVars as
// new variables appear.
func parseClause(fields []string, lineNo int, numVars *int) (oracle.Clause, error) {
	if len(fields) == 0 {
		return nil, syntaxErr(lineNo, "clause missing terminating 0")
	}
	var cl oracle.Clause
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, syntaxErr(lineNo, "bad literal %q", f)
		}
		if n == 0 {
			if i != len(fields)-1 {
				return nil, syntaxErr(lineNo, "literals after terminating 0")
			}
			return cl, nil
		}
		v := n
		if v < 0 {
			v = -v
		}
		if v > *numVars {
			*numVars = v
		}
		// The DIMACS signed form is the Lit representation itself.
		cl = append(cl, varmgr.Lit(n))
	}
	return nil, syntaxErr(lineNo, "clause missing terminating 0")
}
