package pminimal

import (
	"github.com/xDarkicex/pminimal/oracle"
	"github.com/xDarkicex/pminimal/varmgr"
)

// objLitEntry is the per-literal index record: which objectives
// l contributes to, and which entries of objClauses mention l.
type objLitEntry struct {
	objs    []int
	clauses []int
}

// litIndex is the objective-literal index: a bipartite
// map from objective literals to the objectives and clauses that
// reference them. It is built once at init and frozen thereafter.
type litIndex struct {
	data map[varmgr.Lit]*objLitEntry
	// objClauses is the frozen global list of every clause (soft
	// relaxed or original) mentioning at least one objective literal.
	objClauses []oracle.Clause
}

func newLitIndex() *litIndex {
	return &litIndex{data: make(map[varmgr.Lit]*objLitEntry)}
}

func (idx *litIndex) entry(l varmgr.Lit) *objLitEntry {
	e, ok := idx.data[l]
	if !ok {
		e = &objLitEntry{}
		idx.data[l] = e
	}
	return e
}

func (idx *litIndex) addObjLit(l varmgr.Lit, objIdx int) {
	idx.entry(l).objs = append(idx.entry(l).objs, objIdx)
}

// get returns the entry for l, or nil if l is not an objective
// literal.
func (idx *litIndex) get(l varmgr.Lit) (*objLitEntry, bool) {
	e, ok := idx.data[l]
	return e, ok
}

// isObjLit reports whether l contributes to any objective.
func (idx *litIndex) isObjLit(l varmgr.Lit) bool {
	_, ok := idx.data[l]
	return ok
}

// appendClause stores c (the unrelaxed form of a soft clause) and
// returns its index, without linking any literal. The blit that
// relaxes c is linked by the caller; other objective literals inside
// c are picked up by backlinkStored once every objective is in.
func (idx *litIndex) appendClause(c oracle.Clause) int {
	ci := len(idx.objClauses)
	idx.objClauses = append(idx.objClauses, c)
	return ci
}

// linkLitClause records that objClauses[ci] constrains the objective
// literal l.
func (idx *litIndex) linkLitClause(l varmgr.Lit, ci int) {
	idx.entry(l).clauses = append(idx.entry(l).clauses, ci)
}

// backlinkStored walks the clauses stored so far and links every
// objective literal occurring inside them. Soft clauses can mention
// objective literals of other objectives, which are only all known
// once initialization has processed every objective.
func (idx *litIndex) backlinkStored() {
	for ci, c := range idx.objClauses {
		for _, l := range c {
			if e, ok := idx.get(l); ok {
				e.clauses = append(e.clauses, ci)
			}
		}
	}
}

// addObjClause appends c to the frozen global clause list if it
// mentions at least one objective literal, back-linking every such
// occurrence. It reports whether c was added.
func (idx *litIndex) addObjClause(c oracle.Clause) bool {
	mentioned := false
	for _, l := range c {
		if idx.isObjLit(l) {
			mentioned = true
			break
		}
	}
	if !mentioned {
		return false
	}
	ci := len(idx.objClauses)
	idx.objClauses = append(idx.objClauses, c)
	for _, l := range c {
		if e, ok := idx.get(l); ok {
			e.clauses = append(e.clauses, ci)
		}
	}
	return true
}
