// alias.go — memory-alias analysis
//
// OVERVIEW
// --------
// Computes a conservative, symmetric alias relation over memory-block
// names: which allocations might refer to overlapping storage. Downstream
// in-place-update safety checks consume the result, so the relation may
// over-approximate but must never under-approximate.
//
// The analysis is a single forward pass per function threading one relation
// value, with a pluggable handler for representation-specific operators.
// Per-statement rules add non-transitive symmetric edges; the whole-program
// driver then widens the union of all per-function relations to a
// transitive closure by fixpoint iteration and finishes with a symmetry
// completion pass.
//
// A note on the closure: two allocations linked only through a shared
// node — the two branches of one conditional, say — end up directly aliased
// after the first closure iteration, since each is one hop from the branch
// result. The closure keeps that edge on purpose: if k may be m and k may
// be n, safety reasoning must allow m and n to be the same buffer. The
// closure can also put a node into its own alias set; that artifact is kept
// rather than filtered, a buffer trivially aliases itself.
//
// The analysis has no failure mode. Unknown names yield empty alias sets;
// malformed input degrades to an under-informative relation, never an
// error.
package loom

import (
	"sort"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// AliasRelation maps each known memory-block name to the set of names it
// may alias.
type AliasRelation map[VName]map[VName]bool

// NewAliasRelation creates an empty relation.
func NewAliasRelation() AliasRelation { return AliasRelation{} }

// AddNode introduces name with an empty alias set. Idempotent.
func (r AliasRelation) AddNode(name VName) {
	if r[name] == nil {
		r[name] = map[VName]bool{}
	}
}

// AddAlias records a symmetric edge between a and b, creating either node
// if absent. Symmetry holds after every single insertion, never deferred.
func (r AliasRelation) AddAlias(a, b VName) {
	r.AddNode(a)
	r.AddNode(b)
	r[a][b] = true
	r[b][a] = true
}

// Known reports whether name is a node of the relation.
func (r AliasRelation) Known(name VName) bool {
	_, ok := r[name]
	return ok
}

// AliasesOf returns name's alias set, empty when name is absent. Absence is
// not an error; it simply means no known aliases.
func (r AliasRelation) AliasesOf(name VName) map[VName]bool {
	if s, ok := r[name]; ok {
		return s
	}
	return map[VName]bool{}
}

// Dump renders the relation for diagnostics, one sorted line per node.
func (r AliasRelation) Dump() string {
	nodes := make([]VName, 0, len(r))
	for n := range r {
		nodes = append(nodes, n)
	}
	sortNames(nodes)
	var b strings.Builder
	for _, n := range nodes {
		aliases := make([]VName, 0, len(r[n]))
		for a := range r[n] {
			aliases = append(aliases, a)
		}
		sortNames(aliases)
		b.WriteString(n.String())
		b.WriteString(" aliases:")
		for _, a := range aliases {
			b.WriteByte(' ')
			b.WriteString(a.String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// OpHandler analyzes one representation-specific operator, mutating the
// relation. Injected so one traversal core serves every representation.
type OpHandler func(r AliasRelation, op Op)

// PlainOps ignores every operator; the plain representation has none that
// touch memory.
func PlainOps(AliasRelation, Op) {}

// KernelOps recurses into segmented-operator bodies; size queries and
// opaque gpu regions pass the relation through unchanged.
func KernelOps(r AliasRelation, op Op) {
	if seg, ok := op.(*SegOp); ok {
		analyzeStms(r, seg.Body.Stms, KernelOps)
	}
}

// AnalyzeProg analyzes every function definition independently, seeding
// each memory-typed parameter as an empty-alias node, unions the results,
// and widens to the transitive-closure fixpoint plus a final symmetry pass.
func AnalyzeProg(prog *Prog, h OpHandler) AliasRelation {
	r := NewAliasRelation()
	analyzeStms(r, prog.Consts, h)
	for _, f := range prog.Funs {
		fr := NewAliasRelation()
		for _, p := range f.Params {
			if p.Type.IsMem() {
				fr.AddNode(p.Name)
			}
		}
		analyzeStms(fr, f.Body.Stms, h)
		r.union(fr)
	}
	for r.transitiveStep() {
	}
	r.completeSymmetry()
	return r
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                   PRIVATE
////////////////////////////////////////////////////////////////////////////////

func analyzeStms(r AliasRelation, stms []*Stm, h OpHandler) {
	for _, s := range stms {
		analyzeStm(r, s, h)
	}
}

func analyzeStm(r AliasRelation, stm *Stm, h OpHandler) {
	switch e := stm.Exp.(type) {
	case *Alloc:
		for _, name := range stm.Pat.Names() {
			r.AddNode(name)
		}
	case *If:
		analyzeBranch(r, stm.Pat, e, h)
	case *Loop:
		analyzeLoop(r, stm.Pat, e, h)
	case Op:
		h(r, e)
	}
}

// analyzeBranch runs every alternative from the same incoming relation
// (alternatives cannot see each other's allocations), unions the outcomes,
// then links each pattern name to each alternative's corresponding result
// when that result is a known node. A name may alias several alternatives'
// results at once.
func analyzeBranch(r AliasRelation, pat Pattern, e *If, h OpHandler) {
	alts := e.Alternatives()
	base := r.clone()
	for _, alt := range alts {
		ra := base.clone()
		analyzeStms(ra, alt.Stms, h)
		r.union(ra)
	}
	names := pat.Names()
	for i, name := range names {
		for _, alt := range alts {
			if i >= len(alt.Res) {
				continue
			}
			res := alt.Res[i].Sub
			if res.IsVar && r.Known(res.Var) {
				r.AddAlias(name, res.Var)
			}
		}
	}
}

// analyzeLoop applies the loop rules in their fixed order; each step reads
// the relation the previous ones produced.
func analyzeLoop(r AliasRelation, pat Pattern, e *Loop, h OpHandler) {
	names := pat.Names()
	merge := e.Merge()

	// Zero iterations leave the result as the untouched initial value.
	for i, name := range names {
		if i >= len(merge) {
			break
		}
		if init := merge[i].Init; init.IsVar && r.Known(init.Var) {
			r.AddAlias(name, init.Var)
		}
	}
	for _, mv := range merge {
		if init := mv.Init; init.IsVar && r.Known(init.Var) {
			r.AddAlias(mv.Param.Name, init.Var)
		}
	}
	analyzeStms(r, e.Body.Stms, h)
	for i, name := range names {
		if i >= len(e.Body.Res) {
			break
		}
		if res := e.Body.Res[i].Sub; res.IsVar && r.Known(res.Var) {
			r.AddAlias(name, res.Var)
		}
	}
}

// ─────────────────────────────── set plumbing ───────────────────────────────

func (r AliasRelation) clone() AliasRelation {
	out := make(AliasRelation, len(r))
	for n, s := range r {
		cs := make(map[VName]bool, len(s))
		for a := range s {
			cs[a] = true
		}
		out[n] = cs
	}
	return out
}

func (r AliasRelation) union(o AliasRelation) {
	for n, s := range o {
		r.AddNode(n)
		for a := range s {
			r[n][a] = true
		}
	}
}

// transitiveStep adds, for every node, the alias sets of its aliases.
// Reports whether anything grew; iterating to a fixpoint terminates because
// the name universe is finite and sets only grow.
func (r AliasRelation) transitiveStep() bool {
	grew := false
	for _, s := range r {
		members := make([]VName, 0, len(s))
		for a := range s {
			members = append(members, a)
		}
		for _, a := range members {
			for indirect := range r[a] {
				if !s[indirect] {
					s[indirect] = true
					grew = true
				}
			}
		}
	}
	return grew
}

// completeSymmetry ensures the reverse of every recorded edge. A structural
// safety net; the per-insertion invariant should already guarantee it.
func (r AliasRelation) completeSymmetry() {
	type edge struct{ a, b VName }
	var edges []edge
	for n, s := range r {
		for a := range s {
			edges = append(edges, edge{n, a})
		}
	}
	for _, e := range edges {
		r.AddAlias(e.b, e.a)
	}
}

func sortNames(names []VName) {
	sort.Slice(names, func(i, j int) bool {
		if names[i].Base != names[j].Base {
			return names[i].Base < names[j].Base
		}
		return names[i].Tag < names[j].Tag
	})
}
