package index

import (
	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/types"
)

// FlowNodeKind tags one statement's role in the flow graph.
type FlowNodeKind uint8

const (
	FlowSeq FlowNodeKind = iota
	FlowBranch
	FlowLoop
	FlowLabel
	FlowGoto
)

// FlowNode is one statement of a closure's flow tree, with successor
// edges reflecting sequential flow, branches, loops, and label/goto
// (spec.md §4.5).
type FlowNode struct {
	ID    int
	Kind  FlowNodeKind
	Stmt  ast.Statement
	Range ids.Range
	Succs []int
}

// AssertionKind tags one narrowing event installed on a VarRefID's chain.
type AssertionKind uint8

const (
	AssertNarrowTruthy AssertionKind = iota
	AssertNarrowFalsy
	AssertTypeEq
	AssertCastAdd
	AssertCastRemove
	AssertCastForce
	AssertCastRemoveNil
)

// TypeAssertion is one entry of the time-ordered narrowing chain for a
// VarRefID (spec.md §4.5): it applies over Range, the span from just
// after the assertion to the end of the block it narrows.
type TypeAssertion struct {
	Kind   AssertionKind
	Type   types.Type
	Range  ids.Range
	FlowID ids.FlowID
}

// FlowGraph is the flow tree for one closure (chunk or function body).
type FlowGraph struct {
	ID      ids.FlowID
	File    ids.FileID
	Nodes   []*FlowNode
	Chains  map[string][]TypeAssertion // VarRefID.Key() -> time-ordered assertions
	Uses    map[string][]ids.Range
	Defs    map[string][]ids.Range
}

func newFlowGraph(id ids.FlowID, file ids.FileID) *FlowGraph {
	return &FlowGraph{
		ID:     id,
		File:   file,
		Chains: make(map[string][]TypeAssertion),
		Uses:   make(map[string][]ids.Range),
		Defs:   make(map[string][]ids.Range),
	}
}

func (g *FlowGraph) AddNode(n *FlowNode) { g.Nodes = append(g.Nodes, n) }

func (g *FlowGraph) RecordAssertion(ref ids.VarRefID, a TypeAssertion) {
	g.Chains[ref.Key()] = append(g.Chains[ref.Key()], a)
}

func (g *FlowGraph) RecordUse(ref ids.VarRefID, r ids.Range) {
	g.Uses[ref.Key()] = append(g.Uses[ref.Key()], r)
}

func (g *FlowGraph) RecordDef(ref ids.VarRefID, r ids.Range) {
	g.Defs[ref.Key()] = append(g.Defs[ref.Key()], r)
}

// ResolveAt walks ref's chain backward from the most recent assertion,
// applying the first (innermost, i.e. last-recorded) assertion whose
// Range contains at; earlier assertions are antecedents and are only
// consulted if none of the later ones apply. Unresolved (empty) chains
// short-circuit to base, matching spec.md §4.5's "unresolved antecedents
// short-circuit to the base type".
func (g *FlowGraph) ResolveAt(ref ids.VarRefID, at ids.Range, base types.Type, supers types.SuperTypeLookup) types.Type {
	chain := g.Chains[ref.Key()]
	for i := len(chain) - 1; i >= 0; i-- {
		a := chain[i]
		if !a.Range.Contains(at) {
			continue
		}
		switch a.Kind {
		case AssertNarrowTruthy:
			return types.RemoveNilOrFalse(base)
		case AssertNarrowFalsy:
			return types.NarrowFalseOrNil(base)
		case AssertTypeEq:
			return types.Narrow(base, a.Type)
		case AssertCastAdd:
			return types.Union(base, a.Type)
		case AssertCastRemove:
			return types.Remove(base, a.Type, supers)
		case AssertCastForce:
			return a.Type
		case AssertCastRemoveNil:
			return types.RemoveNilOrFalse(types.Nullable(base))
		}
	}
	return base
}

// FlowIndex owns every closure's FlowGraph.
type FlowIndex struct {
	graphs map[ids.FlowID]*FlowGraph
	byFile map[ids.FileID][]ids.FlowID
}

func NewFlowIndex() *FlowIndex {
	return &FlowIndex{graphs: make(map[ids.FlowID]*FlowGraph), byFile: make(map[ids.FileID][]ids.FlowID)}
}

func (x *FlowIndex) NewGraph(id ids.FlowID, file ids.FileID) *FlowGraph {
	g := newFlowGraph(id, file)
	x.graphs[id] = g
	x.byFile[file] = append(x.byFile[file], id)
	return g
}

func (x *FlowIndex) Get(id ids.FlowID) (*FlowGraph, bool) {
	g, ok := x.graphs[id]
	return g, ok
}

func (x *FlowIndex) Remove(file ids.FileID) {
	for _, id := range x.byFile[file] {
		delete(x.graphs, id)
	}
	delete(x.byFile, file)
}
