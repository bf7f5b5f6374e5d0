package analyzer

import (
	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/index"
)

// flowScope is a throwaway name->decl chain flow analyze rebuilds in
// lockstep with its own block walk (spec.md §4.5 runs after decl analyze
// has already built the real index.Scope tree; re-deriving a light chain
// here avoids needing a public "scopes for file" accessor on DeclIndex).
type flowScope struct {
	parent *flowScope
	names  map[string]ids.DeclID
}

func (s *flowScope) lookup(name string) (ids.DeclID, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.names[name]; ok {
			return d, true
		}
	}
	return ids.DeclID{}, false
}

func newFlowScope(parent *flowScope) *flowScope {
	return &flowScope{parent: parent, names: make(map[string]ids.DeclID)}
}

type flowCtx struct {
	file ids.FileID
	g    *index.FlowGraph
	next int
	// blockEnd is the end offset of the innermost block being walked.
	blockEnd int
}

func (c *flowCtx) node(kind index.FlowNodeKind, s ast.Statement, r ids.Range) *index.FlowNode {
	n := &index.FlowNode{ID: c.next, Kind: kind, Stmt: s, Range: r}
	c.next++
	c.g.AddNode(n)
	return n
}

// analyzeFlow is pipeline phase 4 (spec.md §4.1/§4.5): builds one flow
// graph per closure (the chunk itself plus every nested function), records
// every VarRefID use/def, and installs the narrowing chains `if`/`assert`/
// `@cast` contribute.
func (a *Analyzer) analyzeFlow(f ids.FileID, chunk *ast.Chunk) {
	if chunk == nil {
		return
	}
	a.flowClosure(f, chunk.Range().Start, chunk.Body, newFlowScope(nil))
}

func (a *Analyzer) flowClosure(f ids.FileID, pos int, body *ast.Block, scope *flowScope) {
	flowID := ids.FlowID{FileID: f, Position: pos}
	g := a.db.Flows.NewGraph(flowID, f)
	c := &flowCtx{file: f, g: g}
	a.walkBlockFlow(c, body, scope)
}

// walkBlockFlow emits one FlowNode per statement (chaining Succs to the
// textually-next node) and recurses into nested blocks/closures.
func (a *Analyzer) walkBlockFlow(c *flowCtx, b *ast.Block, scope *flowScope) {
	if b == nil {
		return
	}
	outerEnd := c.blockEnd
	c.blockEnd = b.Range().End
	defer func() { c.blockEnd = outerEnd }()
	var prev *index.FlowNode
	for _, s := range b.Stats {
		n := c.node(flowNodeKind(s), s, s.Range())
		if prev != nil {
			prev.Succs = append(prev.Succs, n.ID)
		}
		a.walkStatFlow(c, s, scope, n)
		prev = n
	}
}

func flowNodeKind(s ast.Statement) index.FlowNodeKind {
	switch s.(type) {
	case *ast.IfStat:
		return index.FlowBranch
	case *ast.WhileStat, *ast.RepeatStat, *ast.NumericForStat, *ast.GenericForStat:
		return index.FlowLoop
	case *ast.LabelStat:
		return index.FlowLabel
	case *ast.GotoStat:
		return index.FlowGoto
	default:
		return index.FlowSeq
	}
}

func (a *Analyzer) walkStatFlow(c *flowCtx, s ast.Statement, scope *flowScope, n *index.FlowNode) {
	switch v := s.(type) {
	case *ast.LocalStat:
		a.recordExprRefs(c, scope, v.Exprs...)
		for i, name := range v.Names {
			decl := ids.DeclID{FileID: c.file, Position: v.NameEnd[i]}
			scope.names[name] = decl
			c.g.RecordDef(ids.NewBareVarRef(decl), ids.Range{Start: v.NameEnd[i], End: v.NameEnd[i]})
		}
		a.applyCastTags(c, scope, s, n.Range)
	case *ast.AssignStat:
		a.recordExprRefs(c, scope, v.Exprs...)
		for _, t := range v.Targets {
			a.recordAssignTargetRef(c, scope, t)
		}
		a.applyCastTags(c, scope, s, n.Range)
	case *ast.CallStat:
		a.recordExprRefs(c, scope, v.Call)
		a.applyCallNarrowing(c, scope, v.Call, n)
	case *ast.DoStat:
		inner := newFlowScope(scope)
		a.walkBlockFlow(c, v.Body, inner)
	case *ast.WhileStat:
		a.recordExprRefs(c, scope, v.Cond)
		inner := newFlowScope(scope)
		a.applyCondNarrowing(c, inner, v.Cond, v.Body.Range())
		a.walkBlockFlow(c, v.Body, inner)
	case *ast.RepeatStat:
		inner := newFlowScope(scope)
		a.walkBlockFlow(c, v.Body, inner)
		a.recordExprRefs(c, inner, v.Cond)
	case *ast.IfStat:
		var firstCond ast.Expression
		for i, cl := range v.Clauses {
			inner := newFlowScope(scope)
			if cl.Cond != nil {
				a.recordExprRefs(c, scope, cl.Cond)
				a.applyCondNarrowing(c, inner, cl.Cond, cl.Body.Range())
				if i == 0 {
					firstCond = cl.Cond
				}
			} else if firstCond != nil {
				a.applyCondNarrowing(c, inner, negatedCond(firstCond), cl.Body.Range())
			}
			a.walkBlockFlow(c, cl.Body, inner)
		}
	case *ast.NumericForStat:
		a.recordExprRefs(c, scope, v.Start, v.Stop, v.Step)
		inner := newFlowScope(scope)
		inner.names[v.Name] = ids.DeclID{FileID: c.file, Position: v.NameEnd}
		a.walkBlockFlow(c, v.Body, inner)
	case *ast.GenericForStat:
		a.recordExprRefs(c, scope, v.Exprs...)
		inner := newFlowScope(scope)
		for i, name := range v.Names {
			inner.names[name] = ids.DeclID{FileID: c.file, Position: v.NameEnd[i]}
		}
		a.walkBlockFlow(c, v.Body, inner)
	case *ast.FunctionStat:
		if len(v.DottedPath) == 0 {
			scope.names[v.Name] = ids.DeclID{FileID: c.file, Position: v.NameEnd}
		}
		a.flowClosure(c.file, v.Func.Range().Start, v.Func.Body, closureFlowScope(c.file, scope, v.Func))
	case *ast.LocalFunctionStat:
		scope.names[v.Name] = ids.DeclID{FileID: c.file, Position: v.NameEnd}
		a.flowClosure(c.file, v.Func.Range().Start, v.Func.Body, closureFlowScope(c.file, scope, v.Func))
	case *ast.ReturnStat:
		a.recordExprRefs(c, scope, v.Exprs...)
	}
}

func closureFlowScope(file ids.FileID, outer *flowScope, fn *ast.FunctionExpr) *flowScope {
	s := newFlowScope(outer)
	if fn.SelfOwner {
		s.names["self"] = ids.DeclID{FileID: file, Position: fn.Range().Start}
	}
	for _, p := range fn.Params {
		s.names[p.Name] = ids.DeclID{FileID: file, Position: p.NameEnd}
	}
	return s
}

// negatedCond wraps cond in a synthetic `not` for an else clause's implicit
// narrowing; it is never type-checked or re-walked for side effects, only
// passed to applyCondNarrowing's pattern matcher.
func negatedCond(cond ast.Expression) ast.Expression {
	return &ast.UnaryExpr{Op: "not", Operand: cond}
}

func (a *Analyzer) recordExprRefs(c *flowCtx, scope *flowScope, exprs ...ast.Expression) {
	for _, e := range exprs {
		if ref, ok := varRefOf(c, scope, e); ok {
			c.g.RecordUse(ref, e.Range())
		}
		walkNestedExprFlow(a, c, scope, e)
	}
}

// walkNestedExprFlow descends into call arguments and closures so nested
// assert()/function-expr forms still get recorded.
func walkNestedExprFlow(a *Analyzer, c *flowCtx, scope *flowScope, e ast.Expression) {
	switch v := e.(type) {
	case *ast.CallExpr:
		for _, arg := range v.Args {
			a.recordExprRefs(c, scope, arg)
		}
	case *ast.MethodCallExpr:
		a.recordExprRefs(c, scope, v.Receiver)
		for _, arg := range v.Args {
			a.recordExprRefs(c, scope, arg)
		}
	case *ast.BinaryExpr:
		a.recordExprRefs(c, scope, v.Left, v.Right)
	case *ast.UnaryExpr:
		a.recordExprRefs(c, scope, v.Operand)
	case *ast.ParenExpr:
		a.recordExprRefs(c, scope, v.Inner)
	case *ast.FunctionExpr:
		a.flowClosure(c.file, v.Range().Start, v.Body, closureFlowScope(c.file, scope, v))
	}
}

func (a *Analyzer) recordAssignTargetRef(c *flowCtx, scope *flowScope, t ast.Expression) {
	if ref, ok := varRefOf(c, scope, t); ok {
		c.g.RecordDef(ref, t.Range())
	}
}

// varRefOf canonicalizes e into a VarRefID when it is a plain name or a
// dotted path rooted at one (spec.md §4.4's VarRefId shapes); anything else
// (computed index, call result) has no stable flow identity.
func varRefOf(c *flowCtx, scope *flowScope, e ast.Expression) (ids.VarRefID, bool) {
	switch v := e.(type) {
	case *ast.NameExpr:
		decl, ok := scope.lookup(v.Name)
		if !ok {
			return ids.VarRefID{}, false
		}
		if v.Name == "self" {
			return ids.NewSelfVarRef(decl), true
		}
		return ids.NewBareVarRef(decl), true
	case *ast.IndexExpr:
		if !v.DotStyle {
			return ids.VarRefID{}, false
		}
		base, path, ok := collectDottedPath(v)
		if !ok {
			return ids.VarRefID{}, false
		}
		decl, ok := scope.lookup(base)
		if !ok {
			return ids.VarRefID{}, false
		}
		if base == "self" {
			return ids.NewSelfVarRef(decl, path...), true
		}
		return ids.NewDeclPathVarRef(decl, path...), true
	default:
		return ids.VarRefID{}, false
	}
}

func collectDottedPath(e *ast.IndexExpr) (string, []string, bool) {
	var path []string
	cur := ast.Expression(e)
	for {
		idx, ok := cur.(*ast.IndexExpr)
		if !ok {
			break
		}
		if !idx.DotStyle {
			return "", nil, false
		}
		path = append([]string{idx.Key}, path...)
		cur = idx.Prefix
	}
	name, ok := cur.(*ast.NameExpr)
	if !ok {
		return "", nil, false
	}
	return name.Name, path, true
}

// applyCondNarrowing recognizes the narrowing-source shapes spec.md §4.5
// names: bare `if x`, `if not x`, `if x == nil`/`if x ~= nil`, and
// `if type(x) == "kind"`. Anything else installs no assertion.
func (a *Analyzer) applyCondNarrowing(c *flowCtx, scope *flowScope, cond ast.Expression, body ids.Range) {
	switch v := cond.(type) {
	case *ast.NameExpr:
		if ref, ok := varRefOf(c, scope, v); ok {
			c.g.RecordAssertion(ref, index.TypeAssertion{Kind: index.AssertNarrowTruthy, Range: body, FlowID: c.g.ID})
		}
	case *ast.IndexExpr:
		if ref, ok := varRefOf(c, scope, v); ok {
			c.g.RecordAssertion(ref, index.TypeAssertion{Kind: index.AssertNarrowTruthy, Range: body, FlowID: c.g.ID})
		}
	case *ast.UnaryExpr:
		if v.Op == "not" {
			if ref, ok := varRefOf(c, scope, v.Operand); ok {
				c.g.RecordAssertion(ref, index.TypeAssertion{Kind: index.AssertNarrowFalsy, Range: body, FlowID: c.g.ID})
			}
		}
	case *ast.BinaryExpr:
		a.applyBinaryCondNarrowing(c, scope, v, body)
	case *ast.ParenExpr:
		a.applyCondNarrowing(c, scope, v.Inner, body)
	}
}

func (a *Analyzer) applyBinaryCondNarrowing(c *flowCtx, scope *flowScope, v *ast.BinaryExpr, body ids.Range) {
	switch v.Op {
	case "==", "~=":
		truthyOnEq := v.Op == "~="
		if name, lit, ok := nameAndTypeofString(v.Left, v.Right); ok {
			if ref, ok := varRefOf(c, scope, name); ok {
				if t, known := primitiveDocType(lit); known && v.Op == "==" {
					c.g.RecordAssertion(ref, index.TypeAssertion{Kind: index.AssertTypeEq, Type: t, Range: body, FlowID: c.g.ID})
				}
			}
			return
		}
		if target, isNilCheck := nameAgainstNil(v.Left, v.Right); isNilCheck {
			if ref, ok := varRefOf(c, scope, target); ok {
				kind := index.AssertNarrowFalsy
				if truthyOnEq {
					kind = index.AssertNarrowTruthy
				}
				c.g.RecordAssertion(ref, index.TypeAssertion{Kind: kind, Range: body, FlowID: c.g.ID})
			}
		}
	case "and":
		a.applyCondNarrowing(c, scope, v.Left, body)
		a.applyCondNarrowing(c, scope, v.Right, body)
	}
}

// nameAndTypeofString matches `type(x) == "kind"` in either operand order.
func nameAndTypeofString(l, r ast.Expression) (ast.Expression, string, bool) {
	if call, lit, ok := typeofCallAndLiteral(l, r); ok {
		return call, lit, true
	}
	if call, lit, ok := typeofCallAndLiteral(r, l); ok {
		return call, lit, true
	}
	return nil, "", false
}

func typeofCallAndLiteral(a, b ast.Expression) (ast.Expression, string, bool) {
	call, ok := a.(*ast.CallExpr)
	if !ok || len(call.Args) != 1 {
		return nil, "", false
	}
	callee, ok := call.Callee.(*ast.NameExpr)
	if !ok || callee.Name != "type" {
		return nil, "", false
	}
	lit, ok := b.(*ast.StringExpr)
	if !ok {
		return nil, "", false
	}
	return call.Args[0], lit.Value, true
}

// nameAgainstNil matches `x == nil` / `nil == x` in either operand order.
func nameAgainstNil(l, r ast.Expression) (ast.Expression, bool) {
	if _, ok := l.(*ast.NilExpr); ok {
		return r, true
	}
	if _, ok := r.(*ast.NilExpr); ok {
		return l, true
	}
	return nil, false
}

// applyCallNarrowing handles `assert(x)` as a statement: x is truthy from
// just after the call to the end of the enclosing block (spec.md §4.5).
func (a *Analyzer) applyCallNarrowing(c *flowCtx, scope *flowScope, call ast.Expression, n *index.FlowNode) {
	ce, ok := call.(*ast.CallExpr)
	if !ok || len(ce.Args) == 0 {
		return
	}
	callee, ok := ce.Callee.(*ast.NameExpr)
	if !ok || callee.Name != "assert" {
		return
	}
	if ref, ok := varRefOf(c, scope, ce.Args[0]); ok {
		c.g.RecordAssertion(ref, index.TypeAssertion{
			Kind:   index.AssertNarrowTruthy,
			Range:  ids.Range{Start: ce.Range().End, End: c.blockEnd},
			FlowID: c.g.ID,
		})
	}
}

// applyCastTags installs the `@cast target (+T|-T|T|?),...` assertions
// spec.md §4.5 attaches to the range from the cast site to the end of the
// block it appears in (approximated here as the statement's own range,
// since `---@cast` attaches to the single following statement).
func (a *Analyzer) applyCastTags(c *flowCtx, scope *flowScope, s ast.Statement, stmtRange ids.Range) {
	for _, doc := range statDocs(s) {
		for _, tag := range doc.Tags {
			if tag.Kind != ast.TagCast {
				continue
			}
			decl, ok := scope.lookup(tag.CastTarget)
			if !ok {
				continue
			}
			ref := ids.NewBareVarRef(decl)
			for _, op := range tag.CastOps {
				assertion := index.TypeAssertion{Range: ids.Range{Start: stmtRange.Start, End: stmtRange.End}, FlowID: c.g.ID}
				switch op.Kind {
				case ast.CastAdd:
					assertion.Kind = index.AssertCastAdd
				case ast.CastRemove:
					assertion.Kind = index.AssertCastRemove
				case ast.CastForce:
					assertion.Kind = index.AssertCastForce
				case ast.CastRemoveNil:
					assertion.Kind = index.AssertCastRemoveNil
				}
				if op.Type != nil {
					t, _ := resolveDocType(a, c.file, op.Type)
					assertion.Type = t
				}
				c.g.RecordAssertion(ref, assertion)
			}
		}
	}
}
