package analyzer

import (
	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/index"
	"github.com/emmylua-go/analyzer/internal/types"
)

// inferState tags one InferCache slot's lifecycle.
type inferState uint8

const (
	inferInFlight inferState = iota
	inferReady
)

type inferEntry struct {
	state inferState
	typ   types.Type
}

// InferCache memoizes infer_expr's result per expression syntax-id within
// one file (spec.md §4.3). The in-flight marker lets a closure's own
// recursive reference to its still-being-inferred result short-circuit to
// Unknown instead of looping; calls additionally remembers a call
// expression's full multi-return list so a trailing call in a local/assign/
// return statement's RHS can spread past its first value.
type InferCache struct {
	exprs map[ast.SyntaxID]*inferEntry
	calls map[ast.SyntaxID][]types.Type
}

func newInferCache() *InferCache {
	return &InferCache{
		exprs: make(map[ast.SyntaxID]*inferEntry),
		calls: make(map[ast.SyntaxID][]types.Type),
	}
}

func (c *InferCache) begin(syn ast.SyntaxID) *inferEntry {
	e := &inferEntry{state: inferInFlight}
	c.exprs[syn] = e
	return e
}

func (c *InferCache) finish(e *inferEntry, t types.Type) {
	e.state = inferReady
	e.typ = t
}

func (c *InferCache) callReturns(syn ast.SyntaxID) ([]types.Type, bool) {
	rets, ok := c.calls[syn]
	return rets, ok
}

func (c *InferCache) setCallReturns(syn ast.SyntaxID, rets []types.Type) {
	c.calls[syn] = rets
}

// inferCtx carries one closure's inference state: the flow graph that
// closure's narrowing chains live in and the unresolved-work queue this
// file's pass is accumulating.
type inferCtx struct {
	file    ids.FileID
	cache   *InferCache
	flow    *index.FlowGraph
	sig     ids.SignatureID
	queue   *[]UnresolvedWork
	returns *[]types.Type // first return statement's spread types, for a closure lacking @return tags
}

// moduleExportDecl is the synthetic DeclID a file's top-level `return`
// expression's type is cached under, so `require` can look a dependency's
// exported value up without needing that file's AST in hand.
func moduleExportDecl(f ids.FileID) ids.DeclID {
	return ids.DeclID{FileID: f, Position: -1}
}

func moduleReturn(b *ast.Block) ast.Expression {
	if b == nil || len(b.Stats) == 0 {
		return nil
	}
	last, ok := b.Stats[len(b.Stats)-1].(*ast.ReturnStat)
	if !ok || len(last.Exprs) == 0 {
		return nil
	}
	return last.Exprs[0]
}

// analyzeLua is pipeline phase 5 (spec.md §4.1/§4.3): infers every
// expression bottom-up, writing results into the per-decl/per-expr type
// cache and queuing forward references for the unresolved-work drain.
func (a *Analyzer) analyzeLua(f ids.FileID, chunk *ast.Chunk) []UnresolvedWork {
	if chunk == nil {
		return nil
	}
	var queue []UnresolvedWork
	ic := &inferCtx{file: f, cache: a.inferCache(f), queue: &queue}
	if g, ok := a.db.Flows.Get(ids.FlowID{FileID: f, Position: chunk.Range().Start}); ok {
		ic.flow = g
	}
	a.inferBlock(ic, chunk.Body)
	if ret := moduleReturn(chunk.Body); ret != nil {
		t := a.inferExpr(ic, ret)
		a.db.Types.Merge(index.DeclTypeOwner(moduleExportDecl(f)), t, a.db.Members)
	}
	return queue
}

func (a *Analyzer) inferBlock(ic *inferCtx, b *ast.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stats {
		a.inferStat(ic, s)
	}
}

func (a *Analyzer) inferStat(ic *inferCtx, s ast.Statement) {
	switch v := s.(type) {
	case *ast.LocalStat:
		a.inferLocalStat(ic, v)
	case *ast.AssignStat:
		a.inferAssignStat(ic, v)
	case *ast.CallStat:
		a.inferExpr(ic, v.Call)
	case *ast.DoStat:
		a.inferBlock(ic, v.Body)
	case *ast.WhileStat:
		a.inferExpr(ic, v.Cond)
		a.inferBlock(ic, v.Body)
	case *ast.RepeatStat:
		a.inferBlock(ic, v.Body)
		a.inferExpr(ic, v.Cond)
	case *ast.IfStat:
		for _, cl := range v.Clauses {
			if cl.Cond != nil {
				a.inferExpr(ic, cl.Cond)
			}
			a.inferBlock(ic, cl.Body)
		}
	case *ast.NumericForStat:
		a.inferExpr(ic, v.Start)
		a.inferExpr(ic, v.Stop)
		if v.Step != nil {
			a.inferExpr(ic, v.Step)
		}
		declID := ids.DeclID{FileID: ic.file, Position: v.NameEnd}
		a.db.Types.Merge(index.DeclTypeOwner(declID), types.Number(), a.db.Members)
		a.inferBlock(ic, v.Body)
	case *ast.GenericForStat:
		for _, e := range v.Exprs {
			a.inferExpr(ic, e)
		}
		for _, pos := range v.NameEnd {
			declID := ids.DeclID{FileID: ic.file, Position: pos}
			a.db.Types.Merge(index.DeclTypeOwner(declID), types.Unknown(), a.db.Members)
		}
		a.inferBlock(ic, v.Body)
	case *ast.FunctionStat:
		a.inferFunctionStat(ic, v)
	case *ast.LocalFunctionStat:
		sigType := a.inferClosure(ic, v.Func)
		declID := ids.DeclID{FileID: ic.file, Position: v.NameEnd}
		a.db.Types.Merge(index.DeclTypeOwner(declID), sigType, a.db.Members)
	case *ast.ReturnStat:
		vals := a.spreadExprs(ic, v.Exprs, len(v.Exprs))
		if ic.returns != nil && len(*ic.returns) == 0 {
			*ic.returns = vals
		}
	}
}

// inferFunctionStat types `function name(...)`/`function a.b:c(...)`'s
// closure, then writes the result either into the plain name's decl slot
// (undotted form) or as a member of the dotted prefix: the table literal or
// instance `a.b` resolves to when its type is already cached, otherwise the
// class named by the prefix's last segment (spec.md §4.4; the same name
// decl analyze seeds `self` from).
func (a *Analyzer) inferFunctionStat(ic *inferCtx, v *ast.FunctionStat) {
	sigType := a.inferClosure(ic, v.Func)
	if len(v.DottedPath) == 0 {
		sem, ok := a.resolved[ic.file][ast.SyntaxID{Offset: v.NameEnd, Kind: ast.KNameExpr}]
		if ok && sem.Kind == ids.SemanticDeclDecl {
			a.db.Types.Merge(index.DeclTypeOwner(sem.Decl), sigType, a.db.Members)
		}
		return
	}
	owner := index.TypeOwner(ids.TypeDeclID{Name: v.DottedPath[len(v.DottedPath)-1]})
	if scope := a.db.Decls.ScopeContaining(ic.file, v.Range().Start); scope != nil {
		if d, ok := scope.Lookup(v.DottedPath[0]); ok {
			prefix, found := a.db.Types.Get(index.DeclTypeOwner(d.ID))
			for _, seg := range v.DottedPath[1:] {
				if found {
					prefix, found = a.findMember(prefix, index.NameKey(seg))
				}
			}
			if found && (prefix.Kind == types.KTableConst || prefix.Kind == types.KInstance) {
				owner = index.ElementOwner(prefix.TableRange)
			}
		}
	}
	a.db.Members.Add(&index.MemberInfo{
		ID:    ids.MemberID{FileID: ic.file, SyntaxID: v.Range().Start},
		Owner: owner,
		Key:   index.NameKey(v.Name),
		Type:  sigType,
		File:  ic.file,
		Range: v.Range(),
	})
}

func (a *Analyzer) inferLocalStat(ic *inferCtx, v *ast.LocalStat) {
	vals := a.spreadExprs(ic, v.Exprs, len(v.Names))
	for i, pos := range v.NameEnd {
		declID := ids.DeclID{FileID: ic.file, Position: pos}
		t := types.Nil()
		if i < len(vals) {
			t = vals[i]
		}
		a.db.Types.Merge(index.DeclTypeOwner(declID), t, a.db.Members)
	}
}

func (a *Analyzer) inferAssignStat(ic *inferCtx, v *ast.AssignStat) {
	vals := a.spreadExprs(ic, v.Exprs, len(v.Targets))
	for i, t := range v.Targets {
		val := types.Nil()
		if i < len(vals) {
			val = vals[i]
		}
		a.inferAssignTarget(ic, t, val)
	}
}

func (a *Analyzer) inferAssignTarget(ic *inferCtx, t ast.Expression, val types.Type) {
	switch v := t.(type) {
	case *ast.NameExpr:
		sem, ok := a.resolved[ic.file][v.SyntaxID()]
		if ok && sem.Kind == ids.SemanticDeclDecl {
			a.db.Types.Merge(index.DeclTypeOwner(sem.Decl), val, a.db.Members)
		}
	case *ast.IndexExpr:
		prefix := a.inferExpr(ic, v.Prefix)
		key := a.memberKeyOf(ic, v)
		a.recordAssignMember(ic, prefix, key, val, v)
	}
}

// recordAssignMember grows a table/instance/class's known shape the first
// time one of its fields is assigned (spec.md §4.4); a field a `@field`
// already declared, or a prior assignment already recorded, keeps its
// existing declaration rather than being overwritten here.
func (a *Analyzer) recordAssignMember(ic *inferCtx, prefix types.Type, key index.MemberKey, val types.Type, v *ast.IndexExpr) {
	var owner index.MemberOwner
	switch prefix.Kind {
	case types.KTableConst, types.KInstance:
		owner = index.ElementOwner(prefix.TableRange)
	case types.KRef, types.KDef:
		owner = index.TypeOwner(prefix.DeclID)
	default:
		return
	}
	if infos := a.db.Members.Members(owner, key); len(infos) > 0 {
		return
	}
	a.db.Members.Add(&index.MemberInfo{
		ID:    ids.MemberID{FileID: ic.file, SyntaxID: v.Range().Start},
		Owner: owner,
		Key:   key,
		Type:  val,
		File:  ic.file,
		Range: v.Range(),
	})
}

// spreadExprs types exprs in order, expanding the last expression's
// multi-return (spec.md §4.2's tuple-spread rule for the trailing slot of a
// local/assign statement). It neither pads nor truncates to count; callers
// read a slot past the end of the result as Nil.
func (a *Analyzer) spreadExprs(ic *inferCtx, exprs []ast.Expression, count int) []types.Type {
	out := make([]types.Type, 0, count)
	for i, e := range exprs {
		if i == len(exprs)-1 {
			out = append(out, a.exprReturns(ic, e)...)
		} else {
			out = append(out, a.inferExpr(ic, e))
		}
	}
	return out
}

// exprReturns expands a trailing call/vararg expression into its full
// multi-value return list; any other expression contributes exactly one
// value.
func (a *Analyzer) exprReturns(ic *inferCtx, e ast.Expression) []types.Type {
	switch e.(type) {
	case *ast.CallExpr, *ast.MethodCallExpr:
		t := a.inferExpr(ic, e)
		if rets, ok := ic.cache.callReturns(e.SyntaxID()); ok {
			return rets
		}
		return []types.Type{t}
	case *ast.VarargExpr:
		return []types.Type{types.Variadic(types.Any())}
	default:
		return []types.Type{a.inferExpr(ic, e)}
	}
}

func (a *Analyzer) spreadArgs(ic *inferCtx, exprs []ast.Expression) []types.Type {
	return a.spreadExprs(ic, exprs, len(exprs))
}

// inferClosure opens (or reopens) the flow graph flow analyze already built
// for fn and walks its body, returning the closure's own value type: a
// Signature referencing the SignatureIndex entry decl analyze created for
// it.
func (a *Analyzer) inferClosure(ic *inferCtx, fn *ast.FunctionExpr) types.Type {
	sigID := ids.SignatureID{FileID: ic.file, Position: fn.Range().Start}
	var collected []types.Type
	inner := &inferCtx{file: ic.file, cache: ic.cache, sig: sigID, queue: ic.queue, returns: &collected}
	if g, ok := a.db.Flows.Get(ids.FlowID{FileID: ic.file, Position: fn.Range().Start}); ok {
		inner.flow = g
	}
	a.inferBlock(inner, fn.Body)
	// A closure with no @return tags gets its Returns filled in from its own
	// body's first return statement, so a call site can still type the
	// result without requiring doc annotations on every local function.
	if info := a.db.Signatures.Declare(sigID); len(info.Returns) == 0 && len(collected) > 0 {
		rets := make([]index.SignatureReturn, len(collected))
		for i, t := range collected {
			rets[i] = index.SignatureReturn{Type: t}
		}
		info.Returns = rets
	}
	return types.Signature(sigID)
}

func literalType(e ast.Expression) (types.Type, bool) {
	switch v := e.(type) {
	case *ast.NilExpr:
		return types.Nil(), true
	case *ast.TrueExpr:
		return types.BooleanConst(true), true
	case *ast.FalseExpr:
		return types.BooleanConst(false), true
	case *ast.VarargExpr:
		return types.Variadic(types.Any()), true
	case *ast.NumberExpr:
		if v.IsInt {
			return types.IntegerConst(v.Int), true
		}
		return types.FloatConst(v.Float), true
	case *ast.StringExpr:
		return types.StringConst(v.Value), true
	}
	return types.Type{}, false
}

// inferExpr is the cached entry point every expression-shaped site calls
// through (spec.md §4.3's "infer_expr" with its three-state cache marker).
func (a *Analyzer) inferExpr(ic *inferCtx, e ast.Expression) types.Type {
	if e == nil {
		return types.Unknown()
	}
	if lt, ok := literalType(e); ok {
		a.db.Types.Merge(index.ExprTypeOwner(ic.file, e.SyntaxID()), lt, a.db.Members)
		return lt
	}
	syn := e.SyntaxID()
	if entry, ok := ic.cache.exprs[syn]; ok {
		if entry.state == inferReady {
			return entry.typ
		}
		// Still in flight: this is a recursive reference (a closure's body
		// referring to the very call whose return type is being computed).
		return types.Unknown()
	}
	entry := ic.cache.begin(syn)
	t := a.inferExprUncached(ic, e)
	ic.cache.finish(entry, t)
	a.db.Types.Merge(index.ExprTypeOwner(ic.file, syn), t, a.db.Members)
	return t
}

func (a *Analyzer) inferExprUncached(ic *inferCtx, e ast.Expression) types.Type {
	switch v := e.(type) {
	case *ast.NameExpr:
		return a.inferNameExpr(ic, v)
	case *ast.IndexExpr:
		return a.inferIndexExpr(ic, v)
	case *ast.CallExpr:
		return a.inferCallExpr(ic, v)
	case *ast.MethodCallExpr:
		return a.inferMethodCallExpr(ic, v)
	case *ast.BinaryExpr:
		return a.inferBinaryExpr(ic, v)
	case *ast.UnaryExpr:
		return a.inferUnaryExpr(ic, v)
	case *ast.ParenExpr:
		return a.inferExpr(ic, v.Inner)
	case *ast.TableExpr:
		return a.inferTableExpr(ic, v)
	case *ast.FunctionExpr:
		return a.inferClosure(ic, v)
	}
	return types.Unknown()
}

func declVarRef(decl *index.Decl, declID ids.DeclID) ids.VarRefID {
	if decl.Kind == index.DeclSelf {
		return ids.NewSelfVarRef(declID)
	}
	return ids.NewBareVarRef(declID)
}

func (a *Analyzer) inferNameExpr(ic *inferCtx, v *ast.NameExpr) types.Type {
	sem, ok := a.resolved[ic.file][v.SyntaxID()]
	if !ok || sem.Kind != ids.SemanticDeclDecl {
		return types.Unknown()
	}
	declID := sem.Decl
	decl, ok := a.db.Decls.Get(declID)
	if !ok {
		return types.Unknown()
	}
	base, hasType := a.db.Types.Get(index.DeclTypeOwner(declID))
	if !hasType {
		base = types.Unknown()
		if decl.Kind == index.DeclGlobal {
			a.enqueueDeclType(ic, declID)
		}
	}
	if ic.flow == nil {
		return base
	}
	return ic.flow.ResolveAt(declVarRef(decl, declID), v.Range(), base, a.db.TypeDecls)
}

// enqueueDeclType handles the one legitimate forward-reference case left by
// the time lua analyze runs: a global assigned in a file later in analysis
// order than the one reading it (requires that don't form a clean
// dependency order). Locals/params/self are always seeded before any use
// site within the same closure, so they never need this.
func (a *Analyzer) enqueueDeclType(ic *inferCtx, declID ids.DeclID) {
	*ic.queue = append(*ic.queue, UnresolvedWork{
		File:   ic.file,
		Reason: InferFailReason{Kind: ReasonUnresolveDeclType, Decl: declID},
		retry: func(a *Analyzer) (bool, *InferFailReason) {
			_, ok := a.db.Types.Get(index.DeclTypeOwner(declID))
			return ok, nil
		},
		finalize: func(a *Analyzer) {
			a.db.Types.Merge(index.DeclTypeOwner(declID), types.Any(), a.db.Members)
		},
	})
}

func (a *Analyzer) memberKeyOf(ic *inferCtx, v *ast.IndexExpr) index.MemberKey {
	if v.DotStyle {
		return index.NameKey(v.Key)
	}
	if v.KeyExpr == nil {
		return index.NoneKey()
	}
	switch lit := v.KeyExpr.(type) {
	case *ast.StringExpr:
		return index.NameKey(lit.Value)
	case *ast.NumberExpr:
		if lit.IsInt {
			return index.IntKey(lit.Int)
		}
	}
	return index.ExprKey(a.inferExpr(ic, v.KeyExpr))
}

func (a *Analyzer) inferIndexExpr(ic *inferCtx, v *ast.IndexExpr) types.Type {
	prefix := a.inferExpr(ic, v.Prefix)
	key := a.memberKeyOf(ic, v)
	if t, found := a.findMember(prefix, key); found {
		return t
	}
	return types.Unknown()
}

func combineMemberInfos(infos []*index.MemberInfo) types.Type {
	if len(infos) == 1 {
		return infos[0].Type
	}
	parts := make([]types.Type, len(infos))
	for i, inf := range infos {
		parts[i] = inf.Type
	}
	return types.Union(parts...)
}

// resolveMemberType walks owner's supertype chain (spec.md §4.4's
// `find_members`), the way types.IsSubTypeOf walks it for subtyping, since
// MemberIndex itself has no built-in inheritance-aware lookup.
func resolveMemberType(a *Analyzer, owner ids.TypeDeclID, key index.MemberKey) (types.Type, bool) {
	visited := make(map[ids.TypeDeclID]bool, 8)
	queue := []ids.TypeDeclID{owner}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if infos := a.db.Members.Members(index.TypeOwner(cur), key); len(infos) > 0 {
			return combineMemberInfos(infos), true
		}
		queue = append(queue, a.db.TypeDecls.DirectSupers(cur)...)
	}
	return types.Type{}, false
}

// findMember resolves a member access against every owner shape the type
// algebra can produce (spec.md §4.4): a named class/enum (supertype-chain
// lookup), an anonymous table literal or metatable-bearing instance (the
// table's own element owner, falling back to its class for Instance), a
// generic table (any key maps to its value type), and an array (integer
// keys map to the element type).
func (a *Analyzer) findMember(owner types.Type, key index.MemberKey) (types.Type, bool) {
	switch owner.Kind {
	case types.KRef, types.KDef:
		return resolveMemberType(a, owner.DeclID, key)
	case types.KInstance:
		if infos := a.db.Members.Members(index.ElementOwner(owner.TableRange), key); len(infos) > 0 {
			return combineMemberInfos(infos), true
		}
		return a.findMember(*owner.Elem, key)
	case types.KTableConst:
		if infos := a.db.Members.Members(index.ElementOwner(owner.TableRange), key); len(infos) > 0 {
			return combineMemberInfos(infos), true
		}
		return types.Type{}, false
	case types.KTableGeneric:
		if len(owner.Elems) == 0 {
			return types.Unknown(), true
		}
		return owner.Elems[len(owner.Elems)-1], true
	case types.KArray:
		if key.Kind == index.KeyInteger || key.Kind == index.KeyExprType {
			return *owner.Elem, true
		}
		return types.Type{}, false
	case types.KNullable:
		return a.findMember(*owner.Elem, key)
	case types.KUnion:
		var parts []types.Type
		for _, m := range owner.Elems {
			if t, ok := a.findMember(m, key); ok {
				parts = append(parts, t)
			}
		}
		if len(parts) == 0 {
			return types.Type{}, false
		}
		return types.Union(parts...), true
	default:
		return types.Type{}, false
	}
}

// docFunctionShape extracts the callable shape behind a function-valued
// type, whichever of the two ways a function can be typed produced it: an
// inline `fun(...)` doc type, or a live closure's SignatureIndex entry.
func (a *Analyzer) docFunctionShape(t types.Type) (types.DocFunctionShape, bool, bool) {
	switch t.Kind {
	case types.KDocFunction:
		if t.DocFn == nil {
			return types.DocFunctionShape{}, false, false
		}
		return *t.DocFn, t.DocFn.IsColonDefine, true
	case types.KSignature:
		info, ok := a.db.Signatures.Get(t.SigID)
		if !ok {
			return types.DocFunctionShape{}, false, false
		}
		params := make([]types.Param, len(info.Params))
		for i, p := range info.Params {
			params[i] = types.Param{Name: p.Name, Optional: p.Optional, Type: p.Type}
		}
		returns := make([]types.Type, len(info.Returns))
		for i, r := range info.Returns {
			returns[i] = r.Type
		}
		shape := types.DocFunctionShape{
			Params: params, Returns: returns,
			IsColonDefine: info.IsColonDefine, IsAsync: info.IsAsync, IsVararg: info.IsVararg,
		}
		return shape, info.IsColonDefine, true
	default:
		return types.DocFunctionShape{}, false, false
	}
}

func (a *Analyzer) dispatchCall(ic *inferCtx, syn ast.SyntaxID, calleeType types.Type, args []types.Type, isColonCall bool) types.Type {
	shape, defIsColonDefine, ok := a.docFunctionShape(calleeType)
	if !ok {
		return types.Unknown()
	}
	instantiated := types.InstantiateCall(shape, args, isColonCall, defIsColonDefine)
	ic.cache.setCallReturns(syn, instantiated.Returns)
	if len(instantiated.Returns) == 0 {
		return types.Nil()
	}
	return instantiated.Returns[0]
}

func (a *Analyzer) callOperatorFn(fn types.Type, args []types.Type) types.Type {
	shape, defIsColonDefine, ok := a.docFunctionShape(fn)
	if !ok {
		return types.Unknown()
	}
	instantiated := types.InstantiateCall(shape, args, true, defIsColonDefine)
	if len(instantiated.Returns) == 0 {
		return types.Nil()
	}
	return instantiated.Returns[0]
}

// calleeIsUnshadowedGlobal reports whether a call's NameExpr callee refers
// to a genuine global (i.e. not a local redefinition of `require`/
// `setmetatable`/`assert`), the condition builtin dispatch must check before
// special-casing those names.
func (a *Analyzer) calleeIsUnshadowedGlobal(ic *inferCtx, name *ast.NameExpr) bool {
	sem, ok := a.resolved[ic.file][name.SyntaxID()]
	if !ok || sem.Kind != ids.SemanticDeclDecl {
		return false
	}
	decl, ok := a.db.Decls.Get(sem.Decl)
	return ok && decl.Kind == index.DeclGlobal
}

func (a *Analyzer) inferCallExpr(ic *inferCtx, v *ast.CallExpr) types.Type {
	if name, ok := v.Callee.(*ast.NameExpr); ok && a.calleeIsUnshadowedGlobal(ic, name) {
		if a.cfg.IsRequireLike(name.Name) {
			if t, handled := a.inferRequireCall(ic, v); handled {
				return t
			}
		}
		switch name.Name {
		case "setmetatable":
			if t, handled := a.inferSetmetatableCall(ic, v); handled {
				return t
			}
		case "assert":
			if t, handled := a.inferAssertCall(ic, v); handled {
				return t
			}
		}
	}
	calleeType := a.inferExpr(ic, v.Callee)
	args := a.spreadArgs(ic, v.Args)
	return a.dispatchCall(ic, v.SyntaxID(), calleeType, args, false)
}

func (a *Analyzer) inferMethodCallExpr(ic *inferCtx, v *ast.MethodCallExpr) types.Type {
	recv := a.inferExpr(ic, v.Receiver)
	fnType, found := a.findMember(recv, index.NameKey(v.Method))
	if !found {
		for _, arg := range v.Args {
			a.inferExpr(ic, arg)
		}
		return types.Unknown()
	}
	args := a.spreadArgs(ic, v.Args)
	return a.dispatchCall(ic, v.SyntaxID(), fnType, args, true)
}

func metamethodFor(op string) string {
	switch op {
	case "+":
		return "__add"
	case "-":
		return "__sub"
	case "*":
		return "__mul"
	case "/":
		return "__div"
	case "%":
		return "__mod"
	case "^":
		return "__pow"
	case "//":
		return "__idiv"
	case "..":
		return "__concat"
	default:
		return ""
	}
}

func (a *Analyzer) operatorMethod(t types.Type, mm string) (types.Type, bool) {
	if mm == "" {
		return types.Type{}, false
	}
	switch t.Kind {
	case types.KRef, types.KDef:
		return a.db.Operators.Lookup(index.TypeOperatorOwner(t.DeclID), mm)
	case types.KTableConst:
		return a.db.Operators.Lookup(index.TableOperatorOwner(t.TableRange), mm)
	case types.KInstance:
		if fn, ok := a.db.Operators.Lookup(index.TableOperatorOwner(t.TableRange), mm); ok {
			return fn, true
		}
		return a.operatorMethod(*t.Elem, mm)
	default:
		return types.Type{}, false
	}
}

func constInt(t types.Type) (int64, bool) {
	if t.Kind == types.KIntegerConst || t.Kind == types.KDocIntegerConst {
		return t.Int, true
	}
	return 0, false
}

func foldArith(op string, l, r types.Type) (types.Type, bool) {
	li, lok := constInt(l)
	ri, rok := constInt(r)
	if !lok || !rok {
		return types.Type{}, false
	}
	switch op {
	case "+":
		return types.IntegerConst(li + ri), true
	case "-":
		return types.IntegerConst(li - ri), true
	case "*":
		return types.IntegerConst(li * ri), true
	case "%":
		if ri != 0 {
			return types.IntegerConst(li % ri), true
		}
	case "//":
		if ri != 0 {
			return types.IntegerConst(li / ri), true
		}
	}
	return types.Type{}, false
}

func (a *Analyzer) inferArithBinary(ic *inferCtx, v *ast.BinaryExpr, l, r types.Type) types.Type {
	if folded, ok := foldArith(v.Op, l, r); ok {
		return folded
	}
	mm := metamethodFor(v.Op)
	if fn, ok := a.operatorMethod(l, mm); ok {
		return a.callOperatorFn(fn, []types.Type{l, r})
	}
	if fn, ok := a.operatorMethod(r, mm); ok {
		return a.callOperatorFn(fn, []types.Type{l, r})
	}
	if v.Op == "/" || v.Op == "^" {
		return types.Number()
	}
	isIntish := func(t types.Type) bool { return t.Kind == types.KInteger || t.Kind == types.KIntegerConst }
	if isIntish(l) && isIntish(r) {
		return types.Integer()
	}
	return types.Number()
}

func (a *Analyzer) inferBinaryExpr(ic *inferCtx, v *ast.BinaryExpr) types.Type {
	switch v.Op {
	case "==", "~=", "<", ">", "<=", ">=":
		a.inferExpr(ic, v.Left)
		a.inferExpr(ic, v.Right)
		return types.Boolean()
	case "and":
		l := a.inferExpr(ic, v.Left)
		r := a.inferExpr(ic, v.Right)
		if truthy, known := types.IsTruthyConst(l); known && !truthy {
			return l
		}
		return types.Union(types.NarrowFalseOrNil(l), r)
	case "or":
		l := a.inferExpr(ic, v.Left)
		r := a.inferExpr(ic, v.Right)
		if truthy, known := types.IsTruthyConst(l); known && truthy {
			return l
		}
		return types.Union(types.RemoveNilOrFalse(l), r)
	case "..":
		l := a.inferExpr(ic, v.Left)
		r := a.inferExpr(ic, v.Right)
		if fn, ok := a.operatorMethod(l, metamethodFor(v.Op)); ok {
			return a.callOperatorFn(fn, []types.Type{l, r})
		}
		if fn, ok := a.operatorMethod(r, metamethodFor(v.Op)); ok {
			return a.callOperatorFn(fn, []types.Type{l, r})
		}
		return types.String()
	case "+", "-", "*", "/", "%", "^", "//":
		l := a.inferExpr(ic, v.Left)
		r := a.inferExpr(ic, v.Right)
		return a.inferArithBinary(ic, v, l, r)
	case "&", "|", "~", "<<", ">>":
		a.inferExpr(ic, v.Left)
		a.inferExpr(ic, v.Right)
		return types.Integer()
	default:
		a.inferExpr(ic, v.Left)
		a.inferExpr(ic, v.Right)
		return types.Unknown()
	}
}

func (a *Analyzer) inferUnaryExpr(ic *inferCtx, v *ast.UnaryExpr) types.Type {
	operand := a.inferExpr(ic, v.Operand)
	switch v.Op {
	case "not":
		if truthy, known := types.IsTruthyConst(operand); known {
			return types.BooleanConst(!truthy)
		}
		return types.Boolean()
	case "#":
		return types.Integer()
	case "-":
		if n, ok := constInt(operand); ok {
			return types.IntegerConst(-n)
		}
		if operand.Kind == types.KFloatConst {
			return types.FloatConst(-operand.Float)
		}
		if fn, ok := a.operatorMethod(operand, "__unm"); ok {
			return a.callOperatorFn(fn, []types.Type{operand})
		}
		return types.Number()
	case "~":
		return types.Integer()
	default:
		return types.Unknown()
	}
}

// inferTableExpr types a table constructor as TableConst(site) and records
// each field's key/value into the member index under that site's element
// owner (spec.md §4.4), the shape `TypeCache.Merge`'s
// `Def(cls) + TableConst(r)` rule later adopts into a class when the table
// is also `---@class`-annotated.
func (a *Analyzer) inferTableExpr(ic *inferCtx, v *ast.TableExpr) types.Type {
	site := ids.NewInFiled(ic.file, v.Range())
	arrayIdx := int64(1)
	for _, f := range v.Fields {
		valType := a.inferExpr(ic, f.Value)
		var key index.MemberKey
		switch {
		case f.Key != nil:
			key = index.NameKey(*f.Key)
		case f.KeyExpr != nil:
			kt := a.inferExpr(ic, f.KeyExpr)
			switch kt.Kind {
			case types.KStringConst, types.KDocStringConst:
				key = index.NameKey(kt.Str)
			case types.KIntegerConst, types.KDocIntegerConst:
				key = index.IntKey(kt.Int)
			default:
				key = index.ExprKey(kt)
			}
		default:
			key = index.IntKey(arrayIdx)
			arrayIdx++
		}
		a.db.Members.Add(&index.MemberInfo{
			ID:    ids.MemberID{FileID: ic.file, SyntaxID: f.Range.Start},
			Owner: index.ElementOwner(site),
			Key:   key,
			Type:  valType,
			File:  ic.file,
			Range: f.Range,
		})
	}
	return types.TableConst(site)
}
