package analyzer

import (
	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/index"
	"github.com/emmylua-go/analyzer/internal/types"
)

// declCtx carries the state one file's decl walk threads through: the
// file being walked, the chunk's root scope (where auto-vivified globals
// land, per §4.1's "global decls") and the file's use-site resolution map
// (Analyzer.resolved[file]) that lua analyze later reads.
type declCtx struct {
	file      ids.FileID
	chunk     *index.Scope
	resolved  map[ast.SyntaxID]ids.SemanticDeclID
}

// analyzeDecls is pipeline phase 2 (spec.md §4.1): builds the scope tree,
// binds every local/param/self/global, and records a read/write reference
// for every name use-site.
func (a *Analyzer) analyzeDecls(f ids.FileID, chunk *ast.Chunk) {
	if chunk == nil {
		return
	}
	root := a.db.Decls.NewScope(f, index.ScopeChunk, nil, chunk.Range())
	dc := &declCtx{file: f, chunk: root, resolved: a.resolved[f]}
	a.walkBlockDecls(dc, chunk.Body, root)
}

func (a *Analyzer) walkBlockDecls(dc *declCtx, b *ast.Block, scope *index.Scope) {
	if b == nil {
		return
	}
	for _, s := range b.Stats {
		a.walkStatDecls(dc, s, scope)
	}
}

func (a *Analyzer) walkStatDecls(dc *declCtx, s ast.Statement, scope *index.Scope) {
	switch v := s.(type) {
	case *ast.LocalStat:
		for _, e := range v.Exprs {
			a.walkExprDecls(dc, e, scope)
		}
		for i, name := range v.Names {
			pos := v.NameEnd[i]
			attrib := ""
			if i < len(v.Attribs) {
				attrib = v.Attribs[i]
			}
			a.db.Decls.Define(scope, &index.Decl{
				ID: ids.DeclID{FileID: dc.file, Position: pos}, Name: name,
				Kind: index.DeclLocal, Attrib: attrib,
			})
		}
	case *ast.AssignStat:
		for _, e := range v.Exprs {
			a.walkExprDecls(dc, e, scope)
		}
		for _, t := range v.Targets {
			a.walkAssignTargetDecls(dc, t, scope)
		}
	case *ast.CallStat:
		a.walkExprDecls(dc, v.Call, scope)
	case *ast.DoStat:
		inner := a.db.Decls.NewScope(dc.file, index.ScopeBlock, scope, v.Body.Range())
		a.walkBlockDecls(dc, v.Body, inner)
	case *ast.WhileStat:
		a.walkExprDecls(dc, v.Cond, scope)
		inner := a.db.Decls.NewScope(dc.file, index.ScopeBlock, scope, v.Body.Range())
		a.walkBlockDecls(dc, v.Body, inner)
	case *ast.RepeatStat:
		inner := a.db.Decls.NewScope(dc.file, index.ScopeBlock, scope, v.Body.Range())
		a.walkBlockDecls(dc, v.Body, inner)
		// `until cond` sees locals declared in the repeat body.
		a.walkExprDecls(dc, v.Cond, inner)
	case *ast.IfStat:
		for _, c := range v.Clauses {
			if c.Cond != nil {
				a.walkExprDecls(dc, c.Cond, scope)
			}
			inner := a.db.Decls.NewScope(dc.file, index.ScopeBlock, scope, c.Body.Range())
			a.walkBlockDecls(dc, c.Body, inner)
		}
	case *ast.NumericForStat:
		a.walkExprDecls(dc, v.Start, scope)
		a.walkExprDecls(dc, v.Stop, scope)
		if v.Step != nil {
			a.walkExprDecls(dc, v.Step, scope)
		}
		inner := a.db.Decls.NewScope(dc.file, index.ScopeBlock, scope, v.Body.Range())
		a.db.Decls.Define(inner, &index.Decl{ID: ids.DeclID{FileID: dc.file, Position: v.NameEnd}, Name: v.Name, Kind: index.DeclLocal})
		a.walkBlockDecls(dc, v.Body, inner)
	case *ast.GenericForStat:
		for _, e := range v.Exprs {
			a.walkExprDecls(dc, e, scope)
		}
		inner := a.db.Decls.NewScope(dc.file, index.ScopeBlock, scope, v.Body.Range())
		for i, name := range v.Names {
			a.db.Decls.Define(inner, &index.Decl{ID: ids.DeclID{FileID: dc.file, Position: v.NameEnd[i]}, Name: name, Kind: index.DeclLocal})
		}
		a.walkBlockDecls(dc, v.Body, inner)
	case *ast.FunctionStat:
		a.walkFunctionStatDecls(dc, v, scope)
	case *ast.LocalFunctionStat:
		decl := &index.Decl{ID: ids.DeclID{FileID: dc.file, Position: v.NameEnd}, Name: v.Name, Kind: index.DeclLocal}
		a.db.Decls.Define(scope, decl)
		a.walkFunctionExprDecls(dc, v.Func, scope, ids.TypeDeclID{})
	case *ast.ReturnStat:
		for _, e := range v.Exprs {
			a.walkExprDecls(dc, e, scope)
		}
	}
}

func (a *Analyzer) walkFunctionStatDecls(dc *declCtx, v *ast.FunctionStat, scope *index.Scope) {
	var ownerHint ids.TypeDeclID
	if len(v.DottedPath) == 0 {
		d, ok := scope.Lookup(v.Name)
		if !ok {
			d = a.autoGlobal(dc, v.Name, v.NameEnd)
		}
		dc.resolved[ast.SyntaxID{Offset: v.NameEnd, Kind: ast.KNameExpr}] = ids.NewSemanticDeclFromDecl(d.ID)
		ownerHint = ids.TypeDeclID{Name: v.Name}
	} else {
		// `function a.b:c(...)` — the dotted prefix resolves to a member
		// site rather than a decl; lua analyze binds it via the member
		// index once the prefix's type is known.
		ownerHint = ids.TypeDeclID{Name: v.DottedPath[len(v.DottedPath)-1]}
	}
	a.walkFunctionExprDecls(dc, v.Func, scope, ownerHint)
}

func (a *Analyzer) walkFunctionExprDecls(dc *declCtx, fn *ast.FunctionExpr, outer *index.Scope, selfHint ids.TypeDeclID) {
	sigID := ids.SignatureID{FileID: dc.file, Position: fn.Range().Start}
	info := a.db.Signatures.Declare(sigID)
	info.IsVararg = fn.IsVararg

	inner := a.db.Decls.NewScope(dc.file, index.ScopeFunction, outer, fn.Body.Range())
	if fn.SelfOwner {
		selfID := ids.DeclID{FileID: dc.file, Position: fn.Range().Start}
		a.db.Decls.Define(inner, &index.Decl{ID: selfID, Name: "self", Kind: index.DeclSelf})
		if selfHint.Name != "" {
			a.db.Types.Merge(index.DeclTypeOwner(selfID), types.Ref(selfHint), a.db.Members)
		}
	}
	for _, p := range fn.Params {
		a.db.Decls.Define(inner, &index.Decl{ID: ids.DeclID{FileID: dc.file, Position: p.NameEnd}, Name: p.Name, Kind: index.DeclParam})
		info.Params = append(info.Params, index.SignatureParam{Name: p.Name})
	}
	a.walkBlockDecls(dc, fn.Body, inner)
}

func (a *Analyzer) walkAssignTargetDecls(dc *declCtx, t ast.Expression, scope *index.Scope) {
	switch v := t.(type) {
	case *ast.NameExpr:
		d, ok := scope.Lookup(v.Name)
		if !ok {
			d = a.autoGlobal(dc, v.Name, v.Range().Start)
		}
		dc.resolved[v.SyntaxID()] = ids.NewSemanticDeclFromDecl(d.ID)
		_ = a.db.References.Add(index.Reference{FileID: dc.file, Range: v.Range(), Decl: ids.NewSemanticDeclFromDecl(d.ID), Kind: index.RefWrite})
	case *ast.IndexExpr:
		a.walkExprDecls(dc, v.Prefix, scope)
		if v.KeyExpr != nil {
			a.walkExprDecls(dc, v.KeyExpr, scope)
		}
	}
}

// autoGlobal resolves name as a global, reusing the shared Decl across
// files (spec.md §4.1 global decls are a single cross-file namespace) and
// registering it in this file's chunk scope so later lookups within the
// same file are a plain Scope.Lookup.
func (a *Analyzer) autoGlobal(dc *declCtx, name string, pos int) *index.Decl {
	if existing := a.db.Decls.Globals(name); len(existing) > 0 {
		d := existing[0]
		dc.chunk.Decls[name] = d
		return d
	}
	decl := &index.Decl{ID: ids.DeclID{FileID: dc.file, Position: pos}, Name: name, Kind: index.DeclGlobal}
	a.db.Decls.Define(dc.chunk, decl)
	return decl
}

func (a *Analyzer) walkExprDecls(dc *declCtx, e ast.Expression, scope *index.Scope) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case *ast.NameExpr:
		d, ok := scope.Lookup(v.Name)
		if !ok {
			d = a.autoGlobal(dc, v.Name, v.Range().Start)
		}
		dc.resolved[v.SyntaxID()] = ids.NewSemanticDeclFromDecl(d.ID)
		_ = a.db.References.Add(index.Reference{FileID: dc.file, Range: v.Range(), Decl: ids.NewSemanticDeclFromDecl(d.ID), Kind: index.RefRead})
	case *ast.IndexExpr:
		a.walkExprDecls(dc, v.Prefix, scope)
		if v.KeyExpr != nil {
			a.walkExprDecls(dc, v.KeyExpr, scope)
		}
	case *ast.CallExpr:
		a.walkExprDecls(dc, v.Callee, scope)
		for _, arg := range v.Args {
			a.walkExprDecls(dc, arg, scope)
		}
	case *ast.MethodCallExpr:
		a.walkExprDecls(dc, v.Receiver, scope)
		for _, arg := range v.Args {
			a.walkExprDecls(dc, arg, scope)
		}
	case *ast.BinaryExpr:
		a.walkExprDecls(dc, v.Left, scope)
		a.walkExprDecls(dc, v.Right, scope)
	case *ast.UnaryExpr:
		a.walkExprDecls(dc, v.Operand, scope)
	case *ast.ParenExpr:
		a.walkExprDecls(dc, v.Inner, scope)
	case *ast.TableExpr:
		for _, fld := range v.Fields {
			if fld.KeyExpr != nil {
				a.walkExprDecls(dc, fld.KeyExpr, scope)
			}
			a.walkExprDecls(dc, fld.Value, scope)
		}
	case *ast.FunctionExpr:
		a.walkFunctionExprDecls(dc, v, scope, ids.TypeDeclID{})
	}
}
