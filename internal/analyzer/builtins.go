package analyzer

import (
	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/index"
	"github.com/emmylua-go/analyzer/internal/types"
)

// metamethodNames lists the `__`-prefixed keys setmetatable's field scan
// recognizes (spec.md §4.4's operator-table wiring).
var metamethodNames = []string{
	"__add", "__sub", "__mul", "__div", "__mod", "__pow", "__idiv",
	"__unm", "__concat", "__eq", "__lt", "__le", "__index", "__newindex",
	"__call", "__len",
}

// inferRequireCall resolves a `require("mod")` call (or whatever name
// config.RuntimeConfig.RequireLikeFunction lists) against ModuleIndex, and
// reads the required file's export type back out of TypeCache under its
// synthetic module-export DeclID. Returns handled=false for anything other
// than a single string-literal argument, letting the ordinary call-dispatch
// path run instead.
func (a *Analyzer) inferRequireCall(ic *inferCtx, v *ast.CallExpr) (types.Type, bool) {
	if len(v.Args) != 1 {
		return types.Type{}, false
	}
	lit, ok := v.Args[0].(*ast.StringExpr)
	if !ok {
		return types.Type{}, false
	}
	target, ok := a.db.Modules.Resolve(lit.Value)
	if !ok {
		return types.Any(), true
	}
	if t, ok := a.db.Types.Get(index.DeclTypeOwner(moduleExportDecl(target))); ok {
		return t, true
	}
	return types.Any(), true
}

// inferSetmetatableCall types `setmetatable(t, mt)` as t itself (its usual
// Lua return value) and wires mt's `__`-named fields into OperatorIndex so
// later arithmetic/`..`/unary-minus expressions on values built from t can
// dispatch to them (spec.md §4.4).
func (a *Analyzer) inferSetmetatableCall(ic *inferCtx, v *ast.CallExpr) (types.Type, bool) {
	if len(v.Args) < 2 {
		return types.Type{}, false
	}
	tableType := a.inferExpr(ic, v.Args[0])
	mtType := a.inferExpr(ic, v.Args[1])
	for _, arg := range v.Args[2:] {
		a.inferExpr(ic, arg)
	}
	var owner index.OperatorOwner
	switch tableType.Kind {
	case types.KTableConst, types.KInstance:
		owner = index.TableOperatorOwner(tableType.TableRange)
	case types.KRef, types.KDef:
		owner = index.TypeOperatorOwner(tableType.DeclID)
	default:
		return tableType, true
	}
	var mtOwner index.MemberOwner
	switch mtType.Kind {
	case types.KTableConst, types.KInstance:
		mtOwner = index.ElementOwner(mtType.TableRange)
	case types.KRef, types.KDef:
		mtOwner = index.TypeOwner(mtType.DeclID)
	default:
		return tableType, true
	}
	for _, name := range metamethodNames {
		infos := a.db.Members.Members(mtOwner, index.NameKey(name))
		if len(infos) == 0 {
			continue
		}
		a.db.Operators.Register(owner, ic.file, name, combineMemberInfos(infos))
	}
	return tableType, true
}

// inferAssertCall types `assert(x, ...)` as x narrowed truthy (Lua's
// `assert` raises rather than returning when x is falsy), matching the
// `assert(x)`-as-a-narrowing-source flow analyze already recognizes in
// statement position.
func (a *Analyzer) inferAssertCall(ic *inferCtx, v *ast.CallExpr) (types.Type, bool) {
	if len(v.Args) == 0 {
		return types.Type{}, false
	}
	cond := a.inferExpr(ic, v.Args[0])
	for _, arg := range v.Args[1:] {
		a.inferExpr(ic, arg)
	}
	return types.RemoveNilOrFalse(cond), true
}
