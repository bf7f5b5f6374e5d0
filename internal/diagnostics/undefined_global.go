package diagnostics

import (
	"fmt"
	"regexp"

	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/index"
)

// undefinedGlobalChecker ports the original's
// diagnostic/checker/undefined_global.rs: a bare name that resolves to
// neither a local/param/self binding nor a genuinely-assigned global (nor
// the configured globals whitelist) is flagged where it's used.
//
// Decl analyze (analyzer/decl.go) auto-registers every unresolved name
// read as a global decl the same way Lua itself treats an undeclared
// name, so DeclIndex.Globals alone can't distinguish "assigned somewhere"
// from "only ever read" the way the original's decl index does. This
// checker instead asks the reference index whether that shared global
// decl ever saw a write.
type undefinedGlobalChecker struct{}

func (undefinedGlobalChecker) Code() DiagnosticCode { return CodeUndefinedGlobal }

func (c undefinedGlobalChecker) Check(ctx *DiagnosticContext, chunk *ast.Chunk) {
	walkExprs(chunk.Body, func(e ast.Expression) {
		name, ok := e.(*ast.NameExpr)
		if !ok {
			return
		}
		c.checkName(ctx, name)
	})
}

func (c undefinedGlobalChecker) checkName(ctx *DiagnosticContext, name *ast.NameExpr) {
	if name.Name == "self" || name.Name == "_" {
		return
	}

	scope := ctx.db.Decls.ScopeContaining(ctx.file, name.Range().Start)
	if scope != nil {
		if decl, ok := scope.Lookup(name.Name); ok && decl.Kind != index.DeclGlobal {
			return
		}
	}

	if isKnownGlobal(ctx, name.Name) {
		return
	}
	if globalWasAssigned(ctx, name.Name) {
		return
	}

	ctx.AddDiagnostic(CodeUndefinedGlobal, name.Range(), fmt.Sprintf("undefined global variable: %s", name.Name))
}

// globalWasAssigned reports whether any reference to name's shared global
// decl anywhere in the workspace was a write.
func globalWasAssigned(ctx *DiagnosticContext, name string) bool {
	globals := ctx.db.Decls.Globals(name)
	if len(globals) == 0 {
		return false
	}
	refs, err := ctx.db.References.ReferencesTo(ids.NewSemanticDeclFromDecl(globals[0].ID))
	if err != nil {
		return false
	}
	for _, r := range refs {
		if r.Kind == index.RefWrite {
			return true
		}
	}
	return false
}

func isKnownGlobal(ctx *DiagnosticContext, name string) bool {
	if builtinGlobals[name] {
		return true
	}
	for _, g := range ctx.cfg.Diagnostics.Globals {
		if g == name {
			return true
		}
	}
	for _, pattern := range ctx.cfg.Diagnostics.GlobalsRegex {
		if ok, err := regexp.MatchString(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// builtinGlobals is the Lua 5.1-5.4/LuaJIT standard-library global
// namespace: names the runtime pre-populates in _G, so a read with no
// in-workspace write is expected rather than undefined.
var builtinGlobals = map[string]bool{
	"_G": true, "_VERSION": true,
	"assert": true, "collectgarbage": true, "dofile": true, "error": true,
	"getmetatable": true, "ipairs": true, "load": true, "loadfile": true,
	"loadstring": true, "module": true, "next": true, "pairs": true,
	"pcall": true, "print": true, "rawequal": true, "rawget": true,
	"rawlen": true, "rawset": true, "require": true, "select": true,
	"setfenv": true, "setmetatable": true, "tonumber": true, "tostring": true,
	"type": true, "unpack": true, "xpcall": true,
	"string": true, "table": true, "math": true, "io": true, "os": true,
	"coroutine": true, "debug": true, "utf8": true, "bit": true, "bit32": true,
	"jit": true, "package": true,
}
