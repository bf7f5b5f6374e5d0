package diagnostics

import (
	"fmt"

	"github.com/emmylua-go/analyzer/internal/ast"
)

// needCheckNilChecker ports the original's
// diagnostic/checker/need_check_nil.rs: flags a call/index/arithmetic on a
// value whose inferred type could be nil, without requiring the value be
// narrowed first.
type needCheckNilChecker struct{}

func (needCheckNilChecker) Code() DiagnosticCode { return CodeNeedCheckNil }

func (c needCheckNilChecker) Check(ctx *DiagnosticContext, chunk *ast.Chunk) {
	walkExprs(chunk.Body, func(e ast.Expression) {
		switch v := e.(type) {
		case *ast.CallExpr:
			c.checkOptional(ctx, v.Callee, "function %s may be nil")
		case *ast.IndexExpr:
			c.checkOptional(ctx, v.Prefix, "%s may be nil")
		case *ast.BinaryExpr:
			if isArithOp(v.Op) {
				c.checkOptional(ctx, v.Left, "%s value may be nil")
				c.checkOptional(ctx, v.Right, "%s value may be nil")
			}
		}
	})
}

func (c needCheckNilChecker) checkOptional(ctx *DiagnosticContext, e ast.Expression, format string) {
	t, ok := exprType(ctx.db, ctx.file, e)
	if !ok || !isOptional(t) {
		return
	}
	ctx.AddDiagnostic(CodeNeedCheckNil, e.Range(), fmt.Sprintf(format, exprLabel(e)))
}

func isArithOp(op string) bool {
	switch op {
	case "+", "-", "*", "/", "%":
		return true
	default:
		return false
	}
}

// exprLabel renders a short human label for an expression in diagnostic
// text, the cheap substitute for the original's `prefix.syntax().text()`
// (the core carries no verbatim source slice to echo back).
func exprLabel(e ast.Expression) string {
	switch v := e.(type) {
	case *ast.NameExpr:
		return v.Name
	case *ast.IndexExpr:
		if v.DotStyle {
			return exprLabel(v.Prefix) + "." + v.Key
		}
		return exprLabel(v.Prefix) + "[...]"
	case *ast.MethodCallExpr:
		return exprLabel(v.Receiver) + ":" + v.Method + "(...)"
	case *ast.CallExpr:
		return exprLabel(v.Callee) + "(...)"
	default:
		return "expression"
	}
}
