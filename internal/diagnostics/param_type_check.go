package diagnostics

import (
	"fmt"

	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/types"
)

// paramTypeCheckChecker ports the original's
// diagnostic/checker/param_type_check.rs — "a simple implementation of
// param type check, later we will do better" per its own comment. Checks
// positional args against declared param types; an untyped/unknown
// argument is treated as Any rather than flagged (spec.md §8 scenario
// S2: "cmd(1) fails with ParamTypeNotMatch").
type paramTypeCheckChecker struct{}

func (paramTypeCheckChecker) Code() DiagnosticCode { return CodeParamTypeNotMatch }

func (c paramTypeCheckChecker) Check(ctx *DiagnosticContext, chunk *ast.Chunk) {
	walkExprs(chunk.Body, func(e ast.Expression) {
		call, ok := e.(*ast.CallExpr)
		if !ok {
			return
		}
		c.checkCall(ctx, call)
	})
}

func (c paramTypeCheckChecker) checkCall(ctx *DiagnosticContext, call *ast.CallExpr) {
	calleeType, ok := exprType(ctx.db, ctx.file, call.Callee)
	if !ok {
		return
	}
	shape, ok := funcShape(ctx.db, calleeType)
	if !ok {
		return
	}

	for i, param := range shape.Params {
		if i >= len(call.Args) {
			break
		}
		if param.Type.Kind == types.KUnknown {
			continue
		}
		arg := call.Args[i]
		argType, ok := exprType(ctx.db, ctx.file, arg)
		if !ok || argType.Kind == types.KUnknown {
			argType = types.Any()
		}
		if types.CheckTypeCompat(param.Type, argType, ctx.db.TypeDecls) != types.Compatible {
			ctx.AddDiagnostic(CodeParamTypeNotMatch, arg.Range(), fmt.Sprintf(
				"expected %s but founded %s", param.Type.String(), argType.String(),
			))
		}
	}
}
