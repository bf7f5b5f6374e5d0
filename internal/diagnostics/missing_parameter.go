package diagnostics

import (
	"fmt"
	"strings"

	"github.com/emmylua-go/analyzer/internal/ast"
)

// missingParameterChecker ports the original's
// diagnostic/checker/missing_parameter.rs: a call site short of
// non-optional parameters is flagged over the whole call expression, unless
// the last supplied argument is `...` (spec.md §8 scenario S6: "f() →
// MissingParameter: expected 1").
type missingParameterChecker struct{}

func (missingParameterChecker) Code() DiagnosticCode { return CodeMissingParameter }

func (c missingParameterChecker) Check(ctx *DiagnosticContext, chunk *ast.Chunk) {
	walkExprs(chunk.Body, func(e ast.Expression) {
		call, ok := e.(*ast.CallExpr)
		if !ok {
			return
		}
		c.checkCall(ctx, call)
	})
}

func (c missingParameterChecker) checkCall(ctx *DiagnosticContext, call *ast.CallExpr) {
	calleeType, ok := exprType(ctx.db, ctx.file, call.Callee)
	if !ok {
		return
	}
	shape, ok := funcShape(ctx.db, calleeType)
	if !ok {
		return
	}
	argsCount := len(call.Args)
	if argsCount >= len(shape.Params) {
		return
	}
	if argsCount != 0 {
		if _, isVararg := call.Args[argsCount-1].(*ast.VarargExpr); isVararg {
			return
		}
	}

	var missing []string
	for i := argsCount; i < len(shape.Params); i++ {
		p := shape.Params[i]
		if p.Optional {
			continue
		}
		missing = append(missing, fmt.Sprintf("missing parameter: %s", p.Name))
	}
	if len(missing) == 0 {
		return
	}
	ctx.AddDiagnostic(CodeMissingParameter, call.Range(), fmt.Sprintf(
		"expected %d but founded %d.\n%s", len(shape.Params), argsCount, strings.Join(missing, "\n"),
	))
}
