package diagnostics

import (
	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/config"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/index"
	"github.com/emmylua-go/analyzer/internal/types"
)

// Diagnostic is one reported finding (the original's lsp_types::Diagnostic,
// narrowed to the fields the core itself owns — editor-protocol encoding
// stays out of scope per spec.md).
type Diagnostic struct {
	Code    DiagnosticCode
	Range   ids.Range
	Message string
	Severity Severity
}

// LuaChecker is one independently-runnable rule (the original's
// diagnostic/checker/mod.rs `trait LuaChecker`).
type LuaChecker interface {
	Code() DiagnosticCode
	Check(ctx *DiagnosticContext, chunk *ast.Chunk)
}

// DiagnosticContext is the per-file, per-run scratch a checker reports
// through; it owns suppression filtering and severity resolution so
// individual checkers only ever call AddDiagnostic.
type DiagnosticContext struct {
	db   *index.DbIndex
	cfg  config.Config
	file ids.FileID

	suppression *SuppressionIndex
	diagnostics []Diagnostic
}

func newContext(db *index.DbIndex, cfg config.Config, file ids.FileID, chunk *ast.Chunk) *DiagnosticContext {
	return &DiagnosticContext{
		db:          db,
		cfg:         cfg,
		file:        file,
		suppression: BuildSuppressionIndex(chunk),
	}
}

// AddDiagnostic records one finding unless `@diagnostic disable`-style
// suppression covers its range, mirroring the original's
// `should_report_diagnostic` gate.
func (c *DiagnosticContext) AddDiagnostic(code DiagnosticCode, r ids.Range, message string) {
	if c.suppression.IsDisabled(code, r) {
		return
	}
	c.diagnostics = append(c.diagnostics, Diagnostic{
		Code:    code,
		Range:   r,
		Message: message,
		Severity: severityFor(c.cfg, code),
	})
}

func severityFor(cfg config.Config, code DiagnosticCode) Severity {
	if s, ok := cfg.Diagnostics.Severity[string(code)]; ok {
		switch s {
		case "error":
			return SeverityError
		case "warning":
			return SeverityWarning
		case "information", "info":
			return SeverityInformation
		case "hint":
			return SeverityHint
		}
	}
	return defaultSeverity(code)
}

func codeDisabled(cfg config.Config, code DiagnosticCode) bool {
	for _, c := range cfg.Diagnostics.Disable {
		if DiagnosticCode(c) == code {
			return true
		}
	}
	return false
}

// checkers is the fixed rule set (the original's `init_checkers`),
// restricted to the four the pack's original_source carries in full.
var checkers = []LuaChecker{
	&missingParameterChecker{},
	&undefinedGlobalChecker{},
	&needCheckNilChecker{},
	&paramTypeCheckChecker{},
}

// Run executes every enabled checker over one already-analyzed file and
// returns its findings, suppression-filtered and severity-resolved.
// db must already have gone through Analyzer.Analyze for file — every
// checker reads cached inference results, it never runs inference itself.
func Run(db *index.DbIndex, cfg config.Config, file ids.FileID, chunk *ast.Chunk) []Diagnostic {
	ctx := newContext(db, cfg, file, chunk)
	for _, checker := range checkers {
		if codeDisabled(cfg, checker.Code()) {
			continue
		}
		checker.Check(ctx, chunk)
	}
	return ctx.diagnostics
}

// exprType reads an expression's cached inferred type (populated by
// Analyzer.Analyze's lua-analyze phase); ok is false when the expression
// was never reached (e.g. dead code, or analysis not yet run).
func exprType(db *index.DbIndex, file ids.FileID, e ast.Expression) (types.Type, bool) {
	return db.Types.Get(index.ExprTypeOwner(file, e.SyntaxID()))
}

// funcShape extracts the callable shape backing t: the two alternatives
// analyzer.docFunctionShape resolves (an inline `fun(...)` doc type, or a
// live closure's declared signature), plus an Instance, read through the
// type it wraps — duplicated here
// rather than exported from analyzer to keep diagnostics a read-only
// consumer of the index set, not of analyzer's internal scratch state.
func funcShape(db *index.DbIndex, t types.Type) (types.DocFunctionShape, bool) {
	switch t.Kind {
	case types.KDocFunction:
		if t.DocFn == nil {
			return types.DocFunctionShape{}, false
		}
		return *t.DocFn, true
	case types.KSignature:
		info, ok := db.Signatures.Get(t.SigID)
		if !ok {
			return types.DocFunctionShape{}, false
		}
		params := make([]types.Param, len(info.Params))
		for i, p := range info.Params {
			params[i] = types.Param{Name: p.Name, Optional: p.Optional, Type: p.Type}
		}
		returns := make([]types.Type, len(info.Returns))
		for i, r := range info.Returns {
			returns[i] = r.Type
		}
		return types.DocFunctionShape{
			Params: params, Returns: returns,
			IsColonDefine: info.IsColonDefine, IsAsync: info.IsAsync, IsVararg: info.IsVararg,
		}, true
	case types.KInstance:
		return funcShape(db, *t.Elem)
	default:
		return types.DocFunctionShape{}, false
	}
}

// isOptional reports whether t could observe nil at runtime — the
// original's `LuaType::is_optional()`.
func isOptional(t types.Type) bool {
	switch t.Kind {
	case types.KNil, types.KNullable:
		return true
	case types.KUnion:
		for _, m := range t.Elems {
			if m.Kind == types.KNil {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// walkExprs recursively visits every expression in chunk, the shared
// traversal each checker needs (matching `descendants::<T>()` over the
// original's rowan tree).
func walkExprs(b *ast.Block, visit func(ast.Expression)) {
	if b == nil {
		return
	}
	for _, s := range b.Stats {
		walkStatExprs(s, visit)
	}
}

func walkStatExprs(s ast.Statement, visit func(ast.Expression)) {
	switch v := s.(type) {
	case *ast.LocalStat:
		for _, e := range v.Exprs {
			walkExprTree(e, visit)
		}
	case *ast.AssignStat:
		for _, t := range v.Targets {
			walkExprTree(t, visit)
		}
		for _, e := range v.Exprs {
			walkExprTree(e, visit)
		}
	case *ast.CallStat:
		walkExprTree(v.Call, visit)
	case *ast.DoStat:
		walkExprs(v.Body, visit)
	case *ast.WhileStat:
		walkExprTree(v.Cond, visit)
		walkExprs(v.Body, visit)
	case *ast.RepeatStat:
		walkExprs(v.Body, visit)
		walkExprTree(v.Cond, visit)
	case *ast.IfStat:
		for _, c := range v.Clauses {
			if c.Cond != nil {
				walkExprTree(c.Cond, visit)
			}
			walkExprs(c.Body, visit)
		}
	case *ast.NumericForStat:
		walkExprTree(v.Start, visit)
		walkExprTree(v.Stop, visit)
		if v.Step != nil {
			walkExprTree(v.Step, visit)
		}
		walkExprs(v.Body, visit)
	case *ast.GenericForStat:
		for _, e := range v.Exprs {
			walkExprTree(e, visit)
		}
		walkExprs(v.Body, visit)
	case *ast.FunctionStat:
		walkExprTree(v.Func, visit)
	case *ast.LocalFunctionStat:
		walkExprTree(v.Func, visit)
	case *ast.ReturnStat:
		for _, e := range v.Exprs {
			walkExprTree(e, visit)
		}
	}
}

// walkExprTree visits e and everything nested inside it (call args,
// binary operands, table fields, closure bodies).
func walkExprTree(e ast.Expression, visit func(ast.Expression)) {
	if e == nil {
		return
	}
	visit(e)
	switch v := e.(type) {
	case *ast.IndexExpr:
		walkExprTree(v.Prefix, visit)
		if v.KeyExpr != nil {
			walkExprTree(v.KeyExpr, visit)
		}
	case *ast.CallExpr:
		walkExprTree(v.Callee, visit)
		for _, a := range v.Args {
			walkExprTree(a, visit)
		}
	case *ast.MethodCallExpr:
		walkExprTree(v.Receiver, visit)
		for _, a := range v.Args {
			walkExprTree(a, visit)
		}
	case *ast.BinaryExpr:
		walkExprTree(v.Left, visit)
		walkExprTree(v.Right, visit)
	case *ast.UnaryExpr:
		walkExprTree(v.Operand, visit)
	case *ast.ParenExpr:
		walkExprTree(v.Inner, visit)
	case *ast.TableExpr:
		for _, f := range v.Fields {
			if f.KeyExpr != nil {
				walkExprTree(f.KeyExpr, visit)
			}
			walkExprTree(f.Value, visit)
		}
	case *ast.FunctionExpr:
		walkExprs(v.Body, visit)
	}
}
