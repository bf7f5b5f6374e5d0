package analyzer

import (
	"strings"

	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/index"
)

// analyzeModule is pipeline phase 1 (spec.md §4.1): register the file in
// the module index under a path-derived module name, and record every
// require-like call so ModuleIndex.AnalysisOrder can topologically order
// the rest of the pipeline's passes.
func (a *Analyzer) analyzeModule(f ids.FileID, chunk *ast.Chunk) {
	if chunk == nil {
		return
	}
	path, _ := a.db.Files.Path(f)
	a.db.Modules.Register(&index.ModuleInfo{
		File:       f,
		Path:       path,
		ModuleName: moduleNameFromPath(path),
		Requires:   collectRequires(chunk.Body, a.cfg.Runtime.RequireLikeFunction),
	})
}

// moduleNameFromPath turns a workspace-relative file path into a dotted
// module name the way Lua's own `require` path convention does:
// "lib/widget/init.lua" -> "lib.widget".
func moduleNameFromPath(path string) string {
	p := strings.TrimSuffix(path, ".lua")
	p = strings.TrimSuffix(p, "/init")
	p = strings.ReplaceAll(p, "/", ".")
	p = strings.ReplaceAll(p, "\\", ".")
	return strings.TrimPrefix(p, ".")
}

func collectRequires(block *ast.Block, requireLike []string) []string {
	if block == nil {
		return nil
	}
	var out []string
	var walkExpr func(e ast.Expression)
	var walkStat func(s ast.Statement)
	var walkStat2 func(b *ast.Block)

	isRequireLike := func(name string) bool {
		for _, n := range requireLike {
			if n == name {
				return true
			}
		}
		return false
	}

	walkExpr = func(e ast.Expression) {
		if e == nil {
			return
		}
		switch v := e.(type) {
		case *ast.CallExpr:
			if name, ok := v.Callee.(*ast.NameExpr); ok && isRequireLike(name.Name) && len(v.Args) > 0 {
				if lit, ok := v.Args[0].(*ast.StringExpr); ok {
					out = append(out, lit.Value)
				}
			}
			walkExpr(v.Callee)
			for _, arg := range v.Args {
				walkExpr(arg)
			}
		case *ast.MethodCallExpr:
			walkExpr(v.Receiver)
			for _, arg := range v.Args {
				walkExpr(arg)
			}
		case *ast.IndexExpr:
			walkExpr(v.Prefix)
			walkExpr(v.KeyExpr)
		case *ast.BinaryExpr:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *ast.UnaryExpr:
			walkExpr(v.Operand)
		case *ast.ParenExpr:
			walkExpr(v.Inner)
		case *ast.TableExpr:
			for _, fld := range v.Fields {
				walkExpr(fld.KeyExpr)
				walkExpr(fld.Value)
			}
		case *ast.FunctionExpr:
			walkStat2(v.Body)
		}
	}
	walkStat2 = func(b *ast.Block) {
		if b == nil {
			return
		}
		for _, s := range b.Stats {
			walkStat(s)
		}
	}
	walkStat = func(s ast.Statement) {
		switch v := s.(type) {
		case *ast.LocalStat:
			for _, e := range v.Exprs {
				walkExpr(e)
			}
		case *ast.AssignStat:
			for _, e := range v.Targets {
				walkExpr(e)
			}
			for _, e := range v.Exprs {
				walkExpr(e)
			}
		case *ast.CallStat:
			walkExpr(v.Call)
		case *ast.DoStat:
			walkStat2(v.Body)
		case *ast.WhileStat:
			walkExpr(v.Cond)
			walkStat2(v.Body)
		case *ast.RepeatStat:
			walkStat2(v.Body)
			walkExpr(v.Cond)
		case *ast.IfStat:
			for _, c := range v.Clauses {
				walkExpr(c.Cond)
				walkStat2(c.Body)
			}
		case *ast.NumericForStat:
			walkExpr(v.Start)
			walkExpr(v.Stop)
			walkExpr(v.Step)
			walkStat2(v.Body)
		case *ast.GenericForStat:
			for _, e := range v.Exprs {
				walkExpr(e)
			}
			walkStat2(v.Body)
		case *ast.FunctionStat:
			walkStat2(v.Func.Body)
		case *ast.LocalFunctionStat:
			walkStat2(v.Func.Body)
		case *ast.ReturnStat:
			for _, e := range v.Exprs {
				walkExpr(e)
			}
		}
	}
	walkStat2(block)
	return out
}
