package analyzer

import (
	"testing"

	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/config"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/index"
	"github.com/emmylua-go/analyzer/internal/parser"
	"github.com/emmylua-go/analyzer/internal/types"
)

// analyzeFiles runs the pipeline over several named sources at once, so
// require-resolution tests can exercise ModuleIndex.AnalysisOrder across
// files the way a real workspace partition would.
func analyzeFiles(t *testing.T, sources map[string]string) (*index.DbIndex, *Analyzer, map[string]ids.FileID, map[ids.FileID]*ast.Chunk) {
	t.Helper()
	db := index.NewDbIndex(nil)
	byName := make(map[string]ids.FileID, len(sources))
	chunks := make(map[ids.FileID]*ast.Chunk, len(sources))
	var order []ids.FileID
	for name, src := range sources {
		f := db.Files.Intern(name)
		chunk, errs := parser.ParseChunk(name, src)
		if len(errs) != 0 {
			t.Fatalf("%s: unexpected parse errors: %v", name, errs)
		}
		byName[name] = f
		chunks[f] = chunk
		order = append(order, f)
	}
	a := New(db, config.Default(), nil)
	a.Analyze(chunks, order)
	return db, a, byName, chunks
}

func TestInferRequireResolvesModuleExportType(t *testing.T) {
	db, _, files, chunks := analyzeFiles(t, map[string]string{
		"mod.lua":  `return 42`,
		"main.lua": `return require("mod")`,
	})
	f := files["main.lua"]
	got := lastExprType(t, db, f, chunks[f])
	if got.Kind != types.KIntegerConst || got.Int != 42 {
		t.Errorf("require(\"mod\"): got %s, want integer-const 42", got.String())
	}
}

func TestInferRequireUnresolvedModuleIsAny(t *testing.T) {
	db, _, files, chunks := analyzeFiles(t, map[string]string{
		"main.lua": `return require("missing")`,
	})
	f := files["main.lua"]
	got := lastExprType(t, db, f, chunks[f])
	if got.Kind != types.KAny {
		t.Errorf("require(\"missing\"): got %s, want any", got.String())
	}
}

func TestInferAssertNarrowsTruthy(t *testing.T) {
	db, _, f, chunk := analyzeSource(t, `
local x = nil
return assert(x)
`)
	got := lastExprType(t, db, f, chunk)
	if got.Kind == types.KNil {
		t.Errorf("assert(x) should never statically be nil, got %s", got.String())
	}
}

func TestInferSetmetatableReturnsFirstArg(t *testing.T) {
	db, _, f, chunk := analyzeSource(t, `
local t = {}
local mt = {}
return setmetatable(t, mt)
`)
	got := lastExprType(t, db, f, chunk)
	if got.Kind != types.KTableConst {
		t.Errorf("setmetatable(t, mt): got %s, want table-const", got.String())
	}
}
