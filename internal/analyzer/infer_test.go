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

// analyzeSource lexes, parses and runs the full pipeline over one file,
// returning the db and analyzer so a test can inspect the resulting index
// state. Mirrors the teacher's analyzeSource-as-shared-harness convention
// (internal/analyzer/strict_mode_test.go).
func analyzeSource(t *testing.T, src string) (*index.DbIndex, *Analyzer, ids.FileID, *ast.Chunk) {
	t.Helper()
	db := index.NewDbIndex(nil)
	f := db.Files.Intern("main.lua")
	chunk, errs := parser.ParseChunk("main.lua", src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	a := New(db, config.Default(), nil)
	a.Analyze(map[ids.FileID]*ast.Chunk{f: chunk}, []ids.FileID{f})
	return db, a, f, chunk
}

func lastExprType(t *testing.T, db *index.DbIndex, f ids.FileID, chunk *ast.Chunk) types.Type {
	t.Helper()
	ret := moduleReturn(chunk.Body)
	if ret == nil {
		t.Fatal("expected a top-level return statement")
	}
	got, ok := db.Types.Get(index.ExprTypeOwner(f, ret.SyntaxID()))
	if !ok {
		t.Fatal("expected the returned expression's type to be cached")
	}
	return got
}

func TestInferLiteralTypes(t *testing.T) {
	db, _, f, chunk := analyzeSource(t, `return 1 + 2`)
	got := lastExprType(t, db, f, chunk)
	want := types.IntegerConst(3)
	if !types.Equal(got, want) {
		t.Errorf("1+2: got %s, want %s", got.String(), want.String())
	}
}

func TestInferLocalDeclType(t *testing.T) {
	db, _, f, chunk := analyzeSource(t, `
local x = "hi"
return x
`)
	got := lastExprType(t, db, f, chunk)
	if got.Kind != types.KStringConst || got.Str != "hi" {
		t.Errorf("got %s, want string-const hi", got.String())
	}
}

func TestInferConcatReturnsString(t *testing.T) {
	db, _, f, chunk := analyzeSource(t, `
local a = "x"
local b = "y"
return a .. b
`)
	got := lastExprType(t, db, f, chunk)
	if got.Kind != types.KString {
		t.Errorf("got %s, want string", got.String())
	}
}

func TestInferOrNarrowing(t *testing.T) {
	db, _, f, chunk := analyzeSource(t, `
local x = nil
return x or 5
`)
	got := lastExprType(t, db, f, chunk)
	// x's inferred type is Nil; `x or 5` removes nil/false from the
	// left operand and unions with the right.
	if got.Kind == types.KNil {
		t.Errorf("or-expression should never statically be nil, got %s", got.String())
	}
}

func TestInferIndexExprResolvesMember(t *testing.T) {
	db, _, f, chunk := analyzeSource(t, `
local t = { a = 1 }
return t.a
`)
	got := lastExprType(t, db, f, chunk)
	if got.Kind != types.KIntegerConst || got.Int != 1 {
		t.Errorf("t.a: got %s, want integer-const 1", got.String())
	}
}

func TestInferMultiReturnSpread(t *testing.T) {
	db, _, f, chunk := analyzeSource(t, `
local function two()
	return 1, "s"
end
local a, b = two()
return b
`)
	got := lastExprType(t, db, f, chunk)
	if got.Kind != types.KStringConst || got.Str != "s" {
		t.Errorf("b: got %s, want string-const s", got.String())
	}
}

func TestInferArithmeticFoldsIntegerConstants(t *testing.T) {
	db, _, f, chunk := analyzeSource(t, `return 10 // 3`)
	got := lastExprType(t, db, f, chunk)
	if got.Kind != types.KIntegerConst || got.Int != 3 {
		t.Errorf("10//3: got %s, want integer-const 3", got.String())
	}
}

func TestInferNotOnKnownFalsy(t *testing.T) {
	db, _, f, chunk := analyzeSource(t, `return not nil`)
	got := lastExprType(t, db, f, chunk)
	if got.Kind != types.KBooleanConst || !got.Bool {
		t.Errorf("not nil: got %s, want boolean-const true", got.String())
	}
}
