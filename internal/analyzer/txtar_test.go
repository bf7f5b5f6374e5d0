package analyzer

import (
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/config"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/index"
	"github.com/emmylua-go/analyzer/internal/parser"
	"github.com/emmylua-go/analyzer/internal/types"
)

// analyzeTxtar parses a txtar archive (SPEC_FULL.md §1.5: multi-file
// scenarios are fixtured as txtar archives rather than Go maps) into one
// file per archive entry and analyzes the whole set together, so a
// cross-file `require` can resolve against a real ModuleIndex.AnalysisOrder
// the way spec.md §8's scenarios are written.
func analyzeTxtar(t *testing.T, archive string) (*index.DbIndex, map[string]ids.FileID, map[ids.FileID]*ast.Chunk) {
	t.Helper()
	a := txtar.Parse([]byte(archive))
	db := index.NewDbIndex(nil)
	byName := make(map[string]ids.FileID, len(a.Files))
	chunks := make(map[ids.FileID]*ast.Chunk, len(a.Files))
	var order []ids.FileID
	for _, f := range a.Files {
		chunk, errs := parser.ParseChunk(f.Name, string(f.Data))
		if len(errs) != 0 {
			t.Fatalf("%s: unexpected parse errors: %v", f.Name, errs)
		}
		id := db.Files.Intern(f.Name)
		byName[f.Name] = id
		chunks[id] = chunk
		order = append(order, id)
	}
	an := New(db, config.Default(), nil)
	an.Analyze(chunks, order)
	return db, byName, chunks
}

// TestRequireCrossFileForwardReference pins spec.md §8 scenario S4: file1
// requires file2 before file2 is analyzed in source order, and file2's
// module export type (an object whose `get` member returns `integer`, per
// its `@return` doc tag) must still resolve through to file1's call
// result. Fixtured as the same txtar archive the scenario itself is
// written as.
func TestRequireCrossFileForwardReference(t *testing.T) {
	db, files, chunks := analyzeTxtar(t, `
-- file1.lua --
return require("file2").get()

-- file2.lua --
local M = {}
---@return integer
function M.get() end
return M
`)
	f := files["file1.lua"]
	got := lastExprType(t, db, f, chunks[f])
	if got.Kind != types.KInteger {
		t.Errorf("require(\"file2\").get(): got %s, want integer", got.String())
	}
}
