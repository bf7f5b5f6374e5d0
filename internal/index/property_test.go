package index

import (
	"testing"

	"github.com/emmylua-go/analyzer/internal/ids"
)

// TestTypeDeclPropertySurvivesPartialEviction pins Open Question
// resolution 3 (SPEC_FULL.md §4): a TypeDecl's property survives file
// eviction as long as any other file still declares that TypeDeclId, and
// is pruned only once the last declaring file is gone.
func TestTypeDeclPropertySurvivesPartialEviction(t *testing.T) {
	db := NewDbIndex(nil)
	f1, f2 := ids.FileID(10), ids.FileID(20)
	cls := ids.TypeDeclID{Name: "Shared"}

	db.TypeDecls.Declare(f1, DeclarePartial{ID: cls, Kind: TypeClass, Site: ids.NewInFiled(f1, ids.Range{Start: 0, End: 1})})
	db.TypeDecls.Declare(f2, DeclarePartial{ID: cls, Kind: TypeClass, Site: ids.NewInFiled(f2, ids.Range{Start: 0, End: 1})})

	id := ids.NewPropertyID("Shared", "---@class Shared\n")
	db.Properties.Put(&Property{ID: id, Owner: TypeDeclPropertyOwner(cls), Description: "shared across files"})

	if err := db.Remove(f1); err != nil {
		t.Fatalf("Remove(f1): %v", err)
	}
	if _, ok := db.Properties.Get(id); !ok {
		t.Fatalf("property must survive while f2 still declares Shared")
	}

	if err := db.Remove(f2); err != nil {
		t.Fatalf("Remove(f2): %v", err)
	}
	if _, ok := db.Properties.Get(id); ok {
		t.Fatalf("property must be pruned once no file declares Shared")
	}
}
