package index

import (
	"testing"

	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/types"
)

// TestRemoveEvictsFileFromEveryIndex exercises spec.md's removal-contract
// invariant: evicting a file leaves no index entry referencing it, a
// TypeDecl reopened across files survives as long as another file still
// declares it (and so does its attached property), and it only vanishes
// once every declaring file is gone.
func TestRemoveEvictsFileFromEveryIndex(t *testing.T) {
	db := NewDbIndex(nil)
	f1, f2 := ids.FileID(1), ids.FileID(2)
	cls := ids.TypeDeclID{Name: "Widget"}

	db.TypeDecls.Declare(f1, DeclarePartial{ID: cls, Kind: TypeClass, Site: ids.NewInFiled(f1, ids.Range{Start: 0, End: 1})})
	db.TypeDecls.Declare(f2, DeclarePartial{ID: cls, Kind: TypeClass, Site: ids.NewInFiled(f2, ids.Range{Start: 0, End: 1})})

	prop := &Property{ID: ids.NewPropertyID("Widget", "doc text"), Owner: TypeDeclPropertyOwner(cls), Description: "a widget"}
	db.Properties.Put(prop)

	declID := ids.DeclID{FileID: f1, Position: 3}
	scope := db.Decls.NewScope(f1, ScopeChunk, nil, ids.Range{Start: 0, End: 100})
	db.Decls.Define(scope, &Decl{ID: declID, Name: "w", Kind: DeclLocal})

	memberID := ids.MemberID{FileID: f1, SyntaxID: 1}
	db.Members.Add(&MemberInfo{ID: memberID, Owner: TypeOwner(cls), Key: NameKey("x"), Type: types.Integer(), File: f1})

	flowID := ids.FlowID{FileID: f1, Position: 0}
	db.Flows.NewGraph(flowID, f1)

	mtSite := ids.NewInFiled(f1, ids.Range{Start: 5, End: 6})
	db.Operators.Register(TableOperatorOwner(mtSite), f1, "__index", types.Function())

	db.Types.set(DeclTypeOwner(declID), types.Integer())

	sigID := ids.SignatureID{FileID: f1, Position: 7}
	db.Signatures.Declare(sigID)

	semDecl := ids.NewSemanticDeclFromDecl(declID)
	if err := db.References.Add(Reference{FileID: f1, Range: ids.Range{Start: 3, End: 4}, Decl: semDecl, Kind: RefRead}); err != nil {
		t.Fatalf("Add reference: %v", err)
	}

	if err := db.Remove(f1); err != nil {
		t.Fatalf("Remove(f1): %v", err)
	}

	if _, ok := db.Decls.Get(declID); ok {
		t.Fatalf("decl from f1 should be gone")
	}
	if len(db.Members.Members(TypeOwner(cls), NameKey("x"))) != 0 {
		t.Fatalf("member from f1 should be gone")
	}
	if _, ok := db.Flows.Get(flowID); ok {
		t.Fatalf("flow graph from f1 should be gone")
	}
	if _, ok := db.Operators.Lookup(TableOperatorOwner(mtSite), "__index"); ok {
		t.Fatalf("operator from f1 should be gone")
	}
	if _, ok := db.Types.Get(DeclTypeOwner(declID)); ok {
		t.Fatalf("type cache entry from f1 should be gone")
	}
	if _, ok := db.Signatures.Get(sigID); ok {
		t.Fatalf("signature from f1 should be gone")
	}
	refs, err := db.References.InFile(f1)
	if err != nil {
		t.Fatalf("InFile: %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("references from f1 should be gone, got %d", len(refs))
	}

	// Widget is still declared by f2, so the type and its property survive.
	if _, ok := db.TypeDecls.Get(cls); !ok {
		t.Fatalf("Widget should survive while f2 still declares it")
	}
	if _, ok := db.Properties.Get(prop.ID); !ok {
		t.Fatalf("Widget's property should survive while f2 still declares it")
	}

	if err := db.Remove(f2); err != nil {
		t.Fatalf("Remove(f2): %v", err)
	}
	if _, ok := db.TypeDecls.Get(cls); ok {
		t.Fatalf("Widget should vanish once no file declares it")
	}
	if _, ok := db.Properties.Get(prop.ID); ok {
		t.Fatalf("Widget's property should be pruned once Widget vanishes")
	}
}
