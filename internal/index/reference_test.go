package index

import (
	"testing"

	"github.com/emmylua-go/analyzer/internal/ids"
)

func TestReferenceIndexQueries(t *testing.T) {
	x := NewReferenceIndex()
	decl := ids.NewSemanticDeclFromDecl(ids.DeclID{FileID: 1, Position: 5})
	other := ids.NewSemanticDeclFromDecl(ids.DeclID{FileID: 2, Position: 5})

	refs := []Reference{
		{FileID: 1, Range: ids.Range{Start: 10, End: 13}, Decl: decl, Kind: RefRead},
		{FileID: 1, Range: ids.Range{Start: 20, End: 23}, Decl: decl, Kind: RefWrite},
		{FileID: 2, Range: ids.Range{Start: 5, End: 8}, Decl: other, Kind: RefRead},
	}
	for _, r := range refs {
		if err := x.Add(r); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got, err := x.ReferencesTo(decl)
	if err != nil {
		t.Fatalf("ReferencesTo: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 references to decl, got %d", len(got))
	}

	inFile, err := x.InFile(1)
	if err != nil {
		t.Fatalf("InFile: %v", err)
	}
	if len(inFile) != 2 {
		t.Fatalf("expected 2 references in file 1, got %d", len(inFile))
	}

	if err := x.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	afterRemove, err := x.InFile(1)
	if err != nil {
		t.Fatalf("InFile after remove: %v", err)
	}
	if len(afterRemove) != 0 {
		t.Fatalf("expected no references left in file 1, got %d", len(afterRemove))
	}
	stillThere, err := x.ReferencesTo(other)
	if err != nil {
		t.Fatalf("ReferencesTo(other): %v", err)
	}
	if len(stillThere) != 1 {
		t.Fatalf("file 2's reference should survive file 1's removal, got %d", len(stillThere))
	}
}
