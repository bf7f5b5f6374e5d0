package index

import (
	"testing"

	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/types"
)

func TestMemberIndexOverloadMultiDeclaration(t *testing.T) {
	x := NewMemberIndex()
	cls := ids.TypeDeclID{Name: "Emitter"}
	owner := TypeOwner(cls)

	// `---@field event fun(name: "open"): nil` and a second overload line
	// for the same `event` key must both survive under the one key.
	x.Add(&MemberInfo{ID: ids.MemberID{FileID: 1, SyntaxID: 1}, Owner: owner, Key: NameKey("event"), Type: types.Function(), File: 1})
	x.Add(&MemberInfo{ID: ids.MemberID{FileID: 1, SyntaxID: 2}, Owner: owner, Key: NameKey("event"), Type: types.Function(), File: 1})

	got := x.Members(owner, NameKey("event"))
	if len(got) != 2 {
		t.Fatalf("expected 2 overload declarations for event, got %d", len(got))
	}

	all := x.AllKeys(owner)
	if len(all) != 1 {
		t.Fatalf("expected 1 distinct key, got %d", len(all))
	}
}

func TestMemberIndexRemovePrunesEmptyOwner(t *testing.T) {
	x := NewMemberIndex()
	cls := ids.TypeDeclID{Name: "Solo"}
	owner := TypeOwner(cls)
	x.Add(&MemberInfo{ID: ids.MemberID{FileID: 1, SyntaxID: 1}, Owner: owner, Key: NameKey("only"), Type: types.String(), File: 1})

	x.Remove(1)

	if len(x.Members(owner, NameKey("only"))) != 0 {
		t.Fatalf("expected member removed")
	}
	if len(x.AllKeys(owner)) != 0 {
		t.Fatalf("expected owner bucket pruned once empty")
	}
}
