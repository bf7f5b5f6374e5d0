package index

import (
	"testing"

	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/types"
)

func TestTypeCacheMergeDiscipline(t *testing.T) {
	decl := ids.DeclID{FileID: 1, Position: 10}
	owner := DeclTypeOwner(decl)

	t.Run("unknown writes through", func(t *testing.T) {
		c := NewTypeCache()
		c.Merge(owner, types.Integer(), nil)
		got, ok := c.Get(owner)
		if !ok || got.Kind != types.KInteger {
			t.Fatalf("got %+v, ok=%v", got, ok)
		}
	})

	t.Run("nil widens to nullable", func(t *testing.T) {
		c := NewTypeCache()
		c.set(owner, types.Nil())
		c.Merge(owner, types.String(), nil)
		got, _ := c.Get(owner)
		if got.Kind != types.KNullable || got.Elem.Kind != types.KString {
			t.Fatalf("got %+v, want Nullable(String)", got)
		}
	})

	t.Run("def plus table const adopts members instead of overwriting", func(t *testing.T) {
		c := NewTypeCache()
		cls := ids.TypeDeclID{Name: "M"}
		c.set(owner, types.Def(cls))

		site := ids.NewInFiled(ids.FileID(1), ids.Range{Start: 0, End: 5})
		members := NewMemberIndex()
		members.Add(&MemberInfo{
			ID:    ids.MemberID{FileID: 1, SyntaxID: 1},
			Owner: ElementOwner(site),
			Key:   NameKey("field"),
			Type:  types.String(),
			File:  1,
		})

		c.Merge(owner, types.TableConst(site), members)

		got, _ := c.Get(owner)
		if got.Kind != types.KDef || got.DeclID != cls {
			t.Fatalf("current type overwritten: %+v", got)
		}
		infos := members.Members(TypeOwner(cls), NameKey("field"))
		if len(infos) != 1 {
			t.Fatalf("expected field member migrated to class owner, got %d", len(infos))
		}
		if len(members.Members(ElementOwner(site), NameKey("field"))) != 0 {
			t.Fatalf("expected element owner bucket drained after migration")
		}
	})

	t.Run("otherwise keeps current", func(t *testing.T) {
		c := NewTypeCache()
		c.set(owner, types.String())
		c.Merge(owner, types.Integer(), nil)
		got, _ := c.Get(owner)
		if got.Kind != types.KString {
			t.Fatalf("doc-won type overwritten: %+v", got)
		}
	})
}

func TestTypeCacheRemove(t *testing.T) {
	c := NewTypeCache()
	d1 := DeclTypeOwner(ids.DeclID{FileID: 1, Position: 1})
	d2 := DeclTypeOwner(ids.DeclID{FileID: 2, Position: 1})
	c.set(d1, types.String())
	c.set(d2, types.Integer())

	c.Remove(1)

	if _, ok := c.Get(d1); ok {
		t.Fatalf("expected file 1's owner evicted")
	}
	if _, ok := c.Get(d2); !ok {
		t.Fatalf("file 2's owner should survive file 1's removal")
	}
}
