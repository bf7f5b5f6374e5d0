package index

import (
	"fmt"

	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/types"
)

// TypeCacheOwnerKind tags which alternative of TypeCacheOwner holds the
// owner (spec.md §4.6: "a decl, a member, or a specific expression's
// syntax-id").
type TypeCacheOwnerKind uint8

const (
	CacheOwnerDecl TypeCacheOwnerKind = iota
	CacheOwnerMember
	CacheOwnerExpr
)

type TypeCacheOwner struct {
	Kind     TypeCacheOwnerKind
	Decl     ids.DeclID
	Member   ids.MemberID
	ExprFile ids.FileID
	ExprSyn  ast.SyntaxID
}

func DeclTypeOwner(id ids.DeclID) TypeCacheOwner { return TypeCacheOwner{Kind: CacheOwnerDecl, Decl: id} }
func MemberTypeOwner(id ids.MemberID) TypeCacheOwner {
	return TypeCacheOwner{Kind: CacheOwnerMember, Member: id}
}
func ExprTypeOwner(file ids.FileID, syn ast.SyntaxID) TypeCacheOwner {
	return TypeCacheOwner{Kind: CacheOwnerExpr, ExprFile: file, ExprSyn: syn}
}

func (o TypeCacheOwner) key() string {
	switch o.Kind {
	case CacheOwnerDecl:
		return "D:" + o.Decl.String()
	case CacheOwnerMember:
		return "M:" + o.Member.String()
	default:
		return fmt.Sprintf("X:%d:%s", o.ExprFile, o.ExprSyn.String())
	}
}

func (o TypeCacheOwner) file() ids.FileID {
	switch o.Kind {
	case CacheOwnerDecl:
		return o.Decl.FileID
	case CacheOwnerMember:
		return o.Member.FileID
	default:
		return o.ExprFile
	}
}

// TypeCache is the per-TypeOwner cached LuaType the inference engine
// writes into and checkers read from, obeying the merge discipline of
// spec.md §4.6 rather than plain overwrite.
type TypeCache struct {
	cache  map[string]types.Type
	byFile map[ids.FileID][]string
}

func NewTypeCache() *TypeCache {
	return &TypeCache{cache: make(map[string]types.Type), byFile: make(map[ids.FileID][]string)}
}

func (c *TypeCache) Get(o TypeCacheOwner) (types.Type, bool) {
	t, ok := c.cache[o.key()]
	return t, ok
}

func (c *TypeCache) set(o TypeCacheOwner, t types.Type) {
	k := o.key()
	if _, existed := c.cache[k]; !existed {
		c.byFile[o.file()] = append(c.byFile[o.file()], k)
	}
	c.cache[k] = t
}

// Merge writes newType into o's cache slot under the §4.6 rules:
//
//   - current == Unknown: write newType.
//   - current == Nil: replace with Nullable(newType).
//   - current == Def(cls) and newType == TableConst(r): don't overwrite;
//     adopt the table's members into cls via members.AdoptTableAsClass.
//   - otherwise: keep current (doc annotations win over inferred types).
func (c *TypeCache) Merge(o TypeCacheOwner, newType types.Type, members *MemberIndex) {
	cur, ok := c.Get(o)
	if !ok || cur.Kind == types.KUnknown {
		c.set(o, newType)
		return
	}
	switch {
	case cur.Kind == types.KNil:
		c.set(o, types.Nullable(newType))
	case cur.Kind == types.KDef && newType.Kind == types.KTableConst:
		if members != nil {
			members.AdoptTableAsClass(cur.DeclID, newType.TableRange)
		}
	}
}

func (c *TypeCache) Remove(file ids.FileID) {
	for _, k := range c.byFile[file] {
		delete(c.cache, k)
	}
	delete(c.byFile, file)
}
