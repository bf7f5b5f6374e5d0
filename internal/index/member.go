package index

import (
	"fmt"

	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/types"
)

// MemberOwnerKind tags which alternative of MemberOwner is populated
// (spec.md §4.4: `MemberOwner ∈ { Type(TypeDeclId), Element(InFiled<Range>) }`).
type MemberOwnerKind uint8

const (
	OwnerType MemberOwnerKind = iota
	OwnerElement
)

// MemberOwner identifies the table shape a member belongs to: a named
// @class/@enum/@alias, or the anonymous table-literal at a specific site.
type MemberOwner struct {
	Kind MemberOwnerKind
	Type ids.TypeDeclID
	Elem ids.InFiled[ids.Range]
}

func TypeOwner(id ids.TypeDeclID) MemberOwner { return MemberOwner{Kind: OwnerType, Type: id} }
func ElementOwner(site ids.InFiled[ids.Range]) MemberOwner {
	return MemberOwner{Kind: OwnerElement, Elem: site}
}

func (o MemberOwner) key() string {
	if o.Kind == OwnerType {
		return "T:" + o.Type.Name
	}
	return fmt.Sprintf("E:%d:%d:%d", o.Elem.FileID, o.Elem.Value.Start, o.Elem.Value.End)
}

// MemberKeyKind tags which alternative of MemberKey is populated (spec.md
// §4.4: `MemberKey ∈ { Name(str), Integer(i64), ExprType(LuaType), None }`).
type MemberKeyKind uint8

const (
	KeyName MemberKeyKind = iota
	KeyInteger
	KeyExprType
	KeyNone
)

type MemberKey struct {
	Kind MemberKeyKind
	Name string
	Int  int64
	Expr types.Type
}

func NameKey(s string) MemberKey  { return MemberKey{Kind: KeyName, Name: s} }
func IntKey(i int64) MemberKey    { return MemberKey{Kind: KeyInteger, Int: i} }
func ExprKey(t types.Type) MemberKey { return MemberKey{Kind: KeyExprType, Expr: t} }
func NoneKey() MemberKey          { return MemberKey{Kind: KeyNone} }

func (k MemberKey) key() string {
	switch k.Kind {
	case KeyName:
		return "n:" + k.Name
	case KeyInteger:
		return fmt.Sprintf("i:%d", k.Int)
	case KeyExprType:
		return "e:" + k.Expr.String()
	default:
		return "none"
	}
}

// MemberInfo is one `k = v` / `t.k = v` / `@field` declaration site.
type MemberInfo struct {
	ID         ids.MemberID
	Owner      MemberOwner
	Key        MemberKey
	Type       types.Type
	Visibility string
	IsMeta     bool // declared through @field/@class rather than a bare assignment
	File       ids.FileID
	Range      ids.Range
}

type ownerMembers struct {
	owner MemberOwner
	byKey map[string][]*MemberInfo
}

// MemberIndex holds every MemberInfo keyed by (MemberOwner, MemberKey),
// preserving multi-declaration per key for overload-style `@field event
// fun(...)` repetitions (spec.md §4.4 "get_member_map").
type MemberIndex struct {
	owners map[string]*ownerMembers
	byID   map[ids.MemberID]*MemberInfo
	byFile map[ids.FileID][]ids.MemberID
}

func NewMemberIndex() *MemberIndex {
	return &MemberIndex{
		owners: make(map[string]*ownerMembers),
		byID:   make(map[ids.MemberID]*MemberInfo),
		byFile: make(map[ids.FileID][]ids.MemberID),
	}
}

func (x *MemberIndex) ownerBucket(owner MemberOwner) *ownerMembers {
	ok := owner.key()
	b, found := x.owners[ok]
	if !found {
		b = &ownerMembers{owner: owner, byKey: make(map[string][]*MemberInfo)}
		x.owners[ok] = b
	}
	return b
}

func (x *MemberIndex) Add(info *MemberInfo) {
	b := x.ownerBucket(info.Owner)
	b.byKey[info.Key.key()] = append(b.byKey[info.Key.key()], info)
	x.byID[info.ID] = info
	x.byFile[info.File] = append(x.byFile[info.File], info.ID)
}

// Members returns every declaration of owner.key, in declaration order.
func (x *MemberIndex) Members(owner MemberOwner, key MemberKey) []*MemberInfo {
	b, ok := x.owners[owner.key()]
	if !ok {
		return nil
	}
	return b.byKey[key.key()]
}

// AllKeys materializes Key -> declarations for every key of owner
// (spec.md §4.4 `get_member_map`).
func (x *MemberIndex) AllKeys(owner MemberOwner) map[string][]*MemberInfo {
	b, ok := x.owners[owner.key()]
	if !ok {
		return nil
	}
	return b.byKey
}

// MigrateOwner moves every member currently filed under from to to,
// rewriting each MemberInfo.Owner in place. This is the "member-migration
// routine" spec.md §4.6 requires after a merge unifies two owners.
func (x *MemberIndex) MigrateOwner(from, to MemberOwner) {
	src, ok := x.owners[from.key()]
	if !ok {
		return
	}
	dst := x.ownerBucket(to)
	for k, infos := range src.byKey {
		for _, info := range infos {
			info.Owner = to
		}
		dst.byKey[k] = append(dst.byKey[k], infos...)
	}
	delete(x.owners, from.key())
}

// AdoptTableAsClass implements the `Def(cls) + TableConst(r)` merge rule:
// the table literal's members become members of cls instead of staying
// anonymous (§4.6: "local M = {}; ---@class M").
func (x *MemberIndex) AdoptTableAsClass(cls ids.TypeDeclID, site ids.InFiled[ids.Range]) {
	x.MigrateOwner(ElementOwner(site), TypeOwner(cls))
}

// Remove evicts every member declared in file.
func (x *MemberIndex) Remove(file ids.FileID) {
	for _, id := range x.byFile[file] {
		info := x.byID[id]
		delete(x.byID, id)
		if info == nil {
			continue
		}
		b, ok := x.owners[info.Owner.key()]
		if !ok {
			continue
		}
		k := info.Key.key()
		b.byKey[k] = removeMember(b.byKey[k], id)
		if len(b.byKey[k]) == 0 {
			delete(b.byKey, k)
		}
		if len(b.byKey) == 0 {
			delete(x.owners, info.Owner.key())
		}
	}
	delete(x.byFile, file)
}

func removeMember(list []*MemberInfo, id ids.MemberID) []*MemberInfo {
	out := list[:0]
	for _, m := range list {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
