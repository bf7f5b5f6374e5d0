package index

import (
	"fmt"

	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/types"
)

// OperatorOwnerKind tags which metatable-bearing shape registered a
// metamethod: a named class, or a specific metatable table literal
// (spec.md §4.4: "register in the operator index under Table(range_of_mt)").
type OperatorOwnerKind uint8

const (
	OpOwnerType OperatorOwnerKind = iota
	OpOwnerTable
)

type OperatorOwner struct {
	Kind  OperatorOwnerKind
	Type  ids.TypeDeclID
	Table ids.InFiled[ids.Range]
}

func TypeOperatorOwner(id ids.TypeDeclID) OperatorOwner {
	return OperatorOwner{Kind: OpOwnerType, Type: id}
}
func TableOperatorOwner(site ids.InFiled[ids.Range]) OperatorOwner {
	return OperatorOwner{Kind: OpOwnerTable, Table: site}
}

func (o OperatorOwner) key() string {
	if o.Kind == OpOwnerType {
		return "T:" + o.Type.Name
	}
	return fmt.Sprintf("M:%d:%d:%d", o.Table.FileID, o.Table.Value.Start, o.Table.Value.End)
}

// OperatorIndex maps an owner's declared metamethods (`__add`, `__call`,
// `__index`, ...) to their function type, so operator-expression inference
// on an `Instance` can dispatch without re-walking the metatable literal.
type OperatorIndex struct {
	byOwner map[string]map[string]types.Type
	file    map[string]ids.FileID
	byFile  map[ids.FileID][]string
}

func NewOperatorIndex() *OperatorIndex {
	return &OperatorIndex{
		byOwner: make(map[string]map[string]types.Type),
		file:    make(map[string]ids.FileID),
		byFile:  make(map[ids.FileID][]string),
	}
}

func (x *OperatorIndex) Register(owner OperatorOwner, file ids.FileID, metamethod string, fn types.Type) {
	k := owner.key()
	m, ok := x.byOwner[k]
	if !ok {
		m = make(map[string]types.Type)
		x.byOwner[k] = m
	}
	m[metamethod] = fn
	x.file[k] = file
	x.byFile[file] = append(x.byFile[file], k)
}

func (x *OperatorIndex) Lookup(owner OperatorOwner, metamethod string) (types.Type, bool) {
	m, ok := x.byOwner[owner.key()]
	if !ok {
		return types.Type{}, false
	}
	fn, ok := m[metamethod]
	return fn, ok
}

func (x *OperatorIndex) Remove(file ids.FileID) {
	for _, k := range x.byFile[file] {
		delete(x.byOwner, k)
		delete(x.file, k)
	}
	delete(x.byFile, file)
}
