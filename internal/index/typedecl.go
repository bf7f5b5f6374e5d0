package index

import (
	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/ids"
)

// TypeDeclKind tags which doc form declared a TypeDeclInfo.
type TypeDeclKind uint8

const (
	TypeClass TypeDeclKind = iota
	TypeEnum
	TypeAlias
)

// TypeDeclInfo is the accumulated shape of one named @class/@enum/@alias.
// EmmyLua classes may be reopened across files (`---@class Foo` appearing
// in several files extends the same declaration), so Declare merges into
// an existing entry rather than replacing it.
type TypeDeclInfo struct {
	ID            ids.TypeDeclID
	Kind          TypeDeclKind
	Attrib        string // "exact" | "partial" | ""
	Supers        []ids.TypeDeclID
	GenericParams []ast.GenericParam
	EnumKeyMode   string // "" | "key"
	AliasBody     *ast.DocType

	Files     map[ids.FileID]struct{}
	DeclSites []ids.InFiled[ids.Range]
}

// DeclarePartial is what one file's doc analyzer contributes for this
// type; Declare folds it into any existing entry.
type DeclarePartial struct {
	ID            ids.TypeDeclID
	Kind          TypeDeclKind
	Attrib        string
	Supers        []ids.TypeDeclID
	GenericParams []ast.GenericParam
	EnumKeyMode   string
	AliasBody     *ast.DocType
	Site          ids.InFiled[ids.Range]
}

// TypeDeclIndex owns every named type declaration, keyed by fully
// qualified name (ids.TypeDeclID).
type TypeDeclIndex struct {
	decls  map[ids.TypeDeclID]*TypeDeclInfo
	byFile map[ids.FileID][]ids.TypeDeclID
}

func NewTypeDeclIndex() *TypeDeclIndex {
	return &TypeDeclIndex{
		decls:  make(map[ids.TypeDeclID]*TypeDeclInfo),
		byFile: make(map[ids.FileID][]ids.TypeDeclID),
	}
}

// Declare registers one file's contribution to p.ID, reopening the
// declaration if it already exists: supers and generic params accumulate,
// the first file to declare an alias/enum body wins.
func (x *TypeDeclIndex) Declare(file ids.FileID, p DeclarePartial) *TypeDeclInfo {
	info, ok := x.decls[p.ID]
	if !ok {
		info = &TypeDeclInfo{
			ID:     p.ID,
			Kind:   p.Kind,
			Attrib: p.Attrib,
			Files:  make(map[ids.FileID]struct{}),
		}
		x.decls[p.ID] = info
	}
	info.Supers = append(info.Supers, p.Supers...)
	info.GenericParams = append(info.GenericParams, p.GenericParams...)
	if info.AliasBody == nil {
		info.AliasBody = p.AliasBody
	}
	if info.EnumKeyMode == "" {
		info.EnumKeyMode = p.EnumKeyMode
	}
	info.Files[file] = struct{}{}
	info.DeclSites = append(info.DeclSites, p.Site)
	x.byFile[file] = append(x.byFile[file], p.ID)
	return info
}

func (x *TypeDeclIndex) Get(id ids.TypeDeclID) (*TypeDeclInfo, bool) {
	info, ok := x.decls[id]
	return info, ok
}

// DirectSupers satisfies types.SuperTypeLookup.
func (x *TypeDeclIndex) DirectSupers(t ids.TypeDeclID) []ids.TypeDeclID {
	info, ok := x.decls[t]
	if !ok {
		return nil
	}
	return info.Supers
}

// Remove drops file's contribution to every type it declares, returning
// the ids that now have zero declaring files (fully vanished) so the
// property index can prune TypeDecl-owned data for them (spec.md §4.7).
func (x *TypeDeclIndex) Remove(file ids.FileID) []ids.TypeDeclID {
	var vanished []ids.TypeDeclID
	for _, id := range x.byFile[file] {
		info, ok := x.decls[id]
		if !ok {
			continue
		}
		delete(info.Files, file)
		info.DeclSites = removeSite(info.DeclSites, file)
		if len(info.Files) == 0 {
			delete(x.decls, id)
			vanished = append(vanished, id)
		}
	}
	delete(x.byFile, file)
	return vanished
}

func removeSite(sites []ids.InFiled[ids.Range], file ids.FileID) []ids.InFiled[ids.Range] {
	out := sites[:0]
	for _, s := range sites {
		if s.FileID != file {
			out = append(out, s)
		}
	}
	return out
}
