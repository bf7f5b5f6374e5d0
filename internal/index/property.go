package index

import "github.com/emmylua-go/analyzer/internal/ids"

// PropertyOwnerKind tags which declaration a Property is attached to.
type PropertyOwnerKind uint8

const (
	PropOwnerDecl PropertyOwnerKind = iota
	PropOwnerMember
	PropOwnerSignature
	PropOwnerTypeDecl
)

type PropertyOwner struct {
	Kind      PropertyOwnerKind
	Decl      ids.DeclID
	Member    ids.MemberID
	Signature ids.SignatureID
	TypeDecl  ids.TypeDeclID
}

func DeclPropertyOwner(id ids.DeclID) PropertyOwner { return PropertyOwner{Kind: PropOwnerDecl, Decl: id} }
func MemberPropertyOwner(id ids.MemberID) PropertyOwner {
	return PropertyOwner{Kind: PropOwnerMember, Member: id}
}
func SignaturePropertyOwner(id ids.SignatureID) PropertyOwner {
	return PropertyOwner{Kind: PropOwnerSignature, Signature: id}
}
func TypeDeclPropertyOwner(id ids.TypeDeclID) PropertyOwner {
	return PropertyOwner{Kind: PropOwnerTypeDecl, TypeDecl: id}
}

// Property is the doc-metadata bundle attached to a declaration site:
// description, visibility, @deprecated/@nodiscard/@async flags, @see/
// @source refs, @version gates. Its id is minted by ids.NewPropertyID so
// the same doc-comment text reanalyzed after an unrelated edit is handed
// back the same handle.
type Property struct {
	ID                 ids.PropertyID
	Owner              PropertyOwner
	File               ids.FileID
	Description        string
	Visibility         string // "public" | "protected" | "private" | "package" | ""
	Deprecated         bool
	DeprecatedMessage  string
	Nodiscard          bool
	NodiscardMessage   string
	Async              bool
	SeeRefs            []string
	SourceRefs         []string
	VersionConstraints []string
}

// PropertyIndex is the only index permitted a weakly-keyed structure
// (spec.md §4.7): entries owned by a TypeDecl survive file removal on
// their own schedule, pruned only once TypeDeclIndex reports the owning
// type has no declaring files left.
type PropertyIndex struct {
	byID       map[ids.PropertyID]*Property
	byFile     map[ids.FileID][]ids.PropertyID
	byTypeDecl map[ids.TypeDeclID][]ids.PropertyID
}

func NewPropertyIndex() *PropertyIndex {
	return &PropertyIndex{
		byID:       make(map[ids.PropertyID]*Property),
		byFile:     make(map[ids.FileID][]ids.PropertyID),
		byTypeDecl: make(map[ids.TypeDeclID][]ids.PropertyID),
	}
}

func (x *PropertyIndex) Put(p *Property) {
	x.byID[p.ID] = p
	if p.Owner.Kind == PropOwnerTypeDecl {
		x.byTypeDecl[p.Owner.TypeDecl] = append(x.byTypeDecl[p.Owner.TypeDecl], p.ID)
		return
	}
	x.byFile[p.File] = append(x.byFile[p.File], p.ID)
}

func (x *PropertyIndex) Get(id ids.PropertyID) (*Property, bool) {
	p, ok := x.byID[id]
	return p, ok
}

// Remove evicts every decl/member/signature-owned property attached to
// file. TypeDecl-owned properties are untouched here; call PruneTypeDecl
// once the owning type itself has vanished.
func (x *PropertyIndex) Remove(file ids.FileID) {
	for _, id := range x.byFile[file] {
		delete(x.byID, id)
	}
	delete(x.byFile, file)
}

// PruneTypeDecl evicts every property owned by id. Callers invoke this
// only after TypeDeclIndex.Remove reports id has no declaring files left.
func (x *PropertyIndex) PruneTypeDecl(id ids.TypeDeclID) {
	for _, pid := range x.byTypeDecl[id] {
		delete(x.byID, pid)
	}
	delete(x.byTypeDecl, id)
}
