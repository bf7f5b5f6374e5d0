// Package ids defines the value-type identifiers the core keys every index
// by: FileId, DeclId, MemberId, TypeDeclId, SignatureId, PropertyId, and the
// composite SemanticDeclId / FlowId / VarRefId.
package ids

import (
	"fmt"
	"sync/atomic"
)

// Range is a half-open byte-offset span within a single file.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start }

// Contains reports whether r fully contains other.
func (r Range) Contains(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// InFiled pairs a value with the file it was observed in. It is the
// standard wrapper for anything whose identity depends on source location:
// table-literal ranges, cast ranges, and the like.
type InFiled[T any] struct {
	FileID FileID
	Value  T
}

func NewInFiled[T any](fileID FileID, value T) InFiled[T] {
	return InFiled[T]{FileID: fileID, Value: value}
}

// FileID is a process-unique integer assigned the first time a file is
// loaded. Zero is never a valid id.
type FileID uint32

func (f FileID) String() string { return fmt.Sprintf("file#%d", uint32(f)) }

var fileIDCounter atomic.Uint32

// FileTable hands out FileIDs and remembers the path for each.
type FileTable struct {
	byPath map[string]FileID
	byID   map[FileID]string
}

func NewFileTable() *FileTable {
	return &FileTable{byPath: make(map[string]FileID), byID: make(map[FileID]string)}
}

// Intern returns the FileID for path, minting a new one if this is the
// first time path has been seen.
func (t *FileTable) Intern(path string) FileID {
	if id, ok := t.byPath[path]; ok {
		return id
	}
	id := FileID(fileIDCounter.Add(1))
	t.byPath[path] = id
	t.byID[id] = path
	return id
}

func (t *FileTable) Path(id FileID) (string, bool) {
	p, ok := t.byID[id]
	return p, ok
}

// Forget drops path/id bookkeeping for a file that has been evicted. Index
// data removal is handled separately by each index's Remove(FileID); this
// only affects path<->id lookups.
func (t *FileTable) Forget(id FileID) {
	if p, ok := t.byID[id]; ok {
		delete(t.byPath, p)
		delete(t.byID, id)
	}
}

// DeclID identifies a local/parameter/global binding site: (file, position
// of the binding name).
type DeclID struct {
	FileID   FileID
	Position int
}

func (d DeclID) String() string { return fmt.Sprintf("decl(%d@%d)", d.FileID, d.Position) }

// MemberID identifies a single `k = v` / `t.k = v` / `t[k] = v` site.
type MemberID struct {
	FileID   FileID
	SyntaxID int
}

func (m MemberID) String() string { return fmt.Sprintf("member(%d@%d)", m.FileID, m.SyntaxID) }

// TypeDeclID is the fully-qualified name identity of a @class/@enum/@alias.
// Two TypeDeclIDs are the same declaration iff their Name strings match;
// namespace qualification (if any) is folded into Name by the doc analyzer.
type TypeDeclID struct {
	Name string
}

func (t TypeDeclID) String() string { return t.Name }

// SignatureID identifies the signature of a function expression: (file,
// position of the closure).
type SignatureID struct {
	FileID   FileID
	Position int
}

func (s SignatureID) String() string { return fmt.Sprintf("sig(%d@%d)", s.FileID, s.Position) }

// PropertyID is an opaque interning handle for attached doc metadata
// (description, visibility, deprecation, @see/@source, @version gates).
// It is a content-addressed handle (see NewPropertyID) rather than a sequence
// number, so the same doc comment reanalyzed after an unrelated edit gets
// the same id back.
type PropertyID struct {
	hash uint64
}

func (p PropertyID) String() string { return fmt.Sprintf("prop#%x", p.hash) }
func (p PropertyID) IsZero() bool   { return p.hash == 0 }

// FlowID identifies a lexical flow region: a chunk, a closure, or a nested
// closure within one.
type FlowID struct {
	FileID   FileID
	Position int // position of the chunk/closure's opening token
}

func (f FlowID) String() string { return fmt.Sprintf("flow(%d@%d)", f.FileID, f.Position) }

// SemanticDeclKind tags which alternative a SemanticDeclID holds.
type SemanticDeclKind int

const (
	SemanticDeclNone SemanticDeclKind = iota
	SemanticDeclDecl
	SemanticDeclMember
	SemanticDeclTypeDecl
	SemanticDeclSignature
)

// SemanticDeclID is the tagged union {DeclID, MemberID, TypeDeclID,
// SignatureID} cross-file queries (reference lookup, go-to-definition
// style resolution) target.
type SemanticDeclID struct {
	Kind      SemanticDeclKind
	Decl      DeclID
	Member    MemberID
	TypeDecl  TypeDeclID
	Signature SignatureID
}

func NewSemanticDeclFromDecl(id DeclID) SemanticDeclID {
	return SemanticDeclID{Kind: SemanticDeclDecl, Decl: id}
}

func NewSemanticDeclFromMember(id MemberID) SemanticDeclID {
	return SemanticDeclID{Kind: SemanticDeclMember, Member: id}
}

func NewSemanticDeclFromTypeDecl(id TypeDeclID) SemanticDeclID {
	return SemanticDeclID{Kind: SemanticDeclTypeDecl, TypeDecl: id}
}

func NewSemanticDeclFromSignature(id SignatureID) SemanticDeclID {
	return SemanticDeclID{Kind: SemanticDeclSignature, Signature: id}
}

func (s SemanticDeclID) String() string {
	switch s.Kind {
	case SemanticDeclDecl:
		return s.Decl.String()
	case SemanticDeclMember:
		return s.Member.String()
	case SemanticDeclTypeDecl:
		return s.TypeDecl.String()
	case SemanticDeclSignature:
		return s.Signature.String()
	default:
		return "semdecl(none)"
	}
}

// VarRefKind tags the shape of a VarRefID path.
type VarRefKind int

const (
	VarRefBareDecl VarRefKind = iota
	VarRefSelfPath
	VarRefDeclPath
	VarRefMemberPath
)

// VarRefID canonicalizes an l-value path for flow tracking: a bare local,
// a `self`-rooted path, or `decl.a.b.c` / `member.a.b`.
type VarRefID struct {
	Kind   VarRefKind
	Root   DeclID
	Member MemberID
	Path   []string // field names after the root, in order
}

func NewBareVarRef(decl DeclID) VarRefID {
	return VarRefID{Kind: VarRefBareDecl, Root: decl}
}

func NewSelfVarRef(decl DeclID, path ...string) VarRefID {
	return VarRefID{Kind: VarRefSelfPath, Root: decl, Path: path}
}

func NewDeclPathVarRef(decl DeclID, path ...string) VarRefID {
	return VarRefID{Kind: VarRefDeclPath, Root: decl, Path: path}
}

func NewMemberPathVarRef(member MemberID, path ...string) VarRefID {
	return VarRefID{Kind: VarRefMemberPath, Member: member, Path: path}
}

func (v VarRefID) String() string {
	base := v.Root.String()
	if v.Kind == VarRefMemberPath {
		base = v.Member.String()
	}
	for _, p := range v.Path {
		base += "." + p
	}
	return base
}

// Equal reports structural equality, since VarRefID contains a slice and
// cannot be used as a map key directly; callers that need a map key should
// call Key() instead.
func (v VarRefID) Equal(other VarRefID) bool {
	return v.Key() == other.Key()
}

// Key returns a comparable representation suitable for map keys.
func (v VarRefID) Key() string {
	s := v.String()
	return fmt.Sprintf("%d:%s", v.Kind, s)
}
