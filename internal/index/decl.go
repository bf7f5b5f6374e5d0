// Package index implements the cross-file index set spec.md §4.1/§4.6/§4.7
// keys every later analysis phase off: decl, member, type-decl, reference,
// flow, operator, property, and module indexes, plus the per-owner type
// cache. Every index is partitioned per file so a reload is a bounded
// remove-then-rerun rather than a whole-workspace rebuild.
package index

import "github.com/emmylua-go/analyzer/internal/ids"

// DeclKind tags what kind of binding site a Decl records.
type DeclKind uint8

const (
	DeclLocal DeclKind = iota
	DeclParam
	DeclGlobal
	DeclSelf // implicit `self` param of a `:`-defined function
)

// Decl is one local/param/global/self binding.
type Decl struct {
	ID     ids.DeclID
	Name   string
	Kind   DeclKind
	Scope  *Scope
	Attrib string // Lua 5.4 <const>/<close>, "" otherwise
}

// ScopeKind tags the lexical shape a Scope was opened for.
type ScopeKind uint8

const (
	ScopeChunk ScopeKind = iota
	ScopeFunction
	ScopeBlock
)

// Scope is one lexical scope of the decl tree (spec.md §4.1 "scopes +
// local/param/global decls"). Lookup walks Parent links, so shadowing a
// name in a nested scope hides the outer binding without removing it.
type Scope struct {
	Kind   ScopeKind
	Parent *Scope
	File   ids.FileID
	Range  ids.Range
	Decls  map[string]*Decl
}

// Lookup resolves name against s and its ancestors, innermost first.
func (s *Scope) Lookup(name string) (*Decl, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if d, ok := sc.Decls[name]; ok {
			return d, true
		}
	}
	return nil, false
}

// DeclIndex owns every Scope/Decl produced by the decl analyzer.
type DeclIndex struct {
	decls   map[ids.DeclID]*Decl
	byFile  map[ids.FileID][]ids.DeclID
	scopes  map[ids.FileID][]*Scope
	globals map[string][]*Decl
}

func NewDeclIndex() *DeclIndex {
	return &DeclIndex{
		decls:   make(map[ids.DeclID]*Decl),
		byFile:  make(map[ids.FileID][]ids.DeclID),
		scopes:  make(map[ids.FileID][]*Scope),
		globals: make(map[string][]*Decl),
	}
}

// NewScope opens a scope nested under parent (nil for a file's root chunk
// scope) and registers it against file for removal.
func (x *DeclIndex) NewScope(file ids.FileID, kind ScopeKind, parent *Scope, r ids.Range) *Scope {
	s := &Scope{Kind: kind, Parent: parent, File: file, Range: r, Decls: make(map[string]*Decl)}
	x.scopes[file] = append(x.scopes[file], s)
	return s
}

// Define binds decl into scope and registers it for lookup/removal.
// Re-defining the same name in one scope (e.g. repeated `local x`) shadows
// the previous Decl, matching Lua's own shadowing rules.
func (x *DeclIndex) Define(scope *Scope, decl *Decl) {
	scope.Decls[decl.Name] = decl
	decl.Scope = scope
	x.decls[decl.ID] = decl
	x.byFile[decl.ID.FileID] = append(x.byFile[decl.ID.FileID], decl.ID)
	if decl.Kind == DeclGlobal {
		x.globals[decl.Name] = append(x.globals[decl.Name], decl)
	}
}

func (x *DeclIndex) Get(id ids.DeclID) (*Decl, bool) {
	d, ok := x.decls[id]
	return d, ok
}

// Globals returns every global decl site for name across all files; a
// global may legitimately be assigned from several files.
func (x *DeclIndex) Globals(name string) []*Decl {
	return x.globals[name]
}

// ScopeContaining returns the innermost scope of file whose range contains
// pos, the lookup a diagnostic checker needs to ask "is this name-use a
// local or a global" without re-running decl analysis. Ties (equal-sized
// candidates can't occur since scopes nest strictly) are broken by
// preferring the smallest containing range.
func (x *DeclIndex) ScopeContaining(file ids.FileID, pos int) *Scope {
	var best *Scope
	for _, s := range x.scopes[file] {
		if s.Range.Start <= pos && pos <= s.Range.End {
			if best == nil || s.Range.Len() < best.Range.Len() {
				best = s
			}
		}
	}
	return best
}

// Remove evicts every Decl and Scope contributed by file.
func (x *DeclIndex) Remove(file ids.FileID) {
	for _, id := range x.byFile[file] {
		d := x.decls[id]
		delete(x.decls, id)
		if d != nil && d.Kind == DeclGlobal {
			x.globals[d.Name] = removeDecl(x.globals[d.Name], id)
		}
	}
	delete(x.byFile, file)
	delete(x.scopes, file)
}

func removeDecl(list []*Decl, id ids.DeclID) []*Decl {
	out := list[:0]
	for _, d := range list {
		if d.ID != id {
			out = append(out, d)
		}
	}
	return out
}
