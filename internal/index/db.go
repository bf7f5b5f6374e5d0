package index

import (
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/emmylua-go/analyzer/internal/ids"
)

// DbIndex is the full cross-file index set a session owns (spec.md §4.1's
// "persistent semantic indexes"): one instance per analysis session,
// mutated exclusively during analyze() and read-only thereafter for
// queries (§5).
type DbIndex struct {
	Files      *ids.FileTable
	Modules    *ModuleIndex
	Decls      *DeclIndex
	Members    *MemberIndex
	TypeDecls  *TypeDeclIndex
	References *ReferenceIndex
	Flows      *FlowIndex
	Operators  *OperatorIndex
	Properties *PropertyIndex
	Types      *TypeCache
	Signatures *SignatureIndex

	log hclog.Logger
}

// NewDbIndex builds an empty index set. A nil logger is replaced with
// hclog's no-op logger, matching the teacher's convention of an always-
// present, possibly-discarding collaborator rather than nil-checking at
// every log call site.
func NewDbIndex(log hclog.Logger) *DbIndex {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &DbIndex{
		Files:      ids.NewFileTable(),
		Modules:    NewModuleIndex(),
		Decls:      NewDeclIndex(),
		Members:    NewMemberIndex(),
		TypeDecls:  NewTypeDeclIndex(),
		References: NewReferenceIndex(),
		Flows:      NewFlowIndex(),
		Operators:  NewOperatorIndex(),
		Properties: NewPropertyIndex(),
		Types:      NewTypeCache(),
		Signatures: NewSignatureIndex(),
		log:        log.Named("index"),
	}
}

// Remove evicts every trace of file f from every index (spec.md §4.7):
// "After calling remove(f) on all indexes, no stored data must reference
// f." Property data owned by a TypeDecl is pruned only once TypeDecls
// reports that type has no declaring files left. Errors from the
// individual sub-indexes (only ReferenceIndex's memdb transactions can
// fail) are aggregated rather than short-circuiting, so a failure in one
// index never leaves another un-evicted.
func (db *DbIndex) Remove(f ids.FileID) error {
	db.log.Debug("evicting file", "file", f)
	db.Modules.Remove(f)
	db.Decls.Remove(f)
	db.Members.Remove(f)
	db.Flows.Remove(f)
	db.Operators.Remove(f)
	db.Types.Remove(f)
	db.Signatures.Remove(f)
	vanished := db.TypeDecls.Remove(f)
	for _, id := range vanished {
		db.log.Trace("type decl vanished", "type", id.Name)
		db.Properties.PruneTypeDecl(id)
	}
	db.Properties.Remove(f)

	var result *multierror.Error
	if err := db.References.Remove(f); err != nil {
		result = multierror.Append(result, err)
	}
	db.Files.Forget(f)
	return result.ErrorOrNil()
}
