package index

import (
	"github.com/hashicorp/go-memdb"

	"github.com/emmylua-go/analyzer/internal/ids"
)

// RefKind tags whether a reference reads or writes its decl.
type RefKind uint8

const (
	RefRead RefKind = iota
	RefWrite
)

// Reference is one read/write occurrence of a SemanticDeclID.
type Reference struct {
	FileID ids.FileID
	Range  ids.Range
	Decl   ids.SemanticDeclID
	Kind   RefKind
}

// referenceRow is the go-memdb row shape: Reference.Decl isn't itself
// indexable (it embeds several id structs), so DeclKey carries its
// String() form for the decl_id index.
type referenceRow struct {
	FileID  uint32
	Start   int
	End     int
	Kind    uint8
	DeclKey string
	Ref     Reference
}

func referenceSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			"reference": {
				Name: "reference",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:   "id",
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.UintFieldIndex{Field: "FileID"},
								&memdb.IntFieldIndex{Field: "Start"},
								&memdb.UintFieldIndex{Field: "Kind"},
								&memdb.StringFieldIndex{Field: "DeclKey"},
							},
						},
					},
					"file_id": {
						Name:    "file_id",
						Indexer: &memdb.UintFieldIndex{Field: "FileID"},
					},
					"decl_id": {
						Name:    "decl_id",
						Indexer: &memdb.StringFieldIndex{Field: "DeclKey"},
					},
				},
			},
		},
	}
}

// ReferenceIndex is the read/write reference index (spec.md §4.1 "Decl
// analyze ... populates ... reference index"), backed by go-memdb so that
// both native query directions ("every reference in file f", "every
// reference to decl d") are plain secondary-index scans rather than a
// hand-rolled double map.
type ReferenceIndex struct {
	db *memdb.MemDB
}

func NewReferenceIndex() *ReferenceIndex {
	db, err := memdb.NewMemDB(referenceSchema())
	if err != nil {
		// referenceSchema is a fixed literal; NewMemDB only fails on a
		// malformed schema.
		panic(err)
	}
	return &ReferenceIndex{db: db}
}

func (x *ReferenceIndex) Add(ref Reference) error {
	txn := x.db.Txn(true)
	row := referenceRow{
		FileID:  uint32(ref.FileID),
		Start:   ref.Range.Start,
		End:     ref.Range.End,
		Kind:    uint8(ref.Kind),
		DeclKey: ref.Decl.String(),
		Ref:     ref,
	}
	if err := txn.Insert("reference", row); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

// ReferencesTo returns every reference to decl across all files.
func (x *ReferenceIndex) ReferencesTo(decl ids.SemanticDeclID) ([]Reference, error) {
	txn := x.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get("reference", "decl_id", decl.String())
	if err != nil {
		return nil, err
	}
	var out []Reference
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(referenceRow).Ref)
	}
	return out, nil
}

// InFile returns every reference recorded for file.
func (x *ReferenceIndex) InFile(file ids.FileID) ([]Reference, error) {
	txn := x.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get("reference", "file_id", uint32(file))
	if err != nil {
		return nil, err
	}
	var out []Reference
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(referenceRow).Ref)
	}
	return out, nil
}

// Remove deletes every reference recorded for file.
func (x *ReferenceIndex) Remove(file ids.FileID) error {
	txn := x.db.Txn(true)
	if _, err := txn.DeleteAll("reference", "file_id", uint32(file)); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}
