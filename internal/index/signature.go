package index

import (
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/types"
)

// SignatureInfo is a LuaSignature (spec.md "Entity lifecycles"): created
// once per closure expression, then populated incrementally by
// `@param`/`@return`/`@overload`/`@generic`/`@async`/`@nodiscard` as the
// doc analyzer walks that closure's preceding comments. Several comment
// blocks may contribute to the same signature (one `@param` per line).
type SignatureInfo struct {
	ID            ids.SignatureID
	Params        []SignatureParam
	Returns       []SignatureReturn
	GenericParams []string
	Overloads     []ids.SignatureID // additional @overload fun(...) signatures, minted as synthetic SignatureIds
	IsAsync       bool
	IsVararg      bool
	IsColonDefine bool
}

type SignatureParam struct {
	Name     string
	Optional bool
	Type     types.Type
}

type SignatureReturn struct {
	Name string
	Type types.Type
}

// SignatureIndex owns every LuaSignature. spec.md's invariant "every
// SignatureId has exactly one entry in the signature index across its
// lifetime" is what Declare enforces: it creates the entry once and every
// later doc-tag contribution mutates that same *SignatureInfo in place.
type SignatureIndex struct {
	sigs   map[ids.SignatureID]*SignatureInfo
	byFile map[ids.FileID][]ids.SignatureID
}

func NewSignatureIndex() *SignatureIndex {
	return &SignatureIndex{sigs: make(map[ids.SignatureID]*SignatureInfo), byFile: make(map[ids.FileID][]ids.SignatureID)}
}

// Declare returns the SignatureInfo for id, creating it the first time
// this closure is seen.
func (x *SignatureIndex) Declare(id ids.SignatureID) *SignatureInfo {
	if info, ok := x.sigs[id]; ok {
		return info
	}
	info := &SignatureInfo{ID: id}
	x.sigs[id] = info
	x.byFile[id.FileID] = append(x.byFile[id.FileID], id)
	return info
}

func (x *SignatureIndex) Get(id ids.SignatureID) (*SignatureInfo, bool) {
	info, ok := x.sigs[id]
	return info, ok
}

func (x *SignatureIndex) Remove(file ids.FileID) {
	for _, id := range x.byFile[file] {
		delete(x.sigs, id)
	}
	delete(x.byFile, file)
}
