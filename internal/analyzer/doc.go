package analyzer

import (
	"fmt"

	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/index"
	"github.com/emmylua-go/analyzer/internal/types"
)

// analyzeDoc is pipeline phase 3 (spec.md §4.1): walks every statement's
// attached doc comments and binds each recognized tag into the type-decl,
// member, signature, operator, or property index. Forward references to a
// not-yet-seen type push an UnresolvedWork onto the returned queue.
func (a *Analyzer) analyzeDoc(f ids.FileID, chunk *ast.Chunk) []UnresolvedWork {
	if chunk == nil {
		return nil
	}
	var queue []UnresolvedWork
	a.walkBlockDoc(f, chunk.Body, &queue)
	return queue
}

func (a *Analyzer) walkBlockDoc(f ids.FileID, b *ast.Block, queue *[]UnresolvedWork) {
	if b == nil {
		return
	}
	for _, s := range b.Stats {
		a.bindStatDoc(f, s, queue)
		switch v := s.(type) {
		case *ast.DoStat:
			a.walkBlockDoc(f, v.Body, queue)
		case *ast.WhileStat:
			a.walkBlockDoc(f, v.Body, queue)
		case *ast.RepeatStat:
			a.walkBlockDoc(f, v.Body, queue)
		case *ast.IfStat:
			for _, c := range v.Clauses {
				a.walkBlockDoc(f, c.Body, queue)
			}
		case *ast.NumericForStat:
			a.walkBlockDoc(f, v.Body, queue)
		case *ast.GenericForStat:
			a.walkBlockDoc(f, v.Body, queue)
		case *ast.FunctionStat:
			a.walkBlockDoc(f, v.Func.Body, queue)
		case *ast.LocalFunctionStat:
			a.walkBlockDoc(f, v.Func.Body, queue)
		}
	}
}

func (a *Analyzer) bindStatDoc(f ids.FileID, s ast.Statement, queue *[]UnresolvedWork) {
	docs := statDocs(s)
	if len(docs) == 0 {
		return
	}
	sigID, hasSig := signatureOf(f, s)
	for _, doc := range docs {
		text := docText(doc)
		for _, tag := range doc.Tags {
			switch tag.Kind {
			case ast.TagClass:
				a.bindClassTag(f, s, tag, doc, text)
			case ast.TagEnum:
				a.bindEnumTag(f, s, tag, doc, text)
			case ast.TagAlias:
				a.bindAliasTag(f, tag, doc)
			case ast.TagField:
				a.bindFieldTag(f, s, tag, queue)
			case ast.TagType:
				a.bindTypeTag(f, s, tag, queue)
			case ast.TagParam:
				if hasSig {
					a.bindParamTag(f, sigID, tag, queue)
				}
			case ast.TagReturn:
				if hasSig {
					a.bindReturnTag(f, sigID, tag, queue)
				}
			case ast.TagOverload:
				if hasSig {
					a.bindOverloadTag(f, sigID, tag)
				}
			case ast.TagGeneric:
				if hasSig {
					info := a.db.Signatures.Declare(sigID)
					info.GenericParams = append(info.GenericParams, tag.Name)
				}
			case ast.TagAsync:
				if hasSig {
					a.db.Signatures.Declare(sigID).IsAsync = true
				}
				a.propertyFor(f, s, sigID, hasSig, text).Async = true
			case ast.TagNodiscard:
				p := a.propertyFor(f, s, sigID, hasSig, text)
				p.Nodiscard = true
				p.NodiscardMessage = tag.Message
			case ast.TagDeprecated:
				p := a.propertyFor(f, s, sigID, hasSig, text)
				p.Deprecated = true
				p.DeprecatedMessage = tag.Message
			case ast.TagVersion:
				p := a.propertyFor(f, s, sigID, hasSig, text)
				p.VersionConstraints = append(p.VersionConstraints, tag.VersionConstraints...)
			case ast.TagVisibility:
				p := a.propertyFor(f, s, sigID, hasSig, text)
				p.Visibility = tag.Visibility
			case ast.TagSee:
				p := a.propertyFor(f, s, sigID, hasSig, text)
				p.SeeRefs = append(p.SeeRefs, tag.Ref)
			case ast.TagSource:
				p := a.propertyFor(f, s, sigID, hasSig, text)
				p.SourceRefs = append(p.SourceRefs, tag.Ref)
			}
		}
	}
}

// statDocs returns the DocAttach.Docs slice of s, if it carries one.
func statDocs(s ast.Statement) []*ast.DocComment {
	switch v := s.(type) {
	case *ast.LocalStat:
		return v.Docs
	case *ast.AssignStat:
		return v.Docs
	case *ast.FunctionStat:
		return v.Docs
	case *ast.LocalFunctionStat:
		return v.Docs
	default:
		return nil
	}
}

// signatureOf returns the SignatureID of the closure s defines, if any.
func signatureOf(f ids.FileID, s ast.Statement) (ids.SignatureID, bool) {
	switch v := s.(type) {
	case *ast.FunctionStat:
		return ids.SignatureID{FileID: f, Position: v.Func.Range().Start}, true
	case *ast.LocalFunctionStat:
		return ids.SignatureID{FileID: f, Position: v.Func.Range().Start}, true
	case *ast.LocalStat:
		for _, e := range v.Exprs {
			if fn, ok := e.(*ast.FunctionExpr); ok {
				return ids.SignatureID{FileID: f, Position: fn.Range().Start}, true
			}
		}
	case *ast.AssignStat:
		for _, e := range v.Exprs {
			if fn, ok := e.(*ast.FunctionExpr); ok {
				return ids.SignatureID{FileID: f, Position: fn.Range().Start}, true
			}
		}
	}
	return ids.SignatureID{}, false
}

func docText(doc *ast.DocComment) string {
	return fmt.Sprintf("%d:%d", doc.Range.Start, doc.Range.End)
}

// propertyFor lazily creates (or reuses) the Property bundle attached to
// the entity s declares — a signature if one exists, otherwise a decl —
// so repeated tags across multiple comment blocks accumulate onto the same
// PropertyID (spec.md: "multiple comments may contribute").
func (a *Analyzer) propertyFor(f ids.FileID, s ast.Statement, sigID ids.SignatureID, hasSig bool, text string) *index.Property {
	var owner index.PropertyOwner
	var siteKey string
	if hasSig {
		owner = index.SignaturePropertyOwner(sigID)
		siteKey = sigID.String()
	} else {
		owner = index.DeclPropertyOwner(ids.DeclID{FileID: f, Position: s.Range().Start})
		siteKey = owner.Decl.String()
	}
	id := ids.NewPropertyID(siteKey, text)
	if p, ok := a.db.Properties.Get(id); ok {
		return p
	}
	p := &index.Property{ID: id, Owner: owner, File: f}
	a.db.Properties.Put(p)
	return p
}

func (a *Analyzer) bindClassTag(f ids.FileID, s ast.Statement, tag ast.DocTag, doc *ast.DocComment, text string) {
	cls := ids.TypeDeclID{Name: tag.Name}
	supers := make([]ids.TypeDeclID, 0, len(tag.Supers))
	for _, sup := range tag.Supers {
		supers = append(supers, ids.TypeDeclID{Name: sup})
	}
	a.db.TypeDecls.Declare(f, index.DeclarePartial{
		ID: cls, Kind: index.TypeClass, Attrib: tag.Attrib,
		Supers: supers, GenericParams: tag.GenericParams,
		Site: ids.NewInFiled(f, doc.Range),
	})
	owner := index.TypeDeclPropertyOwner(cls)
	id := ids.NewPropertyID(cls.Name, text)
	if _, ok := a.db.Properties.Get(id); !ok {
		a.db.Properties.Put(&index.Property{ID: id, Owner: owner, File: f, Description: tag.Description})
	}
	// `local M = {}; ---@class M` — the class's cached type becomes Def(cls);
	// a later TableConst merge against this slot triggers AdoptTableAsClass.
	if decl, ok := declOfAnnotatedLocal(f, s); ok {
		a.db.Types.Merge(index.DeclTypeOwner(decl), types.Def(cls), a.db.Members)
	}
}

func (a *Analyzer) bindEnumTag(f ids.FileID, s ast.Statement, tag ast.DocTag, doc *ast.DocComment, text string) {
	en := ids.TypeDeclID{Name: tag.Name}
	a.db.TypeDecls.Declare(f, index.DeclarePartial{
		ID: en, Kind: index.TypeEnum, EnumKeyMode: tag.EnumKeyMode,
		Site: ids.NewInFiled(f, doc.Range),
	})
	if decl, ok := declOfAnnotatedLocal(f, s); ok {
		a.db.Types.Merge(index.DeclTypeOwner(decl), types.Def(en), a.db.Members)
	}
}

func (a *Analyzer) bindAliasTag(f ids.FileID, tag ast.DocTag, doc *ast.DocComment) {
	al := ids.TypeDeclID{Name: tag.Name}
	a.db.TypeDecls.Declare(f, index.DeclarePartial{
		ID: al, Kind: index.TypeAlias, GenericParams: tag.GenericParams,
		AliasBody: tag.AliasBody, Site: ids.NewInFiled(f, doc.Range),
	})
}

// declOfAnnotatedLocal finds the decl a `---@class`/`---@enum` comment's
// following LocalStat introduces — the "table becomes class" idiom only
// applies to a single-name `local M = {}` form.
func declOfAnnotatedLocal(f ids.FileID, s ast.Statement) (ids.DeclID, bool) {
	ls, ok := s.(*ast.LocalStat)
	if !ok || len(ls.Names) != 1 {
		return ids.DeclID{}, false
	}
	return ids.DeclID{FileID: f, Position: ls.NameEnd[0]}, true
}

func (a *Analyzer) bindFieldTag(f ids.FileID, s ast.Statement, tag ast.DocTag, queue *[]UnresolvedWork) {
	cls, ok := enclosingClass(s)
	if !ok {
		return
	}
	key := index.NameKey(tag.FieldKeyName)
	if !tag.FieldKeyIsString && tag.FieldKeyInt != nil {
		key = index.IntKey(*tag.FieldKeyInt)
	}
	t, unresolved := resolveDocType(a, f, tag.Type)
	id := ids.MemberID{FileID: f, SyntaxID: tag.Range.Start}
	info := &index.MemberInfo{
		ID: id, Owner: index.TypeOwner(cls), Key: key, Type: t,
		Visibility: tag.Visibility, IsMeta: true, File: f, Range: tag.Range,
	}
	a.db.Members.Add(info)
	if !unresolved {
		return
	}
	docType := tag.Type
	*queue = append(*queue, UnresolvedWork{
		File:   f,
		Reason: InferFailReason{Kind: ReasonUnresolveDocType, TypeName: docTypeName(docType)},
		retry: func(a *Analyzer) (bool, *InferFailReason) {
			t, unresolved := resolveDocType(a, f, docType)
			if unresolved {
				return false, nil
			}
			info.Type = t
			return true, nil
		},
		finalize: func(a *Analyzer) { info.Type = types.Any() },
	})
}

func (a *Analyzer) bindTypeTag(f ids.FileID, s ast.Statement, tag ast.DocTag, queue *[]UnresolvedWork) {
	decl, ok := declOfAnnotatedLocal(f, s)
	if !ok {
		if as, ok2 := s.(*ast.AssignStat); ok2 && len(as.Targets) == 1 {
			if name, ok3 := as.Targets[0].(*ast.NameExpr); ok3 {
				decl = ids.DeclID{FileID: f, Position: name.Range().Start}
				ok = true
			}
		}
	}
	if !ok || len(tag.Types) == 0 {
		return
	}
	docTypes := tag.Types
	owner := index.DeclTypeOwner(decl)
	t, unresolved := resolveDocTypeUnion(a, f, docTypes)
	if !unresolved {
		a.db.Types.Merge(owner, t, a.db.Members)
		return
	}
	// Deferred rather than merged-then-corrected: TypeCache.Merge's "keep
	// current" rule would refuse to overwrite a non-Unknown partial value
	// once already written, so the first successful resolution has to be
	// the one that writes.
	*queue = append(*queue, UnresolvedWork{
		File:   f,
		Reason: InferFailReason{Kind: ReasonUnresolveDocType, TypeName: docTypeName(docTypes[0])},
		retry: func(a *Analyzer) (bool, *InferFailReason) {
			t, unresolved := resolveDocTypeUnion(a, f, docTypes)
			if unresolved {
				return false, nil
			}
			a.db.Types.Merge(owner, t, a.db.Members)
			return true, nil
		},
		finalize: func(a *Analyzer) { a.db.Types.Merge(owner, types.Any(), a.db.Members) },
	})
}

func resolveDocTypeUnion(a *Analyzer, f ids.FileID, docTypes []*ast.DocType) (types.Type, bool) {
	parts := make([]types.Type, 0, len(docTypes))
	anyUnresolved := false
	for _, dt := range docTypes {
		t, unresolved := resolveDocType(a, f, dt)
		parts = append(parts, t)
		anyUnresolved = anyUnresolved || unresolved
	}
	return types.Union(parts...), anyUnresolved
}

func (a *Analyzer) bindParamTag(f ids.FileID, sigID ids.SignatureID, tag ast.DocTag, queue *[]UnresolvedWork) {
	info := a.db.Signatures.Declare(sigID)
	t, unresolved := resolveDocType(a, f, tag.Type)
	idx := -1
	for i := range info.Params {
		if info.Params[i].Name == tag.ParamName {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = len(info.Params)
		info.Params = append(info.Params, index.SignatureParam{Name: tag.ParamName})
	}
	info.Params[idx].Optional = tag.ParamOptional
	info.Params[idx].Type = t
	if !unresolved {
		return
	}
	name := tag.ParamName
	docType := tag.Type
	*queue = append(*queue, UnresolvedWork{
		File:   f,
		Reason: InferFailReason{Kind: ReasonUnresolveDocType, TypeName: docTypeName(docType)},
		retry: func(a *Analyzer) (bool, *InferFailReason) {
			t, unresolved := resolveDocType(a, f, docType)
			if unresolved {
				return false, nil
			}
			setParamType(a, sigID, name, t)
			return true, nil
		},
		finalize: func(a *Analyzer) { setParamType(a, sigID, name, types.Any()) },
	})
}

func setParamType(a *Analyzer, sigID ids.SignatureID, name string, t types.Type) {
	info, ok := a.db.Signatures.Get(sigID)
	if !ok {
		return
	}
	for i := range info.Params {
		if info.Params[i].Name == name {
			info.Params[i].Type = t
			return
		}
	}
}

func (a *Analyzer) bindReturnTag(f ids.FileID, sigID ids.SignatureID, tag ast.DocTag, queue *[]UnresolvedWork) {
	info := a.db.Signatures.Declare(sigID)
	t, unresolved := resolveDocType(a, f, tag.Type)
	pos := len(info.Returns)
	info.Returns = append(info.Returns, index.SignatureReturn{Name: tag.ReturnName, Type: t})
	if !unresolved {
		return
	}
	docType := tag.Type
	*queue = append(*queue, UnresolvedWork{
		File:   f,
		Reason: InferFailReason{Kind: ReasonUnresolveDocType, TypeName: docTypeName(docType)},
		retry: func(a *Analyzer) (bool, *InferFailReason) {
			t, unresolved := resolveDocType(a, f, docType)
			if unresolved {
				return false, nil
			}
			setReturnType(a, sigID, pos, t)
			return true, nil
		},
		finalize: func(a *Analyzer) { setReturnType(a, sigID, pos, types.Any()) },
	})
}

func setReturnType(a *Analyzer, sigID ids.SignatureID, pos int, t types.Type) {
	info, ok := a.db.Signatures.Get(sigID)
	if !ok || pos >= len(info.Returns) {
		return
	}
	info.Returns[pos].Type = t
}

func (a *Analyzer) bindOverloadTag(f ids.FileID, sigID ids.SignatureID, tag ast.DocTag) {
	info := a.db.Signatures.Declare(sigID)
	overloadID := ids.SignatureID{FileID: f, Position: tag.Range.Start}
	a.db.Signatures.Declare(overloadID)
	info.Overloads = append(info.Overloads, overloadID)
}

// enclosingClass resolves the `@field`-bearing class for s: the class name
// declared by a sibling `@class` tag on the same comment group.
func enclosingClass(s ast.Statement) (ids.TypeDeclID, bool) {
	for _, doc := range statDocs(s) {
		for _, tag := range doc.Tags {
			if tag.Kind == ast.TagClass {
				return ids.TypeDeclID{Name: tag.Name}, true
			}
		}
	}
	return ids.TypeDeclID{}, false
}

// resolveDocType converts a parsed DocType into a types.Type; the second
// return reports whether it (or one of its nested parts) names a type not
// yet declared (spec.md §4.1: "unresolved doc types push items into the
// unresolved queue"). The unresolved branch still returns a best-effort
// Type (Unknown for the unresolved leaf) so the caller always has
// something to write immediately, with the retry/finalize closure
// correcting it later.
func resolveDocType(a *Analyzer, f ids.FileID, dt *ast.DocType) (types.Type, bool) {
	if dt == nil {
		return types.Unknown(), false
	}
	switch dt.Kind {
	case ast.DTName:
		if t, ok := primitiveDocType(dt.Name); ok {
			return t, false
		}
		id := ids.TypeDeclID{Name: dt.Name}
		if _, ok := a.db.TypeDecls.Get(id); ok {
			return types.Ref(id), false
		}
		return types.Unknown(), true
	case ast.DTStringLiteral:
		return types.DocStringConst(dt.StrVal), false
	case ast.DTIntegerLiteral:
		return types.DocIntegerConst(dt.IntVal), false
	case ast.DTBooleanLiteral:
		return types.DocBooleanConst(dt.BoolVal), false
	case ast.DTArray:
		elem, u := resolveDocType(a, f, dt.Elem)
		return types.Array(elem), u
	case ast.DTOptional:
		elem, u := resolveDocType(a, f, dt.Elem)
		return types.Nullable(elem), u
	case ast.DTVariadic:
		elem, u := resolveDocType(a, f, dt.Elem)
		return types.Variadic(elem), u
	case ast.DTParen:
		return resolveDocType(a, f, dt.Elem)
	case ast.DTTable:
		if len(dt.Elems) == 2 {
			k, u1 := resolveDocType(a, f, dt.Elems[0])
			v, u2 := resolveDocType(a, f, dt.Elems[1])
			return types.TableGenericKV(k, v), u1 || u2
		}
		if len(dt.Elems) == 1 {
			v, u := resolveDocType(a, f, dt.Elems[0])
			return types.TableGenericV(v), u
		}
		return types.Table(), false
	case ast.DTUnion:
		members := make([]types.Type, 0, len(dt.Elems))
		unresolved := false
		for _, e := range dt.Elems {
			t, u := resolveDocType(a, f, e)
			members = append(members, t)
			unresolved = unresolved || u
		}
		return types.Union(members...), unresolved
	case ast.DTTuple:
		members := make([]types.Type, 0, len(dt.Elems))
		unresolved := false
		for _, e := range dt.Elems {
			t, u := resolveDocType(a, f, e)
			members = append(members, t)
			unresolved = unresolved || u
		}
		return types.Tuple(members), unresolved
	case ast.DTGeneric:
		id := ids.TypeDeclID{Name: dt.Name}
		args := make([]types.Type, 0, len(dt.Elems))
		unresolved := false
		for _, e := range dt.Elems {
			t, u := resolveDocType(a, f, e)
			args = append(args, t)
			unresolved = unresolved || u
		}
		return types.Generic(id, args), unresolved
	case ast.DTFun:
		params := make([]types.Param, 0, len(dt.FunParams))
		unresolved := false
		for _, p := range dt.FunParams {
			pt, u := resolveDocType(a, f, p.Type)
			unresolved = unresolved || u
			params = append(params, types.Param{Name: p.Name, Type: pt, Optional: p.Optional})
		}
		rets := make([]types.Type, 0, len(dt.FunReturns))
		for _, r := range dt.FunReturns {
			rt, u := resolveDocType(a, f, r)
			unresolved = unresolved || u
			rets = append(rets, rt)
		}
		return types.DocFunction(types.DocFunctionShape{Params: params, Returns: rets, IsVararg: dt.FunVararg}), unresolved
	case ast.DTObject:
		fields := make([]types.ObjectField, 0, len(dt.ObjectFields))
		unresolved := false
		for _, of := range dt.ObjectFields {
			ft, u := resolveDocType(a, f, of.Type)
			unresolved = unresolved || u
			fields = append(fields, types.ObjectField{Key: of.Key, Type: ft})
		}
		return types.Object(fields, nil), unresolved
	default:
		return types.Unknown(), false
	}
}

// docTypeName extracts a human label for an unresolved-reason's TypeName
// field; only DTName/DTGeneric carry one directly, anything else reports
// the empty string (the reason's Kind still tells the caller what to retry).
func docTypeName(dt *ast.DocType) string {
	if dt == nil {
		return ""
	}
	switch dt.Kind {
	case ast.DTName, ast.DTGeneric:
		return dt.Name
	default:
		return ""
	}
}

func primitiveDocType(name string) (types.Type, bool) {
	switch name {
	case "nil":
		return types.Nil(), true
	case "boolean":
		return types.Boolean(), true
	case "number":
		return types.Number(), true
	case "integer":
		return types.Integer(), true
	case "string":
		return types.String(), true
	case "table":
		return types.Table(), true
	case "function":
		return types.Function(), true
	case "thread":
		return types.Thread(), true
	case "userdata":
		return types.Userdata(), true
	case "io":
		return types.Io(), true
	case "any":
		return types.Any(), true
	case "self":
		return types.SelfInfer(), true
	}
	return types.Type{}, false
}
