// Package types implements LuaType, the tagged-variant type model of
// spec.md §3, and the type algebra (§4.2) operating over it. Following
// spec.md §9 ("avoid virtual hierarchies ... a cheap check on the node's
// kind tag"), LuaType is a single flat struct tagged by Kind rather than an
// interface hierarchy, in the same spirit as the teacher's ast node-kind
// dispatch.
package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/emmylua-go/analyzer/internal/ids"
)

// Kind tags which variant of LuaType a value holds.
type Kind uint8

const (
	KUnknown Kind = iota
	KAny
	KNil
	KBoolean
	KBooleanConst
	KNumber
	KInteger
	KIntegerConst
	KFloatConst
	KString
	KStringConst
	KDocStringConst
	KDocIntegerConst
	KDocBooleanConst
	KTable
	KFunction
	KThread
	KUserdata
	KIo
	KGlobal
	KSelfInfer
	KNever
	KArray
	KTuple
	KObject
	KTableConst
	KTableGeneric
	KUnion
	KIntersection
	KMultiLineUnion
	KNullable
	KDocFunction
	KSignature
	KRef
	KDef
	KGeneric
	KTplRef
	KStrTplRef
	KVariadic
	KInstance
	KMemberPathExist
	KCall
)

// ObjectField is one declared key of an Object type.
type ObjectField struct {
	Key  string
	Type Type
}

// Indexer is one `[K]: V` rule of an Object type.
type Indexer struct {
	Key   Type
	Value Type
}

// DocFunctionShape is the payload of KDocFunction and, once a Signature is
// resolved, the concrete shape substituted out of it.
type DocFunctionShape struct {
	Params      []Param
	Returns     []Type
	IsColonDefine bool
	IsAsync     bool
	IsVararg    bool
}

// Param is one declared parameter.
type Param struct {
	Name     string
	Type     Type
	Optional bool
}

// MultiLineMember pairs a MultiLineUnion branch with its doc description.
type MultiLineMember struct {
	Type        Type
	Description string
}

// Type is the tagged variant. Only the fields relevant to Kind are
// meaningful; the rest are zero. Value semantics are used throughout (Type
// is small and comparable by Equal, never by ==, because slices/maps make
// it non-comparable with ==).
type Type struct {
	Kind Kind

	Bool  bool    // BooleanConst / DocBooleanConst
	Int   int64   // IntegerConst / DocIntegerConst
	Float float64 // FloatConst
	Str   string  // StringConst / DocStringConst / TplRef prefix-suffix glue

	Elem *Type // Array base / Nullable inner / Variadic inner / Call func

	Elems []Type // Tuple members / Union / Intersection members / TableGeneric [K,V] / Generic args / Call args

	MultiLine []MultiLineMember // MultiLineUnion members with descriptions

	Fields   []ObjectField // Object
	Indexers []Indexer     // Object / TableGeneric supplementary indexer rules

	TableRange ids.InFiled[ids.Range] // TableConst range / Instance construction site / MemberPathExist base site

	DeclID ids.TypeDeclID // Ref / Def / Generic target

	SigID ids.SignatureID // Signature

	DocFn *DocFunctionShape // DocFunction

	TplID GenericTplID // TplRef

	StrTplPrefix string // StrTplRef
	StrTplSuffix string
	StrTplID     GenericTplID

	PathKey   string // MemberPathExist
	PathDepth int
	PathBase  *Type
}

// GenericTplID identifies a generic type parameter (`@generic T`) within
// the signature that declares it.
type GenericTplID struct {
	Owner ids.SignatureID
	Name  string
}

func (g GenericTplID) String() string { return fmt.Sprintf("%s#%s", g.Owner, g.Name) }

// --- constructors -----------------------------------------------------

func Unknown() Type       { return Type{Kind: KUnknown} }
func Any() Type           { return Type{Kind: KAny} }
func Nil() Type           { return Type{Kind: KNil} }
func Boolean() Type       { return Type{Kind: KBoolean} }
func Number() Type        { return Type{Kind: KNumber} }
func Integer() Type       { return Type{Kind: KInteger} }
func String() Type        { return Type{Kind: KString} }
func Table() Type         { return Type{Kind: KTable} }
func Function() Type      { return Type{Kind: KFunction} }
func Thread() Type        { return Type{Kind: KThread} }
func Userdata() Type      { return Type{Kind: KUserdata} }
func Io() Type            { return Type{Kind: KIo} }
func Global() Type        { return Type{Kind: KGlobal} }
func SelfInfer() Type     { return Type{Kind: KSelfInfer} }
func Never() Type         { return Type{Kind: KNever} }

func BooleanConst(b bool) Type      { return Type{Kind: KBooleanConst, Bool: b} }
func IntegerConst(n int64) Type     { return Type{Kind: KIntegerConst, Int: n} }
func FloatConst(f float64) Type     { return Type{Kind: KFloatConst, Float: f} }
func StringConst(s string) Type     { return Type{Kind: KStringConst, Str: s} }
func DocStringConst(s string) Type  { return Type{Kind: KDocStringConst, Str: s} }
func DocIntegerConst(n int64) Type  { return Type{Kind: KDocIntegerConst, Int: n} }
func DocBooleanConst(b bool) Type   { return Type{Kind: KDocBooleanConst, Bool: b} }

func Array(elem Type) Type { return Type{Kind: KArray, Elem: &elem} }
func Tuple(elems []Type) Type { return Type{Kind: KTuple, Elems: elems} }
func Object(fields []ObjectField, indexers []Indexer) Type {
	return Type{Kind: KObject, Fields: fields, Indexers: indexers}
}
func TableConst(site ids.InFiled[ids.Range]) Type {
	return Type{Kind: KTableConst, TableRange: site}
}
func TableGenericKV(k, v Type) Type {
	return Type{Kind: KTableGeneric, Elems: []Type{k, v}}
}
func TableGenericV(v Type) Type {
	return Type{Kind: KTableGeneric, Elems: []Type{v}}
}

func Variadic(t Type) Type { return Type{Kind: KVariadic, Elem: &t} }

func DocFunction(shape DocFunctionShape) Type {
	sh := shape
	return Type{Kind: KDocFunction, DocFn: &sh}
}

func Signature(id ids.SignatureID) Type { return Type{Kind: KSignature, SigID: id} }
func Ref(id ids.TypeDeclID) Type        { return Type{Kind: KRef, DeclID: id} }
func Def(id ids.TypeDeclID) Type        { return Type{Kind: KDef, DeclID: id} }
func Generic(id ids.TypeDeclID, args []Type) Type {
	return Type{Kind: KGeneric, DeclID: id, Elems: args}
}
func TplRef(id GenericTplID) Type { return Type{Kind: KTplRef, TplID: id} }
func StrTplRef(prefix string, id GenericTplID, suffix string) Type {
	return Type{Kind: KStrTplRef, StrTplPrefix: prefix, StrTplID: id, StrTplSuffix: suffix}
}
func Instance(base Type, site ids.InFiled[ids.Range]) Type {
	b := base
	return Type{Kind: KInstance, Elem: &b, TableRange: site}
}
func MemberPathExist(key string, base Type, depth int) Type {
	b := base
	return Type{Kind: KMemberPathExist, PathKey: key, PathBase: &b, PathDepth: depth}
}
func Call(fn Type, args []Type) Type {
	f := fn
	return Type{Kind: KCall, Elem: &f, Elems: args}
}

// Nullable builds `T | nil`, normalizing per the §3 invariants:
// Nullable(Nullable(T)) -> Nullable(T), Nullable(Nil) -> Nil.
func Nullable(t Type) Type {
	if t.Kind == KNullable {
		return t
	}
	if t.Kind == KNil {
		return t
	}
	return Type{Kind: KNullable, Elem: &t}
}

// Union builds a normalized union from members, applying from_vec
// deduplication/collapse (§3): Any absorbs, Never is dropped, singletons
// collapse, constant widening folds, duplicates are removed.
func Union(members ...Type) Type {
	flat := flatten(members)
	if len(flat) == 0 {
		return Never()
	}
	for _, m := range flat {
		if m.Kind == KAny {
			return Any()
		}
	}
	widened := widen(flat)
	deduped := dedup(widened)
	if len(deduped) == 1 {
		return deduped[0]
	}
	if len(deduped) == 2 {
		for i, m := range deduped {
			other := deduped[1-i]
			if m.Kind == KNil && other.Kind != KNil {
				return Nullable(other)
			}
		}
	}
	sortTypes(deduped)
	return Type{Kind: KUnion, Elems: deduped}
}

func Intersection(members ...Type) Type {
	flat := make([]Type, 0, len(members))
	for _, m := range members {
		if m.Kind == KIntersection {
			flat = append(flat, m.Elems...)
			continue
		}
		flat = append(flat, m)
	}
	deduped := dedup(flat)
	if len(deduped) == 0 {
		return Never()
	}
	if len(deduped) == 1 {
		return deduped[0]
	}
	sortTypes(deduped)
	return Type{Kind: KIntersection, Elems: deduped}
}

func MultiLineUnion(members []MultiLineMember) Type {
	return Type{Kind: KMultiLineUnion, MultiLine: members}
}

func flatten(members []Type) []Type {
	out := make([]Type, 0, len(members))
	for _, m := range members {
		switch m.Kind {
		case KNever:
			continue
		case KUnknown:
			continue
		case KUnion:
			out = append(out, flatten(m.Elems)...)
		default:
			out = append(out, m)
		}
	}
	return out
}

// widen applies constant-widening: IntegerConst|Integer -> Integer,
// StringConst|String -> String, BooleanConst(b)|Boolean -> Boolean.
func widen(members []Type) []Type {
	hasInteger, hasString, hasBoolean, hasNumber := false, false, false, false
	for _, m := range members {
		switch m.Kind {
		case KInteger:
			hasInteger = true
		case KString:
			hasString = true
		case KBoolean:
			hasBoolean = true
		case KNumber:
			hasNumber = true
		}
	}
	out := make([]Type, 0, len(members))
	for _, m := range members {
		switch {
		case m.Kind == KIntegerConst && hasInteger:
			continue
		case m.Kind == KStringConst && hasString:
			continue
		case m.Kind == KBooleanConst && hasBoolean:
			continue
		case (m.Kind == KIntegerConst || m.Kind == KInteger) && hasNumber:
			continue
		default:
			out = append(out, m)
		}
	}
	return out
}

func dedup(members []Type) []Type {
	out := make([]Type, 0, len(members))
	for _, m := range members {
		dup := false
		for _, o := range out {
			if Equal(m, o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, m)
		}
	}
	return out
}

func sortTypes(members []Type) {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Kind != members[j].Kind {
			return members[i].Kind < members[j].Kind
		}
		return String2(members[i]) < String2(members[j])
	})
}

// Equal is structural equality, used by dedup/Union/tests. Member order in
// Union/Intersection/Object/Tuple is NOT significant for equality of the
// containing type (the sets/sequences are compared as sequences here,
// since constructors keep them normalized/sorted already).
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KBooleanConst, KDocBooleanConst:
		return a.Bool == b.Bool
	case KIntegerConst, KDocIntegerConst:
		return a.Int == b.Int
	case KFloatConst:
		return a.Float == b.Float
	case KStringConst, KDocStringConst:
		return a.Str == b.Str
	case KArray, KNullable, KVariadic:
		return Equal(*a.Elem, *b.Elem)
	case KTuple:
		return equalSlices(a.Elems, b.Elems)
	case KObject:
		return equalFields(a.Fields, b.Fields) && equalIndexers(a.Indexers, b.Indexers)
	case KTableConst:
		return a.TableRange == b.TableRange
	case KTableGeneric:
		return equalSlices(a.Elems, b.Elems)
	case KUnion, KIntersection:
		return equalSlices(a.Elems, b.Elems)
	case KDocFunction:
		return equalDocFn(a.DocFn, b.DocFn)
	case KSignature:
		return a.SigID == b.SigID
	case KRef, KDef:
		return a.DeclID == b.DeclID
	case KGeneric:
		return a.DeclID == b.DeclID && equalSlices(a.Elems, b.Elems)
	case KTplRef:
		return a.TplID == b.TplID
	case KStrTplRef:
		return a.StrTplPrefix == b.StrTplPrefix && a.StrTplID == b.StrTplID && a.StrTplSuffix == b.StrTplSuffix
	case KInstance:
		return Equal(*a.Elem, *b.Elem) && a.TableRange == b.TableRange
	case KMemberPathExist:
		return a.PathKey == b.PathKey && a.PathDepth == b.PathDepth && Equal(*a.PathBase, *b.PathBase)
	case KCall:
		return Equal(*a.Elem, *b.Elem) && equalSlices(a.Elems, b.Elems)
	default:
		return true
	}
}

func equalSlices(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalFields(a, b []ObjectField) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || !Equal(a[i].Type, b[i].Type) {
			return false
		}
	}
	return true
}

func equalIndexers(a, b []Indexer) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i].Key, b[i].Key) || !Equal(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

func equalDocFn(a, b *DocFunctionShape) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Params) != len(b.Params) || len(a.Returns) != len(b.Returns) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Name != b.Params[i].Name || a.Params[i].Optional != b.Params[i].Optional || !Equal(a.Params[i].Type, b.Params[i].Type) {
			return false
		}
	}
	for i := range a.Returns {
		if !Equal(a.Returns[i], b.Returns[i]) {
			return false
		}
	}
	return a.IsColonDefine == b.IsColonDefine && a.IsAsync == b.IsAsync && a.IsVararg == b.IsVararg
}

// String2 renders a compact, stable textual form, used for sorting union
// members and for diagnostic messages. Named to avoid colliding with the
// Stringer method below while keeping the recursive helper simple.
func String2(t Type) string { return t.String() }

func (t Type) String() string {
	switch t.Kind {
	case KUnknown:
		return "unknown"
	case KAny:
		return "any"
	case KNil:
		return "nil"
	case KBoolean:
		return "boolean"
	case KBooleanConst:
		return strconv.FormatBool(t.Bool)
	case KNumber:
		return "number"
	case KInteger:
		return "integer"
	case KIntegerConst:
		return strconv.FormatInt(t.Int, 10)
	case KFloatConst:
		return strconv.FormatFloat(t.Float, 'g', -1, 64)
	case KString:
		return "string"
	case KStringConst:
		return strconv.Quote(t.Str)
	case KDocStringConst:
		return strconv.Quote(t.Str) + "(doc)"
	case KDocIntegerConst:
		return strconv.FormatInt(t.Int, 10) + "(doc)"
	case KDocBooleanConst:
		return strconv.FormatBool(t.Bool) + "(doc)"
	case KTable:
		return "table"
	case KFunction:
		return "function"
	case KThread:
		return "thread"
	case KUserdata:
		return "userdata"
	case KIo:
		return "io"
	case KGlobal:
		return "_G"
	case KSelfInfer:
		return "self"
	case KNever:
		return "never"
	case KArray:
		return t.Elem.String() + "[]"
	case KTuple:
		return "[" + joinTypes(t.Elems) + "]"
	case KObject:
		return "{" + joinFields(t.Fields) + "}"
	case KTableConst:
		return fmt.Sprintf("table-const@%s", t.TableRange.Value)
	case KTableGeneric:
		if len(t.Elems) == 1 {
			return "table<" + t.Elems[0].String() + ">"
		}
		return "table<" + joinTypes(t.Elems) + ">"
	case KUnion:
		return joinTypesSep(t.Elems, "|")
	case KIntersection:
		return joinTypesSep(t.Elems, "&")
	case KMultiLineUnion:
		parts := make([]string, len(t.MultiLine))
		for i, m := range t.MultiLine {
			parts[i] = m.Type.String()
		}
		return strings.Join(parts, "\n| ")
	case KNullable:
		return t.Elem.String() + "?"
	case KDocFunction:
		return docFnString(t.DocFn)
	case KSignature:
		return fmt.Sprintf("fun#%s", t.SigID)
	case KRef:
		return t.DeclID.Name
	case KDef:
		return "def:" + t.DeclID.Name
	case KGeneric:
		return t.DeclID.Name + "<" + joinTypes(t.Elems) + ">"
	case KTplRef:
		return t.TplID.Name
	case KStrTplRef:
		return t.StrTplPrefix + t.StrTplID.Name + t.StrTplSuffix
	case KVariadic:
		return t.Elem.String() + "..."
	case KInstance:
		return fmt.Sprintf("instance<%s>@%s", t.Elem.String(), t.TableRange.Value)
	case KMemberPathExist:
		return fmt.Sprintf("%s.%s?", t.PathBase.String(), t.PathKey)
	case KCall:
		return fmt.Sprintf("call(%s)", t.Elem.String())
	default:
		return "?"
	}
}

func docFnString(d *DocFunctionShape) string {
	if d == nil {
		return "fun()"
	}
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		opt := ""
		if p.Optional {
			opt = "?"
		}
		params[i] = p.Name + opt + ": " + p.Type.String()
	}
	rets := joinTypes(d.Returns)
	return "fun(" + strings.Join(params, ", ") + "): " + rets
}

func joinTypes(ts []Type) string      { return joinTypesSep(ts, ", ") }
func joinTypesSep(ts []Type, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}
func joinFields(fs []ObjectField) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.Key + ": " + f.Type.String()
	}
	return strings.Join(parts, ", ")
}

// IsTruthyConst reports whether t is a compile-time-known-truthy or
// known-falsy constant, and which.
func IsTruthyConst(t Type) (truthy bool, known bool) {
	switch t.Kind {
	case KNil:
		return false, true
	case KBooleanConst, KDocBooleanConst:
		return t.Bool, true
	default:
		return false, false
	}
}
