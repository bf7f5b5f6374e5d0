package ast

import "github.com/emmylua-go/analyzer/internal/ids"

// DocTagKind tags the recognized doc-tag family (spec.md §6 "Doc-tag
// grammar").
type DocTagKind uint8

const (
	TagClass DocTagKind = iota
	TagField
	TagEnum
	TagAlias
	TagAliasEnumLine // `---| value` continuation line of a bare @alias
	TagType
	TagParam
	TagReturn
	TagOverload
	TagGeneric
	TagCast
	TagAs
	TagNodiscard
	TagAsync
	TagDeprecated
	TagVersion
	TagDiagnostic
	TagMeta
	TagModule
	TagSee
	TagSource
	TagVisibility
)

// DocComment is one `---`/`--[[ ]]` comment block attached to the
// statement that immediately follows it; a single statement may have
// several comment blocks (e.g. `@param` repeated per line) which the doc
// analyzer treats as one logical unit.
type DocComment struct {
	Range ids.Range
	Tags  []DocTag
}

// DocTag is the sum type for one recognized tag occurrence within a
// comment block; exactly one of the typed fields below is meaningful,
// selected by Kind — same tagged-variant discipline as ast.Kind and
// types.Kind (spec.md §9).
type DocTag struct {
	Kind  DocTagKind
	Range ids.Range

	// @class [(attrib)] Name[<T,...>] [: Parent, ...]
	Name       string
	Attrib     string // "exact" | "partial" | ""
	GenericParams []GenericParam
	Supers     []string

	// @field [visibility] key type [description]
	Visibility  string
	FieldKeyName string
	FieldKeyInt  *int64
	FieldKeyIsString bool
	Type        *DocType
	Description string

	// @enum [(key)]
	EnumKeyMode string // "" | "key"

	// @alias Name [<T,...>] Type
	AliasBody *DocType

	// @type Type[, Type...]
	Types []*DocType

	// @param name[?] Type [description] / @param ... Type
	ParamName    string
	ParamOptional bool
	IsVarargParam bool

	// @return Type [name] [description]
	ReturnName string

	// @overload fun(...): ...
	OverloadFn *DocType

	// @cast target (+Type|-Type|Type|?)[, ...]
	CastTarget string
	CastOps    []CastOp

	// @as Type is carried in Type

	// @nodiscard [message] / @deprecated [message]
	Message string

	// @version [<|>][fw] v[, ...]
	VersionConstraints []string

	// @diagnostic {disable|enable|disable-next-line}[: code,...]
	DiagnosticAction string // "disable" | "enable" | "disable-next-line"
	DiagnosticCodes  []string

	// @module "name"
	ModuleName string

	// @see / @source free text
	Ref string
}

// GenericParam is one `T[: Constraint]` of an `@class`/`@alias`/`@generic`
// type-parameter list.
type GenericParam struct {
	Name       string
	Constraint *DocType
}

// CastOpKind tags a single comma-separated operand of `@cast`.
type CastOpKind uint8

const (
	CastAdd CastOpKind = iota
	CastRemove
	CastForce
	CastRemoveNil // the bare `-?` shorthand
)

type CastOp struct {
	Kind CastOpKind
	Type *DocType // nil for CastRemoveNil
}

// DocTypeKind tags the doc-type-expression mini-grammar nested inside doc
// tags (the parsed form of `string|nil`, `table<K,V>`, `fun(a: T): U`, …)
// before the doc analyzer resolves it into a types.Type.
type DocTypeKind uint8

const (
	DTName DocTypeKind = iota // primitive or class/alias/generic-tpl name
	DTStringLiteral
	DTIntegerLiteral
	DTBooleanLiteral
	DTArray
	DTTable // table<K,V> or table<V>
	DTObject // anonymous { k: T, [string]: T }
	DTFun
	DTUnion
	DTTuple
	DTGeneric // Name<Arg,...>
	DTOptional
	DTVariadic
	DTParen
	DTStrTpl // `prefix`T`suffix` string-template parameter reference
)

type DocType struct {
	Kind DocTypeKind
	Range ids.Range

	Name string // DTName / DTGeneric base / DTStrTpl template param name

	StrVal string // DTStringLiteral
	IntVal int64  // DTIntegerLiteral
	BoolVal bool  // DTBooleanLiteral

	Elem *DocType // DTArray/DTOptional/DTVariadic/DTParen inner

	Elems []*DocType // DTTable [K,V]/[V], DTUnion members, DTTuple members, DTGeneric args

	ObjectFields []DocObjectField // DTObject

	FunParams  []DocFunParam // DTFun
	FunReturns []*DocType    // DTFun
	FunVararg  bool

	StrTplPrefix, StrTplSuffix string // DTStrTpl
}

type DocObjectField struct {
	Key      string
	KeyIsStr bool
	Type     *DocType
}

type DocFunParam struct {
	Name     string
	Optional bool
	Type     *DocType
}
