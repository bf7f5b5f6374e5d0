// Package ast defines the concrete syntax tree the core's analyzers walk:
// node kinds, ranges, and stable syntax ids, fixing exactly the shapes
// spec.md §6 requires of the (externally specified) parser. Node dispatch
// follows spec.md §9's guidance ("avoid virtual hierarchies ... a cheap
// check on the node's kind tag") rather than the teacher's (funxy)
// Visitor-interface pattern: every node exposes Kind() and callers type-
// switch on the concrete type, which Go's type switches make just as cheap
// as a tag compare.
package ast

import (
	"fmt"

	"github.com/emmylua-go/analyzer/internal/ids"
)

// Kind tags every statement/expression/doc-tag node.
type Kind uint8

const (
	KChunk Kind = iota
	KBlock

	// statements
	KLocalStat
	KAssignStat
	KCallStat
	KDoStat
	KWhileStat
	KRepeatStat
	KIfStat
	KNumericForStat
	KGenericForStat
	KFunctionStat
	KLocalFunctionStat
	KReturnStat
	KBreakStat
	KGotoStat
	KLabelStat

	// expressions
	KNilExpr
	KTrueExpr
	KFalseExpr
	KVarargExpr
	KNumberExpr
	KStringExpr
	KNameExpr
	KIndexExpr
	KMethodCallExpr
	KCallExpr
	KFunctionExpr
	KTableExpr
	KBinaryExpr
	KUnaryExpr
	KParenExpr
)

func (k Kind) String() string {
	names := map[Kind]string{
		KChunk: "Chunk", KBlock: "Block", KLocalStat: "LocalStat",
		KAssignStat: "AssignStat", KCallStat: "CallStat", KDoStat: "DoStat",
		KWhileStat: "WhileStat", KRepeatStat: "RepeatStat", KIfStat: "IfStat",
		KNumericForStat: "NumericForStat", KGenericForStat: "GenericForStat",
		KFunctionStat: "FunctionStat", KLocalFunctionStat: "LocalFunctionStat",
		KReturnStat: "ReturnStat", KBreakStat: "BreakStat", KGotoStat: "GotoStat",
		KLabelStat: "LabelStat", KNilExpr: "NilExpr", KTrueExpr: "TrueExpr",
		KFalseExpr: "FalseExpr", KVarargExpr: "VarargExpr", KNumberExpr: "NumberExpr",
		KStringExpr: "StringExpr", KNameExpr: "NameExpr", KIndexExpr: "IndexExpr",
		KMethodCallExpr: "MethodCallExpr", KCallExpr: "CallExpr",
		KFunctionExpr: "FunctionExpr", KTableExpr: "TableExpr",
		KBinaryExpr: "BinaryExpr", KUnaryExpr: "UnaryExpr", KParenExpr: "ParenExpr",
	}
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// SyntaxID is the stable (byte-offset, kind) identity spec.md §6 requires
// of every node: "a stable syntax-id (byte-offset + kind)".
type SyntaxID struct {
	Offset int
	Kind   Kind
}

func (s SyntaxID) String() string { return fmt.Sprintf("%s@%d", s.Kind, s.Offset) }

// Node is the shape every AST node satisfies.
type Node interface {
	Kind() Kind
	Range() ids.Range
	SyntaxID() SyntaxID
}

type Statement interface {
	Node
	stmtNode()
}

type Expression interface {
	Node
	exprNode()
}

// base is embedded by every concrete node and implements Node.
type base struct {
	K Kind
	R ids.Range
}

func (b base) Kind() Kind         { return b.K }
func (b base) Range() ids.Range   { return b.R }
func (b base) SyntaxID() SyntaxID { return SyntaxID{Offset: b.R.Start, Kind: b.K} }

func mk(k Kind, r ids.Range) base { return base{K: k, R: r} }

// DocAttach is embedded by statements that may carry doc comments
// immediately preceding them.
type DocAttach struct {
	Docs []*DocComment
}

// --- Chunk / Block ------------------------------------------------------

// Chunk is the root node of every file's AST (`Program` in the teacher).
type Chunk struct {
	base
	File string
	Body *Block
}

func NewChunk(file string, body *Block, r ids.Range) *Chunk {
	return &Chunk{base: mk(KChunk, r), File: file, Body: body}
}

type Block struct {
	base
	Stats []Statement
}

func NewBlock(stats []Statement, r ids.Range) *Block {
	return &Block{base: mk(KBlock, r), Stats: stats}
}

// --- statements -----------------------------------------------------------

type LocalStat struct {
	base
	DocAttach
	Names   []string
	NameEnd []int // byte offset just past each name, for DeclID positions
	Attribs []string // Lua 5.4 <const>/<close>, empty string if none
	Exprs   []Expression
}

func (s *LocalStat) stmtNode() {}

type AssignStat struct {
	base
	DocAttach
	Targets []Expression // NameExpr or IndexExpr
	Exprs   []Expression
}

func (s *AssignStat) stmtNode() {}

type CallStat struct {
	base
	Call Expression // CallExpr or MethodCallExpr
}

func (s *CallStat) stmtNode() {}

type DoStat struct {
	base
	Body *Block
}

func (s *DoStat) stmtNode() {}

type WhileStat struct {
	base
	Cond Expression
	Body *Block
}

func (s *WhileStat) stmtNode() {}

type RepeatStat struct {
	base
	Body *Block
	Cond Expression
}

func (s *RepeatStat) stmtNode() {}

type IfClause struct {
	Cond Expression // nil for the trailing else
	Body *Block
}

type IfStat struct {
	base
	Clauses []IfClause
}

func (s *IfStat) stmtNode() {}

type NumericForStat struct {
	base
	Name             string
	NameEnd          int
	Start, Stop, Step Expression // Step may be nil
	Body             *Block
}

func (s *NumericForStat) stmtNode() {}

type GenericForStat struct {
	base
	Names   []string
	NameEnd []int
	Exprs   []Expression
	Body    *Block
}

func (s *GenericForStat) stmtNode() {}

// FunctionStat is `function name.a.b:c(...)  ... end` — IsMethod marks a
// colon-defined function (implicit `self` param); DottedPath is the `.a.b`
// prefix before the final name/colon-name.
type FunctionStat struct {
	base
	DocAttach
	DottedPath []string
	Name       string
	NameEnd    int
	IsMethod   bool
	Func       *FunctionExpr
}

func (s *FunctionStat) stmtNode() {}

type LocalFunctionStat struct {
	base
	DocAttach
	Name    string
	NameEnd int
	Func    *FunctionExpr
}

func (s *LocalFunctionStat) stmtNode() {}

type ReturnStat struct {
	base
	Exprs []Expression
}

func (s *ReturnStat) stmtNode() {}

type BreakStat struct{ base }

func (s *BreakStat) stmtNode() {}

type GotoStat struct {
	base
	Label string
}

func (s *GotoStat) stmtNode() {}

type LabelStat struct {
	base
	Name string
}

func (s *LabelStat) stmtNode() {}

// --- expressions ------------------------------------------------------

type NilExpr struct{ base }

func (e *NilExpr) exprNode() {}

type TrueExpr struct{ base }

func (e *TrueExpr) exprNode() {}

type FalseExpr struct{ base }

func (e *FalseExpr) exprNode() {}

type VarargExpr struct{ base }

func (e *VarargExpr) exprNode() {}

type NumberExpr struct {
	base
	IsInt   bool
	Int     int64
	Float   float64
	Lexeme  string
}

func (e *NumberExpr) exprNode() {}

type StringExpr struct {
	base
	Value string
}

func (e *StringExpr) exprNode() {}

// NameExpr resolves to either a local/param decl (Kind==Local), an upvalue
// capture of one, a global, or `self`; the decl analyzer fills ResolvedDecl
// once scopes are built.
type NameExpr struct {
	base
	Name string
}

func (e *NameExpr) exprNode() {}

// IndexExpr covers both `a.b` (DotStyle, Key holds the literal name) and
// `a[k]` (bracket style, KeyExpr holds the arbitrary key expression).
type IndexExpr struct {
	base
	Prefix   Expression
	DotStyle bool
	Key      string
	KeyExpr  Expression // nil when DotStyle
}

func (e *IndexExpr) exprNode() {}

type CallExpr struct {
	base
	Callee Expression
	Args   []Expression
}

func (e *CallExpr) exprNode() {}

// MethodCallExpr is `obj:m(args)` — sugar for `obj.m(obj, args)` the
// analyzer must normalize between colon-call and colon-define (GLOSSARY).
type MethodCallExpr struct {
	base
	Receiver Expression
	Method   string
	Args     []Expression
}

func (e *MethodCallExpr) exprNode() {}

type Param struct {
	Name    string
	NameEnd int
}

type FunctionExpr struct {
	base
	DocAttach
	Params    []Param
	IsVararg  bool
	Body      *Block
	SelfOwner bool // true when this closure is a `:`-defined method (implicit self)
}

func (e *FunctionExpr) exprNode() {}

// TableField is one entry of a table constructor: either positional
// (Key == nil, KeyExpr == nil), `name = value` (Key set), or
// `[expr] = value` (KeyExpr set).
type TableField struct {
	Key     *string
	KeyExpr Expression
	Value   Expression
	Range   ids.Range
}

type TableExpr struct {
	base
	DocAttach
	Fields []TableField
}

func (e *TableExpr) exprNode() {}

type BinaryExpr struct {
	base
	Op          string
	Left, Right Expression
}

func (e *BinaryExpr) exprNode() {}

type UnaryExpr struct {
	base
	Op      string
	Operand Expression
}

func (e *UnaryExpr) exprNode() {}

type ParenExpr struct {
	base
	Inner Expression
}

func (e *ParenExpr) exprNode() {}

// NewStat/NewExpr-style helpers keep parser call sites short.
func NewLocalStat(r ids.Range) *LocalStat             { return &LocalStat{base: mk(KLocalStat, r)} }
func NewAssignStat(r ids.Range) *AssignStat           { return &AssignStat{base: mk(KAssignStat, r)} }
func NewCallStat(call Expression, r ids.Range) *CallStat { return &CallStat{base: mk(KCallStat, r), Call: call} }
func NewDoStat(body *Block, r ids.Range) *DoStat      { return &DoStat{base: mk(KDoStat, r), Body: body} }
func NewWhileStat(cond Expression, body *Block, r ids.Range) *WhileStat {
	return &WhileStat{base: mk(KWhileStat, r), Cond: cond, Body: body}
}
func NewRepeatStat(body *Block, cond Expression, r ids.Range) *RepeatStat {
	return &RepeatStat{base: mk(KRepeatStat, r), Body: body, Cond: cond}
}
func NewIfStat(clauses []IfClause, r ids.Range) *IfStat {
	return &IfStat{base: mk(KIfStat, r), Clauses: clauses}
}
func NewNumericForStat(r ids.Range) *NumericForStat {
	return &NumericForStat{base: mk(KNumericForStat, r)}
}
func NewGenericForStat(r ids.Range) *GenericForStat {
	return &GenericForStat{base: mk(KGenericForStat, r)}
}
func NewFunctionStat(r ids.Range) *FunctionStat { return &FunctionStat{base: mk(KFunctionStat, r)} }
func NewLocalFunctionStat(r ids.Range) *LocalFunctionStat {
	return &LocalFunctionStat{base: mk(KLocalFunctionStat, r)}
}
func NewReturnStat(exprs []Expression, r ids.Range) *ReturnStat {
	return &ReturnStat{base: mk(KReturnStat, r), Exprs: exprs}
}
func NewBreakStat(r ids.Range) *BreakStat { return &BreakStat{base: mk(KBreakStat, r)} }
func NewGotoStat(label string, r ids.Range) *GotoStat {
	return &GotoStat{base: mk(KGotoStat, r), Label: label}
}
func NewLabelStat(name string, r ids.Range) *LabelStat {
	return &LabelStat{base: mk(KLabelStat, r), Name: name}
}

func NewNilExpr(r ids.Range) *NilExpr     { return &NilExpr{base: mk(KNilExpr, r)} }
func NewTrueExpr(r ids.Range) *TrueExpr   { return &TrueExpr{base: mk(KTrueExpr, r)} }
func NewFalseExpr(r ids.Range) *FalseExpr { return &FalseExpr{base: mk(KFalseExpr, r)} }
func NewVarargExpr(r ids.Range) *VarargExpr { return &VarargExpr{base: mk(KVarargExpr, r)} }
func NewNameExpr(name string, r ids.Range) *NameExpr {
	return &NameExpr{base: mk(KNameExpr, r), Name: name}
}
func NewStringExpr(v string, r ids.Range) *StringExpr {
	return &StringExpr{base: mk(KStringExpr, r), Value: v}
}
func NewIndexExpr(prefix Expression, r ids.Range) *IndexExpr {
	return &IndexExpr{base: mk(KIndexExpr, r), Prefix: prefix}
}
func NewCallExpr(callee Expression, args []Expression, r ids.Range) *CallExpr {
	return &CallExpr{base: mk(KCallExpr, r), Callee: callee, Args: args}
}
func NewMethodCallExpr(recv Expression, method string, args []Expression, r ids.Range) *MethodCallExpr {
	return &MethodCallExpr{base: mk(KMethodCallExpr, r), Receiver: recv, Method: method, Args: args}
}
func NewFunctionExpr(r ids.Range) *FunctionExpr { return &FunctionExpr{base: mk(KFunctionExpr, r)} }
func NewTableExpr(r ids.Range) *TableExpr       { return &TableExpr{base: mk(KTableExpr, r)} }
func NewBinaryExpr(op string, l, r Expression, rng ids.Range) *BinaryExpr {
	return &BinaryExpr{base: mk(KBinaryExpr, rng), Op: op, Left: l, Right: r}
}
func NewUnaryExpr(op string, operand Expression, r ids.Range) *UnaryExpr {
	return &UnaryExpr{base: mk(KUnaryExpr, r), Op: op, Operand: operand}
}
func NewParenExpr(inner Expression, r ids.Range) *ParenExpr {
	return &ParenExpr{base: mk(KParenExpr, r), Inner: inner}
}
