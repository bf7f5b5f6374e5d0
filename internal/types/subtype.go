package types

import (
	set "github.com/hashicorp/go-set/v3"

	"github.com/emmylua-go/analyzer/internal/ids"
)

// SuperTypeLookup answers "what does t directly extend" — the class
// index's super-type graph (`@class Name : Parent1, Parent2`). It is
// injected rather than owned by this package so the type algebra stays
// independent of the cross-file index set (§4.7).
type SuperTypeLookup interface {
	DirectSupers(t ids.TypeDeclID) []ids.TypeDeclID
}

// builtinBaseKinds maps each constant kind, and integer, to the built-in
// base kind it widens to (§4.2): integer constants to integer, integer and
// float constants to number, string and boolean constants to string and
// boolean.
var builtinBaseKinds = map[Kind][]Kind{
	KIntegerConst: {KInteger},
	KInteger:      {KNumber},
	KFloatConst:   {KNumber},
	KStringConst:  {KString},
	KBooleanConst: {KBoolean},
	KDocStringConst:  {KString},
	KDocIntegerConst: {KInteger},
	KDocBooleanConst: {KBoolean},
}

// IsSubTypeOf answers class-ref subtyping: is `a` a (possibly indirect,
// possibly reflexive) subtype of `b`, per the super-type graph from
// supers. Implemented as an iterative BFS with a visited set so cyclic
// class graphs (A extends B extends A) terminate (§4.2, §9).
func IsSubTypeOf(a, b ids.TypeDeclID, supers SuperTypeLookup) bool {
	if a == b {
		return true
	}
	if supers == nil {
		return false
	}
	visited := set.New[ids.TypeDeclID](8)
	queue := []ids.TypeDeclID{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !visited.Insert(cur) {
			continue
		}
		for _, parent := range supers.DirectSupers(cur) {
			if parent == b {
				return true
			}
			if !visited.Contains(parent) {
				queue = append(queue, parent)
			}
		}
	}
	return false
}

// IsSubType is the general type-level subtype check used by the diagnostic
// checkers: true when every value of `a` is also a value of `b`.
func IsSubType(a, b Type, supers SuperTypeLookup) bool {
	if b.Kind == KAny || a.Kind == KNever {
		return true
	}
	if a.Kind == KUnion {
		for _, m := range a.Elems {
			if !IsSubType(m, b, supers) {
				return false
			}
		}
		return true
	}
	if b.Kind == KUnion {
		for _, m := range b.Elems {
			if IsSubType(a, m, supers) {
				return true
			}
		}
		return false
	}
	if a.Kind == KNullable {
		return IsSubType(*a.Elem, b, supers) && IsSubType(Nil(), b, supers)
	}
	if b.Kind == KNullable {
		return IsSubType(a, *b.Elem, supers) || a.Kind == KNil
	}
	if Equal(a, b) {
		return true
	}
	if a.Kind == KRef && b.Kind == KRef {
		return IsSubTypeOf(a.DeclID, b.DeclID, supers)
	}
	if parents, ok := builtinBaseKinds[a.Kind]; ok {
		for _, p := range parents {
			if p == b.Kind || IsSubType(Type{Kind: p}, b, supers) {
				return true
			}
		}
	}
	return false
}
