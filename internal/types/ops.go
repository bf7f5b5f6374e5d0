package types

// Narrow returns the subtype of source consistent with being observed at
// target — the positive type-guard projection (§4.2). It is intentionally
// conservative: when source is a union, it keeps the branches compatible
// with target; for non-union sources it returns source unchanged when
// source and target share a kind family (a constant kind counts as its base
// kind), and degrades to Never otherwise (source cannot be target).
func Narrow(source, target Type) Type {
	switch source.Kind {
	case KUnion:
		kept := make([]Type, 0, len(source.Elems))
		for _, m := range source.Elems {
			n := Narrow(m, target)
			if n.Kind != KNever {
				kept = append(kept, n)
			}
		}
		return Union(kept...)
	case KNullable:
		return Narrow(Type{Kind: KUnion, Elems: []Type{*source.Elem, Nil()}}, target)
	default:
		if compatibleFamily(source, target) {
			return source
		}
		return Never()
	}
}

func compatibleFamily(a, b Type) bool {
	if a.Kind == b.Kind {
		return true
	}
	widen := func(k Kind) Kind {
		switch k {
		case KIntegerConst, KDocIntegerConst:
			return KInteger
		case KStringConst, KDocStringConst:
			return KString
		case KBooleanConst, KDocBooleanConst:
			return KBoolean
		default:
			return k
		}
	}
	return widen(a.Kind) == widen(b.Kind)
}

// Remove returns source \ removed (§4.2). For class refs it consults the
// super-type graph via the provided SuperTypes lookup: a source class equal
// to `removed` or a subtype of it is dropped, so removing a parent class
// also removes its child classes.
func Remove(source, removed Type, supers SuperTypeLookup) Type {
	switch source.Kind {
	case KUnion:
		kept := make([]Type, 0, len(source.Elems))
		for _, m := range source.Elems {
			r := Remove(m, removed, supers)
			if r.Kind != KNever {
				kept = append(kept, r)
			}
		}
		return Union(kept...)
	case KNullable:
		return Remove(Type{Kind: KUnion, Elems: []Type{*source.Elem, Nil()}}, removed, supers)
	case KArray:
		if removed.Kind == KTable {
			return Never()
		}
		return source
	case KIntegerConst:
		if removed.Kind == KIntegerConst && removed.Int == source.Int {
			return Integer()
		}
		if removed.Kind == KInteger {
			return Never()
		}
		return source
	case KStringConst:
		if removed.Kind == KStringConst && removed.Str == source.Str {
			return String()
		}
		if removed.Kind == KString {
			return Never()
		}
		return source
	case KBooleanConst:
		if removed.Kind == KBooleanConst && removed.Bool == source.Bool {
			return Boolean()
		}
		if removed.Kind == KBoolean {
			return Never()
		}
		return source
	case KRef:
		if removed.Kind == KRef {
			if source.DeclID == removed.DeclID || IsSubTypeOf(source.DeclID, removed.DeclID, supers) {
				return Never()
			}
		}
		return source
	default:
		if Equal(source, removed) || compatibleFamily(source, removed) && !isBaseFamily(removed) {
			if Equal(source, removed) {
				return Never()
			}
		}
		if removed.Kind == source.Kind && isBaseFamily(removed) {
			return Never()
		}
		return source
	}
}

func isBaseFamily(t Type) bool {
	switch t.Kind {
	case KBoolean, KNumber, KInteger, KString, KTable, KFunction, KThread,
		KUserdata, KIo, KGlobal, KSelfInfer, KNil, KAny:
		return true
	default:
		return false
	}
}

// RemoveNilOrFalse is the "truthy projection" (§4.2): strips Nil and
// false-ish constants, widening a bare Boolean down to BooleanConst(true).
func RemoveNilOrFalse(source Type) Type {
	switch source.Kind {
	case KNil:
		return Never()
	case KBooleanConst:
		if !source.Bool {
			return Never()
		}
		return source
	case KDocBooleanConst:
		if !source.Bool {
			return Never()
		}
		return source
	case KBoolean:
		return BooleanConst(true)
	case KNullable:
		return RemoveNilOrFalse(*source.Elem)
	case KUnion:
		kept := make([]Type, 0, len(source.Elems))
		for _, m := range source.Elems {
			r := RemoveNilOrFalse(m)
			if r.Kind != KNever {
				kept = append(kept, r)
			}
		}
		return Union(kept...)
	default:
		return source
	}
}

// NarrowFalseOrNil is the complementary "falsy projection" used for the
// else-branch of `if x then`/left side of `or`: keeps only the members
// that could be nil or false.
func NarrowFalseOrNil(source Type) Type {
	switch source.Kind {
	case KNil, KBoolean:
		return source
	case KBooleanConst:
		if source.Bool {
			return Never()
		}
		return source
	case KDocBooleanConst:
		if source.Bool {
			return Never()
		}
		return source
	case KNullable:
		return Union(Nil(), NarrowFalseOrNil(*source.Elem))
	case KUnion:
		kept := make([]Type, 0, len(source.Elems))
		for _, m := range source.Elems {
			r := NarrowFalseOrNil(m)
			if r.Kind != KNever {
				kept = append(kept, r)
			}
		}
		return Union(kept...)
	default:
		return Never()
	}
}
