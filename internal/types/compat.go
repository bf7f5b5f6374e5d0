package types

// CompatResult is the outcome of a type-compatibility check (§7:
// TypeCheckFailReason).
type CompatResult int

const (
	Compatible CompatResult = iota
	TypeNotMatch
	DonotCheck // out-of-scope / recursion-guard pass-through, never surfaced to users
)

// maxCompatDepth bounds check_type_compat recursion so a pathological
// generic/recursive alias can't hang the analyzer (§4.2, §9).
const maxCompatDepth = 64

// CheckTypeCompat is the duck-typed assignment check `target <: candidate`
// (§4.2): can a value of type `candidate` be used where `target` is
// expected?
func CheckTypeCompat(target, candidate Type, supers SuperTypeLookup) CompatResult {
	return checkCompat(target, candidate, supers, 0)
}

func checkCompat(target, candidate Type, supers SuperTypeLookup, depth int) CompatResult {
	if depth > maxCompatDepth {
		return DonotCheck
	}
	if target.Kind == KAny || target.Kind == KUnknown || candidate.Kind == KAny || candidate.Kind == KUnknown {
		return Compatible
	}
	if candidate.Kind == KNever {
		return Compatible
	}

	// Union target: candidate itself a union requires every branch to be
	// satisfiable against at least one target branch (∀ candidate
	// branch, ∃ target branch) — §4.2 "Union: candidate itself union
	// requires ∀-branch".
	if target.Kind == KUnion {
		if candidate.Kind == KUnion {
			for _, c := range candidate.Elems {
				if checkCompat(target, c, supers, depth+1) != Compatible {
					return TypeNotMatch
				}
			}
			return Compatible
		}
		for _, t := range target.Elems {
			if checkCompat(t, candidate, supers, depth+1) == Compatible {
				return Compatible
			}
		}
		return TypeNotMatch
	}

	// Intersection target: candidate must satisfy every branch.
	if target.Kind == KIntersection {
		for _, t := range target.Elems {
			if checkCompat(t, candidate, supers, depth+1) != Compatible {
				return TypeNotMatch
			}
		}
		return Compatible
	}

	if target.Kind == KNullable {
		if candidate.Kind == KNil {
			return Compatible
		}
		return checkCompat(*target.Elem, candidate, supers, depth+1)
	}
	if candidate.Kind == KNullable {
		if checkCompat(target, Nil(), supers, depth+1) != Compatible {
			return TypeNotMatch
		}
		return checkCompat(target, *candidate.Elem, supers, depth+1)
	}

	switch target.Kind {
	case KArray:
		return checkArrayCompat(target, candidate, supers, depth)
	case KTuple:
		return checkTupleCompat(target, candidate, supers, depth)
	case KObject:
		return checkObjectCompat(target, candidate, supers, depth)
	case KTableGeneric:
		return checkTableGenericCompat(target, candidate, supers, depth)
	case KRef:
		if candidate.Kind == KRef {
			if IsSubTypeOf(candidate.DeclID, target.DeclID, supers) {
				return Compatible
			}
			return TypeNotMatch
		}
		if candidate.Kind == KInstance {
			return checkCompat(target, *candidate.Elem, supers, depth+1)
		}
	}

	if IsSubType(candidate, target, supers) {
		return Compatible
	}
	if Equal(target, candidate) {
		return Compatible
	}
	return TypeNotMatch
}

func checkArrayCompat(target, candidate Type, supers SuperTypeLookup, depth int) CompatResult {
	switch candidate.Kind {
	case KArray:
		return checkCompat(*target.Elem, *candidate.Elem, supers, depth+1)
	case KTuple:
		for _, e := range candidate.Elems {
			if checkCompat(*target.Elem, e, supers, depth+1) != Compatible {
				return TypeNotMatch
			}
		}
		return Compatible
	case KObject:
		for _, ix := range candidate.Indexers {
			if ix.Key.Kind == KInteger || ix.Key.Kind == KIntegerConst {
				if checkCompat(*target.Elem, ix.Value, supers, depth+1) == Compatible {
					return Compatible
				}
			}
		}
		return TypeNotMatch
	case KRef, KDef:
		return Compatible // defer to member/indexer resolution upstream
	default:
		return TypeNotMatch
	}
}

func checkTupleCompat(target, candidate Type, supers SuperTypeLookup, depth int) CompatResult {
	if candidate.Kind != KTuple {
		return TypeNotMatch
	}
	if len(candidate.Elems) < len(target.Elems) {
		return TypeNotMatch
	}
	for i, te := range target.Elems {
		if checkCompat(te, candidate.Elems[i], supers, depth+1) != Compatible {
			// trailing target members may be nil-tolerant
			if checkCompat(Nullable(te), candidate.Elems[i], supers, depth+1) == Compatible {
				continue
			}
			return TypeNotMatch
		}
	}
	return Compatible
}

func checkObjectCompat(target, candidate Type, supers SuperTypeLookup, depth int) CompatResult {
	switch candidate.Kind {
	case KObject:
		for _, tf := range target.Fields {
			found := false
			for _, cf := range candidate.Fields {
				if cf.Key == tf.Key {
					found = true
					if checkCompat(tf.Type, cf.Type, supers, depth+1) != Compatible {
						return TypeNotMatch
					}
					break
				}
			}
			if !found {
				for _, ix := range candidate.Indexers {
					if ix.Key.Kind == KString || ix.Key.Kind == KStringConst {
						found = true
						if checkCompat(tf.Type, ix.Value, supers, depth+1) != Compatible {
							return TypeNotMatch
						}
					}
				}
			}
			if !found {
				return TypeNotMatch
			}
		}
		return Compatible
	case KArray:
		for _, tf := range target.Fields {
			_ = tf
			return DonotCheck
		}
		return Compatible
	case KRef, KDef, KInstance:
		return DonotCheck // member resolution happens in the analyzer, not here
	default:
		return TypeNotMatch
	}
}

func checkTableGenericCompat(target, candidate Type, supers SuperTypeLookup, depth int) CompatResult {
	keyT, valT := tableGenericParts(target)
	switch candidate.Kind {
	case KTableGeneric:
		keyC, valC := tableGenericParts(candidate)
		if checkCompat(keyT, keyC, supers, depth+1) != Compatible {
			return TypeNotMatch
		}
		return checkCompat(valT, valC, supers, depth+1)
	case KArray:
		// Array(B) fits table<any|integer, V> when V accepts B.
		if keyT.Kind == KAny || keyT.Kind == KInteger {
			return checkCompat(valT, *candidate.Elem, supers, depth+1)
		}
		return TypeNotMatch
	case KObject:
		for _, f := range candidate.Fields {
			if checkCompat(keyT, String(), supers, depth+1) != Compatible {
				return TypeNotMatch
			}
			if checkCompat(valT, f.Type, supers, depth+1) != Compatible {
				return TypeNotMatch
			}
		}
		return Compatible
	default:
		return TypeNotMatch
	}
}

func tableGenericParts(t Type) (key, value Type) {
	if len(t.Elems) == 1 {
		return Any(), t.Elems[0]
	}
	return t.Elems[0], t.Elems[1]
}
