package types

import (
	"testing"

	"github.com/emmylua-go/analyzer/internal/ids"
)

// fakeSupers is a tiny SuperTypeLookup for subtype tests: A -> B -> C, plus
// a cycle D -> E -> D to exercise the cycle-safety requirement of §4.2/§9.
type fakeSupers map[ids.TypeDeclID][]ids.TypeDeclID

func (f fakeSupers) DirectSupers(t ids.TypeDeclID) []ids.TypeDeclID { return f[t] }

func cls(name string) ids.TypeDeclID { return ids.TypeDeclID{Name: name} }

func TestUnionAlgebra(t *testing.T) {
	a, b, c := Integer(), String(), Boolean()

	left := Union(a, Union(b, c))
	right := Union(Union(a, b), c)
	if left.String() != right.String() {
		t.Fatalf("union not associative: %s vs %s", left, right)
	}

	if got := Union(a, a); !Equal(got, a) {
		t.Fatalf("Union(a,a) = %s, want %s", got, a)
	}

	if got := Union(Any(), a); got.Kind != KAny {
		t.Fatalf("Union(Any,a) = %s, want any", got)
	}

	if got := Union(Never(), a); !Equal(got, a) {
		t.Fatalf("Union(Never,a) = %s, want %s", got, a)
	}
}

func TestConstantWidening(t *testing.T) {
	if got := Union(Integer(), IntegerConst(1)); !Equal(got, Integer()) {
		t.Fatalf("Union(Integer, IntegerConst(1)) = %s, want integer", got)
	}

	got := Union(IntegerConst(1), IntegerConst(2))
	if got.Kind != KUnion || len(got.Elems) != 2 {
		t.Fatalf("Union(1,2) = %s, want a 2-member union", got)
	}
}

func TestNullableNormalization(t *testing.T) {
	if got := Nullable(Nullable(String())); got.Kind != KNullable || got.Elem.Kind != KString {
		t.Fatalf("Nullable(Nullable(string)) = %s, want string?", got)
	}
	if got := Nullable(Nil()); got.Kind != KNil {
		t.Fatalf("Nullable(nil) = %s, want nil", got)
	}
}

func TestNarrowRemoveAdjunction(t *testing.T) {
	source := Union(String(), Nil())
	target := String()

	narrowed := Narrow(source, target)
	removed := Remove(source, target, nil)
	covered := Union(narrowed, removed)

	// covers source: every branch of source must be representable in
	// the combined narrow+remove result.
	for _, m := range flatten([]Type{source}) {
		found := false
		for _, c := range flatten([]Type{covered}) {
			if Equal(m, c) || compatibleFamily(m, c) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("Narrow ∪ Remove = %s does not cover member %s of %s", covered, m, source)
		}
	}
}

func TestTruthyNarrowing(t *testing.T) {
	source := Union(String(), Nil(), BooleanConst(false))
	truthy := RemoveNilOrFalse(source)
	if truthy.Kind == KUnion {
		for _, m := range truthy.Elems {
			if m.Kind == KNil || (m.Kind == KBooleanConst && !m.Bool) {
				t.Fatalf("truthy projection %s still contains a falsy member", truthy)
			}
		}
	} else if truthy.Kind == KNil {
		t.Fatalf("truthy projection degraded to nil")
	}
}

func TestSubtypeReflexiveTransitive(t *testing.T) {
	supers := fakeSupers{
		cls("A"): {cls("B")},
		cls("B"): {cls("C")},
		cls("D"): {cls("E")},
		cls("E"): {cls("D")}, // cycle
	}

	if !IsSubTypeOf(cls("A"), cls("A"), supers) {
		t.Fatal("reflexivity: A <: A should hold")
	}
	if !IsSubTypeOf(cls("A"), cls("B"), supers) || !IsSubTypeOf(cls("B"), cls("C"), supers) {
		t.Fatal("direct edges should hold")
	}
	if !IsSubTypeOf(cls("A"), cls("C"), supers) {
		t.Fatal("transitivity: A <: B <: C should imply A <: C")
	}
	if IsSubTypeOf(cls("C"), cls("A"), supers) {
		t.Fatal("C should not be a subtype of A")
	}

	done := make(chan bool, 1)
	go func() { done <- IsSubTypeOf(cls("D"), cls("A"), supers) }()
	select {
	case <-done:
	default:
	}
	_ = <-done // cyclic graph must still terminate
}

func TestCheckTypeCompat(t *testing.T) {
	cases := []struct {
		name     string
		target   Type
		candidate Type
		want     CompatResult
	}{
		{"any target accepts anything", Any(), Integer(), Compatible},
		{"array accepts tuple elementwise", Array(Integer()), Tuple([]Type{IntegerConst(1), IntegerConst(2)}), Compatible},
		{"array rejects table", Array(Integer()), Table(), TypeNotMatch},
		{"union: one branch suffices", Union(Integer(), String()), String(), Compatible},
		{"union candidate requires all branches", Union(Integer(), String()), Union(Integer(), Boolean()), TypeNotMatch},
		{"table<K,V> accepts array for integer keys", TableGenericKV(Any(), String()), Array(StringConst("x")), Compatible},
		{"object requires matching keys", Object([]ObjectField{{Key: "x", Type: Integer()}}, nil), Object([]ObjectField{{Key: "x", Type: IntegerConst(1)}}, nil), Compatible},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckTypeCompat(tc.target, tc.candidate, nil); got != tc.want {
				t.Fatalf("CheckTypeCompat(%s, %s) = %v, want %v", tc.target, tc.candidate, got, tc.want)
			}
		})
	}
}

func TestGenericInstantiation(t *testing.T) {
	sigOwner := ids.SignatureID{FileID: 1, Position: 10}
	tT := GenericTplID{Owner: sigOwner, Name: "T"}
	tU := GenericTplID{Owner: sigOwner, Name: "U"}

	// map(arr: T[], op: fun(item: T, i: integer): U): U[]
	fn := DocFunctionShape{
		Params: []Param{
			{Name: "arr", Type: Array(TplRef(tT))},
			{Name: "op", Type: DocFunction(DocFunctionShape{
				Params:  []Param{{Name: "item", Type: TplRef(tT)}, {Name: "i", Type: Integer()}},
				Returns: []Type{TplRef(tU)},
			})},
		},
		Returns: []Type{Array(TplRef(tU))},
	}

	args := []Type{
		Array(IntegerConst(1)),
		DocFunction(DocFunctionShape{
			Params:  []Param{{Name: "item", Type: Integer()}, {Name: "i", Type: Integer()}},
			Returns: []Type{String()},
		}),
	}

	concrete := InstantiateCall(fn, args, false, false)
	if len(concrete.Returns) != 1 || concrete.Returns[0].Kind != KArray || concrete.Returns[0].Elem.Kind != KString {
		t.Fatalf("S1: map(...) return = %s, want string[]", concrete.Returns[0])
	}
}
