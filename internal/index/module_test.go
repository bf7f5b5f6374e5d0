package index

import (
	"testing"

	"github.com/emmylua-go/analyzer/internal/ids"
)

func TestModuleIndexAnalysisOrder(t *testing.T) {
	x := NewModuleIndex()
	a, b, c := ids.FileID(1), ids.FileID(2), ids.FileID(3)
	// c requires b, b requires a: expected order a, b, c.
	x.Register(&ModuleInfo{File: a, Path: "a.lua", ModuleName: "a"})
	x.Register(&ModuleInfo{File: b, Path: "b.lua", ModuleName: "b", Requires: []string{"a"}})
	x.Register(&ModuleInfo{File: c, Path: "c.lua", ModuleName: "c", Requires: []string{"b"}})

	order := x.AnalysisOrder([]ids.FileID{c, b, a})
	want := []ids.FileID{a, b, c}
	for i, f := range want {
		if order[i] != f {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestModuleIndexAnalysisOrderCycleIsStable(t *testing.T) {
	x := NewModuleIndex()
	a, b := ids.FileID(1), ids.FileID(2)
	x.Register(&ModuleInfo{File: a, Path: "a.lua", ModuleName: "a", Requires: []string{"b"}})
	x.Register(&ModuleInfo{File: b, Path: "b.lua", ModuleName: "b", Requires: []string{"a"}})

	order := x.AnalysisOrder([]ids.FileID{a, b})
	if len(order) != 2 || order[0] != a || order[1] != b {
		t.Fatalf("expected cyclic pair to fall back to input order, got %v", order)
	}
}

func TestModuleIndexRemove(t *testing.T) {
	x := NewModuleIndex()
	f := ids.FileID(1)
	x.Register(&ModuleInfo{File: f, Path: "a.lua", ModuleName: "a"})
	x.Remove(f)
	if _, ok := x.Get(f); ok {
		t.Fatalf("expected module info removed")
	}
	if _, ok := x.Resolve("a"); ok {
		t.Fatalf("expected name resolution removed")
	}
}
