package index

import (
	"testing"

	"github.com/emmylua-go/analyzer/internal/ids"
)

func TestSignatureIndexDeclareIsIdempotent(t *testing.T) {
	x := NewSignatureIndex()
	id := ids.SignatureID{FileID: 1, Position: 10}

	info := x.Declare(id)
	info.Params = append(info.Params, SignatureParam{Name: "a"})
	info.IsAsync = true

	// A later doc-tag contribution (e.g. a second @param line) must mutate
	// the same entry rather than creating a new one.
	again := x.Declare(id)
	again.Params = append(again.Params, SignatureParam{Name: "b"})

	got, ok := x.Get(id)
	if !ok {
		t.Fatalf("expected signature to be present")
	}
	if got != info {
		t.Fatalf("Declare must return the same entry across calls for the same id")
	}
	if len(got.Params) != 2 {
		t.Fatalf("expected 2 accumulated params, got %d", len(got.Params))
	}
	if !got.IsAsync {
		t.Fatalf("expected earlier mutation to survive")
	}
}

func TestSignatureIndexRemove(t *testing.T) {
	x := NewSignatureIndex()
	f1, f2 := ids.FileID(1), ids.FileID(2)
	a := ids.SignatureID{FileID: f1, Position: 1}
	b := ids.SignatureID{FileID: f2, Position: 1}

	x.Declare(a)
	x.Declare(b)

	x.Remove(f1)

	if _, ok := x.Get(a); ok {
		t.Fatalf("expected signature from f1 to be removed")
	}
	if _, ok := x.Get(b); !ok {
		t.Fatalf("expected signature from f2 to survive")
	}
}
