package diagnostics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/emmylua-go/analyzer/internal/analyzer"
	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/config"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/index"
	"github.com/emmylua-go/analyzer/internal/parser"
)

// check runs the full pipeline then every checker over one in-memory
// source file, mirroring analyzer's own analyzeSource-as-shared-harness
// convention (internal/analyzer/infer_test.go) one package over.
func check(t *testing.T, src string) ([]Diagnostic, config.Config) {
	t.Helper()
	db := index.NewDbIndex(nil)
	f := db.Files.Intern("main.lua")
	chunk, errs := parser.ParseChunk("main.lua", src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	cfg := config.Default()
	a := analyzer.New(db, cfg, nil)
	a.Analyze(map[ids.FileID]*ast.Chunk{f: chunk}, []ids.FileID{f})
	return Run(db, cfg, f, chunk), cfg
}

func codesOf(diags []Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = string(d.Code)
	}
	return out
}

// TestMissingParameterScenario pins spec.md §8 scenario S6: `f()` with a
// required, non-optional parameter flags MissingParameter.
func TestMissingParameterScenario(t *testing.T) {
	diags, _ := check(t, `
---@param x integer
local function f(x)
	return x
end

f()
`)
	var found bool
	for _, d := range diags {
		if d.Code == CodeMissingParameter {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a MissingParameter diagnostic, got %v", codesOf(diags))
	}
}

// TestMissingParameterAllowsVarargTail ensures a call forwarding `...` as
// its last argument is never flagged, matching the original's carve-out.
func TestMissingParameterAllowsVarargTail(t *testing.T) {
	diags, _ := check(t, `
---@param x integer
---@param y integer
local function f(x, y)
	return x
end

local function g(...)
	return f(...)
end
`)
	for _, d := range diags {
		if d.Code == CodeMissingParameter {
			t.Errorf("unexpected MissingParameter for a `...`-forwarded call: %v", d.Message)
		}
	}
}

// TestParamTypeCheckScenario pins spec.md §8 scenario S2: `cmd(1)` against
// a string-typed parameter flags ParamTypeNotMatch.
func TestParamTypeCheckScenario(t *testing.T) {
	diags, _ := check(t, `
---@param name string
local function cmd(name)
	return name
end

cmd(1)
`)
	var found bool
	for _, d := range diags {
		if d.Code == CodeParamTypeNotMatch {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a ParamTypeNotMatch diagnostic, got %v", codesOf(diags))
	}
}

func TestParamTypeCheckAcceptsMatchingType(t *testing.T) {
	diags, _ := check(t, `
---@param name string
local function cmd(name)
	return name
end

cmd("hello")
`)
	for _, d := range diags {
		if d.Code == CodeParamTypeNotMatch {
			t.Errorf("unexpected ParamTypeNotMatch for a matching call: %v", d.Message)
		}
	}
}

func TestUndefinedGlobalFlagsReadOnlyName(t *testing.T) {
	diags, _ := check(t, `
print(totallyUndefinedName)
`)
	var found bool
	for _, d := range diags {
		if d.Code == CodeUndefinedGlobal {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an UndefinedGlobal diagnostic, got %v", codesOf(diags))
	}
}

func TestUndefinedGlobalAllowsAssignedGlobal(t *testing.T) {
	diags, _ := check(t, `
MyGlobal = 1
print(MyGlobal)
`)
	for _, d := range diags {
		if d.Code == CodeUndefinedGlobal {
			t.Errorf("unexpected UndefinedGlobal for an assigned global: %v", d.Message)
		}
	}
}

func TestUndefinedGlobalIgnoresLocals(t *testing.T) {
	diags, _ := check(t, `
local x = 1
print(x)
`)
	for _, d := range diags {
		if d.Code == CodeUndefinedGlobal {
			t.Errorf("unexpected UndefinedGlobal for a local: %v", d.Message)
		}
	}
}

func TestNeedCheckNilFlagsOptionalIndex(t *testing.T) {
	diags, _ := check(t, `
---@type {x: integer}?
local t = nil

return t.x
`)
	var found bool
	for _, d := range diags {
		if d.Code == CodeNeedCheckNil {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a NeedCheckNil diagnostic, got %v", codesOf(diags))
	}
}

// TestDiagnosticSuppressionDisablesCode pins spec.md §9: an
// `@diagnostic disable` comment suppresses its named code from that point
// on in the file.
func TestDiagnosticSuppressionDisablesCode(t *testing.T) {
	diags, _ := check(t, `
---@diagnostic disable: undefined-global
print(totallyUndefinedName)
`)
	for _, d := range diags {
		if d.Code == CodeUndefinedGlobal {
			t.Errorf("expected undefined-global to be suppressed, got %v", d.Message)
		}
	}
}

// TestDiagnosticEquality exercises go-cmp over the Diagnostic slice shape
// (SPEC_FULL.md §1.5), ignoring Range since the cmp is about the reported
// code/message/severity surface a consumer would assert on.
func TestDiagnosticEquality(t *testing.T) {
	diags, _ := check(t, `
---@param x integer
local function f(x)
	return x
end

f()
`)
	want := []Diagnostic{
		{Code: CodeMissingParameter, Severity: SeverityError, Message: "expected 1 but founded 0.\nmissing parameter: x"},
	}
	opts := cmpopts.IgnoreFields(Diagnostic{}, "Range")
	if diff := cmp.Diff(want, diags, opts); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}
