package diagnostics

import (
	"sort"

	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/ids"
)

// toggle is one `@diagnostic disable`/`enable` occurrence, ordered by
// source position — the original's db_index/diagnostic/mod.rs
// DiagnosticAction stream for a file.
type toggle struct {
	pos     int
	disable bool     // true: disable, false: re-enable
	codes   []string // empty means "every code"
}

// nextLineRange is one `@diagnostic disable-next-line` occurrence: codes
// are suppressed only within the following statement's range.
type nextLineRange struct {
	r     ids.Range
	codes []string // empty means "every code"
}

// SuppressionIndex answers "is code suppressed at range r" via a
// sorted-position binary search over toggles, plus a linear scan of the
// (typically tiny) disable-next-line set, per spec.md §9 and the
// original's `is_file_diagnostic_code_disabled`.
type SuppressionIndex struct {
	toggles  []toggle
	nextLine []nextLineRange
}

// BuildSuppressionIndex collects every `@diagnostic` tag attached to any
// statement in chunk into a position-sorted suppression index.
func BuildSuppressionIndex(chunk *ast.Chunk) *SuppressionIndex {
	idx := &SuppressionIndex{}
	if chunk == nil {
		return idx
	}
	collectDiagnosticTags(chunk.Body, idx)
	sort.Slice(idx.toggles, func(i, j int) bool { return idx.toggles[i].pos < idx.toggles[j].pos })
	return idx
}

func collectDiagnosticTags(b *ast.Block, idx *SuppressionIndex) {
	if b == nil {
		return
	}
	for _, s := range b.Stats {
		if docs, r, ok := docsOf(s); ok {
			for _, d := range docs {
				for _, tag := range d.Tags {
					if tag.Kind != ast.TagDiagnostic {
						continue
					}
					idx.addTag(tag, r)
				}
			}
		}
		recurseIntoBlocks(s, idx)
	}
}

func (idx *SuppressionIndex) addTag(tag ast.DocTag, hostRange ids.Range) {
	switch tag.DiagnosticAction {
	case "disable":
		idx.toggles = append(idx.toggles, toggle{pos: tag.Range.Start, disable: true, codes: tag.DiagnosticCodes})
	case "enable":
		idx.toggles = append(idx.toggles, toggle{pos: tag.Range.Start, disable: false, codes: tag.DiagnosticCodes})
	case "disable-next-line":
		idx.nextLine = append(idx.nextLine, nextLineRange{r: hostRange, codes: tag.DiagnosticCodes})
	}
}

// docsOf returns the doc comments and range of s, for the statement kinds
// that can carry them (ast.DocAttach).
func docsOf(s ast.Statement) ([]*ast.DocComment, ids.Range, bool) {
	switch v := s.(type) {
	case *ast.LocalStat:
		return v.Docs, v.Range(), true
	case *ast.AssignStat:
		return v.Docs, v.Range(), true
	case *ast.FunctionStat:
		return v.Docs, v.Range(), true
	case *ast.LocalFunctionStat:
		return v.Docs, v.Range(), true
	default:
		return nil, ids.Range{}, false
	}
}

// recurseIntoBlocks walks every nested block a statement may own, so
// `@diagnostic` comments inside an `if`/`for`/`function` body are found
// too.
func recurseIntoBlocks(s ast.Statement, idx *SuppressionIndex) {
	switch v := s.(type) {
	case *ast.DoStat:
		collectDiagnosticTags(v.Body, idx)
	case *ast.WhileStat:
		collectDiagnosticTags(v.Body, idx)
	case *ast.RepeatStat:
		collectDiagnosticTags(v.Body, idx)
	case *ast.IfStat:
		for _, c := range v.Clauses {
			collectDiagnosticTags(c.Body, idx)
		}
	case *ast.NumericForStat:
		collectDiagnosticTags(v.Body, idx)
	case *ast.GenericForStat:
		collectDiagnosticTags(v.Body, idx)
	case *ast.FunctionStat:
		collectDiagnosticTags(v.Func.Body, idx)
	case *ast.LocalFunctionStat:
		collectDiagnosticTags(v.Func.Body, idx)
	}
}

func codeMatches(codes []string, code DiagnosticCode) bool {
	if len(codes) == 0 {
		return true
	}
	for _, c := range codes {
		if DiagnosticCode(c) == code {
			return true
		}
	}
	return false
}

// IsDisabled reports whether code is suppressed at r: either a
// disable-next-line range contains r, or the latest toggle at or before
// r.Start left code disabled.
func (idx *SuppressionIndex) IsDisabled(code DiagnosticCode, r ids.Range) bool {
	if idx == nil {
		return false
	}
	for _, nl := range idx.nextLine {
		if nl.r.Contains(r) && codeMatches(nl.codes, code) {
			return true
		}
	}

	// Binary search for the last toggle at pos <= r.Start.
	n := sort.Search(len(idx.toggles), func(i int) bool { return idx.toggles[i].pos > r.Start })
	for i := n - 1; i >= 0; i-- {
		t := idx.toggles[i]
		if !codeMatches(t.codes, code) {
			continue
		}
		return t.disable
	}
	return false
}
