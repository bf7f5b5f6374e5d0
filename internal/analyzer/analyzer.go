// Package analyzer implements the compilation pipeline (spec.md §4.1): the
// ordered module/decl/doc/flow/lua analysis passes over a workspace
// partition's files plus the unresolved-work queue that drives them to a
// fixed point. Mirrors the teacher's (funxy) multi-pass walker
// (analyzer.go's ModeNaming/Headers/Instances/Bodies passes over
// orderModuleFiles) generalized from four fixed passes to the six phases
// spec.md names, plus a re-entrant resolution pass the teacher has no
// equivalent of.
package analyzer

import (
	"reflect"

	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/config"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/index"
)

// Analyzer runs the pipeline against one DbIndex. It is not safe for
// concurrent use (spec.md §5: "single-threaded within an analysis pass").
type Analyzer struct {
	db  *index.DbIndex
	cfg config.Config
	log hclog.Logger

	// caches bounds the number of per-file InferCaches held in memory at
	// once; a file's cache is discarded outright once evicted (§4.3's
	// "MUST be discarded when the file's syntax changes" — eviction here
	// additionally bounds steady-state memory for workspaces too large to
	// keep every file's cache live).
	caches *lru.Cache[ids.FileID, *InferCache]

	// resolved records, per file, the decl each NameExpr/IndexExpr
	// use-site resolves to. It is analyzer-local scratch state (not a
	// persisted index) rebuilt by decl analyze every Analyze call, the
	// same way the teacher's walker keeps no symbol resolution beyond one
	// AnalyzeBodies pass.
	resolved map[ids.FileID]map[ast.SyntaxID]ids.SemanticDeclID
}

// New builds an Analyzer over db. A nil logger gets hclog's no-op logger
// and a zero config gets the spec.md §6 default (Lua 5.4, `require`).
func New(db *index.DbIndex, cfg config.Config, log hclog.Logger) *Analyzer {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if reflect.DeepEqual(cfg, config.Config{}) {
		cfg = config.Default()
	}
	caches, _ := lru.New[ids.FileID, *InferCache](256)
	return &Analyzer{
		db:       db,
		cfg:      cfg,
		log:      log.Named("analyzer"),
		caches:   caches,
		resolved: make(map[ids.FileID]map[ast.SyntaxID]ids.SemanticDeclID),
	}
}

// Analyze runs every phase over files in the fixed order spec.md §4.1
// requires, then drains the unresolved queue to a fixed point (§7: ≤
// min(queue_size, 10) passes, remaining reasons finalized to Any).
func (a *Analyzer) Analyze(chunks map[ids.FileID]*ast.Chunk, files []ids.FileID) {
	a.log.Debug("analyze starting", "files", len(files))

	for _, f := range files {
		a.analyzeModule(f, chunks[f])
	}

	order := a.db.Modules.AnalysisOrder(files)

	for _, f := range order {
		a.caches.Remove(f)
		a.resolved[f] = make(map[ast.SyntaxID]ids.SemanticDeclID)
		a.analyzeDecls(f, chunks[f])
	}

	var queue []UnresolvedWork
	for _, f := range order {
		queue = append(queue, a.analyzeDoc(f, chunks[f])...)
	}

	for _, f := range order {
		a.analyzeFlow(f, chunks[f])
	}

	for _, f := range order {
		queue = append(queue, a.analyzeLua(f, chunks[f])...)
	}

	a.drainUnresolved(queue)
	a.log.Debug("analyze finished", "files", len(files))
}

// Invalidate drops every piece of per-file scratch state analyze() left
// behind for f, ahead of a caller re-running the pipeline on a changed
// file. Index eviction itself is DbIndex.Remove's job (§4.7).
func (a *Analyzer) Invalidate(f ids.FileID) {
	a.caches.Remove(f)
	delete(a.resolved, f)
}

func (a *Analyzer) inferCache(f ids.FileID) *InferCache {
	if c, ok := a.caches.Get(f); ok {
		return c
	}
	c := newInferCache()
	a.caches.Add(f, c)
	return c
}
