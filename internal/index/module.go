package index

import "github.com/emmylua-go/analyzer/internal/ids"

// ModuleInfo is one file's registration in the module index (spec.md
// §4.1 "Module analyze: registers each file in the module index
// (path → module name)").
type ModuleInfo struct {
	File       ids.FileID
	Path       string
	ModuleName string
	Requires   []string // module names this file's require-like calls name
}

// ModuleIndex maps files to module identity and exposes the
// dependency-ordered file traversal later phases iterate in.
type ModuleIndex struct {
	byFile map[ids.FileID]*ModuleInfo
	byName map[string]ids.FileID
}

func NewModuleIndex() *ModuleIndex {
	return &ModuleIndex{byFile: make(map[ids.FileID]*ModuleInfo), byName: make(map[string]ids.FileID)}
}

func (x *ModuleIndex) Register(info *ModuleInfo) {
	x.byFile[info.File] = info
	if info.ModuleName != "" {
		x.byName[info.ModuleName] = info.File
	}
}

func (x *ModuleIndex) Get(file ids.FileID) (*ModuleInfo, bool) {
	m, ok := x.byFile[file]
	return m, ok
}

func (x *ModuleIndex) Resolve(moduleName string) (ids.FileID, bool) {
	f, ok := x.byName[moduleName]
	return f, ok
}

func (x *ModuleIndex) Remove(file ids.FileID) {
	info, ok := x.byFile[file]
	if !ok {
		return
	}
	if info.ModuleName != "" && x.byName[info.ModuleName] == file {
		delete(x.byName, info.ModuleName)
	}
	delete(x.byFile, file)
}

// AnalysisOrder returns files in the dependency order the module index's
// require graph implies: a topological sort, Kahn's algorithm with the
// ready queue processed in input order so independent files keep a stable
// relative order, and any cyclic remainder appended in input order rather
// than rejected (spec.md §4.1 "topological where possible; stable on
// cycles").
func (x *ModuleIndex) AnalysisOrder(files []ids.FileID) []ids.FileID {
	indeg := make(map[ids.FileID]int, len(files))
	deps := make(map[ids.FileID][]ids.FileID, len(files))
	present := make(map[ids.FileID]bool, len(files))
	for _, f := range files {
		present[f] = true
		indeg[f] = 0
	}
	for _, f := range files {
		info, ok := x.byFile[f]
		if !ok {
			continue
		}
		for _, req := range info.Requires {
			dep, ok := x.byName[req]
			if !ok || !present[dep] || dep == f {
				continue
			}
			deps[dep] = append(deps[dep], f)
			indeg[f]++
		}
	}

	var order []ids.FileID
	done := make(map[ids.FileID]bool, len(files))
	for len(order) < len(files) {
		progressed := false
		for _, f := range files {
			if done[f] || indeg[f] > 0 {
				continue
			}
			order = append(order, f)
			done[f] = true
			progressed = true
			for _, succ := range deps[f] {
				indeg[succ]--
			}
		}
		if !progressed {
			// Remaining files form a cycle (or depend only on cyclic
			// nodes): append whatever is left in input order.
			for _, f := range files {
				if !done[f] {
					order = append(order, f)
					done[f] = true
				}
			}
			break
		}
	}
	return order
}
