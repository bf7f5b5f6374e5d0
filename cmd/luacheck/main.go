// Command luacheck is a thin demo CLI driving the analysis pipeline over
// one or more Lua files and printing whatever diagnostics the checker
// layer finds (SPEC_FULL.md §2/§3). Workspace discovery and config-file
// merging stay out of scope — this only wires the flag surface the
// domain-stack table commits to (`--config`, `--json`) onto the core.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/emmylua-go/analyzer/internal/analyzer"
	"github.com/emmylua-go/analyzer/internal/ast"
	"github.com/emmylua-go/analyzer/internal/config"
	"github.com/emmylua-go/analyzer/internal/diagnostics"
	"github.com/emmylua-go/analyzer/internal/ids"
	"github.com/emmylua-go/analyzer/internal/index"
	"github.com/emmylua-go/analyzer/internal/parser"
)

type options struct {
	configPath string
	jsonOutput bool
}

func main() {
	opts := new(options)
	root := &cobra.Command{
		Use:           "luacheck [files...]",
		Short:         "run the analyzer's checkers over a set of Lua files",
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	flags := root.Flags()
	var _ *pflag.FlagSet = flags // Flags() is a *pflag.FlagSet; cobra wraps pflag for its flag surface.
	flags.StringVar(&opts.configPath, "config", "", "path to a .luarc.jsonc-shaped HuJSON config file")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print diagnostics as JSON instead of text")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type fileDiagnostic struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Code    string `json:"code"`
	Severity string `json:"severity"`
	Message string `json:"message"`
}

func run(cmd *cobra.Command, paths []string, opts *options) error {
	cfg := config.Default()
	if opts.configPath != "" {
		data, err := os.ReadFile(opts.configPath)
		if err != nil {
			return fmt.Errorf("luacheck: read config: %w", err)
		}
		cfg, err = config.ParseHuJSON(data)
		if err != nil {
			return fmt.Errorf("luacheck: parse config: %w", err)
		}
	}

	db := index.NewDbIndex(nil)
	chunks := make(map[ids.FileID]*ast.Chunk, len(paths))
	sources := make(map[ids.FileID]string, len(paths))
	names := make(map[ids.FileID]string, len(paths))
	var order []ids.FileID

	for _, p := range paths {
		src, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("luacheck: read %s: %w", p, err)
		}
		chunk, errs := parser.ParseChunk(p, string(src))
		if len(errs) != 0 {
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "%s: %v\n", p, e)
			}
			continue
		}
		f := db.Files.Intern(p)
		chunks[f] = chunk
		sources[f] = string(src)
		names[f] = p
		order = append(order, f)
	}

	a := analyzer.New(db, cfg, nil)
	a.Analyze(chunks, order)

	var found []fileDiagnostic
	for _, f := range order {
		for _, d := range diagnostics.Run(db, cfg, f, chunks[f]) {
			line, col := lineCol(sources[f], d.Range.Start)
			found = append(found, fileDiagnostic{
				File: names[f], Line: line, Column: col,
				Code: d.Code.String(), Severity: d.Severity.String(), Message: d.Message,
			})
		}
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(found)
	}

	colorize := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	out := cmd.OutOrStdout()
	for _, d := range found {
		if colorize {
			fmt.Fprintf(out, "%s:%d:%d: \x1b[31m%s\x1b[0m [%s] %s\n", d.File, d.Line, d.Column, d.Severity, d.Code, d.Message)
		} else {
			fmt.Fprintf(out, "%s:%d:%d: %s [%s] %s\n", d.File, d.Line, d.Column, d.Severity, d.Code, d.Message)
		}
	}
	if len(found) > 0 {
		return fmt.Errorf("luacheck: %d diagnostic(s)", len(found))
	}
	return nil
}

// lineCol converts a byte offset into 1-based line/column, the minimal
// substitute for a document-position index the demo CLI needs but the
// core itself never does (it works exclusively in byte offsets, §6).
func lineCol(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	line = 1 + strings.Count(src[:offset], "\n")
	lastNL := strings.LastIndexByte(src[:offset], '\n')
	col = offset - lastNL
	return line, col
}
