// Package config defines the recognized analysis configuration surface
// (spec.md §6). Loading/merging configuration files across a workspace is
// an external collaborator's job; this package only fixes the shape and
// offers a single-document parse helper for tests and the demo CLI.
package config

import (
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"
)

// RuntimeVersion selects the Lua language level the parser and @version
// visibility checks target.
type RuntimeVersion string

const (
	Lua51 RuntimeVersion = "5.1"
	Lua52 RuntimeVersion = "5.2"
	Lua53 RuntimeVersion = "5.3"
	Lua54 RuntimeVersion = "5.4"
	LuaJIT RuntimeVersion = "JIT"
)

// ClassDefaultCall configures how a call on a class-shaped value (the
// common `Foo(...)` constructor idiom) is typed.
type ClassDefaultCall struct {
	FunctionName    string `yaml:"functionName,omitempty" json:"functionName,omitempty"`
	ForceNonColon   bool   `yaml:"forceNonColon,omitempty" json:"forceNonColon,omitempty"`
	ForceReturnSelf bool   `yaml:"forceReturnSelf,omitempty" json:"forceReturnSelf,omitempty"`
}

// RuntimeConfig is the `runtime.*` option family.
type RuntimeConfig struct {
	Version               RuntimeVersion   `yaml:"version,omitempty" json:"version,omitempty"`
	RequireLikeFunction    []string         `yaml:"requireLikeFunction,omitempty" json:"requireLikeFunction,omitempty"`
	ClassDefaultCall       ClassDefaultCall `yaml:"classDefaultCall,omitempty" json:"classDefaultCall,omitempty"`
}

// DiagnosticsConfig is the `diagnostics.*` option family.
type DiagnosticsConfig struct {
	Disable      []string          `yaml:"disable,omitempty" json:"disable,omitempty"`
	Enables      []string          `yaml:"enables,omitempty" json:"enables,omitempty"`
	Severity     map[string]string `yaml:"severity,omitempty" json:"severity,omitempty"`
	Globals      []string          `yaml:"globals,omitempty" json:"globals,omitempty"`
	GlobalsRegex []string          `yaml:"globalsRegex,omitempty" json:"globalsRegex,omitempty"`
}

// WorkspaceConfig is the `workspace.*` option family. File discovery over
// these fields is an external collaborator's responsibility; the core only
// carries the values through to query-time.
type WorkspaceConfig struct {
	Library      []string `yaml:"library,omitempty" json:"library,omitempty"`
	WorkspaceRoots []string `yaml:"workspaceRoots,omitempty" json:"workspaceRoots,omitempty"`
	IgnoreGlobs  []string `yaml:"ignoreGlobs,omitempty" json:"ignoreGlobs,omitempty"`
	IgnoreDir    []string `yaml:"ignoreDir,omitempty" json:"ignoreDir,omitempty"`
}

// DocConfig is the `doc.*` option family.
type DocConfig struct {
	KnownTags   []string `yaml:"knownTags,omitempty" json:"knownTags,omitempty"`
	PrivateName []string `yaml:"privateName,omitempty" json:"privateName,omitempty"`
}

// QueryLayerConfig bundles the `completion.*`/`inlay_hint.*`/`reformat.*`
// families. None of these affect the core; they pass through unread so a
// downstream consumer can round-trip a single config document.
type QueryLayerConfig struct {
	Completion map[string]any `yaml:"completion,omitempty" json:"completion,omitempty"`
	InlayHint  map[string]any `yaml:"inlayHint,omitempty" json:"inlayHint,omitempty"`
	Reformat   map[string]any `yaml:"reformat,omitempty" json:"reformat,omitempty"`
}

// Config is the full recognized option surface from spec.md §6.
type Config struct {
	Runtime     RuntimeConfig     `yaml:"runtime,omitempty" json:"runtime,omitempty"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics,omitempty" json:"diagnostics,omitempty"`
	Workspace   WorkspaceConfig   `yaml:"workspace,omitempty" json:"workspace,omitempty"`
	Doc         DocConfig         `yaml:"doc,omitempty" json:"doc,omitempty"`
	QueryLayer  QueryLayerConfig  `yaml:"-" json:"-"`
}

// Default returns the configuration the core assumes when no document was
// loaded: Lua 5.4, `require` as the only require-like function, default
// severities.
func Default() Config {
	return Config{
		Runtime: RuntimeConfig{
			Version:             Lua54,
			RequireLikeFunction: []string{"require"},
		},
		Doc: DocConfig{
			PrivateName: []string{"_*"},
		},
	}
}

// IsRequireLike reports whether name is configured as a require-like call.
func (c Config) IsRequireLike(name string) bool {
	for _, n := range c.Runtime.RequireLikeFunction {
		if n == name {
			return true
		}
	}
	return false
}

// ParseHuJSON parses a single `.luarc.jsonc`-shaped HuJSON (JSON-with-
// comments-and-trailing-commas) document into a Config. Workspace
// discovery and multi-file merging stay out of scope; this only
// demonstrates that one document round-trips.
func ParseHuJSON(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse HuJSON: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}
