// Package config loads per-project settings from .beanprops.yaml.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the per-project config file in the project root.
const FileName = ".beanprops.yaml"

// defaultSourceRoots are tried in order; the first existing ones are scanned.
var defaultSourceRoots = []string{"src/main/java", "src/test/java", "src"}

// ProjectConfig holds user-overridable settings for one project.
type ProjectConfig struct {
	// SourceRoots are directories (relative to the project root) whose
	// package structure starts at the directory itself.
	// Default: src/main/java, src/test/java, src, falling back to the root.
	SourceRoots []string `yaml:"source_roots"`

	// Ignore are extra directory names or globs skipped during discovery.
	Ignore []string `yaml:"ignore"`

	// FluentSetters recognizes set<X>(v) methods returning their own type.
	// Default: true.
	FluentSetters *bool `yaml:"fluent_setters"`

	// Catalogs are YAML binary type catalogs imported when the project is registered.
	Catalogs []string `yaml:"catalogs"`

	// IgnoredTypes are added to the built-in set of types never resolved as beans.
	IgnoredTypes []string `yaml:"ignored_types"`
}

// DefaultConfig returns the default project configuration.
func DefaultConfig() *ProjectConfig {
	return &ProjectConfig{}
}

// Load reads .beanprops.yaml from the given directory.
// Returns the default config if the file doesn't exist or is invalid.
func Load(dir string) *ProjectConfig {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig()
	}

	return cfg
}

// EffectiveFluentSetters returns the configured fluent setter setting,
// or the default (true) if not set.
func (c *ProjectConfig) EffectiveFluentSetters() bool {
	if c.FluentSetters != nil {
		return *c.FluentSetters
	}
	return true
}

// EffectiveSourceRoots returns the configured source roots that exist under
// root, or the existing default roots, or "." when none exist.
func (c *ProjectConfig) EffectiveSourceRoots(root string) []string {
	candidates := c.SourceRoots
	if len(candidates) == 0 {
		candidates = defaultSourceRoots
	}
	var roots []string
	for _, r := range candidates {
		if info, err := os.Stat(filepath.Join(root, r)); err == nil && info.IsDir() {
			roots = append(roots, filepath.Clean(r))
		}
	}
	if len(roots) == 0 {
		return []string{"."}
	}
	return nestedLast(roots)
}

// CatalogPaths returns catalog paths resolved against root.
func (c *ProjectConfig) CatalogPaths(root string) []string {
	out := make([]string, 0, len(c.Catalogs))
	for _, p := range c.Catalogs {
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		out = append(out, p)
	}
	return out
}

// nestedLast drops roots that contain another root: with src and src/main/java
// both present only src/main/java is kept, since it carries the package structure.
func nestedLast(roots []string) []string {
	var out []string
	for _, r := range roots {
		shadowed := false
		for _, other := range roots {
			if other != r && isWithin(r, other) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			out = append(out, r)
		}
	}
	return out
}

// isWithin reports whether parent strictly contains child.
func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	return err == nil && rel != "." && rel != ".." && !filepath.IsAbs(rel) && !startsWithDotDot(rel)
}

func startsWithDotDot(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
