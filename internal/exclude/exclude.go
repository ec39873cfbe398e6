// Package exclude decides which paths the cold-start project scan should
// never hand to the extractor registry: configured glob patterns plus
// auto-detected dependency directories (node_modules beside a
// package.json, target beside a Cargo.toml, and so on). Detection only
// uses file-existence checks, so a source directory that merely shares a
// name with a dependency directory is not excluded.
package exclude

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Matcher answers Skip for project-relative, forward-slash paths.
type Matcher struct {
	patterns []string
	autoDirs map[string]string // rel dir -> reason
}

// markerRules pairs a marker file with the sibling directories it proves
// are generated or vendored.
var markerRules = []struct {
	marker string
	dirs   []string
	reason string
}{
	{"package.json", []string{"node_modules", "dist", "build", ".next"}, "node project output"},
	{"Cargo.toml", []string{"target"}, "cargo build output"},
	{"go.mod", []string{"vendor"}, "go vendored deps"},
	{"pyproject.toml", []string{".venv", "venv", ".tox"}, "python environment"},
	{"setup.py", []string{".venv", "venv", ".tox"}, "python environment"},
}

// alwaysSkipDirs are excluded wherever they appear, no marker needed.
var alwaysSkipDirs = map[string]string{
	".git":        "version control",
	"__pycache__": "python bytecode cache",
	".codegraph":  "engine state",
}

// NewMatcher builds a Matcher for projectRoot from the configured glob
// patterns, then walks the tree once to auto-detect dependency
// directories at any depth.
func NewMatcher(projectRoot string, patterns []string) *Matcher {
	m := &Matcher{
		patterns: patterns,
		autoDirs: make(map[string]string),
	}
	m.detect(projectRoot)
	return m
}

func (m *Matcher) detect(projectRoot string) {
	_ = filepath.WalkDir(projectRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil || path == projectRoot {
			return nil
		}
		rel, relErr := filepath.Rel(projectRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !d.IsDir() {
			return nil
		}
		if reason, ok := alwaysSkipDirs[d.Name()]; ok {
			m.autoDirs[rel] = reason
			return filepath.SkipDir
		}
		// Already inside a detected dir: no need to descend further.
		if m.inAutoDir(rel) {
			return filepath.SkipDir
		}
		for _, rule := range markerRules {
			for _, dir := range rule.dirs {
				if d.Name() != dir {
					continue
				}
				marker := filepath.Join(filepath.Dir(path), rule.marker)
				if _, statErr := os.Stat(marker); statErr == nil {
					m.autoDirs[rel] = rule.reason
					return filepath.SkipDir
				}
			}
		}
		return nil
	})
}

func (m *Matcher) inAutoDir(rel string) bool {
	for dir := range m.autoDirs {
		if rel == dir || strings.HasPrefix(rel, dir+"/") {
			return true
		}
	}
	return false
}

// Skip reports whether relPath (project-relative, forward-slash) is
// excluded from scanning.
func (m *Matcher) Skip(relPath string) bool {
	if m.inAutoDir(relPath) {
		return true
	}
	for _, p := range m.patterns {
		if matchGlob(p, relPath) {
			return true
		}
	}
	return false
}

// Detected returns the auto-detected directories, sorted, for reporting.
func (m *Matcher) Detected() []string {
	out := make([]string, 0, len(m.autoDirs))
	for dir := range m.autoDirs {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}

// matchGlob matches a forward-slash glob against a forward-slash path,
// with "**" spanning any number of path segments and "*"/"?" confined to
// one segment (filepath.Match semantics per segment).
func matchGlob(pattern, path string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(path, "/"))
}

func matchSegments(pat, segs []string) bool {
	if len(pat) == 0 {
		return len(segs) == 0
	}
	if pat[0] == "**" {
		// "**" matches zero or more leading segments.
		for i := 0; i <= len(segs); i++ {
			if matchSegments(pat[1:], segs[i:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	ok, err := filepath.Match(pat[0], segs[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pat[1:], segs[1:])
}
