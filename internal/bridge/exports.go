package bridge

import (
	"regexp"
	"strings"

	"github.com/arcbyte/codegraph/internal/entity"
)

var quotedStringRe = regexp.MustCompile(`'([^'\\]*)'|"([^"\\]*)"`)

// computeExports derives the exported-symbol set for a freshly extracted
// file: an explicit `__all__` list if one was
// extracted as a variable entity, otherwise every top-level function or
// class definition (methods, which carry a "." in their scoped name, are
// never exports in their own right). The second return distinguishes the
// explicit-marker case: only explicitly published names shield a symbol
// from dead-code reporting, while the fallback set still drives
// propagation.
func computeExports(entities []entity.Entity) (map[string]bool, bool) {
	for _, e := range entities {
		if e.Type == entity.KindVariable && bareName(e.Name) == "__all__" {
			if names := extractAllNames(e.RawText); len(names) > 0 {
				return names, true
			}
		}
	}

	out := make(map[string]bool)
	for _, e := range entities {
		if (e.Type == entity.KindFunction || e.Type == entity.KindClass) && !strings.Contains(e.Name, ".") {
			out[e.Name] = true
		}
	}
	return out, false
}

// hasExplicitExportMarker reports whether a snapshot entity list carries
// an `__all__` marker, used to restore the explicit flag after a process
// restart (raw text is not persisted, so the name presence is the signal).
func hasExplicitExportMarker(entities []entity.Entity) bool {
	for _, e := range entities {
		if e.Type == entity.KindVariable && bareName(e.Name) == "__all__" {
			return true
		}
	}
	return false
}

// extractAllNames pulls every quoted string literal out of an `__all__`
// assignment's raw text; good enough for the common `__all__ = ["a", "b"]`
// shape without needing a second AST pass.
func extractAllNames(rawText string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range quotedStringRe.FindAllStringSubmatch(rawText, -1) {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if name != "" {
			out[name] = true
		}
	}
	return out
}

// symmetricDiffNames returns every name present in exactly one of oldSet,
// newSet: the set of exported names whose status changed, driving which
// unresolved/low-confidence edges are worth re-attempting.
func symmetricDiffNames(oldSet, newSet map[string]bool) []string {
	var out []string
	for n := range oldSet {
		if !newSet[n] {
			out = append(out, n)
		}
	}
	for n := range newSet {
		if !oldSet[n] {
			out = append(out, n)
		}
	}
	return out
}
