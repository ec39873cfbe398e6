// Package extract turns source text into an ordered list of entities.
//
// Every language extractor implements the same two-method contract.
// Extract is total: it never raises across the extraction boundary,
// returning whatever partial entities it could recover on a parse
// failure. CanHandle reports whether a file belongs to it. The registry (registry.go) maps a file extension to
// its extractor; first match wins.
package extract

import (
	"strings"

	"github.com/arcbyte/codegraph/internal/entity"
)

// Extractor parses file text into entities for one language or family.
type Extractor interface {
	// Extract returns entities in source order. Lists inside an entity
	// may be empty but are never nil. Extract never panics across this
	// boundary; on parse failure it returns whatever partial entities
	// were recoverable, down to an empty slice.
	Extract(sourceText, filePath string) []entity.Entity
	// CanHandle reports whether filePath's extension belongs to this
	// extractor.
	CanHandle(filePath string) bool
	// Name identifies the extractor for diagnostics (e.g. "python-ast").
	Name() string
}

// dedupeLatestWins enforces the invariant that within a file,
// (entity_type, name) is unique; when two definitions collide the later
// one (by source order) wins and the earlier is dropped, while overall
// source order of the surviving entities is preserved.
func dedupeLatestWins(entities []entity.Entity) []entity.Entity {
	type key struct {
		kind entity.Kind
		name string
	}
	winnerIdx := make(map[key]int, len(entities))
	for i, e := range entities {
		winnerIdx[key{e.Type, e.Name}] = i
	}
	out := make([]entity.Entity, 0, len(winnerIdx))
	kept := make(map[key]bool, len(winnerIdx))
	for i, e := range entities {
		k := key{e.Type, e.Name}
		if winnerIdx[k] != i || kept[k] {
			continue
		}
		kept[k] = true
		out = append(out, e)
	}
	return out
}

// fillDefaults guarantees every list field is non-nil and hashes are
// computed, so extractors only need to set the fields meaningful to
// their language.
func fillDefaults(e *entity.Entity, filePath string) {
	e.FilePath = filePath
	if e.Calls == nil {
		e.Calls = []string{}
	}
	if e.Inherits == nil {
		e.Inherits = []string{}
	}
	if e.TypeRefs == nil {
		e.TypeRefs = []string{}
	}
	if e.Decorators == nil {
		e.Decorators = []string{}
	}
	if e.Imports == nil {
		e.Imports = []entity.Import{}
	}
	if e.Params == nil {
		e.Params = []string{}
	}
	if e.Confidence == "" {
		e.Confidence = entity.ConfidenceHigh
	}
	if e.LineEnd < e.LineStart {
		e.LineEnd = e.LineStart
	}
	e.RawText = normalizeRawText(e.RawText)
	e.ComputeHashes()
}

// normalizeRawText drops whole-line comments and per-line indentation
// from an entity's raw text so that comment- and reformatting-only
// edits hash identically. Statement text is untouched; inline trailing
// comments are left alone since a "#" or "//" mid-line may sit inside a
// string literal.
func normalizeRawText(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
			continue
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

// scopedName renders a method name under its class: "Outer.inner".
func scopedName(class, member string) string {
	if class == "" {
		return member
	}
	return class + "." + member
}
