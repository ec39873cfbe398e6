package extract

import (
	"regexp"
	"strings"

	"github.com/arcbyte/codegraph/internal/entity"
)

var rustDenySet = map[string]bool{
	"if": true, "for": true, "while": true, "match": true, "loop": true,
	"println": true, "print": true, "format": true, "vec": true,
	"Some": true, "None": true, "Ok": true, "Err": true, "unwrap": true,
}

var (
	rustFnRe     = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+([A-Za-z_][A-Za-z0-9_]*)\s*(?:<[^>]*>)?\s*\(([^)]*)\)`)
	rustStructRe = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+([A-Za-z_][A-Za-z0-9_]*)`)
	rustEnumRe   = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+([A-Za-z_][A-Za-z0-9_]*)`)
	rustTraitRe  = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?trait\s+([A-Za-z_][A-Za-z0-9_]*)`)
	rustImplRe   = regexp.MustCompile(`(?m)^\s*impl(?:<[^>]*>)?\s+(?:([A-Za-z_][A-Za-z0-9_:]*)\s+for\s+)?([A-Za-z_][A-Za-z0-9_:]*)`)
	rustUseRe    = regexp.MustCompile(`(?m)^\s*(?:pub\s+)?use\s+([A-Za-z0-9_:{}*,\s]+?);`)
	rustDeriveRe = regexp.MustCompile(`(?m)^\s*#\[derive\(([^)]*)\)\]`)
)

// RustExtractor is a regex-based fallback. Functions inside `impl`
// blocks are scoped under the implementing type's name, giving
// inherent-method and trait-method bodies a Type.method identity
// comparable to a class method in other languages. Traits contribute
// Inherits edges via `impl Trait for Type`.
type RustExtractor struct{}

func NewRustExtractor() *RustExtractor { return &RustExtractor{} }

func (e *RustExtractor) Name() string { return "rust-regex" }

func (e *RustExtractor) CanHandle(filePath string) bool {
	return strings.HasSuffix(filePath, ".rs")
}

func (e *RustExtractor) Extract(sourceText, filePath string) []entity.Entity {
	li := newLineIndex(sourceText)
	var out []entity.Entity

	out = append(out, extractRustUses(sourceText, li)...)
	out = append(out, extractRustTypes(sourceText, li, rustStructRe, "struct")...)
	out = append(out, extractRustTypes(sourceText, li, rustEnumRe, "enum")...)
	out = append(out, extractRustTraits(sourceText, li)...)
	out = append(out, extractRustImpls(sourceText, li)...)
	out = append(out, extractFreeRustFns(sourceText, li)...)

	deduped := dedupeLatestWins(out)
	for i := range deduped {
		fillDefaults(&deduped[i], filePath)
	}
	return deduped
}

func extractRustUses(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range rustUseRe.FindAllStringSubmatchIndex(src, -1) {
		path := groupText(src, m, 1)
		line := li.lineAt(m[0])
		for _, sym := range rustUsePathSymbols(path) {
			out = append(out, entity.Entity{
				Type: entity.KindImport, Name: sym, LineStart: line, LineEnd: line,
				RawText: src[m[0]:m[1]], Imports: []entity.Import{{Module: rustUseModule(path), Symbol: sym}},
			})
		}
	}
	return out
}

func rustUseModule(path string) string {
	path = strings.TrimSpace(path)
	idx := strings.LastIndex(path, "::")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func rustUsePathSymbols(path string) []string {
	path = strings.TrimSpace(path)
	if strings.Contains(path, "{") {
		start := strings.Index(path, "{")
		end := strings.LastIndex(path, "}")
		if start >= 0 && end > start {
			var out []string
			for _, part := range strings.Split(path[start+1:end], ",") {
				part = strings.TrimSpace(part)
				if part != "" {
					out = append(out, lastSegment(part))
				}
			}
			return out
		}
	}
	return []string{lastSegment(path)}
}

func lastSegment(path string) string {
	idx := strings.LastIndex(path, "::")
	if idx < 0 {
		return path
	}
	return path[idx+2:]
}

func extractRustTypes(src string, li *lineIndex, re *regexp.Regexp, kind string) []entity.Entity {
	var out []entity.Entity
	for _, m := range re.FindAllStringSubmatchIndex(src, -1) {
		name := groupText(src, m, 1)
		if name == "" {
			continue
		}
		startLine := li.lineAt(m[0])
		bodyEnd := braceBlockEnd(src, m[1])
		if bodyEnd == len(src) && !strings.Contains(src[m[1]:min(m[1]+2, len(src))], "{") {
			bodyEnd = m[1] // tuple struct / unit struct with no body
		}
		endLine := li.lineAt(max(bodyEnd-1, m[0]))
		out = append(out, entity.Entity{
			Type: entity.KindClass, Name: name, LineStart: startLine, LineEnd: endLine,
			RawText:    src[m[0]:min(bodyEnd, len(src))],
			Decorators: rustDerivesBefore(src, li, m[0]),
		})
	}
	return out
}

func rustDerivesBefore(src string, li *lineIndex, pos int) []string {
	line := li.lineAt(pos)
	start := li.offsets[max(0, line-4)]
	preceding := src[start:pos]
	var out []string
	for _, m := range rustDeriveRe.FindAllStringSubmatch(preceding, -1) {
		for _, d := range strings.Split(m[1], ",") {
			d = strings.TrimSpace(d)
			if d != "" {
				out = append(out, d)
			}
		}
	}
	return out
}

func extractRustTraits(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range rustTraitRe.FindAllStringSubmatchIndex(src, -1) {
		name := groupText(src, m, 1)
		if name == "" {
			continue
		}
		startLine := li.lineAt(m[0])
		bodyEnd := braceBlockEnd(src, m[1])
		endLine := li.lineAt(bodyEnd - 1)
		out = append(out, entity.Entity{
			Type: entity.KindClass, Name: name, LineStart: startLine, LineEnd: endLine,
			RawText: src[m[0]:min(bodyEnd, len(src))],
		})
	}
	return out
}

func extractRustImpls(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range rustImplRe.FindAllStringSubmatchIndex(src, -1) {
		traitName := groupText(src, m, 1)
		typeName := groupText(src, m, 2)
		if typeName == "" {
			continue
		}
		bodyEnd := braceBlockEnd(src, m[1])
		body := src[m[1]:bodyEnd]
		startLine := li.lineAt(m[0])
		bodyLineOffset := startLine - 1

		for _, mm := range rustFnRe.FindAllStringSubmatchIndex(body, -1) {
			name := groupText(body, mm, 1)
			if name == "" {
				continue
			}
			methodEnd := braceBlockEnd(body, mm[1])
			mStart := bodyLineOffset + countNewlines(body[:mm[0]]) + 1
			mEnd := bodyLineOffset + countNewlines(body[:methodEnd]) + 1
			fn := entity.Entity{
				Type: entity.KindFunction, Name: scopedName(typeName, name),
				LineStart: mStart, LineEnd: mEnd,
				RawText: body[mm[0]:min(methodEnd, len(body))],
				Params:  splitParams(groupText(body, mm, 2)),
				Calls:   extractCallsGeneric(body[mm[0]:min(methodEnd, len(body))], rustDenySet),
			}
			if traitName != "" {
				fn.Inherits = []string{traitName}
			}
			out = append(out, fn)
		}
	}
	return out
}

func extractFreeRustFns(src string, li *lineIndex) []entity.Entity {
	// Skip matches already nested inside an impl block to avoid
	// double-emitting impl methods as free functions: rerun over the
	// source with impl bodies blanked out.
	masked := []byte(src)
	for _, m := range rustImplRe.FindAllStringSubmatchIndex(src, -1) {
		end := braceBlockEnd(src, m[1])
		for i := m[1]; i < end && i < len(masked); i++ {
			if masked[i] != '\n' {
				masked[i] = ' '
			}
		}
	}
	return extractTopLevelFunctions(string(masked), li, rustFnRe, rustDenySet)
}
