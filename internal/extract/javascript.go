package extract

import (
	"regexp"
	"strings"

	"github.com/arcbyte/codegraph/internal/entity"
)

var jsDenySet = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "typeof": true, "new": true, "function": true,
	"console": true, "require": true, "super": true,
}

var (
	jsFunctionRe   = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*\(([^)]*)\)`)
	jsArrowConstRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(?:async\s+)?\(([^)]*)\)\s*=>`)
	jsClassRe      = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)(?:\s+extends\s+([A-Za-z_$][A-Za-z0-9_.$]*))?`)
	jsMethodRe     = regexp.MustCompile(`(?m)^\s*(?:static\s+|async\s+)*([A-Za-z_$][A-Za-z0-9_$]*)\s*\(([^)]*)\)\s*\{`)
	jsImportRe     = regexp.MustCompile(`(?m)^\s*import\s+(?:\{([^}]*)\}|([A-Za-z_$][A-Za-z0-9_$]*))?\s*(?:,\s*\{([^}]*)\})?\s*from\s+['"]([^'"]+)['"]`)
	jsRequireRe    = regexp.MustCompile(`(?m)(?:const|let|var)\s+(?:\{([^}]*)\}|([A-Za-z_$][A-Za-z0-9_$]*))\s*=\s*require\(['"]([^'"]+)['"]\)`)
)

// JavaScriptExtractor is a regex-based fallback: functions (declarations
// and arrow-const bindings), classes with methods, CommonJS require() and
// ES module imports. No type annotations exist in plain JS so TypeRefs is
// always empty.
type JavaScriptExtractor struct{}

func NewJavaScriptExtractor() *JavaScriptExtractor { return &JavaScriptExtractor{} }

func (e *JavaScriptExtractor) Name() string { return "javascript-regex" }

func (e *JavaScriptExtractor) CanHandle(filePath string) bool {
	return hasAnySuffix(filePath, ".js", ".jsx", ".mjs", ".cjs")
}

func (e *JavaScriptExtractor) Extract(sourceText, filePath string) []entity.Entity {
	li := newLineIndex(sourceText)
	var out []entity.Entity

	out = append(out, extractJSImports(sourceText, li)...)
	out = append(out, extractJSClasses(sourceText, li)...)
	out = append(out, extractTopLevelFunctions(sourceText, li, jsFunctionRe, jsDenySet)...)
	out = append(out, extractTopLevelFunctions(sourceText, li, jsArrowConstRe, jsDenySet)...)

	deduped := dedupeLatestWins(out)
	for i := range deduped {
		fillDefaults(&deduped[i], filePath)
	}
	return deduped
}

func extractJSImports(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range jsImportRe.FindAllStringSubmatchIndex(src, -1) {
		module := groupText(src, m, 4)
		line := li.lineAt(m[0])
		symbols := collectGroup(src, m, 1)
		if d := groupText(src, m, 2); d != "" {
			symbols = append(symbols, d)
		}
		if len(symbols) == 0 {
			symbols = []string{module}
		}
		for _, sym := range symbols {
			sym = strings.TrimSpace(strings.SplitN(sym, " as ", 2)[0])
			if sym == "" {
				continue
			}
			out = append(out, entity.Entity{
				Type: entity.KindImport, Name: sym, LineStart: line, LineEnd: line,
				RawText: src[m[0]:m[1]], Imports: []entity.Import{{Module: module, Symbol: sym}},
			})
		}
	}
	for _, m := range jsRequireRe.FindAllStringSubmatchIndex(src, -1) {
		module := groupText(src, m, 3)
		line := li.lineAt(m[0])
		symbols := collectGroup(src, m, 1)
		if d := groupText(src, m, 2); d != "" {
			symbols = append(symbols, d)
		}
		if len(symbols) == 0 {
			symbols = []string{module}
		}
		for _, sym := range symbols {
			sym = strings.TrimSpace(sym)
			if sym == "" {
				continue
			}
			out = append(out, entity.Entity{
				Type: entity.KindImport, Name: sym, LineStart: line, LineEnd: line,
				RawText: src[m[0]:m[1]], Imports: []entity.Import{{Module: module, Symbol: sym}},
			})
		}
	}
	return out
}

func extractJSClasses(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range jsClassRe.FindAllStringSubmatchIndex(src, -1) {
		name := groupText(src, m, 1)
		if name == "" {
			continue
		}
		startLine := li.lineAt(m[0])
		bodyEnd := braceBlockEnd(src, m[1])
		endLine := li.lineAt(bodyEnd - 1)
		var inherits []string
		if base := groupText(src, m, 2); base != "" {
			inherits = append(inherits, base)
		}
		out = append(out, entity.Entity{
			Type: entity.KindClass, Name: name, LineStart: startLine, LineEnd: endLine,
			RawText: src[m[0]:min(bodyEnd, len(src))], Inherits: inherits,
		})

		body := src[m[1]:bodyEnd]
		bodyLineOffset := startLine - 1
		for _, mm := range jsMethodRe.FindAllStringSubmatchIndex(body, -1) {
			methodName := groupText(body, mm, 1)
			if methodName == "" || isTSKeyword(methodName) {
				continue
			}
			methodEnd := braceBlockEnd(body, mm[1])
			mStart := bodyLineOffset + countNewlines(body[:mm[0]]) + 1
			mEnd := bodyLineOffset + countNewlines(body[:methodEnd]) + 1
			out = append(out, entity.Entity{
				Type: entity.KindFunction, Name: scopedName(name, methodName),
				LineStart: mStart, LineEnd: mEnd,
				RawText: body[mm[0]:min(methodEnd, len(body))],
				Params:  splitParams(groupText(body, mm, 2)),
				Calls:   extractCallsGeneric(body[mm[0]:min(methodEnd, len(body))], jsDenySet),
			})
		}
	}
	return out
}
