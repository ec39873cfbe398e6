package extract

import (
	"regexp"
	"strings"

	"github.com/arcbyte/codegraph/internal/entity"
)

var tsDenySet = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "typeof": true, "new": true, "function": true,
	"console": true, "require": true, "super": true,
}

var (
	tsFunctionRe  = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*\(([^)]*)\)`)
	tsMethodRe    = regexp.MustCompile(`(?m)^\s*(?:public|private|protected|static|async|readonly|\s)*([A-Za-z_$][A-Za-z0-9_$]*)\s*\(([^)]*)\)\s*(?::\s*[^{;]+)?\s*\{`)
	tsClassRe     = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)(?:\s+extends\s+([A-Za-z_$][A-Za-z0-9_.$]*))?(?:\s+implements\s+([A-Za-z_$][A-Za-z0-9_.$,\s]*))?`)
	tsImportRe    = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?(?:\{([^}]*)\}|([A-Za-z_$][A-Za-z0-9_$]*))?\s*(?:,\s*\{([^}]*)\})?\s*from\s+['"]([^'"]+)['"]`)
	tsDecoratorRe = regexp.MustCompile(`(?m)^\s*@([A-Za-z_$][A-Za-z0-9_.$]*)`)
)

// TypeScriptExtractor is a regex-based fallback: it
// recognizes top-level functions, classes with their member methods,
// decorators, and ES module imports, but has no real AST so nested
// scopes beyond one class level and computed names are out of reach.
type TypeScriptExtractor struct{}

func NewTypeScriptExtractor() *TypeScriptExtractor { return &TypeScriptExtractor{} }

func (e *TypeScriptExtractor) Name() string { return "typescript-regex" }

func (e *TypeScriptExtractor) CanHandle(filePath string) bool {
	return hasAnySuffix(filePath, ".ts", ".tsx", ".mts", ".cts")
}

func (e *TypeScriptExtractor) Extract(sourceText, filePath string) []entity.Entity {
	li := newLineIndex(sourceText)
	var out []entity.Entity

	out = append(out, extractTSImports(sourceText, li)...)
	out = append(out, extractTSClasses(sourceText, li)...)
	out = append(out, extractTopLevelFunctions(sourceText, li, tsFunctionRe, tsDenySet)...)

	deduped := dedupeLatestWins(out)
	for i := range deduped {
		fillDefaults(&deduped[i], filePath)
	}
	return deduped
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func extractTSImports(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range tsImportRe.FindAllStringSubmatchIndex(src, -1) {
		module := src[m[8]:m[9]]
		line := li.lineAt(m[0])
		symbols := collectGroup(src, m, 1) // { a, b }
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
				Type:      entity.KindImport,
				Name:      sym,
				LineStart: line,
				LineEnd:   line,
				RawText:   src[m[0]:m[1]],
				Imports:   []entity.Import{{Module: module, Symbol: sym}},
			})
		}
	}
	return out
}

func collectGroup(src string, m []int, group int) []string {
	text := groupText(src, m, group)
	if text == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func groupText(src string, m []int, group int) string {
	if 2*group+1 >= len(m) || m[2*group] < 0 {
		return ""
	}
	return src[m[2*group]:m[2*group+1]]
}

func extractTSClasses(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range tsClassRe.FindAllStringSubmatchIndex(src, -1) {
		name := groupText(src, m, 1)
		if name == "" {
			continue
		}
		startLine := li.lineAt(m[0])
		bodyEnd := braceBlockEnd(src, m[1])
		endLine := li.lineAt(bodyEnd - 1)
		decorators := decoratorsBefore(src, li, m[0])

		var inherits []string
		if base := groupText(src, m, 2); base != "" {
			inherits = append(inherits, base)
		}
		if impls := groupText(src, m, 3); impls != "" {
			for _, n := range strings.Split(impls, ",") {
				n = strings.TrimSpace(n)
				if n != "" {
					inherits = append(inherits, n)
				}
			}
		}

		out = append(out, entity.Entity{
			Type:       entity.KindClass,
			Name:       name,
			LineStart:  startLine,
			LineEnd:    endLine,
			RawText:    src[m[0]:m[1]],
			Inherits:   inherits,
			Decorators: decorators,
		})

		body := src[m[1]:bodyEnd]
		bodyLineOffset := startLine - 1
		for _, mm := range tsMethodRe.FindAllStringSubmatchIndex(body, -1) {
			methodName := groupText(body, mm, 1)
			if methodName == "" || isTSKeyword(methodName) {
				continue
			}
			methodEnd := braceBlockEnd(body, mm[1])
			mStart := bodyLineOffset + countNewlines(body[:mm[0]]) + 1
			mEnd := bodyLineOffset + countNewlines(body[:methodEnd]) + 1
			out = append(out, entity.Entity{
				Type:      entity.KindFunction,
				Name:      scopedName(name, methodName),
				LineStart: mStart,
				LineEnd:   mEnd,
				RawText:   body[mm[0]:min(methodEnd, len(body))],
				Params:    splitParams(groupText(body, mm, 2)),
				Calls:     extractCallsGeneric(body[mm[0]:min(methodEnd, len(body))], tsDenySet),
			})
		}
	}
	return out
}

func isTSKeyword(name string) bool {
	switch name {
	case "if", "for", "while", "switch", "catch", "return", "function":
		return true
	}
	return false
}

func decoratorsBefore(src string, li *lineIndex, pos int) []string {
	line := li.lineAt(pos)
	start := 0
	if line-1 >= 1 {
		start = li.offsets[max(0, line-6)]
	}
	preceding := src[start:pos]
	var out []string
	for _, m := range tsDecoratorRe.FindAllStringSubmatch(preceding, -1) {
		out = append(out, m[1])
	}
	return out
}

func extractTopLevelFunctions(src string, li *lineIndex, re *regexp.Regexp, deny map[string]bool) []entity.Entity {
	var out []entity.Entity
	for _, m := range re.FindAllStringSubmatchIndex(src, -1) {
		name := groupText(src, m, 1)
		if name == "" {
			continue
		}
		startLine := li.lineAt(m[0])
		bodyEnd := braceBlockEnd(src, m[1])
		endLine := li.lineAt(bodyEnd - 1)
		out = append(out, entity.Entity{
			Type:      entity.KindFunction,
			Name:      name,
			LineStart: startLine,
			LineEnd:   endLine,
			RawText:   src[m[0]:min(bodyEnd, len(src))],
			Params:    splitParams(groupText(src, m, 2)),
			Calls:     extractCallsGeneric(src[m[0]:min(bodyEnd, len(src))], deny),
		})
	}
	return out
}

func countNewlines(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
		}
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
