package extract

import (
	"regexp"
	"strings"

	"github.com/arcbyte/codegraph/internal/entity"
)

var cDenySet = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "sizeof": true,
	"return": true, "printf": true, "sprintf": true, "malloc": true,
	"free": true, "memcpy": true, "memset": true, "strlen": true,
}

var (
	cFunctionRe = regexp.MustCompile(`(?m)^[A-Za-z_][A-Za-z0-9_ \t\*]*?\b([A-Za-z_][A-Za-z0-9_]*)\s*\(([^;)]*)\)\s*\{`)
	cStructRe   = regexp.MustCompile(`(?m)^\s*(?:typedef\s+)?struct\s+([A-Za-z_][A-Za-z0-9_]*)?\s*\{`)
	cIncludeRe  = regexp.MustCompile(`(?m)^\s*#include\s*[<"]([^>"]+)[>"]`)
)

// CExtractor is a regex-based fallback with the narrowest feature
// coverage of the six: C has no classes or inheritance,
// so Inherits and Decorators are always empty and struct declarations
// are reported as classes purely to carry field/member structure.
type CExtractor struct{}

func NewCExtractor() *CExtractor { return &CExtractor{} }

func (e *CExtractor) Name() string { return "c-regex" }

func (e *CExtractor) CanHandle(filePath string) bool {
	return strings.HasSuffix(filePath, ".c") || strings.HasSuffix(filePath, ".h")
}

func (e *CExtractor) Extract(sourceText, filePath string) []entity.Entity {
	li := newLineIndex(sourceText)
	var out []entity.Entity

	out = append(out, extractCIncludes(sourceText, li)...)
	out = append(out, extractCStructs(sourceText, li)...)
	out = append(out, extractCFunctions(sourceText, li)...)

	deduped := dedupeLatestWins(out)
	for i := range deduped {
		fillDefaults(&deduped[i], filePath)
	}
	return deduped
}

func extractCIncludes(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range cIncludeRe.FindAllStringSubmatchIndex(src, -1) {
		path := groupText(src, m, 1)
		line := li.lineAt(m[0])
		out = append(out, entity.Entity{
			Type: entity.KindImport, Name: path, LineStart: line, LineEnd: line,
			RawText: src[m[0]:m[1]], Imports: []entity.Import{{Module: "", Symbol: path}},
		})
	}
	return out
}

func extractCStructs(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range cStructRe.FindAllStringSubmatchIndex(src, -1) {
		name := groupText(src, m, 1)
		if name == "" {
			// anonymous struct inside a typedef; look ahead for the alias name
			end := braceBlockEnd(src, m[1])
			alias := findTypedefAlias(src[end:min(end+80, len(src))])
			if alias == "" {
				continue
			}
			name = alias
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

var typedefAliasRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*;`)

func findTypedefAlias(tail string) string {
	m := typedefAliasRe.FindStringSubmatch(tail)
	if m == nil {
		return ""
	}
	return m[1]
}

func extractCFunctions(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range cFunctionRe.FindAllStringSubmatchIndex(src, -1) {
		name := groupText(src, m, 1)
		if name == "" || cDenySet[name] {
			continue
		}
		startLine := li.lineAt(m[0])
		bodyEnd := braceBlockEnd(src, m[1]-1)
		endLine := li.lineAt(bodyEnd - 1)
		body := src[m[0]:min(bodyEnd, len(src))]
		out = append(out, entity.Entity{
			Type: entity.KindFunction, Name: name, LineStart: startLine, LineEnd: endLine,
			RawText: body,
			Params:  splitParams(groupText(src, m, 2)),
			Calls:   extractCallsGeneric(body, cDenySet),
		})
	}
	return out
}
