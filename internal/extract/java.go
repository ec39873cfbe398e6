package extract

import (
	"regexp"
	"strings"

	"github.com/arcbyte/codegraph/internal/entity"
)

var javaDenySet = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "System": true, "super": true, "this": true,
	"println": true, "print": true,
}

var (
	javaClassRe     = regexp.MustCompile(`(?m)^\s*(?:public|private|protected|final|abstract|static|\s)*(?:class|interface)\s+([A-Za-z_][A-Za-z0-9_]*)\s*(?:<[^>]*>)?\s*(?:extends\s+([A-Za-z_][A-Za-z0-9_.<>,\s]*?))?\s*(?:implements\s+([A-Za-z_][A-Za-z0-9_.<>,\s]*?))?\s*\{`)
	javaMethodRe    = regexp.MustCompile(`(?m)^\s*(?:@[A-Za-z_][A-Za-z0-9_]*(?:\([^)]*\))?\s*)*(?:public|private|protected|static|final|synchronized|abstract|\s)*[A-Za-z_][A-Za-z0-9_<>\[\],\s\.]*?\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(([^;)]*)\)\s*(?:throws\s+[A-Za-z0-9_.,\s]+)?\s*\{`)
	javaImportRe    = regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?([A-Za-z_][A-Za-z0-9_.]*(?:\.\*)?)\s*;`)
	javaAnnotationRe = regexp.MustCompile(`(?m)^\s*@([A-Za-z_][A-Za-z0-9_]*)`)
)

// JavaExtractor is a regex-based fallback covering classes and
// interfaces (single extends, multiple implements), their methods,
// import statements, and annotations surfaced as Decorators.
type JavaExtractor struct{}

func NewJavaExtractor() *JavaExtractor { return &JavaExtractor{} }

func (e *JavaExtractor) Name() string { return "java-regex" }

func (e *JavaExtractor) CanHandle(filePath string) bool {
	return strings.HasSuffix(filePath, ".java")
}

func (e *JavaExtractor) Extract(sourceText, filePath string) []entity.Entity {
	li := newLineIndex(sourceText)
	var out []entity.Entity

	out = append(out, extractJavaImports(sourceText, li)...)
	out = append(out, extractJavaClasses(sourceText, li)...)

	deduped := dedupeLatestWins(out)
	for i := range deduped {
		fillDefaults(&deduped[i], filePath)
	}
	return deduped
}

func extractJavaImports(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range javaImportRe.FindAllStringSubmatchIndex(src, -1) {
		path := groupText(src, m, 1)
		line := li.lineAt(m[0])
		symbol := path
		module := ""
		if idx := strings.LastIndex(path, "."); idx >= 0 {
			module = path[:idx]
			symbol = path[idx+1:]
		}
		out = append(out, entity.Entity{
			Type: entity.KindImport, Name: symbol, LineStart: line, LineEnd: line,
			RawText: src[m[0]:m[1]], Imports: []entity.Import{{Module: module, Symbol: symbol}},
		})
	}
	return out
}

func extractJavaClasses(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range javaClassRe.FindAllStringSubmatchIndex(src, -1) {
		name := groupText(src, m, 1)
		if name == "" {
			continue
		}
		startLine := li.lineAt(m[0])
		bodyEnd := braceBlockEnd(src, m[1]-1)
		endLine := li.lineAt(bodyEnd - 1)

		var inherits []string
		if ext := groupText(src, m, 2); ext != "" {
			inherits = append(inherits, splitCommaNames(ext)...)
		}
		if impl := groupText(src, m, 3); impl != "" {
			inherits = append(inherits, splitCommaNames(impl)...)
		}

		out = append(out, entity.Entity{
			Type: entity.KindClass, Name: name, LineStart: startLine, LineEnd: endLine,
			RawText:    src[m[0]:min(bodyEnd, len(src))],
			Inherits:   inherits,
			Decorators: annotationsBefore(src, li, m[0]),
		})

		body := src[m[1]:bodyEnd]
		bodyLineOffset := startLine - 1
		for _, mm := range javaMethodRe.FindAllStringSubmatchIndex(body, -1) {
			methodName := groupText(body, mm, 1)
			if methodName == "" || javaDenySet[methodName] || methodName == name {
				if methodName != name {
					continue
				}
			}
			methodEnd := braceBlockEnd(body, mm[0])
			mStart := bodyLineOffset + countNewlines(body[:mm[0]]) + 1
			mEnd := bodyLineOffset + countNewlines(body[:methodEnd]) + 1
			methodBody := body[mm[0]:min(methodEnd, len(body))]
			out = append(out, entity.Entity{
				Type: entity.KindFunction, Name: scopedName(name, methodName),
				LineStart: mStart, LineEnd: mEnd, RawText: methodBody,
				Params: splitParams(groupText(body, mm, 2)),
				Calls:  extractCallsGeneric(methodBody, javaDenySet),
			})
		}
	}
	return out
}

func splitCommaNames(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if idx := strings.IndexAny(part, "<"); idx >= 0 {
			part = part[:idx]
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func annotationsBefore(src string, li *lineIndex, pos int) []string {
	line := li.lineAt(pos)
	start := li.offsets[max(0, line-4)]
	preceding := src[start:pos]
	var out []string
	for _, m := range javaAnnotationRe.FindAllStringSubmatch(preceding, -1) {
		out = append(out, m[1])
	}
	return out
}
