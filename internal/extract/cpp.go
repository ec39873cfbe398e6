package extract

import (
	"regexp"
	"strings"

	"github.com/arcbyte/codegraph/internal/entity"
)

var cppDenySet = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "sizeof": true,
	"return": true, "printf": true, "std": true, "new": true, "delete": true,
	"static_cast": true, "dynamic_cast": true, "reinterpret_cast": true,
}

var (
	cppClassRe  = regexp.MustCompile(`(?m)^\s*(?:template\s*<[^>]*>\s*)?class\s+([A-Za-z_][A-Za-z0-9_]*)\s*(?::\s*((?:public|private|protected)?\s*[A-Za-z_][A-Za-z0-9_:<>,\s]*))?\{`)
	cppMethodRe = regexp.MustCompile(`(?m)^\s*(?:virtual\s+|static\s+|explicit\s+|inline\s+)*(?:[A-Za-z_][A-Za-z0-9_:<>,\*&\s]*?\s+)?~?([A-Za-z_][A-Za-z0-9_]*)\s*\(([^;)]*)\)\s*(?:const\s*)?(?:override\s*)?\{`)
	cppFreeFnRe = regexp.MustCompile(`(?m)^[A-Za-z_][A-Za-z0-9_ \t\*&:<>]*?\b([A-Za-z_][A-Za-z0-9_]*)\s*\(([^;)]*)\)\s*\{`)
	cppIncludeRe = regexp.MustCompile(`(?m)^\s*#include\s*[<"]([^>"]+)[>"]`)
)

// CppExtractor is a regex-based fallback covering classes (with single
// and multiple inheritance via ": public Base1, Base2"), their member
// methods, free functions, and #include directives.
type CppExtractor struct{}

func NewCppExtractor() *CppExtractor { return &CppExtractor{} }

func (e *CppExtractor) Name() string { return "cpp-regex" }

func (e *CppExtractor) CanHandle(filePath string) bool {
	return hasAnySuffix(filePath, ".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx")
}

func (e *CppExtractor) Extract(sourceText, filePath string) []entity.Entity {
	li := newLineIndex(sourceText)
	var out []entity.Entity

	out = append(out, extractCppIncludes(sourceText, li)...)
	out = append(out, extractCppClasses(sourceText, li)...)
	out = append(out, extractFreeCppFns(sourceText, li)...)

	deduped := dedupeLatestWins(out)
	for i := range deduped {
		fillDefaults(&deduped[i], filePath)
	}
	return deduped
}

func extractCppIncludes(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range cppIncludeRe.FindAllStringSubmatchIndex(src, -1) {
		path := groupText(src, m, 1)
		line := li.lineAt(m[0])
		out = append(out, entity.Entity{
			Type: entity.KindImport, Name: path, LineStart: line, LineEnd: line,
			RawText: src[m[0]:m[1]], Imports: []entity.Import{{Module: "", Symbol: path}},
		})
	}
	return out
}

func extractCppClasses(src string, li *lineIndex) []entity.Entity {
	var out []entity.Entity
	for _, m := range cppClassRe.FindAllStringSubmatchIndex(src, -1) {
		name := groupText(src, m, 1)
		if name == "" {
			continue
		}
		startLine := li.lineAt(m[0])
		bodyEnd := braceBlockEnd(src, m[0])
		endLine := li.lineAt(bodyEnd - 1)

		out = append(out, entity.Entity{
			Type: entity.KindClass, Name: name, LineStart: startLine, LineEnd: endLine,
			RawText:  src[m[0]:min(bodyEnd, len(src))],
			Inherits: parseCppBases(groupText(src, m, 2)),
		})

		body := src[m[1]:bodyEnd]
		bodyLineOffset := startLine - 1
		for _, mm := range cppMethodRe.FindAllStringSubmatchIndex(body, -1) {
			methodName := groupText(body, mm, 1)
			if methodName == "" || cDenySet[methodName] {
				continue
			}
			methodEnd := braceBlockEnd(body, mm[0])
			mStart := bodyLineOffset + countNewlines(body[:mm[0]]) + 1
			mEnd := bodyLineOffset + countNewlines(body[:methodEnd]) + 1
			methodBody := body[mm[0]:min(methodEnd, len(body))]
			out = append(out, entity.Entity{
				Type: entity.KindFunction, Name: scopedName(name, methodName),
				LineStart: mStart, LineEnd: mEnd, RawText: methodBody,
				Params: splitParams(groupText(body, mm, 2)),
				Calls:  extractCallsGeneric(methodBody, cppDenySet),
			})
		}
	}
	return out
}

func parseCppBases(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		for _, kw := range []string{"public", "private", "protected", "virtual"} {
			part = strings.TrimPrefix(part, kw+" ")
			part = strings.TrimSpace(part)
		}
		if idx := strings.IndexAny(part, "<"); idx >= 0 {
			part = part[:idx]
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func extractFreeCppFns(src string, li *lineIndex) []entity.Entity {
	masked := []byte(src)
	for _, m := range cppClassRe.FindAllStringSubmatchIndex(src, -1) {
		end := braceBlockEnd(src, m[0])
		for i := m[0]; i < end && i < len(masked); i++ {
			if masked[i] != '\n' {
				masked[i] = ' '
			}
		}
	}
	var out []entity.Entity
	for _, m := range cppFreeFnRe.FindAllStringSubmatchIndex(string(masked), -1) {
		name := groupText(string(masked), m, 1)
		if name == "" || cppDenySet[name] {
			continue
		}
		startLine := li.lineAt(m[0])
		bodyEnd := braceBlockEnd(string(masked), m[1]-1)
		endLine := li.lineAt(bodyEnd - 1)
		body := src[m[0]:min(bodyEnd, len(src))]
		out = append(out, entity.Entity{
			Type: entity.KindFunction, Name: name, LineStart: startLine, LineEnd: endLine,
			RawText: body, Params: splitParams(groupText(string(masked), m, 2)),
			Calls: extractCallsGeneric(body, cppDenySet),
		})
	}
	return out
}
