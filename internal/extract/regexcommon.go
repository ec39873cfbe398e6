package extract

import (
	"regexp"
	"strings"
)

// lineIndex maps byte offsets into a source string to 1-indexed line
// numbers, built once per Extract call so every regex match can be
// located without rescanning the whole file.
type lineIndex struct {
	offsets []int // offsets[i] = byte offset where line i+1 (1-indexed) begins
}

func newLineIndex(src string) *lineIndex {
	offsets := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return &lineIndex{offsets: offsets}
}

// lineAt returns the 1-indexed line number containing byte offset off.
func (li *lineIndex) lineAt(off int) int {
	lo, hi := 0, len(li.offsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if li.offsets[mid] <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

// braceBlockEnd returns the 0-indexed byte offset just past the closing
// brace matching the first "{" found at or after start, or len(src) if
// none is found (used to approximate a function/class body's extent for
// a language the extractor does not fully parse).
func braceBlockEnd(src string, start int) int {
	open := strings.IndexByte(src[start:], '{')
	if open < 0 {
		return len(src)
	}
	pos := start + open
	depth := 0
	for i := pos; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(src)
}

// extractCallsGeneric scans a block of text for `name(` call-shaped
// tokens, filtering the given deny-set and language keywords. This is
// the fallback calls heuristic shared by every regex extractor: it
// cannot distinguish a real call from a control-flow keyword followed by
// a parenthesis as precisely as a full parser, so callers pass a deny-set
// covering both builtins and keywords.
var callLikeRe = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

func extractCallsGeneric(body string, deny map[string]bool) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range callLikeRe.FindAllStringSubmatch(body, -1) {
		name := m[1]
		if deny[name] || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func splitParams(paramText string) []string {
	paramText = strings.TrimSpace(paramText)
	if paramText == "" {
		return nil
	}
	var out []string
	for _, raw := range splitTopLevelCommas(paramText) {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		out = append(out, firstIdentifierOf(p))
	}
	return out
}

// splitTopLevelCommas splits on commas that are not nested inside
// <>, (), or [] so generic/templated parameter types don't get split.
func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, s[last:i])
				last = i + 1
			}
		}
	}
	out = append(out, s[last:])
	return out
}

// firstIdentifierOf extracts a plausible parameter name from a
// "name: Type", "Type name", "name=default", or bare "name" fragment,
// since each language's parameter grammar puts the name in a different
// position relative to the type and regex extraction can't fully parse
// either.
func firstIdentifierOf(p string) string {
	p = strings.TrimPrefix(p, "&")
	p = strings.TrimPrefix(p, "*")
	p = strings.TrimSpace(p)
	if idx := strings.IndexAny(p, ":="); idx >= 0 {
		return strings.TrimSpace(p[:idx])
	}
	fields := strings.Fields(p)
	if len(fields) == 0 {
		return p
	}
	last := fields[len(fields)-1]
	return strings.TrimRight(last, "*&")
}
