package extract

import (
	"github.com/arcbyte/codegraph/internal/entity"
)

// PartialPythonExtractor recovers entities from Python edits that leave
// the file transiently unparseable, the mid-keystroke state a host
// sees between an edit's post-edit hook firing and the user finishing a
// statement. It performs a binary-search line-range reduction: the full
// source tree-sitter's grammar can still tokenize is fed to the reference
// extractor, progressively narrowing the reduction until extraction
// succeeds on a prefix/suffix of the file, or nothing does.
//
// Entities recovered this way are tagged confidence=medium, reflecting
// that they were extracted from a deliberately truncated view of the
// file rather than the whole thing.
type PartialPythonExtractor struct {
	ref *PythonExtractor
}

// NewPartialPythonExtractor wraps a reference extractor for degraded use.
func NewPartialPythonExtractor(ref *PythonExtractor) *PartialPythonExtractor {
	return &PartialPythonExtractor{ref: ref}
}

func (p *PartialPythonExtractor) Name() string { return "python-partial" }

func (p *PartialPythonExtractor) CanHandle(filePath string) bool {
	return p.ref.CanHandle(filePath)
}

// Extract tries the full text first (maybe it parses fine even with a
// tree-sitter ERROR node or two, since tree-sitter error-recovers rather
// than aborting); if the reference extractor still yields nothing
// meaningful, it binary-searches for the largest parseable prefix and the
// largest parseable suffix and merges what each recovers.
func (p *PartialPythonExtractor) Extract(sourceText, filePath string) []entity.Entity {
	if full := p.ref.Extract(sourceText, filePath); len(full) > 0 {
		return full
	}

	lines := splitLines(sourceText)
	prefixEnd := largestParseablePrefix(p.ref, lines, filePath)
	suffixStart := largestParseableSuffix(p.ref, lines, filePath)

	var out []entity.Entity
	if prefixEnd > 0 {
		out = append(out, degradeConfidence(p.ref.Extract(joinLines(lines[:prefixEnd]), filePath))...)
	}
	if suffixStart < len(lines) && suffixStart > prefixEnd {
		out = append(out, degradeConfidence(p.ref.Extract(joinLines(lines[suffixStart:]), filePath))...)
	}
	return dedupeLatestWins(out)
}

// largestParseablePrefix binary-searches the number of leading lines
// (0..len(lines)) that the reference extractor can extract at least one
// entity from, favoring the larger prefix on ties since more context
// recovers more entities.
func largestParseablePrefix(ref *PythonExtractor, lines []string, filePath string) int {
	lo, hi := 0, len(lines)
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if len(ref.Extract(joinLines(lines[:mid]), filePath)) > 0 {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

// largestParseableSuffix is the mirror of largestParseablePrefix: the
// smallest start index such that lines[start:] still yields entities.
func largestParseableSuffix(ref *PythonExtractor, lines []string, filePath string) int {
	lo, hi := 0, len(lines)
	best := len(lines)
	for lo <= hi {
		mid := (lo + hi) / 2
		if mid >= len(lines) {
			hi = mid - 1
			continue
		}
		if len(ref.Extract(joinLines(lines[mid:]), filePath)) > 0 {
			best = mid
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return best
}

func degradeConfidence(entities []entity.Entity) []entity.Entity {
	for i := range entities {
		entities[i].Confidence = entity.ConfidenceMedium
	}
	return entities
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
