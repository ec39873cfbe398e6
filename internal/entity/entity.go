// Package entity defines the immutable value type produced by every
// language extractor, and the signature/structure hashing used to drive
// delta diffing and rename detection.
package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Kind is the extractor-recognized category of a code entity.
type Kind string

const (
	KindFunction   Kind = "function"
	KindClass      Kind = "class"
	KindVariable   Kind = "variable"
	KindImport     Kind = "import"
	KindModuleCode Kind = "module_code"
)

// Confidence tags how certain the graph store is about an edge's target
// resolution, or about an entity recovered under degraded conditions.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Import is a single (module, symbol) binding recorded by an import entity.
// Module may be empty or "." for local/relative includes.
type Import struct {
	Module string
	Symbol string
}

// Entity is the unit extracted from source text. It is treated as
// immutable once produced: extractors build a fresh slice of Entity values
// on every parse, and the differ compares them against the previous slice
// for the same file.
type Entity struct {
	Type       Kind
	Name       string // scoped: "Outer.inner" for methods, bare otherwise
	FilePath   string // project-relative, forward-slash
	LineStart  int    // 1-indexed inclusive
	LineEnd    int    // 1-indexed inclusive

	Calls      []string
	Inherits   []string
	TypeRefs   []string
	Decorators []string
	Imports    []Import
	Params     []string

	SignatureHash string // 12 hex digits
	StructureHash string // 12 hex digits, own name replaced by sentinel

	// RawText is the canonical source text of the entity as the extractor
	// recovered it, already stripped of comments the extractor's language
	// treats as insignificant. It is consumed by ComputeHashes and is not
	// part of the persisted node.
	RawText string

	Confidence Confidence
}

// HashLength is the number of hex characters a truncated hash keeps.
const HashLength = 12

// sentinel replaces an entity's own defined name before hashing for
// structure equality, so a rename-only edit leaves StructureHash intact.
const sentinel = "___"

// NodeID returns the graph identity for an entity: file_path + "::" + name.
func NodeID(filePath, name string) string {
	return filePath + "::" + name
}

// ID returns this entity's graph node identity.
func (e *Entity) ID() string {
	return NodeID(e.FilePath, e.Name)
}

// bareName strips a method's "Outer." scope prefix, since that is how the
// name actually appears as a token in the entity's own source text.
func bareName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// ComputeHashes derives SignatureHash and StructureHash from RawText and
// Name. Call after RawText and Name are final.
func (e *Entity) ComputeHashes() {
	canon := canonicalize(e.RawText)
	e.SignatureHash = truncatedHash(canon)
	e.StructureHash = truncatedHash(nameToSentinel(canon, bareName(e.Name)))
}

// canonicalize trims trailing whitespace from each line while preserving
// internal whitespace, and trims surrounding blank lines. This is the only
// normalization the signature hash performs; comment/whitespace-only
// reformatting below the statement level is the extractor's job to have
// already collapsed out of RawText.
func canonicalize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// nameToSentinel replaces whole-word occurrences of name with sentinel.
func nameToSentinel(text, name string) string {
	if name == "" {
		return text
	}
	pattern := `\b` + regexp.QuoteMeta(name) + `\b`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return text
	}
	return re.ReplaceAllString(text, sentinel)
}

// truncatedHash returns the first HashLength hex characters of the SHA-256
// digest of s.
func truncatedHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	hexStr := hex.EncodeToString(sum[:])
	if len(hexStr) <= HashLength {
		return hexStr
	}
	return hexStr[:HashLength]
}

// IsRenamePair reports whether old and new entities are the same
// definition under a different name: equal type, equal structure hash,
// different name, and overlapping position within window lines.
func IsRenamePair(oldE, newE *Entity, window int) bool {
	if oldE.Type != newE.Type {
		return false
	}
	if oldE.Name == newE.Name {
		return false
	}
	if oldE.StructureHash != newE.StructureHash {
		return false
	}
	return linesOverlap(oldE.LineStart, oldE.LineEnd, newE.LineStart, newE.LineEnd, window)
}

func linesOverlap(aStart, aEnd, bStart, bEnd, window int) bool {
	lo := aStart - window
	hi := aEnd + window
	return bStart <= hi && bEnd >= lo
}
