package extract

import (
	"path/filepath"
	"strings"
)

// Registry maps file extensions to the extractor responsible for them.
// It is built once at process start and is safe for
// concurrent reads thereafter since no extractor instance mutates state.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry builds the default registry: the Python full-AST extractor
// as the reference implementation, plus six regex-based fallbacks.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	r.register(NewPythonExtractor())
	r.register(NewTypeScriptExtractor())
	r.register(NewJavaScriptExtractor())
	r.register(NewRustExtractor())
	r.register(NewCExtractor())
	r.register(NewCppExtractor())
	r.register(NewJavaExtractor())
	return r
}

func (r *Registry) register(e Extractor) {
	for _, ext := range extensionsFor(e) {
		if _, exists := r.byExt[ext]; !exists {
			r.byExt[ext] = e
		}
	}
}

// extensionsFor probes every extension we know how to route and keeps
// the ones the extractor claims, so registration stays declarative at
// the call site instead of duplicating the extension list here.
func extensionsFor(e Extractor) []string {
	candidates := []string{
		".py", ".pyi",
		".ts", ".tsx", ".mts", ".cts",
		".js", ".jsx", ".mjs", ".cjs",
		".rs",
		".c", ".h",
		".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx",
		".java",
	}
	var out []string
	for _, ext := range candidates {
		if e.CanHandle("probe" + ext) {
			out = append(out, ext)
		}
	}
	return out
}

// For returns the extractor registered for filePath's extension, or nil
// if the extension is unsupported. An unsupported file is silently
// skipped; it never enters the graph.
func (r *Registry) For(filePath string) Extractor {
	ext := strings.ToLower(filepath.Ext(filePath))
	return r.byExt[ext]
}

// Supported reports whether filePath's extension has a registered
// extractor.
func (r *Registry) Supported(filePath string) bool {
	return r.For(filePath) != nil
}
