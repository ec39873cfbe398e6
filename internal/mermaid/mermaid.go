// Package mermaid renders a slice of the code graph as a Mermaid
// flowchart, collapsing to a file-level view when the node count would
// make the diagram unreadable.
package mermaid

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/arcbyte/codegraph/internal/entity"
	"github.com/arcbyte/codegraph/internal/graphstore"
)

// Options configures diagram generation.
type Options struct {
	// MaxNodes is the threshold past which the diagram collapses to one
	// node per file.
	MaxNodes int
	// Direction is the flowchart layout: "TD" or "LR".
	Direction string
}

// DefaultOptions returns the usual rendering settings.
func DefaultOptions() Options {
	return Options{MaxNodes: 30, Direction: "LR"}
}

// Generate renders nodes and the edges among them. Edges whose target
// is an unresolved placeholder are drawn dashed against a synthetic
// node.
func Generate(nodes []*graphstore.Node, edges []*graphstore.Edge, opts Options) string {
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = 30
	}
	if opts.Direction != "TD" && opts.Direction != "LR" {
		opts.Direction = "LR"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "flowchart %s\n", opts.Direction)

	if len(nodes) > opts.MaxNodes {
		generateFileLevel(&sb, nodes, edges)
		return sb.String()
	}

	sorted := append([]*graphstore.Node(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })
	for _, n := range sorted {
		fmt.Fprintf(&sb, "    %s\n", nodeDecl(n))
	}
	for _, e := range sortedEdges(edges) {
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeID(e.SourceID), arrow(e.Kind), sanitizeID(e.TargetID))
	}
	return sb.String()
}

func generateFileLevel(sb *strings.Builder, nodes []*graphstore.Node, edges []*graphstore.Edge) {
	perFile := make(map[string]int)
	fileOf := make(map[string]string, len(nodes))
	for _, n := range nodes {
		perFile[n.FilePath]++
		fileOf[n.ID()] = n.FilePath
	}

	files := make([]string, 0, len(perFile))
	for f := range perFile {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		fmt.Fprintf(sb, "    %s[\"%s (%d)\"]\n", sanitizeID(f), escape(f), perFile[f])
	}

	drawn := make(map[string]bool)
	for _, e := range sortedEdges(edges) {
		from, to := fileOf[e.SourceID], fileOf[e.TargetID]
		if from == "" || to == "" || from == to {
			continue
		}
		key := from + "->" + to
		if drawn[key] {
			continue
		}
		drawn[key] = true
		fmt.Fprintf(sb, "    %s --> %s\n", sanitizeID(from), sanitizeID(to))
	}
}

func sortedEdges(edges []*graphstore.Edge) []*graphstore.Edge {
	sorted := append([]*graphstore.Edge(nil), edges...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].SourceID != sorted[j].SourceID {
			return sorted[i].SourceID < sorted[j].SourceID
		}
		if sorted[i].TargetID != sorted[j].TargetID {
			return sorted[i].TargetID < sorted[j].TargetID
		}
		return sorted[i].Kind < sorted[j].Kind
	})
	return sorted
}

func nodeDecl(n *graphstore.Node) string {
	id := sanitizeID(n.ID())
	label := escape(n.Name)
	switch n.Type {
	case entity.KindClass:
		return fmt.Sprintf("%s{{\"%s\"}}", id, label)
	case entity.KindImport:
		return fmt.Sprintf("%s([\"%s\"])", id, label)
	default:
		return fmt.Sprintf("%s[\"%s\"]", id, label)
	}
}

func arrow(kind graphstore.EdgeKind) string {
	switch kind {
	case graphstore.EdgeCalls:
		return "-->"
	case graphstore.EdgeInherits:
		return "==>"
	default:
		return "-.->"
	}
}

var idRe = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func sanitizeID(id string) string {
	s := idRe.ReplaceAllString(id, "_")
	if s == "" {
		return "_empty"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return s
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "#quot;")
	s = strings.ReplaceAll(s, "<", "#lt;")
	s = strings.ReplaceAll(s, ">", "#gt;")
	return s
}
