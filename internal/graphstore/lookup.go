package graphstore

import (
	"regexp"
	"strings"
)

// Lookup resolves a query string to candidate nodes, progressively:
// exact id match, then exact bare-name match, then suffix match against
// scoped names, then (if query compiles as a regex) a regex fallback over
// every node name. Ties are broken deterministically by (FilePath, Name).
func (s *Store) Lookup(query string) []*Node {
	if n, ok := s.nodesByID[query]; ok {
		return []*Node{n}
	}

	if ids := s.NodeIDsByBareName(query); len(ids) > 0 {
		return s.nodesFor(ids)
	}

	var suffixMatches []*Node
	for id, n := range s.nodesByID {
		if strings.HasSuffix(n.Name, "."+query) || strings.HasSuffix(id, "::"+query) {
			suffixMatches = append(suffixMatches, s.nodesByID[id])
		}
	}
	if len(suffixMatches) > 0 {
		sortNodesDeterministic(suffixMatches)
		return suffixMatches
	}

	if re, err := regexp.Compile(query); err == nil {
		var matches []*Node
		for _, n := range s.nodesByID {
			if re.MatchString(n.Name) {
				matches = append(matches, n)
			}
		}
		sortNodesDeterministic(matches)
		return matches
	}

	return nil
}

func (s *Store) nodesFor(ids []string) []*Node {
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n := s.nodesByID[id]; n != nil {
			out = append(out, n)
		}
	}
	sortNodesDeterministic(out)
	return out
}

// Search implements the query engine's `search` primitive: scan names for
// a regex match, anchored at word boundaries when the pattern has no
// explicit anchors of its own.
func (s *Store) Search(pattern string) ([]*Node, error) {
	effective := pattern
	if !strings.ContainsAny(pattern, "^$") {
		effective = `\b(?:` + pattern + `)\b`
	}
	re, err := regexp.Compile(effective)
	if err != nil {
		return nil, err
	}
	var out []*Node
	for _, n := range s.nodesByID {
		if re.MatchString(n.Name) {
			out = append(out, n)
		}
	}
	sortNodesDeterministic(out)
	return out, nil
}
