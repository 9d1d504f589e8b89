// Package validator lints survey graphs before they are published.
// The engine tolerates every problem reported here; a lint failure means respondents
// can end up somewhere the author did not intend.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// ValidateGraph checks for broken links, unreachable nodes and mismatched edge discriminators,
// crawling from the entry node.
func ValidateGraph(g *domain.Graph) error {
	if g == nil || len(g.Nodes) == 0 {
		return fmt.Errorf("found 1 errors:\n- graph has no nodes")
	}

	var errors []string
	seen := make(map[string]bool, len(g.Nodes))
	incoming := make(map[string]int, len(g.Nodes))

	for _, n := range g.Nodes {
		if seen[n.ID] {
			errors = append(errors, fmt.Sprintf("Duplicate node id: '%s'", n.ID))
		}
		seen[n.ID] = true
		if !n.Kind.Valid() {
			errors = append(errors, fmt.Sprintf("Unknown node kind '%s' on '%s'", n.Kind, n.ID))
		}
		if r, ok := n.Rating(); ok && r.MinValue > r.MaxValue {
			errors = append(errors, fmt.Sprintf("Rating '%s' has minValue %d above maxValue %d", n.ID, r.MinValue, r.MaxValue))
		}
	}

	for _, e := range g.Edges {
		incoming[e.Target]++
		source, ok := g.NodeByID(e.Source)
		if !ok {
			errors = append(errors, fmt.Sprintf("Edge from missing node: '%s'", e.Source))
			continue
		}
		if !seen[e.Target] {
			errors = append(errors, fmt.Sprintf("Missing node: '%s' (edge from '%s')", e.Target, e.Source))
		}
		if opt := e.OptionID(); opt != "" {
			if _, ok := source.Option(opt); !ok {
				errors = append(errors, fmt.Sprintf("Edge %s -> %s names unknown option '%s'", e.Source, e.Target, opt))
			}
		}
		if v, ok := e.RatingValue(); ok {
			r, isRating := source.Rating()
			switch {
			case !isRating:
				errors = append(errors, fmt.Sprintf("Edge %s -> %s carries a rating value but '%s' is not a rating", e.Source, e.Target, e.Source))
			case v < r.MinValue || v > r.MaxValue:
				errors = append(errors, fmt.Sprintf("Edge %s -> %s rating value %d is outside %d-%d", e.Source, e.Target, v, r.MinValue, r.MaxValue))
			}
		}
	}

	var entries []string
	for _, n := range g.Nodes {
		if incoming[n.ID] == 0 {
			entries = append(entries, n.ID)
		}
	}
	if len(entries) != 1 {
		errors = append(errors, fmt.Sprintf("Expected one entry node, found %d (%s); '%s' is used", len(entries), strings.Join(entries, ", "), g.EntryNodeID()))
	}

	// Crawl
	visited := make(map[string]bool, len(g.Nodes))
	queue := []string{g.EntryNodeID()}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, e := range g.OutgoingEdges(id) {
			if seen[e.Target] && !visited[e.Target] {
				queue = append(queue, e.Target)
			}
		}
	}
	for _, n := range g.Nodes {
		if !visited[n.ID] {
			errors = append(errors, fmt.Sprintf("Unreachable node: '%s'", n.ID))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}
