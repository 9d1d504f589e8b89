package runtime

import "github.com/aretw0/surveyflow/pkg/domain"

// ResolveNextNodeID picks the edge to follow out of nodeID for the given answer.
// It returns false only when nodeID has no outgoing edges (completion).
//
// Edges are tried in declared order:
//   - an answer without choice takes the first edge;
//   - a single choice takes the edge tied to that option;
//   - a multiple choice takes the first default edge;
//   - a rating takes the edge tied to that exact value, else the first default edge.
//
// When nothing matches, the first outgoing edge is followed so that legacy or
// inconsistent graphs never dead-end.
func ResolveNextNodeID(g *domain.Graph, nodeID string, answer *domain.Answer) (string, bool) {
	edges := g.OutgoingEdges(nodeID)
	if len(edges) == 0 {
		return "", false
	}

	if edge, ok := matchEdge(edges, answer); ok {
		return edge.Target, true
	}
	return edges[0].Target, true
}

func matchEdge(edges []domain.Edge, answer *domain.Answer) (domain.Edge, bool) {
	switch answer.Shape() {
	case domain.ShapeNone:
		return edges[0], true

	case domain.ShapeSingle:
		for _, e := range edges {
			if id := e.OptionID(); id != "" && id == answer.SelectedOptionID {
				return e, true
			}
		}

	case domain.ShapeMultiple:
		return firstDefault(edges)

	case domain.ShapeRating:
		for _, e := range edges {
			if v, ok := e.RatingValue(); ok && v == *answer.RatingValue {
				return e, true
			}
		}
		return firstDefault(edges)
	}
	return domain.Edge{}, false
}

func firstDefault(edges []domain.Edge) (domain.Edge, bool) {
	for _, e := range edges {
		if e.IsDefault() {
			return e, true
		}
	}
	return domain.Edge{}, false
}
