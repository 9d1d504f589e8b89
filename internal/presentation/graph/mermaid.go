package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// Overlay contains attempt data to visualize on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromState builds an overlay from a stored attempt.
func OverlayFromState(s *domain.AttemptState) *Overlay {
	return &Overlay{VisitedNodes: s.VisitedPath, CurrentNode: s.CurrentNodeID}
}

// GenerateMermaid produces a Mermaid flowchart of a survey graph.
// Node shapes follow the node kind:
// - Presentation: ([Stadium])
// - Single/multiple choice: {Rhombus} / {{Hexagon}}
// - Rating: [/Parallelogram/]
// - End screen: ((Circle))
// Conditioned edges are labeled with their option label or rating value.
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Kind {
		case domain.KindPresentation:
			opener, closer = "([", "])"
		case domain.KindSingleChoice:
			opener, closer = "{", "}"
		case domain.KindMultipleChoice:
			opener, closer = "{{", "}}"
		case domain.KindRating:
			opener, closer = "[/", "/]"
		case domain.KindEndScreen:
			opener, closer = "((", "))"
		}

		label := escapeLabel(node.ID)
		if title := node.Title(); title != "" && title != node.ID {
			label = fmt.Sprintf("%s<br/>%s", escapeLabel(node.ID), escapeLabel(title))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)
	}

	for _, e := range g.Edges {
		arrow := "-->"
		if cond := edgeLabel(g, e); cond != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(cond))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.Source), arrow, sanitizeMermaidID(e.Target))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for contrast regardless of the viewer theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !visited[safeID] {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// edgeLabel prefers the explicit edge label, then the option label, then the rating value.
func edgeLabel(g *domain.Graph, e domain.Edge) string {
	if l := e.Label(); l != "" {
		return l
	}
	if opt := e.OptionID(); opt != "" {
		if n, ok := g.NodeByID(e.Source); ok {
			if o, ok := n.Option(opt); ok && o.Label != "" {
				return o.Label
			}
		}
		return opt
	}
	if v, ok := e.RatingValue(); ok {
		return fmt.Sprintf("= %d", v)
	}
	return ""
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
