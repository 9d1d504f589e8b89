package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Style follows the terminal background. If glamour cannot initialize, markdown is returned as is.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// NodeMarkdown describes a node as markdown: title, description and the expected input.
func NodeMarkdown(n *domain.Node) string {
	var sb strings.Builder
	if title := n.Title(); title != "" {
		fmt.Fprintf(&sb, "## %s\n\n", title)
	}
	if desc := n.Description(); desc != "" {
		fmt.Fprintf(&sb, "%s\n\n", desc)
	}

	switch n.Kind {
	case domain.KindSingleChoice, domain.KindMultipleChoice:
		for i, o := range n.Options() {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, o.Label)
		}
	case domain.KindRating:
		if r, ok := n.Rating(); ok {
			scale := fmt.Sprintf("%d to %d", r.MinValue, r.MaxValue)
			if r.MinLabel != "" || r.MaxLabel != "" {
				scale = fmt.Sprintf("%d (%s) to %d (%s)", r.MinValue, r.MinLabel, r.MaxValue, r.MaxLabel)
			}
			fmt.Fprintf(&sb, "_Scale: %s_\n", scale)
		}
	case domain.KindPresentation:
		if p, ok := n.Presentation(); ok && p.CollectTerms && p.TermsText != "" {
			fmt.Fprintf(&sb, "> %s\n", p.TermsText)
		}
	}
	return sb.String()
}
