package dsl

import (
	"fmt"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node and its outgoing edges.
// The node-adding methods of Builder are repeated here so a whole survey reads as one chain.
type NodeBuilder struct {
	node    domain.Node
	edges   []domain.Edge
	builder *Builder
}

// Describe sets the node description.
func (n *NodeBuilder) Describe(description string) *NodeBuilder {
	switch d := n.node.Data.(type) {
	case *domain.PresentationData:
		d.Description = description
	case *domain.ChoiceData:
		d.Description = description
	case *domain.RatingData:
		d.Description = description
	case *domain.EndScreenData:
		d.Description = description
	}
	return n
}

// Option appends a selectable answer to a choice node.
func (n *NodeBuilder) Option(id, label string, score int) *NodeBuilder {
	d, ok := n.node.Data.(*domain.ChoiceData)
	if !ok {
		return n.fail("options need a choice node")
	}
	d.Options = append(d.Options, domain.Option{ID: id, Label: label, Score: score})
	return n
}

// Labels sets the captions of the rating bounds.
func (n *NodeBuilder) Labels(minLabel, maxLabel string) *NodeBuilder {
	d, ok := n.node.Data.(*domain.RatingData)
	if !ok {
		return n.fail("labels need a rating node")
	}
	d.MinLabel, d.MaxLabel = minLabel, maxLabel
	return n
}

// Button sets the text of the continue button of a presentation node.
func (n *NodeBuilder) Button(text string) *NodeBuilder {
	if d, ok := n.presentation(); ok {
		d.ButtonText = text
	}
	return n
}

// CollectName asks the respondent for a name.
func (n *NodeBuilder) CollectName(required bool) *NodeBuilder {
	if d, ok := n.presentation(); ok {
		d.CollectName, d.NameRequired = true, required
	}
	return n
}

// CollectEmail asks the respondent for an email address.
func (n *NodeBuilder) CollectEmail(required bool) *NodeBuilder {
	if d, ok := n.presentation(); ok {
		d.CollectEmail, d.EmailRequired = true, required
	}
	return n
}

// Terms asks the respondent to accept terms.
func (n *NodeBuilder) Terms(text, url string, required bool) *NodeBuilder {
	if d, ok := n.presentation(); ok {
		d.CollectTerms, d.TermsText, d.TermsURL, d.TermsRequired = true, text, url, required
	}
	return n
}

// ShowScore displays the final score on an end screen.
func (n *NodeBuilder) ShowScore() *NodeBuilder {
	d, ok := n.node.Data.(*domain.EndScreenData)
	if !ok {
		return n.fail("showScore needs an end screen")
	}
	d.ShowScore = true
	return n
}

// Go adds the default edge to target.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.edges = append(n.edges, domain.DefaultEdge(n.node.ID, target))
	return n
}

// When adds an edge taken when optionID is selected.
func (n *NodeBuilder) When(optionID, target string) *NodeBuilder {
	if _, ok := n.node.Option(optionID); !ok {
		return n.fail(fmt.Sprintf("unknown option %q", optionID))
	}
	n.edges = append(n.edges, domain.OptionEdge(n.node.ID, target, optionID))
	return n
}

// WhenRating adds an edge taken when the rating equals value.
func (n *NodeBuilder) WhenRating(value int, target string) *NodeBuilder {
	if _, ok := n.node.Rating(); !ok {
		return n.fail("rating edges need a rating node")
	}
	n.edges = append(n.edges, domain.RatingEdge(n.node.ID, target, value))
	return n
}

// Presentation adds the next node to the survey.
func (n *NodeBuilder) Presentation(id, title string) *NodeBuilder {
	return n.builder.Presentation(id, title)
}

// SingleChoice adds the next node to the survey.
func (n *NodeBuilder) SingleChoice(id, title string) *NodeBuilder {
	return n.builder.SingleChoice(id, title)
}

// MultipleChoice adds the next node to the survey.
func (n *NodeBuilder) MultipleChoice(id, title string) *NodeBuilder {
	return n.builder.MultipleChoice(id, title)
}

// Rating adds the next node to the survey.
func (n *NodeBuilder) Rating(id, title string, minValue, maxValue int) *NodeBuilder {
	return n.builder.Rating(id, title, minValue, maxValue)
}

// End adds the next node to the survey.
func (n *NodeBuilder) End(id, title string) *NodeBuilder {
	return n.builder.End(id, title)
}

// Build finishes the whole survey.
func (n *NodeBuilder) Build() (*domain.Survey, error) {
	return n.builder.Build()
}

// Node returns a copy of the node under construction.
func (n *NodeBuilder) Node() domain.Node {
	return n.node
}

func (n *NodeBuilder) presentation() (*domain.PresentationData, bool) {
	d, ok := n.node.Presentation()
	if !ok {
		n.fail("respondent fields need a presentation node")
	}
	return d, ok
}

func (n *NodeBuilder) fail(msg string) *NodeBuilder {
	n.builder.errs = append(n.builder.errs, fmt.Errorf("node %q: %s", n.node.ID, msg))
	return n
}
