package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/surveyflow/pkg/adapters/memory"
	"github.com/aretw0/surveyflow/pkg/domain"
)

// Builder manages the survey construction. Nodes keep their declaration order.
type Builder struct {
	survey domain.Survey
	nodes  []*NodeBuilder
	index  map[string]*NodeBuilder
	errs   []error
}

// New creates a survey builder.
func New(id, title string) *Builder {
	return &Builder{
		survey: domain.Survey{ID: id, Title: title, Status: domain.SurveyDraft},
		index:  make(map[string]*NodeBuilder),
	}
}

// Describe sets the survey description.
func (b *Builder) Describe(description string) *Builder {
	b.survey.Description = description
	return b
}

// Scoring enables score accumulation.
func (b *Builder) Scoring() *Builder {
	b.survey.EnableScoring = true
	return b
}

// Publish marks the survey as accepting respondents.
func (b *Builder) Publish() *Builder {
	b.survey.Status = domain.SurveyPublished
	return b
}

// TimeLimit sets the advisory time limit in minutes.
func (b *Builder) TimeLimit(minutes int) *Builder {
	b.survey.TimeLimit = minutes
	return b
}

// Presentation adds an intro screen.
func (b *Builder) Presentation(id, title string) *NodeBuilder {
	return b.add(id, domain.KindPresentation, &domain.PresentationData{Title: title})
}

// SingleChoice adds a question answered with exactly one option.
func (b *Builder) SingleChoice(id, title string) *NodeBuilder {
	return b.add(id, domain.KindSingleChoice, &domain.ChoiceData{Title: title})
}

// MultipleChoice adds a question answered with any number of options.
func (b *Builder) MultipleChoice(id, title string) *NodeBuilder {
	return b.add(id, domain.KindMultipleChoice, &domain.ChoiceData{Title: title})
}

// Rating adds a question answered with an integer in [minValue, maxValue].
func (b *Builder) Rating(id, title string, minValue, maxValue int) *NodeBuilder {
	return b.add(id, domain.KindRating, &domain.RatingData{Title: title, MinValue: minValue, MaxValue: maxValue})
}

// End adds a terminal screen.
func (b *Builder) End(id, title string) *NodeBuilder {
	return b.add(id, domain.KindEndScreen, &domain.EndScreenData{Title: title})
}

func (b *Builder) add(id string, kind domain.NodeKind, data domain.NodeData) *NodeBuilder {
	if _, ok := b.index[id]; ok {
		b.errs = append(b.errs, fmt.Errorf("duplicate node %q", id))
	}
	nb := &NodeBuilder{node: domain.NewNode(id, kind, data), builder: b}
	b.nodes = append(b.nodes, nb)
	b.index[id] = nb
	return nb
}

// Build returns the survey, or every construction error joined.
func (b *Builder) Build() (*domain.Survey, error) {
	errs := append([]error(nil), b.errs...)

	survey := b.survey
	survey.Nodes = make([]domain.Node, 0, len(b.nodes))
	survey.Edges = nil
	for _, nb := range b.nodes {
		survey.Nodes = append(survey.Nodes, nb.node)
		for _, e := range nb.edges {
			if _, ok := b.index[e.Target]; !ok {
				errs = append(errs, fmt.Errorf("edge %s -> %s: unknown target", e.Source, e.Target))
			}
			survey.Edges = append(survey.Edges, e)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("failed to build survey %q: %w", b.survey.ID, err)
	}
	return &survey, nil
}

// Loader builds the survey and serves it from memory.
func (b *Builder) Loader() (*memory.Loader, error) {
	survey, err := b.Build()
	if err != nil {
		return nil, err
	}
	return memory.NewLoader(survey), nil
}
