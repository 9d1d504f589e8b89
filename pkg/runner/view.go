package runner

import (
	"context"
	"errors"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/ports"
)

// View combines an attempt with what a client needs to render it (Web, MCP, terminal).
type View struct {
	State          *domain.AttemptState `json:"state"`
	Node           *domain.Node         `json:"node,omitempty"`
	CanGoBack      bool                 `json:"canGoBack"`
	ScoringEnabled bool                 `json:"scoringEnabled"`
	Result         *domain.Result       `json:"result,omitempty"`
}

// BuildView resolves the current node (or the result) of state.
func BuildView(ctx context.Context, engine ports.FlowEngine, state *domain.AttemptState) (*View, error) {
	survey, err := engine.Survey(ctx, state.SurveyID)
	if err != nil {
		return nil, err
	}

	v := &View{
		State:          state,
		CanGoBack:      !state.IsCompleted && state.CanGoBack(),
		ScoringEnabled: survey.EnableScoring,
	}
	if n, ok := survey.NodeByID(state.CurrentNodeID); ok {
		v.Node = n
	}

	res, err := engine.Result(state)
	switch {
	case err == nil:
		v.Result = res
	case !errors.Is(err, domain.ErrNotCompleted):
		return nil, err
	}
	return v, nil
}

// AnswerAndView validates and applies an answer, then renders the resulting state.
// Invalid answers leave the state untouched and return an error wrapping domain.ErrInvalidAnswer.
func AnswerAndView(ctx context.Context, engine ports.FlowEngine, state *domain.AttemptState, answer domain.Answer) (*View, error) {
	if answer.NodeID == "" {
		answer.NodeID = state.CurrentNodeID
	}
	if err := engine.Validate(ctx, state, answer); err != nil {
		return nil, err
	}
	next, err := engine.Answer(ctx, state, answer)
	if err != nil {
		return nil, err
	}
	return BuildView(ctx, engine, next)
}

// BackAndView undoes the last answer and renders the resulting state.
func BackAndView(ctx context.Context, engine ports.FlowEngine, state *domain.AttemptState) (*View, error) {
	next, err := engine.Back(ctx, state)
	if err != nil {
		return nil, err
	}
	return BuildView(ctx, engine, next)
}
