package ports

import (
	"context"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// FlowEngine is the stateless survey engine consumed by transport adapters (HTTP, MCP, runner).
// Attempt state is owned by the caller and passed in on every call; returned states are new values.
type FlowEngine interface {
	// Survey loads a survey document by id.
	Survey(ctx context.Context, surveyID string) (*domain.Survey, error)

	// Start creates a fresh attempt positioned on the survey's entry node.
	Start(ctx context.Context, surveyID, attemptID string) (*domain.AttemptState, error)

	// Validate reports whether answer is acceptable for the attempt's current node.
	// Errors wrap domain.ErrInvalidAnswer.
	Validate(ctx context.Context, state *domain.AttemptState, answer domain.Answer) error

	// Answer applies an answer and advances the attempt.
	Answer(ctx context.Context, state *domain.AttemptState, answer domain.Answer) (*domain.AttemptState, error)

	// Back undoes the last answer.
	Back(ctx context.Context, state *domain.AttemptState) (*domain.AttemptState, error)

	// Reset returns the attempt to its pristine, not started form.
	Reset(ctx context.Context, state *domain.AttemptState) (*domain.AttemptState, error)

	// CurrentNode resolves the node awaiting an answer, or nil.
	CurrentNode(ctx context.Context, state *domain.AttemptState) (*domain.Node, error)

	// Result returns the final artifact. It returns domain.ErrNotCompleted for unfinished attempts.
	Result(state *domain.AttemptState) (*domain.Result, error)
}
