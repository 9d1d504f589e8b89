package surveyflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/surveyflow/internal/runtime"
	"github.com/aretw0/surveyflow/pkg/domain"
)

// Attempt is one respondent's run through a survey.
// It owns its state exclusively; concurrent attempts share nothing but the immutable survey.
// Methods are safe for concurrent use.
type Attempt struct {
	runtime *runtime.Engine
	survey  *domain.Survey

	mu    sync.Mutex
	state *domain.AttemptState
}

// NewAttempt builds a standalone attempt over an in-memory survey.
func NewAttempt(survey *domain.Survey, attemptID string, opts ...Option) *Attempt {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	eng.init()
	return newAttempt(eng.runtime, survey, attemptID)
}

func newAttempt(rt *runtime.Engine, survey *domain.Survey, attemptID string) *Attempt {
	return &Attempt{
		runtime: rt,
		survey:  survey,
		state:   domain.NewAttemptState(attemptID, survey.ID),
	}
}

// Survey returns the survey the attempt runs over.
func (a *Attempt) Survey() *domain.Survey {
	return a.survey
}

// Start positions the attempt on the entry node, discarding any prior progress.
func (a *Attempt) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = a.runtime.Start(ctx, &a.survey.Graph, a.state.ID, a.survey.ID)
}

// Answer records an answer for the current node and advances.
func (a *Attempt) Answer(ctx context.Context, answer domain.Answer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = a.runtime.Answer(ctx, &a.survey.Graph, a.state, answer)
}

// Validate checks an answer against the current node without applying it.
func (a *Attempt) Validate(answer domain.Answer) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return runtime.ValidateAnswer(&a.survey.Graph, a.state, &answer)
}

// GoBack undoes the last answer. It does nothing when CanGoBack is false.
func (a *Attempt) GoBack(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = a.runtime.GoBack(ctx, &a.survey.Graph, a.state)
}

// Reset clears all progress.
func (a *Attempt) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = a.runtime.Reset(a.state)
}

// CurrentNode returns the node awaiting an answer, or nil.
func (a *Attempt) CurrentNode() *domain.Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runtime.CurrentNode(&a.survey.Graph, a.state)
}

// CanGoBack reports whether GoBack would undo an answer.
func (a *Attempt) CanGoBack() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.state.IsCompleted && a.state.CanGoBack()
}

// IsCompleted reports whether the attempt has finished.
func (a *Attempt) IsCompleted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.IsCompleted
}

// Result returns the final artifact, or nil while the attempt is in progress.
func (a *Attempt) Result() *domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runtime.Result(a.state)
}

// State returns a snapshot of the attempt state, suitable for persistence.
func (a *Attempt) State() *domain.AttemptState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Clone()
}

// Restore replaces the attempt state with a persisted snapshot of the same survey.
func (a *Attempt) Restore(state *domain.AttemptState) error {
	if state == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrSessionNotFound)
	}
	if state.SurveyID != a.survey.ID {
		return fmt.Errorf("snapshot belongs to survey %q, not %q", state.SurveyID, a.survey.ID)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = state.Clone()
	return nil
}
