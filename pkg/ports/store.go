package ports

import (
	"context"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// StateStore defines the interface for persisting attempt state.
// This allows a respondent to stop and resume an attempt, or to be served by any replica.
type StateStore interface {
	// Save persists the state for a given attempt ID.
	Save(ctx context.Context, attemptID string, state *domain.AttemptState) error

	// Load retrieves the state for a given attempt ID.
	// Returns domain.ErrSessionNotFound if the attempt does not exist.
	Load(ctx context.Context, attemptID string) (*domain.AttemptState, error)

	// Delete removes the state for a given attempt ID.
	Delete(ctx context.Context, attemptID string) error

	// List returns the IDs of all stored attempts.
	List(ctx context.Context) ([]string, error)
}
