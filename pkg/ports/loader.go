package ports

import (
	"context"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// SurveyLoader defines how the engine retrieves survey documents.
// This allows the storage layer (Loam, Memory) to be decoupled.
type SurveyLoader interface {
	// GetSurvey retrieves a survey by id.
	// Returns domain.ErrSurveyNotFound if the survey does not exist.
	GetSurvey(ctx context.Context, id string) (*domain.Survey, error)

	// ListSurveys returns the ids of all available surveys.
	ListSurveys(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that receives the id of each survey that changed.
	Watch(ctx context.Context) (<-chan string, error)
}
