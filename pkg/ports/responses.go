package ports

import (
	"context"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// ResponseStore persists finished attempts and owns the per-survey response count.
type ResponseStore interface {
	// Save stores a response and increments its survey's response count atomically.
	Save(ctx context.Context, resp *domain.Response) error

	// Get returns one response. Returns domain.ErrResponseNotFound if absent.
	Get(ctx context.Context, surveyID, responseID string) (*domain.Response, error)

	// List returns responses of a survey, newest first.
	// A limit of zero or less means no limit.
	List(ctx context.Context, surveyID string, limit, offset int) ([]*domain.Response, error)

	// Delete removes a response and decrements the response count atomically.
	// Returns domain.ErrResponseNotFound if absent.
	Delete(ctx context.Context, surveyID, responseID string) error

	// Count returns the number of stored responses of a survey.
	Count(ctx context.Context, surveyID string) (int, error)
}

// ResultPublisher announces stored responses to downstream consumers.
type ResultPublisher interface {
	Publish(ctx context.Context, resp *domain.Response) error
}
