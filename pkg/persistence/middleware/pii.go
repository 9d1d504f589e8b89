package middleware

import (
	"context"
	"strings"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/ports"
)

// Mask replaces masked values.
const Mask = "***"

type piiMiddleware struct {
	next ports.StateStore
}

// NewPIIMiddleware masks respondent names and emails before they reach the store.
// Emails keep their domain so stored attempts stay useful for aggregate reporting.
// Masking is one-way: loaded attempts carry the masked values.
func NewPIIMiddleware() Middleware {
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, attemptID string, state *domain.AttemptState) error {
	// The engine keeps using the caller's copy.
	cloned := state.Clone()
	for i := range cloned.Answers {
		cloned.Answers[i].RespondentName = maskName(cloned.Answers[i].RespondentName)
		cloned.Answers[i].RespondentEmail = MaskEmail(cloned.Answers[i].RespondentEmail)
	}
	return m.next.Save(ctx, attemptID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, attemptID string) (*domain.AttemptState, error) {
	return m.next.Load(ctx, attemptID)
}

func (m *piiMiddleware) Delete(ctx context.Context, attemptID string) error {
	return m.next.Delete(ctx, attemptID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskName(name string) string {
	if name == "" {
		return ""
	}
	return Mask
}

// MaskEmail hides the local part of an address: "ana@example.com" becomes "***@example.com".
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return Mask
	}
	return Mask + email[at:]
}
