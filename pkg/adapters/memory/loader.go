package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// Loader implements ports.SurveyLoader over an in-memory map.
// Safe for concurrent use.
type Loader struct {
	mu      sync.RWMutex
	surveys map[string]*domain.Survey
}

// NewLoader creates a loader from domain objects.
func NewLoader(surveys ...*domain.Survey) *Loader {
	l := &Loader{surveys: make(map[string]*domain.Survey, len(surveys))}
	for _, s := range surveys {
		l.surveys[s.ID] = s
	}
	return l
}

// NewLoaderFromJSON creates a loader from raw survey documents keyed by id.
// A document without an "id" takes the key.
func NewLoaderFromJSON(docs map[string]string) (*Loader, error) {
	l := &Loader{surveys: make(map[string]*domain.Survey, len(docs))}
	for id, raw := range docs {
		var s domain.Survey
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("failed to decode survey %s: %w", id, err)
		}
		if s.ID == "" {
			s.ID = id
		}
		l.surveys[s.ID] = &s
	}
	return l, nil
}

// Put adds or replaces a survey.
func (l *Loader) Put(s *domain.Survey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.surveys[s.ID] = s
}

// GetSurvey returns a copy of the survey header; the graph itself is shared and read-only.
func (l *Loader) GetSurvey(_ context.Context, id string) (*domain.Survey, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.surveys[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSurveyNotFound, id)
	}
	cp := *s
	return &cp, nil
}

// ListSurveys returns all survey ids, sorted.
func (l *Loader) ListSurveys(_ context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, 0, len(l.surveys))
	for id := range l.surveys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
