package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// ResponseStore implements ports.ResponseStore in memory.
type ResponseStore struct {
	mu        sync.RWMutex
	responses map[string]map[string]*domain.Response
}

// NewResponseStore creates an empty response store.
func NewResponseStore() *ResponseStore {
	return &ResponseStore{responses: make(map[string]map[string]*domain.Response)}
}

func (s *ResponseStore) Save(_ context.Context, resp *domain.Response) error {
	if resp.ID == "" || resp.SurveyID == "" {
		return fmt.Errorf("response requires id and survey id")
	}
	cp := *resp

	s.mu.Lock()
	defer s.mu.Unlock()
	bySurvey, ok := s.responses[resp.SurveyID]
	if !ok {
		bySurvey = make(map[string]*domain.Response)
		s.responses[resp.SurveyID] = bySurvey
	}
	bySurvey[resp.ID] = &cp
	return nil
}

func (s *ResponseStore) Get(_ context.Context, surveyID, responseID string) (*domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.responses[surveyID][responseID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrResponseNotFound, responseID)
	}
	cp := *r
	return &cp, nil
}

func (s *ResponseStore) List(_ context.Context, surveyID string, limit, offset int) ([]*domain.Response, error) {
	s.mu.RLock()
	out := make([]*domain.Response, 0, len(s.responses[surveyID]))
	for _, r := range s.responses[surveyID] {
		cp := *r
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset > 0 {
		if offset >= len(out) {
			return []*domain.Response{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *ResponseStore) Delete(_ context.Context, surveyID, responseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.responses[surveyID][responseID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrResponseNotFound, responseID)
	}
	delete(s.responses[surveyID], responseID)
	return nil
}

func (s *ResponseStore) Count(_ context.Context, surveyID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.responses[surveyID]), nil
}
