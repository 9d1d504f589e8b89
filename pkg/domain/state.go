package domain

import "time"

// AttemptState is the mutable runtime state of one respondent's run through a survey.
type AttemptState struct {
	ID       string `json:"id"`
	SurveyID string `json:"surveyId"`

	// CurrentNodeID is "" before start and after completion.
	CurrentNodeID string   `json:"currentNodeId,omitempty"`
	Answers       []Answer `json:"answers"`
	VisitedPath   []string `json:"visitedPath"`
	TotalScore    int      `json:"totalScore"`
	// ScoreDeltas holds the score applied by each answer, aligned with Answers.
	// Undo subtracts the recorded value rather than recomputing it.
	ScoreDeltas []int `json:"scoreDeltas"`
	IsCompleted   bool     `json:"isCompleted"`

	StartedAt   time.Time  `json:"startedAt,omitzero"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Sealed carries the encrypted state when the store is wrapped by an encryption layer.
	// All other fields except ID, SurveyID and IsCompleted are empty in that case.
	Sealed string `json:"sealed,omitempty"`
}

// NewAttemptState returns pristine, not yet started state.
func NewAttemptState(id, surveyID string) *AttemptState {
	return &AttemptState{
		ID:          id,
		SurveyID:    surveyID,
		Answers:     []Answer{},
		VisitedPath: []string{},
		ScoreDeltas: []int{},
	}
}

// Started reports whether the attempt has a position or has finished.
func (s *AttemptState) Started() bool {
	return s.CurrentNodeID != "" || s.IsCompleted
}

// CanGoBack reports whether the last answer can be undone.
func (s *AttemptState) CanGoBack() bool {
	return len(s.VisitedPath) > 1 && len(s.Answers) > 0
}

// Clone returns a deep copy.
func (s *AttemptState) Clone() *AttemptState {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Answers = make([]Answer, len(s.Answers))
	for i, a := range s.Answers {
		cp.Answers[i] = a.Clone()
	}
	cp.VisitedPath = append(make([]string, 0, len(s.VisitedPath)), s.VisitedPath...)
	if s.ScoreDeltas != nil {
		cp.ScoreDeltas = append(make([]int, 0, len(s.ScoreDeltas)), s.ScoreDeltas...)
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// RespondentName returns the name captured by the latest answer that carried one.
func (s *AttemptState) RespondentName() string {
	for i := len(s.Answers) - 1; i >= 0; i-- {
		if s.Answers[i].RespondentName != "" {
			return s.Answers[i].RespondentName
		}
	}
	return ""
}

// RespondentEmail returns the email captured by the latest answer that carried one.
func (s *AttemptState) RespondentEmail() string {
	for i := len(s.Answers) - 1; i >= 0; i-- {
		if s.Answers[i].RespondentEmail != "" {
			return s.Answers[i].RespondentEmail
		}
	}
	return ""
}
