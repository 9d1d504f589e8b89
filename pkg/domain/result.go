package domain

import "time"

// Result is the artifact of a completed attempt, handed to persistence.
type Result struct {
	SurveyID    string    `json:"surveyId"`
	AttemptID   string    `json:"attemptId,omitempty"`
	Answers     []Answer  `json:"answers"`
	TotalScore  int       `json:"totalScore"`
	Path        []string  `json:"path"`
	CompletedAt time.Time `json:"completedAt"`
}

// Response is a stored result.
type Response struct {
	ID              string    `json:"id"`
	SurveyID        string    `json:"surveyId"`
	Answers         []Answer  `json:"answers"`
	TotalScore      int       `json:"totalScore"`
	Path            []string  `json:"path"`
	RespondentName  string    `json:"respondentName,omitempty"`
	RespondentEmail string    `json:"respondentEmail,omitempty"`
	CompletedAt     time.Time `json:"completedAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewResponse turns a result into a response record, lifting respondent details
// from the answers that captured them.
func NewResponse(id string, r *Result, now time.Time) *Response {
	resp := &Response{
		ID:          id,
		SurveyID:    r.SurveyID,
		Answers:     r.Answers,
		TotalScore:  r.TotalScore,
		Path:        r.Path,
		CompletedAt: r.CompletedAt,
		CreatedAt:   now,
	}
	if resp.CompletedAt.IsZero() {
		resp.CompletedAt = now
	}
	for _, a := range r.Answers {
		if a.RespondentName != "" {
			resp.RespondentName = a.RespondentName
		}
		if a.RespondentEmail != "" {
			resp.RespondentEmail = a.RespondentEmail
		}
	}
	return resp
}
