package domain

import "time"

// Answer is the respondent's input for one node.
// At most one of SelectedOptionID, SelectedOptionIDs and RatingValue is expected to be set;
// an answer carrying none of them is a "no choice" answer (e.g. a presentation screen).
type Answer struct {
	NodeID            string   `json:"nodeId"`
	SelectedOptionID  string   `json:"selectedOptionId,omitempty"`
	SelectedOptionIDs []string `json:"selectedOptionIds,omitempty"`
	RatingValue       *int     `json:"ratingValue,omitempty"`

	RespondentName  string `json:"respondentName,omitempty"`
	RespondentEmail string `json:"respondentEmail,omitempty"`
	AcceptedTerms   bool   `json:"acceptedTerms,omitempty"`

	AnsweredAt time.Time `json:"answeredAt,omitzero"`
}

// ChoiceShape classifies which discriminator an answer carries.
type ChoiceShape int

const (
	ShapeNone ChoiceShape = iota
	ShapeSingle
	ShapeMultiple
	ShapeRating
)

// Shape reports the discriminator carried by the answer, in resolution precedence.
// A non-nil SelectedOptionIDs counts as a multi-select even when empty.
func (a *Answer) Shape() ChoiceShape {
	switch {
	case a.SelectedOptionID != "":
		return ShapeSingle
	case a.SelectedOptionIDs != nil:
		return ShapeMultiple
	case a.RatingValue != nil:
		return ShapeRating
	}
	return ShapeNone
}

// Clone returns a deep copy.
func (a Answer) Clone() Answer {
	if a.SelectedOptionIDs != nil {
		a.SelectedOptionIDs = append([]string{}, a.SelectedOptionIDs...)
	}
	if a.RatingValue != nil {
		v := *a.RatingValue
		a.RatingValue = &v
	}
	return a
}

// Rating builds a pointer for Answer.RatingValue.
func Rating(v int) *int {
	return &v
}
