package runtime_test

import (
	"testing"

	"github.com/aretw0/surveyflow/internal/runtime"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidateAnswer(t *testing.T) {
	g := questionnaire()
	intro, _ := g.NodeByID("intro")
	p, _ := intro.Presentation()
	p.NameRequired = true
	p.CollectEmail = true
	p.CollectTerms = true
	p.TermsRequired = true

	at := func(node string) *domain.AttemptState {
		return &domain.AttemptState{CurrentNodeID: node, VisitedPath: []string{node}}
	}

	tests := []struct {
		name    string
		state   *domain.AttemptState
		answer  domain.Answer
		wantErr bool
	}{
		{"valid presentation", at("intro"), domain.Answer{NodeID: "intro", RespondentName: "Ana", RespondentEmail: "ana@example.com", AcceptedTerms: true}, false},
		{"missing required name", at("intro"), domain.Answer{NodeID: "intro", AcceptedTerms: true}, true},
		{"bad email", at("intro"), domain.Answer{NodeID: "intro", RespondentName: "Ana", RespondentEmail: "nope", AcceptedTerms: true}, true},
		{"terms not accepted", at("intro"), domain.Answer{NodeID: "intro", RespondentName: "Ana"}, true},
		{"wrong node", at("single"), domain.Answer{NodeID: "intro"}, true},
		{"completed", &domain.AttemptState{IsCompleted: true}, domain.Answer{NodeID: "intro"}, true},
		{"not started", &domain.AttemptState{}, domain.Answer{NodeID: "intro"}, true},
		{"single ok", at("single"), domain.Answer{NodeID: "single", SelectedOptionID: "a"}, false},
		{"single unknown option", at("single"), domain.Answer{NodeID: "single", SelectedOptionID: "zz"}, true},
		{"single missing option", at("single"), domain.Answer{NodeID: "single"}, true},
		{"multi ok", at("multi"), domain.Answer{NodeID: "multi", SelectedOptionIDs: []string{"m1", "m3"}}, false},
		{"multi empty selection ok", at("multi"), domain.Answer{NodeID: "multi", SelectedOptionIDs: []string{}}, false},
		{"multi duplicate", at("multi"), domain.Answer{NodeID: "multi", SelectedOptionIDs: []string{"m1", "m1"}}, true},
		{"multi missing", at("multi"), domain.Answer{NodeID: "multi"}, true},
		{"rating ok", at("rate"), domain.Answer{NodeID: "rate", RatingValue: domain.Rating(5)}, false},
		{"rating out of range", at("rate"), domain.Answer{NodeID: "rate", RatingValue: domain.Rating(6)}, true},
		{"rating missing", at("rate"), domain.Answer{NodeID: "rate"}, true},
		{"end screen", at("end"), domain.Answer{NodeID: "end"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runtime.ValidateAnswer(g, tt.state, &tt.answer)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
