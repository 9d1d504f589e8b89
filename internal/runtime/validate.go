package runtime

import (
	"fmt"
	"net/mail"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// ValidateAnswer checks that an answer makes sense for the attempt's current node.
// The engine never rejects answers on its own; transports call this to turn
// malformed input into client errors. Errors wrap domain.ErrInvalidAnswer.
func ValidateAnswer(g *domain.Graph, state *domain.AttemptState, answer *domain.Answer) error {
	if state.IsCompleted {
		return fmt.Errorf("%w: attempt already completed", domain.ErrInvalidAnswer)
	}
	if state.CurrentNodeID == "" {
		return fmt.Errorf("%w: attempt not started", domain.ErrInvalidAnswer)
	}
	if answer.NodeID != state.CurrentNodeID {
		return fmt.Errorf("%w: answer for %q but current node is %q", domain.ErrInvalidAnswer, answer.NodeID, state.CurrentNodeID)
	}

	node, ok := g.NodeByID(answer.NodeID)
	if !ok {
		return fmt.Errorf("%w: unknown node %q", domain.ErrInvalidAnswer, answer.NodeID)
	}

	switch d := node.Data.(type) {
	case *domain.PresentationData:
		return validatePresentation(d, answer)

	case *domain.ChoiceData:
		if node.Kind == domain.KindSingleChoice {
			if answer.SelectedOptionID == "" {
				return fmt.Errorf("%w: %s requires selectedOptionId", domain.ErrInvalidAnswer, node.ID)
			}
			if _, ok := node.Option(answer.SelectedOptionID); !ok {
				return fmt.Errorf("%w: unknown option %q", domain.ErrInvalidAnswer, answer.SelectedOptionID)
			}
			return nil
		}
		if answer.SelectedOptionIDs == nil {
			return fmt.Errorf("%w: %s requires selectedOptionIds", domain.ErrInvalidAnswer, node.ID)
		}
		seen := make(map[string]bool, len(answer.SelectedOptionIDs))
		for _, id := range answer.SelectedOptionIDs {
			if _, ok := node.Option(id); !ok {
				return fmt.Errorf("%w: unknown option %q", domain.ErrInvalidAnswer, id)
			}
			if seen[id] {
				return fmt.Errorf("%w: option %q selected twice", domain.ErrInvalidAnswer, id)
			}
			seen[id] = true
		}
		return nil

	case *domain.RatingData:
		if answer.RatingValue == nil {
			return fmt.Errorf("%w: %s requires ratingValue", domain.ErrInvalidAnswer, node.ID)
		}
		if v := *answer.RatingValue; v < d.MinValue || v > d.MaxValue {
			return fmt.Errorf("%w: rating %d outside [%d, %d]", domain.ErrInvalidAnswer, v, d.MinValue, d.MaxValue)
		}
		return nil

	case *domain.EndScreenData:
		return nil
	}

	return fmt.Errorf("%w: node %s has no payload", domain.ErrInvalidAnswer, node.ID)
}

func validatePresentation(d *domain.PresentationData, answer *domain.Answer) error {
	if d.CollectName && d.NameRequired && answer.RespondentName == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidAnswer)
	}
	if d.CollectEmail && answer.RespondentEmail != "" {
		if _, err := mail.ParseAddress(answer.RespondentEmail); err != nil {
			return fmt.Errorf("%w: invalid email: %v", domain.ErrInvalidAnswer, err)
		}
	}
	if d.CollectEmail && d.EmailRequired && answer.RespondentEmail == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidAnswer)
	}
	if d.CollectTerms && d.TermsRequired && !answer.AcceptedTerms {
		return fmt.Errorf("%w: terms must be accepted", domain.ErrInvalidAnswer)
	}
	return nil
}
