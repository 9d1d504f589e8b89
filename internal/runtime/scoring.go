package runtime

import "github.com/aretw0/surveyflow/pkg/domain"

// ScoreDelta computes the contribution of one answer to the attempt score.
// It is used both when applying an answer and when undoing it, so the running
// total always equals the sum over the answers currently held.
func ScoreDelta(g *domain.Graph, answer *domain.Answer) int {
	if g == nil || !g.EnableScoring {
		return 0
	}

	node, found := g.NodeByID(answer.NodeID)
	delta := 0

	if answer.SelectedOptionID != "" && found &&
		(node.Kind == domain.KindSingleChoice || node.Kind == domain.KindMultipleChoice) {
		if opt, ok := node.Option(answer.SelectedOptionID); ok {
			delta = opt.Score
		}
	}

	if answer.SelectedOptionIDs != nil && found && node.Kind == domain.KindMultipleChoice {
		for _, id := range answer.SelectedOptionIDs {
			if opt, ok := node.Option(id); ok {
				delta += opt.Score
			}
		}
	}

	// A rating is its own score.
	if answer.RatingValue != nil {
		delta = *answer.RatingValue
	}

	return delta
}
