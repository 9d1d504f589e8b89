package runner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// ParseAnswer turns a line of text into an answer for node.
//
//   - single choice: option number (1-based), option id or option label
//   - multiple choice: comma or space separated numbers/ids; empty selects nothing
//   - rating: an integer
//   - presentation and end screen: any input continues
func ParseAnswer(node *domain.Node, input string) (domain.Answer, error) {
	answer := domain.Answer{NodeID: node.ID}
	input = strings.TrimSpace(input)

	switch node.Kind {
	case domain.KindSingleChoice:
		opt, err := resolveOption(node, input)
		if err != nil {
			return answer, err
		}
		answer.SelectedOptionID = opt

	case domain.KindMultipleChoice:
		fields := strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
		answer.SelectedOptionIDs = make([]string, 0, len(fields))
		for _, f := range fields {
			opt, err := resolveOption(node, f)
			if err != nil {
				return answer, err
			}
			answer.SelectedOptionIDs = append(answer.SelectedOptionIDs, opt)
		}

	case domain.KindRating:
		v, err := strconv.Atoi(input)
		if err != nil {
			return answer, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidAnswer, input)
		}
		answer.RatingValue = domain.Rating(v)
	}

	return answer, nil
}

func resolveOption(node *domain.Node, token string) (string, error) {
	opts := node.Options()
	if n, err := strconv.Atoi(token); err == nil {
		if n < 1 || n > len(opts) {
			return "", fmt.Errorf("%w: choose a number between 1 and %d", domain.ErrInvalidAnswer, len(opts))
		}
		return opts[n-1].ID, nil
	}
	for _, o := range opts {
		if o.ID == token || strings.EqualFold(o.Label, token) {
			return o.ID, nil
		}
	}
	return "", fmt.Errorf("%w: unknown option %q", domain.ErrInvalidAnswer, token)
}
