package runner

import (
	"context"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// Command is what the respondent asked for at a prompt.
type Command struct {
	// Back requests undoing the last answer.
	Back bool
	// Quit stops the run, keeping the attempt resumable.
	Quit   bool
	Answer domain.Answer
}

// IOHandler defines the strategy for interacting with the respondent.
// This allows switching between Text (CLI/TUI) and JSON (structured) modes.
type IOHandler interface {
	// Output presents the current node, or the result once the attempt is completed.
	Output(ctx context.Context, view *View) error

	// ReadCommand reads the respondent's command for node.
	// It returns io.EOF when the input is exhausted.
	ReadCommand(ctx context.Context, node *domain.Node) (Command, error)

	// SystemOutput presents a meta-message (validation errors, status updates).
	SystemOutput(ctx context.Context, msg string) error
}
