package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// JSONHandler implements IOHandler over JSON Lines.
// Every Output is one line holding a View. Input lines are either an Answer object,
// the string "back" or "quit", or a plain value parsed like text input.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, view *View) error {
	return h.Encoder.Encode(view)
}

func (h *JSONHandler) ReadCommand(ctx context.Context, node *domain.Node) (Command, error) {
	for {
		line, err := h.Reader.ReadString('\n')
		text := strings.TrimSpace(line)
		if text == "" {
			if err != nil {
				return Command{}, err
			}
			continue
		}

		clean, serr := SanitizeInput(text)
		if serr != nil {
			return Command{}, serr
		}
		return parseJSONCommand(node, clean)
	}
}

func parseJSONCommand(node *domain.Node, text string) (Command, error) {
	if strings.HasPrefix(text, "{") {
		var answer domain.Answer
		if err := json.Unmarshal([]byte(text), &answer); err != nil {
			return Command{}, err
		}
		if answer.NodeID == "" {
			answer.NodeID = node.ID
		}
		return Command{Answer: answer}, nil
	}

	// Unquote JSON strings and numbers; anything else is taken verbatim.
	var val any
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		switch v := val.(type) {
		case string:
			text = v
		case float64:
			text = strings.TrimSpace(text)
		}
	}

	switch strings.ToLower(text) {
	case "back":
		return Command{Back: true}, nil
	case "quit", "exit":
		return Command{Quit: true}, nil
	}

	answer, err := ParseAnswer(node, text)
	if err != nil {
		return Command{}, err
	}
	return Command{Answer: answer}, nil
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(map[string]string{"system": msg})
}
