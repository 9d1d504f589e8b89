package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/surveyflow/internal/presentation/tui"
	"github.com/aretw0/surveyflow/pkg/domain"
	"golang.org/x/term"
)

// ContentRenderer transforms markdown before output (e.g. glamour for terminals).
type ContentRenderer func(string) (string, error)

// TextHandler implements the interactive, line-based interface.
// "back" undoes the last answer and "quit" stops the run.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{Reader: bufio.NewReader(r), Writer: w}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IsTerminal reports whether w is an interactive terminal, in which case rich rendering pays off.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so that Input can honor context cancellation.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, view *View) error {
	if view.Result != nil {
		fmt.Fprintln(h.Writer, "Survey completed.")
		if view.ScoringEnabled {
			fmt.Fprintln(h.Writer, tui.Score(view.Result.TotalScore))
		}
		return nil
	}
	if view.Node == nil {
		fmt.Fprintln(h.Writer, "This survey has nothing to answer.")
		return nil
	}

	output := tui.NodeMarkdown(view.Node)
	if h.Renderer != nil {
		if rendered, err := h.Renderer(output); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(h.Writer, strings.TrimSpace(output))

	if end, ok := view.Node.EndScreen(); ok && end.ShowScore && view.ScoringEnabled {
		fmt.Fprintln(h.Writer, tui.Score(view.State.TotalScore))
	}
	if view.CanGoBack {
		fmt.Fprintln(h.Writer, "(type 'back' to change your previous answer)")
	}
	return nil
}

// Input prompts and reads one sanitized line.
func (h *TextHandler) Input(ctx context.Context, prompt string) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, prompt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) ReadCommand(ctx context.Context, node *domain.Node) (Command, error) {
	prompt := "> "
	switch node.Kind {
	case domain.KindPresentation, domain.KindEndScreen:
		if p, ok := node.Presentation(); !ok || !(p.CollectName || p.CollectEmail || p.CollectTerms) {
			prompt = "[enter] > "
		}
	case domain.KindMultipleChoice:
		prompt = "(comma separated) > "
	case domain.KindRating:
		if r, ok := node.Rating(); ok {
			prompt = fmt.Sprintf("(%d-%d) > ", r.MinValue, r.MaxValue)
		}
	}

	line, err := h.Input(ctx, prompt)
	if err != nil {
		return Command{}, err
	}
	switch strings.ToLower(line) {
	case "back":
		return Command{Back: true}, nil
	case "quit", "exit":
		return Command{Quit: true}, nil
	}

	if p, ok := node.Presentation(); ok {
		return h.readPresentation(ctx, node, p, line)
	}

	answer, err := ParseAnswer(node, line)
	if err != nil {
		return Command{}, err
	}
	return Command{Answer: answer}, nil
}

// readPresentation collects respondent details. The first line answers the first field asked.
func (h *TextHandler) readPresentation(ctx context.Context, node *domain.Node, p *domain.PresentationData, first string) (Command, error) {
	answer := domain.Answer{NodeID: node.ID}
	pending := &first

	next := func(label string) (string, error) {
		if pending != nil {
			v := *pending
			pending = nil
			return v, nil
		}
		return h.Input(ctx, label+": ")
	}

	if p.CollectName {
		v, err := next(labelOr(p.NameLabel, "Name"))
		if err != nil {
			return Command{}, err
		}
		answer.RespondentName = v
	}
	if p.CollectEmail {
		v, err := next(labelOr(p.EmailLabel, "Email"))
		if err != nil {
			return Command{}, err
		}
		answer.RespondentEmail = v
	}
	if p.CollectTerms {
		v, err := next("Accept terms? [y/N]")
		if err != nil {
			return Command{}, err
		}
		switch strings.ToLower(v) {
		case "y", "yes", "s", "sim":
			answer.AcceptedTerms = true
		}
	}
	return Command{Answer: answer}, nil
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return nil
}
