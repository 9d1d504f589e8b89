package runtime

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// Engine is the survey flow state machine.
// It holds no attempt state of its own: every operation takes the current
// AttemptState and returns a new one, leaving the input untouched.
type Engine struct {
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	maxSteps int
	now      func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxSteps bounds the length of the visited path. When an answer would
// advance past the limit, the attempt completes instead. Zero disables the guard.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.maxSteps = n
		}
	}
}

// WithClock overrides the time source used for answer and completion stamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start creates the initial state of an attempt over g.
// It always replaces any prior state. An empty graph yields a state with no current node.
func (e *Engine) Start(ctx context.Context, g *domain.Graph, attemptID, surveyID string) *domain.AttemptState {
	state := domain.NewAttemptState(attemptID, surveyID)
	state.StartedAt = e.now()

	entry := g.EntryNodeID()
	if entry == "" {
		e.logger.WarnContext(ctx, "survey has no nodes", "attempt", attemptID, "survey", surveyID)
		return state
	}

	state.CurrentNodeID = entry
	state.VisitedPath = append(state.VisitedPath, entry)

	e.logger.DebugContext(ctx, "attempt started", "attempt", attemptID, "survey", surveyID, "entry", entry)
	e.emitNodeEnter(ctx, state, g, entry)
	return state
}

// Answer applies an answer to the current node and advances the attempt.
// Answering before start or after completion is a no-op.
func (e *Engine) Answer(ctx context.Context, g *domain.Graph, current *domain.AttemptState, answer domain.Answer) *domain.AttemptState {
	if current.IsCompleted || current.CurrentNodeID == "" {
		e.logger.DebugContext(ctx, "answer ignored", "attempt", current.ID, "completed", current.IsCompleted)
		return current.Clone()
	}

	next := current.Clone()
	fromID := next.CurrentNodeID

	answer = answer.Clone()
	if answer.AnsweredAt.IsZero() {
		answer.AnsweredAt = e.now()
	}
	next.Answers = append(next.Answers, answer)

	delta := ScoreDelta(g, &answer)
	next.TotalScore += delta
	if len(next.ScoreDeltas) == len(next.Answers)-1 {
		next.ScoreDeltas = append(next.ScoreDeltas, delta)
	}

	e.logger.DebugContext(ctx, "answer applied",
		"attempt", next.ID, "node", fromID, "delta", delta, "total", next.TotalScore)
	e.emitAnswer(ctx, domain.EventAnswer, e.hooks.OnAnswer, next, answer, delta)
	e.emitNodeLeave(ctx, next, g, fromID)

	targetID, ok := ResolveNextNodeID(g, fromID, &answer)
	if !ok {
		return e.complete(ctx, next)
	}

	if e.maxSteps > 0 && len(next.VisitedPath) >= e.maxSteps {
		e.logger.WarnContext(ctx, "step limit reached, completing attempt",
			"attempt", next.ID, "node", fromID, "target", targetID, "max_steps", e.maxSteps)
		return e.complete(ctx, next)
	}

	next.CurrentNodeID = targetID
	next.VisitedPath = append(next.VisitedPath, targetID)
	e.emitNodeEnter(ctx, next, g, targetID)
	return next
}

// GoBack undoes the last answer, restoring score, path and position.
// It is a no-op when there is nothing to undo or the attempt is completed.
func (e *Engine) GoBack(ctx context.Context, g *domain.Graph, current *domain.AttemptState) *domain.AttemptState {
	if current.IsCompleted || !current.CanGoBack() {
		e.logger.DebugContext(ctx, "back ignored", "attempt", current.ID, "path_len", len(current.VisitedPath))
		return current.Clone()
	}

	next := current.Clone()
	last := next.Answers[len(next.Answers)-1]
	var delta int
	if n := len(next.ScoreDeltas); n > 0 && n == len(next.Answers) {
		delta = next.ScoreDeltas[n-1]
		next.ScoreDeltas = next.ScoreDeltas[:n-1]
	} else {
		// States saved without recorded deltas.
		delta = ScoreDelta(g, &last)
	}

	e.emitNodeLeave(ctx, next, g, next.CurrentNodeID)

	next.TotalScore -= delta
	next.VisitedPath = next.VisitedPath[:len(next.VisitedPath)-1]
	next.CurrentNodeID = next.VisitedPath[len(next.VisitedPath)-1]
	next.Answers = next.Answers[:len(next.Answers)-1]

	e.logger.DebugContext(ctx, "answer undone",
		"attempt", next.ID, "node", next.CurrentNodeID, "delta", -delta, "total", next.TotalScore)
	e.emitAnswer(ctx, domain.EventBack, e.hooks.OnBack, next, last, -delta)
	e.emitNodeEnter(ctx, next, g, next.CurrentNodeID)
	return next
}

// Reset returns the pristine, not started state of the attempt.
func (e *Engine) Reset(current *domain.AttemptState) *domain.AttemptState {
	return domain.NewAttemptState(current.ID, current.SurveyID)
}

// Result returns the final artifact, or nil while the attempt is not completed.
func (e *Engine) Result(state *domain.AttemptState) *domain.Result {
	if state == nil || !state.IsCompleted {
		return nil
	}
	snap := state.Clone()
	res := &domain.Result{
		SurveyID:   snap.SurveyID,
		AttemptID:  snap.ID,
		Answers:    snap.Answers,
		TotalScore: snap.TotalScore,
		Path:       snap.VisitedPath,
	}
	if snap.CompletedAt != nil {
		res.CompletedAt = *snap.CompletedAt
	}
	return res
}

// CurrentNode looks up the node awaiting an answer.
func (e *Engine) CurrentNode(g *domain.Graph, state *domain.AttemptState) *domain.Node {
	if state == nil {
		return nil
	}
	n, ok := g.NodeByID(state.CurrentNodeID)
	if !ok {
		return nil
	}
	return n
}

func (e *Engine) complete(ctx context.Context, next *domain.AttemptState) *domain.AttemptState {
	now := e.now()
	next.IsCompleted = true
	next.CurrentNodeID = ""
	next.CompletedAt = &now

	e.logger.InfoContext(ctx, "attempt completed",
		"attempt", next.ID, "survey", next.SurveyID, "score", next.TotalScore, "steps", len(next.VisitedPath))
	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(ctx, &domain.CompleteEvent{
			EventBase:  e.base(domain.EventComplete, next),
			TotalScore: next.TotalScore,
			Path:       append([]string(nil), next.VisitedPath...),
		})
	}
	return next
}

func (e *Engine) base(t domain.EventType, s *domain.AttemptState) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      t,
		AttemptID: s.ID,
		SurveyID:  s.SurveyID,
	}
}

func (e *Engine) emitNodeEnter(ctx context.Context, s *domain.AttemptState, g *domain.Graph, nodeID string) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, e.nodeEvent(domain.EventNodeEnter, s, g, nodeID))
}

func (e *Engine) emitNodeLeave(ctx context.Context, s *domain.AttemptState, g *domain.Graph, nodeID string) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(ctx, e.nodeEvent(domain.EventNodeLeave, s, g, nodeID))
}

func (e *Engine) nodeEvent(t domain.EventType, s *domain.AttemptState, g *domain.Graph, nodeID string) *domain.NodeEvent {
	evt := &domain.NodeEvent{EventBase: e.base(t, s), NodeID: nodeID}
	if n, ok := g.NodeByID(nodeID); ok {
		evt.NodeKind = n.Kind
	}
	return evt
}

func (e *Engine) emitAnswer(ctx context.Context, t domain.EventType, hook func(context.Context, *domain.AnswerEvent), s *domain.AttemptState, a domain.Answer, delta int) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.AnswerEvent{
		EventBase:  e.base(t, s),
		Answer:     a,
		ScoreDelta: delta,
		TotalScore: s.TotalScore,
	})
}
