package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventAnswer    EventType = "answer"
	EventBack      EventType = "back"
	EventComplete  EventType = "complete"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	AttemptID string    `json:"attempt_id"`
	SurveyID  string    `json:"survey_id"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	NodeKind NodeKind `json:"node_kind"`
}

// AnswerEvent is emitted after an answer has been applied, or undone by goBack.
type AnswerEvent struct {
	EventBase
	Answer     Answer `json:"answer"`
	ScoreDelta int    `json:"score_delta"`
	TotalScore int    `json:"total_score"`
}

// CompleteEvent is emitted when an attempt reaches a terminal state.
type CompleteEvent struct {
	EventBase
	TotalScore int      `json:"total_score"`
	Path       []string `json:"path"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnAnswer    func(context.Context, *AnswerEvent)
	OnBack      func(context.Context, *AnswerEvent)
	OnComplete  func(context.Context, *CompleteEvent)
}

// Merge returns hooks that call h first and then other, for every callback either defines.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter: chain(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave: chain(h.OnNodeLeave, other.OnNodeLeave),
		OnAnswer:    chain(h.OnAnswer, other.OnAnswer),
		OnBack:      chain(h.OnBack, other.OnBack),
		OnComplete:  chain(h.OnComplete, other.OnComplete),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
