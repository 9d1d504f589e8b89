package runtime_test

import (
	"context"
	"time"

	"github.com/aretw0/surveyflow/internal/runtime"
	"github.com/aretw0/surveyflow/pkg/domain"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(opts ...runtime.EngineOption) *runtime.Engine {
	opts = append([]runtime.EngineOption{runtime.WithClock(func() time.Time { return fixedNow })}, opts...)
	return runtime.NewEngine(opts...)
}

func choice(id string, kind domain.NodeKind, opts ...domain.Option) domain.Node {
	return domain.NewNode(id, kind, &domain.ChoiceData{Title: id, Options: opts})
}

func rating(id string, min, max int) domain.Node {
	return domain.NewNode(id, domain.KindRating, &domain.RatingData{Title: id, MinValue: min, MaxValue: max})
}

func screen(id string, kind domain.NodeKind) domain.Node {
	return domain.NewNode(id, kind, nil)
}

// branchingGraph is A --x--> B, A --y--> C.
func branchingGraph(scoring bool) *domain.Graph {
	return &domain.Graph{
		Nodes: []domain.Node{
			choice("A", domain.KindSingleChoice,
				domain.Option{ID: "x", Label: "X", Score: 10},
				domain.Option{ID: "y", Label: "Y", Score: 3}),
			screen("B", domain.KindEndScreen),
			screen("C", domain.KindEndScreen),
		},
		Edges: []domain.Edge{
			domain.OptionEdge("A", "B", "x"),
			domain.OptionEdge("A", "C", "y"),
		},
		EnableScoring: scoring,
	}
}

// questionnaire is intro -> single -> multi -> rating -> end, scored.
func questionnaire() *domain.Graph {
	return &domain.Graph{
		Nodes: []domain.Node{
			domain.NewNode("intro", domain.KindPresentation, &domain.PresentationData{Title: "Hi", CollectName: true}),
			choice("single", domain.KindSingleChoice,
				domain.Option{ID: "a", Score: 1},
				domain.Option{ID: "b", Score: 5}),
			choice("multi", domain.KindMultipleChoice,
				domain.Option{ID: "m1", Score: 2},
				domain.Option{ID: "m2", Score: 4},
				domain.Option{ID: "m3"}),
			rating("rate", 1, 5),
			screen("end", domain.KindEndScreen),
		},
		Edges: []domain.Edge{
			domain.DefaultEdge("intro", "single"),
			domain.OptionEdge("single", "multi", "a"),
			domain.OptionEdge("single", "rate", "b"),
			domain.DefaultEdge("multi", "rate"),
			domain.DefaultEdge("rate", "end"),
		},
		EnableScoring: true,
	}
}

func start(e *runtime.Engine, g *domain.Graph) *domain.AttemptState {
	return e.Start(context.Background(), g, "att-1", "survey-1")
}
