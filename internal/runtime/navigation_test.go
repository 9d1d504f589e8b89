package runtime_test

import (
	"testing"

	"github.com/aretw0/surveyflow/internal/runtime"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestResolveNextNodeID(t *testing.T) {
	tests := []struct {
		name   string
		edges  []domain.Edge
		answer domain.Answer
		want   string
		ok     bool
	}{
		{
			name:   "no outgoing edges completes",
			edges:  nil,
			answer: domain.Answer{NodeID: "n"},
			ok:     false,
		},
		{
			name: "no choice takes first edge even if conditioned",
			edges: []domain.Edge{
				domain.OptionEdge("n", "t1", "x"),
				domain.DefaultEdge("n", "t2"),
			},
			answer: domain.Answer{NodeID: "n"},
			want:   "t1",
			ok:     true,
		},
		{
			name: "single choice matches its option",
			edges: []domain.Edge{
				domain.OptionEdge("n", "t1", "x"),
				domain.OptionEdge("n", "t2", "y"),
			},
			answer: domain.Answer{NodeID: "n", SelectedOptionID: "y"},
			want:   "t2",
			ok:     true,
		},
		{
			name: "single choice ignores default edge and falls back to first edge",
			edges: []domain.Edge{
				domain.OptionEdge("n", "t1", "x"),
				domain.DefaultEdge("n", "t2"),
			},
			answer: domain.Answer{NodeID: "n", SelectedOptionID: "z"},
			want:   "t1",
			ok:     true,
		},
		{
			name: "multiple choice takes default edge",
			edges: []domain.Edge{
				domain.OptionEdge("n", "t1", "x"),
				domain.DefaultEdge("n", "t2"),
			},
			answer: domain.Answer{NodeID: "n", SelectedOptionIDs: []string{"x"}},
			want:   "t2",
			ok:     true,
		},
		{
			name: "empty multiple selection still counts as multiple choice",
			edges: []domain.Edge{
				domain.OptionEdge("n", "t1", "x"),
				domain.DefaultEdge("n", "t2"),
			},
			answer: domain.Answer{NodeID: "n", SelectedOptionIDs: []string{}},
			want:   "t2",
			ok:     true,
		},
		{
			name: "multiple choice without default edge falls back to first edge",
			edges: []domain.Edge{
				domain.OptionEdge("n", "t1", "x"),
				domain.OptionEdge("n", "t2", "y"),
			},
			answer: domain.Answer{NodeID: "n", SelectedOptionIDs: []string{"y"}},
			want:   "t1",
			ok:     true,
		},
		{
			name: "rating prefers exact value over earlier default",
			edges: []domain.Edge{
				domain.DefaultEdge("n", "t1"),
				domain.RatingEdge("n", "t2", 5),
			},
			answer: domain.Answer{NodeID: "n", RatingValue: domain.Rating(5)},
			want:   "t2",
			ok:     true,
		},
		{
			name: "rating zero is a real value",
			edges: []domain.Edge{
				domain.RatingEdge("n", "t1", 1),
				domain.RatingEdge("n", "t2", 0),
			},
			answer: domain.Answer{NodeID: "n", RatingValue: domain.Rating(0)},
			want:   "t2",
			ok:     true,
		},
		{
			name: "rating without exact edge takes default",
			edges: []domain.Edge{
				domain.RatingEdge("n", "t1", 1),
				domain.DefaultEdge("n", "t2"),
			},
			answer: domain.Answer{NodeID: "n", RatingValue: domain.Rating(3)},
			want:   "t2",
			ok:     true,
		},
		{
			name: "rating without match falls back to first edge",
			edges: []domain.Edge{
				domain.RatingEdge("n", "t1", 1),
				domain.OptionEdge("n", "t2", "x"),
			},
			answer: domain.Answer{NodeID: "n", RatingValue: domain.Rating(3)},
			want:   "t1",
			ok:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &domain.Graph{
				Nodes: []domain.Node{screen("n", domain.KindPresentation)},
				Edges: append([]domain.Edge{domain.DefaultEdge("other", "elsewhere")}, tt.edges...),
			}
			got, ok := runtime.ResolveNextNodeID(g, "n", &tt.answer)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreDelta(t *testing.T) {
	g := questionnaire()

	tests := []struct {
		name   string
		answer domain.Answer
		want   int
	}{
		{"no choice", domain.Answer{NodeID: "intro"}, 0},
		{"single option", domain.Answer{NodeID: "single", SelectedOptionID: "b"}, 5},
		{"unknown option", domain.Answer{NodeID: "single", SelectedOptionID: "zz"}, 0},
		{"multi sum", domain.Answer{NodeID: "multi", SelectedOptionIDs: []string{"m1", "m2"}}, 6},
		{"multi ignores unknown", domain.Answer{NodeID: "multi", SelectedOptionIDs: []string{"m2", "nope"}}, 4},
		{"single id on multi node", domain.Answer{NodeID: "multi", SelectedOptionID: "m2"}, 4},
		{"multi ids on single node", domain.Answer{NodeID: "single", SelectedOptionIDs: []string{"a"}}, 0},
		{"rating is its own score", domain.Answer{NodeID: "rate", RatingValue: domain.Rating(4)}, 4},
		{"unknown node", domain.Answer{NodeID: "ghost", SelectedOptionID: "a"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runtime.ScoreDelta(g, &tt.answer))
		})
	}

	t.Run("scoring disabled", func(t *testing.T) {
		off := questionnaire()
		off.EnableScoring = false
		assert.Zero(t, runtime.ScoreDelta(off, &domain.Answer{NodeID: "single", SelectedOptionID: "b"}))
		assert.Zero(t, runtime.ScoreDelta(off, &domain.Answer{NodeID: "rate", RatingValue: domain.Rating(5)}))
	})
}
