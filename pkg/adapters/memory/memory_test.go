package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/surveyflow/pkg/adapters/memory"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, memory.NewStore())
}

func TestMemoryResponseStore_Contract(t *testing.T) {
	ports.RunResponseStoreContract(t, memory.NewResponseStore())
}

func TestMemoryLoader_Contract(t *testing.T) {
	s := &domain.Survey{
		ID:    "feedback",
		Title: "Feedback",
		Graph: domain.Graph{
			Nodes: []domain.Node{
				domain.NewNode("q", domain.KindSingleChoice, &domain.ChoiceData{Title: "Q", Options: []domain.Option{{ID: "x", Label: "X"}}}),
				domain.NewNode("end", domain.KindEndScreen, &domain.EndScreenData{Title: "Bye"}),
			},
			Edges:         []domain.Edge{domain.OptionEdge("q", "end", "x")},
			EnableScoring: true,
		},
	}
	ports.RunSurveyLoaderContract(t, memory.NewLoader(s), []*domain.Survey{s})
}

func TestMemoryLoader_FromJSON(t *testing.T) {
	loader, err := memory.NewLoaderFromJSON(map[string]string{
		"nps": `{"title":"NPS","nodes":[{"id":"r","type":"rating","data":{"title":"Score","minValue":0,"maxValue":10}}],"edges":[]}`,
	})
	require.NoError(t, err)

	s, err := loader.GetSurvey(context.Background(), "nps")
	require.NoError(t, err)
	assert.Equal(t, "nps", s.ID)
	assert.Equal(t, domain.KindRating, s.Nodes[0].Kind)

	_, err = memory.NewLoaderFromJSON(map[string]string{"bad": `{"nodes":[{"id":"x","type":"video"}]}`})
	assert.ErrorIs(t, err, domain.ErrUnknownNodeKind)
}
