package surveyflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/surveyflow"
	"github.com/aretw0/surveyflow/pkg/adapters/memory"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// quiz: intro -> q (good:10 -> rate | bad:1 -> end), rate -(5)-> end, rate -> end
func quiz() *domain.Survey {
	return &domain.Survey{
		ID:     "quiz",
		Title:  "Quiz",
		Status: domain.SurveyPublished,
		Graph: domain.Graph{
			EnableScoring: true,
			Nodes: []domain.Node{
				domain.NewNode("intro", domain.KindPresentation, &domain.PresentationData{Title: "Hi", CollectName: true, NameRequired: true}),
				domain.NewNode("q", domain.KindSingleChoice, &domain.ChoiceData{Title: "Q", Options: []domain.Option{
					{ID: "good", Label: "Good", Score: 10},
					{ID: "bad", Label: "Bad", Score: 1},
				}}),
				domain.NewNode("rate", domain.KindRating, &domain.RatingData{Title: "Rate", MinValue: 1, MaxValue: 5}),
				domain.NewNode("end", domain.KindEndScreen, &domain.EndScreenData{Title: "Bye", ShowScore: true}),
			},
			Edges: []domain.Edge{
				domain.DefaultEdge("intro", "q"),
				domain.OptionEdge("q", "rate", "good"),
				domain.OptionEdge("q", "end", "bad"),
				domain.RatingEdge("rate", "end", 5),
				domain.DefaultEdge("rate", "end"),
			},
		},
	}
}

func newEngine(t *testing.T, surveys ...*domain.Survey) *surveyflow.Engine {
	t.Helper()
	eng, err := surveyflow.New("", surveyflow.WithLoader(memory.NewLoader(surveys...)), surveyflow.WithClock(clock))
	require.NoError(t, err)
	return eng
}

func TestNew_RequiresPathWithoutLoader(t *testing.T) {
	_, err := surveyflow.New("")
	assert.Error(t, err)
}

func TestEngine_Walkthrough(t *testing.T) {
	eng := newEngine(t, quiz())
	ctx := context.Background()

	state, err := eng.Start(ctx, "quiz", "att-1")
	require.NoError(t, err)
	assert.Equal(t, "intro", state.CurrentNodeID)
	assert.Equal(t, fixedNow, state.StartedAt)

	_, err = eng.Result(state)
	assert.ErrorIs(t, err, domain.ErrNotCompleted)

	intro := domain.Answer{NodeID: "intro", RespondentName: "Ana"}
	require.NoError(t, eng.Validate(ctx, state, intro))
	state, err = eng.Answer(ctx, state, intro)
	require.NoError(t, err)

	state, err = eng.Answer(ctx, state, domain.Answer{NodeID: "q", SelectedOptionID: "good"})
	require.NoError(t, err)
	assert.Equal(t, "rate", state.CurrentNodeID)
	assert.Equal(t, 10, state.TotalScore)

	node, err := eng.CurrentNode(ctx, state)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, domain.KindRating, node.Kind)

	state, err = eng.Back(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, "q", state.CurrentNodeID)
	assert.Equal(t, 0, state.TotalScore)

	state, _ = eng.Answer(ctx, state, domain.Answer{NodeID: "q", SelectedOptionID: "good"})
	state, _ = eng.Answer(ctx, state, domain.Answer{NodeID: "rate", RatingValue: domain.Rating(5)})
	state, _ = eng.Answer(ctx, state, domain.Answer{NodeID: "end"})
	require.True(t, state.IsCompleted)

	node, err = eng.CurrentNode(ctx, state)
	require.NoError(t, err)
	assert.Nil(t, node)

	res, err := eng.Result(state)
	require.NoError(t, err)
	assert.Equal(t, []string{"intro", "q", "rate", "end"}, res.Path)
	assert.Equal(t, 15, res.TotalScore, "rating overwrites the delta with its value")
	assert.Equal(t, fixedNow, res.CompletedAt)

	state, err = eng.Reset(ctx, state)
	require.NoError(t, err)
	assert.False(t, state.IsCompleted)
	assert.Empty(t, state.CurrentNodeID)
}

func TestEngine_Errors(t *testing.T) {
	draft := quiz()
	draft.ID = "draft"
	draft.Status = domain.SurveyDraft
	eng := newEngine(t, quiz(), draft)
	ctx := context.Background()

	_, err := eng.Start(ctx, "missing", "att")
	assert.ErrorIs(t, err, domain.ErrSurveyNotFound)

	_, err = eng.Start(ctx, "draft", "att")
	assert.ErrorIs(t, err, domain.ErrSurveyNotPublished)

	state, err := eng.Start(ctx, "quiz", "att")
	require.NoError(t, err)
	err = eng.Validate(ctx, state, domain.Answer{NodeID: "intro"})
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer, "name is required")

	orphan := domain.NewAttemptState("att", "gone")
	_, err = eng.Answer(ctx, orphan, domain.Answer{})
	assert.ErrorIs(t, err, domain.ErrSurveyNotFound)
}

func TestEngine_Watch_Unsupported(t *testing.T) {
	eng := newEngine(t, quiz())
	_, err := eng.Watch(context.Background())
	assert.Error(t, err)
}

func TestEngine_MaxSteps(t *testing.T) {
	loop := &domain.Survey{ID: "loop", Graph: domain.Graph{
		Nodes: []domain.Node{
			domain.NewNode("a", domain.KindPresentation, nil),
			domain.NewNode("b", domain.KindPresentation, nil),
		},
		Edges: []domain.Edge{domain.DefaultEdge("a", "b"), domain.DefaultEdge("b", "a")},
	}}
	eng, err := surveyflow.New("", surveyflow.WithLoader(memory.NewLoader(loop)), surveyflow.WithMaxSteps(3))
	require.NoError(t, err)
	ctx := context.Background()

	state, err := eng.Start(ctx, "loop", "att")
	require.NoError(t, err)
	for i := 0; i < 10 && !state.IsCompleted; i++ {
		state, err = eng.Answer(ctx, state, domain.Answer{NodeID: state.CurrentNodeID})
		require.NoError(t, err)
	}
	assert.True(t, state.IsCompleted)
	assert.Len(t, state.VisitedPath, 3)
}

func TestEngine_BackAfterSurveyReload(t *testing.T) {
	loader := memory.NewLoader(quiz())
	eng, err := surveyflow.New("", surveyflow.WithLoader(loader), surveyflow.WithClock(clock))
	require.NoError(t, err)
	ctx := context.Background()

	state, err := eng.Start(ctx, "quiz", "att")
	require.NoError(t, err)
	state, err = eng.Answer(ctx, state, domain.Answer{NodeID: "intro", RespondentName: "Ana"})
	require.NoError(t, err)
	state, err = eng.Answer(ctx, state, domain.Answer{NodeID: "q", SelectedOptionID: "good"})
	require.NoError(t, err)
	require.Equal(t, 10, state.TotalScore)

	edited := quiz()
	edited.Nodes[1] = domain.NewNode("q", domain.KindSingleChoice, &domain.ChoiceData{Title: "Q", Options: []domain.Option{
		{ID: "good", Label: "Good", Score: 3},
		{ID: "bad", Label: "Bad", Score: 1},
	}})
	loader.Put(edited)

	state, err = eng.Back(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, 0, state.TotalScore)
	assert.Equal(t, "q", state.CurrentNodeID)
	assert.Len(t, state.Answers, 1)
}
