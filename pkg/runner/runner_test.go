package runner_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/surveyflow"
	"github.com/aretw0/surveyflow/pkg/adapters/memory"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func start(t *testing.T) (*surveyflow.Engine, *domain.AttemptState) {
	t.Helper()
	eng, err := surveyflow.New("", surveyflow.WithLoader(memory.NewLoader(quiz())))
	require.NoError(t, err)
	state, err := eng.Start(context.Background(), "quiz", "att-1")
	require.NoError(t, err)
	return eng, state
}

func TestRunner_TextWalkthrough(t *testing.T) {
	eng, state := start(t)
	store := memory.NewStore()

	input := strings.Join([]string{"Ana", "1", "back", "good", "9", "4", ""}, "\n") + "\n"
	var out bytes.Buffer

	var result *domain.Result
	r := runner.NewRunner(
		runner.WithHandler(runner.NewTextHandler(strings.NewReader(input), &out)),
		runner.WithStore(store),
		runner.WithCompletionHandler(func(_ context.Context, res *domain.Result) error {
			result = res
			return nil
		}),
	)

	final, err := r.Run(context.Background(), eng, state)
	require.NoError(t, err)

	assert.True(t, final.IsCompleted)
	assert.Equal(t, 14, final.TotalScore)
	assert.Equal(t, []string{"intro", "q", "rate", "end"}, final.VisitedPath)
	assert.Equal(t, "Ana", final.Answers[0].RespondentName)

	require.NotNil(t, result)
	assert.Equal(t, 14, result.TotalScore)

	saved, err := store.Load(context.Background(), "att-1")
	require.NoError(t, err)
	assert.True(t, saved.IsCompleted)

	text := out.String()
	assert.Contains(t, text, "## Q")
	assert.Contains(t, text, "1. Good")
	assert.Contains(t, text, "(1-5) > ")
	assert.Contains(t, text, "[System]")
	assert.Contains(t, text, "Survey completed.")
	assert.Contains(t, text, "Score: 14")
}

func TestRunner_StopsOnEOF(t *testing.T) {
	eng, state := start(t)
	var out bytes.Buffer

	r := runner.NewRunner(runner.WithHandler(runner.NewTextHandler(strings.NewReader("Ana\n"), &out)))
	final, err := r.Run(context.Background(), eng, state)
	require.NoError(t, err)

	assert.False(t, final.IsCompleted)
	assert.Equal(t, "q", final.CurrentNodeID)
}

func TestRunner_Quit(t *testing.T) {
	eng, state := start(t)
	var out bytes.Buffer

	r := runner.NewRunner(runner.WithHandler(runner.NewTextHandler(strings.NewReader("Ana\nquit\n2\n"), &out)))
	final, err := r.Run(context.Background(), eng, state)
	require.NoError(t, err)
	assert.Equal(t, "q", final.CurrentNodeID)
	assert.Equal(t, 0, final.TotalScore)
}

func TestRunner_BackOnEntryNode(t *testing.T) {
	eng, state := start(t)
	var out bytes.Buffer

	r := runner.NewRunner(runner.WithHandler(runner.NewTextHandler(strings.NewReader("back\n"), &out)))
	final, err := r.Run(context.Background(), eng, state)
	require.NoError(t, err)
	assert.Equal(t, "intro", final.CurrentNodeID)
	assert.Contains(t, out.String(), "Nothing to go back to.")
}

func TestRunner_CancelledContext(t *testing.T) {
	eng, state := start(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runner.NewRunner(runner.WithHandler(runner.NewTextHandler(strings.NewReader(""), &bytes.Buffer{})))
	_, err := r.Run(ctx, eng, state)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_JSONLines(t *testing.T) {
	eng, state := start(t)
	input := `{"respondentName":"Ana"}` + "\n" + `"bad"` + "\n\n" + `{}` + "\n"
	var out bytes.Buffer

	r := runner.NewRunner(runner.WithHandler(runner.NewJSONHandler(strings.NewReader(input), &out)))
	final, err := r.Run(context.Background(), eng, state)
	require.NoError(t, err)
	assert.True(t, final.IsCompleted)
	assert.Equal(t, 1, final.TotalScore)
	assert.Equal(t, []string{"intro", "q", "end"}, final.VisitedPath)

	var views []map[string]any
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var v map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &v))
		views = append(views, v)
	}
	require.Len(t, views, 4)
	assert.Equal(t, true, views[0]["scoringEnabled"])
	assert.Equal(t, false, views[0]["canGoBack"])
	assert.Equal(t, true, views[1]["canGoBack"])
	assert.Contains(t, views[3], "result")
}
