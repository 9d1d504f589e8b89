package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/surveyflow/internal/runtime"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Start(t *testing.T) {
	e := newTestEngine()
	state := start(e, questionnaire())

	assert.Equal(t, "intro", state.CurrentNodeID)
	assert.Equal(t, []string{"intro"}, state.VisitedPath)
	assert.Empty(t, state.Answers)
	assert.Zero(t, state.TotalScore)
	assert.False(t, state.IsCompleted)
	assert.Equal(t, fixedNow, state.StartedAt)
	assert.Equal(t, "att-1", state.ID)
	assert.Equal(t, "survey-1", state.SurveyID)
}

func TestEngine_StartEmptyGraph(t *testing.T) {
	e := newTestEngine()
	state := start(e, &domain.Graph{})

	assert.Empty(t, state.CurrentNodeID)
	assert.Empty(t, state.VisitedPath)
	assert.Nil(t, e.CurrentNode(&domain.Graph{}, state))

	// Operations on an attempt that never started are no-ops.
	next := e.Answer(context.Background(), &domain.Graph{}, state, domain.Answer{NodeID: "x"})
	assert.Equal(t, state, next)
}

func TestEngine_StartReplacesPriorState(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	g := branchingGraph(true)

	state := start(e, g)
	state = e.Answer(ctx, g, state, domain.Answer{NodeID: "A", SelectedOptionID: "x"})
	require.Equal(t, 10, state.TotalScore)

	again := e.Start(ctx, g, state.ID, state.SurveyID)
	assert.Equal(t, "A", again.CurrentNodeID)
	assert.Zero(t, again.TotalScore)
	assert.Empty(t, again.Answers)
	assert.Equal(t, []string{"A"}, again.VisitedPath)
}

// A --x--> B, scoring off.
func TestScenario_BranchWithoutScoring(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	g := branchingGraph(false)

	state := start(e, g)
	assert.Equal(t, "A", state.CurrentNodeID)

	state = e.Answer(ctx, g, state, domain.Answer{NodeID: "A", SelectedOptionID: "x"})
	assert.Equal(t, "B", state.CurrentNodeID)
	assert.Equal(t, 0, state.TotalScore)
}

// Same graph, scoring on: answer then back.
func TestScenario_ScoreAndBack(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	g := branchingGraph(true)

	state := start(e, g)
	state = e.Answer(ctx, g, state, domain.Answer{NodeID: "A", SelectedOptionID: "x"})
	assert.Equal(t, 10, state.TotalScore)

	state = e.GoBack(ctx, g, state)
	assert.Equal(t, "A", state.CurrentNodeID)
	assert.Equal(t, 0, state.TotalScore)
	assert.Empty(t, state.Answers)
}

// Rating with only a default edge to an end screen.
func TestScenario_RatingToEndScreen(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	g := &domain.Graph{
		Nodes:         []domain.Node{rating("R", 1, 5), screen("end", domain.KindEndScreen)},
		Edges:         []domain.Edge{domain.DefaultEdge("R", "end")},
		EnableScoring: true,
	}

	state := start(e, g)
	state = e.Answer(ctx, g, state, domain.Answer{NodeID: "R", RatingValue: domain.Rating(4)})
	assert.Equal(t, 4, state.TotalScore)
	assert.Equal(t, "end", state.CurrentNodeID)
	assert.False(t, state.IsCompleted, "landing on the end screen does not complete yet")

	state = e.Answer(ctx, g, state, domain.Answer{NodeID: "end"})
	assert.True(t, state.IsCompleted)
	assert.Empty(t, state.CurrentNodeID)
	assert.Equal(t, 4, state.TotalScore)
}

// Reaching a node without outgoing edges, then answering it.
func TestScenario_CompletionAndResult(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	g := branchingGraph(true)

	state := start(e, g)
	assert.Nil(t, e.Result(state))

	state = e.Answer(ctx, g, state, domain.Answer{NodeID: "A", SelectedOptionID: "y"})
	require.Equal(t, "C", state.CurrentNodeID)
	assert.Nil(t, e.Result(state))

	state = e.Answer(ctx, g, state, domain.Answer{NodeID: "C"})
	require.True(t, state.IsCompleted)
	assert.Empty(t, state.CurrentNodeID)
	require.NotNil(t, state.CompletedAt)

	res := e.Result(state)
	require.NotNil(t, res)
	assert.Equal(t, "survey-1", res.SurveyID)
	assert.Equal(t, "att-1", res.AttemptID)
	assert.Equal(t, 3, res.TotalScore)
	assert.Equal(t, []string{"A", "C"}, res.Path)
	assert.Len(t, res.Answers, 2)
	assert.Equal(t, fixedNow, res.CompletedAt)
}

// Back at the entry node is a no-op.
func TestScenario_BackAtEntryIsNoop(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	g := branchingGraph(true)

	state := start(e, g)
	assert.False(t, state.CanGoBack())

	back := e.GoBack(ctx, g, state)
	assert.Equal(t, state, back)
}

func TestEngine_CompletedIsTerminal(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	g := branchingGraph(true)

	state := start(e, g)
	state = e.Answer(ctx, g, state, domain.Answer{NodeID: "A", SelectedOptionID: "x"})
	state = e.Answer(ctx, g, state, domain.Answer{NodeID: "B"})
	require.True(t, state.IsCompleted)

	after := e.Answer(ctx, g, state, domain.Answer{NodeID: "B"})
	assert.Equal(t, state, after)

	after = e.GoBack(ctx, g, state)
	assert.True(t, after.IsCompleted)
	assert.Equal(t, state, after)

	reset := e.Reset(state)
	assert.False(t, reset.IsCompleted)
	assert.Equal(t, domain.NewAttemptState("att-1", "survey-1"), reset)
}

func TestEngine_DoesNotMutateInput(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	g := questionnaire()

	state := start(e, g)
	snapshot := state.Clone()

	_ = e.Answer(ctx, g, state, domain.Answer{NodeID: "intro", RespondentName: "Ana"})
	assert.Equal(t, snapshot, state)

	next := e.Answer(ctx, g, state, domain.Answer{NodeID: "intro"})
	before := next.Clone()
	_ = e.GoBack(ctx, g, next)
	assert.Equal(t, before, next)
}

func TestEngine_FullWalk(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	g := questionnaire()

	state := start(e, g)
	steps := []domain.Answer{
		{NodeID: "intro", RespondentName: "Ana"},
		{NodeID: "single", SelectedOptionID: "a"},
		{NodeID: "multi", SelectedOptionIDs: []string{"m1", "m2", "m3"}},
		{NodeID: "rate", RatingValue: domain.Rating(3)},
		{NodeID: "end"},
	}
	for _, a := range steps {
		require.False(t, state.IsCompleted)
		require.Equal(t, a.NodeID, state.CurrentNodeID)
		state = e.Answer(ctx, g, state, a)
	}

	assert.True(t, state.IsCompleted)
	assert.Equal(t, 1+6+3, state.TotalScore)
	assert.Equal(t, []string{"intro", "single", "multi", "rate", "end"}, state.VisitedPath)
	assert.Equal(t, "Ana", state.RespondentName())
	for _, a := range state.Answers {
		assert.Equal(t, fixedNow, a.AnsweredAt)
	}
}

func TestEngine_CurrentNode(t *testing.T) {
	e := newTestEngine()
	g := questionnaire()
	state := start(e, g)

	n := e.CurrentNode(g, state)
	require.NotNil(t, n)
	assert.Equal(t, domain.KindPresentation, n.Kind)
	assert.Nil(t, e.CurrentNode(g, nil))
}

func TestEngine_MaxStepsGuardsCycles(t *testing.T) {
	ctx := context.Background()
	g := &domain.Graph{
		Nodes: []domain.Node{screen("a", domain.KindPresentation), screen("b", domain.KindPresentation)},
		Edges: []domain.Edge{domain.DefaultEdge("a", "b"), domain.DefaultEdge("b", "a")},
	}

	e := newTestEngine(runtime.WithMaxSteps(3))
	state := start(e, g)
	for i := 0; i < 10 && !state.IsCompleted; i++ {
		state = e.Answer(ctx, g, state, domain.Answer{NodeID: state.CurrentNodeID})
	}

	assert.True(t, state.IsCompleted)
	assert.Len(t, state.VisitedPath, 3)
	assert.Len(t, state.Answers, 3)

	// Without the guard the cycle keeps advancing.
	unguarded := newTestEngine()
	state = start(unguarded, g)
	for i := 0; i < 10; i++ {
		state = unguarded.Answer(ctx, g, state, domain.Answer{NodeID: state.CurrentNodeID})
	}
	assert.False(t, state.IsCompleted)
	assert.Len(t, state.VisitedPath, 11)
}

func TestEngine_GoBackUndoesRecordedDelta(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	g := branchingGraph(true)

	state := start(e, g)
	state = e.Answer(ctx, g, state, domain.Answer{NodeID: "A", SelectedOptionID: "x"})
	require.Equal(t, 10, state.TotalScore)
	assert.Equal(t, []int{10}, state.ScoreDeltas)

	// The survey changes between the answer and the undo.
	edited := branchingGraph(true)
	edited.Nodes[0] = choice("A", domain.KindSingleChoice,
		domain.Option{ID: "x", Label: "X", Score: 3},
		domain.Option{ID: "y", Label: "Y", Score: 3})

	back := e.GoBack(ctx, edited, state)
	assert.Equal(t, 0, back.TotalScore)
	assert.Empty(t, back.Answers)
	assert.Empty(t, back.ScoreDeltas)
	assert.Equal(t, "A", back.CurrentNodeID)
}

func TestEngine_GoBackWithoutRecordedDeltas(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	g := branchingGraph(true)

	state := start(e, g)
	state = e.Answer(ctx, g, state, domain.Answer{NodeID: "A", SelectedOptionID: "y"})
	state.ScoreDeltas = nil

	back := e.GoBack(ctx, g, state)
	assert.Equal(t, 0, back.TotalScore)
	assert.Empty(t, back.Answers)
}
