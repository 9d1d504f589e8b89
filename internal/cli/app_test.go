package cli

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/surveyflow/internal/config"
	"github.com/aretw0/surveyflow/pkg/adapters/memory"
	"github.com/aretw0/surveyflow/pkg/adapters/redis"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/persistence/middleware"
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
				domain.DefaultEdge("rate", "end"),
			},
		},
	}
}

func newApp(t *testing.T) *App {
	t.Helper()
	app, err := Bootstrap(context.Background(), config.Default(), Options{Loader: memory.NewLoader(quiz())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestBootstrap_Defaults(t *testing.T) {
	app := newApp(t)

	assert.NotNil(t, app.Engine)
	assert.NotNil(t, app.Sessions)
	assert.IsType(t, &memory.ResponseStore{}, app.Responses)
	assert.Nil(t, app.Publisher)

	ids, err := app.Engine.Surveys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"quiz"}, ids)

	families, err := app.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestBootstrap_RedisBackends(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Store.Driver = "redis"
	cfg.Store.Redis.Addr = mr.Addr()
	cfg.Responses.Driver = "redis"

	app, err := Bootstrap(context.Background(), cfg, Options{Loader: memory.NewLoader(quiz())})
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &redis.ResponseStore{}, app.Responses)

	_, _, err = app.RunAttempt(context.Background(), RunOptions{
		SurveyID:  "quiz",
		SessionID: "s1",
		Input:     strings.NewReader("Ana\n"),
		Output:    &bytes.Buffer{},
	})
	require.NoError(t, err)

	ids, err := app.Sessions.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestBuildStateStore(t *testing.T) {
	_, err := BuildStateStore(config.StoreConfig{Driver: "redis"}, nil)
	assert.Error(t, err)

	_, err = BuildStateStore(config.StoreConfig{Driver: "memory", EncryptionKey: "short"}, nil)
	assert.Error(t, err)

	store, err := BuildStateStore(config.StoreConfig{Driver: "file", Path: t.TempDir()}, nil)
	require.NoError(t, err)
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBuildStateStore_MaskThenEncrypt(t *testing.T) {
	mr := miniredis.RunT(t)
	rs := redis.New(mr.Addr(), "", 0)
	defer rs.Close()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	store, err := BuildStateStore(config.StoreConfig{
		Driver:        "redis",
		MaskPII:       true,
		EncryptionKey: base64.StdEncoding.EncodeToString(key),
	}, rs)
	require.NoError(t, err)

	ctx := context.Background()
	state := domain.NewAttemptState("att-1", "quiz")
	state.CurrentNodeID = "q"
	state.VisitedPath = []string{"intro", "q"}
	state.Answers = []domain.Answer{{NodeID: "intro", RespondentName: "Ana", RespondentEmail: "ana@example.com"}}
	require.NoError(t, store.Save(ctx, "att-1", state))

	raw, err := rs.Load(ctx, "att-1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
	assert.Empty(t, raw.Answers)

	loaded, err := store.Load(ctx, "att-1")
	require.NoError(t, err)
	require.Len(t, loaded.Answers, 1)
	assert.Equal(t, middleware.Mask, loaded.Answers[0].RespondentName)
	assert.Equal(t, "***@example.com", loaded.Answers[0].RespondentEmail)
	assert.Equal(t, "Ana", state.Answers[0].RespondentName)
}

func TestRunAttempt_Ephemeral(t *testing.T) {
	app := newApp(t)
	out := &bytes.Buffer{}

	final, resp, err := app.RunAttempt(context.Background(), RunOptions{
		SurveyID: "quiz",
		Input:    strings.NewReader("Ana\ngood\n4\n\n"),
		Output:   out,
	})
	require.NoError(t, err)
	assert.True(t, final.IsCompleted)
	require.NotNil(t, resp)
	assert.Equal(t, 14, resp.TotalScore)
	assert.Equal(t, "Ana", resp.RespondentName)
	assert.Equal(t, []string{"intro", "q", "rate", "end"}, resp.Path)
	assert.Contains(t, out.String(), "Response "+resp.ID+" recorded.")

	n, err := app.Responses.Count(context.Background(), "quiz")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids, err := app.Sessions.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRunAttempt_ResumeSession(t *testing.T) {
	app := newApp(t)
	ctx := context.Background()

	first := &bytes.Buffer{}
	state, resp, err := app.RunAttempt(ctx, RunOptions{
		SurveyID:  "quiz",
		SessionID: "s1",
		Input:     strings.NewReader("Ana\n"),
		Output:    first,
	})
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, "q", state.CurrentNodeID)
	assert.Contains(t, first.String(), "Session 's1' active.")

	stored, err := app.Sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "q", stored.CurrentNodeID)

	second := &bytes.Buffer{}
	state, resp, err = app.RunAttempt(ctx, RunOptions{
		SurveyID:  "quiz",
		SessionID: "s1",
		Input:     strings.NewReader("bad\n\n"),
		Output:    second,
	})
	require.NoError(t, err)
	assert.True(t, state.IsCompleted)
	require.NotNil(t, resp)
	assert.Equal(t, 1, resp.TotalScore)
	assert.Contains(t, second.String(), "Resuming at 'q'...")

	_, err = app.Sessions.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRunAttempt_Fresh(t *testing.T) {
	app := newApp(t)
	ctx := context.Background()

	_, _, err := app.RunAttempt(ctx, RunOptions{SurveyID: "quiz", SessionID: "s1", Input: strings.NewReader("Ana\n"), Output: &bytes.Buffer{}})
	require.NoError(t, err)

	state, _, err := app.RunAttempt(ctx, RunOptions{SurveyID: "quiz", SessionID: "s1", Fresh: true, Input: strings.NewReader(""), Output: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, "intro", state.CurrentNodeID)
	assert.Empty(t, state.Answers)
}

func TestRunAttempt_SessionSurveyMismatch(t *testing.T) {
	app := newApp(t)
	ctx := context.Background()

	other := domain.NewAttemptState("s1", "other")
	require.NoError(t, app.Sessions.Save(ctx, "s1", other))

	_, _, err := app.RunAttempt(ctx, RunOptions{SurveyID: "quiz", SessionID: "s1", Input: strings.NewReader(""), Output: &bytes.Buffer{}})
	assert.ErrorContains(t, err, `belongs to survey "other"`)
}

func TestRunAttempt_JSON(t *testing.T) {
	app := newApp(t)
	out := &bytes.Buffer{}

	_, resp, err := app.RunAttempt(context.Background(), RunOptions{
		SurveyID: "quiz",
		JSON:     true,
		Input:    strings.NewReader(`{"respondentName":"Ana"}` + "\n" + `"bad"` + "\n" + `{}` + "\n"),
		Output:   out,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	for _, l := range lines {
		assert.True(t, json.Valid([]byte(l)), l)
	}
	assert.NotContains(t, out.String(), ">>>")
}

func TestRunAttempt_UnknownSurvey(t *testing.T) {
	app := newApp(t)
	_, _, err := app.RunAttempt(context.Background(), RunOptions{SurveyID: "nope", Output: &bytes.Buffer{}})
	assert.ErrorIs(t, err, domain.ErrSurveyNotFound)
}

func TestBootstrap_DurableSessionsOutliveApp(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Path = t.TempDir()
	opts := Options{Durable: true, Loader: memory.NewLoader(quiz())}
	ctx := context.Background()

	first, err := Bootstrap(ctx, cfg, opts)
	require.NoError(t, err)
	_, _, err = first.RunAttempt(ctx, RunOptions{SurveyID: "quiz", SessionID: "s1", Input: strings.NewReader("Ana\n"), Output: &bytes.Buffer{}})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Bootstrap(ctx, cfg, opts)
	require.NoError(t, err)
	defer second.Close()

	state, err := second.Sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "q", state.CurrentNodeID)
}
