package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractAttempt(id string) *domain.AttemptState {
	s := domain.NewAttemptState(id, "survey-contract")
	s.CurrentNodeID = "q2"
	s.VisitedPath = []string{"intro", "q2"}
	s.TotalScore = 7
	s.Answers = []domain.Answer{{
		NodeID:          "intro",
		RespondentName:  "Ana",
		RespondentEmail: "ana@example.com",
		RatingValue:     domain.Rating(0),
		AnsweredAt:      time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
	}}
	return s
}

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	attemptID := "contract-attempt-" + time.Now().Format("20060102150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		state := contractAttempt(attemptID)

		err := store.Save(ctx, attemptID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, attemptID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.CurrentNodeID, loaded.CurrentNodeID)
		assert.Equal(t, state.VisitedPath, loaded.VisitedPath)
		assert.Equal(t, state.TotalScore, loaded.TotalScore)
		require.Len(t, loaded.Answers, 1)
		require.NotNil(t, loaded.Answers[0].RatingValue, "a zero rating must survive persistence")
		assert.Equal(t, 0, *loaded.Answers[0].RatingValue)
		assert.True(t, state.Answers[0].AnsweredAt.Equal(loaded.Answers[0].AnsweredAt))
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, attemptID)
		require.NoError(t, err)
		loaded.VisitedPath[0] = "mutated"
		loaded.TotalScore = -1

		again, err := store.Load(ctx, attemptID)
		require.NoError(t, err)
		assert.Equal(t, "intro", again.VisitedPath[0])
		assert.Equal(t, 7, again.TotalScore)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+attemptID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, attemptID, contractAttempt(attemptID)))

		err := store.Delete(ctx, attemptID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, attemptID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := attemptID + "-1"
		id2 := attemptID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractAttempt(id1)))
		require.NoError(t, store.Save(ctx, id2, contractAttempt(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunResponseStoreContract verifies a ResponseStore implementation, including response count bookkeeping.
func RunResponseStoreContract(t *testing.T, store ResponseStore) {
	ctx := context.Background()
	surveyID := "contract-survey-" + time.Now().Format("20060102150405.000000")
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	newResp := func(i int) *domain.Response {
		return &domain.Response{
			ID:             fmt.Sprintf("%s-r%d", surveyID, i),
			SurveyID:       surveyID,
			Answers:        []domain.Answer{{NodeID: "q1", SelectedOptionID: "x"}},
			TotalScore:     i,
			Path:           []string{"q1", "end"},
			RespondentName: "R" + fmt.Sprint(i),
			CompletedAt:    base.Add(time.Duration(i) * time.Minute),
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
	}

	t.Run("Save increments count", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			require.NoError(t, store.Save(ctx, newResp(i)))
		}
		n, err := store.Count(ctx, surveyID)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("Save same id overwrites without counting twice", func(t *testing.T) {
		again := newResp(2)
		again.TotalScore = 20
		require.NoError(t, store.Save(ctx, again))

		n, err := store.Count(ctx, surveyID)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		got, err := store.Get(ctx, surveyID, surveyID+"-r2")
		require.NoError(t, err)
		assert.Equal(t, 20, got.TotalScore)

		all, err := store.List(ctx, surveyID, 0, 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		again.TotalScore = 2
		require.NoError(t, store.Save(ctx, again))
	})

	t.Run("Get", func(t *testing.T) {
		got, err := store.Get(ctx, surveyID, surveyID+"-r2")
		require.NoError(t, err)
		assert.Equal(t, 2, got.TotalScore)
		assert.Equal(t, "R2", got.RespondentName)
		assert.Equal(t, []string{"q1", "end"}, got.Path)
		require.Len(t, got.Answers, 1)
		assert.Equal(t, "x", got.Answers[0].SelectedOptionID)

		_, err = store.Get(ctx, surveyID, "missing")
		assert.ErrorIs(t, err, domain.ErrResponseNotFound)
	})

	t.Run("List newest first with paging", func(t *testing.T) {
		all, err := store.List(ctx, surveyID, 0, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, surveyID+"-r3", all[0].ID)
		assert.Equal(t, surveyID+"-r1", all[2].ID)

		page, err := store.List(ctx, surveyID, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, surveyID+"-r2", page[0].ID)

		other, err := store.List(ctx, "other-"+surveyID, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("Delete decrements count", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, surveyID, surveyID+"-r1"))
		n, err := store.Count(ctx, surveyID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		err = store.Delete(ctx, surveyID, surveyID+"-r1")
		assert.ErrorIs(t, err, domain.ErrResponseNotFound)
		n, err = store.Count(ctx, surveyID)
		require.NoError(t, err)
		assert.Equal(t, 2, n, "a failed delete must not touch the count")
	})
}

// RunSurveyLoaderContract verifies a SurveyLoader that has been seeded with the given surveys.
func RunSurveyLoaderContract(t *testing.T, loader SurveyLoader, seeded []*domain.Survey) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetSurvey", func(t *testing.T) {
		for _, want := range seeded {
			got, err := loader.GetSurvey(ctx, want.ID)
			require.NoError(t, err, "survey %s", want.ID)
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Title, got.Title)
			assert.Equal(t, want.EnableScoring, got.EnableScoring)
			require.Len(t, got.Nodes, len(want.Nodes))
			for i := range want.Nodes {
				assert.Equal(t, want.Nodes[i].ID, got.Nodes[i].ID)
				assert.Equal(t, want.Nodes[i].Kind, got.Nodes[i].Kind)
				assert.Equal(t, want.Nodes[i].Data, got.Nodes[i].Data)
			}
			assert.Equal(t, want.Edges, got.Edges)
		}
	})

	t.Run("GetSurvey NotFound", func(t *testing.T) {
		_, err := loader.GetSurvey(ctx, "non-existent-survey")
		assert.ErrorIs(t, err, domain.ErrSurveyNotFound)
	})

	t.Run("ListSurveys", func(t *testing.T) {
		ids, err := loader.ListSurveys(ctx)
		require.NoError(t, err)
		for _, s := range seeded {
			assert.Contains(t, ids, s.ID)
		}
	})
}
