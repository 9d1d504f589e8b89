package metrics_test

import (
	"context"
	"testing"

	"github.com/aretw0/surveyflow"
	"github.com/aretw0/surveyflow/internal/metrics"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors_RecordAttempt(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg)
	require.NoError(t, err)

	survey := &domain.Survey{ID: "s1", Graph: domain.Graph{
		Nodes: []domain.Node{
			domain.NewNode("q", domain.KindSingleChoice, &domain.ChoiceData{Options: []domain.Option{{ID: "a"}}}),
			domain.NewNode("end", domain.KindEndScreen, nil),
		},
		Edges: []domain.Edge{domain.DefaultEdge("q", "end")},
	}}

	ctx := context.Background()
	a := surveyflow.NewAttempt(survey, "att", surveyflow.WithLifecycleHooks(c.Hooks()))
	a.Start(ctx)
	a.Answer(ctx, domain.Answer{NodeID: "q", SelectedOptionID: "a"})
	a.GoBack(ctx)
	a.Answer(ctx, domain.Answer{NodeID: "q", SelectedOptionID: "a"})
	a.Answer(ctx, domain.Answer{NodeID: "end"})
	require.True(t, a.IsCompleted())

	assert.Equal(t, 2.0, testutil.ToFloat64(c.NodeVisits.WithLabelValues("s1", "q", "singleChoice")), "start and back")
	assert.Equal(t, 2.0, testutil.ToFloat64(c.NodeVisits.WithLabelValues("s1", "end", "endScreen")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Backs.WithLabelValues("s1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Completed.WithLabelValues("s1")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.Scores))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg)
	require.NoError(t, err)
	_, err = metrics.New(reg)
	assert.Error(t, err)
}
