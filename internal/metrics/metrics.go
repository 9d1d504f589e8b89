// Package metrics exposes attempt activity as Prometheus collectors fed by engine lifecycle hooks.
package metrics

import (
	"context"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups the survey engine metrics.
type Collectors struct {
	NodeVisits *prometheus.CounterVec
	Answers    *prometheus.CounterVec
	Backs      *prometheus.CounterVec
	Completed  *prometheus.CounterVec
	Scores     *prometheus.HistogramVec
	PathLength *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surveyflow_node_visits_total",
			Help: "Total number of node visits.",
		}, []string{"survey_id", "node_id", "node_kind"}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surveyflow_answers_total",
			Help: "Total number of applied answers.",
		}, []string{"survey_id", "node_id"}),
		Backs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surveyflow_back_total",
			Help: "Total number of undone answers.",
		}, []string{"survey_id"}),
		Completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surveyflow_attempts_completed_total",
			Help: "Total number of completed attempts.",
		}, []string{"survey_id"}),
		Scores: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "surveyflow_attempt_score",
			Help:    "Final score of completed attempts.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}, []string{"survey_id"}),
		PathLength: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "surveyflow_attempt_path_length",
			Help:    "Number of visited nodes of completed attempts.",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}, []string{"survey_id"}),
	}

	for _, col := range []prometheus.Collector{c.NodeVisits, c.Answers, c.Backs, c.Completed, c.Scores, c.PathLength} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (c *Collectors) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			c.NodeVisits.WithLabelValues(e.SurveyID, e.NodeID, string(e.NodeKind)).Inc()
		},
		OnAnswer: func(_ context.Context, e *domain.AnswerEvent) {
			c.Answers.WithLabelValues(e.SurveyID, e.Answer.NodeID).Inc()
		},
		OnBack: func(_ context.Context, e *domain.AnswerEvent) {
			c.Backs.WithLabelValues(e.SurveyID).Inc()
		},
		OnComplete: func(_ context.Context, e *domain.CompleteEvent) {
			c.Completed.WithLabelValues(e.SurveyID).Inc()
			c.Scores.WithLabelValues(e.SurveyID).Observe(float64(e.TotalScore))
			c.PathLength.WithLabelValues(e.SurveyID).Observe(float64(len(e.Path)))
		},
	}
}
