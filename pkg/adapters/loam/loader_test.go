package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/surveyflow/internal/testutils"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const editorJSON = `{
  "id": "feedback",
  "title": "Feedback",
  "status": "published",
  "enableScoring": true,
  "timeLimit": 5,
  "nodes": [
    {"id": "q", "type": "singleChoice", "position": {"x": 10, "y": 20},
     "data": {"type": "singleChoice", "title": "How was it?", "options": [
       {"id": "good", "label": "Good", "score": 10},
       {"id": "bad", "label": "Bad"}
     ]}},
    {"id": "r", "type": "rating", "data": {"title": "Rate", "minValue": 0, "maxValue": 5}},
    {"id": "end", "type": "endScreen", "data": {"title": "Thanks", "showScore": true}}
  ],
  "edges": [
    {"id": "q-good-r", "source": "q", "target": "r", "data": {"optionId": "good"}},
    {"id": "q-bad-end", "source": "q", "target": "end", "data": {"optionId": "bad"}},
    {"source": "r", "target": "end", "data": {"ratingValue": 0}},
    {"id": "r-end", "source": "r", "target": "end"}
  ]
}`

const frontmatterMD = `---
id: onboarding
title: Onboarding
nodes:
  - id: intro
    type: presentation
    data:
      title: Welcome
      collectEmail: true
      emailRequired: true
  - id: pick
    type: multipleChoice
    data:
      title: Interests
      options:
        - id: go
          label: Go
          score: 3
  - id: bye
    type: endScreen
    data:
      title: Bye
edges:
  - id: intro-pick
    source: intro
    target: pick
  - id: pick-bye
    source: pick
    target: bye
---
Tell us about yourself.
`

func expectedSurveys() []*domain.Survey {
	return []*domain.Survey{
		{
			ID:    "feedback",
			Title: "Feedback",
			Graph: domain.Graph{
				EnableScoring: true,
				Nodes: []domain.Node{
					domain.NewNode("q", domain.KindSingleChoice, &domain.ChoiceData{Title: "How was it?", Options: []domain.Option{
						{ID: "good", Label: "Good", Score: 10},
						{ID: "bad", Label: "Bad"},
					}}),
					domain.NewNode("r", domain.KindRating, &domain.RatingData{Title: "Rate", MinValue: 0, MaxValue: 5}),
					domain.NewNode("end", domain.KindEndScreen, &domain.EndScreenData{Title: "Thanks", ShowScore: true}),
				},
				Edges: []domain.Edge{
					domain.OptionEdge("q", "r", "good"),
					domain.OptionEdge("q", "end", "bad"),
					domain.RatingEdge("r", "end", 0),
					domain.DefaultEdge("r", "end"),
				},
			},
		},
		{
			ID:    "onboarding",
			Title: "Onboarding",
			Graph: domain.Graph{
				Nodes: []domain.Node{
					domain.NewNode("intro", domain.KindPresentation, &domain.PresentationData{Title: "Welcome", CollectEmail: true, EmailRequired: true}),
					domain.NewNode("pick", domain.KindMultipleChoice, &domain.ChoiceData{Title: "Interests", Options: []domain.Option{{ID: "go", Label: "Go", Score: 3}}}),
					domain.NewNode("bye", domain.KindEndScreen, &domain.EndScreenData{Title: "Bye"}),
				},
				Edges: []domain.Edge{
					domain.DefaultEdge("intro", "pick"),
					domain.DefaultEdge("pick", "bye"),
				},
			},
		},
	}
}

func seed(t *testing.T, files map[string]string) *Loader {
	t.Helper()
	_, repo := testutils.SetupSurveyRepo(t, files)
	return New(loam.NewTypedRepository[SurveyMetadata](repo))
}

func TestLoader_Contract(t *testing.T) {
	loader := seed(t, map[string]string{
		"feedback.json":  editorJSON,
		"onboarding.md": frontmatterMD,
	})
	ports.RunSurveyLoaderContract(t, loader, expectedSurveys())
}

func TestLoader_SurveyFields(t *testing.T) {
	loader := seed(t, map[string]string{
		"feedback.json":  editorJSON,
		"onboarding.md": frontmatterMD,
	})
	ctx := context.Background()

	fb, err := loader.GetSurvey(ctx, "feedback")
	require.NoError(t, err)
	assert.Equal(t, domain.SurveyPublished, fb.Status)
	assert.Equal(t, 5, fb.TimeLimit)
	require.NotNil(t, fb.Nodes[0].Position)
	assert.Equal(t, 20.0, fb.Nodes[0].Position.Y)

	ob, err := loader.GetSurvey(ctx, "onboarding")
	require.NoError(t, err)
	assert.Equal(t, "Tell us about yourself.", ob.Description)
	assert.Equal(t, "intro", ob.EntryNodeID())
}

func TestLoader_InlineEdgeShorthand(t *testing.T) {
	loader := seed(t, map[string]string{
		"nps.yaml": `id: nps
title: NPS
nodes:
  - id: score
    type: rating
    data: {title: Score, minValue: 0, maxValue: 10}
  - id: promoter
    type: endScreen
    data: {title: Thanks}
  - id: detractor
    type: endScreen
    data: {title: Sorry}
edges:
  - {source: score, target: promoter, rating: 10}
  - {source: score, target: detractor, label: other}
`,
	})

	s, err := loader.GetSurvey(context.Background(), "nps")
	require.NoError(t, err)
	require.Len(t, s.Edges, 2)

	v, ok := s.Edges[0].RatingValue()
	assert.True(t, ok)
	assert.Equal(t, 10, v)
	assert.True(t, s.Edges[1].IsDefault())
	assert.Equal(t, "other", s.Edges[1].Label())
}

func TestLoader_ListSurveys_NormalizesIDs(t *testing.T) {
	loader := seed(t, map[string]string{
		"a.json":     `{"title": "A", "nodes": [], "edges": []}`,
		"b.md":       "---\ntitle: B\n---\n",
		"explicit.md": "---\nid: explicit.md\ntitle: E\n---\n",
	})

	ids, err := loader.ListSurveys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "explicit"}, ids)
}

func TestLoader_ListSurveys_DetectsCollisions(t *testing.T) {
	loader := seed(t, map[string]string{
		"foo.md":   "---\nid: foo\ntitle: One\n---\n",
		"foo.json": `{"id": "foo", "title": "Two"}`,
	})

	_, err := loader.ListSurveys(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestLoader_UnknownKind(t *testing.T) {
	loader := seed(t, map[string]string{
		"bad.json": `{"id": "bad", "nodes": [{"id": "x", "type": "video", "data": {}}]}`,
	})

	_, err := loader.GetSurvey(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrUnknownNodeKind)
}
