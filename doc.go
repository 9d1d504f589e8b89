/*
Package surveyflow runs respondents through branching survey graphs.

A survey is a directed graph of screens (presentation, single choice, multiple choice,
rating, end screen). Edges may be conditioned on a chosen option or on an exact rating
value. The engine tracks the current node, the answer history, a running score and the
visited path, and supports undoing the last answer.

# Usage

The Engine resolves surveys through a loader. By default it reads a directory of
Markdown, YAML or JSON survey documents with Loam:

	eng, err := surveyflow.New("./surveys")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	state, err := eng.Start(ctx, "onboarding", "attempt-1")
	if err != nil {
		log.Fatal(err)
	}

	node, _ := eng.CurrentNode(ctx, state)
	state, _ = eng.Answer(ctx, state, domain.Answer{NodeID: node.ID, SelectedOptionID: "yes"})

Engine is stateless over attempts: every call takes an AttemptState and returns a new one,
which makes it a fit for servers that persist attempts between requests (see pkg/session).

For a single in-process respondent, Attempt owns its state:

	a := surveyflow.NewAttempt(survey, "attempt-1")
	a.Start(ctx)
	a.Answer(ctx, domain.Answer{NodeID: a.CurrentNode().ID, SelectedOptionID: "yes"})
	if a.IsCompleted() {
		res := a.Result()
		fmt.Println(res.TotalScore)
	}

# Resolution

After an answer, outgoing edges of the current node are matched by answer shape: a
single option selects the edge with that optionId, a multiple selection selects the first
default edge, a rating prefers the edge with that exact ratingValue and then a default edge.
Anything else falls back to the first outgoing edge. A node without outgoing edges completes
the attempt.
*/
package surveyflow
