/*
Package dsl provides a fluent Go builder for survey graphs.

It is an alternative to authoring survey documents as JSON or Markdown files, useful for
generated surveys, tests and examples.

Example usage:

	survey, err := dsl.New("nps", "How are we doing?").
		Scoring().
		Publish().
		Presentation("intro", "Welcome").CollectEmail(true).Go("score").
		Rating("score", "How likely are you to recommend us?", 0, 10).
			WhenRating(10, "promoter").
			Go("thanks").
		End("promoter", "Thank you!").ShowScore().
		End("thanks", "Thanks for the feedback").
		Build()

	loader := memory.NewLoader(survey)
	// ... pass loader to surveyflow.New("", surveyflow.WithLoader(loader))
*/
package dsl
