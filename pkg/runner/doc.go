/*
Package runner implements the interactive loop that drives one survey attempt.

It bridges the stateless engine (ports.FlowEngine) and a respondent. Input and
output go through a pluggable IOHandler, and each accepted step is saved to an
optional ports.StateStore so the attempt can be resumed.

# Key Components

  - Runner: renders the current node, reads a Command and applies it.
  - TextHandler: line-based terminal interaction, optionally rendered with glamour.
  - JSONHandler: JSON Lines for scripted or piped use.
  - View: the state plus the node a client has to render.

# Usage

	r := runner.NewRunner(
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithStore(store),
	)

	state, err := eng.Start(ctx, "feedback", "attempt-1")
	if err != nil {
		log.Fatal(err)
	}
	if _, err := r.Run(ctx, eng, state); err != nil {
		log.Fatal(err)
	}
*/
package runner
