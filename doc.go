/*
Package cardflow runs workflow graphs made of cards.

A graph is a set of typed nodes ("cards") connected by edges. The engine walks the
graph from its start card, executing one card at a time and resolving text against
variables owned by an external store.

# Cards

  - start: resolves a welcome text and advances.
  - display: resolves text with variable tokens for presentation.
  - assign: copies values between variables, or writes literals, through the store.
  - loop: branches to a yes or no card by run count or by a variable's value.
  - worktask: runs an external job, then parks in "syncing" until its output variable
    arrives and an operator confirms the card.

# Variables

Variables are addressed by identifiers such as "@gv_task_abc123_output-=" and are
referenced in text with the same tokens. Display forms like "Task.Output#abc123" are
produced for humans and accepted back by the interpolator.

# Usage

	eng, err := cardflow.New(
		cardflow.WithGraphFile("flow.yaml"),
		cardflow.WithJobRunner(process.NewRunner(process.WithRegistry(jobs))),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Stop()

	if err := eng.Run(ctx); err != nil {
		log.Fatal(err)
	}

	// Later, once the job output arrived upstream:
	err = eng.CompleteManually(ctx, "build")

The run is observable through domain.LifecycleHooks, and can be exposed over HTTP
with pkg/adapters/http.
*/
package cardflow
