package domain

import "time"

const (
	// DefaultStartNodeID is the fallback entry node when no node declares type start.
	DefaultStartNodeID = "start"

	// DefaultSyncTimeout is how long a worktask waits for its output before asking
	// for manual confirmation.
	DefaultSyncTimeout = 120 * time.Second

	// DefaultOutputField is the variable field a worktask publishes its result to.
	DefaultOutputField = "output"

	// EventTypeUpdated is the only change feed event the engine reacts to.
	EventTypeUpdated = "updated"

	// LoopYes and LoopNo are the two loop evaluation results.
	LoopYes = "yes"
	LoopNo  = "no"

	// AwaitingConfirmation is surfaced on syncing nodes whose wait timed out.
	AwaitingConfirmation = "waiting for manual confirmation"
)
