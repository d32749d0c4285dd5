/*
Package ports defines the driven ports (interfaces) of the cardflow engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various variable stores, change feeds and job runners.

# Key Interfaces

  - VariableStore: reads variables and requests value updates.
  - ChangeFeed: pushes "variable updated" events (e.g. over Redis pub/sub or SSE).
  - JobRunner: executes the long-running job behind a worktask card.
  - GraphLoader: loads the card graph a run is built from.
*/
package ports
