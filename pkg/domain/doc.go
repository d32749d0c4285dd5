/*
Package domain contains the core domain models of the cardflow engine.

It defines the entities of a card graph run: the execution nodes and their status
lifecycle, the variables referenced by cards, and the events emitted while a run
progresses. This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - ExecutionNode: a card instance in a run (start, worktask, display, assign, loop).
  - Variable: a value owned by an external store, addressed by (type, entity id, field).
  - Variables: the copy-on-write variable map threaded through handlers.
  - Graph: the node and edge lists a run is built from.
  - RunDiff: a partial update describing what changed between two run snapshots.
*/
package domain
