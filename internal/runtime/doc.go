// Package runtime implements the card engine: the node state machine, the handler
// registry and the completion rules that decide when a run advances.
//
// Execution is strictly sequential. A single run loop drives one handler at a time;
// asynchronous signals (sync notifications, timeouts, manual completion) only touch
// state through the engine's locked methods.
package runtime
