/*
Package waiter lets a caller wait until an externally computed variable is reported updated.

A caller registers a wait with WaitForSync and receives a wait id. When a change feed
reports a variable through NotifySyncComplete, every live wait whose variable id
matches is fired exactly once and removed. Matching is best effort, first success wins:

 1. exact string equality;
 2. equality of the bare "type_id_field" forms (tagging envelope stripped);
 3. equality of the UUID embedded in both ids, tolerating type prefix or field drift.

A timeout does not remove the wait. It only disarms the timer and marks the record,
so a notification arriving after the deadline still fires the callback. Callers are
expected to offer a manual way out for waits that never resolve.
*/
package waiter
