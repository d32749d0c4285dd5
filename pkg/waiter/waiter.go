package waiter

import (
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/identifier"
	"github.com/google/uuid"
)

var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// Callback is invoked once when a wait is matched.
// notifiedID is the id passed to NotifySyncComplete.
type Callback func(waitID, notifiedID string)

// Record is a snapshot of a live wait.
type Record struct {
	ID         string
	VariableID string
	CreatedAt  time.Time
	Deadline   time.Time
	TimedOut   bool
}

type entry struct {
	Record
	callback Callback
	timer    *time.Timer
}

// Waiter tracks pending waits. Safe for concurrent use.
type Waiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	onTimeout func(Record)
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures the Waiter.
type Option func(*Waiter)

// WithTimeoutHook registers a function called when a wait passes its deadline.
// The record stays registered afterwards.
func WithTimeoutHook(fn func(Record)) Option {
	return func(w *Waiter) {
		w.onTimeout = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Waiter) {
		w.logger = logger
	}
}

// New creates a Waiter.
func New(opts ...Option) *Waiter {
	w := &Waiter{
		entries: make(map[string]*entry),
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WaitForSync registers a wait for variableID and arms its timeout.
// A non-positive timeout uses domain.DefaultSyncTimeout.
func (w *Waiter) WaitForSync(variableID string, cb Callback, timeout time.Duration) string {
	if timeout <= 0 {
		timeout = domain.DefaultSyncTimeout
	}

	id := newID()
	now := w.now()
	e := &entry{
		Record: Record{
			ID:         id,
			VariableID: variableID,
			CreatedAt:  now,
			Deadline:   now.Add(timeout),
		},
		callback: cb,
	}

	w.mu.Lock()
	w.entries[id] = e
	e.timer = time.AfterFunc(timeout, func() { w.expire(id) })
	w.mu.Unlock()

	w.logger.Debug("wait registered", "wait_id", id, "variable_id", variableID, "timeout", timeout)
	return id
}

// expire disarms the timer of a wait but keeps the record alive.
func (w *Waiter) expire(id string) {
	w.mu.Lock()
	e, ok := w.entries[id]
	if !ok || e.TimedOut {
		w.mu.Unlock()
		return
	}
	e.TimedOut = true
	e.timer = nil
	rec := e.Record
	hook := w.onTimeout
	w.mu.Unlock()

	w.logger.Info("wait timed out, keeping record for late notification", "wait_id", id, "variable_id", rec.VariableID)
	if hook != nil {
		hook(rec)
	}
}

// NotifySyncComplete fires and removes every wait matching variableID.
// It returns the number of callbacks invoked.
func (w *Waiter) NotifySyncComplete(variableID string) int {
	w.mu.Lock()
	var fired []*entry
	for id, e := range w.entries {
		if Match(e.VariableID, variableID) {
			if e.timer != nil {
				e.timer.Stop()
				e.timer = nil
			}
			delete(w.entries, id)
			fired = append(fired, e)
		}
	}
	w.mu.Unlock()

	sort.Slice(fired, func(i, j int) bool { return fired[i].CreatedAt.Before(fired[j].CreatedAt) })
	for _, e := range fired {
		w.logger.Debug("wait matched", "wait_id", e.ID, "variable_id", e.VariableID, "notified_id", variableID, "late", e.TimedOut)
		if e.callback != nil {
			e.callback(e.ID, variableID)
		}
	}
	return len(fired)
}

// CancelWait removes a wait and disarms its timer. Unknown ids are ignored.
func (w *Waiter) CancelWait(waitID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[waitID]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(w.entries, waitID)
}

// CancelAll removes every wait.
func (w *Waiter) CancelAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, e := range w.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(w.entries, id)
	}
}

// Pending returns snapshots of the live waits ordered by creation time.
func (w *Waiter) Pending() []Record {
	w.mu.Lock()
	out := make([]Record, 0, len(w.entries))
	for _, e := range w.entries {
		out = append(out, e.Record)
	}
	w.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Lookup returns the record of a live wait.
func (w *Waiter) Lookup(waitID string) (Record, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[waitID]
	if !ok {
		return Record{}, false
	}
	return e.Record, true
}

// Match reports whether two variable ids designate the same variable.
func Match(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	if identifier.Bare(a) == identifier.Bare(b) {
		return true
	}
	ua, ub := EntityUUID(a), EntityUUID(b)
	return ua != "" && ua == ub
}

// EntityUUID returns the canonical UUID embedded in id, or "" when there is none.
func EntityUUID(id string) string {
	m := uuidPattern.FindString(id)
	if m == "" {
		return ""
	}
	parsed, err := uuid.Parse(m)
	if err != nil {
		return ""
	}
	return parsed.String()
}

func newID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
