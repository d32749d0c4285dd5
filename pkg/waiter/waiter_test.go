package waiter

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaiter_ExactMatchFiresOnce(t *testing.T) {
	w := New()
	var calls atomic.Int32
	id := w.WaitForSync("@gv_task_t1_output-=", func(waitID, notified string) { calls.Add(1) }, time.Minute)

	assert.Equal(t, 1, w.NotifySyncComplete("@gv_task_t1_output-="))
	assert.Equal(t, 0, w.NotifySyncComplete("@gv_task_t1_output-="), "record must be removed after firing")
	assert.Equal(t, int32(1), calls.Load())

	_, ok := w.Lookup(id)
	assert.False(t, ok)
}

func TestWaiter_AllWaitsForSameIDFire(t *testing.T) {
	w := New()
	const n = 5
	var mu sync.Mutex
	counts := make(map[string]int)
	for i := 0; i < n; i++ {
		w.WaitForSync("task_t1_output", func(waitID, _ string) {
			mu.Lock()
			counts[waitID]++
			mu.Unlock()
		}, time.Minute)
	}

	fired := w.NotifySyncComplete("@gv_task_t1_output-=")
	assert.Equal(t, n, fired)
	assert.Len(t, counts, n)
	for _, c := range counts {
		assert.Equal(t, 1, c)
	}
	assert.Empty(t, w.Pending())
}

func TestWaiter_TimeoutPreservesRecord(t *testing.T) {
	timedOut := make(chan Record, 1)
	w := New(WithTimeoutHook(func(r Record) { timedOut <- r }))

	var calls atomic.Int32
	id := w.WaitForSync("task_t1_output", func(string, string) { calls.Add(1) }, 10*time.Millisecond)

	select {
	case rec := <-timedOut:
		assert.Equal(t, id, rec.ID)
		assert.True(t, rec.TimedOut)
	case <-time.After(time.Second):
		t.Fatal("timeout hook was not invoked")
	}

	rec, ok := w.Lookup(id)
	require.True(t, ok, "timed out wait must stay registered")
	assert.True(t, rec.TimedOut)

	assert.Equal(t, 1, w.NotifySyncComplete("task_t1_output"))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, w.NotifySyncComplete("task_t1_output"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestWaiter_CancelIsIdempotent(t *testing.T) {
	w := New()
	var calls atomic.Int32
	id := w.WaitForSync("x_y", func(string, string) { calls.Add(1) }, time.Minute)

	w.CancelWait(id)
	w.CancelWait(id)
	w.CancelWait("unknown")

	assert.Equal(t, 0, w.NotifySyncComplete("x_y"))
	assert.Equal(t, int32(0), calls.Load())
}

func TestWaiter_DefaultTimeout(t *testing.T) {
	w := New()
	id := w.WaitForSync("x_y", nil, 0)
	rec, ok := w.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, 120*time.Second, rec.Deadline.Sub(rec.CreatedAt))
	w.CancelAll()
	assert.Empty(t, w.Pending())
}

func TestMatch(t *testing.T) {
	const u = "550e8400-e29b-41d4-a716-446655440000"
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"exact", "a_b", "a_b", true},
		{"envelope stripped", "@gv_task_t1_output-=", "task_t1_output", true},
		{"legacy marker", "gv_t1_output", "@gv_t1_output-=", true},
		{"uuid with type drift", "@gv_task_" + u + "_output-=", "workflow_" + u + "_result", true},
		{"uuid case insensitive", "task_" + u + "_output", "task_" + "550E8400-E29B-41D4-A716-446655440000" + "_x", true},
		{"different", "task_t1_output", "task_t2_output", false},
		{"empty", "", "task_t2_output", false},
		{"different uuids", "task_" + u + "_o", "task_650e8400-e29b-41d4-a716-446655440000_o", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.a, tt.b))
			assert.Equal(t, tt.want, Match(tt.b, tt.a))
		})
	}
}

func TestWaiter_ConcurrentNotify(t *testing.T) {
	w := New()
	var calls atomic.Int32
	for i := 0; i < 50; i++ {
		w.WaitForSync("task_t1_output", func(string, string) { calls.Add(1) }, time.Minute)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.NotifySyncComplete("task_t1_output")
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(50), calls.Load())
}
