package sse_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	httpadapter "github.com/aretw0/cardflow/pkg/adapters/http"
	"github.com/aretw0/cardflow/pkg/adapters/memory"
	"github.com/aretw0/cardflow/pkg/adapters/sse"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idleEngine struct{}

func (idleEngine) Snapshot() *domain.RunSnapshot                  { return &domain.RunSnapshot{} }
func (idleEngine) CompleteManually(context.Context, string) error { return nil }
func (idleEngine) NotifySyncComplete(string) int                  { return 0 }

func TestFeed_Contract(t *testing.T) {
	store := memory.NewStore()
	srv := httpadapter.NewServer(idleEngine{})
	stop, err := srv.Relay(context.Background(), store)
	require.NoError(t, err)
	defer stop()

	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	feed := sse.NewFeed(server.URL+"/variables/events", sse.WithRetry(0))
	ports.RunChangeFeedContract(t, feed, store.Publish)
}

func TestFeed_ParsesStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: ping\ndata: connected\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, `data: {"eventType":"updated","variableId":"@gv_task_t1_output-=","canonicalId":"task_t1_output"}`+"\n\n")
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, "data: {\"eventType\":\"updated\",\n")
		fmt.Fprint(w, "data: \"variableId\":\"v2\"}\n\n")
		w.(http.Flusher).Flush()
	}))
	defer server.Close()

	var mu sync.Mutex
	var got []domain.ChangeEvent
	feed := sse.NewFeed(server.URL, sse.WithRetry(0))
	unsubscribe, err := feed.Subscribe(context.Background(), func(e domain.ChangeEvent) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer unsubscribe()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "task_t1_output", got[0].CanonicalID)
	assert.Equal(t, "v2", got[1].VariableID)
}

func TestFeed_LargeEvent(t *testing.T) {
	big := strings.Repeat("x", 200*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: {\"variableId\":%q}\n\n", big)
	}))
	defer server.Close()

	got := make(chan domain.ChangeEvent, 1)
	feed := sse.NewFeed(server.URL, sse.WithRetry(0))
	unsubscribe, err := feed.Subscribe(context.Background(), func(e domain.ChangeEvent) {
		got <- e
	})
	require.NoError(t, err)
	defer unsubscribe()

	select {
	case e := <-got:
		assert.Len(t, e.VariableID, len(big))
	case <-time.After(2 * time.Second):
		t.Fatal("large event not delivered")
	}
}

func TestFeed_Reconnects(t *testing.T) {
	var connections atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := connections.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: {\"variableId\":\"v%d\"}\n\n", n)
	}))
	defer server.Close()

	var delivered atomic.Int32
	feed := sse.NewFeed(server.URL, sse.WithRetry(10*time.Millisecond))
	unsubscribe, err := feed.Subscribe(context.Background(), func(domain.ChangeEvent) {
		delivered.Add(1)
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return delivered.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	unsubscribe()
}

func TestFeed_SubscribeErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := sse.NewFeed(server.URL).Subscribe(context.Background(), func(domain.ChangeEvent) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
