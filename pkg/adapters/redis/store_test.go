package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/cardflow/pkg/adapters/redis"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)

	store := redis.NewFromClient(client)
	ports.RunVariableStoreContract(t, store, func(vars ...domain.Variable) {
		require.NoError(t, store.Put(context.Background(), vars...))
	})
}

func TestRedisFeed_Contract(t *testing.T) {
	_, client := setup(t)

	store := redis.NewFromClient(client, redis.WithPrefix("test:"))
	feed := redis.NewFeed(client, redis.WithFeedPrefix("test:"))
	ports.RunChangeFeedContract(t, feed, func(ev domain.ChangeEvent) {
		require.NoError(t, client.Publish(context.Background(), store.Channel(), mustJSON(t, ev)).Err())
	})
}

func TestRedisStore_UpdatePublishes(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()

	store := redis.NewFromClient(client)
	feed := redis.NewFeed(client)

	events := make(chan domain.ChangeEvent, 1)
	unsubscribe, err := feed.Subscribe(ctx, func(ev domain.ChangeEvent) { events <- ev })
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, store.Update(ctx, "@gv_task_t9_output-=", map[string]any{"score": 3}))

	select {
	case ev := <-events:
		assert.Equal(t, domain.EventTypeUpdated, ev.EventType)
		assert.Equal(t, "task_t9_output", ev.CanonicalID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	v, err := store.FetchOne(ctx, "task_t9_output")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"score": float64(3)}, v.Value)
	assert.False(t, v.UpdatedAt.IsZero())
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)
	ctx := context.Background()

	// Create store with 1s TTL
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	require.NoError(t, store.Put(ctx, domain.Variable{EntityType: "custom", EntityID: "c1", Field: "value", Value: "x"}))

	// 1. Verify List (immediately)
	all, err := store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// 2. Fast forward past the TTL
	mr.FastForward(2 * time.Second)

	all, err = store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = store.FetchOne(ctx, "@gv_custom_c1_value-=")
	assert.ErrorIs(t, err, domain.ErrVariableNotFound)

	// 3. The stale index entry was pruned
	members, err := client.SMembers(ctx, "cardflow:var:index").Result()
	require.NoError(t, err)
	assert.Empty(t, members)
}
