package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunVariableStoreContract runs a suite of tests to verify that a VariableStore implementation
// adheres to the defined interface contract. seed must make the given variables visible to store.
func RunVariableStoreContract(t *testing.T, store VariableStore, seed func(...domain.Variable)) {
	ctx := context.Background()
	suffix := time.Now().Format("150405")

	npc := domain.Variable{EntityType: "npc", EntityID: "n" + suffix, Field: "name", Value: "Ada", SourceName: "Guard"}
	task := domain.Variable{EntityType: "task", EntityID: "t" + suffix, Field: "output", Value: "42"}
	// Two fields of one loosely typed entity, as an upstream producer writes them.
	input := domain.Variable{EntityType: "任务", EntityID: "l" + suffix, Field: "输入", Value: "in"}
	output := domain.Variable{EntityType: "任务", EntityID: "l" + suffix, Field: "输出", Value: "out"}
	seed(npc, task, input, output)

	t.Run("FetchAll", func(t *testing.T) {
		all, err := store.FetchAll(ctx)
		require.NoError(t, err)
		keys := make([]string, 0, len(all))
		for _, v := range all {
			keys = append(keys, v.Key())
		}
		assert.Contains(t, keys, npc.Key())
		assert.Contains(t, keys, task.Key())
	})

	t.Run("FetchOne any form", func(t *testing.T) {
		for _, id := range []string{
			"@gv_npc_" + npc.EntityID + "_name-=",
			"npc_" + npc.EntityID + "_name",
			"gv_" + npc.EntityID + "_name",
		} {
			v, err := store.FetchOne(ctx, id)
			require.NoError(t, err, id)
			assert.Equal(t, "Ada", domain.FormatValue(v.Value), id)
			assert.Equal(t, npc.EntityID, v.EntityID, id)
		}
	})

	t.Run("FetchOne normalized", func(t *testing.T) {
		v, err := store.FetchOne(ctx, "@gv_task_l"+suffix+"_output-=")
		require.NoError(t, err)
		assert.Equal(t, "out", domain.FormatValue(v.Value))
		assert.Equal(t, "task", v.EntityType)
		assert.Equal(t, "output", v.Field)

		v, err = store.FetchOne(ctx, "@gv_任务_l"+suffix+"_输入-=")
		require.NoError(t, err)
		assert.Equal(t, "in", domain.FormatValue(v.Value))
	})

	t.Run("FetchOne missing", func(t *testing.T) {
		_, err := store.FetchOne(ctx, "@gv_npc_missing"+suffix+"_name-=")
		assert.ErrorIs(t, err, domain.ErrVariableNotFound)
	})

	t.Run("FetchOne malformed", func(t *testing.T) {
		_, err := store.FetchOne(ctx, "@@@")
		assert.ErrorIs(t, err, domain.ErrVariableNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		require.NoError(t, store.Update(ctx, "@gv_task_"+task.EntityID+"_output-=", "43"))
		v, err := store.FetchOne(ctx, task.Key())
		require.NoError(t, err)
		assert.Equal(t, "43", domain.FormatValue(v.Value))
	})
}

// RunChangeFeedContract verifies that publish results in exactly one delivered event
// per subscriber and that unsubscribing stops delivery.
func RunChangeFeedContract(t *testing.T, feed ChangeFeed, publish func(domain.ChangeEvent)) {
	ctx := context.Background()

	var mu sync.Mutex
	var got []domain.ChangeEvent
	unsubscribe, err := feed.Subscribe(ctx, func(e domain.ChangeEvent) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	require.NoError(t, err)

	event := domain.ChangeEvent{EventType: domain.EventTypeUpdated, VariableID: "v1", CanonicalID: "task_t1_output"}
	publish(event)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, event, got[0])
	mu.Unlock()

	unsubscribe()
	unsubscribe()

	publish(event)
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Len(t, got, 1, "no delivery after unsubscribe")
	mu.Unlock()
}
