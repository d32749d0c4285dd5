package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/cardflow/pkg/adapters/memory"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunVariableStoreContract(t, store, store.Put)
}

func TestMemoryStore_FeedContract(t *testing.T) {
	store := memory.NewStore()
	ports.RunChangeFeedContract(t, store, store.Publish)
}

func TestMemoryStore_UpdatePublishes(t *testing.T) {
	store := memory.NewStore()

	var got []domain.ChangeEvent
	unsubscribe, err := store.Subscribe(context.Background(), func(e domain.ChangeEvent) {
		got = append(got, e)
	})
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, store.Update(context.Background(), "@gv_task_t1_output-=", "done"))

	require.Len(t, got, 1)
	assert.Equal(t, domain.EventTypeUpdated, got[0].EventType)
	assert.Equal(t, "task_t1_output", got[0].CanonicalID)
	assert.Equal(t, "@gv_task_t1_output-=", got[0].VariableID)

	v, err := store.FetchOne(context.Background(), "task_t1_output")
	require.NoError(t, err)
	assert.Equal(t, "done", v.Value)
}
