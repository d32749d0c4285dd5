package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/identifier"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/aretw0/cardflow/pkg/schema"
)

// MockStore is a minimal VariableStore used to exercise the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	vars domain.Variables
}

func (m *MockStore) FetchAll(ctx context.Context) ([]domain.Variable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vars.Sorted(), nil
}

func (m *MockStore) FetchOne(ctx context.Context, systemID string) (domain.Variable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := identifier.ParseSystemID(systemID)
	if !ok {
		return domain.Variable{}, domain.ErrVariableNotFound
	}
	id = id.Canonical()
	v, ok := m.vars.Find(id.EntityType, id.EntityID, id.Field)
	if !ok {
		return domain.Variable{}, domain.ErrVariableNotFound
	}
	return v, nil
}

func (m *MockStore) Update(ctx context.Context, systemID string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := identifier.ParseSystemID(systemID)
	if !ok {
		return domain.ErrVariableNotFound
	}
	id = id.Canonical()
	v, found := m.vars.Find(id.EntityType, id.EntityID, id.Field)
	if !found {
		v = domain.Variable{EntityType: id.EntityType, EntityID: id.EntityID, Field: id.Field}
	}
	v.Value = value
	m.vars = m.vars.With(v)
	return nil
}

func TestVariableStore_Contract(t *testing.T) {
	store := &MockStore{vars: domain.Variables{}}
	ports.RunVariableStoreContract(t, store, func(vars ...domain.Variable) {
		store.vars = store.vars.With(schema.NormalizeVariables(vars)...)
	})
}
