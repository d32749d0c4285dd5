package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/identifier"
	"github.com/aretw0/cardflow/pkg/schema"
)

// Store implements ports.VariableStore and ports.ChangeFeed in memory.
// Every write publishes an "updated" event to the subscribers.
// Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	vars domain.Variables

	subMu   sync.RWMutex
	subs    map[int]func(domain.ChangeEvent)
	nextSub int
}

// NewStore creates a new in-memory store holding vars.
// Types and fields are normalized onto the canonical schema on the way in.
func NewStore(vars ...domain.Variable) *Store {
	return &Store{
		vars: domain.NewVariables(schema.NormalizeVariables(vars)...),
		subs: make(map[int]func(domain.ChangeEvent)),
	}
}

// FetchAll returns every variable ordered by storage key.
func (s *Store) FetchAll(ctx context.Context) ([]domain.Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vars.Sorted(), nil
}

// FetchOne looks a variable up by any system id form.
func (s *Store) FetchOne(ctx context.Context, systemID string) (domain.Variable, error) {
	id, ok := identifier.ParseSystemID(systemID)
	if !ok {
		return domain.Variable{}, domain.ErrVariableNotFound
	}
	id = id.Canonical()

	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars.Find(id.EntityType, id.EntityID, id.Field)
	if !ok {
		return domain.Variable{}, domain.ErrVariableNotFound
	}
	return v, nil
}

// Update sets the value of a variable, creating it when it does not exist yet.
func (s *Store) Update(ctx context.Context, systemID string, value any) error {
	id, ok := identifier.ParseSystemID(systemID)
	if !ok {
		return domain.ErrVariableNotFound
	}
	id = id.Canonical()

	s.mu.RLock()
	v, found := s.vars.Find(id.EntityType, id.EntityID, id.Field)
	s.mu.RUnlock()
	if !found || !strings.EqualFold(v.Field, id.Field) {
		v = domain.Variable{EntityType: id.EntityType, EntityID: id.EntityID, Field: id.Field}
	}
	v.Value = value
	s.Put(v)
	return nil
}

// Put stores variables as an upstream producer would and notifies subscribers.
func (s *Store) Put(vars ...domain.Variable) {
	now := time.Now()
	vars = schema.NormalizeVariables(vars)
	for i := range vars {
		if vars[i].UpdatedAt.IsZero() {
			vars[i].UpdatedAt = now
		}
	}
	s.mu.Lock()
	s.vars = s.vars.With(vars...)
	s.mu.Unlock()

	for _, v := range vars {
		s.Publish(domain.ChangeEvent{
			EventType:   domain.EventTypeUpdated,
			VariableID:  identifier.FormatTypedSystemID(v.EntityType, v.EntityID, v.Field),
			CanonicalID: v.Key(),
		})
	}
}

// Subscribe registers handler until the returned function is called.
func (s *Store) Subscribe(ctx context.Context, handler func(domain.ChangeEvent)) (func(), error) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = handler
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}, nil
}

// Publish delivers ev to all subscribers in subscription order, on the caller's goroutine.
func (s *Store) Publish(ev domain.ChangeEvent) {
	s.subMu.RLock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]func(domain.ChangeEvent), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, s.subs[id])
	}
	s.subMu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}
