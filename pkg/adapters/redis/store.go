package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/identifier"
	"github.com/aretw0/cardflow/pkg/schema"
	backend "github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "cardflow:var:"

	fieldType   = "entity_type"
	fieldID     = "entity_id"
	fieldName   = "field"
	fieldValue  = "value"
	fieldSource = "source_name"
	fieldTime   = "updated_at"
)

// Store implements ports.VariableStore using one Redis hash per variable.
// Writes are announced on the events channel so that a Feed over the same
// prefix receives them.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration of variable hashes. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for variables and the events channel.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to build a Feed on the same connection.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Channel is the pub/sub channel change events are published on.
func (s *Store) Channel() string {
	return channelName(s.prefix)
}

func channelName(prefix string) string {
	return prefix + "events"
}

func (s *Store) key(storageKey string) string {
	return s.prefix + storageKey
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Put writes variables as an upstream producer would and publishes one event per variable.
func (s *Store) Put(ctx context.Context, vars ...domain.Variable) error {
	now := time.Now()
	pipe := s.client.TxPipeline()
	events := make([]domain.ChangeEvent, 0, len(vars))
	for _, v := range schema.NormalizeVariables(vars) {
		if v.UpdatedAt.IsZero() {
			v.UpdatedAt = now
		}
		value, err := json.Marshal(v.Value)
		if err != nil {
			return fmt.Errorf("failed to marshal value of %s: %w", v.Key(), err)
		}
		key := s.key(v.Key())
		pipe.HSet(ctx, key, map[string]any{
			fieldType:   v.EntityType,
			fieldID:     v.EntityID,
			fieldName:   v.Field,
			fieldValue:  string(value),
			fieldSource: v.SourceName,
			fieldTime:   v.UpdatedAt.Format(time.RFC3339Nano),
		})
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		pipe.SAdd(ctx, s.indexKey(), v.Key())
		events = append(events, domain.ChangeEvent{
			EventType:   domain.EventTypeUpdated,
			VariableID:  identifier.FormatTypedSystemID(v.EntityType, v.EntityID, v.Field),
			CanonicalID: v.Key(),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	for _, ev := range events {
		if err := s.publish(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) publish(ctx context.Context, ev domain.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := s.client.Publish(ctx, s.Channel(), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// FetchAll returns every live variable ordered by storage key.
// Index entries whose hash expired are pruned lazily.
func (s *Store) FetchAll(ctx context.Context) ([]domain.Variable, error) {
	keys, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list variables: %w", err)
	}
	sort.Strings(keys)

	pipe := s.client.Pipeline()
	cmds := make([]*backend.MapStringStringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HGetAll(ctx, s.key(k))
	}
	if len(keys) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to load variables: %w", err)
		}
	}

	out := make([]domain.Variable, 0, len(keys))
	var stale []any
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			stale = append(stale, keys[i])
			continue
		}
		v, err := decode(fields)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", keys[i], err)
		}
		out = append(out, v)
	}
	if len(stale) > 0 {
		if err := s.client.SRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune expired variables: %w", err)
		}
	}
	return out, nil
}

// FetchOne looks a variable up by any system id form.
// The exact hash is tried first, then the lenient matching of domain.Variables.Find.
func (s *Store) FetchOne(ctx context.Context, systemID string) (domain.Variable, error) {
	id, ok := identifier.ParseSystemID(systemID)
	if !ok {
		return domain.Variable{}, domain.ErrVariableNotFound
	}
	id = id.Canonical()

	fields, err := s.client.HGetAll(ctx, s.key(id.Bare())).Result()
	if err != nil {
		return domain.Variable{}, fmt.Errorf("failed to get from redis: %w", err)
	}
	if len(fields) > 0 {
		return decode(fields)
	}

	all, err := s.FetchAll(ctx)
	if err != nil {
		return domain.Variable{}, err
	}
	v, ok := domain.NewVariables(all...).Find(id.EntityType, id.EntityID, id.Field)
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

	v, err := s.FetchOne(ctx, systemID)
	switch {
	case errors.Is(err, domain.ErrVariableNotFound):
		v = domain.Variable{EntityType: id.EntityType, EntityID: id.EntityID, Field: id.Field}
	case err != nil:
		return err
	case !strings.EqualFold(v.Field, id.Field):
		v = domain.Variable{EntityType: id.EntityType, EntityID: id.EntityID, Field: id.Field}
	}
	v.Value = value
	v.UpdatedAt = time.Time{}
	return s.Put(ctx, v)
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func decode(fields map[string]string) (domain.Variable, error) {
	v := domain.Variable{
		EntityType: fields[fieldType],
		EntityID:   fields[fieldID],
		Field:      fields[fieldName],
		SourceName: fields[fieldSource],
	}
	if raw := fields[fieldValue]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &v.Value); err != nil {
			return v, fmt.Errorf("failed to unmarshal value: %w", err)
		}
	}
	if ts := fields[fieldTime]; ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			v.UpdatedAt = t
		}
	}
	return schema.NormalizeVariable(v), nil
}
