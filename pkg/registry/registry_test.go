package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/aretw0/cardflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Execute(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("b", func(ctx context.Context, taskID string) (ports.JobResult, error) {
		return ports.JobResult{Output: "ran " + taskID}, nil
	})
	r.Register("a", func(ctx context.Context, taskID string) (ports.JobResult, error) {
		return ports.JobResult{}, nil
	})
	assert.Equal(t, []string{"a", "b"}, r.Tasks())

	res, err := r.Execute(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "ran b", res.Output)

	_, err = r.Execute(context.Background(), "missing")
	assert.ErrorIs(t, err, registry.ErrJobNotFound)
}

func TestRegistry_Fallback(t *testing.T) {
	var got string
	r := registry.NewRegistry()
	r.SetFallback(ports.JobRunnerFunc(func(ctx context.Context, taskID string) (ports.JobResult, error) {
		got = taskID
		return ports.JobResult{Output: "fallback"}, nil
	}))

	res, err := r.Execute(context.Background(), "external")
	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Output)
	assert.Equal(t, "external", got)
}
