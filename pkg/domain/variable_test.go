package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariables_WithIsCopyOnWrite(t *testing.T) {
	orig := NewVariables(Variable{EntityType: "custom", EntityID: "x", Field: "value", Value: "pi"})
	next := orig.With(Variable{EntityType: "custom", EntityID: "y", Field: "value", Value: "pi"})

	assert.Len(t, orig, 1, "original map must not observe the write")
	assert.Len(t, next, 2)
	assert.Equal(t, "pi", next["custom_y_value"].Value)
}

func TestVariables_Find(t *testing.T) {
	vars := NewVariables(
		Variable{EntityID: "abc123", Field: "output", Value: "42 units"},
		Variable{EntityType: "npc", EntityID: "n1", Field: "Behavior", Value: "wander"},
		Variable{EntityType: "npc", EntityID: "n2", Field: "name", Value: "Bob"},
	)

	t.Run("type-less variable matches typed lookup", func(t *testing.T) {
		v, ok := vars.Find("task", "abc123", "output")
		require.True(t, ok)
		assert.Equal(t, "42 units", v.String())
	})

	t.Run("case-insensitive field", func(t *testing.T) {
		v, ok := vars.Find("npc", "n1", "behavior")
		require.True(t, ok)
		assert.Equal(t, "wander", v.String())
	})

	t.Run("id only", func(t *testing.T) {
		v, ok := vars.Find("npc", "n2", "unknown")
		require.True(t, ok)
		assert.Equal(t, "Bob", v.String())
	})

	t.Run("miss", func(t *testing.T) {
		_, ok := vars.Find("npc", "zzz", "name")
		assert.False(t, ok)
	})
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "42", FormatValue(42))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "3.5", FormatValue(3.5))
	assert.Equal(t, `{"a":1}`, FormatValue(map[string]int{"a": 1}))
}
