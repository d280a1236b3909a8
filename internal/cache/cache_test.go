package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 20*time.Millisecond))
	value, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", value)

	time.Sleep(30 * time.Millisecond)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDeletePrefix(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "rec:1:a", "x", time.Minute))
	require.NoError(t, m.Set(ctx, "rec:1:b", "y", time.Minute))
	require.NoError(t, m.Set(ctx, "rec:12:a", "z", time.Minute))

	require.NoError(t, m.DeletePrefix(ctx, "rec:1:"))

	_, ok, _ := m.Get(ctx, "rec:1:a")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "rec:1:b")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "rec:12:a")
	assert.True(t, ok, "the trailing separator keeps other students' keys")
}
