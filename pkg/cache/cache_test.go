package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_TTL(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, s.Set(ctx, "forever", []byte("b"), 0))

	v, ok := s.Get(ctx, "short")
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), v)

	now = now.Add(2 * time.Minute)
	_, ok = s.Get(ctx, "short")
	assert.False(t, ok)
	_, ok = s.Get(ctx, "forever")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestGetSetForget(t *testing.T) {
	Use(NewMemoryStore())

	type point struct{ Name string }
	require.NoError(t, Set("p", point{Name: "Widget"}, time.Minute))

	var got point
	assert.True(t, Get("p", &got))
	assert.Equal(t, "Widget", got.Name)

	require.NoError(t, Forget("p"))
	assert.False(t, Get("p", &got))
}

func TestGet_UndecodableIsMiss(t *testing.T) {
	s := NewMemoryStore()
	Use(s)
	require.NoError(t, s.Set(context.Background(), "bad", []byte("{"), 0))

	var dest map[string]string
	assert.False(t, Get("bad", &dest))
}
