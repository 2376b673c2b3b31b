package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	c := NewMemory(0)

	_, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set("k", []byte("v")))
	v, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestMemoryExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("k", []byte("v")))
	now = now.Add(2 * time.Minute)

	_, ok, _ := c.Get("k")
	assert.False(t, ok)
}

func TestNewPicksBackend(t *testing.T) {
	assert.IsType(t, &Memory{}, New(nil, 0))
	assert.IsType(t, &Memcache{}, New([]string{"127.0.0.1:11211"}, time.Minute))
}
