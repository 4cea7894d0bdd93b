package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCache_GetSet(t *testing.T) {
	c := New[string, int](Options[string]{})

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Set("a", 2)
	v, _ = c.Get("a")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestCache_LRUEviction(t *testing.T) {
	c := New[string, int](Options[string]{Size: 2, Policy: NewLRU[string]()})

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a") // a is now most recently used
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_FIFOEviction(t *testing.T) {
	c := New[string, int](Options[string]{Size: 2, Policy: NewFIFO[string]()})

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a") // access does not matter for FIFO
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "a should be evicted")
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestCache_TTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := New[string, int](Options[string]{TTL: time.Minute, Now: clock.Now})

	c.Set("a", 1)
	clock.Advance(59 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Purge(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := New[string, int](Options[string]{TTL: time.Minute, Now: clock.Now})

	c.Set("old", 1)
	clock.Advance(30 * time.Second)
	c.Set("new", 2)
	clock.Advance(45 * time.Second)

	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("new")
	assert.True(t, ok)
}

func TestCache_Remove(t *testing.T) {
	c := New[string, int](Options[string]{Size: 1})

	c.Set("a", 1)
	c.Remove("a")
	c.Remove("missing")
	assert.Equal(t, 0, c.Len())

	// Removing must also drop the key from the policy, so inserting does not
	// evict anything unexpected.
	c.Set("b", 2)
	_, ok := c.Get("b")
	assert.True(t, ok)
}

func TestCache_StructKeys(t *testing.T) {
	type key struct {
		text string
		sort int
	}
	c := New[key, string](Options[key]{Size: 10})

	c.Set(key{"lego", 1}, "asc")
	c.Set(key{"lego", 2}, "desc")

	v, ok := c.Get(key{"lego", 1})
	require.True(t, ok)
	assert.Equal(t, "asc", v)
	assert.Equal(t, 2, c.Len())
}

func TestPolicyByName(t *testing.T) {
	for _, name := range []string{"", "lru", "LRU", " fifo "} {
		p, err := PolicyByName[string](name)
		require.NoError(t, err, name)
		assert.NotNil(t, p)
	}

	_, err := PolicyByName[string]("random")
	require.ErrorIs(t, err, ErrUnknownPolicy)
}
