package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestCollectionEmptyIsMiss(t *testing.T) {
	c := New[int](time.Minute, nil)
	_, _, ok := c.Get()
	assert.False(t, ok)
}

func TestCollectionHitWithinTTL(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	c := New[string](time.Minute, clk.Now)

	require.True(t, c.Set([]string{"go", "sql"}, 0))
	clk.Advance(59 * time.Second)

	rows, _, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, []string{"go", "sql"}, rows)
}

func TestCollectionExpiresAtTTL(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	c := New[string](time.Minute, clk.Now)

	c.Set([]string{"go"}, 0)
	clk.Advance(time.Minute)

	_, _, ok := c.Get()
	assert.False(t, ok)
}

func TestCollectionSetRestartsTTL(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	c := New[int](time.Minute, clk.Now)

	c.Set([]int{1}, 0)
	clk.Advance(50 * time.Second)
	c.Set([]int{1, 2}, 0)
	clk.Advance(50 * time.Second)

	rows, _, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, rows)
}

func TestCollectionInvalidate(t *testing.T) {
	c := New[int](time.Minute, nil)
	c.Set([]int{1}, 0)
	c.Invalidate()

	_, _, ok := c.Get()
	assert.False(t, ok)
}

func TestCollectionSetAfterInvalidateIsDropped(t *testing.T) {
	c := New[int](time.Minute, nil)

	_, version, ok := c.Get()
	require.False(t, ok)

	// a mutation lands while the reader is querying the store
	c.Invalidate()

	assert.False(t, c.Set([]int{1}, version))
	_, _, ok = c.Get()
	assert.False(t, ok)

	_, version, _ = c.Get()
	assert.True(t, c.Set([]int{1, 2}, version))
	rows, _, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, rows)
}

func TestCollectionConcurrentMissesBothPopulate(t *testing.T) {
	c := New[int](time.Minute, nil)

	_, v1, _ := c.Get()
	_, v2, _ := c.Get()

	assert.True(t, c.Set([]int{1}, v1))
	assert.True(t, c.Set([]int{1}, v2))
}

func TestCollectionEmptyListIsCached(t *testing.T) {
	c := New[int](time.Minute, nil)
	c.Set(nil, 0)

	rows, _, ok := c.Get()
	require.True(t, ok)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestCollectionReturnsCopies(t *testing.T) {
	c := New[int](time.Minute, nil)
	src := []int{1, 2}
	c.Set(src, 0)
	src[0] = 99

	rows, _, _ := c.Get()
	rows[1] = 42

	again, _, _ := c.Get()
	assert.Equal(t, []int{1, 2}, again)
}
