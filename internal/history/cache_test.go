package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitCache_LookupMissing(t *testing.T) {
	c := NewVisitCache(10, nil)
	_, ok := c.Lookup("https://example.com/")
	assert.False(t, ok)
}

func TestVisitCache_UpdateOverwrites(t *testing.T) {
	sizes := &sizeLog{}
	c := NewVisitCache(10, sizes)

	c.Update("https://a.com/", time.UnixMilli(1000), 5)
	c.Update("https://a.com/", time.UnixMilli(2000), 2)

	entry, ok := c.Lookup("https://a.com/")
	require.True(t, ok)
	assert.Equal(t, int64(2000), entry.VisitTime.UnixMilli())
	assert.Equal(t, int64(2), entry.VisitCount, "counts are replaced, not merged")
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []int{1, 1}, sizes.sizes)
}

func TestVisitCache_UpdateDefaults(t *testing.T) {
	c := NewVisitCache(10, nil)
	fixed := time.UnixMilli(42_000)
	c.now = func() time.Time { return fixed }

	c.Update("https://a.com/", time.Time{}, 0)

	entry, ok := c.Lookup("https://a.com/")
	require.True(t, ok)
	assert.Equal(t, fixed, entry.VisitTime)
	assert.Equal(t, int64(1), entry.VisitCount)
}

func TestVisitCache_UpdateEvictsPastMaxSize(t *testing.T) {
	sizes := &sizeLog{}
	c := NewVisitCache(2, sizes)

	c.Update("https://a.com/", time.UnixMilli(3000), 1)
	c.Update("https://b.com/", time.UnixMilli(1000), 1)
	c.Update("https://c.com/", time.UnixMilli(2000), 1)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Lookup("https://b.com/")
	assert.False(t, ok, "oldest visit should be evicted")
	_, ok = c.Lookup("https://a.com/")
	assert.True(t, ok)
	_, ok = c.Lookup("https://c.com/")
	assert.True(t, ok)
	assert.Equal(t, 2, sizes.last())
}

func TestVisitCache_EvictToSizeKeepsMostRecent(t *testing.T) {
	c := NewVisitCache(100, nil)
	times := []int64{50, 10, 40, 30, 20, 60}
	for i, ms := range times {
		c.Update(fmt.Sprintf("https://example.com/%d", i), time.UnixMilli(ms), 1)
	}

	c.EvictToSize(3)

	assert.Equal(t, 3, c.Len())
	for _, i := range []int{0, 2, 5} {
		_, ok := c.Lookup(fmt.Sprintf("https://example.com/%d", i))
		assert.True(t, ok, "entry %d has one of the three newest visit times", i)
	}
}

func TestVisitCache_EvictTiesByInsertionOrder(t *testing.T) {
	c := NewVisitCache(100, nil)
	same := time.UnixMilli(1000)
	c.Update("https://first.com/", same, 1)
	c.Update("https://second.com/", same, 1)
	c.Update("https://third.com/", same, 1)
	// Overwriting keeps the original insertion position.
	c.Update("https://first.com/", same, 7)

	c.EvictToSize(2)

	_, ok := c.Lookup("https://first.com/")
	assert.False(t, ok, "earliest inserted entry goes first on equal times")
	_, ok = c.Lookup("https://second.com/")
	assert.True(t, ok)
	_, ok = c.Lookup("https://third.com/")
	assert.True(t, ok)
}

func TestVisitCache_EvictToSizeNoopWhenSmaller(t *testing.T) {
	sizes := &sizeLog{}
	c := NewVisitCache(100, sizes)
	c.Update("https://a.com/", time.UnixMilli(1), 1)

	c.EvictToSize(5)

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, sizes.last())
}

func TestVisitCache_EvictToSizeZero(t *testing.T) {
	c := NewVisitCache(100, nil)
	c.Update("https://a.com/", time.UnixMilli(1), 1)
	c.Update("https://b.com/", time.UnixMilli(2), 1)

	c.EvictToSize(-3)

	assert.Equal(t, 0, c.Len())
}

func TestVisitCache_Clear(t *testing.T) {
	sizes := &sizeLog{}
	c := NewVisitCache(100, sizes)
	c.Update("https://a.com/", time.UnixMilli(1), 1)

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, sizes.last())
}

func TestVisitCache_ClearEmptyIsIdempotent(t *testing.T) {
	sizes := &sizeLog{}
	c := NewVisitCache(100, sizes)

	c.Clear()
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, []int{0, 0}, sizes.sizes)
}

func TestVisitCache_SetMaxSizeAppliesOnNextUpdate(t *testing.T) {
	c := NewVisitCache(10, nil)
	for i := 0; i < 5; i++ {
		c.Update(fmt.Sprintf("https://example.com/%d", i), time.UnixMilli(int64(i+1)), 1)
	}

	c.SetMaxSize(2)
	assert.Equal(t, 5, c.Len())
	assert.Equal(t, 2, c.MaxSize())

	c.Update("https://example.com/new", time.UnixMilli(100), 1)
	assert.Equal(t, 2, c.Len())
	_, ok := c.Lookup("https://example.com/new")
	assert.True(t, ok)
	_, ok = c.Lookup("https://example.com/4")
	assert.True(t, ok)
}

func TestVisitCache_EvictionProperty(t *testing.T) {
	// Surviving entries are exactly the n with the largest visit times.
	c := NewVisitCache(1000, nil)
	const total, keep = 200, 37
	for i := 0; i < total; i++ {
		ms := int64((i*7919)%total + 1)
		c.Update(fmt.Sprintf("https://example.com/%d", i), time.UnixMilli(ms), 1)
	}

	c.EvictToSize(keep)

	require.Equal(t, keep, c.Len())
	for i := 0; i < total; i++ {
		ms := int64((i*7919)%total + 1)
		_, ok := c.Lookup(fmt.Sprintf("https://example.com/%d", i))
		assert.Equal(t, ms > total-keep, ok, "entry %d with time %d", i, ms)
	}
}
