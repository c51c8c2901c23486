package bitmaps

import (
	"fmt"
	"image"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bitmapOf returns a bitmap of exactly n*400 bytes (10x10 pixels per unit).
func bitmapOf(units int) *Bitmap {
	return NewBitmap(image.NewRGBA(image.Rect(0, 0, 10*units, 10)))
}

func TestNewBitmap_Size(t *testing.T) {
	bm := bitmapOf(3)
	assert.Equal(t, int64(1200), bm.ByteSize())
	assert.False(t, bm.IsRecycled())
	assert.NotNil(t, bm.Image())
}

func TestBitmap_RecycleOnce(t *testing.T) {
	bm := bitmapOf(1)

	assert.True(t, bm.Recycle())
	assert.False(t, bm.Recycle(), "second recycle is a no-op")
	assert.True(t, bm.IsRecycled())
	assert.Nil(t, bm.Image())
}

func TestCache_PutGet(t *testing.T) {
	c := NewCache(4000)
	bm := bitmapOf(1)

	require.True(t, c.Put("a", bm))

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Same(t, bm, got)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(400), c.Size())

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_EvictThenMissAndRecycled(t *testing.T) {
	c := NewCache(1000)
	first := bitmapOf(1)
	second := bitmapOf(1)
	third := bitmapOf(1)

	c.Put("first", first)
	c.Put("second", second)
	c.Put("third", third) // 1200 > 1000, evicts "first"

	_, ok := c.Get("first")
	assert.False(t, ok)
	assert.True(t, first.IsRecycled())
	assert.False(t, second.IsRecycled())
	assert.False(t, third.IsRecycled())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(800), c.Size())
}

func TestCache_GetPromotes(t *testing.T) {
	c := NewCache(1000)
	a, b := bitmapOf(1), bitmapOf(1)
	c.Put("a", a)
	c.Put("b", b)

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", bitmapOf(1))

	_, ok = c.Get("a")
	assert.True(t, ok, "recently read entry survives")
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.True(t, b.IsRecycled())
}

func TestCache_OversizedNotCached(t *testing.T) {
	c := NewCache(1000)
	c.Put("small", bitmapOf(1))

	big := bitmapOf(3)
	assert.False(t, c.Put("big", big))

	_, ok := c.Get("big")
	assert.False(t, ok)
	assert.False(t, big.IsRecycled(), "caller keeps ownership of rejected bitmaps")
	_, ok = c.Get("small")
	assert.True(t, ok, "rejecting a bitmap evicts nothing")
}

func TestCache_ReplaceKey(t *testing.T) {
	c := NewCache(2000)
	old, replacement := bitmapOf(1), bitmapOf(2)

	c.Put("k", old)
	c.Put("k", replacement)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Same(t, replacement, got)
	assert.True(t, old.IsRecycled())
	assert.Equal(t, int64(800), c.Size())
	assert.Equal(t, 1, c.Len())
}

func TestCache_RemoveDoesNotRecycle(t *testing.T) {
	c := NewCache(1000)
	bm := bitmapOf(1)
	c.Put("k", bm)

	c.Remove("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.False(t, bm.IsRecycled())
	assert.Zero(t, c.Size())
}

func TestCache_RemoveFunc(t *testing.T) {
	c := NewCache(4000)
	c.Put("a.jpg@100", bitmapOf(1))
	c.Put("a.jpg@200", bitmapOf(1))
	c.Put("b.jpg@100", bitmapOf(1))

	removed := c.RemoveFunc(func(key string) bool { return strings.HasPrefix(key, "a.jpg@") })

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(400), c.Size())
	_, ok := c.Get("b.jpg@100")
	assert.True(t, ok)
}

func TestCache_GetDropsExternallyRecycled(t *testing.T) {
	c := NewCache(1000)
	bm := bitmapOf(1)
	c.Put("k", bm)

	bm.Recycle()

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCache_ReleaseAll(t *testing.T) {
	c := NewCache(1000)
	cached := bitmapOf(1)
	removed := bitmapOf(1)
	c.Put("cached", cached)
	c.Put("removed", removed)
	c.Remove("removed")

	released := c.ReleaseAll()

	assert.Equal(t, 2, released, "live bitmaps that left the LRU are released too")
	assert.True(t, cached.IsRecycled())
	assert.True(t, removed.IsRecycled())
	assert.Zero(t, c.Len())
	assert.Zero(t, c.Size())
	assert.Zero(t, c.ReleaseAll())
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache(4000)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("%d-%d", i, j%5)
				c.Put(key, bitmapOf(1))
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), int64(4000))
	assert.LessOrEqual(t, c.Len(), 10)
}

func TestDefaultMaxBytes(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultMaxBytes(8), int64(MinCacheBytes))
	assert.GreaterOrEqual(t, DefaultMaxBytes(0), int64(MinCacheBytes))
	assert.Equal(t, int64(MinCacheBytes), DefaultMaxBytes(1<<40))
}
