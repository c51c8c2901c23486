// Package bitmaps keeps decoded cover images in memory for resized cover requests.
//
// The cache is bounded by decoded byte size rather than entry count. Evicted
// bitmaps are recycled so their pixel buffers can be collected even while a
// stale reference is still held somewhere, and a weak side set lets ReleaseAll
// reach bitmaps that already left the LRU but are still alive.
package bitmaps

import (
	"container/list"
	"image"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"weak"
)

// MinCacheBytes is the floor applied by DefaultMaxBytes.
const MinCacheBytes = 8 << 20

// Bitmap is a decoded image with an explicit release lifecycle.
type Bitmap struct {
	mu       sync.RWMutex
	img      image.Image
	size     int64
	recycled atomic.Bool
}

// NewBitmap wraps img. Its size is estimated as 4 bytes per pixel.
func NewBitmap(img image.Image) *Bitmap {
	b := img.Bounds()
	return &Bitmap{
		img:  img,
		size: int64(b.Dx()) * int64(b.Dy()) * 4,
	}
}

// Image returns the wrapped image, or nil once the bitmap has been recycled.
func (b *Bitmap) Image() image.Image {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.img
}

// ByteSize returns the estimated decoded size in bytes.
func (b *Bitmap) ByteSize() int64 {
	return b.size
}

// Recycle drops the pixel data. It reports whether this call did the release.
func (b *Bitmap) Recycle() bool {
	if !b.recycled.CompareAndSwap(false, true) {
		return false
	}
	b.mu.Lock()
	b.img = nil
	b.mu.Unlock()
	return true
}

func (b *Bitmap) IsRecycled() bool {
	return b.recycled.Load()
}

type entry struct {
	key    string
	bitmap *Bitmap
}

// Cache is an LRU of bitmaps bounded by total byte size. It is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	maxBytes int64
	size     int64
	ll       *list.List
	items    map[string]*list.Element
	seen     map[weak.Pointer[Bitmap]]struct{}
}

// NewCache creates a cache holding at most maxBytes of decoded pixels.
func NewCache(maxBytes int64) *Cache {
	return &Cache{
		maxBytes: maxBytes,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		seen:     make(map[weak.Pointer[Bitmap]]struct{}),
	}
}

// DefaultMaxBytes returns 1/fraction of the runtime memory limit. Without a
// limit it falls back to the memory obtained from the OS, never going below MinCacheBytes.
func DefaultMaxBytes(fraction int) int64 {
	if fraction <= 0 {
		fraction = 8
	}

	available := debug.SetMemoryLimit(-1)
	if available <= 0 || available == math.MaxInt64 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		available = int64(ms.Sys)
	}

	size := available / int64(fraction)
	if size < MinCacheBytes {
		size = MinCacheBytes
	}
	return size
}

// Put stores bm under key, evicting least recently used entries to make room.
// Bitmaps larger than the whole cache are not stored; Put reports whether bm was cached.
func (c *Cache) Put(key string, bm *Bitmap) bool {
	if bm == nil || bm.IsRecycled() || bm.ByteSize() > c.maxBytes {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		old := el.Value.(*entry)
		c.size -= old.bitmap.ByteSize()
		if old.bitmap != bm {
			old.bitmap.Recycle()
		}
		old.bitmap = bm
		c.size += bm.ByteSize()
		c.ll.MoveToFront(el)
	} else {
		c.items[key] = c.ll.PushFront(&entry{key: key, bitmap: bm})
		c.size += bm.ByteSize()
	}
	c.seen[weak.Make(bm)] = struct{}{}

	for c.size > c.maxBytes {
		c.evictOldest()
	}
	return true
}

// Get returns the bitmap for key and marks it most recently used.
func (c *Cache) Get(key string) (*Bitmap, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if e.bitmap.IsRecycled() {
		// Someone released it from outside the cache
		c.removeElement(el)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return e.bitmap, true
}

// Remove drops key from the cache without recycling the bitmap.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// RemoveFunc drops every key for which match returns true and reports how many were dropped.
// Like Remove, it leaves the bitmaps alive.
func (c *Cache) RemoveFunc(match func(key string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, el := range c.items {
		if match(key) {
			c.removeElement(el)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached bitmaps.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Size returns the total byte size of cached bitmaps.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// MaxBytes returns the configured capacity.
func (c *Cache) MaxBytes() int64 {
	return c.maxBytes
}

// ReleaseAll clears the cache and recycles every bitmap it ever held that is still alive.
// It returns the number of bitmaps recycled.
func (c *Cache) ReleaseAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	released := 0
	for wp := range c.seen {
		if bm := wp.Value(); bm != nil && bm.Recycle() {
			released++
		}
	}
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.seen = make(map[weak.Pointer[Bitmap]]struct{})
	c.size = 0
	return released
}

// evictOldest must be called with c.mu held.
func (c *Cache) evictOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	e := c.removeElement(el)
	if !e.bitmap.IsRecycled() {
		e.bitmap.Recycle()
	}
	c.pruneSeen()
}

func (c *Cache) removeElement(el *list.Element) *entry {
	e := c.ll.Remove(el).(*entry)
	delete(c.items, e.key)
	c.size -= e.bitmap.ByteSize()
	return e
}

// pruneSeen drops weak entries whose bitmaps were collected.
func (c *Cache) pruneSeen() {
	for wp := range c.seen {
		if wp.Value() == nil {
			delete(c.seen, wp)
		}
	}
}
