// Package texture implements the Texture Cache (C6): a bounded LRU of
// GPU-resident textures keyed by file path, exclusively touched from the
// UI thread. Capacity defaults to 20 per spec.md §4.6.
package texture

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shirk33y/lv/internal/gl"
	"github.com/shirk33y/lv/internal/preload"
)

// DefaultCapacity is the reference LRU size from spec.md §4.6 and the
// invariant I8 test fixture.
const DefaultCapacity = 20

// TexInfo is what the cache hands back on a hit: the GPU texture plus its
// pixel dimensions, needed to size the on-screen quad.
type TexInfo struct {
	Tex    gl.Texture
	Width  int
	Height int
}

// Cache is the LRU texture cache. Not safe for concurrent use: spec.md
// §4.6 requires UI-thread-only access since the underlying Context is not
// thread-safe.
type Cache struct {
	ctx gl.Context
	lru *lru.Cache[string, TexInfo]
}

// New builds a Cache of the given capacity against ctx. Eviction destroys
// the victim's GPU texture before admitting the new entry (spec.md §4.6:
// "evicts the oldest entry, destroying its GPU texture").
func New(ctx gl.Context, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{ctx: ctx}
	l, err := lru.NewWithEvict(capacity, func(_ string, evicted TexInfo) {
		evicted.Tex.Destroy()
	})
	if err != nil {
		// Only invalid (<=0) capacity can make NewWithEvict fail, and
		// that's already excluded above.
		panic(err)
	}
	c.lru = l
	return c
}

// Has reports cache membership without touching LRU recency.
func (c *Cache) Has(path string) bool {
	return c.lru.Contains(path)
}

// Get returns the cached entry for path, if any, without touching LRU
// recency (spec.md §4.6: "get(path) must not affect eviction order").
func (c *Cache) Get(path string) (TexInfo, bool) {
	return c.lru.Peek(path)
}

// Upload creates a GPU texture from a decoded image and admits it,
// evicting the least-recently-used entry if the cache is at capacity.
func (c *Cache) Upload(path string, img preload.DecodedImage) TexInfo {
	tex := c.ctx.UploadRGBA(img.Width, img.Height, img.Pix)
	info := TexInfo{Tex: tex, Width: img.Width, Height: img.Height}
	c.lru.Add(path, info)
	return info
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Close destroys every held GPU texture and empties the cache.
func (c *Cache) Close() {
	c.lru.Purge()
}
