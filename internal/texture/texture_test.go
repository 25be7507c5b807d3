package texture

import (
	"testing"

	"github.com/shirk33y/lv/internal/gl"
	"github.com/shirk33y/lv/internal/preload"
)

func decoded(w, h int) preload.DecodedImage {
	return preload.DecodedImage{Width: w, Height: h, Pix: make([]byte, w*h*4)}
}

func TestUpload_GetHasRoundTrip(t *testing.T) {
	c := New(gl.NewNull(), 4)
	c.Upload("/a.png", decoded(2, 2))

	if !c.Has("/a.png") {
		t.Fatal("expected Has to report membership")
	}
	info, ok := c.Get("/a.png")
	if !ok {
		t.Fatal("expected Get to find the entry")
	}
	if info.Width != 2 || info.Height != 2 {
		t.Errorf("info = %+v", info)
	}
}

func TestGet_DoesNotTouchLRUOrder(t *testing.T) {
	c := New(gl.NewNull(), 2)
	c.Upload("/a.png", decoded(1, 1))
	c.Upload("/b.png", decoded(1, 1))

	// Get on /a.png must NOT protect it from eviction (spec.md §4.6).
	if _, ok := c.Get("/a.png"); !ok {
		t.Fatal("expected a hit")
	}
	c.Upload("/c.png", decoded(1, 1)) // forces an eviction at capacity 2

	if c.Has("/a.png") {
		t.Error("expected /a.png to have been the LRU victim despite the Get")
	}
	if !c.Has("/b.png") || !c.Has("/c.png") {
		t.Error("expected /b.png and /c.png to remain")
	}
}

func TestUpload_EvictsOldestAtCapacity(t *testing.T) {
	capacity := 3
	c := New(gl.NewNull(), capacity)

	var textures []gl.Texture
	for i := 0; i < capacity; i++ {
		info := c.Upload(pathN(i), decoded(1, 1))
		textures = append(textures, info.Tex)
	}
	if c.Len() != capacity {
		t.Fatalf("Len() = %d, want %d", c.Len(), capacity)
	}

	c.Upload(pathN(capacity), decoded(1, 1)) // one past capacity

	if c.Len() != capacity {
		t.Fatalf("Len() after overflow = %d, want %d (invariant I8)", c.Len(), capacity)
	}
	if c.Has(pathN(0)) {
		t.Error("expected the oldest entry to have been evicted")
	}
	if nt, ok := textures[0].(interface{ Destroy() }); ok {
		_ = nt
	}
}

func TestClose_EmptiesCache(t *testing.T) {
	c := New(gl.NewNull(), 4)
	c.Upload("/a.png", decoded(1, 1))
	c.Upload("/b.png", decoded(1, 1))
	c.Close()

	if c.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", c.Len())
	}
}

func pathN(i int) string {
	return string(rune('a' + i))
}
