// Package preload implements the Preloader (C5): off-thread image decode
// producing raw pixel buffers keyed by path, consumed by the UI goroutine.
package preload

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"
)

// DecodedImage is a ready pixel buffer in RGBA row-major order.
type DecodedImage struct {
	Width  int
	Height int
	Pix    []byte // RGBA8, len == Width*Height*4
}

// Preloader schedules background decodes and hands off finished buffers.
type Preloader struct {
	mu      sync.Mutex
	ready   map[string]DecodedImage
	pending map[string]struct{}
}

// New returns an empty Preloader.
func New() *Preloader {
	return &Preloader{
		ready:   make(map[string]DecodedImage),
		pending: make(map[string]struct{}),
	}
}

// Schedule enqueues a decode of path on a fresh goroutine. A second
// Schedule for a path already pending or ready is a no-op.
func (p *Preloader) Schedule(path string) {
	p.mu.Lock()
	if _, ready := p.ready[path]; ready {
		p.mu.Unlock()
		return
	}
	if _, pending := p.pending[path]; pending {
		p.mu.Unlock()
		return
	}
	p.pending[path] = struct{}{}
	p.mu.Unlock()

	go p.decode(path)
}

func (p *Preloader) decode(path string) {
	img, ok := decodeFile(path)

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, path)
	if ok {
		p.ready[path] = img
	}
	// On failure the path is simply cleared from pending; no error is
	// surfaced (spec.md §4.5) — callers detect it via
	// !TryTake(p) && !IsPending(p).
}

func decodeFile(path string) (DecodedImage, bool) {
	f, err := os.Open(path)
	if err != nil {
		return DecodedImage{}, false
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return DecodedImage{}, false
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rgba.Set(x, y, src.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return DecodedImage{Width: w, Height: h, Pix: rgba.Pix}, true
}

// TryTake removes and returns a ready buffer for path, if any.
func (p *Preloader) TryTake(path string) (DecodedImage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	img, ok := p.ready[path]
	if ok {
		delete(p.ready, path)
	}
	return img, ok
}

// IsPending reports whether a decode for path is in flight or ready.
func (p *Preloader) IsPending(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[path]; ok {
		return true
	}
	_, ok := p.ready[path]
	return ok
}
