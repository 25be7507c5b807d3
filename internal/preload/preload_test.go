package preload

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// decodeFinished reports whether the decode goroutine for path has
// finished. IsPending cannot be used for this: it stays true while a
// decoded buffer is waiting to be taken.
func decodeFinished(p *Preloader, path string) func() bool {
	return func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		_, inFlight := p.pending[path]
		return !inFlight
	}
}

func TestSchedule_DecodesAndMakesReady(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, path, 4, 3)

	p := New()
	p.Schedule(path)
	waitUntil(t, time.Second, decodeFinished(p, path))

	img, ok := p.TryTake(path)
	if !ok {
		t.Fatal("expected a ready image")
	}
	if img.Width != 4 || img.Height != 3 {
		t.Errorf("dims = %dx%d, want 4x3", img.Width, img.Height)
	}
	if len(img.Pix) != 4*3*4 {
		t.Errorf("len(Pix) = %d, want %d", len(img.Pix), 4*3*4)
	}
}

func TestSchedule_DuplicateOnPendingIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, path, 2, 2)

	p := New()
	p.Schedule(path)
	p.Schedule(path) // should not panic or double-enqueue

	waitUntil(t, time.Second, decodeFinished(p, path))
	if _, ok := p.TryTake(path); !ok {
		t.Fatal("expected a ready image")
	}
}

func TestSchedule_DuplicateOnReadyIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, path, 2, 2)

	p := New()
	p.Schedule(path)
	waitUntil(t, time.Second, decodeFinished(p, path))

	p.Schedule(path) // path already ready; must not clear it
	if !p.IsPending(path) {
		t.Fatal("expected the ready image to still be considered present")
	}
	if _, ok := p.TryTake(path); !ok {
		t.Fatal("expected ready image to survive a duplicate schedule")
	}
}

func TestSchedule_FailedDecodeClearsPendingSilently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.png")

	p := New()
	p.Schedule(path)
	waitUntil(t, time.Second, func() bool { return !p.IsPending(path) })

	if _, ok := p.TryTake(path); ok {
		t.Fatal("expected no ready image for a failed decode")
	}
	if p.IsPending(path) {
		t.Fatal("expected pending to be cleared after a failed decode")
	}
}

func TestTryTake_UnknownPathReturnsFalse(t *testing.T) {
	p := New()
	if _, ok := p.TryTake("/nope"); ok {
		t.Fatal("expected false for an unknown path")
	}
}
