// Package render implements the Video Render Worker (C7): a single
// background goroutine sharing a GL context with the UI thread, decoding
// video frames through a videoengine.Engine and publishing the latest
// frame as a GPU texture the UI thread samples once per composite.
//
// All cross-goroutine state is a handful of atomics rather than a mutex:
// the worker goroutine publishes DisplayTex, HasFrame and EngineCtx, the
// UI thread sets Quit and the Width/Height/Resize request (and clears
// HasFrame when it stops a video), and each field is a single atomic
// word, so plain load/store gives the acquire/release pairing
// spec.md §5 requires without a lock on the hot compositing path.
package render

import (
	"sync/atomic"
	"time"

	"github.com/shirk33y/lv/internal/gl"
	"github.com/shirk33y/lv/internal/videoengine"
)

// shutdownGrace is how long Stop waits for the worker goroutine to exit
// cleanly before detaching it (spec.md §5, §9 "render-thread lifetime on
// shutdown", reference value 500ms; configurable via internal/config's
// RenderShutdownMS).
const shutdownGrace = 500 * time.Millisecond

// Worker is the Video Render Worker. Its exported atomic fields are safe
// to read from the UI thread at any time.
type Worker struct {
	DisplayTex atomic.Uint32
	HasFrame   atomic.Bool
	Quit       atomic.Bool
	Width      atomic.Uint32
	Height     atomic.Uint32
	Resize     atomic.Bool
	EngineCtx  atomic.Pointer[EngineContext]

	redrawPending atomic.Bool

	ctx    gl.Context
	engine videoengine.Engine

	front, back   *fboSlot
	done          chan struct{}
	shutdownGrace time.Duration
}

// EngineContext is the opaque handle published once the worker has
// constructed its video engine context, per the startup protocol in
// spec.md §4.7 step 2-3 (GetProcAddress trampoline, then publish).
type EngineContext struct {
	ProcAddr func(name string) uintptr
}

type fboSlot struct {
	tex           gl.Texture
	width, height int
}

// Start launches the render worker goroutine. shutdownMS overrides the
// default 500ms grace period when positive.
func Start(ctx gl.Context, engine videoengine.Engine, shutdownMS int) *Worker {
	w := &Worker{
		ctx:    ctx,
		engine: engine,
		done:   make(chan struct{}),
	}
	grace := shutdownGrace
	if shutdownMS > 0 {
		grace = time.Duration(shutdownMS) * time.Millisecond
	}
	w.shutdownGrace = grace

	engine.SetRedrawFunc(func() {
		w.redrawPending.Store(true)
	})

	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)

	if err := w.ctx.MakeCurrent(); err != nil {
		return
	}
	w.EngineCtx.Store(&EngineContext{ProcAddr: w.ctx.GetProcAddress})

	w.front = w.allocSlot(1, 1)
	w.back = w.allocSlot(1, 1)

	for {
		if w.Quit.Load() {
			w.teardown()
			return
		}

		if w.Resize.Load() {
			width := int(w.Width.Load())
			height := int(w.Height.Load())
			if width > 0 && height > 0 {
				w.back.tex.Destroy()
				w.back = w.allocSlot(width, height)
			}
			w.Resize.Store(false)
		}

		if w.redrawPending.CompareAndSwap(true, false) {
			w.renderFrame()
		} else {
			time.Sleep(time.Millisecond)
		}
	}
}

func (w *Worker) allocSlot(width, height int) *fboSlot {
	pix := make([]byte, width*height*4)
	return &fboSlot{tex: w.ctx.UploadRGBA(width, height, pix), width: width, height: height}
}

// renderFrame swaps front/back, stores the new front texture's ID in
// DisplayTex, sets HasFrame and calls ReportSwap. It draws no pixels into
// the back buffer (there is no flip-Y pass) and inserts no GL fence
// before publishing.
func (w *Worker) renderFrame() {
	w.front, w.back = w.back, w.front
	w.DisplayTex.Store(w.front.tex.ID())
	w.HasFrame.Store(true)
	w.ReportSwap()
}

func (w *Worker) teardown() {
	if w.front != nil {
		w.front.tex.Destroy()
	}
	if w.back != nil {
		w.back.tex.Destroy()
	}
	w.engine.Stop()
}

// SetSize requests a resize, consumed by the worker goroutine on its next
// loop iteration.
func (w *Worker) SetSize(width, height int) {
	w.Width.Store(uint32(width))
	w.Height.Store(uint32(height))
	w.Resize.Store(true)
}

// ReportSwap forwards to the video engine's ReportSwap. renderFrame calls
// it right after each front/back swap that publishes a frame; nothing on
// the UI side calls it after a window buffer swap, and it does not go
// through the published EngineCtx.
func (w *Worker) ReportSwap() {
	w.engine.ReportSwap()
}

// Stop requests the worker goroutine exit and waits up to its configured
// grace period; if it hasn't exited by then Stop returns anyway and the
// goroutine is left to finish and close done on its own (spec.md §5:
// "gives the render worker ~500ms then detaches").
func (w *Worker) Stop() {
	w.Quit.Store(true)
	select {
	case <-w.done:
	case <-time.After(w.shutdownGraceOrDefault()):
	}
}

func (w *Worker) shutdownGraceOrDefault() time.Duration {
	if w.shutdownGrace > 0 {
		return w.shutdownGrace
	}
	return shutdownGrace
}
