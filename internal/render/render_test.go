package render

import (
	"testing"
	"time"

	"github.com/shirk33y/lv/internal/gl"
	"github.com/shirk33y/lv/internal/videoengine"
)

func TestWorker_PublishesFrameOnRedraw(t *testing.T) {
	ctx := gl.NewNull()
	engine := videoengine.NewNull()
	w := Start(ctx, engine, 50)
	defer w.Stop()

	if err := engine.Load("/clip.mp4"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if w.HasFrame.Load() {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !w.HasFrame.Load() {
		t.Fatal("expected HasFrame to become true after a redraw")
	}
	if w.DisplayTex.Load() == 0 {
		t.Error("expected a nonzero published display texture id")
	}
}

func TestWorker_ReportSwapReachesEngineAfterRedraw(t *testing.T) {
	engine := videoengine.NewNull()
	w := Start(gl.NewNull(), engine, 50)
	defer w.Stop()

	if err := engine.Load("/clip.mp4"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if engine.SwapCount() > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("expected ReportSwap to reach the engine after a published frame")
}

func TestWorker_EngineCtxPublishedAtStartup(t *testing.T) {
	w := Start(gl.NewNull(), videoengine.NewNull(), 50)
	defer w.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if w.EngineCtx.Load() != nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("expected EngineCtx to be published during startup")
}

func TestWorker_StopReturnsWithinGracePeriod(t *testing.T) {
	w := Start(gl.NewNull(), videoengine.NewNull(), 50)
	start := time.Now()
	w.Stop()
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Stop took %v, want it bounded by the shutdown grace", elapsed)
	}
}

func TestWorker_ResizeReallocatesBackBuffer(t *testing.T) {
	w := Start(gl.NewNull(), videoengine.NewNull(), 50)
	defer w.Stop()

	w.SetSize(64, 48)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && w.Resize.Load() {
		time.Sleep(time.Millisecond)
	}
	if w.Resize.Load() {
		t.Fatal("expected Resize flag to be cleared after processing")
	}
}
