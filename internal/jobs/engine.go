// Package jobs implements the Job Engine (C4): a small worker pool that
// lazily fills in derived metadata layers (hash, dimensions, generator
// info) for every indexed file, throttling itself by turbo/lazy mode and
// by each job's duration, and debouncing permanent per-file failures.
package jobs

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirk33y/lv/internal/metrics"
	"github.com/shirk33y/lv/internal/store"
)

// Engine is a running Job Engine. Call Stop to tear its worker pool down.
type Engine struct {
	Stats *Stats

	db     *store.Store
	cancel context.CancelFunc
	done   chan struct{}
}

// Start launches the worker pool against db. Worker count is
// clamp(ncpus/2, 1, 4); only worker 0 runs in lazy mode, the rest activate
// once turbo is set.
func Start(db *store.Store) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	stats := NewStats()

	ncpus := runtime.NumCPU()
	numWorkers := clamp(ncpus/2, 1, 4)

	e := &Engine{
		Stats:  stats,
		db:     db,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	var workersDone = make(chan struct{}, numWorkers+1)
	for id := 0; id < numWorkers; id++ {
		go func(workerID int) {
			workerLoop(ctx, db, stats, workerID)
			workersDone <- struct{}{}
		}(id)
	}
	go func() {
		rateLoop(ctx, stats)
		workersDone <- struct{}{}
	}()

	go func() {
		for i := 0; i < numWorkers+1; i++ {
			<-workersDone
		}
		close(e.done)
	}()

	slog.Debug("jobs: started", "workers", numWorkers)
	return e
}

// SetTurbo switches the engine between lazy (worker 0 only, long idle
// sleeps) and turbo (all workers active, short idle sleeps) throttling.
func (e *Engine) SetTurbo(on bool) {
	e.Stats.turbo.Store(on)
	if on {
		metrics.JobsTurbo.Set(1)
	} else {
		metrics.JobsTurbo.Set(0)
	}
}

// Stop cancels every worker and blocks until they exit.
func (e *Engine) Stop() {
	e.cancel()
	<-e.done
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func rateLoop(ctx context.Context, stats *Stats) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats.UpdateRate()
		}
	}
}

func workerLoop(ctx context.Context, db *store.Store, stats *Stats, workerID int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		turbo := stats.Turbo()

		if workerID > 0 && !turbo {
			if sleepCtx(ctx, 2*time.Second) {
				return
			}
			continue
		}

		work := findWork(db)
		if work == nil {
			idle := 10 * time.Second
			if turbo {
				idle = 3 * time.Second
			}
			if sleepCtx(ctx, idle) {
				return
			}
			continue
		}

		stats.active.Add(1)
		metrics.JobsActive.Inc()
		t0 := time.Now()
		err := processLayer(db, work.FileID, work.Layer, work.Path)
		elapsed := time.Since(t0)
		stats.active.Add(^uint32(0)) // -1
		metrics.JobsActive.Dec()

		if err != nil {
			db.RecordFailure(work.FileID, work.Layer, err.Error())
			stats.recordFail(err.Error())
		} else {
			stats.recordDone()
		}

		factor := 2.3
		if turbo {
			factor = 0.25
		}
		sleep := time.Duration(float64(elapsed) * factor)
		if sleep > 5*time.Second {
			sleep = 5 * time.Second
		}
		if sleepCtx(ctx, sleep) {
			return
		}
	}
}

// sleepCtx sleeps for d or until ctx is cancelled, returning true if
// cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-t.C:
		return false
	}
}

type workItem struct {
	FileID int64
	Layer  store.Layer
	Path   string
}

func findWork(db *store.Store) *workItem {
	for _, layer := range store.Layers {
		if r := db.NextMissing(layer); r != nil {
			return &workItem{FileID: r.FileID, Layer: layer, Path: r.Path}
		}
	}
	return nil
}
