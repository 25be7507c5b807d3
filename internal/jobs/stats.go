package jobs

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirk33y/lv/internal/metrics"
)

// Stats is the Job Engine's shared counters, read by the overlay/status
// surfaces without taking the engine's lock.
type Stats struct {
	done    atomic.Uint64
	failed  atomic.Uint64
	active  atomic.Uint32
	turbo   atomic.Bool
	lastErr struct {
		mu   sync.Mutex
		text string
	}
	rateSnapshot atomic.Uint64
	rateTime     struct {
		mu sync.Mutex
		t  time.Time
	}
	jobsPerMin atomic.Uint32 // scaled x10 for one decimal place
}

// NewStats returns a zeroed Stats with its rate clock started now.
func NewStats() *Stats {
	s := &Stats{}
	s.rateTime.t = time.Now()
	return s
}

func (s *Stats) recordDone() {
	s.done.Add(1)
	metrics.JobsDone.Inc()
}

func (s *Stats) recordFail(errText string) {
	s.failed.Add(1)
	metrics.JobsFailed.Inc()
	s.lastErr.mu.Lock()
	if len(errText) > 120 {
		errText = errText[:120]
	}
	s.lastErr.text = errText
	s.lastErr.mu.Unlock()
}

// LastError returns the most recent recorded failure's truncated message.
func (s *Stats) LastError() string {
	s.lastErr.mu.Lock()
	defer s.lastErr.mu.Unlock()
	return s.lastErr.text
}

// Done returns the cumulative count of successfully processed layer jobs.
func (s *Stats) Done() uint64 { return s.done.Load() }

// Failed returns the cumulative count of permanently failed layer jobs.
func (s *Stats) Failed() uint64 { return s.failed.Load() }

// Active returns the number of layer jobs currently in flight.
func (s *Stats) Active() uint32 { return s.active.Load() }

// Turbo reports whether the engine is currently in turbo throttling mode.
func (s *Stats) Turbo() bool { return s.turbo.Load() }

// JobsPerMinute returns the last computed rate, scaled x10 for one decimal
// digit of precision (matching the original implementation's convention).
func (s *Stats) JobsPerMinute() uint32 { return s.jobsPerMin.Load() }

// UpdateRate recomputes jobs_per_min from the delta in Done() since the
// last call, intended to be invoked roughly every 5 seconds.
func (s *Stats) UpdateRate() {
	doneNow := s.done.Load()
	prev := s.rateSnapshot.Swap(doneNow)

	s.rateTime.mu.Lock()
	defer s.rateTime.mu.Unlock()
	elapsed := time.Since(s.rateTime.t).Seconds()
	if elapsed > 0.5 {
		delta := float64(doneNow - prev)
		perMin := uint32(delta / elapsed * 60.0 * 10.0)
		s.jobsPerMin.Store(perMin)
		metrics.JobsPerMinute.Set(float64(perMin) / 10.0)
		s.rateTime.t = time.Now()
	}
}
