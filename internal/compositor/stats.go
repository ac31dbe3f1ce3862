package compositor

import (
	"fmt"
	"sync"
	"time"
)

// Stats are cumulative scheduler counters and timings.
type Stats struct {
	Cycles      uint64 // cycles that were not rate limited
	Full        uint64
	Partial     uint64
	Skip        uint64
	RateLimited uint64

	Tiles      uint64 // tiles rendered, counting a full update as every tile
	PushErrors uint64

	Snapshot time.Duration
	Detect   time.Duration
	Render   time.Duration
	Push     time.Duration
}

// Frames returns the number of cycles that rendered something.
func (s Stats) Frames() uint64 {
	return s.Full + s.Partial
}

// avg divides d by the number of cycles.
func (s Stats) avg(d time.Duration) time.Duration {
	if s.Cycles == 0 {
		return 0
	}
	return d / time.Duration(s.Cycles) //nolint:gosec // cycle counts stay far below 2^63
}

// AvgSnapshot returns the mean whole-frame snapshot time per cycle.
func (s Stats) AvgSnapshot() time.Duration { return s.avg(s.Snapshot) }

// AvgDetect returns the mean dirty detection time per cycle.
func (s Stats) AvgDetect() time.Duration { return s.avg(s.Detect) }

// AvgRender returns the mean render time per cycle.
func (s Stats) AvgRender() time.Duration { return s.avg(s.Render) }

// AvgPush returns the mean push time per cycle.
func (s Stats) AvgPush() time.Duration { return s.avg(s.Push) }

func (s Stats) String() string {
	return fmt.Sprintf("frames=%d (full=%d partial=%d skip=%d) ratelimited=%d avg: snapshot=%v detect=%v render=%v push=%v",
		s.Cycles, s.Full, s.Partial, s.Skip, s.RateLimited,
		s.AvgSnapshot(), s.AvgDetect(), s.AvgRender(), s.AvgPush())
}

type cycleSample struct {
	decision Decision
	tiles    int
	snapshot time.Duration
	detect   time.Duration
	render   time.Duration
	push     time.Duration
	pushErr  error
}

func (s *Stats) add(c cycleSample) {
	if c.decision == DecisionRateLimited {
		s.RateLimited++
		return
	}
	s.Cycles++
	switch c.decision {
	case DecisionFull:
		s.Full++
	case DecisionPartial:
		s.Partial++
	default:
		s.Skip++
	}
	s.Tiles += uint64(c.tiles) //nolint:gosec // never negative
	if c.pushErr != nil {
		s.PushErrors++
	}
	s.Snapshot += c.snapshot
	s.Detect += c.detect
	s.Render += c.render
	s.Push += c.push
}

// statsRecorder keeps the cumulative totals and the counters of the current report
// interval.
type statsRecorder struct {
	mu         sync.Mutex
	total      Stats
	interval   Stats
	lastReport time.Time
}

func (r *statsRecorder) record(c cycleSample) {
	r.mu.Lock()
	r.total.add(c)
	r.interval.add(c)
	r.mu.Unlock()
}

func (r *statsRecorder) startInterval(now time.Time) {
	r.mu.Lock()
	r.lastReport = now
	r.interval = Stats{}
	r.mu.Unlock()
}

// takeInterval returns the interval counters and starts a new interval when at least every
// has passed since the last report.
func (r *statsRecorder) takeInterval(now time.Time, every time.Duration) (Stats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if now.Sub(r.lastReport) < every {
		return Stats{}, false
	}
	st := r.interval
	r.interval = Stats{}
	r.lastReport = now
	return st, true
}

// Stats returns the cumulative counters.
func (s *State) Stats() Stats {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()
	return s.stats.total
}

// maybeReport logs the interval counters once per report interval.
func (s *State) maybeReport(now time.Time) {
	if s.cfg.ReportInterval <= 0 {
		return
	}
	st, ok := s.stats.takeInterval(now, s.cfg.ReportInterval)
	if !ok || st.Cycles == 0 {
		return
	}
	Logger().Info("video perf",
		"frames", st.Cycles,
		"full", st.Full,
		"partial", st.Partial,
		"skip", st.Skip,
		"ratelimited", st.RateLimited,
		"avg_snapshot", st.AvgSnapshot(),
		"avg_detect", st.AvgDetect(),
		"avg_render", st.AvgRender(),
		"avg_push", st.AvgPush())
}
