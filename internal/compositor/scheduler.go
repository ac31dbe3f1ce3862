package compositor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/richardwooding/tilecomp/internal/dirty"
	"github.com/richardwooding/tilecomp/internal/display"
	"github.com/richardwooding/tilecomp/internal/pixel"
)

var (
	// ErrRunning is returned by Start when the scheduler is already running.
	ErrRunning = errors.New("scheduler already running")

	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("compositor closed")

	// ErrShutdownTimeout is returned by Stop when the scheduler did not exit within the
	// shutdown grace period.
	ErrShutdownTimeout = errors.New("scheduler did not stop in time")
)

// Phase is the scheduler state.
type Phase int32

// Scheduler phases.
const (
	PhaseIdle Phase = iota
	PhaseDeciding
	PhaseRendering
	PhasePushing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDeciding:
		return "deciding"
	case PhaseRendering:
		return "rendering"
	case PhasePushing:
		return "pushing"
	}
	return fmt.Sprintf("Phase(%d)", int32(p))
}

// Decision is the outcome of one scheduler cycle.
type Decision int

// Cycle outcomes.
const (
	// DecisionSkip means nothing was dirty; nothing was rendered or pushed.
	DecisionSkip Decision = iota
	// DecisionPartial means only the dirty tiles were rendered and pushed.
	DecisionPartial
	// DecisionFull means the whole frame was rendered and pushed.
	DecisionFull
	// DecisionRateLimited means the cycle came too soon after the last render. Dirty state
	// is kept for the next cycle.
	DecisionRateLimited
)

func (d Decision) String() string {
	switch d {
	case DecisionSkip:
		return "skip"
	case DecisionPartial:
		return "partial"
	case DecisionFull:
		return "full"
	case DecisionRateLimited:
		return "rate-limited"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// Phase returns the current scheduler phase.
func (s *State) Phase() Phase {
	return Phase(s.phase.Load())
}

func (s *State) setPhase(p Phase) {
	s.phase.Store(int32(p))
}

// Running reports whether the scheduler goroutine is running.
func (s *State) Running() bool {
	return s.running.Load()
}

// Start launches the scheduler goroutine. It runs until Stop, Close or ctx is cancelled.
func (s *State) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}
	if s.running.Load() {
		return ErrRunning
	}
	s.running.Store(true)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	return nil
}

// Stop clears the running flag, wakes the scheduler and waits up to the shutdown grace
// period for it to exit.
func (s *State) Stop() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.done == nil {
		return nil
	}
	if s.running.Swap(false) {
		s.SignalFrameReady()
	}

	select {
	case <-s.done:
		return nil
	case <-time.After(s.cfg.ShutdownGrace):
		Logger().Warn("render loop did not exit in time", "grace", s.cfg.ShutdownGrace)
		return ErrShutdownTimeout
	}
}

func (s *State) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	log := Logger()
	log.Info("render loop started", "frame_timeout", s.cfg.FrameTimeout, "min_interval", s.cfg.MinFrameInterval)

	timer := time.NewTimer(max(s.cfg.StartupDelay, 0))
	defer timer.Stop()
	wait := s.cfg.FrameTimeout
	if s.cfg.StartupDelay > 0 {
		// Wakes during the delay are only checked for Stop; the first cycle runs as soon
		// as the delay ends.
		wait = 0
	delay:
		for s.running.Load() {
			select {
			case <-ctx.Done():
				s.running.Store(false)
			case <-s.wake:
			case <-timer.C:
				break delay
			}
		}
	}

	s.stats.startInterval(time.Now())
	for s.running.Load() {
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			s.running.Store(false)
			continue
		case <-s.wake:
		case <-timer.C:
		}
		if !s.running.Load() {
			break
		}

		now := time.Now()
		wait = s.cfg.FrameTimeout
		if s.Cycle(now) == DecisionRateLimited {
			wait = max(s.cfg.MinFrameInterval-now.Sub(s.last), time.Millisecond)
		}
		s.maybeReport(now)
	}

	log.Info("render loop exiting")
}

// Cycle runs one Deciding, Rendering, Pushing pass as if woken at now and returns what it
// did. The scheduler goroutine calls it on every wake; tests may call it directly when the
// scheduler is not running.
func (s *State) Cycle(now time.Time) Decision {
	if s.closed.Load() {
		return DecisionSkip
	}
	if !s.last.IsZero() && now.Sub(s.last) < s.cfg.MinFrameInterval {
		s.stats.record(cycleSample{decision: DecisionRateLimited})
		return DecisionRateLimited
	}

	s.setPhase(PhaseDeciding)
	defer s.setPhase(PhaseIdle)

	s.palette.Copy(&s.localPal)
	layout := s.Layout()
	req := s.fullReq.Load()
	full := req != s.fullDone.Load()
	fallback := s.arena != nil && !s.tracker.Enabled()

	var sample cycleSample
	src := s.source
	if fallback {
		t0 := time.Now()
		src = s.arena.Capture(s.source)
		sample.snapshot = time.Since(t0)
	}

	count := 0
	t0 := time.Now()
	switch {
	case fallback && !full:
		count = dirty.Compare(src, s.arena.Previous(), s.grid, layout, s.set)
	case !fallback:
		// On a full update the marks are dropped: the render below starts after the drain
		// and covers every tile.
		count = s.tracker.Drain(s.set)
	}
	sample.detect = time.Since(t0)

	if !full && s.grid.ExceedsThreshold(count, s.cfg.ThresholdPercent) {
		Logger().Debug("dirty threshold exceeded, doing full update",
			"dirty", count, "total", s.grid.Total(), "threshold", s.cfg.ThresholdPercent)
		full = true
	}

	switch {
	case full:
		sample.decision = DecisionFull
		sample.render, sample.push, sample.pushErr = s.renderFull(src, layout)
		sample.tiles = s.grid.Total()
		s.fullDone.Store(req)
	case count > 0:
		sample.decision = DecisionPartial
		sample.render, sample.push, sample.pushErr = s.renderTiles(src, layout)
		sample.tiles = count
	default:
		sample.decision = DecisionSkip
	}

	if fallback {
		s.arena.Swap()
	}
	if sample.decision != DecisionSkip {
		s.last = now
	}
	if sample.pushErr != nil {
		Logger().Warn("panel push failed", "decision", sample.decision.String(), "err", sample.pushErr)
	}
	s.stats.record(sample)
	return sample.decision
}

// renderFull renders the whole frame onto the surface and pushes it.
func (s *State) renderFull(src []byte, layout pixel.Layout) (renderDur, pushDur time.Duration, err error) {
	s.setPhase(PhaseRendering)
	t0 := time.Now()
	s.surfMu.Lock()
	s.frameR.Render(src, layout, &s.localPal, s.surface)
	s.surfMu.Unlock()
	renderDur = time.Since(t0)

	s.setPhase(PhasePushing)
	t0 = time.Now()
	err = s.pushFull()
	return renderDur, time.Since(t0), err
}

func (s *State) pushFull() error {
	if s.panel == nil {
		return nil
	}
	display.StartWrite(s.panel)
	err := display.Push(s.panel, 0, 0, s.surface.Width(), s.surface.Height(), s.surface.Pix())
	display.EndWrite(s.panel)
	if perr := display.Present(s.panel); err == nil {
		err = perr
	}
	return err
}

// renderTiles snapshots, renders and pushes every tile in s.set.
func (s *State) renderTiles(src []byte, layout pixel.Layout) (renderDur, pushDur time.Duration, err error) {
	ow, oh := s.tileR.OutWidth(), s.tileR.OutHeight()

	display.StartWrite(s.panel)
	s.set.ForEach(func(idx int) {
		s.setPhase(PhaseRendering)
		t0 := time.Now()
		snap := s.tile.Capture(src, layout, s.grid, idx)
		s.tileR.Render(snap, &s.localPal, s.tileOut)

		x, y := s.grid.Origin(idx)
		x, y = x*s.cfg.Scale, y*s.cfg.Scale
		s.surfMu.Lock()
		s.surface.Blit(x, y, ow, oh, s.tileOut)
		s.surfMu.Unlock()
		renderDur += time.Since(t0)

		s.setPhase(PhasePushing)
		t0 = time.Now()
		if perr := display.Push(s.panel, x, y, ow, oh, s.tileOut); perr != nil && err == nil {
			err = perr
		}
		pushDur += time.Since(t0)
	})
	display.EndWrite(s.panel)

	if s.panel != nil {
		if perr := display.Present(s.panel); perr != nil && err == nil {
			err = perr
		}
	}
	return renderDur, pushDur, err
}
