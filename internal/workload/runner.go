package workload

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/richardwooding/tilecomp/internal/compositor"
	"github.com/richardwooding/tilecomp/internal/framebuffer"
)

// DefaultRAMSize is the main RAM given to scenes, enough for save-under buffers.
const DefaultRAMSize = 64 << 10

var (
	// ErrRunning indicates Start was called on a runner that is already running.
	ErrRunning = errors.New("runner already running")

	// ErrInvalidRate indicates a non-positive frame rate.
	ErrInvalidRate = errors.New("frame rate must be positive")
)

// Runner steps a scene against a host, one frame at a time, signalling the host after each
// frame.
type Runner struct {
	Bus   *framebuffer.Bus
	Host  Host
	Scene Scene

	rand   *rand.Rand
	frames atomic.Int64
	errs   atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a runner for scene over a bus whose video RAM is vram. When host also
// implements framebuffer.Notifier it receives the bus write notifications.
func NewRunner(scene Scene, host Host, vram []byte, seed uint64) (*Runner, error) {
	bus, err := framebuffer.NewBus(DefaultRAMSize, vram, framebuffer.DefaultVRAMBase)
	if err != nil {
		return nil, fmt.Errorf("failed to create bus: %w", err)
	}
	if n, ok := host.(framebuffer.Notifier); ok {
		bus.SetNotifier(n)
	}
	return &Runner{
		Bus:   bus,
		Host:  host,
		Scene: scene,
		rand:  rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)), //nolint:gosec // workload, not crypto
	}, nil
}

// Frames returns the number of frames stepped so far.
func (r *Runner) Frames() int {
	return int(r.frames.Load())
}

// Errors returns the number of frames whose step failed.
func (r *Runner) Errors() int {
	return int(r.errs.Load())
}

// Step runs one frame and signals the host. The host is signalled even when the scene
// fails, since it may have written part of the frame.
func (r *Runner) Step() error {
	f := &Frame{
		N:    int(r.frames.Load()),
		Bus:  r.Bus,
		Host: r.Host,
		Rand: r.rand,
	}
	err := r.Scene.Step(f)
	r.frames.Add(1)
	r.Host.SignalFrameReady()
	if err != nil {
		r.errs.Add(1)
		return err
	}
	return nil
}

// RunFrames steps n frames back to back and returns the first error.
func (r *Runner) RunFrames(n int) error {
	for range n {
		if err := r.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Start steps the scene fps times a second on its own goroutine until ctx is done or Stop
// is called. Step errors are logged and do not stop the runner.
func (r *Runner) Start(ctx context.Context, fps int) error {
	if fps <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidRate, fps)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return ErrRunning
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.loop(ctx, time.Second/time.Duration(fps), r.done)
	return nil
}

func (r *Runner) loop(ctx context.Context, period time.Duration, done chan struct{}) {
	defer close(done)

	log := compositor.Logger().With("scene", r.Scene.Name())
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		if err := r.Step(); err != nil {
			log.Warn("scene step failed", "frame", r.Frames()-1, "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop stops a started runner and waits for its goroutine. Stopping a runner that is not
// running is a no-op.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
