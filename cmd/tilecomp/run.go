package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/richardwooding/tilecomp/internal/compositor"
	"github.com/richardwooding/tilecomp/internal/display"
	"github.com/richardwooding/tilecomp/internal/workload"
)

// RunCmd runs a scene on a panel.
type RunCmd struct {
	CompositorFlags
	SceneFlags

	Panel     string        `help:"Panel backend (window, term, sdl, headless)." default:"window" enum:"window,term,sdl,headless"`
	FPS       int           `help:"Producer frame rate." default:"60"`
	Duration  time.Duration `help:"Stop after this long, 0 to run until interrupted."`
	Statsview bool          `help:"Serve live runtime statistics over HTTP."`
}

// Run executes the run command.
func (c *RunCmd) Run() error {
	cfg, err := c.Compositor()
	if err != nil {
		return err
	}
	scene, err := c.newScene()
	if err != nil {
		return err
	}
	if s, ok := scene.(*workload.Script); ok {
		defer s.Close()
	}
	if c.Statsview {
		launchStatsview(os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if c.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Duration)
		defer cancel()
	}

	switch c.Panel {
	case "window":
		return c.runWindow(ctx, cfg, scene)
	case "term":
		p := display.NewTerm(os.Stdout, int(os.Stdout.Fd()), cfg.PanelWidth(), cfg.PanelHeight()) //nolint:gosec // fd fits in int
		defer func() { _ = p.Close() }()
		return c.runUntilDone(ctx, cfg, scene, p, nil)
	case "sdl":
		p, poll, err := newSDLPanel("tilecomp", cfg.PanelWidth(), cfg.PanelHeight())
		if err != nil {
			return err
		}
		defer func() { _ = p.Close() }()
		return c.runUntilDone(ctx, cfg, scene, p, poll)
	case "headless":
		p := display.NewMemory(cfg.PanelWidth(), cfg.PanelHeight())
		return c.runUntilDone(ctx, cfg, scene, p, nil)
	}
	return fmt.Errorf("%w: %s", ErrUnknownPanel, c.Panel)
}

func (c *RunCmd) newScene() (workload.Scene, error) {
	if c.Script != "" {
		return workload.LoadScript(c.Script, time.Second)
	}
	return workload.New(c.Scene)
}

// start creates the compositor on p and starts it and the producer.
func (c *RunCmd) start(ctx context.Context, cfg compositor.Config, scene workload.Scene, p display.Panel) (*compositor.State, *workload.Runner, error) {
	state, err := compositor.New(cfg, p)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create compositor: %w", err)
	}
	runner, err := workload.NewRunner(scene, state, state.FrameBuffer(), c.Seed)
	if err != nil {
		_ = state.Close()
		return nil, nil, err
	}
	if err := state.Start(ctx); err != nil {
		_ = state.Close()
		return nil, nil, err
	}
	if err := runner.Start(ctx, c.FPS); err != nil {
		_ = state.Close()
		return nil, nil, err
	}
	return state, runner, nil
}

// shutdown stops the producer before the compositor so no write lands in released memory.
func shutdown(state *compositor.State, runner *workload.Runner) error {
	runner.Stop()
	err := state.Close()
	fmt.Printf("%d frames, %s\n", runner.Frames(), state.Stats())
	return err
}

// runUntilDone drives a non-window panel until ctx ends. poll, when set, is called on this
// goroutine every few milliseconds and ends the run when it returns true.
func (c *RunCmd) runUntilDone(ctx context.Context, cfg compositor.Config, scene workload.Scene, p display.Panel, poll func() bool) error {
	state, runner, err := c.start(ctx, cfg, scene, p)
	if err != nil {
		return err
	}

	if poll == nil {
		<-ctx.Done()
		return shutdown(state, runner)
	}
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return shutdown(state, runner)
		case <-ticker.C:
			if poll() {
				return shutdown(state, runner)
			}
		}
	}
}

// runWindow runs the ebiten window on the calling goroutine.
func (c *RunCmd) runWindow(ctx context.Context, cfg compositor.Config, scene workload.Scene) error {
	win := NewWindow(cfg.PanelWidth(), cfg.PanelHeight())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state, runner, err := c.start(ctx, cfg, scene, win)
	if err != nil {
		return err
	}
	win.Attach(state)

	go func() {
		<-ctx.Done()
		win.Close()
	}()

	ebiten.SetWindowTitle("tilecomp - " + scene.Name())
	ebiten.SetWindowSize(cfg.PanelWidth(), cfg.PanelHeight())
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	runErr := ebiten.RunGame(win)
	cancel()
	if err := shutdown(state, runner); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("window error: %w", runErr)
	}
	return nil
}
