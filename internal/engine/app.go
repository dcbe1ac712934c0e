package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"retrocanvas/internal/config"
	"retrocanvas/internal/graphics"
	"retrocanvas/internal/logging"
	"retrocanvas/internal/profiling"
)

func init() {
	// GLFW and the GPU surface are bound to the main OS thread.
	runtime.LockOSThread()
}

// State is the coordinator lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

const (
	defaultWidth  = 320
	defaultHeight = 180
)

// App owns the window, the graphics context and the renderer, and drives a
// Game through the fixed-timestep loop. Lifecycle is one-way:
// Uninitialized, Initializing, Running, Stopped. A stopped App is not
// reusable; device loss in particular invalidates everything GPU-resident,
// so recovery means building a fresh App.
type App struct {
	game Game

	state atomic.Int32
	stop  atomic.Bool
	ticks atomic.Uint64

	window   *glfw.Window
	gctx     *graphics.Context
	renderer *graphics.Renderer
	ticker   *ticker
	limiter  *FrameLimiter
	lastTime time.Time
}

// NewApp wraps a game in a coordinator. Nothing is created until Initialize.
func NewApp(game Game) *App {
	return &App{game: game, limiter: NewFrameLimiter()}
}

// State returns the current lifecycle state.
func (a *App) State() State {
	return State(a.state.Load())
}

// Renderer returns the renderer, nil before Initialize succeeds.
func (a *App) Renderer() *graphics.Renderer {
	return a.renderer
}

// Ticks returns the number of simulation ticks run since start or the last
// ResetTicks.
func (a *App) Ticks() uint64 {
	return a.ticks.Load()
}

// ResetTicks zeroes the tick counter. Tick scheduling is unaffected.
func (a *App) ResetTicks() {
	a.ticks.Store(0)
}

// Stop asks the loop to exit after the current frame. Safe from any
// goroutine.
func (a *App) Stop() {
	a.stop.Store(true)
}

// Initialize queries the game's hardware needs, creates the window, the
// graphics context and the renderer, then runs the game's own setup. On
// success the App is Running and ready for Run. Any failure tears down
// whatever was built and leaves the App Stopped.
func (a *App) Initialize(ctx context.Context) error {
	if !a.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing)) {
		return fmt.Errorf("engine: initialize called in state %s", a.State())
	}

	spec := a.game.QueryHardware()
	if spec.Width <= 0 || spec.Height <= 0 {
		spec.Width = defaultWidth
		spec.Height = defaultHeight
	}
	if spec.Scale < 1 {
		spec.Scale = 1
	}
	if spec.TickRate > 0 {
		config.SetTickRate(spec.TickRate)
	}
	if spec.Title == "" {
		spec.Title = "retrocanvas"
	}

	if err := glfw.Init(); err != nil {
		a.state.Store(int32(StateStopped))
		return fmt.Errorf("init glfw: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err := glfw.CreateWindow(spec.Width*spec.Scale, spec.Height*spec.Scale, spec.Title, nil, nil)
	if err != nil {
		a.teardown()
		return fmt.Errorf("create window: %w", err)
	}
	a.window = window

	gctx, err := graphics.NewContext(window, spec.Width*spec.Scale, spec.Height*spec.Scale)
	if err != nil {
		a.teardown()
		return fmt.Errorf("create graphics context: %w", err)
	}
	a.gctx = gctx

	renderer, err := graphics.NewRenderer(gctx, spec.Width, spec.Height)
	if err != nil {
		a.teardown()
		return fmt.Errorf("create renderer: %w", err)
	}
	a.renderer = renderer

	a.ticker = newTicker(config.GetTickRate(), config.GetMaxCatchUp())

	if err := a.game.Initialize(ctx); err != nil {
		a.teardown()
		return fmt.Errorf("game initialize: %w", err)
	}

	logging.Logger().Info("engine initialized",
		"width", spec.Width,
		"height", spec.Height,
		"scale", spec.Scale,
		"tickRate", config.GetTickRate())

	a.state.Store(int32(StateRunning))
	return nil
}

// Run drives the loop until the window closes, Stop is called, or the
// device is lost. Device loss is returned as an error wrapping
// graphics.ErrDeviceLost after teardown; the App does not rebuild itself.
func (a *App) Run() error {
	if a.State() != StateRunning {
		return fmt.Errorf("engine: run called in state %s", a.State())
	}
	defer a.teardown()

	a.lastTime = time.Now()
	for !a.window.ShouldClose() && !a.stop.Load() {
		if err := a.frame(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) frame() error {
	profiling.ResetFrame()
	frameStart := time.Now()
	dt := frameStart.Sub(a.lastTime)
	a.lastTime = frameStart

	func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()

	stopUpdate := profiling.Track("engine.update")
	due, discarded := a.ticker.advance(dt)
	for i := 0; i < due; i++ {
		a.game.Update()
		a.ticks.Add(1)
	}
	stopUpdate()
	if discarded > 0 {
		logging.Logger().Warn("update backlog discarded",
			"discarded", discarded,
			"ranTicks", due,
			"maxCatchUp", config.GetMaxCatchUp())
	}

	stopRender := profiling.Track("engine.render")
	a.renderer.BeginFrame()
	a.game.Render(a.renderer)
	err := a.renderer.EndFrame()
	stopRender()
	if err != nil {
		if errors.Is(err, graphics.ErrDeviceLost) {
			return err
		}
		// Transient presentation failure; the next frame retries.
		logging.Logger().Warn("frame presentation failed", "err", err)
	}

	if processing := time.Since(frameStart); processing > 2*a.ticker.interval {
		logging.Logger().Debug("slow frame",
			"took", processing,
			"top", profiling.TopN(5))
	}

	a.limiter.Wait()
	return nil
}

// teardown releases in reverse construction order. Safe to call on a
// partially initialized App; runs at most the parts that exist.
func (a *App) teardown() {
	if a.renderer != nil {
		a.renderer.Release()
		a.renderer = nil
	}
	if a.gctx != nil {
		a.gctx.Release()
		a.gctx = nil
	}
	if a.window != nil {
		a.window.Destroy()
		a.window = nil
	}
	glfw.Terminate()
	a.state.Store(int32(StateStopped))
}
