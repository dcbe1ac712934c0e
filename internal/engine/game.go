// Package engine drives the game loop: fixed-timestep simulation updates,
// one render per presentation callback, and the lifecycle around them.
package engine

import (
	"context"

	"retrocanvas/internal/graphics"
)

// HardwareSpec is what a game asks of the platform before any window or GPU
// setup happens. Zero fields fall back to defaults.
type HardwareSpec struct {
	Title    string
	Width    int // logical resolution in pixels
	Height   int
	Scale    int // integer window upscale, 1 = native
	TickRate int // fixed updates per second, 0 = engine config default
}

// Game is the callback surface the coordinator drives. Calls arrive in a
// fixed order on the main thread: QueryHardware once, Initialize once, then
// zero or more Updates followed by exactly one Render per frame.
type Game interface {
	// QueryHardware runs before window and device creation.
	QueryHardware() HardwareSpec

	// Initialize runs once the renderer exists; asset loading belongs
	// here. A non-nil error aborts startup.
	Initialize(ctx context.Context) error

	// Update advances the simulation by exactly one fixed tick.
	Update()

	// Render records one frame between BeginFrame and EndFrame, both of
	// which the coordinator calls.
	Render(r *graphics.Renderer)
}
