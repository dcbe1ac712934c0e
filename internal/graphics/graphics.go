// Package graphics implements the 2D frame renderer: a WebGPU context,
// two fixed pipelines (flat color and textured), per-frame vertex arenas
// and the sprite batching queue that turns draw calls into GPU work.
package graphics

import "errors"

var (
	// ErrDeviceLost reports that the GPU device or surface became unusable.
	// Everything GPU-resident (buffers, textures, bind groups, pipelines)
	// is invalid once this is returned; recovery requires rebuilding the
	// whole context.
	ErrDeviceLost = errors.New("graphics: device lost")

	// ErrNoAdapter reports that no usable GPU adapter was found at setup.
	ErrNoAdapter = errors.New("graphics: no compatible adapter")
)

// Rect is an axis-aligned rectangle in pixel space.
type Rect struct {
	X, Y, W, H float32
}

// SpriteSource provides a drawable texture plus the pixel dimensions needed
// to turn source rectangles into texture coordinates. Implemented by sprite
// sheets and font atlases.
type SpriteSource interface {
	// SheetSize returns the source image dimensions in pixels.
	SheetSize() (w, h float32)
	// SheetTexture returns the GPU texture, creating it on first use.
	SheetTexture(ctx *Context) (*Texture, error)
}

// uvRect maps a pixel-space source rectangle to normalized texture
// coordinates: u = x/w, v = y/h, no half-texel insets.
func uvRect(sheetW, sheetH float32, src Rect) (u0, v0, u1, v1 float32) {
	u0 = src.X / sheetW
	v0 = src.Y / sheetH
	u1 = (src.X + src.W) / sheetW
	v1 = (src.Y + src.H) / sheetH
	return
}
