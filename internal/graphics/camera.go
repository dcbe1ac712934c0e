package graphics

import "github.com/go-gl/mathgl/mgl32"

// Camera is a 2D view offset added to every draw position at record time.
// Vertices land in the arenas already offset, so moving the camera mid-frame
// affects only draws recorded after the move.
type Camera struct {
	offset mgl32.Vec2
}

// SetOffset replaces the camera offset.
func (c *Camera) SetOffset(offset mgl32.Vec2) {
	c.offset = offset
}

// Offset returns the current camera offset.
func (c *Camera) Offset() mgl32.Vec2 {
	return c.offset
}

// Move shifts the camera offset by delta.
func (c *Camera) Move(delta mgl32.Vec2) {
	c.offset = c.offset.Add(delta)
}

// Reset returns the camera to the origin.
func (c *Camera) Reset() {
	c.offset = mgl32.Vec2{}
}

func (c *Camera) apply(p mgl32.Vec2) mgl32.Vec2 {
	return p.Add(c.offset)
}
