package graphics

import (
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"retrocanvas/internal/config"
	"retrocanvas/internal/logging"
)

// FrameStats is a snapshot of the per-frame counters, taken after EndFrame.
type FrameStats struct {
	PrimitiveVertices int // vertices written to the primitive stream
	SpriteVertices    int // vertices written to the sprite stream
	Batches           int // sprite batches issued
	DrawCalls         int // total draws submitted
	DroppedVertices   int // vertices rejected by arena overflow
}

// Renderer records draw calls between BeginFrame and EndFrame into two
// fixed-capacity vertex streams (flat-color primitives and textured sprites),
// then uploads the written prefixes and replays them in submission order:
// one draw for all primitives, one draw per sprite batch.
type Renderer struct {
	ctx   *Context
	pipes *pipelines
	cache *bindGroupCache

	uniformBuf *wgpu.Buffer
	uniformBG  *wgpu.BindGroup
	primBuf    *wgpu.Buffer
	spriteBuf  *wgpu.Buffer

	prims   *vertexArena
	sprites *vertexArena
	batches batchQueue
	camera  Camera

	width      int // logical resolution
	height     int
	clearColor wgpu.Color
	inFrame    bool
	stats      FrameStats
}

// NewRenderer builds the pipelines, vertex buffers and the screen uniform for
// a logical resolution of width x height pixels. Arena capacities come from
// the engine configuration.
func NewRenderer(ctx *Context, width, height int) (*Renderer, error) {
	pipes, err := newPipelines(ctx)
	if err != nil {
		return nil, fmt.Errorf("build pipelines: %w", err)
	}

	r := &Renderer{
		ctx:        ctx,
		pipes:      pipes,
		prims:      newVertexArena(config.GetPrimitiveArenaCapacity(), primStride, config.GetOverflowPolicy()),
		sprites:    newVertexArena(config.GetSpriteArenaCapacity(), spriteStride, config.GetOverflowPolicy()),
		width:      width,
		height:     height,
		clearColor: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
	}
	r.cache = newBindGroupCache(r.createSheetBindGroup, func(bg *wgpu.BindGroup) { bg.Release() })

	r.uniformBuf, err = ctx.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "screen uniform",
		Size:  4 * floatSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}
	screen := [4]float32{float32(width), float32(height), 0, 0}
	if err := ctx.queue.WriteBuffer(r.uniformBuf, 0, wgpu.ToBytes(screen[:])); err != nil {
		r.Release()
		return nil, fmt.Errorf("write screen uniform: %w", err)
	}

	r.uniformBG, err = ctx.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "screen bind group",
		Layout: pipes.screenLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.uniformBuf, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("create screen bind group: %w", err)
	}

	r.primBuf, err = ctx.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "primitive stream",
		Size:  uint64(r.prims.capVerts * primStride * floatSize),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("create primitive buffer: %w", err)
	}

	r.spriteBuf, err = ctx.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "sprite stream",
		Size:  uint64(r.sprites.capVerts * spriteStride * floatSize),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("create sprite buffer: %w", err)
	}

	logging.Logger().Info("renderer ready",
		"primitiveCapacity", r.prims.capVerts,
		"spriteCapacity", r.sprites.capVerts)

	return r, nil
}

func (r *Renderer) createSheetBindGroup(t *Texture) (*wgpu.BindGroup, error) {
	return r.ctx.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "sheet bind group",
		Layout: r.pipes.sheetLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: t.view},
			{Binding: 1, Sampler: r.pipes.sampler},
		},
	})
}

// Size returns the logical resolution in pixels.
func (r *Renderer) Size() (w, h int) {
	return r.width, r.height
}

// Camera returns the camera handle. The offset persists across frames.
func (r *Renderer) Camera() *Camera {
	return &r.camera
}

// SetCameraOffset replaces the camera offset.
func (r *Renderer) SetCameraOffset(offset mgl32.Vec2) {
	r.camera.SetOffset(offset)
}

// CameraOffset returns the current camera offset.
func (r *Renderer) CameraOffset() mgl32.Vec2 {
	return r.camera.Offset()
}

// SetClearColor sets the background color applied at the start of the pass.
func (r *Renderer) SetClearColor(c mgl32.Vec4) {
	r.clearColor = wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
}

// BeginFrame rewinds the vertex streams and the batch queue. Draw calls are
// only valid between BeginFrame and EndFrame.
func (r *Renderer) BeginFrame() {
	r.prims.reset()
	r.sprites.reset()
	r.batches.reset()
	r.stats = FrameStats{}
	r.inFrame = true
}

// DrawPixel fills a single pixel.
func (r *Renderer) DrawPixel(pos mgl32.Vec2, color mgl32.Vec4) {
	if !r.inFrame {
		logging.WarnOnce("draw call outside BeginFrame/EndFrame, dropping")
		return
	}

	p := r.camera.apply(pos)
	if !r.pushPrimQuad(p[0], p[1], 1, 1, color) {
		logging.WarnOnce("primitive arena full, dropping pixel")
	}
}

// DrawLine draws a 1px line. Axis-aligned lines are a single quad; diagonal
// lines step pixel by pixel so output is identical across runs and platforms.
func (r *Renderer) DrawLine(a, b mgl32.Vec2, color mgl32.Vec4) {
	if !r.inFrame {
		logging.WarnOnce("draw call outside BeginFrame/EndFrame, dropping")
		return
	}

	pa := r.camera.apply(a)
	pb := r.camera.apply(b)
	x0, y0 := pa[0], pa[1]
	x1, y1 := pb[0], pb[1]

	if y0 == y1 {
		if x1 < x0 {
			x0, x1 = x1, x0
		}
		if !r.pushPrimQuad(x0, y0, x1-x0+1, 1, color) {
			logging.WarnOnce("primitive arena full, dropping line")
		}
		return
	}
	if x0 == x1 {
		if y1 < y0 {
			y0, y1 = y1, y0
		}
		if !r.pushPrimQuad(x0, y0, 1, y1-y0+1, color) {
			logging.WarnOnce("primitive arena full, dropping line")
		}
		return
	}

	dx := float64(x1 - x0)
	dy := float64(y1 - y0)
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps < 1 {
		// Endpoints less than a pixel apart: a single pixel, no stepping.
		if !r.pushPrimQuad(float32(math.Floor(float64(x0))), float32(math.Floor(float64(y0))), 1, 1, color) {
			logging.WarnOnce("primitive arena full, dropping line")
		}
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := float32(math.Floor(float64(x0) + dx*t))
		y := float32(math.Floor(float64(y0) + dy*t))
		if !r.pushPrimQuad(x, y, 1, 1, color) {
			logging.WarnOnce("primitive arena full, truncating line")
			return
		}
	}
}

// DrawRect draws a 1px rectangle outline.
func (r *Renderer) DrawRect(rect Rect, color mgl32.Vec4) {
	if !r.inFrame {
		logging.WarnOnce("draw call outside BeginFrame/EndFrame, dropping")
		return
	}

	p := r.camera.apply(mgl32.Vec2{rect.X, rect.Y})
	x, y, w, h := p[0], p[1], rect.W, rect.H
	if w <= 0 || h <= 0 {
		return
	}
	ok := r.pushPrimQuad(x, y, w, 1, color) &&
		r.pushPrimQuad(x, y+h-1, w, 1, color) &&
		r.pushPrimQuad(x, y+1, 1, h-2, color) &&
		r.pushPrimQuad(x+w-1, y+1, 1, h-2, color)
	if !ok {
		logging.WarnOnce("primitive arena full, dropping rect outline")
	}
}

// DrawRectFill fills a rectangle.
func (r *Renderer) DrawRectFill(rect Rect, color mgl32.Vec4) {
	if !r.inFrame {
		logging.WarnOnce("draw call outside BeginFrame/EndFrame, dropping")
		return
	}

	p := r.camera.apply(mgl32.Vec2{rect.X, rect.Y})
	if !r.pushPrimQuad(p[0], p[1], rect.W, rect.H, color) {
		logging.WarnOnce("primitive arena full, dropping filled rect")
	}
}

// ClearRect blanks a region with the given color. It is recorded like any
// other draw, so it respects the camera offset and only erases geometry
// recorded before it in the frame.
func (r *Renderer) ClearRect(rect Rect, color mgl32.Vec4) {
	if !r.inFrame {
		logging.WarnOnce("draw call outside BeginFrame/EndFrame, dropping")
		return
	}

	p := r.camera.apply(mgl32.Vec2{rect.X, rect.Y})
	if !r.pushPrimQuad(p[0], p[1], rect.W, rect.H, color) {
		logging.WarnOnce("primitive arena full, dropping clear rect")
	}
}

// ClearRectBackground blanks a region with the frame's pending clear color
// at full opacity.
func (r *Renderer) ClearRectBackground(rect Rect) {
	r.ClearRect(rect, mgl32.Vec4{
		float32(r.clearColor.R),
		float32(r.clearColor.G),
		float32(r.clearColor.B),
		1,
	})
}

// DrawSprite draws the srcRect region of a sprite source at pos, modulated
// by tint. Pass the white tint for unmodified sprite colors.
func (r *Renderer) DrawSprite(src SpriteSource, srcRect Rect, pos mgl32.Vec2, tint mgl32.Vec4) {
	if !r.inFrame {
		logging.WarnOnce("draw call outside BeginFrame/EndFrame, dropping")
		return
	}

	tex, err := src.SheetTexture(r.ctx)
	if err != nil {
		logging.WarnOnce("sprite texture unavailable", "err", err)
		return
	}
	sw, sh := src.SheetSize()
	u0, v0, u1, v1 := uvRect(sw, sh, srcRect)
	p := r.camera.apply(pos)
	if !r.pushSpriteQuad(tex, p[0], p[1], srcRect.W, srcRect.H, u0, v0, u1, v1, tint) {
		logging.WarnOnce("sprite arena full, dropping sprite")
	}
}

// DrawBitmapText draws a string with a bitmap font. Newlines advance by the
// font's line height; glyphs missing from the font are skipped.
func (r *Renderer) DrawBitmapText(font *BitmapFont, text string, pos mgl32.Vec2, color mgl32.Vec4) {
	if !r.inFrame {
		logging.WarnOnce("draw call outside BeginFrame/EndFrame, dropping")
		return
	}

	tex, err := font.SheetTexture(r.ctx)
	if err != nil {
		logging.WarnOnce("font texture unavailable", "font", font.Name, "err", err)
		return
	}
	sw, sh := font.SheetSize()
	p := r.camera.apply(pos)
	x := p[0]
	y := p[1]
	for _, ch := range text {
		if ch == '\n' {
			x = p[0]
			y += font.LineHeight
			continue
		}
		g, ok := font.Glyph(ch)
		if !ok {
			continue
		}
		if g.Src.W > 0 && g.Src.H > 0 {
			u0, v0, u1, v1 := uvRect(sw, sh, g.Src)
			gx := x + g.OffsetX
			gy := y + g.OffsetY
			if !r.pushSpriteQuad(tex, gx, gy, g.Src.W, g.Src.H, u0, v0, u1, v1, color) {
				logging.WarnOnce("sprite arena full, truncating text")
				return
			}
		}
		x += g.Advance
	}
}

// DestroyTexture invalidates the texture's cached bind group and releases
// the texture. This is the only correct destruction path; releasing a
// texture that still has a live cache entry leaves later frames binding a
// dead view.
func (r *Renderer) DestroyTexture(t *Texture) {
	if t == nil {
		return
	}
	r.cache.invalidate(t)
	t.release()
}

// Stats returns the counters for the last completed frame.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// EndFrame uploads the written stream prefixes, encodes one render pass
// (clear, primitives, then one draw per sprite batch) and presents it.
// Returns ErrDeviceLost when the surface or device is gone; everything
// GPU-resident is invalid after that.
func (r *Renderer) EndFrame() error {
	r.inFrame = false
	r.stats.PrimitiveVertices = r.prims.used()
	r.stats.SpriteVertices = r.sprites.used()
	r.stats.Batches = r.batches.len()
	r.stats.DroppedVertices = r.prims.dropped + r.sprites.dropped

	if n := r.prims.used(); n > 0 {
		if err := r.ctx.queue.WriteBuffer(r.primBuf, 0, wgpu.ToBytes(r.prims.prefix())); err != nil {
			return fmt.Errorf("upload primitive stream: %w", err)
		}
	}
	if n := r.sprites.used(); n > 0 {
		if err := r.ctx.queue.WriteBuffer(r.spriteBuf, 0, wgpu.ToBytes(r.sprites.prefix())); err != nil {
			return fmt.Errorf("upload sprite stream: %w", err)
		}
	}

	surfaceTexture, view, err := r.ctx.acquireFrame()
	if err != nil {
		return err
	}

	encoder, err := r.ctx.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("%w: create command encoder: %v", ErrDeviceLost, err)
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: r.clearColor,
			},
		},
	})

	if n := r.prims.used(); n > 0 {
		pass.SetPipeline(r.pipes.prim)
		pass.SetBindGroup(0, r.uniformBG, nil)
		pass.SetVertexBuffer(0, r.primBuf, 0, wgpu.WholeSize)
		pass.Draw(uint32(n), 1, 0, 0)
		r.stats.DrawCalls++
	}

	if r.batches.len() > 0 {
		pass.SetPipeline(r.pipes.sprite)
		pass.SetBindGroup(0, r.uniformBG, nil)
		pass.SetVertexBuffer(0, r.spriteBuf, 0, wgpu.WholeSize)
		for _, b := range r.batches.batches {
			bg, err := r.cache.get(b.texture)
			if err != nil {
				logging.WarnOnce("bind group creation failed, skipping batch", "err", err)
				continue
			}
			pass.SetBindGroup(1, bg, nil)
			pass.Draw(uint32(b.count), 1, uint32(b.first), 0)
			r.stats.DrawCalls++
		}
	}

	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("%w: finish encoder: %v", ErrDeviceLost, err)
	}
	r.ctx.queue.Submit(cmd)
	cmd.Release()
	encoder.Release()

	r.ctx.surface.Present()
	view.Release()
	surfaceTexture.Release()

	return nil
}

// Release frees every GPU object the renderer owns, including all cached
// bind groups. The context is not released.
func (r *Renderer) Release() {
	r.cache.clear()
	if r.spriteBuf != nil {
		r.spriteBuf.Release()
		r.spriteBuf = nil
	}
	if r.primBuf != nil {
		r.primBuf.Release()
		r.primBuf = nil
	}
	if r.uniformBG != nil {
		r.uniformBG.Release()
		r.uniformBG = nil
	}
	if r.uniformBuf != nil {
		r.uniformBuf.Release()
		r.uniformBuf = nil
	}
	if r.pipes != nil {
		r.pipes.release()
		r.pipes = nil
	}
}

// pushPrimQuad writes a filled quad into the primitive stream as two CCW
// triangles. Returns false when the arena rejected the write.
func (r *Renderer) pushPrimQuad(x, y, w, h float32, c mgl32.Vec4) bool {
	v := r.prims.alloc(6)
	if v == nil {
		return false
	}
	x1 := x + w
	y1 := y + h
	putPrimVertex(v[0:], x, y, c)
	putPrimVertex(v[primStride:], x, y1, c)
	putPrimVertex(v[2*primStride:], x1, y1, c)
	putPrimVertex(v[3*primStride:], x, y, c)
	putPrimVertex(v[4*primStride:], x1, y1, c)
	putPrimVertex(v[5*primStride:], x1, y, c)
	return true
}

// pushSpriteQuad writes a textured quad into the sprite stream and records
// it in the batch queue. Returns false when the arena rejected the write.
func (r *Renderer) pushSpriteQuad(tex *Texture, x, y, w, h float32, u0, v0, u1, v1 float32, tint mgl32.Vec4) bool {
	wasWrapped := r.sprites.wrapped
	first := r.sprites.used()
	v := r.sprites.alloc(6)
	if v == nil {
		return false
	}
	if r.sprites.wrapped && !wasWrapped {
		// The cursor restarted; earlier batches now point at overwritten
		// vertices and must go.
		r.batches.reset()
		first = 0
	}
	x1 := x + w
	y1 := y + h
	putSpriteVertex(v[0:], x, y, u0, v0, tint)
	putSpriteVertex(v[spriteStride:], x, y1, u0, v1, tint)
	putSpriteVertex(v[2*spriteStride:], x1, y1, u1, v1, tint)
	putSpriteVertex(v[3*spriteStride:], x, y, u0, v0, tint)
	putSpriteVertex(v[4*spriteStride:], x1, y1, u1, v1, tint)
	putSpriteVertex(v[5*spriteStride:], x1, y, u1, v0, tint)
	r.batches.add(tex, first, 6)
	return true
}

func putPrimVertex(dst []float32, x, y float32, c mgl32.Vec4) {
	dst[0] = x
	dst[1] = y
	dst[2] = c[0]
	dst[3] = c[1]
	dst[4] = c[2]
	dst[5] = c[3]
}

func putSpriteVertex(dst []float32, x, y, u, v float32, c mgl32.Vec4) {
	dst[0] = x
	dst[1] = y
	dst[2] = c[0]
	dst[3] = c[1]
	dst[4] = c[2]
	dst[5] = c[3]
	dst[6] = u
	dst[7] = v
}
