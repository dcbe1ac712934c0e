package graphics

import (
	"image"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"retrocanvas/internal/config"
)

// newTestRenderer builds a renderer with no GPU objects behind it. Draw
// recording never touches the device, so everything up to EndFrame is
// testable headless.
func newTestRenderer(primCap, spriteCap int, policy config.OverflowPolicy) *Renderer {
	r := &Renderer{
		prims:   newVertexArena(primCap, primStride, policy),
		sprites: newVertexArena(spriteCap, spriteStride, policy),
		width:   320,
		height:  180,
	}
	r.cache = newBindGroupCache(
		func(*Texture) (*wgpu.BindGroup, error) { return &wgpu.BindGroup{}, nil },
		func(*wgpu.BindGroup) {},
	)
	return r
}

// fakeSheet is a SpriteSource with a preassigned texture, so no context is
// needed.
type fakeSheet struct {
	w, h float32
	tex  *Texture
}

func (f *fakeSheet) SheetSize() (w, h float32)               { return f.w, f.h }
func (f *fakeSheet) SheetTexture(*Context) (*Texture, error) { return f.tex, nil }

var (
	white = mgl32.Vec4{1, 1, 1, 1}
	red   = mgl32.Vec4{1, 0, 0, 1}
	green = mgl32.Vec4{0, 1, 0, 1}
)

func TestDrawPixelWritesOneQuad(t *testing.T) {
	r := newTestRenderer(64, 64, config.OverflowDrop)
	r.BeginFrame()
	r.DrawPixel(mgl32.Vec2{10, 20}, red)
	if r.prims.used() != 6 {
		t.Fatalf("pixel quad: got %d vertices, want 6", r.prims.used())
	}
	v := r.prims.prefix()
	if v[0] != 10 || v[1] != 20 {
		t.Fatalf("first vertex position: got (%v,%v), want (10,20)", v[0], v[1])
	}
	// Opposite corner of a 1x1 quad.
	if v[2*primStride] != 11 || v[2*primStride+1] != 21 {
		t.Fatalf("far corner: got (%v,%v), want (11,21)",
			v[2*primStride], v[2*primStride+1])
	}
}

func TestDrawOutsideFrameIsDropped(t *testing.T) {
	r := newTestRenderer(64, 64, config.OverflowDrop)
	r.DrawPixel(mgl32.Vec2{1, 1}, red)
	if r.prims.used() != 0 {
		t.Fatalf("draw before BeginFrame wrote %d vertices, want 0", r.prims.used())
	}
}

func TestOverflowDropsWholeWrite(t *testing.T) {
	// Capacity of exactly one quad: the second pixel must vanish without
	// corrupting the first.
	r := newTestRenderer(6, 6, config.OverflowDrop)
	r.BeginFrame()
	r.DrawPixel(mgl32.Vec2{1, 1}, red)
	r.DrawPixel(mgl32.Vec2{2, 2}, green)
	if r.prims.used() != 6 {
		t.Fatalf("vertices after overflow: got %d, want 6", r.prims.used())
	}
	v := r.prims.prefix()
	if v[0] != 1 || v[1] != 1 {
		t.Fatalf("surviving quad belongs to the first pixel, got pos (%v,%v)", v[0], v[1])
	}
	if r.prims.dropped != 6 {
		t.Fatalf("dropped vertices: got %d, want 6", r.prims.dropped)
	}
}

func TestCameraOffsetMatchesPreOffsetPositions(t *testing.T) {
	offset := mgl32.Vec2{7, -3}
	pts := []mgl32.Vec2{{0, 0}, {10, 20}, {300, 170}}

	manual := newTestRenderer(64, 64, config.OverflowDrop)
	manual.BeginFrame()
	for _, p := range pts {
		manual.DrawPixel(p.Add(offset), red)
	}

	withCam := newTestRenderer(64, 64, config.OverflowDrop)
	withCam.BeginFrame()
	withCam.SetCameraOffset(offset)
	for _, p := range pts {
		withCam.DrawPixel(p, red)
	}

	a := manual.prims.prefix()
	b := withCam.prims.prefix()
	if len(a) != len(b) {
		t.Fatalf("stream lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("float %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestCameraOffsetPersistsAcrossFrames(t *testing.T) {
	r := newTestRenderer(64, 64, config.OverflowDrop)
	r.SetCameraOffset(mgl32.Vec2{5, 5})
	r.BeginFrame()
	r.BeginFrame()
	if got := r.CameraOffset(); got != (mgl32.Vec2{5, 5}) {
		t.Fatalf("camera offset after frames: got %v, want {5 5}", got)
	}
}

func TestDrawRectFillAppliesCameraToOriginOnly(t *testing.T) {
	r := newTestRenderer(64, 64, config.OverflowDrop)
	r.BeginFrame()
	r.SetCameraOffset(mgl32.Vec2{10, 10})
	r.DrawRectFill(Rect{X: 0, Y: 0, W: 5, H: 4}, red)
	v := r.prims.prefix()
	if v[0] != 10 || v[1] != 10 {
		t.Fatalf("origin: got (%v,%v), want (10,10)", v[0], v[1])
	}
	if v[2*primStride] != 15 || v[2*primStride+1] != 14 {
		t.Fatalf("far corner: got (%v,%v), want (15,14)",
			v[2*primStride], v[2*primStride+1])
	}
}

func TestDrawSpriteUVsAreExact(t *testing.T) {
	sheet := &fakeSheet{w: 128, h: 64, tex: &Texture{width: 128, height: 64}}
	r := newTestRenderer(64, 64, config.OverflowDrop)
	r.BeginFrame()
	r.DrawSprite(sheet, Rect{X: 32, Y: 0, W: 16, H: 16}, mgl32.Vec2{0, 0}, white)

	if r.sprites.used() != 6 {
		t.Fatalf("sprite quad: got %d vertices, want 6", r.sprites.used())
	}
	v := r.sprites.prefix()
	u0, v0 := v[6], v[7]
	u1, v1 := v[2*spriteStride+6], v[2*spriteStride+7]
	if u0 != 0.25 || v0 != 0 {
		t.Fatalf("top-left uv: got (%v,%v), want (0.25,0)", u0, v0)
	}
	if u1 != 0.375 || v1 != 0.25 {
		t.Fatalf("bottom-right uv: got (%v,%v), want (0.375,0.25)", u1, v1)
	}
}

func TestSpriteBatchingThroughRenderer(t *testing.T) {
	texA := &Texture{}
	texB := &Texture{}
	sheetA := &fakeSheet{w: 64, h: 64, tex: texA}
	sheetB := &fakeSheet{w: 64, h: 64, tex: texB}

	r := newTestRenderer(64, 64, config.OverflowDrop)
	r.BeginFrame()
	src := Rect{X: 0, Y: 0, W: 8, H: 8}
	r.DrawSprite(sheetA, src, mgl32.Vec2{0, 0}, white)
	r.DrawSprite(sheetA, src, mgl32.Vec2{8, 0}, white)
	r.DrawSprite(sheetB, src, mgl32.Vec2{16, 0}, white)
	r.DrawSprite(sheetA, src, mgl32.Vec2{24, 0}, white)

	if r.batches.len() != 3 {
		t.Fatalf("A,A,B,A: got %d batches, want 3", r.batches.len())
	}
	if got := r.batches.batches[0]; got.texture != texA || got.first != 0 || got.count != 12 {
		t.Fatalf("batch 0: got {first:%d count:%d}", got.first, got.count)
	}
	if got := r.batches.batches[1]; got.texture != texB || got.first != 12 || got.count != 6 {
		t.Fatalf("batch 1: got {first:%d count:%d}", got.first, got.count)
	}
	if got := r.batches.batches[2]; got.texture != texA || got.first != 18 || got.count != 6 {
		t.Fatalf("batch 2: got {first:%d count:%d}", got.first, got.count)
	}
}

func TestSpriteWrapDiscardsStaleBatches(t *testing.T) {
	tex := &Texture{}
	sheet := &fakeSheet{w: 64, h: 64, tex: tex}
	r := newTestRenderer(64, 12, config.OverflowWrap)
	r.BeginFrame()
	src := Rect{X: 0, Y: 0, W: 8, H: 8}
	r.DrawSprite(sheet, src, mgl32.Vec2{0, 0}, white)
	r.DrawSprite(sheet, src, mgl32.Vec2{8, 0}, white)
	// Third sprite wraps the 12-vertex stream; the old batches point at
	// overwritten vertices and must be gone.
	r.DrawSprite(sheet, src, mgl32.Vec2{16, 0}, white)

	if r.batches.len() != 1 {
		t.Fatalf("batches after wrap: got %d, want 1", r.batches.len())
	}
	if got := r.batches.batches[0]; got.first != 0 || got.count != 6 {
		t.Fatalf("post-wrap batch: got {first:%d count:%d}, want {first:0 count:6}", got.first, got.count)
	}
}

func TestDrawRectOutlineUsesFourQuads(t *testing.T) {
	r := newTestRenderer(64, 64, config.OverflowDrop)
	r.BeginFrame()
	r.DrawRect(Rect{X: 0, Y: 0, W: 10, H: 10}, red)
	if r.prims.used() != 24 {
		t.Fatalf("outline: got %d vertices, want 24", r.prims.used())
	}
}

func TestDrawLineAxisAlignedIsSingleQuad(t *testing.T) {
	r := newTestRenderer(256, 64, config.OverflowDrop)
	r.BeginFrame()
	r.DrawLine(mgl32.Vec2{5, 3}, mgl32.Vec2{20, 3}, red)
	if r.prims.used() != 6 {
		t.Fatalf("horizontal line: got %d vertices, want 6", r.prims.used())
	}
	r.DrawLine(mgl32.Vec2{4, 10}, mgl32.Vec2{4, 2}, red)
	if r.prims.used() != 12 {
		t.Fatalf("vertical line added: got %d vertices, want 12", r.prims.used())
	}
	v := r.prims.prefix()
	// Reversed endpoints normalize to the min corner.
	if v[6*primStride] != 4 || v[6*primStride+1] != 2 {
		t.Fatalf("vertical line origin: got (%v,%v), want (4,2)",
			v[6*primStride], v[6*primStride+1])
	}
}

func TestDrawLineDiagonalStepsPerPixel(t *testing.T) {
	r := newTestRenderer(256, 64, config.OverflowDrop)
	r.BeginFrame()
	r.DrawLine(mgl32.Vec2{0, 0}, mgl32.Vec2{4, 4}, red)
	// 5 steps inclusive, one quad each.
	if r.prims.used() != 30 {
		t.Fatalf("diagonal line: got %d vertices, want 30", r.prims.used())
	}
}

func TestDrawLineSubPixelEmitsOnePixel(t *testing.T) {
	r := newTestRenderer(256, 64, config.OverflowDrop)
	r.BeginFrame()
	// Endpoints under a pixel apart on both axes.
	r.DrawLine(mgl32.Vec2{2.2, 3.4}, mgl32.Vec2{2.7, 3.7}, red)
	if r.prims.used() != 6 {
		t.Fatalf("sub-pixel line: got %d vertices, want 6", r.prims.used())
	}
	v := r.prims.prefix()
	if v[0] != 2 || v[1] != 3 {
		t.Fatalf("sub-pixel line pixel: got (%v,%v), want (2,3)", v[0], v[1])
	}
	for i, f := range v {
		if f != f {
			t.Fatalf("float %d is NaN", i)
		}
	}
}

func TestClearRectUsesGivenColor(t *testing.T) {
	r := newTestRenderer(64, 64, config.OverflowDrop)
	r.BeginFrame()
	r.ClearRect(Rect{X: 0, Y: 0, W: 4, H: 4}, mgl32.Vec4{0.25, 0.5, 0.75, 0.5})
	v := r.prims.prefix()
	if v[2] != 0.25 || v[3] != 0.5 || v[4] != 0.75 || v[5] != 0.5 {
		t.Fatalf("clear rect color: got (%v,%v,%v,%v)", v[2], v[3], v[4], v[5])
	}
}

func TestClearRectBackgroundUsesClearColorOpaque(t *testing.T) {
	r := newTestRenderer(64, 64, config.OverflowDrop)
	r.SetClearColor(mgl32.Vec4{0.25, 0.5, 0.75, 0.25})
	r.BeginFrame()
	r.ClearRectBackground(Rect{X: 0, Y: 0, W: 4, H: 4})
	v := r.prims.prefix()
	if v[2] != 0.25 || v[3] != 0.5 || v[4] != 0.75 || v[5] != 1 {
		t.Fatalf("background clear color: got (%v,%v,%v,%v)", v[2], v[3], v[4], v[5])
	}
}

func TestDrawBitmapTextSkipsMissingGlyphs(t *testing.T) {
	font := &BitmapFont{
		Name:       "test",
		LineHeight: 10,
		glyphs: map[rune]Glyph{
			'a': {Src: Rect{X: 0, Y: 0, W: 4, H: 6}, Advance: 5},
			'b': {Src: Rect{X: 4, Y: 0, W: 4, H: 6}, Advance: 5},
			' ': {Advance: 3},
		},
		img: image.NewRGBA(image.Rect(0, 0, 16, 8)),
		tex: &Texture{width: 16, height: 8},
	}
	r := newTestRenderer(64, 256, config.OverflowDrop)
	r.BeginFrame()
	r.DrawBitmapText(font, "a b?a", mgl32.Vec2{0, 0}, white)
	// Quads for a, b, a; the space advances without geometry and '?' is
	// skipped entirely.
	if r.sprites.used() != 18 {
		t.Fatalf("text vertices: got %d, want 18", r.sprites.used())
	}
	v := r.sprites.prefix()
	// Second drawable glyph starts after 'a' (5) plus space (3).
	if v[spriteStride*6] != 8 {
		t.Fatalf("glyph 'b' x: got %v, want 8", v[spriteStride*6])
	}
}

func TestDrawBitmapTextNewlineAdvancesLine(t *testing.T) {
	font := &BitmapFont{
		Name:       "test",
		LineHeight: 12,
		glyphs: map[rune]Glyph{
			'x': {Src: Rect{X: 0, Y: 0, W: 4, H: 6}, Advance: 5},
		},
		img: image.NewRGBA(image.Rect(0, 0, 16, 8)),
		tex: &Texture{width: 16, height: 8},
	}
	r := newTestRenderer(64, 256, config.OverflowDrop)
	r.BeginFrame()
	r.DrawBitmapText(font, "x\nx", mgl32.Vec2{3, 4}, white)
	v := r.sprites.prefix()
	if v[0] != 3 || v[1] != 4 {
		t.Fatalf("line 1 glyph at (%v,%v), want (3,4)", v[0], v[1])
	}
	if v[spriteStride*6] != 3 || v[spriteStride*6+1] != 16 {
		t.Fatalf("line 2 glyph at (%v,%v), want (3,16)",
			v[spriteStride*6], v[spriteStride*6+1])
	}
}

func TestStatsAfterRecording(t *testing.T) {
	tex := &Texture{}
	sheet := &fakeSheet{w: 64, h: 64, tex: tex}
	r := newTestRenderer(6, 64, config.OverflowDrop)
	r.BeginFrame()
	r.DrawPixel(mgl32.Vec2{0, 0}, red)
	r.DrawPixel(mgl32.Vec2{1, 1}, red) // dropped
	r.DrawSprite(sheet, Rect{W: 8, H: 8}, mgl32.Vec2{0, 0}, white)

	if r.prims.used() != 6 || r.sprites.used() != 6 {
		t.Fatalf("stream usage: prims=%d sprites=%d", r.prims.used(), r.sprites.used())
	}
	if r.prims.dropped != 6 {
		t.Fatalf("dropped: got %d, want 6", r.prims.dropped)
	}
	if r.batches.len() != 1 {
		t.Fatalf("batches: got %d, want 1", r.batches.len())
	}
}
