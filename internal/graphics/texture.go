package graphics

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/cogentcore/webgpu/wgpu"
)

// Texture wraps a GPU texture and its default view. Textures are created
// through the renderer's context and destroyed through Renderer.DestroyTexture
// so the bind group cache is always invalidated first.
type Texture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	width   int
	height  int
}

// Size returns the texture dimensions in pixels.
func (t *Texture) Size() (w, h int) {
	return t.width, t.height
}

// NewTexture uploads img as an RGBA8 texture. Destroy it through
// Renderer.DestroyTexture, never by releasing it directly, so the bind group
// cache entry is invalidated first.
func NewTexture(ctx *Context, label string, img image.Image) (*Texture, error) {
	return newTextureFromImage(ctx, label, img)
}

// newTextureFromImage uploads img as an RGBA8 texture.
func newTextureFromImage(ctx *Context, label string, img image.Image) (*Texture, error) {
	rgba := toRGBA(img)
	w := rgba.Rect.Dx()
	h := rgba.Rect.Dy()

	tex, err := ctx.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(w),
			Height:             uint32(h),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", label, err)
	}

	ctx.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
		},
		rgba.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(4 * w),
			RowsPerImage: uint32(h),
		},
		&wgpu.Extent3D{
			Width:              uint32(w),
			Height:             uint32(h),
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create texture view %q: %w", label, err)
	}

	return &Texture{texture: tex, view: view, width: w, height: h}, nil
}

func (t *Texture) release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// toRGBA returns img as *image.RGBA with a zero origin and tight stride.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		b := rgba.Rect
		if b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
			return rgba
		}
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
