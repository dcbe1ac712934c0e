package assets

import (
	"fmt"
	"image"
	"sync"

	"retrocanvas/internal/graphics"
)

// SpriteSheet wraps a decoded image as a drawable sprite source. The GPU
// texture is created on first draw and cached; pixel-space source rectangles
// map to texture coordinates with no insets, so a 16x16 cell at (32,0) on a
// 128x64 sheet spans exactly u [0.25,0.375], v [0,0.25].
type SpriteSheet struct {
	name string
	img  *image.RGBA

	mu  sync.Mutex
	tex *graphics.Texture
}

// NewSpriteSheet wraps an already-decoded image.
func NewSpriteSheet(name string, img *image.RGBA) *SpriteSheet {
	return &SpriteSheet{name: name, img: img}
}

// LoadSpriteSheet decodes an image file into a sprite sheet. An optional
// integer scale factor upsizes the pixels before upload.
func LoadSpriteSheet(path string, scale int) (*SpriteSheet, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("load sprite sheet: %w", err)
	}
	return NewSpriteSheet(path, ScaleNearest(img, scale)), nil
}

// Name returns the sheet's identifier, normally its path.
func (s *SpriteSheet) Name() string { return s.name }

// Size returns the sheet dimensions in pixels.
func (s *SpriteSheet) Size() (w, h int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// SheetSize implements graphics.SpriteSource.
func (s *SpriteSheet) SheetSize() (w, h float32) {
	b := s.img.Bounds()
	return float32(b.Dx()), float32(b.Dy())
}

// SheetTexture implements graphics.SpriteSource, uploading the image on
// first use.
func (s *SpriteSheet) SheetTexture(ctx *graphics.Context) (*graphics.Texture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tex != nil {
		return s.tex, nil
	}
	tex, err := graphics.NewTexture(ctx, s.name, s.img)
	if err != nil {
		return nil, fmt.Errorf("upload sprite sheet %q: %w", s.name, err)
	}
	s.tex = tex
	return tex, nil
}

// GetUVs maps a pixel-space source rectangle to normalized texture
// coordinates: u0 = x/w, v0 = y/h, u1 = (x+w')/w, v1 = (y+h')/h.
func (s *SpriteSheet) GetUVs(src graphics.Rect) (u0, v0, u1, v1 float32) {
	w, h := s.SheetSize()
	u0 = src.X / w
	v0 = src.Y / h
	u1 = (src.X + src.W) / w
	v1 = (src.Y + src.H) / h
	return
}

// Cell returns the source rectangle of the cell at column cx, row cy on a
// grid of cellW x cellH pixels.
func (s *SpriteSheet) Cell(cx, cy, cellW, cellH int) graphics.Rect {
	return graphics.Rect{
		X: float32(cx * cellW),
		Y: float32(cy * cellH),
		W: float32(cellW),
		H: float32(cellH),
	}
}

// ReleaseTexture destroys the sheet's texture through the renderer so the
// bind group cache entry goes first. The sheet stays usable; the texture is
// recreated on the next draw.
func (s *SpriteSheet) ReleaseTexture(r *graphics.Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tex != nil {
		r.DestroyTexture(s.tex)
		s.tex = nil
	}
}
