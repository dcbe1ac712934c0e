package graphics

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Glyph describes one character's region in the font atlas and its layout
// metrics. Offsets are relative to the pen position at the top of the line.
type Glyph struct {
	Src     Rect    // atlas region in pixels
	OffsetX float32 // left bearing
	OffsetY float32 // distance from the line top to the glyph top
	Advance float32 // pen advance in pixels
}

// BitmapFont is a glyph atlas plus per-character metrics. Fonts come from
// either a JSON descriptor with a sibling atlas image (LoadBitmapFont) or
// from baking an OTF file at runtime (BakeFontAtlas).
type BitmapFont struct {
	Name       string
	Size       float32
	LineHeight float32
	Baseline   float32

	glyphs map[rune]Glyph
	img    *image.RGBA

	mu  sync.Mutex
	tex *Texture
}

// Glyph returns the metrics for r.
func (f *BitmapFont) Glyph(r rune) (Glyph, bool) {
	g, ok := f.glyphs[r]
	return g, ok
}

// SheetSize returns the atlas dimensions in pixels.
func (f *BitmapFont) SheetSize() (w, h float32) {
	b := f.img.Bounds()
	return float32(b.Dx()), float32(b.Dy())
}

// SheetTexture returns the atlas GPU texture, uploading it on first use.
func (f *BitmapFont) SheetTexture(ctx *Context) (*Texture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tex != nil {
		return f.tex, nil
	}
	tex, err := newTextureFromImage(ctx, "font "+f.Name, f.img)
	if err != nil {
		return nil, err
	}
	f.tex = tex
	return tex, nil
}

// ReleaseTexture destroys the atlas texture through the renderer so its
// cached bind group is invalidated first. The font itself stays usable; the
// texture is recreated on the next draw.
func (f *BitmapFont) ReleaseTexture(r *Renderer) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tex != nil {
		r.DestroyTexture(f.tex)
		f.tex = nil
	}
}

// Measure returns the pixel width and height text occupies at the font's
// native size. Width is the widest line; height is lines times LineHeight.
func (f *BitmapFont) Measure(text string) (w, h float32) {
	var lineW float32
	lines := 1
	for _, ch := range text {
		if ch == '\n' {
			lines++
			if lineW > w {
				w = lineW
			}
			lineW = 0
			continue
		}
		if g, ok := f.glyphs[ch]; ok {
			lineW += g.Advance
		}
	}
	if lineW > w {
		w = lineW
	}
	return w, float32(lines) * f.LineHeight
}

// fontFile is the on-disk JSON descriptor. Glyphs are keyed by the literal
// character; the texture field names an atlas image next to the descriptor.
type fontFile struct {
	Name       string                   `json:"name"`
	Size       float32                  `json:"size"`
	LineHeight float32                  `json:"lineHeight"`
	Baseline   float32                  `json:"baseline"`
	Texture    string                   `json:"texture"`
	Glyphs     map[string]fontFileGlyph `json:"glyphs"`
}

type fontFileGlyph struct {
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	W       float32 `json:"w"`
	H       float32 `json:"h"`
	OffsetX float32 `json:"ox"`
	OffsetY float32 `json:"oy"`
	Advance float32 `json:"advance"`
}

var (
	fontCacheMu sync.Mutex
	fontCache   = make(map[string]*BitmapFont)
)

// LoadBitmapFont reads a JSON font descriptor and its atlas image. Results
// are cached by path, so repeated loads share one font and one GPU texture.
func LoadBitmapFont(path string) (*BitmapFont, error) {
	fontCacheMu.Lock()
	defer fontCacheMu.Unlock()

	if f, ok := fontCache[path]; ok {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read font file: %w", err)
	}

	var ff fontFile
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("could not unmarshal font json: %w", err)
	}
	if ff.Texture == "" {
		return nil, fmt.Errorf("font %q: missing texture reference", path)
	}

	imgPath := filepath.Join(filepath.Dir(path), ff.Texture)
	imgFile, err := os.Open(imgPath)
	if err != nil {
		return nil, fmt.Errorf("could not open font atlas: %w", err)
	}
	defer imgFile.Close()

	img, _, err := image.Decode(imgFile)
	if err != nil {
		return nil, fmt.Errorf("could not decode font atlas: %w", err)
	}

	f, err := fontFromFile(&ff, toRGBA(img))
	if err != nil {
		return nil, err
	}
	fontCache[path] = f
	return f, nil
}

func fontFromFile(ff *fontFile, img *image.RGBA) (*BitmapFont, error) {
	f := &BitmapFont{
		Name:       ff.Name,
		Size:       ff.Size,
		LineHeight: ff.LineHeight,
		Baseline:   ff.Baseline,
		glyphs:     make(map[rune]Glyph, len(ff.Glyphs)),
		img:        img,
	}
	if f.LineHeight <= 0 {
		f.LineHeight = f.Size
	}
	for key, g := range ff.Glyphs {
		runes := []rune(key)
		if len(runes) != 1 {
			return nil, fmt.Errorf("font %q: glyph key %q is not a single character", ff.Name, key)
		}
		f.glyphs[runes[0]] = Glyph{
			Src:     Rect{X: g.X, Y: g.Y, W: g.W, H: g.H},
			OffsetX: g.OffsetX,
			OffsetY: g.OffsetY,
			Advance: g.Advance,
		}
	}
	if len(f.glyphs) == 0 {
		return nil, fmt.Errorf("font %q: no glyphs", ff.Name)
	}
	return f, nil
}

// fontCacheKey builds the cache key for baked fonts, which have no path of
// their own.
func fontCacheKey(path string, sizePx int) string {
	return strings.Join([]string{path, fmt.Sprint(sizePx)}, "@")
}
