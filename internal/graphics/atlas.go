package graphics

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	atlasWidth   = 512
	atlasPadding = 1

	// ASCII printable range
	firstBakedRune = rune(32)
	lastBakedRune  = rune(126)
)

// BakeFontAtlas rasterizes an OTF/TTF file at the given pixel size into a
// BitmapFont whose atlas holds the printable ASCII range. Glyphs are white
// with an alpha channel, so text color comes entirely from the draw tint.
// Results are cached per (path, size).
func BakeFontAtlas(fontPath string, sizePx int) (*BitmapFont, error) {
	key := fontCacheKey(fontPath, sizePx)

	fontCacheMu.Lock()
	defer fontCacheMu.Unlock()

	if f, ok := fontCache[key]; ok {
		return f, nil
	}

	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	parsed, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    float64(sizePx),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	defer func() { _ = face.Close() }()

	metrics := face.Metrics()
	ascent := float32(metrics.Ascent.Round())
	lineHeight := float32(metrics.Height.Round())
	if lineHeight <= 0 {
		lineHeight = float32(sizePx)
	}

	// First pass: measure rows to size the atlas height.
	maxGlyphH := 0
	for r := firstBakedRune; r <= lastBakedRune; r++ {
		dr, mask, _, _, ok := face.Glyph(fixed.P(0, 0), r)
		if !ok || mask == nil {
			continue
		}
		if h := dr.Dy(); h > maxGlyphH {
			maxGlyphH = h
		}
	}
	if maxGlyphH == 0 {
		maxGlyphH = sizePx
	}
	rowH := maxGlyphH + atlasPadding
	rows := 1
	offsetX := 0
	for r := firstBakedRune; r <= lastBakedRune; r++ {
		dr, mask, _, _, ok := face.Glyph(fixed.P(0, 0), r)
		if !ok || mask == nil {
			continue
		}
		w := dr.Dx()
		if w == 0 {
			continue
		}
		if offsetX+w+atlasPadding > atlasWidth {
			rows++
			offsetX = 0
		}
		offsetX += w + atlasPadding
	}
	atlasH := rows * rowH

	atlas := image.NewRGBA(image.Rect(0, 0, atlasWidth, atlasH))
	whiteFill := image.NewUniform(color.RGBA{255, 255, 255, 255})

	bf := &BitmapFont{
		Name:       filepath.Base(fontPath),
		Size:       float32(sizePx),
		LineHeight: lineHeight,
		Baseline:   ascent,
		glyphs:     make(map[rune]Glyph),
		img:        atlas,
	}

	// Second pass: rasterize each glyph into the atlas through its alpha
	// mask and record metrics.
	offsetX = 0
	offsetY := 0
	for r := firstBakedRune; r <= lastBakedRune; r++ {
		dr, mask, maskp, advance, ok := face.Glyph(fixed.P(0, 0), r)
		if !ok || mask == nil {
			continue
		}
		adv := float32(math.Round(float64(advance) / 64.0))
		gw := dr.Dx()
		gh := dr.Dy()
		if gw == 0 || gh == 0 {
			// Space-like glyph: advance only.
			bf.glyphs[r] = Glyph{Advance: adv}
			continue
		}

		if offsetX+gw+atlasPadding > atlasWidth {
			offsetX = 0
			offsetY += rowH
		}

		dst := image.Rect(offsetX, offsetY, offsetX+gw, offsetY+gh)
		draw.DrawMask(atlas, dst, whiteFill, image.Point{}, mask, maskp, draw.Over)

		bf.glyphs[r] = Glyph{
			Src:     Rect{X: float32(offsetX), Y: float32(offsetY), W: float32(gw), H: float32(gh)},
			OffsetX: float32(dr.Min.X),
			OffsetY: ascent + float32(dr.Min.Y),
			Advance: adv,
		}
		offsetX += gw + atlasPadding
	}

	if len(bf.glyphs) == 0 {
		return nil, fmt.Errorf("bake font %q: no glyphs rasterized", fontPath)
	}

	fontCache[key] = bf
	return bf, nil
}
