// Command retrodemo is a small showcase game: a field of bouncing sprites
// drawn over primitive-drawn scenery, with optional on-screen text when a
// font file is present. It exercises every renderer operation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"retrocanvas/internal/assets"
	"retrocanvas/internal/config"
	"retrocanvas/internal/engine"
	"retrocanvas/internal/graphics"
	"retrocanvas/internal/logging"
)

const (
	screenW = 320
	screenH = 180

	spriteSize  = 16
	spriteCount = 24
)

type bouncer struct {
	pos  mgl32.Vec2
	vel  mgl32.Vec2
	cell int // column on the sprite sheet
	tint mgl32.Vec4
}

type demoGame struct {
	sheet    *assets.SpriteSheet
	font     *graphics.BitmapFont
	fontPath string

	bouncers []bouncer
	scroll   float32
}

func (g *demoGame) QueryHardware() engine.HardwareSpec {
	return engine.HardwareSpec{
		Title:    "retrocanvas demo",
		Width:    screenW,
		Height:   screenH,
		Scale:    3,
		TickRate: 60,
	}
}

func (g *demoGame) Initialize(ctx context.Context) error {
	g.sheet = assets.NewSpriteSheet("demo sheet", makeDemoSheet())

	if g.fontPath != "" {
		font, err := graphics.BakeFontAtlas(g.fontPath, 8)
		if err != nil {
			return fmt.Errorf("bake demo font: %w", err)
		}
		g.font = font
	}

	g.bouncers = make([]bouncer, spriteCount)
	for i := range g.bouncers {
		// Deterministic pseudo-random placement, no seed needed.
		n := i*37 + 11
		g.bouncers[i] = bouncer{
			pos:  mgl32.Vec2{float32(n*13 % (screenW - spriteSize)), float32(n*7 % (screenH - spriteSize))},
			vel:  mgl32.Vec2{float32(1+(n%3)) * 0.7, float32(1+(n%2)) * 0.9},
			cell: i % 4,
			tint: mgl32.Vec4{
				0.5 + float32(n%5)*0.1,
				0.5 + float32(n%4)*0.125,
				0.5 + float32(n%3)*0.16,
				1,
			},
		}
	}
	return nil
}

func (g *demoGame) Update() {
	for i := range g.bouncers {
		b := &g.bouncers[i]
		b.pos = b.pos.Add(b.vel)
		if b.pos[0] < 0 || b.pos[0] > screenW-spriteSize {
			b.vel[0] = -b.vel[0]
			b.pos[0] += b.vel[0]
		}
		if b.pos[1] < 0 || b.pos[1] > screenH-spriteSize {
			b.vel[1] = -b.vel[1]
			b.pos[1] += b.vel[1]
		}
	}
	g.scroll += 0.25
	if g.scroll >= screenW {
		g.scroll = 0
	}
}

func (g *demoGame) Render(r *graphics.Renderer) {
	r.SetClearColor(mgl32.Vec4{0.08, 0.08, 0.12, 1})

	// Scenery in the primitive stream: a horizon line, a starfield and a
	// ground strip.
	r.DrawLine(mgl32.Vec2{0, 130}, mgl32.Vec2{screenW - 1, 130}, mgl32.Vec4{0.3, 0.5, 0.3, 1})
	r.DrawRectFill(graphics.Rect{X: 0, Y: 131, W: screenW, H: screenH - 131}, mgl32.Vec4{0.12, 0.2, 0.12, 1})
	for i := 0; i < 40; i++ {
		x := float32((i*53+int(g.scroll)*(1+i%3))%screenW) - 1
		y := float32((i * 31) % 120)
		r.DrawPixel(mgl32.Vec2{x, y}, mgl32.Vec4{0.8, 0.8, 0.9, 1})
	}

	// Sprites, all from one sheet so they merge into few batches.
	for _, b := range g.bouncers {
		src := g.sheet.Cell(b.cell, 0, spriteSize, spriteSize)
		r.DrawSprite(g.sheet, src, b.pos, b.tint)
	}

	// Frame around the playfield.
	r.DrawRect(graphics.Rect{X: 0, Y: 0, W: screenW, H: screenH}, mgl32.Vec4{0.4, 0.4, 0.5, 1})

	if g.font != nil {
		stats := r.Stats()
		r.DrawBitmapText(g.font, "retrocanvas", mgl32.Vec2{6, 6}, mgl32.Vec4{1, 1, 1, 1})
		r.DrawBitmapText(g.font,
			fmt.Sprintf("batches %d draws %d", stats.Batches, stats.DrawCalls),
			mgl32.Vec2{6, 6 + g.font.LineHeight}, mgl32.Vec4{0.7, 0.9, 0.7, 1})
	}
}

// makeDemoSheet builds a 64x16 sheet of four 16x16 tiles procedurally, so
// the demo needs no image files on disk.
func makeDemoSheet() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4*spriteSize, spriteSize))
	for cell := 0; cell < 4; cell++ {
		for y := 0; y < spriteSize; y++ {
			for x := 0; x < spriteSize; x++ {
				px := cell*spriteSize + x
				edge := x == 0 || y == 0 || x == spriteSize-1 || y == spriteSize-1
				var c color.RGBA
				switch {
				case edge:
					c = color.RGBA{240, 240, 240, 255}
				case (x/2+y/2+cell)%2 == 0:
					c = color.RGBA{200, 80, 80, 255}
				default:
					c = color.RGBA{80, 80, 200, 255}
				}
				img.SetRGBA(px, y, c)
			}
		}
	}
	return img
}

func main() {
	fontPath := flag.String("font", "", "path to an OTF/TTF file for on-screen text")
	fpsLimit := flag.Int("fps", 0, "presentation FPS cap (0 = uncapped)")
	verbose := flag.Bool("v", false, "log engine internals to stderr")
	flag.Parse()

	if *verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	config.SetFPSLimit(*fpsLimit)

	app := engine.NewApp(&demoGame{fontPath: *fontPath})
	if err := app.Initialize(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "startup failed:", err)
		os.Exit(1)
	}
	if err := app.Run(); err != nil {
		if errors.Is(err, graphics.ErrDeviceLost) {
			fmt.Fprintln(os.Stderr, "GPU device lost, exiting:", err)
		} else {
			fmt.Fprintln(os.Stderr, "engine stopped:", err)
		}
		os.Exit(1)
	}
}
