package graphics

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func testFontFile() *fontFile {
	return &fontFile{
		Name:       "tiny",
		Size:       8,
		LineHeight: 10,
		Baseline:   7,
		Texture:    "tiny.png",
		Glyphs: map[string]fontFileGlyph{
			"a": {X: 0, Y: 0, W: 4, H: 6, Advance: 5},
			"b": {X: 4, Y: 0, W: 4, H: 6, OffsetX: 1, Advance: 6},
			" ": {Advance: 3},
		},
	}
}

func TestFontFromFileBuildsGlyphTable(t *testing.T) {
	f, err := fontFromFile(testFontFile(), image.NewRGBA(image.Rect(0, 0, 16, 8)))
	if err != nil {
		t.Fatalf("fontFromFile: %v", err)
	}
	g, ok := f.Glyph('b')
	if !ok {
		t.Fatalf("glyph 'b' missing")
	}
	if g.Src.X != 4 || g.OffsetX != 1 || g.Advance != 6 {
		t.Fatalf("glyph 'b': got %+v", g)
	}
	if _, ok := f.Glyph('?'); ok {
		t.Fatalf("unexpected glyph for '?'")
	}
}

func TestFontFromFileRejectsMultiRuneKeys(t *testing.T) {
	ff := testFontFile()
	ff.Glyphs["ab"] = fontFileGlyph{Advance: 1}
	if _, err := fontFromFile(ff, image.NewRGBA(image.Rect(0, 0, 16, 8))); err == nil {
		t.Fatalf("multi-character glyph key accepted")
	}
}

func TestFontFromFileRejectsEmptyGlyphSet(t *testing.T) {
	ff := testFontFile()
	ff.Glyphs = nil
	if _, err := fontFromFile(ff, image.NewRGBA(image.Rect(0, 0, 16, 8))); err == nil {
		t.Fatalf("font with no glyphs accepted")
	}
}

func TestFontLineHeightDefaultsToSize(t *testing.T) {
	ff := testFontFile()
	ff.LineHeight = 0
	f, err := fontFromFile(ff, image.NewRGBA(image.Rect(0, 0, 16, 8)))
	if err != nil {
		t.Fatalf("fontFromFile: %v", err)
	}
	if f.LineHeight != ff.Size {
		t.Fatalf("line height: got %v, want %v", f.LineHeight, ff.Size)
	}
}

func TestFontMeasure(t *testing.T) {
	f, err := fontFromFile(testFontFile(), image.NewRGBA(image.Rect(0, 0, 16, 8)))
	if err != nil {
		t.Fatalf("fontFromFile: %v", err)
	}
	w, h := f.Measure("a b\nbb")
	// Line 1: 5 + 3 + 6 = 14, line 2: 12. Unknown characters add nothing.
	if w != 14 {
		t.Fatalf("width: got %v, want 14", w)
	}
	if h != 20 {
		t.Fatalf("height: got %v, want 20", h)
	}
}

func TestLoadBitmapFontFromDisk(t *testing.T) {
	dir := t.TempDir()

	atlas := image.NewRGBA(image.Rect(0, 0, 16, 8))
	imgFile, err := os.Create(filepath.Join(dir, "tiny.png"))
	if err != nil {
		t.Fatalf("create atlas: %v", err)
	}
	if err := png.Encode(imgFile, atlas); err != nil {
		t.Fatalf("encode atlas: %v", err)
	}
	imgFile.Close()

	desc := `{
		"name": "tiny",
		"size": 8,
		"lineHeight": 10,
		"baseline": 7,
		"texture": "tiny.png",
		"glyphs": {
			"a": {"x": 0, "y": 0, "w": 4, "h": 6, "advance": 5}
		}
	}`
	path := filepath.Join(dir, "tiny.json")
	if err := os.WriteFile(path, []byte(desc), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}

	f, err := LoadBitmapFont(path)
	if err != nil {
		t.Fatalf("LoadBitmapFont: %v", err)
	}
	if f.Name != "tiny" || f.LineHeight != 10 {
		t.Fatalf("loaded font: got name=%q lineHeight=%v", f.Name, f.LineHeight)
	}
	if w, h := f.SheetSize(); w != 16 || h != 8 {
		t.Fatalf("sheet size: got %vx%v, want 16x8", w, h)
	}

	// Loading the same path again returns the cached instance.
	again, err := LoadBitmapFont(path)
	if err != nil {
		t.Fatalf("second LoadBitmapFont: %v", err)
	}
	if again != f {
		t.Fatalf("path cache returned a new font instance")
	}
}

func TestLoadBitmapFontMissingTextureReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte(`{"name":"broken","glyphs":{"a":{"advance":1}}}`), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	if _, err := LoadBitmapFont(path); err == nil {
		t.Fatalf("descriptor without texture accepted")
	}
}
