// Package assets loads image assets from disk and wraps them as sprite
// sheets for the renderer. Decoding can run off the main thread; GPU upload
// always happens lazily on first draw, on the thread that owns the device.
package assets

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"retrocanvas/internal/logging"
)

// ImageResult is the outcome of an asynchronous image load.
type ImageResult struct {
	Image *image.RGBA
	Err   error
}

// LoadImage decodes an image file into RGBA.
func LoadImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode image %q: %w", path, err)
	}
	return toRGBA(img), nil
}

// LoadImageAsync decodes an image file on a background goroutine. The
// returned channel delivers exactly one result and is then closed.
func LoadImageAsync(path string) <-chan ImageResult {
	ch := make(chan ImageResult, 1)
	go func() {
		defer close(ch)
		img, err := LoadImage(path)
		if err != nil {
			logging.Logger().Warn("async image load failed", "path", path, "err", err)
		}
		ch <- ImageResult{Image: img, Err: err}
	}()
	return ch
}

// ScaleNearest returns img scaled by an integer factor with nearest-neighbor
// sampling, preserving hard pixel edges.
func ScaleNearest(img *image.RGBA, factor int) *image.RGBA {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// toRGBA normalizes a decoded image to a zero-origin RGBA with tight stride.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		b := rgba.Rect
		if b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
			return rgba
		}
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return rgba
}
