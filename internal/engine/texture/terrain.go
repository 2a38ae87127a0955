// Package texture decodes map images and holds the terrain albedo, sampled
// the way the map shader does: bilinear, wrapping horizontally, clamped
// vertically.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	gomath "math"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// ErrEmpty is returned for zero-sized images.
var ErrEmpty = errors.New("empty terrain image")

// Terrain is an RGBA albedo texture.
type Terrain struct {
	img *image.RGBA
}

// Load decodes a PNG, JPEG, BMP, TIFF or TGA terrain image.
func Load(path string) (*Terrain, error) {
	src, format, err := DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("decode terrain %s: %w", path, err)
	}
	t, err := FromImage(src)
	if err != nil {
		return nil, fmt.Errorf("terrain %s (%s): %w", path, format, err)
	}
	return t, nil
}

// FromImage converts any image to a terrain texture.
func FromImage(src image.Image) (*Terrain, error) {
	b := src.Bounds()
	if b.Empty() {
		return nil, ErrEmpty
	}
	if rgba, ok := src.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return &Terrain{img: rgba}, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Terrain{img: dst}, nil
}

// Image returns the backing image.
func (t *Terrain) Image() *image.RGBA { return t.img }

// Size returns the texture size in pixels.
func (t *Terrain) Size() (w, h int) {
	return t.img.Rect.Dx(), t.img.Rect.Dy()
}

// Fit returns a copy scaled down to fit within maxW×maxH, preserving aspect.
// Textures that already fit are returned unchanged.
func (t *Terrain) Fit(maxW, maxH int) *Terrain {
	w, h := t.Size()
	if w <= maxW && h <= maxH {
		return t
	}
	k := gomath.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(float64(w)*k))
	nh := max(1, int(float64(h)*k))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), t.img, t.img.Bounds(), xdraw.Src, nil)
	return &Terrain{img: dst}
}

// texel returns channel values in [0, 1] with x wrapped and y clamped.
func (t *Terrain) texel(x, y int) [4]float32 {
	w, h := t.Size()
	x %= w
	if x < 0 {
		x += w
	}
	y = min(max(y, 0), h-1)
	i := t.img.PixOffset(x, y)
	p := t.img.Pix[i : i+4 : i+4]
	return [4]float32{
		float32(p[0]) / 255,
		float32(p[1]) / 255,
		float32(p[2]) / 255,
		float32(p[3]) / 255,
	}
}

// Sample returns the bilinear color at uv, with (0, 0) the top-left corner
// and texel centres at half-integer coordinates.
func (t *Terrain) Sample(u, v float64) [4]float32 {
	w, h := t.Size()
	fx := u*float64(w) - 0.5
	fy := v*float64(h) - 0.5
	x0 := gomath.Floor(fx)
	y0 := gomath.Floor(fy)
	ax := float32(fx - x0)
	ay := float32(fy - y0)

	ix, iy := int(x0), int(y0)
	c00 := t.texel(ix, iy)
	c10 := t.texel(ix+1, iy)
	c01 := t.texel(ix, iy+1)
	c11 := t.texel(ix+1, iy+1)

	var out [4]float32
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*ax
		bot := c01[i] + (c11[i]-c01[i])*ax
		out[i] = top + (bot-top)*ay
	}
	return out
}
