// Package idmap holds the static region-ID image produced by the map compiler.
//
// Every pixel stores a region ID color-encoded with package regionid. The
// image is loaded once at startup and never mutated afterwards, so it can be
// shared by any number of concurrent readers.
package idmap

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/Faultbox/regionatlas/pkg/regionid"
)

var (
	// ErrBadSize is returned when the pixel count does not match the dimensions.
	ErrBadSize = errors.New("region image size mismatch")

	// ErrAboveMax is returned when a pixel holds an ID above the declared maximum.
	ErrAboveMax = errors.New("region id above declared maximum")
)

// Image is an immutable RGB8 raster of color-encoded region IDs.
// Rows are stored top row first.
type Image struct {
	width  int
	height int
	maxID  regionid.ID
	pix    []byte // 3 bytes per pixel
}

// Build encodes ids (row-major, top row first) into a new Image.
// Every ID is validated against the 24-bit range and the declared maxID.
func Build(width, height int, ids []uint32, maxID regionid.ID) (*Image, error) {
	if width <= 0 || height <= 0 || len(ids) != width*height {
		return nil, fmt.Errorf("%w: %dx%d with %d ids", ErrBadSize, width, height, len(ids))
	}
	if err := regionid.Check(uint32(maxID)); err != nil {
		return nil, fmt.Errorf("declared max: %w", err)
	}

	img := &Image{
		width:  width,
		height: height,
		maxID:  maxID,
		pix:    make([]byte, width*height*3),
	}
	for i, v := range ids {
		if err := regionid.Check(v); err != nil {
			return nil, fmt.Errorf("pixel (%d,%d): %w", i%width, i/width, err)
		}
		if regionid.ID(v) > maxID {
			return nil, fmt.Errorf("%w: pixel (%d,%d) id %d > %d", ErrAboveMax, i%width, i/width, v, maxID)
		}
		img.pix[i*3], img.pix[i*3+1], img.pix[i*3+2] = regionid.Encode(regionid.ID(v))
	}
	return img, nil
}

// FromImage reads the RGB channels of an already color-encoded raster.
// Alpha is ignored. IDs above maxID are kept as-is; the border evaluator,
// Reindex and the LUT builder treat them as Void.
func FromImage(src image.Image, maxID regionid.ID) (*Image, error) {
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrBadSize)
	}
	if err := regionid.Check(uint32(maxID)); err != nil {
		return nil, fmt.Errorf("declared max: %w", err)
	}

	w, h := b.Dx(), b.Dy()
	img := &Image{
		width:  w,
		height: h,
		maxID:  maxID,
		pix:    make([]byte, w*h*3),
	}

	// Fast paths for the decoders the map compiler emits.
	switch s := src.(type) {
	case *image.NRGBA:
		copyRGB(img.pix, s.Pix, s.Stride, w, h)
		return img, nil
	case *image.RGBA:
		copyRGB(img.pix, s.Pix, s.Stride, w, h)
		return img, nil
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := (y*w + x) * 3
			img.pix[i] = uint8(r >> 8)
			img.pix[i+1] = uint8(g >> 8)
			img.pix[i+2] = uint8(bl >> 8)
		}
	}
	return img, nil
}

// copyRGB drops the alpha byte from a 4-channel buffer.
// Region maps are opaque, so premultiplied and straight alpha agree.
func copyRGB(dst, src []byte, stride, w, h int) {
	for y := 0; y < h; y++ {
		row := src[y*stride:]
		for x := 0; x < w; x++ {
			d := (y*w + x) * 3
			copy(dst[d:d+3], row[x*4:x*4+3])
		}
	}
}

// Width returns the image width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the image height in pixels.
func (m *Image) Height() int { return m.height }

// Size returns width and height.
func (m *Image) Size() (w, h int) { return m.width, m.height }

// MaxID returns the maximum region ID declared by the map compiler.
func (m *Image) MaxID() regionid.ID { return m.maxID }

// Pix returns the raw RGB8 bytes for texture upload. Callers must not modify it.
func (m *Image) Pix() []byte { return m.pix }

// At returns the region ID at pixel (x, y).
// x wraps around the antimeridian; y clamps at the poles.
func (m *Image) At(x, y int) regionid.ID {
	x %= m.width
	if x < 0 {
		x += m.width
	}
	if y < 0 {
		y = 0
	} else if y >= m.height {
		y = m.height - 1
	}
	i := (y*m.width + x) * 3
	return regionid.Decode(m.pix[i], m.pix[i+1], m.pix[i+2])
}

// PixelAt maps normalized coordinates to a pixel, nearest-neighbour.
// v = 0 is the top row.
func (m *Image) PixelAt(u, v float32) (x, y int) {
	x = int(math.Floor(float64(u) * float64(m.width)))
	y = int(math.Floor(float64(v) * float64(m.height)))
	return x, y
}

// SampleUV returns the region ID at normalized coordinates.
func (m *Image) SampleUV(u, v float32) regionid.ID {
	return m.At(m.PixelAt(u, v))
}

// WithMaxID returns a view of the same pixels with a different declared
// maximum. The pixel buffer is shared.
func (m *Image) WithMaxID(maxID regionid.ID) (*Image, error) {
	if err := regionid.Check(uint32(maxID)); err != nil {
		return nil, fmt.Errorf("declared max: %w", err)
	}
	c := *m
	c.maxID = maxID
	return &c, nil
}

// ScanMaxID returns the largest ID actually present in the image.
func (m *Image) ScanMaxID() regionid.ID {
	var top regionid.ID
	for i := 0; i < len(m.pix); i += 3 {
		if id := regionid.Decode(m.pix[i], m.pix[i+1], m.pix[i+2]); id > top {
			top = id
		}
	}
	return top
}

// IDs returns the decoded IDs, row-major.
func (m *Image) IDs() []uint32 {
	out := make([]uint32, m.width*m.height)
	for i := range out {
		out[i] = uint32(regionid.Decode(m.pix[i*3], m.pix[i*3+1], m.pix[i*3+2]))
	}
	return out
}
