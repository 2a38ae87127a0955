package composite

import (
	"image/color"
	"math"
)

// Color is a linear working color. Channels may exceed 1 while compositing
// under the Unclamped policy.
type Color struct {
	R, G, B, A float32
}

// Common colors.
var (
	White       = Color{1, 1, 1, 1}
	Black       = Color{0, 0, 0, 1}
	Transparent = Color{}
)

// RGB returns an opaque color.
func RGB(r, g, b float32) Color { return Color{r, g, b, 1} }

// FromRGBA8 converts an 8-bit straight-alpha color.
func FromRGBA8(c color.RGBA) Color {
	return Color{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}

// Mix linearly interpolates RGB toward o by t, keeping c's alpha.
func (c Color) Mix(o Color, t float32) Color {
	return Color{
		c.R + (o.R-c.R)*t,
		c.G + (o.G-c.G)*t,
		c.B + (o.B-c.B)*t,
		c.A,
	}
}

// Scale multiplies RGB by k.
func (c Color) Scale(k float32) Color {
	return Color{c.R * k, c.G * k, c.B * k, c.A}
}

// Mul multiplies RGB component-wise.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B, c.A}
}

// Clamp saturates every channel to [0, 1].
func (c Color) Clamp() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(c.A)}
}

// RGBA8 stores the color as 8-bit straight alpha, saturating out-of-range values.
func (c Color) RGBA8() color.RGBA {
	return color.RGBA{R: unorm8(c.R), G: unorm8(c.G), B: unorm8(c.B), A: unorm8(c.A)}
}

// NRGBA converts to the stdlib straight-alpha color type.
func (c Color) NRGBA() color.NRGBA {
	rgba := c.RGBA8()
	return color.NRGBA{R: rgba.R, G: rgba.G, B: rgba.B, A: rgba.A}
}

// Array returns RGB as an array, for GL uniform uploads.
func (c Color) Array() [3]float32 { return [3]float32{c.R, c.G, c.B} }

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func unorm8(v float32) uint8 {
	return uint8(math.Floor(float64(clamp01(v))*255 + 0.5))
}
