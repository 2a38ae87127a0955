package debug

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontOnce  sync.Once
	fontData  *opentype.Font
	faceMu    sync.Mutex
	faceCache = make(map[float64]font.Face)
)

// face returns Go Regular at size, or the built-in bitmap face when the
// embedded font cannot be parsed.
func face(size float64) font.Face {
	fontOnce.Do(func() {
		fontData, _ = opentype.Parse(goregular.TTF)
	})
	if fontData == nil {
		return basicfont.Face7x13
	}

	faceMu.Lock()
	defer faceMu.Unlock()
	if f, ok := faceCache[size]; ok {
		return f
	}
	f, err := opentype.NewFace(fontData, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	faceCache[size] = f
	return f
}

// Caption draws lines of text on a translucent bar along the bottom of img.
func Caption(img draw.Image, lines []string, size float64) {
	if len(lines) == 0 {
		return
	}
	f := face(size)
	m := f.Metrics()
	lineH := m.Height.Ceil()
	pad := lineH / 2

	b := img.Bounds()
	barH := lineH*len(lines) + 2*pad
	bar := image.Rect(b.Min.X, b.Max.Y-barH, b.Max.X, b.Max.Y).Intersect(b)
	draw.Draw(img, bar, image.NewUniform(color.NRGBA{0, 0, 0, 160}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.NRGBA{240, 240, 240, 255}),
		Face: f,
	}
	y := bar.Min.Y + pad + m.Ascent.Ceil()
	for _, line := range lines {
		d.Dot = fixed.P(b.Min.X+pad, y)
		d.DrawString(line)
		y += lineH
	}
}
