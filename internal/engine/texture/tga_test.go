package texture

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

// tgaHeader returns an 18-byte header for a w x h true-color image.
func tgaHeader(kind byte, w, h, bpp int, topDown bool) []byte {
	hdr := make([]byte, tgaHeaderSize)
	hdr[2] = kind
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = byte(bpp)
	if topDown {
		hdr[17] = 0x20
	}
	return hdr
}

func TestDecodeTGAUncompressedBottomUp(t *testing.T) {
	// File order is bottom row first, BGR texels.
	data := append(tgaHeader(TGATypeUncompressed, 2, 2, 24, false),
		255, 0, 0, 255, 255, 255, // bottom: blue, white
		0, 0, 255, 0, 255, 0, // top: red, green
	)
	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA() error = %v", err)
	}

	tests := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, color.NRGBA{255, 0, 0, 255}},
		{1, 0, color.NRGBA{0, 255, 0, 255}},
		{0, 1, color.NRGBA{0, 0, 255, 255}},
		{1, 1, color.NRGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		if got := img.NRGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDecodeTGARLE(t *testing.T) {
	// 3x1 top-down, 32 bpp: a run of two red pixels, then one raw half-alpha green.
	data := append(tgaHeader(TGATypeRLE, 3, 1, 32, true),
		0x81, 0, 0, 255, 255,
		0x00, 0, 255, 0, 128,
	)
	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA() error = %v", err)
	}
	want := []color.NRGBA{{255, 0, 0, 255}, {255, 0, 0, 255}, {0, 255, 0, 128}}
	for x, w := range want {
		if got := img.NRGBAAt(x, 0); got != w {
			t.Errorf("pixel %d = %v, want %v", x, got, w)
		}
	}
}

func TestDecodeTGAInvalid(t *testing.T) {
	tests := map[string][]byte{
		"short header":    {0, 0, 2},
		"color mapped":    func() []byte { h := tgaHeader(1, 1, 1, 24, false); h[1] = 1; return h }(),
		"grayscale":       tgaHeader(3, 1, 1, 8, false),
		"16 bpp":          tgaHeader(TGATypeUncompressed, 1, 1, 16, false),
		"empty":           tgaHeader(TGATypeUncompressed, 0, 1, 24, false),
		"truncated raw":   append(tgaHeader(TGATypeUncompressed, 2, 1, 24, false), 1, 2, 3),
		"truncated run":   append(tgaHeader(TGATypeRLE, 4, 1, 24, false), 0x81, 1, 2, 3),
		"truncated texel": append(tgaHeader(TGATypeRLE, 1, 1, 24, false), 0x80, 1),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeTGA(data); !errors.Is(err, ErrTGA) {
				t.Errorf("DecodeTGA() = %v, want ErrTGA", err)
			}
		})
	}
}

func TestLoadTGA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terrain.TGA")
	data := append(tgaHeader(TGATypeUncompressed, 1, 1, 24, true), 10, 20, 30)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	tex, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := tex.Image().RGBAAt(0, 0); got != (color.RGBA{30, 20, 10, 255}) {
		t.Errorf("texel = %v, want {30 20 10 255}", got)
	}
}
