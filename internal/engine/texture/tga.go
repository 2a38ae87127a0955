package texture

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
)

// ErrTGA is wrapped by every TGA decoding failure.
var ErrTGA = errors.New("invalid TGA image")

// TGA image types.
const (
	TGATypeUncompressed = 2  // true-color
	TGATypeRLE          = 10 // run-length encoded true-color
)

const tgaHeaderSize = 18

// DecodeTGA decodes an uncompressed or RLE true-color TGA with 24 or 32 bits
// per pixel. Bottom-up files are flipped so row 0 is the top of the image.
func DecodeTGA(data []byte) (*image.NRGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("%w: %d byte header", ErrTGA, len(data))
	}
	idLen := int(data[0])
	if data[1] != 0 {
		return nil, fmt.Errorf("%w: color-mapped files are not supported", ErrTGA)
	}
	kind := data[2]
	if kind != TGATypeUncompressed && kind != TGATypeRLE {
		return nil, fmt.Errorf("%w: image type %d", ErrTGA, kind)
	}
	w := int(data[12]) | int(data[13])<<8
	h := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrTGA, bpp)
	}
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: empty %dx%d image", ErrTGA, w, h)
	}
	topDown := data[17]&0x20 != 0

	body := data[min(tgaHeaderSize+idLen, len(data)):]
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	step := bpp / 8

	// put stores the n-th pixel in file order from a BGR(A) texel.
	put := func(n int, px []byte) {
		x, y := n%w, n/w
		if !topDown {
			y = h - 1 - y
		}
		i := img.PixOffset(x, y)
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = px[2], px[1], px[0], 255
		if step == 4 {
			img.Pix[i+3] = px[3]
		}
	}

	total := w * h
	if kind == TGATypeUncompressed {
		if len(body) < total*step {
			return nil, fmt.Errorf("%w: pixel data truncated", ErrTGA)
		}
		for n := 0; n < total; n++ {
			put(n, body[n*step:])
		}
		return img, nil
	}

	n, off := 0, 0
	for n < total {
		if off >= len(body) {
			return nil, fmt.Errorf("%w: run data ends at pixel %d of %d", ErrTGA, n, total)
		}
		packet := body[off]
		off++
		count := min(int(packet&0x7F)+1, total-n)

		if packet&0x80 != 0 {
			if off+step > len(body) {
				return nil, fmt.Errorf("%w: truncated run", ErrTGA)
			}
			px := body[off : off+step]
			off += step
			for range count {
				put(n, px)
				n++
			}
			continue
		}
		if off+count*step > len(body) {
			return nil, fmt.Errorf("%w: truncated raw packet", ErrTGA)
		}
		for range count {
			put(n, body[off:])
			off += step
			n++
		}
	}
	return img, nil
}

// DecodeFile decodes an image from disk. TGA has no magic number, so it is
// chosen by extension; every other format goes through image.Decode and the
// registered decoders.
func DecodeFile(path string) (image.Image, string, error) {
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", err
		}
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, "", err
		}
		return img, "tga", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return image.Decode(bufio.NewReader(f))
}
