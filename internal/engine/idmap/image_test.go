package idmap

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/regionatlas/pkg/regionid"
)

func TestBuildAndAt(t *testing.T) {
	ids := []uint32{
		1, 2, 3,
		4, 0x010203, 6,
	}
	img, err := Build(3, 2, ids, 0x010203)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := img.At(1, 1); got != 0x010203 {
		t.Errorf("At(1,1) = %d, want %d", got, 0x010203)
	}
	pix := img.Pix()
	if pix[12] != 0x01 || pix[13] != 0x02 || pix[14] != 0x03 {
		t.Errorf("pixel (1,1) bytes = %v, want [1 2 3]", pix[12:15])
	}
}

func TestBuildRejectsOutOfRange(t *testing.T) {
	_, err := Build(2, 1, []uint32{1, 1 << 24}, regionid.MaxID)
	if !errors.Is(err, regionid.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}

	_, err = Build(2, 1, []uint32{1, 9}, 8)
	if !errors.Is(err, ErrAboveMax) {
		t.Errorf("expected ErrAboveMax, got %v", err)
	}

	_, err = Build(2, 2, []uint32{1, 2, 3}, 8)
	if !errors.Is(err, ErrBadSize) {
		t.Errorf("expected ErrBadSize, got %v", err)
	}
}

func TestAtAddressing(t *testing.T) {
	img, err := Build(3, 2, []uint32{1, 2, 3, 4, 5, 6}, 6)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		x, y int
		want regionid.ID
	}{
		{3, 0, 1},  // wraps right
		{-1, 0, 3}, // wraps left
		{0, -1, 1}, // clamps top
		{2, 5, 6},  // clamps bottom
	}
	for _, tt := range tests {
		if got := img.At(tt.x, tt.y); got != tt.want {
			t.Errorf("At(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSampleUV(t *testing.T) {
	img, err := Build(4, 2, []uint32{1, 2, 3, 4, 5, 6, 7, 8}, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.SampleUV(0.6, 0.9); got != 7 {
		t.Errorf("SampleUV(0.6, 0.9) = %d, want 7", got)
	}
	if got := img.SampleUV(0, 0); got != 1 {
		t.Errorf("SampleUV(0, 0) = %d, want 1", got)
	}
}

func TestFromImageAndLoad(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.NRGBA{0, 0, 7, 255})
	src.Set(1, 0, color.NRGBA{0, 1, 0, 255})
	src.Set(0, 1, color.NRGBA{1, 0, 0, 255})
	src.Set(1, 1, color.NRGBA{0, 0, 0, 255})

	path := filepath.Join(t.TempDir(), "regions.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	img, err := Load(path, 1<<16)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []uint32{7, 256, 1 << 16, 0}
	got := img.IDs()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("id[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if img.ScanMaxID() != 1<<16 {
		t.Errorf("ScanMaxID() = %d, want %d", img.ScanMaxID(), 1<<16)
	}
}

func TestLoadTGA(t *testing.T) {
	// 2x1 bottom-up 24-bit TGA, texels stored BGR.
	hdr := make([]byte, 18)
	hdr[2], hdr[12], hdr[14], hdr[16] = 2, 2, 1, 24
	data := append(hdr, 5, 0, 0, 0, 0, 1)

	path := filepath.Join(t.TempDir(), "regions.tga")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	img, err := Load(path, 1<<16)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := img.At(0, 0); got != 5 {
		t.Errorf("At(0, 0) = %d, want 5", got)
	}
	if got := img.At(1, 0); got != 1<<16 {
		t.Errorf("At(1, 0) = %d, want %d", got, 1<<16)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load("/nonexistent/regions.png", 10); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWithMaxID(t *testing.T) {
	img, err := Build(2, 1, []uint32{3, 9}, regionid.MaxID)
	if err != nil {
		t.Fatal(err)
	}
	scanned, err := img.WithMaxID(img.ScanMaxID())
	if err != nil {
		t.Fatal(err)
	}
	if scanned.MaxID() != 9 || img.MaxID() != regionid.MaxID {
		t.Errorf("max ids = %d, %d", scanned.MaxID(), img.MaxID())
	}
	if scanned.At(1, 0) != 9 {
		t.Error("pixels must be shared")
	}
	if _, err := img.WithMaxID(regionid.MaxID + 1); !errors.Is(err, regionid.ErrOutOfRange) {
		t.Errorf("WithMaxID(out of range) = %v", err)
	}
}
