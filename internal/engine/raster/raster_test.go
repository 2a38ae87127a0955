package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/Faultbox/regionatlas/internal/engine/camera"
	"github.com/Faultbox/regionatlas/internal/engine/composite"
	"github.com/Faultbox/regionatlas/internal/engine/idmap"
	"github.com/Faultbox/regionatlas/internal/engine/lut"
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// testMap is a 4x2 map: region 1 on the left half, region 2 on the right.
func testMap(t *testing.T) *idmap.Image {
	t.Helper()
	m, err := idmap.Build(4, 2, []uint32{
		1, 1, 2, 2,
		1, 1, 2, 2,
	}, 15)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func testTable(t *testing.T, sel lut.Selection) *lut.Table {
	t.Helper()
	b, err := lut.NewBuilder(4, 15)
	if err != nil {
		t.Fatal(err)
	}
	table, _ := b.Rebuild(map[regionid.ID]lut.Attribute{
		1: {Color: color.RGBA{255, 0, 0, 255}, HasData: true},
	}, sel)
	return table
}

func pixel(img *image.NRGBA, x, y int) color.NRGBA {
	return img.NRGBAAt(x, y)
}

func TestRenderFlat(t *testing.T) {
	r := New(testMap(t), nil)
	p := composite.DefaultParams()
	dst := image.NewNRGBA(image.Rect(0, 0, 4, 2))

	if err := r.Render(dst, testTable(t, nil), p, View{Map: camera.NewMapCamera()}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	base := p.DefaultTerrain
	red := composite.RGB(1, 0, 0)
	interior := base.Mix(red, p.Opacity).NRGBA()
	edge := base.Mix(red, p.Opacity).Scale(p.BorderDarken).NRGBA()
	noData := base.NRGBA()

	tests := []struct {
		name string
		x, y int
		want color.NRGBA
	}{
		{"interior", 0, 1, interior},
		{"edge next to region 2", 1, 0, edge},
		{"region without data", 2, 0, noData},
		{"wrapped neighbour, no data", 3, 1, noData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pixel(dst, tt.x, tt.y); got != tt.want {
				t.Errorf("pixel(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestRenderSelectionOutline(t *testing.T) {
	r := New(testMap(t), nil)
	p := composite.DefaultParams()
	dst := image.NewNRGBA(image.Rect(0, 0, 4, 2))

	if err := r.Render(dst, testTable(t, lut.NewSelection(1)), p, View{Map: camera.NewMapCamera()}); err != nil {
		t.Fatal(err)
	}
	if got, want := pixel(dst, 1, 0), p.OutlineColor.NRGBA(); got != want {
		t.Errorf("outline pixel = %v, want %v", got, want)
	}
	if got := pixel(dst, 0, 1); got == p.OutlineColor.NRGBA() {
		t.Error("interior of selection must not be outlined")
	}
}

func TestRenderBandsDeterministic(t *testing.T) {
	ids := make([]uint32, 64*40)
	for i := range ids {
		ids[i] = uint32(1 + (i%64)/8 + 8*((i/64)/10))
	}
	m, err := idmap.Build(64, 40, ids, 63)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := lut.NewBuilder(8, 63)
	attrs := map[regionid.ID]lut.Attribute{}
	for id := regionid.ID(1); id <= 32; id++ {
		attrs[id] = lut.Attribute{Color: color.RGBA{uint8(id * 7), uint8(id * 3), 90, 255}, HasData: true}
	}
	table, _ := b.Rebuild(attrs, lut.NewSelection(5, 6, 13))

	render := func(workers int) []byte {
		r := New(m, nil)
		r.Workers = workers
		dst := image.NewNRGBA(image.Rect(0, 0, 64, 40))
		if err := r.Render(dst, table, composite.DefaultParams(), View{Map: camera.NewMapCamera()}); err != nil {
			t.Fatal(err)
		}
		return dst.Pix
	}
	if !bytes.Equal(render(1), render(4)) {
		t.Error("output depends on worker count")
	}
}

func TestRenderGlobe(t *testing.T) {
	r := New(testMap(t), nil)
	p := composite.DefaultParams()
	p.Presentation = composite.Globe
	dst := image.NewNRGBA(image.Rect(0, 0, 32, 32))

	if err := r.Render(dst, testTable(t, nil), p, View{Globe: camera.NewGlobeCamera()}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got, want := pixel(dst, 0, 0), r.Background.NRGBA(); got != want {
		t.Errorf("corner = %v, want background %v", got, want)
	}
	if got := pixel(dst, 16, 16); got == r.Background.NRGBA() {
		t.Error("centre pixel should hit the globe")
	}
}

func TestRenderErrors(t *testing.T) {
	r := New(testMap(t), nil)
	dst := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	p := composite.DefaultParams()
	flat := View{Map: camera.NewMapCamera()}

	if err := r.Render(dst, nil, p, flat); !errors.Is(err, ErrNoTable) {
		t.Errorf("nil table: %v", err)
	}

	small := lut.NewTable(2)
	if err := r.Render(dst, small, p, flat); !errors.Is(err, lut.ErrTableTooSmall) {
		t.Errorf("small table: %v", err)
	}

	p.Presentation = composite.Globe
	if err := r.Render(dst, testTable(t, nil), p, flat); !errors.Is(err, ErrNoCamera) {
		t.Errorf("globe without camera: %v", err)
	}

	p = composite.DefaultParams()
	p.Opacity = 2
	if err := r.Render(dst, testTable(t, nil), p, flat); !errors.Is(err, composite.ErrInvalidParams) {
		t.Errorf("bad params: %v", err)
	}
}

func TestPick(t *testing.T) {
	r := New(testMap(t), nil)
	view := View{Map: camera.NewMapCamera(), Globe: camera.NewGlobeCamera()}

	if id, ok := r.Pick(composite.Flat, view, 0.5, 0.5, 4, 2); !ok || id != 1 {
		t.Errorf("flat pick left = %d, %v", id, ok)
	}
	if id, ok := r.Pick(composite.Flat, view, 3.5, 1.5, 4, 2); !ok || id != 2 {
		t.Errorf("flat pick right = %d, %v", id, ok)
	}
	if _, ok := r.Pick(composite.Flat, view, 0.5, -10, 4, 2); ok {
		t.Error("pick above the map should miss")
	}
	if _, ok := r.Pick(composite.Globe, view, 50, 50, 100, 100); !ok {
		t.Error("globe centre pick should hit")
	}
	if _, ok := r.Pick(composite.Globe, view, 0, 0, 100, 100); ok {
		t.Error("globe corner pick should miss")
	}
}
