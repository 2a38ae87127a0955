package border

import (
	"testing"

	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// grid is a row-major test image with the same addressing as the region
// map: x wraps, y clamps.
type grid struct {
	w, h    int
	ids     []regionid.ID
	fetches int
}

func (g *grid) At(x, y int) regionid.ID {
	g.fetches++
	x = ((x % g.w) + g.w) % g.w
	y = min(max(y, 0), g.h-1)
	return g.ids[y*g.w+x]
}

func (g *grid) Size() (int, int) { return g.w, g.h }

type alphas map[regionid.ID]uint8

func (a alphas) Alpha(id regionid.ID) uint8 { return a[id] }

func TestRegionBorderForwardDifference(t *testing.T) {
	g := &grid{w: 3, h: 3, ids: []regionid.ID{
		1, 1, 1,
		1, 2, 1,
		1, 1, 1,
	}}
	e := New(g, alphas{1: 128, 2: 128}, 10)

	// The 2 pixel itself differs from its right and upper neighbours. Of the
	// surrounding 1 pixels, only those whose right or upper neighbour is the
	// 2 are flagged: the one to its left and the one below it.
	want := []bool{
		false, false, false,
		true, true, false,
		false, true, false,
	}
	got := e.Mask()
	for i, r := range got {
		if r.Border != want[i] {
			t.Errorf("pixel (%d,%d): border = %v, want %v", i%3, i/3, r.Border, want[i])
		}
		if r.SelectionBorder {
			t.Errorf("pixel (%d,%d): no selection, but selection border set", i%3, i/3)
		}
	}
}

func TestSelectionGroupOutline(t *testing.T) {
	g := &grid{w: 4, h: 2, ids: []regionid.ID{
		1, 1, 2, 3,
		1, 1, 2, 3,
	}}
	// Regions 1 and 2 selected as one group, 3 unselected with data.
	e := New(g, alphas{1: 255, 2: 255, 3: 128}, 10)

	for y := 0; y < 2; y++ {
		seam := e.Evaluate(1, y) // region 1, right neighbour is region 2
		if !seam.Border {
			t.Errorf("row %d: 1|2 edge should still be a region border", y)
		}
		if seam.SelectionBorder {
			t.Errorf("row %d: 1|2 edge is internal to the selection", y)
		}

		outer := e.Evaluate(2, y) // region 2, right neighbour is region 3
		if !outer.SelectionBorder {
			t.Errorf("row %d: 2|3 edge must be a selection border", y)
		}

		unsel := e.Evaluate(3, y) // region 3 is not selected
		if unsel.SelectionBorder {
			t.Errorf("row %d: unselected pixel cannot be a selection border", y)
		}

		inner := e.Evaluate(0, y)
		if inner.Border || inner.SelectionBorder {
			t.Errorf("row %d: interior pixel flagged: %+v", y, inner)
		}
	}
}

func TestSelectionBorderAgainstVoid(t *testing.T) {
	g := &grid{w: 2, h: 1, ids: []regionid.ID{5, 0}}
	e := New(g, alphas{5: 255}, 10)

	r := e.Evaluate(0, 0)
	if !r.Selected || !r.SelectionBorder {
		t.Errorf("selected region next to void must be outlined: %+v", r)
	}
}

func TestEarlyExit(t *testing.T) {
	g := &grid{w: 3, h: 1, ids: []regionid.ID{0, 7, 8}}
	e := New(g, alphas{8: 128}, 10)

	tests := []struct {
		name string
		x    int
	}{
		{"void", 0},
		{"no data", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.fetches = 0
			r := e.Evaluate(tt.x, 0)
			if !r.Skipped {
				t.Error("expected Skipped")
			}
			if r.Border || r.SelectionBorder {
				t.Error("skipped pixels carry no borders")
			}
			if g.fetches != 1 {
				t.Errorf("fetches = %d, want 1", g.fetches)
			}
		})
	}

	g.fetches = 0
	if r := e.Evaluate(2, 0); r.Skipped {
		t.Error("pixel with data must not be skipped")
	}
	if g.fetches != 3 {
		t.Errorf("fetches = %d, want 3", g.fetches)
	}
}

func TestMalformedIDReadsAsVoid(t *testing.T) {
	g := &grid{w: 2, h: 1, ids: []regionid.ID{500, 3}}
	e := New(g, alphas{500: 255, 3: 128}, 10)

	r := e.Evaluate(0, 0)
	if r.ID != regionid.Void || !r.Skipped {
		t.Errorf("id above max should be Void, got %+v", r)
	}

	// As a neighbour, the malformed pixel counts as Void too.
	r = e.Evaluate(1, 0)
	if !r.Border {
		t.Error("region next to a malformed pixel should be a border")
	}
}
