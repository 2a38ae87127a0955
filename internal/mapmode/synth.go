package mapmode

import (
	"fmt"
	"math/rand/v2"

	"github.com/Faultbox/regionatlas/internal/engine/idmap"
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// Centroid is a region's mean pixel position in image coordinates.
type Centroid struct {
	X, Y   float64
	Pixels int
}

// Centroids scans the image once and returns every region's centroid.
// Void is skipped.
func Centroids(img *idmap.Image) map[regionid.ID]Centroid {
	type acc struct {
		sx, sy float64
		n      int
	}
	sums := make(map[regionid.ID]*acc)
	w, h := img.Size()
	maxID := img.MaxID()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			id := img.At(x, y)
			if id == regionid.Void || id > maxID {
				continue
			}
			a := sums[id]
			if a == nil {
				a = &acc{}
				sums[id] = a
			}
			a.sx += float64(x)
			a.sy += float64(y)
			a.n++
		}
	}

	out := make(map[regionid.ID]Centroid, len(sums))
	for id, a := range sums {
		out[id] = Centroid{X: a.sx / float64(a.n), Y: a.sy / float64(a.n), Pixels: a.n}
	}
	return out
}

// GroupCentroid returns the pixel-weighted centre of a set of regions.
func GroupCentroid(c map[regionid.ID]Centroid, ids []regionid.ID) (Centroid, bool) {
	var g Centroid
	for _, id := range ids {
		r, ok := c[id]
		if !ok {
			continue
		}
		g.X += r.X * float64(r.Pixels)
		g.Y += r.Y * float64(r.Pixels)
		g.Pixels += r.Pixels
	}
	if g.Pixels == 0 {
		return Centroid{}, false
	}
	g.X /= float64(g.Pixels)
	g.Y /= float64(g.Pixels)
	return g, true
}

// SynthOptions controls synthetic ownership.
type SynthOptions struct {
	Cols, Rows int     // country grid over the map
	Unowned    float64 // fraction of grid cells left unowned
	Seed       uint64
}

// DefaultSynthOptions returns a 12x6 country grid with a tenth unowned.
func DefaultSynthOptions() SynthOptions {
	return SynthOptions{Cols: 12, Rows: 6, Unowned: 0.1, Seed: 1}
}

// Synthesize assigns each region to a country by the grid cell holding its
// centroid, giving contiguous multi-region countries without real game data.
func Synthesize(img *idmap.Image, opts SynthOptions) Ownership {
	cols := max(opts.Cols, 1)
	rows := max(opts.Rows, 1)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	tags := make([]string, cols*rows)
	for i := range tags {
		if rng.Float64() < opts.Unowned {
			tags[i] = Unowned
			continue
		}
		tags[i] = countryTag(i)
	}

	w, h := img.Size()
	own := make(Ownership)
	for id, c := range Centroids(img) {
		cx := min(int(c.X*float64(cols)/float64(w)), cols-1)
		cy := min(int(c.Y*float64(rows)/float64(h)), rows-1)
		own[id] = tags[cy*cols+cx]
	}
	return own
}

// SynthValues returns a smooth per-region scalar field for gradient modes.
func SynthValues(img *idmap.Image, seed uint64) map[regionid.ID]float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	w, h := img.Size()
	out := make(map[regionid.ID]float64)
	for id, c := range Centroids(img) {
		lat := 1 - 2*c.Y/float64(h)
		out[id] = 1000*(1-lat*lat) + 200*c.X/float64(w) + 50*rng.Float64()
	}
	return out
}

// countryTag turns an index into a three-letter tag: AAA, AAB, ...
func countryTag(i int) string {
	return fmt.Sprintf("%c%c%c", 'A'+rune(i/676%26), 'A'+rune(i/26%26), 'A'+rune(i%26))
}
