package mapmode

import (
	"image/color"
	gomath "math"
	"slices"

	"github.com/Faultbox/regionatlas/internal/engine/lut"
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// MissingValueColor paints regions whose value is NaN.
var MissingValueColor = color.RGBA{R: 40, G: 40, B: 40, A: 255}

// Gradient colors each region on a heatmap by State.Values.
type Gradient struct {
	Label string

	// Percentile ranks distinct values instead of scaling linearly, so a few
	// outliers do not wash out the rest of the map.
	Percentile bool

	// Steps > 1 quantizes the ramp into that many bands.
	Steps int
}

func (g Gradient) Name() string {
	if g.Label == "" {
		return "Gradient"
	}
	return g.Label
}

func (g Gradient) Attributes(s State) map[regionid.ID]lut.Attribute {
	out := make(map[regionid.ID]lut.Attribute, len(s.Values))
	norm := g.normalizer(s.Values)
	if norm == nil {
		return out
	}
	for id, v := range s.Values {
		if gomath.IsNaN(v) {
			out[id] = lut.Attribute{Color: MissingValueColor, HasData: true}
			continue
		}
		t := norm(v)
		if g.Steps > 1 {
			t = gomath.Floor(t*float64(g.Steps)) / float64(g.Steps)
		}
		out[id] = lut.Attribute{Color: Heatmap(t), HasData: true}
	}
	return out
}

// normalizer maps values to [0, 1]. It returns nil when no value is set.
func (g Gradient) normalizer(values map[regionid.ID]float64) func(float64) float64 {
	var valid []float64
	for _, v := range values {
		if !gomath.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	slices.Sort(valid)

	if g.Percentile {
		distinct := slices.Compact(valid)
		if len(distinct) == 1 {
			return func(float64) float64 { return 0.5 }
		}
		last := float64(len(distinct) - 1)
		return func(v float64) float64 {
			i, _ := slices.BinarySearch(distinct, v)
			return float64(i) / last
		}
	}

	lo, hi := valid[0], valid[len(valid)-1]
	if hi == lo {
		hi = lo + 1
	}
	return func(v float64) float64 { return (v - lo) / (hi - lo) }
}

var heatStops = [...]color.RGBA{
	{R: 30, G: 60, B: 200, A: 255},
	{R: 40, G: 190, B: 220, A: 255},
	{R: 60, G: 200, B: 80, A: 255},
	{R: 240, G: 220, B: 50, A: 255},
	{R: 220, G: 40, B: 30, A: 255},
}

// Heatmap returns a blue to red ramp color for t in [0, 1].
func Heatmap(t float64) color.RGBA {
	t = min(max(t, 0), 1)
	seg := t * float64(len(heatStops)-1)
	i := int(seg)
	if i >= len(heatStops)-1 {
		return heatStops[len(heatStops)-1]
	}
	f := seg - float64(i)
	a, b := heatStops[i], heatStops[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(gomath.Round(float64(x) + (float64(y)-float64(x))*f))
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}
