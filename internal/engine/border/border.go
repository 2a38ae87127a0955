// Package border classifies map pixels as region borders and selection
// outlines using only the pixel's own ID and two neighbour samples.
//
// The detector is a forward difference: a pixel is a border pixel when its
// right or upper neighbour belongs to a different region. Borders therefore
// land on the trailing inside edge of a region rather than centred on the
// true boundary, one pixel asymmetric.
package border

import (
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// Sampler reads region IDs from the static region-ID image.
type Sampler interface {
	At(x, y int) regionid.ID
	Size() (w, h int)
}

// Lookup reads alpha tiers from the lookup table.
type Lookup interface {
	Alpha(id regionid.ID) uint8
}

// Alpha tiers as stored in the lookup table.
const (
	alphaNone     uint8 = 0
	alphaSelected uint8 = 255
)

// Result is the classification of one pixel.
type Result struct {
	ID              regionid.ID
	Alpha           uint8
	Selected        bool
	Border          bool
	SelectionBorder bool

	// Skipped is true when the pixel cannot contribute to the overlay and
	// the neighbour fetches were not made.
	Skipped bool
}

// Evaluator classifies pixels of one region-ID image against one table.
type Evaluator struct {
	IDs   Sampler
	LUT   Lookup
	MaxID regionid.ID
}

// New returns an evaluator. IDs above maxID are read as Void.
func New(ids Sampler, table Lookup, maxID regionid.ID) Evaluator {
	return Evaluator{IDs: ids, LUT: table, MaxID: maxID}
}

// sample reads and sanitizes one ID.
func (e Evaluator) sample(x, y int) regionid.ID {
	id := e.IDs.At(x, y)
	if id > e.MaxID {
		return regionid.Void
	}
	return id
}

// Evaluate classifies pixel (x, y). Image rows run top to bottom, so the
// upper neighbour is row y-1.
func (e Evaluator) Evaluate(x, y int) Result {
	here := e.sample(x, y)
	r := Result{ID: here}
	if here == regionid.Void {
		r.Skipped = true
		return r
	}

	r.Alpha = e.LUT.Alpha(here)
	r.Selected = r.Alpha == alphaSelected
	if r.Alpha == alphaNone {
		r.Skipped = true
		return r
	}

	right := e.sample(x+1, y)
	up := e.sample(x, y-1)

	diffRight := here != right
	diffUp := here != up
	r.Border = diffRight || diffUp

	if r.Selected {
		r.SelectionBorder = (diffRight && !e.selected(right)) ||
			(diffUp && !e.selected(up))
	}
	return r
}

func (e Evaluator) selected(id regionid.ID) bool {
	return id != regionid.Void && e.LUT.Alpha(id) == alphaSelected
}

// Mask evaluates every pixel of the image. It is meant for tests and tools;
// renderers call Evaluate per pixel.
func (e Evaluator) Mask() []Result {
	w, h := e.IDs.Size()
	out := make([]Result, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = e.Evaluate(x, y)
		}
	}
	return out
}
