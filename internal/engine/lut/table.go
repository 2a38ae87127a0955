// Package lut builds the region lookup table sampled by the map shader.
//
// The table is a square RGBA8 texture of dim×dim cells. Cell id lives at
// (id % dim, id / dim) and holds the region's display color in RGB and its
// alpha tier in A:
//
//	0   no data, render terrain only
//	128 has data, not selected
//	255 selected
//
// Tables are rebuilt wholesale, never patched, and published through a
// Publisher so readers only ever see fully written tables.
package lut

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// Alpha tiers.
const (
	AlphaNone     uint8 = 0
	AlphaData     uint8 = 128
	AlphaSelected uint8 = 255
)

// ErrTableTooSmall is returned when dim² cannot hold every region ID.
var ErrTableTooSmall = errors.New("lookup table too small for region count")

// Dimension returns the smallest dim with dim² >= maxID+1.
func Dimension(maxID regionid.ID) int {
	n := uint64(maxID) + 1
	d := int(math.Sqrt(float64(n)))
	for uint64(d)*uint64(d) < n {
		d++
	}
	for d > 1 && uint64(d-1)*uint64(d-1) >= n {
		d--
	}
	return d
}

// CheckDimension verifies that a dim×dim table can address maxID without
// wrapping into another region's cell.
func CheckDimension(dim int, maxID regionid.ID) error {
	if dim <= 0 || uint64(dim)*uint64(dim) < uint64(maxID)+1 {
		return fmt.Errorf("%w: dim %d holds %d cells, need %d", ErrTableTooSmall, dim, dim*dim, uint64(maxID)+1)
	}
	return nil
}

// Table is one fully built lookup table.
type Table struct {
	dim        int
	pix        []byte
	generation uint64

	readers atomic.Int32
}

// NewTable allocates a table with every cell set to the no-data sentinel.
func NewTable(dim int) *Table {
	return &Table{
		dim: dim,
		pix: make([]byte, dim*dim*4),
	}
}

// Dim returns the table edge length in cells.
func (t *Table) Dim() int { return t.dim }

// Pix returns the raw RGBA8 bytes, row-major. Callers must not modify it.
func (t *Table) Pix() []byte { return t.pix }

// Generation increases by one with every published table.
func (t *Table) Generation() uint64 { return t.generation }

// Coords returns the cell coordinates for id.
func (t *Table) Coords(id regionid.ID) (x, y int) {
	return int(id) % t.dim, int(id) / t.dim
}

// Cell returns the RGBA cell for id. IDs outside the table read as the
// no-data sentinel.
func (t *Table) Cell(id regionid.ID) (r, g, b, a uint8) {
	i := int(id) * 4
	if i < 0 || i+4 > len(t.pix) {
		return 0, 0, 0, AlphaNone
	}
	return t.pix[i], t.pix[i+1], t.pix[i+2], t.pix[i+3]
}

// Alpha returns the alpha tier for id.
func (t *Table) Alpha(id regionid.ID) uint8 {
	i := int(id)*4 + 3
	if i < 0 || i >= len(t.pix) {
		return AlphaNone
	}
	return t.pix[i]
}

// HasData reports whether id has displayable attributes.
func (t *Table) HasData(id regionid.ID) bool { return t.Alpha(id) >= AlphaData }

// Selected reports whether id is selected.
func (t *Table) Selected(id regionid.ID) bool { return t.Alpha(id) == AlphaSelected }

// RowRange is an inclusive range of table rows. First > Last means empty.
type RowRange struct {
	First, Last int
}

// Empty reports whether the range covers no rows.
func (r RowRange) Empty() bool { return r.First > r.Last }

// Union returns the smallest range covering both.
func (r RowRange) Union(o RowRange) RowRange {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return RowRange{First: min(r.First, o.First), Last: max(r.Last, o.Last)}
}

// AllRows returns the range covering every row of a dim-row table.
func AllRows(dim int) RowRange { return RowRange{First: 0, Last: dim - 1} }

// NoRows is the empty range.
var NoRows = RowRange{First: 0, Last: -1}

// DirtyRows returns the rows that differ from prev. A nil or differently
// sized prev makes every row dirty.
func (t *Table) DirtyRows(prev *Table) RowRange {
	if prev == nil || prev.dim != t.dim {
		return AllRows(t.dim)
	}
	stride := t.dim * 4
	first, last := -1, -1
	for y := 0; y < t.dim; y++ {
		a := t.pix[y*stride : (y+1)*stride]
		b := prev.pix[y*stride : (y+1)*stride]
		if !bytes.Equal(a, b) {
			if first < 0 {
				first = y
			}
			last = y
		}
	}
	if first < 0 {
		return NoRows
	}
	return RowRange{First: first, Last: last}
}

// Rows returns the bytes of the given rows, for sub-image uploads.
func (t *Table) Rows(r RowRange) []byte {
	if r.Empty() {
		return nil
	}
	stride := t.dim * 4
	return t.pix[r.First*stride : (r.Last+1)*stride]
}
