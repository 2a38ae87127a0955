package lut

import (
	"image/color"
	"sort"

	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// Attribute is the per-tick display record for one region.
type Attribute struct {
	Color    color.RGBA
	HasData  bool
	Selected bool
}

// Selection is a set of selected region IDs.
type Selection map[regionid.ID]struct{}

// NewSelection returns a selection holding ids.
func NewSelection(ids ...regionid.ID) Selection {
	s := make(Selection, len(ids))
	s.Add(ids...)
	return s
}

// Add selects ids.
func (s Selection) Add(ids ...regionid.ID) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Remove deselects ids.
func (s Selection) Remove(ids ...regionid.ID) {
	for _, id := range ids {
		delete(s, id)
	}
}

// Toggle flips the selection state of id and returns the new state.
func (s Selection) Toggle(id regionid.ID) bool {
	if _, ok := s[id]; ok {
		delete(s, id)
		return false
	}
	s[id] = struct{}{}
	return true
}

// Has reports whether id is selected. A nil selection selects nothing.
func (s Selection) Has(id regionid.ID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of selected regions.
func (s Selection) Len() int { return len(s) }

// IDs returns the selected IDs in ascending order.
func (s Selection) IDs() []regionid.ID {
	out := make([]regionid.ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	c := make(Selection, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// RebuildStats summarizes one rebuild.
type RebuildStats struct {
	Written  int // cells with data or selection
	Selected int
	Skipped  int // IDs above the table's maximum, or Void
}

// Builder writes attribute mappings into lookup tables of a fixed size.
type Builder struct {
	dim    int
	maxID  regionid.ID
	noData color.RGBA
}

// DefaultNoDataColor fills selected regions that have no attribute record.
var DefaultNoDataColor = color.RGBA{R: 50, G: 50, B: 50, A: 255}

// NewBuilder returns a builder for dim×dim tables addressing IDs up to maxID.
// A table too small for maxID is a configuration error.
func NewBuilder(dim int, maxID regionid.ID) (*Builder, error) {
	if err := CheckDimension(dim, maxID); err != nil {
		return nil, err
	}
	return &Builder{dim: dim, maxID: maxID, noData: DefaultNoDataColor}, nil
}

// SetNoDataColor sets the RGB used for selected regions without attributes.
func (b *Builder) SetNoDataColor(c color.RGBA) { b.noData = c }

// Dim returns the table dimension.
func (b *Builder) Dim() int { return b.dim }

// MaxID returns the largest addressable region ID.
func (b *Builder) MaxID() regionid.ID { return b.maxID }

// Rebuild returns a freshly allocated table for attrs and sel.
func (b *Builder) Rebuild(attrs map[regionid.ID]Attribute, sel Selection) (*Table, RebuildStats) {
	t := NewTable(b.dim)
	stats := b.RebuildInto(t, attrs, sel)
	return t, stats
}

// RebuildInto overwrites every cell of dst. dst must not be visible to any
// reader while this runs. Identical inputs produce byte-identical tables.
func (b *Builder) RebuildInto(dst *Table, attrs map[regionid.ID]Attribute, sel Selection) RebuildStats {
	if dst.dim != b.dim {
		dst.dim = b.dim
		dst.pix = make([]byte, b.dim*b.dim*4)
	} else {
		clear(dst.pix)
	}

	var stats RebuildStats
	for id, a := range attrs {
		if !b.addressable(id) {
			stats.Skipped++
			continue
		}
		c, alpha := a.Color, AlphaNone
		switch {
		case a.Selected || sel.Has(id):
			alpha = AlphaSelected
			stats.Selected++
			if !a.HasData {
				c = b.noData
			}
		case a.HasData:
			alpha = AlphaData
		default:
			// Unowned: leave the sentinel.
			continue
		}
		b.put(dst, id, c, alpha)
		stats.Written++
	}

	// Selected regions with no attribute record still show as selected.
	for id := range sel {
		if _, ok := attrs[id]; ok {
			continue
		}
		if !b.addressable(id) {
			stats.Skipped++
			continue
		}
		b.put(dst, id, b.noData, AlphaSelected)
		stats.Selected++
		stats.Written++
	}
	return stats
}

func (b *Builder) addressable(id regionid.ID) bool {
	return id != regionid.Void && id <= b.maxID
}

func (b *Builder) put(t *Table, id regionid.ID, c color.RGBA, alpha uint8) {
	i := int(id) * 4
	t.pix[i] = c.R
	t.pix[i+1] = c.G
	t.pix[i+2] = c.B
	t.pix[i+3] = alpha
}
