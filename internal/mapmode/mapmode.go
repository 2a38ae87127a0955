// Package mapmode turns simulation state into per-region LUT attributes.
// Each map mode is a pure function from state to attributes; the LUT builder
// then writes them into a table.
package mapmode

import (
	"crypto/md5"
	"image/color"
	"slices"

	"github.com/Faultbox/regionatlas/internal/engine/lut"
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// Unowned tags carry no data and leave terrain visible.
const Unowned = "None"

// FallbackColor paints regions whose owner is not a known country.
var FallbackColor = color.RGBA{R: 50, G: 50, B: 50, A: 255}

// State is what map modes read.
type State struct {
	Owners Ownership
	// Values holds one scalar per region for gradient modes.
	Values map[regionid.ID]float64
}

// MapMode computes attributes for every region it has an opinion on.
type MapMode interface {
	Name() string
	Attributes(s State) map[regionid.ID]lut.Attribute
}

// Ownership maps regions to owner tags.
type Ownership map[regionid.ID]string

// Owner returns the owner tag of id, or "" when unowned.
func (o Ownership) Owner(id regionid.ID) string {
	tag := o[id]
	if tag == Unowned {
		return ""
	}
	return tag
}

// RegionsOf returns every region owned by tag, ascending.
func (o Ownership) RegionsOf(tag string) []regionid.ID {
	if tag == "" || tag == Unowned {
		return nil
	}
	var out []regionid.ID
	for id, t := range o {
		if t == tag {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Tags returns the distinct owner tags, sorted.
func (o Ownership) Tags() []string {
	seen := make(map[string]struct{})
	for _, t := range o {
		if t != "" && t != Unowned {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// TagColor returns the deterministic color for a country tag: the first
// three bytes of the tag's MD5 digest.
func TagColor(tag string) color.RGBA {
	sum := md5.Sum([]byte(tag))
	return color.RGBA{R: sum[0], G: sum[1], B: sum[2], A: 255}
}

// Political colors each region by its owner.
type Political struct {
	// Countries restricts valid owners. Owners outside it are painted
	// FallbackColor. Nil accepts every tag.
	Countries map[string]struct{}

	// Overrides replaces the hashed color for specific tags.
	Overrides map[string]color.RGBA
}

func (Political) Name() string { return "Political" }

func (m Political) Attributes(s State) map[regionid.ID]lut.Attribute {
	palette := make(map[string]color.RGBA)
	out := make(map[regionid.ID]lut.Attribute, len(s.Owners))
	for id, tag := range s.Owners {
		if tag == "" || tag == Unowned {
			continue
		}
		c, ok := palette[tag]
		if !ok {
			c = m.color(tag)
			palette[tag] = c
		}
		out[id] = lut.Attribute{Color: c, HasData: true}
	}
	return out
}

func (m Political) color(tag string) color.RGBA {
	if c, ok := m.Overrides[tag]; ok {
		return c
	}
	if m.Countries != nil {
		if _, ok := m.Countries[tag]; !ok {
			return FallbackColor
		}
	}
	return TagColor(tag)
}
