package mapmode

import (
	"slices"

	"github.com/Faultbox/regionatlas/internal/engine/idmap"
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// Adjacency lists, for every region, the regions it shares a pixel edge
// with. Columns wrap at the antimeridian; Void and IDs above the image's
// maximum are not regions.
type Adjacency map[regionid.ID][]regionid.ID

// Neighbors scans img once and builds its adjacency.
func Neighbors(img *idmap.Image) Adjacency {
	w, h := img.Size()
	maxID := img.MaxID()
	valid := func(id regionid.ID) bool { return id != regionid.Void && id <= maxID }

	seen := make(map[[2]regionid.ID]struct{})
	adj := make(Adjacency)
	link := func(a, b regionid.ID) {
		if a == b || !valid(a) || !valid(b) {
			return
		}
		if a > b {
			a, b = b, a
		}
		key := [2]regionid.ID{a, b}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			here := img.At(x, y)
			link(here, img.At(x+1, y))
			if y+1 < h {
				link(here, img.At(x, y+1))
			}
		}
	}
	for id := range adj {
		slices.Sort(adj[id])
	}
	return adj
}

// Clone returns an independent copy.
func (o Ownership) Clone() Ownership {
	c := make(Ownership, len(o))
	for id, tag := range o {
		c[id] = tag
	}
	return c
}

// Transfer hands region id to tag and returns the previous owner.
func (o Ownership) Transfer(id regionid.ID, tag string) (prev string) {
	prev = o[id]
	if tag == "" {
		tag = Unowned
	}
	o[id] = tag
	return prev
}

// Frontier returns the regions of tag that touch a region with a
// different, owned holder, ascending.
func (o Ownership) Frontier(adj Adjacency, tag string) []regionid.ID {
	var out []regionid.ID
	for _, id := range o.RegionsOf(tag) {
		for _, n := range adj[id] {
			if other := o.Owner(n); other != "" && other != tag {
				out = append(out, id)
				break
			}
		}
	}
	return out
}
