package idmap

import (
	"fmt"
	"math/bits"

	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// Index maps sparse source IDs (arbitrary map-compiler colors) to dense IDs
// numbered contiguously from 1. Void stays Void in both directions, so the
// "ID 0 means no region" convention holds for dense maps too.
type Index struct {
	Dense *Image

	sourceMax   regionid.ID
	denseToReal []regionid.ID // [0] is Void
	realToDense map[regionid.ID]regionid.ID
}

// Reindex scans src and builds the dense index and the re-encoded image.
// Dense IDs follow ascending source ID order, so reindexing is deterministic.
// IDs above the declared max of src become Void.
func Reindex(src *Image) (*Index, error) {
	// One bit per possible 24-bit ID.
	seen := make([]uint64, regionid.Count/64)
	pix := src.pix
	for i := 0; i < len(pix); i += 3 {
		id := regionid.Decode(pix[i], pix[i+1], pix[i+2])
		if id > src.maxID {
			continue
		}
		seen[id>>6] |= 1 << (id & 63)
	}
	seen[0] &^= 1 // Void is not a region

	count := 0
	for _, w := range seen {
		count += bits.OnesCount64(w)
	}

	denseToReal := make([]regionid.ID, 1, count+1)
	for wi, w := range seen {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			denseToReal = append(denseToReal, regionid.ID(wi*64+b))
			w &= w - 1
		}
	}
	return newIndex(src.width, src.height, src.maxID, denseToReal, src.pix)
}

func newIndex(width, height int, sourceMax regionid.ID, denseToReal []regionid.ID, srcPix []byte) (*Index, error) {
	maxDense := regionid.ID(len(denseToReal) - 1)
	if err := regionid.Check(uint32(maxDense)); err != nil {
		return nil, fmt.Errorf("dense index: %w", err)
	}

	idx := &Index{
		sourceMax:   sourceMax,
		denseToReal: denseToReal,
		realToDense: make(map[regionid.ID]regionid.ID, len(denseToReal)),
	}
	for d, srcID := range denseToReal {
		idx.realToDense[srcID] = regionid.ID(d)
	}

	dense := &Image{
		width:  width,
		height: height,
		maxID:  maxDense,
		pix:    make([]byte, len(srcPix)),
	}
	for i := 0; i < len(srcPix); i += 3 {
		src := regionid.Decode(srcPix[i], srcPix[i+1], srcPix[i+2])
		// Unmapped (above-max) IDs look up as 0.
		dense.pix[i], dense.pix[i+1], dense.pix[i+2] = regionid.Encode(idx.realToDense[src])
	}
	idx.Dense = dense
	return idx, nil
}

// Len returns the number of regions, excluding Void.
func (x *Index) Len() int { return len(x.denseToReal) - 1 }

// ToReal returns the source ID for a dense ID.
func (x *Index) ToReal(dense regionid.ID) (regionid.ID, bool) {
	if int(dense) >= len(x.denseToReal) {
		return regionid.Void, false
	}
	return x.denseToReal[dense], true
}

// ToDense returns the dense ID for a source ID.
func (x *Index) ToDense(id regionid.ID) (regionid.ID, bool) {
	d, ok := x.realToDense[id]
	return d, ok
}

// SourceMax returns the declared max of the image the index was built from.
func (x *Index) SourceMax() regionid.ID { return x.sourceMax }
