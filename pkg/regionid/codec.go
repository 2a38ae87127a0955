// Package regionid encodes region identifiers into RGB color triples and back.
//
// A region ID is a 24-bit unsigned integer. The high byte goes to the red
// channel, the middle byte to green and the low byte to blue:
//
//	r = (id >> 16) & 0xFF
//	g = (id >> 8) & 0xFF
//	b = id & 0xFF
//
// The same layout is used for the persisted region map image and for the GPU
// texture sampled by the map shader.
package regionid

import (
	"errors"
	"fmt"
	"math"
)

// ID identifies a region. Valid IDs are in [0, 1<<24).
type ID uint32

const (
	// Void is the reserved "no region" ID (ocean, off-map, malformed pixels).
	Void ID = 0

	// MaxID is the largest ID that fits in three 8-bit channels.
	MaxID ID = 1<<24 - 1

	// Count is the number of distinct encodable IDs.
	Count = 1 << 24
)

// ErrOutOfRange is returned when a value cannot be encoded in 24 bits.
var ErrOutOfRange = errors.New("region id out of 24-bit range")

// Valid reports whether v can be encoded as a region ID.
func Valid(v uint32) bool {
	return v <= uint32(MaxID)
}

// Check returns ErrOutOfRange if v cannot be encoded.
// Callers validate at image-build time; Decode never fails.
func Check(v uint32) error {
	if !Valid(v) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, v)
	}
	return nil
}

// Encode splits id into its 8-bit channel values.
func Encode(id ID) (r, g, b uint8) {
	return uint8(id >> 16), uint8(id >> 8), uint8(id)
}

// Decode reassembles an ID from 8-bit channel values.
func Decode(r, g, b uint8) ID {
	return ID(r)<<16 | ID(g)<<8 | ID(b)
}

// EncodeNormalized returns the channels in [0, 1], as stored in a texture.
func EncodeNormalized(id ID) [3]float32 {
	r, g, b := Encode(id)
	return [3]float32{float32(r) / 255, float32(g) / 255, float32(b) / 255}
}

// DecodeNormalized decodes normalized channel samples.
// Each channel is scaled by 255 and rounded to the nearest integer so that
// small sampling errors do not shift an ID across a channel boundary.
func DecodeNormalized(r, g, b float32) ID {
	return Decode(unit8(r), unit8(g), unit8(b))
}

// unit8 converts a normalized channel to 8 bits with a +0.5 rounding bias.
func unit8(c float32) uint8 {
	v := math.Floor(float64(c)*255 + 0.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Hex formats the ID as its #rrggbb color.
func (id ID) Hex() string {
	r, g, b := Encode(id)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
