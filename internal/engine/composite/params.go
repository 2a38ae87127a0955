package composite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/regionatlas/pkg/math"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid compositor parameters")

// Mode selects which overlay the compositor paints.
type Mode int

const (
	// ModeTerrain shows terrain with only the selection layered on top.
	ModeTerrain Mode = iota
	// ModePolitical paints the LUT overlay color over terrain.
	ModePolitical
)

func (m Mode) String() string {
	switch m {
	case ModeTerrain:
		return "terrain"
	case ModePolitical:
		return "political"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts a mode name or its numeric value.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "terrain", "0":
		return ModeTerrain, nil
	case "political", "1":
		return ModePolitical, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidParams, s)
}

// ModeCaps lists the stages a mode runs.
type ModeCaps struct {
	Overlay            bool // blend the LUT color over terrain
	RegionBorders      bool // darken region border pixels
	SelectionHighlight bool // tint and boost selected interiors
	SelectionFill      bool // translucent white fill over selected interiors
	SelectionOutline   bool // solid outline on selection border pixels
}

var modeCaps = [...]ModeCaps{
	ModeTerrain: {
		SelectionFill:    true,
		SelectionOutline: true,
	},
	ModePolitical: {
		Overlay:            true,
		RegionBorders:      true,
		SelectionHighlight: true,
		SelectionOutline:   true,
	},
}

// Caps returns the capability row for m. Unknown modes have no stages.
func (m Mode) Caps() ModeCaps {
	if m < 0 || int(m) >= len(modeCaps) {
		return ModeCaps{}
	}
	return modeCaps[m]
}

// Presentation selects flat map or globe rendering.
type Presentation int

const (
	Flat Presentation = iota
	Globe
)

func (p Presentation) String() string {
	switch p {
	case Flat:
		return "flat"
	case Globe:
		return "globe"
	}
	return fmt.Sprintf("Presentation(%d)", int(p))
}

// ParsePresentation accepts "flat" or "globe".
func ParsePresentation(s string) (Presentation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat", "2d":
		return Flat, nil
	case "globe", "3d":
		return Globe, nil
	}
	return 0, fmt.Errorf("%w: unknown presentation %q", ErrInvalidParams, s)
}

// PresCaps lists the surface effects of a presentation.
type PresCaps struct {
	Lighting   bool
	Atmosphere bool
}

var presCaps = [...]PresCaps{
	Flat:  {},
	Globe: {Lighting: true, Atmosphere: true},
}

// Caps returns the capability row for p.
func (p Presentation) Caps() PresCaps {
	if p < 0 || int(p) >= len(presCaps) {
		return PresCaps{}
	}
	return presCaps[p]
}

// ColorPolicy controls saturation of intermediate colors.
type ColorPolicy int

const (
	// Unclamped lets channels exceed 1 until the final 8-bit store, which
	// gives selected regions a bright glow.
	Unclamped ColorPolicy = iota
	// Clamped saturates after every stage.
	Clamped
)

func (c ColorPolicy) String() string {
	if c == Clamped {
		return "clamped"
	}
	return "unclamped"
}

// ParseColorPolicy accepts "clamped" or "unclamped".
func ParseColorPolicy(s string) (ColorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unclamped", "":
		return Unclamped, nil
	case "clamped":
		return Clamped, nil
	}
	return 0, fmt.Errorf("%w: unknown color policy %q", ErrInvalidParams, s)
}

// Atmosphere configures the globe rim light and depth fog.
type Atmosphere struct {
	Enabled     bool
	RimColor    Color
	RimPower    float32
	RimStrength float32
	FogColor    Color
	FogNear     float32
	FogFar      float32
	FogMax      float32
}

// Params is everything a composite call needs. It is passed by value per
// call so several views can render the same map with different settings.
type Params struct {
	Mode         Mode
	Presentation Presentation

	Opacity        float32 // overlay weight, 0..1
	BorderDarken   float32 // multiplier applied on region border pixels
	SelectionTint  float32 // mix toward white for selected interiors
	SelectionBoost float32 // brightness multiplier for selected interiors
	SelectionFill  float32 // white fill alpha in terrain mode

	OutlineColor        Color // selection outline, political mode
	TerrainOutlineColor Color // selection outline, terrain mode

	Ambient   float32
	LightDir  math.Vec3
	CameraPos math.Vec3

	Atmosphere  Atmosphere
	ColorPolicy ColorPolicy

	// DefaultTerrain stands in when no terrain sample is available.
	DefaultTerrain Color
}

// DefaultParams returns the stock look.
func DefaultParams() Params {
	return Params{
		Mode:                ModePolitical,
		Presentation:        Flat,
		Opacity:             0.7,
		BorderDarken:        0.6,
		SelectionTint:       0.35,
		SelectionBoost:      1.25,
		SelectionFill:       0.25,
		OutlineColor:        RGB(1, 0.85, 0),
		TerrainOutlineColor: White,
		Ambient:             0.35,
		LightDir:            math.Vec3{X: 0.5, Y: 0.6, Z: 0.8},
		CameraPos:           math.Vec3{Z: 3},
		Atmosphere: Atmosphere{
			Enabled:     true,
			RimColor:    RGB(0.45, 0.65, 1),
			RimPower:    3,
			RimStrength: 0.35,
			FogColor:    RGB(0.05, 0.08, 0.15),
			FogNear:     2,
			FogFar:      4,
			FogMax:      0.5,
		},
		ColorPolicy:    Unclamped,
		DefaultTerrain: RGB(0.1, 0.2, 0.35),
	}
}

// Validate reports the first out-of-range field.
func (p Params) Validate() error {
	if p.Mode.Caps() == (ModeCaps{}) {
		return fmt.Errorf("%w: mode %v", ErrInvalidParams, p.Mode)
	}
	if p.Presentation != Flat && p.Presentation != Globe {
		return fmt.Errorf("%w: presentation %v", ErrInvalidParams, p.Presentation)
	}
	if p.ColorPolicy != Clamped && p.ColorPolicy != Unclamped {
		return fmt.Errorf("%w: color policy %d", ErrInvalidParams, p.ColorPolicy)
	}

	unit := []struct {
		name string
		v    float32
	}{
		{"opacity", p.Opacity},
		{"border darken", p.BorderDarken},
		{"selection tint", p.SelectionTint},
		{"selection fill", p.SelectionFill},
		{"ambient", p.Ambient},
	}
	for _, f := range unit {
		if f.v < 0 || f.v > 1 || f.v != f.v {
			return fmt.Errorf("%w: %s %v not in [0, 1]", ErrInvalidParams, f.name, f.v)
		}
	}
	if p.SelectionBoost <= 0 {
		return fmt.Errorf("%w: selection boost %v must be positive", ErrInvalidParams, p.SelectionBoost)
	}
	if p.LightDir.Length() == 0 {
		return fmt.Errorf("%w: light direction is zero", ErrInvalidParams)
	}

	if a := p.Atmosphere; a.Enabled {
		if a.RimPower <= 0 {
			return fmt.Errorf("%w: rim power %v must be positive", ErrInvalidParams, a.RimPower)
		}
		if a.FogFar <= a.FogNear {
			return fmt.Errorf("%w: fog far %v must exceed fog near %v", ErrInvalidParams, a.FogFar, a.FogNear)
		}
		if a.FogMax < 0 || a.FogMax > 1 || a.RimStrength < 0 {
			return fmt.Errorf("%w: atmosphere strength out of range", ErrInvalidParams)
		}
	}
	return nil
}
