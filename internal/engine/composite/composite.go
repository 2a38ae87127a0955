// Package composite blends terrain, the region overlay, borders, selection
// and globe effects into one output color per pixel.
//
// The same Composite function backs the software raster and mirrors the map
// fragment shader stage for stage. Stages are switched by the mode and
// presentation capability tables rather than separate code paths.
package composite

import (
	gomath "math"

	"github.com/Faultbox/regionatlas/internal/engine/border"
	"github.com/Faultbox/regionatlas/pkg/math"
)

// presenceAlpha is the lowest LUT alpha that counts as has-data.
const presenceAlpha = 128

// Fragment is the input of one pixel.
type Fragment struct {
	Terrain    Color
	HasTerrain bool

	// Overlay is the LUT cell color. Its alpha is not used; the tier comes
	// from Border.Alpha.
	Overlay Color
	Border  border.Result

	// Surface normal and world position, used by the globe presentation.
	Normal   math.Vec3
	Position math.Vec3
}

// Trace holds the color after each stage. A stage that does not run
// carries the previous value forward.
type Trace struct {
	Base        Color
	Political   Color
	Bordered    Color
	Atmosphere  Color
	Highlighted Color
	Final       Color
}

// Lighting returns ambient + (1 - ambient) * max(dot(n, l), 0).
func Lighting(n, l math.Vec3, ambient float32) float32 {
	d := n.Normalize().Dot(l.Normalize())
	if d < 0 {
		d = 0
	}
	return ambient + (1-ambient)*d
}

// Composite returns the final color for f.
func Composite(f Fragment, p Params) Color {
	return Run(f, p).Final
}

// Run evaluates every stage and returns the intermediate colors.
func Run(f Fragment, p Params) Trace {
	if p.Mode == ModeTerrain {
		return terrainMode(f, p)
	}
	return politicalMode(f, p)
}

func (p Params) stage(c Color) Color {
	if p.ColorPolicy == Clamped {
		return c.Clamp()
	}
	return c
}

func terrainMode(f Fragment, p Params) Trace {
	caps := p.Mode.Caps()

	var t Trace
	if f.HasTerrain {
		t.Base = f.Terrain
		t.Base.A = 1
		if p.Presentation.Caps().Lighting {
			t.Base = t.Base.Scale(Lighting(f.Normal, p.LightDir, p.Ambient))
		}
	}
	t.Base = p.stage(t.Base)
	t.Political = t.Base
	t.Bordered = t.Base
	t.Atmosphere = p.stage(atmosphere(t.Base, f, p))

	t.Highlighted = t.Atmosphere
	if f.Border.Selected && caps.SelectionFill {
		t.Highlighted = p.stage(over(White, p.SelectionFill, t.Highlighted))
	}
	t.Final = t.Highlighted
	if f.Border.SelectionBorder && caps.SelectionOutline {
		t.Final = p.TerrainOutlineColor
		t.Final.A = 1
	}
	return t
}

func politicalMode(f Fragment, p Params) Trace {
	caps := p.Mode.Caps()
	lighting := p.Presentation.Caps().Lighting

	var t Trace
	t.Base = p.DefaultTerrain
	if f.HasTerrain {
		t.Base = f.Terrain
	}
	t.Base.A = 1

	light := float32(1)
	if lighting {
		light = Lighting(f.Normal, p.LightDir, p.Ambient)
		t.Base = t.Base.Scale(light)
	}
	t.Base = p.stage(t.Base)

	t.Political = t.Base
	if caps.Overlay && f.Border.Alpha >= presenceAlpha {
		overlay := f.Overlay.Scale(light)
		t.Political = p.stage(t.Base.Mix(overlay, p.Opacity))
	}

	t.Bordered = t.Political
	if caps.RegionBorders && f.Border.Border {
		t.Bordered = p.stage(t.Political.Scale(p.BorderDarken))
	}

	t.Atmosphere = p.stage(atmosphere(t.Bordered, f, p))

	t.Highlighted = t.Atmosphere
	if caps.SelectionHighlight && f.Border.Selected {
		t.Highlighted = p.stage(t.Atmosphere.Mix(White, p.SelectionTint).Scale(p.SelectionBoost))
	}

	t.Final = t.Highlighted
	if caps.SelectionOutline && f.Border.SelectionBorder {
		t.Final = p.OutlineColor
		t.Final.A = 1
	}
	return t
}

// atmosphere applies the Fresnel rim and depth fog when the presentation
// supports it.
func atmosphere(c Color, f Fragment, p Params) Color {
	a := p.Atmosphere
	if !a.Enabled || !p.Presentation.Caps().Atmosphere || c.A == 0 {
		return c
	}

	toEye := p.CameraPos.Sub(f.Position)
	v := toEye.Normalize()
	facing := f.Normal.Normalize().Dot(v)
	if facing < 0 {
		facing = 0
	}
	rim := float32(gomath.Pow(float64(1-facing), float64(a.RimPower))) * a.RimStrength
	c = c.Mix(a.RimColor, clamp01(rim))

	fog := clamp01((toEye.Length()-a.FogNear)/(a.FogFar-a.FogNear)) * a.FogMax
	return c.Mix(a.FogColor, fog)
}

// over composites src with alpha sa over dst (straight alpha).
func over(src Color, sa float32, dst Color) Color {
	outA := sa + dst.A*(1-sa)
	if outA == 0 {
		return Transparent
	}
	k := dst.A * (1 - sa)
	return Color{
		R: (src.R*sa + dst.R*k) / outA,
		G: (src.G*sa + dst.G*k) / outA,
		B: (src.B*sa + dst.B*k) / outA,
		A: outA,
	}
}
