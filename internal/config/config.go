// Package config handles map renderer configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	gomath "math"
	"time"

	"github.com/Faultbox/regionatlas/internal/engine/composite"
	"github.com/Faultbox/regionatlas/internal/engine/lut"
	"github.com/Faultbox/regionatlas/pkg/math"
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all renderer settings.
type Config struct {
	Map     MapConfig     `yaml:"map"`
	Render  RenderConfig  `yaml:"render"`
	Window  WindowConfig  `yaml:"window"`
	Camera  CameraConfig  `yaml:"camera"`
	Logging LoggingConfig `yaml:"logging"`
}

// MapConfig holds the static map inputs.
type MapConfig struct {
	RegionImage  string `yaml:"region_image"`  // RGB-encoded region IDs
	TerrainImage string `yaml:"terrain_image"` // optional albedo

	// MaxRegionID is the largest ID the map compiler emits. Zero scans the
	// image for it.
	MaxRegionID uint32 `yaml:"max_region_id"`

	// LUTDim is the lookup table edge length. Zero derives the smallest
	// dimension that holds MaxRegionID.
	LUTDim int `yaml:"lut_dim"`

	DenseReindex bool   `yaml:"dense_reindex"`
	CacheDir     string `yaml:"cache_dir"`

	// Synthetic ownership when no game state is attached.
	CountryCols int     `yaml:"country_cols"`
	CountryRows int     `yaml:"country_rows"`
	Unowned     float64 `yaml:"unowned"`
	Seed        uint64  `yaml:"seed"`

	// TickInterval is how often the viewer re-publishes the LUT.
	TickInterval time.Duration `yaml:"tick_interval"`
}

// RenderConfig holds compositor settings.
type RenderConfig struct {
	Mode         string `yaml:"mode"`         // terrain | political
	Presentation string `yaml:"presentation"` // flat | globe
	ColorPolicy  string `yaml:"color_policy"` // clamped | unclamped

	Opacity        float32    `yaml:"opacity"`
	BorderDarken   float32    `yaml:"border_darken"`
	SelectionTint  float32    `yaml:"selection_tint"`
	SelectionBoost float32    `yaml:"selection_boost"`
	SelectionFill  float32    `yaml:"selection_fill"`
	Ambient        float32    `yaml:"ambient"`
	LightDir       [3]float32 `yaml:"light_dir"`

	Atmosphere AtmosphereConfig `yaml:"atmosphere"`

	Workers        int `yaml:"workers"`          // CPU raster bands in flight, 0 = GOMAXPROCS
	MaxTextureSize int `yaml:"max_texture_size"` // terrain is scaled down to fit
}

// AtmosphereConfig holds globe rim light and fog settings.
type AtmosphereConfig struct {
	Enabled     bool    `yaml:"enabled"`
	RimPower    float32 `yaml:"rim_power"`
	RimStrength float32 `yaml:"rim_strength"`
	FogNear     float32 `yaml:"fog_near"`
	FogFar      float32 `yaml:"fog_far"`
	FogMax      float32 `yaml:"fog_max"`
}

// WindowConfig holds viewer window settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// CameraConfig holds the initial camera. Angles are in degrees.
type CameraConfig struct {
	Distance float32 `yaml:"distance"`
	Pitch    float32 `yaml:"pitch"`
	Yaw      float32 `yaml:"yaw"`
	FOV      float32 `yaml:"fov"`
	AutoSpin float32 `yaml:"auto_spin"` // degrees per second
	Zoom     float64 `yaml:"zoom"`      // flat map zoom
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	p := composite.DefaultParams()
	return &Config{
		Map: MapConfig{
			RegionImage:  "regions.png",
			CacheDir:     ".cache",
			CountryCols:  12,
			CountryRows:  6,
			Unowned:      0.1,
			Seed:         1,
			TickInterval: time.Second,
		},
		Render: RenderConfig{
			Mode:           p.Mode.String(),
			Presentation:   p.Presentation.String(),
			ColorPolicy:    p.ColorPolicy.String(),
			Opacity:        p.Opacity,
			BorderDarken:   p.BorderDarken,
			SelectionTint:  p.SelectionTint,
			SelectionBoost: p.SelectionBoost,
			SelectionFill:  p.SelectionFill,
			Ambient:        p.Ambient,
			LightDir:       [3]float32{p.LightDir.X, p.LightDir.Y, p.LightDir.Z},
			Atmosphere: AtmosphereConfig{
				Enabled:     p.Atmosphere.Enabled,
				RimPower:    p.Atmosphere.RimPower,
				RimStrength: p.Atmosphere.RimStrength,
				FogNear:     p.Atmosphere.FogNear,
				FogFar:      p.Atmosphere.FogFar,
				FogMax:      p.Atmosphere.FogMax,
			},
			MaxTextureSize: 16384,
		},
		Window: WindowConfig{
			Title:  "Region Atlas",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Camera: CameraConfig{
			Distance: 2.6,
			Pitch:    10,
			FOV:      60,
			Zoom:     1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Params builds compositor parameters from the render section.
func (c *Config) Params() (composite.Params, error) {
	p := composite.DefaultParams()
	var err error
	if p.Mode, err = composite.ParseMode(c.Render.Mode); err != nil {
		return p, err
	}
	if p.Presentation, err = composite.ParsePresentation(c.Render.Presentation); err != nil {
		return p, err
	}
	if p.ColorPolicy, err = composite.ParseColorPolicy(c.Render.ColorPolicy); err != nil {
		return p, err
	}

	r := c.Render
	p.Opacity = r.Opacity
	p.BorderDarken = r.BorderDarken
	p.SelectionTint = r.SelectionTint
	p.SelectionBoost = r.SelectionBoost
	p.SelectionFill = r.SelectionFill
	p.Ambient = r.Ambient
	p.LightDir = math.Vec3{X: r.LightDir[0], Y: r.LightDir[1], Z: r.LightDir[2]}

	p.Atmosphere.Enabled = r.Atmosphere.Enabled
	p.Atmosphere.RimPower = r.Atmosphere.RimPower
	p.Atmosphere.RimStrength = r.Atmosphere.RimStrength
	p.Atmosphere.FogNear = r.Atmosphere.FogNear
	p.Atmosphere.FogFar = r.Atmosphere.FogFar
	p.Atmosphere.FogMax = r.Atmosphere.FogMax

	p.CameraPos = c.Camera.Position()
	return p, p.Validate()
}

// Position returns the initial globe camera position.
func (c CameraConfig) Position() math.Vec3 {
	pitch := float64(c.Pitch) * gomath.Pi / 180
	yaw := float64(c.Yaw) * gomath.Pi / 180
	return math.Vec3{
		X: c.Distance * float32(gomath.Sin(yaw)*gomath.Cos(pitch)),
		Y: c.Distance * float32(gomath.Sin(pitch)),
		Z: c.Distance * float32(gomath.Cos(yaw)*gomath.Cos(pitch)),
	}
}

// Validate reports configuration that cannot render. A lookup table too
// small for the declared region count is fatal.
func (c *Config) Validate() error {
	if c.Map.RegionImage == "" {
		return fmt.Errorf("%w: map.region_image is required", ErrInvalid)
	}
	if c.Map.MaxRegionID > uint32(regionid.MaxID) {
		return fmt.Errorf("%w: map.max_region_id %d exceeds %d", ErrInvalid, c.Map.MaxRegionID, regionid.MaxID)
	}
	if c.Map.LUTDim < 0 {
		return fmt.Errorf("%w: map.lut_dim %d is negative", ErrInvalid, c.Map.LUTDim)
	}
	// Dense maps are checked against the re-indexed max when opened.
	if c.Map.LUTDim > 0 && c.Map.MaxRegionID > 0 && !c.Map.DenseReindex {
		if err := lut.CheckDimension(c.Map.LUTDim, regionid.ID(c.Map.MaxRegionID)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	if c.Map.Unowned < 0 || c.Map.Unowned > 1 {
		return fmt.Errorf("%w: map.unowned %v not in [0, 1]", ErrInvalid, c.Map.Unowned)
	}
	if c.Map.TickInterval < 0 {
		return fmt.Errorf("%w: map.tick_interval is negative", ErrInvalid)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Render.Workers < 0 {
		return fmt.Errorf("%w: render.workers %d is negative", ErrInvalid, c.Render.Workers)
	}
	if _, err := c.Params(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
