package atlas

import (
	gomath "math"

	"github.com/Faultbox/regionatlas/internal/config"
	"github.com/Faultbox/regionatlas/internal/engine/camera"
	"github.com/Faultbox/regionatlas/internal/engine/raster"
)

// NewView builds both cameras from the configured initial view.
func NewView(cfg config.CameraConfig) raster.View {
	g := camera.NewGlobeCamera()
	if cfg.Distance > 0 {
		g.Distance = min(max(cfg.Distance, g.MinDistance), g.MaxDistance)
	}
	g.Pitch = min(max(radians(cfg.Pitch), -g.MaxPitch), g.MaxPitch)
	g.Yaw = radians(cfg.Yaw)
	if cfg.FOV > 0 {
		g.FOV = radians(cfg.FOV)
	}
	g.AutoSpin = radians(cfg.AutoSpin)

	m := camera.NewMapCamera()
	if cfg.Zoom > 0 {
		m.Zoom = min(max(cfg.Zoom, m.MinZoom), m.MaxZoom)
	}
	return raster.View{Map: m, Globe: g}
}

func radians(deg float32) float32 {
	return float32(float64(deg) * gomath.Pi / 180)
}
