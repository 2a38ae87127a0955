// Package camera provides the flat map camera and the globe orbit camera.
package camera

import (
	gomath "math"

	"github.com/Faultbox/regionatlas/pkg/math"
)

// GlobeCamera orbits the unit globe at the origin.
type GlobeCamera struct {
	// Spherical coordinates
	Distance float32 // Distance from the globe centre
	Pitch    float32 // Vertical angle, radians
	Yaw      float32 // Horizontal angle, radians

	// Projection
	FOV       float32 // Vertical field of view, radians
	Near, Far float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	// AutoSpin is the yaw advance per second while not dragging.
	AutoSpin float32
}

// NewGlobeCamera creates a globe camera with default settings.
func NewGlobeCamera() *GlobeCamera {
	return &GlobeCamera{
		Distance:        2.6,
		Pitch:           float32(gomath.Pi / 18),
		Yaw:             0,
		FOV:             float32(gomath.Pi / 3),
		Near:            0.1,
		Far:             100,
		MinDistance:     1.1,
		MaxDistance:     6,
		MaxPitch:        float32(89 * gomath.Pi / 180),
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *GlobeCamera) Position() math.Vec3 {
	cp := gomath.Cos(float64(c.Pitch))
	return math.Vec3{
		X: c.Distance * float32(gomath.Sin(float64(c.Yaw))*cp),
		Y: c.Distance * float32(gomath.Sin(float64(c.Pitch))),
		Z: c.Distance * float32(gomath.Cos(float64(c.Yaw))*cp),
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *GlobeCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), math.Vec3{}, math.Vec3{Y: 1})
}

// ProjectionMatrix returns the perspective projection for a viewport aspect.
func (c *GlobeCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return math.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *GlobeCamera) ViewProjection(aspect float32) math.Mat4 {
	return c.ProjectionMatrix(aspect).Mul(c.ViewMatrix())
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *GlobeCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity

	// Clamp pitch to avoid flipping over the poles
	c.Pitch = min(max(c.Pitch, -c.MaxPitch), c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *GlobeCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.ZoomSensitivity
	c.Distance = min(max(c.Distance, c.MinDistance), c.MaxDistance)
}

// FaceUV turns the camera to look straight at map point (u, v).
func (c *GlobeCamera) FaceUV(u, v float64) {
	lon := u * 2 * gomath.Pi
	lat := (0.5 - v) * gomath.Pi
	c.Yaw = float32(gomath.Atan2(gomath.Cos(lon), gomath.Sin(lon)))
	c.Pitch = min(max(float32(lat), -c.MaxPitch), c.MaxPitch)
}

// Update advances auto-spin by dt seconds.
func (c *GlobeCamera) Update(dt float32) {
	c.Yaw += c.AutoSpin * dt
}

// MapCamera pans and zooms over the flat map. Coordinates are in UV space:
// u in [0, 1) across the map width (wrapping), v in [0, 1] top to bottom.
type MapCamera struct {
	CenterU, CenterV float64

	// Zoom 1 fits the map width to the viewport width.
	Zoom    float64
	MinZoom float64
	MaxZoom float64

	ZoomSensitivity float64
}

// NewMapCamera creates a map camera showing the whole map.
func NewMapCamera() *MapCamera {
	return &MapCamera{
		CenterU:         0.5,
		CenterV:         0.5,
		Zoom:            1,
		MinZoom:         0.5,
		MaxZoom:         64,
		ZoomSensitivity: 0.1,
	}
}

// ScreenToUV maps a screen pixel (origin top-left) to map UV. mapAspect is
// the region image width over its height.
func (c *MapCamera) ScreenToUV(sx, sy float64, width, height int, mapAspect float64) (u, v float64) {
	if width <= 0 {
		return c.CenterU, c.CenterV
	}
	su, sv := c.Span(width, height, mapAspect)
	u = c.CenterU + (sx/float64(width)-0.5)*su
	v = c.CenterV + (sy/float64(height)-0.5)*sv
	return u, v
}

// Span returns the UV extent of the viewport.
func (c *MapCamera) Span(width, height int, mapAspect float64) (su, sv float64) {
	if width <= 0 {
		return 0, 0
	}
	su = 1 / c.Zoom
	sv = float64(height) * mapAspect / (c.Zoom * float64(width))
	return su, sv
}

// HandleDrag pans by a screen-space drag delta.
func (c *MapCamera) HandleDrag(deltaX, deltaY float64, width int, mapAspect float64) {
	if width <= 0 {
		return
	}
	perPixel := 1 / (c.Zoom * float64(width))
	c.CenterU -= deltaX * perPixel
	c.CenterV -= deltaY * perPixel * mapAspect

	c.CenterU -= gomath.Floor(c.CenterU)
	c.CenterV = min(max(c.CenterV, 0), 1)
}

// CenterOn moves the view centre to (u, v).
func (c *MapCamera) CenterOn(u, v float64) {
	c.CenterU = u - gomath.Floor(u)
	c.CenterV = min(max(v, 0), 1)
}

// HandleZoom scales the zoom level based on scroll wheel delta.
func (c *MapCamera) HandleZoom(delta float64) {
	c.Zoom *= 1 + delta*c.ZoomSensitivity
	c.Zoom = min(max(c.Zoom, c.MinZoom), c.MaxZoom)
}
