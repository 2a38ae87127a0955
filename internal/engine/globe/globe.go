// Package globe holds the sphere mesh and the ray math used to render and
// pick on the globe presentation.
//
// UV mapping is equirectangular: u runs east from the +X axis toward +Z,
// v runs from the north pole (0) to the south pole (1), so UV (0, 0) is the
// top-left corner of the region image.
package globe

import (
	gomath "math"

	"github.com/Faultbox/regionatlas/pkg/math"
)

// VertexStride is the number of floats per vertex: pos.xyz, uv.xy, nrm.xyz.
const VertexStride = 8

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

// BuildSphere tessellates a UV sphere with segU longitude slices and segV
// latitude stacks. The seam column is duplicated so u reaches exactly 1.
func BuildSphere(radius float32, segU, segV int) Mesh {
	segU = max(segU, 3)
	segV = max(segV, 2)

	w := segU + 1
	verts := make([]float32, 0, w*(segV+1)*VertexStride)
	for j := 0; j <= segV; j++ {
		v := float64(j) / float64(segV)
		lat := (0.5 - v) * gomath.Pi
		for i := 0; i <= segU; i++ {
			u := float64(i) / float64(segU)
			lon := u * 2 * gomath.Pi

			n := math.Vec3{
				X: float32(gomath.Cos(lat) * gomath.Cos(lon)),
				Y: float32(gomath.Sin(lat)),
				Z: float32(gomath.Cos(lat) * gomath.Sin(lon)),
			}
			p := n.Scale(radius)
			verts = append(verts, p.X, p.Y, p.Z, float32(u), float32(v), n.X, n.Y, n.Z)
		}
	}

	idx := make([]uint32, 0, segU*segV*6)
	for j := 0; j < segV; j++ {
		for i := 0; i < segU; i++ {
			a := uint32(j*w + i)
			b := a + 1
			c := a + uint32(w)
			d := c + 1
			idx = append(idx, a, c, b, b, c, d)
		}
	}
	return Mesh{Vertices: verts, Indices: idx}
}

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin, Dir math.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// ScreenRay unprojects a screen pixel (origin top-left) through the inverse
// view-projection matrix. ok is false when the matrix is degenerate.
func ScreenRay(sx, sy float64, width, height int, invViewProj math.Mat4) (Ray, bool) {
	if width <= 0 || height <= 0 {
		return Ray{}, false
	}
	x := float32(2*sx/float64(width) - 1)
	y := float32(1 - 2*sy/float64(height))

	near, ok1 := invViewProj.TransformPoint(math.Vec3{X: x, Y: y, Z: -1})
	far, ok2 := invViewProj.TransformPoint(math.Vec3{X: x, Y: y, Z: 1})
	if !ok1 || !ok2 {
		return Ray{}, false
	}
	d := far.Sub(near)
	if d.Length() == 0 {
		return Ray{}, false
	}
	return Ray{Origin: near, Dir: d.Normalize()}, true
}

// RaySphere returns the nearest positive hit distance against a sphere of
// the given radius centred at the origin.
func RaySphere(r Ray, radius float32) (float32, bool) {
	o := r.Origin
	d := r.Dir
	a := float64(d.Dot(d))
	b := 2 * float64(o.Dot(d))
	c := float64(o.Dot(o) - radius*radius)

	disc := b*b - 4*a*c
	if disc < 0 || a == 0 {
		return 0, false
	}
	sq := gomath.Sqrt(disc)
	t0 := (-b - sq) / (2 * a)
	t1 := (-b + sq) / (2 * a)
	switch {
	case t0 > 0:
		return float32(t0), true
	case t1 > 0:
		return float32(t1), true
	}
	return 0, false
}

// SphereUV maps a point on (or near) the sphere to texture UV, matching
// BuildSphere.
func SphereUV(p math.Vec3) (u, v float64, ok bool) {
	n := p.Normalize()
	if n == (math.Vec3{}) {
		return 0, 0, false
	}
	u = gomath.Atan2(float64(n.Z), float64(n.X)) / (2 * gomath.Pi)
	if u < 0 {
		u++
	}
	y := min(max(float64(n.Y), -1), 1)
	v = 0.5 - gomath.Asin(y)/gomath.Pi
	return u, v, true
}

// UVToPixel converts UV to image pixel coordinates: x wraps, y clamps.
func UVToPixel(u, v float64, width, height int) (x, y int) {
	x = int(gomath.Floor(u*float64(width))) % width
	if x < 0 {
		x += width
	}
	y = int(gomath.Floor(v * float64(height)))
	y = min(max(y, 0), height-1)
	return x, y
}
