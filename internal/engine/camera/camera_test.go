package camera

import (
	gomath "math"
	"testing"
)

func TestGlobePosition(t *testing.T) {
	c := NewGlobeCamera()
	c.Pitch, c.Yaw = 0, 0
	p := c.Position()
	if gomath.Abs(float64(p.Z-c.Distance)) > 1e-5 || gomath.Abs(float64(p.X)) > 1e-5 {
		t.Errorf("Position() = %v, want (0, 0, %v)", p, c.Distance)
	}
	if l := p.Length(); gomath.Abs(float64(l-c.Distance)) > 1e-4 {
		t.Errorf("|Position()| = %v, want %v", l, c.Distance)
	}
}

func TestGlobeClamp(t *testing.T) {
	c := NewGlobeCamera()
	c.HandleDrag(0, 1e6)
	if c.Pitch != c.MaxPitch {
		t.Errorf("pitch = %v, want clamp to %v", c.Pitch, c.MaxPitch)
	}
	c.HandleZoom(1e6)
	if c.Distance != c.MinDistance {
		t.Errorf("distance = %v, want %v", c.Distance, c.MinDistance)
	}
	c.HandleZoom(-1e6)
	if c.Distance != c.MaxDistance {
		t.Errorf("distance = %v, want %v", c.Distance, c.MaxDistance)
	}
}

func TestScreenToUV(t *testing.T) {
	c := NewMapCamera()
	u, v := c.ScreenToUV(400, 200, 800, 400, 2)
	if u != 0.5 || v != 0.5 {
		t.Errorf("centre = (%v, %v), want (0.5, 0.5)", u, v)
	}
	// At zoom 1 a 2:1 map exactly fills an 800x400 viewport.
	u, v = c.ScreenToUV(0, 0, 800, 400, 2)
	if u != 0 || v != 0 {
		t.Errorf("corner = (%v, %v), want (0, 0)", u, v)
	}
}

func TestSpan(t *testing.T) {
	c := NewMapCamera()
	c.Zoom = 4
	su, sv := c.Span(800, 400, 2)
	if su != 0.25 || sv != 0.25 {
		t.Errorf("Span() = (%v, %v), want (0.25, 0.25)", su, sv)
	}
	if su, sv := c.Span(0, 400, 2); su != 0 || sv != 0 {
		t.Errorf("zero width span = (%v, %v)", su, sv)
	}
}

func TestMapPanWraps(t *testing.T) {
	c := NewMapCamera()
	c.HandleDrag(600, 0, 800, 2) // pan left by 0.75 of the map
	if gomath.Abs(c.CenterU-0.75) > 1e-9 {
		t.Errorf("CenterU = %v, want 0.75", c.CenterU)
	}
	c.HandleDrag(0, -1e6, 800, 2)
	if c.CenterV != 1 {
		t.Errorf("CenterV = %v, want clamp to 1", c.CenterV)
	}
}

func TestFaceUV(t *testing.T) {
	tests := []struct{ u, v float64 }{
		{0, 0.5},
		{0.25, 0.5},
		{0.6, 0.3},
		{0.9, 0.75},
	}
	for _, tt := range tests {
		c := NewGlobeCamera()
		c.FaceUV(tt.u, tt.v)

		// The camera direction must be the surface point at (u, v).
		lon := tt.u * 2 * gomath.Pi
		lat := (0.5 - tt.v) * gomath.Pi
		want := [3]float64{gomath.Cos(lat) * gomath.Cos(lon), gomath.Sin(lat), gomath.Cos(lat) * gomath.Sin(lon)}
		n := c.Position().Normalize()
		got := [3]float64{float64(n.X), float64(n.Y), float64(n.Z)}
		for i := range want {
			if gomath.Abs(got[i]-want[i]) > 1e-5 {
				t.Errorf("FaceUV(%v, %v) direction = %v, want %v", tt.u, tt.v, got, want)
				break
			}
		}
	}
}

func TestCenterOn(t *testing.T) {
	c := NewMapCamera()
	c.CenterOn(1.25, 2)
	if c.CenterU != 0.25 || c.CenterV != 1 {
		t.Errorf("CenterOn() = (%v, %v), want (0.25, 1)", c.CenterU, c.CenterV)
	}
}
