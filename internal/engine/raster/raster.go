// Package raster renders the region map on the CPU. Every output pixel is
// classified and composited independently, exactly as the map shader does, so
// frames can be produced headless and tests can check the pipeline without a
// GL context.
package raster

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/regionatlas/internal/engine/border"
	"github.com/Faultbox/regionatlas/internal/engine/camera"
	"github.com/Faultbox/regionatlas/internal/engine/composite"
	"github.com/Faultbox/regionatlas/internal/engine/globe"
	"github.com/Faultbox/regionatlas/internal/engine/idmap"
	"github.com/Faultbox/regionatlas/internal/engine/lut"
	"github.com/Faultbox/regionatlas/internal/engine/texture"
	"github.com/Faultbox/regionatlas/internal/logger"
	"github.com/Faultbox/regionatlas/pkg/math"
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

var (
	ErrNoTable  = errors.New("no lookup table")
	ErrNoCamera = errors.New("view has no camera for presentation")
	ErrEmptyDst = errors.New("empty destination image")
)

// bandRows is the height of one unit of work.
const bandRows = 16

// View positions the camera for one frame. Only the camera matching the
// presentation is used.
type View struct {
	Map   *camera.MapCamera
	Globe *camera.GlobeCamera
}

// Renderer draws one region map.
type Renderer struct {
	IDs     *idmap.Image
	Terrain *texture.Terrain // optional

	// Workers bounds the number of row bands shaded at once. Zero uses
	// GOMAXPROCS.
	Workers int

	// Background fills pixels outside the map or off the globe.
	Background composite.Color

	log *zap.Logger
}

// New returns a renderer over ids.
func New(ids *idmap.Image, terrain *texture.Terrain) *Renderer {
	return &Renderer{
		IDs:        ids,
		Terrain:    terrain,
		Background: composite.RGB(0.02, 0.02, 0.05),
		log:        logger.Named("raster"),
	}
}

// pixelFunc shades one output pixel at screen coordinates (x+0.5, y+0.5).
type pixelFunc func(x, y int) composite.Color

// Render fills dst. Once started, shading runs to completion.
func (r *Renderer) Render(dst *image.NRGBA, table *lut.Table, p composite.Params, view View) error {
	if table == nil {
		return ErrNoTable
	}
	if dst == nil || dst.Rect.Empty() {
		return ErrEmptyDst
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := lut.CheckDimension(table.Dim(), r.IDs.MaxID()); err != nil {
		return err
	}

	shade, err := r.shader(table, &p, view, dst.Rect.Dx(), dst.Rect.Dy())
	if err != nil {
		return err
	}

	start := time.Now()
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	h := dst.Rect.Dy()
	for y0 := 0; y0 < h; y0 += bandRows {
		y1 := min(y0+bandRows, h)
		g.Go(func() error {
			r.band(dst, shade, y0, y1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if r.log != nil {
		r.log.Debug("frame rendered",
			zap.Stringer("mode", p.Mode),
			zap.Stringer("presentation", p.Presentation),
			zap.Int("width", dst.Rect.Dx()),
			zap.Int("height", h),
			zap.Uint64("lut_generation", table.Generation()),
			zap.Duration("took", time.Since(start)))
	}
	return nil
}

// band shades rows [y0, y1). Bands write disjoint rows of dst.
func (r *Renderer) band(dst *image.NRGBA, shade pixelFunc, y0, y1 int) {
	w := dst.Rect.Dx()
	for y := y0; y < y1; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for x := 0; x < w; x++ {
			c := shade(x, y).RGBA8()
			row[x*4] = c.R
			row[x*4+1] = c.G
			row[x*4+2] = c.B
			row[x*4+3] = c.A
		}
	}
}

func (r *Renderer) shader(table *lut.Table, p *composite.Params, view View, w, h int) (pixelFunc, error) {
	eval := border.New(r.IDs, table, r.IDs.MaxID())
	mw, mh := r.IDs.Size()

	surface := func(u, v float64, n, pos math.Vec3) composite.Color {
		px, py := globe.UVToPixel(u, v, mw, mh)
		res := eval.Evaluate(px, py)
		f := composite.Fragment{Border: res, Normal: n, Position: pos}
		if r.Terrain != nil {
			s := r.Terrain.Sample(u, v)
			f.Terrain = composite.Color{R: s[0], G: s[1], B: s[2], A: 1}
			f.HasTerrain = true
		}
		if !res.Skipped {
			cr, cg, cb, _ := table.Cell(res.ID)
			f.Overlay = composite.RGB(float32(cr)/255, float32(cg)/255, float32(cb)/255)
		}
		return composite.Composite(f, *p)
	}

	switch p.Presentation {
	case composite.Globe:
		if view.Globe == nil {
			return nil, fmt.Errorf("%w: %v", ErrNoCamera, p.Presentation)
		}
		p.CameraPos = view.Globe.Position()
		inv, ok := view.Globe.ViewProjection(float32(w) / float32(h)).Inverse()
		if !ok {
			return nil, fmt.Errorf("%w: singular view-projection", ErrNoCamera)
		}
		return func(x, y int) composite.Color {
			hit, ok := globeHit(float64(x)+0.5, float64(y)+0.5, w, h, inv)
			if !ok {
				return r.Background
			}
			u, v, _ := globe.SphereUV(hit)
			return surface(u, v, hit.Normalize(), hit)
		}, nil

	default:
		if view.Map == nil {
			return nil, fmt.Errorf("%w: %v", ErrNoCamera, p.Presentation)
		}
		aspect := float64(mw) / float64(mh)
		flatNormal := math.Vec3{Z: 1}
		return func(x, y int) composite.Color {
			u, v := view.Map.ScreenToUV(float64(x)+0.5, float64(y)+0.5, w, h, aspect)
			if v < 0 || v >= 1 {
				return r.Background
			}
			return surface(u, v, flatNormal, math.Vec3{})
		}, nil
	}
}

func globeHit(sx, sy float64, w, h int, inv math.Mat4) (math.Vec3, bool) {
	ray, ok := globe.ScreenRay(sx, sy, w, h, inv)
	if !ok {
		return math.Vec3{}, false
	}
	t, ok := globe.RaySphere(ray, 1)
	if !ok {
		return math.Vec3{}, false
	}
	return ray.At(t), true
}

// Pick returns the region under screen pixel (sx, sy) of a w×h viewport.
// ok is false off the map or off the globe.
func (r *Renderer) Pick(pres composite.Presentation, view View, sx, sy float64, w, h int) (id regionid.ID, ok bool) {
	mw, mh := r.IDs.Size()
	var u, v float64

	switch pres {
	case composite.Globe:
		if view.Globe == nil || h <= 0 {
			return regionid.Void, false
		}
		inv, invertible := view.Globe.ViewProjection(float32(w) / float32(h)).Inverse()
		if !invertible {
			return regionid.Void, false
		}
		hit, onGlobe := globeHit(sx, sy, w, h, inv)
		if !onGlobe {
			return regionid.Void, false
		}
		u, v, _ = globe.SphereUV(hit)

	default:
		if view.Map == nil {
			return regionid.Void, false
		}
		u, v = view.Map.ScreenToUV(sx, sy, w, h, float64(mw)/float64(mh))
		if v < 0 || v >= 1 {
			return regionid.Void, false
		}
	}

	id = r.IDs.At(globe.UVToPixel(u, v, mw, mh))
	if id > r.IDs.MaxID() {
		return regionid.Void, false
	}
	return id, id != regionid.Void
}
