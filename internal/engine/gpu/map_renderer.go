// Package gpu draws the region map with OpenGL. All methods must be called
// on the goroutine that owns the GL context.
package gpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/regionatlas/internal/engine/composite"
	"github.com/Faultbox/regionatlas/internal/engine/globe"
	"github.com/Faultbox/regionatlas/internal/engine/idmap"
	"github.com/Faultbox/regionatlas/internal/engine/lut"
	"github.com/Faultbox/regionatlas/internal/engine/raster"
	"github.com/Faultbox/regionatlas/internal/engine/shader"
	"github.com/Faultbox/regionatlas/internal/engine/shader/shaders"
	"github.com/Faultbox/regionatlas/internal/engine/texture"
	"github.com/Faultbox/regionatlas/internal/logger"
)

// ErrTextureTooLarge is returned when an input image exceeds GL_MAX_TEXTURE_SIZE.
var ErrTextureTooLarge = errors.New("image exceeds maximum texture size")

// Texture units.
const (
	unitIDs = iota
	unitLUT
	unitTerrain
)

// Sphere tessellation.
const (
	sphereSegU = 192
	sphereSegV = 96
)

type mesh struct {
	vao, vbo, ebo uint32
	count         int32
}

// MapRenderer owns the GL resources for one region map.
type MapRenderer struct {
	prog *shader.Program

	idTex      uint32
	idW, idH   int
	maxID      uint32
	terrainTex uint32

	lutDim int
	lutTex [2]uint32
	swap   *lut.Swap

	quad   mesh
	sphere mesh

	// Background fills pixels off the map or off the globe.
	Background composite.Color

	log *zap.Logger
}

// NewMapRenderer uploads the static inputs and allocates both lookup
// textures for a lutDim×lutDim table. terrain may be nil.
func NewMapRenderer(ids *idmap.Image, terrain *texture.Terrain, lutDim int) (*MapRenderer, error) {
	if err := lut.CheckDimension(lutDim, ids.MaxID()); err != nil {
		return nil, err
	}

	r := &MapRenderer{
		maxID:      uint32(ids.MaxID()),
		lutDim:     lutDim,
		swap:       lut.NewSwap(lutDim),
		Background: composite.RGB(0.02, 0.02, 0.05),
		log:        logger.Named("gpu"),
	}

	prog, err := shader.NewProgram(shaders.MapVertexShader, shaders.MapFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("map shader: %w", err)
	}
	r.prog = prog

	var maxSize int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxSize)

	r.idW, r.idH = ids.Size()
	if r.idW > int(maxSize) || r.idH > int(maxSize) || lutDim > int(maxSize) {
		r.Destroy()
		return nil, fmt.Errorf("%w: %dx%d, lut %d, limit %d", ErrTextureTooLarge, r.idW, r.idH, lutDim, maxSize)
	}

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	r.idTex = newTexture(gl.NEAREST, gl.REPEAT)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB8, int32(r.idW), int32(r.idH), 0, gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(ids.Pix()))

	if terrain != nil {
		img := terrain.Image()
		w, h := terrain.Size()
		if w > int(maxSize) || h > int(maxSize) {
			r.Destroy()
			return nil, fmt.Errorf("%w: terrain %dx%d, limit %d", ErrTextureTooLarge, w, h, maxSize)
		}
		r.terrainTex = newTexture(gl.LINEAR, gl.REPEAT)
		gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	}

	// Both lookup textures start as the all-sentinel table.
	zero := make([]byte, lutDim*lutDim*4)
	for i := range r.lutTex {
		r.lutTex[i] = newTexture(gl.NEAREST, gl.CLAMP_TO_EDGE)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(lutDim), int32(lutDim), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(zero))
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if e := glError(); e != gl.NO_ERROR {
		r.Destroy()
		return nil, fmt.Errorf("texture setup: GL error 0x%x", e)
	}

	r.quad = newMesh(quadVertices(), []uint32{0, 1, 2, 2, 3, 0})
	s := globe.BuildSphere(1, sphereSegU, sphereSegV)
	r.sphere = newMesh(s.Vertices, s.Indices)

	r.log.Info("map renderer ready",
		zap.Int("width", r.idW),
		zap.Int("height", r.idH),
		zap.Uint32("max_id", r.maxID),
		zap.Int("lut_dim", lutDim),
		zap.Bool("terrain", terrain != nil),
		zap.Int32("max_texture_size", maxSize),
	)
	return r, nil
}

func newTexture(filter, wrapS int32) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapS)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	return tex
}

// quadVertices covers the viewport. The texcoord is the screen position
// with a top-left origin.
func quadVertices() []float32 {
	return []float32{
		-1, -1, 0, 0, 1, 0, 0, 1,
		1, -1, 0, 1, 1, 0, 0, 1,
		1, 1, 0, 1, 0, 0, 0, 1,
		-1, 1, 0, 0, 0, 0, 0, 1,
	}
}

func newMesh(vertices []float32, indices []uint32) mesh {
	var m mesh
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	stride := int32(globe.VertexStride * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 3, gl.FLOAT, false, stride, 5*4)
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	m.count = int32(len(indices))
	return m
}

func (m *mesh) destroy() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ebo)
		*m = mesh{}
	}
}

// Upload writes t into the back lookup texture and swaps on success. It
// implements lut.Uploader.
func (r *MapRenderer) Upload(t *lut.Table, rows lut.RowRange) error {
	if t.Dim() != r.lutDim {
		return fmt.Errorf("table dim %d, textures hold %d", t.Dim(), r.lutDim)
	}
	plan := r.swap.Plan(rows)
	if plan.Empty() {
		return nil
	}

	glError() // discard errors raised by earlier calls
	gl.BindTexture(gl.TEXTURE_2D, r.lutTex[r.swap.Back()])
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0,
		0, int32(plan.First), int32(r.lutDim), int32(plan.Last-plan.First+1),
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(t.Rows(plan)))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if e := glError(); e != gl.NO_ERROR {
		r.swap.Fail()
		return fmt.Errorf("glTexSubImage2D rows %d..%d: GL error 0x%x", plan.First, plan.Last, e)
	}
	r.swap.Done(rows)
	r.log.Debug("lut uploaded",
		zap.Int("texture", r.swap.Front()),
		zap.Int("first_row", plan.First),
		zap.Int("last_row", plan.Last))
	return nil
}

// Draw renders one frame into the bound framebuffer.
func (r *MapRenderer) Draw(p composite.Params, view raster.View, width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if err := p.Validate(); err != nil {
		return err
	}
	globeView := p.Presentation == composite.Globe
	if globeView && view.Globe == nil || !globeView && view.Map == nil {
		return fmt.Errorf("%w: %v", raster.ErrNoCamera, p.Presentation)
	}

	gl.Viewport(0, 0, int32(width), int32(height))
	bg := r.Background
	gl.ClearColor(bg.R, bg.G, bg.B, bg.A)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.prog.Use()
	r.setParams(p)
	r.prog.Vec4("uBackground", [4]float32{bg.R, bg.G, bg.B, bg.A})

	gl.ActiveTexture(gl.TEXTURE0 + unitIDs)
	gl.BindTexture(gl.TEXTURE_2D, r.idTex)
	gl.ActiveTexture(gl.TEXTURE0 + unitLUT)
	gl.BindTexture(gl.TEXTURE_2D, r.lutTex[r.swap.Front()])
	gl.ActiveTexture(gl.TEXTURE0 + unitTerrain)
	gl.BindTexture(gl.TEXTURE_2D, r.terrainTex)

	m := &r.quad
	if globeView {
		cam := view.Globe
		vp := cam.ViewProjection(float32(width) / float32(height))
		r.prog.Mat4("uViewProj", vp.Ptr())
		r.prog.Vec3("uCameraPos", cam.Position().Array())
		gl.Enable(gl.DEPTH_TEST)
		m = &r.sphere
	} else {
		su, sv := view.Map.Span(width, height, float64(r.idW)/float64(r.idH))
		r.prog.Vec4("uMapView", [4]float32{
			float32(view.Map.CenterU), float32(view.Map.CenterV), float32(su), float32(sv),
		})
		gl.Disable(gl.DEPTH_TEST)
	}

	gl.BindVertexArray(m.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
	gl.ActiveTexture(gl.TEXTURE0)

	if e := glError(); e != gl.NO_ERROR {
		return fmt.Errorf("draw: GL error 0x%x", e)
	}
	return nil
}

func (r *MapRenderer) setParams(p composite.Params) {
	prog := r.prog
	prog.Int("uIDs", unitIDs)
	prog.Int("uLUT", unitLUT)
	prog.Int("uTerrain", unitTerrain)
	prog.Bool("uHasTerrain", r.terrainTex != 0)
	prog.IVec2("uIDSize", int32(r.idW), int32(r.idH))
	prog.Int("uLUTDim", int32(r.lutDim))
	prog.Int("uMaxID", int32(r.maxID))
	prog.Bool("uGlobe", p.Presentation == composite.Globe)

	mc, pc := p.Mode.Caps(), p.Presentation.Caps()
	prog.Bool("uCapOverlay", mc.Overlay)
	prog.Bool("uCapBorders", mc.RegionBorders)
	prog.Bool("uCapHighlight", mc.SelectionHighlight)
	prog.Bool("uCapFill", mc.SelectionFill)
	prog.Bool("uCapOutline", mc.SelectionOutline)
	prog.Bool("uCapLighting", pc.Lighting)
	prog.Bool("uCapAtmosphere", pc.Atmosphere)

	prog.Bool("uClamp", p.ColorPolicy == composite.Clamped)
	prog.Float("uOpacity", p.Opacity)
	prog.Float("uBorderDarken", p.BorderDarken)
	prog.Float("uSelectionTint", p.SelectionTint)
	prog.Float("uSelectionBoost", p.SelectionBoost)
	prog.Float("uSelectionFill", p.SelectionFill)
	prog.Vec3("uOutlineColor", p.OutlineColor.Array())
	prog.Vec3("uTerrainOutlineColor", p.TerrainOutlineColor.Array())
	prog.Vec3("uDefaultTerrain", p.DefaultTerrain.Array())
	prog.Float("uAmbient", p.Ambient)
	prog.Vec3("uLightDir", p.LightDir.Array())
	prog.Vec3("uCameraPos", p.CameraPos.Array())

	a := p.Atmosphere
	prog.Bool("uAtmosphere", a.Enabled)
	prog.Vec3("uRimColor", a.RimColor.Array())
	prog.Float("uRimPower", a.RimPower)
	prog.Float("uRimStrength", a.RimStrength)
	prog.Vec3("uFogColor", a.FogColor.Array())
	prog.Float("uFogNear", a.FogNear)
	prog.Float("uFogFar", a.FogFar)
	prog.Float("uFogMax", a.FogMax)
}

// ReadPixels reads the bound framebuffer as RGBA rows, bottom row first.
func ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// Snapshot renders one frame offscreen and returns it top row first.
func (r *MapRenderer) Snapshot(p composite.Params, view raster.View, width, height int) (*image.NRGBA, error) {
	target, err := NewTarget(int32(width), int32(height))
	if err != nil {
		return nil, err
	}
	defer target.Destroy()

	restore := target.Bind()
	err = r.Draw(p, view, width, height)
	var img *image.NRGBA
	if err == nil {
		img = target.Image()
	}
	restore()
	return img, err
}

// Destroy releases every GL resource.
func (r *MapRenderer) Destroy() {
	if r.prog != nil {
		r.prog.Delete()
	}
	for _, tex := range []*uint32{&r.idTex, &r.terrainTex, &r.lutTex[0], &r.lutTex[1]} {
		if *tex != 0 {
			gl.DeleteTextures(1, tex)
			*tex = 0
		}
	}
	r.quad.destroy()
	r.sphere.destroy()
}

// glError drains the GL error queue and returns the first error.
func glError() uint32 {
	first := uint32(gl.NO_ERROR)
	for e := gl.GetError(); e != gl.NO_ERROR; e = gl.GetError() {
		if first == gl.NO_ERROR {
			first = e
		}
	}
	return first
}
