// Package renderer draws exported octree meshes with OpenGL.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/icebox/internal/engine/lighting"
	"github.com/Faultbox/icebox/internal/engine/renderer/shaders"
	"github.com/Faultbox/icebox/internal/engine/shader"
	"github.com/Faultbox/icebox/internal/logger"
	"github.com/Faultbox/icebox/pkg/octree"
)

// floatsPerVertex is position xyz followed by color rgb.
const floatsPerVertex = 6

// Config holds renderer configuration.
type Config struct {
	Width     int
	Height    int
	Wireframe bool

	// Sun position in degrees, see lighting.SunDirection.
	SunLongitude float32
	SunLatitude  float32
	Ambient      float32
}

// Renderer owns the GPU buffers for one mesh and one line set.
type Renderer struct {
	config Config
	log    *zap.Logger

	program *shader.Program
	mesh    buffer
	lines   buffer

	sunDir mgl32.Vec3
}

type buffer struct {
	vao, vbo, ebo uint32
	count         int32
}

func (b *buffer) delete() {
	if b.ebo != 0 {
		gl.DeleteBuffers(1, &b.ebo)
	}
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
	}
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
	}
	*b = buffer{}
}

// New creates a renderer. It must be called after the OpenGL context exists.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		log:    logger.Named("renderer"),
		sunDir: lighting.SunDirection(cfg.SunLongitude, cfg.SunLatitude),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	var err error
	r.program, err = shader.NewProgram(shaders.VoxelVertexShader, shaders.VoxelFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close releases GPU resources.
func (r *Renderer) Close() {
	r.log.Debug("closing renderer")
	r.mesh.delete()
	r.lines.delete()
	if r.program != nil {
		r.program.Delete()
	}
}

// Resize sets the viewport to the drawable size in pixels.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// UploadMesh replaces the mesh on the GPU.
func (r *Renderer) UploadMesh(m *octree.Mesh) {
	r.mesh.delete()
	if m == nil || len(m.Indices) == 0 {
		return
	}

	r.mesh = newBuffer(interleave(m), m.Indices)
	r.log.Debug("mesh uploaded",
		zap.Int("vertices", m.VertexCount()),
		zap.Int("triangles", m.TriangleCount()),
	)
}

// UploadLines replaces the line set. positions holds xyz pairs of endpoints.
func (r *Renderer) UploadLines(positions []float32, c octree.Color) {
	r.lines.delete()
	n := len(positions) / 3
	if n < 2 {
		return
	}

	rgb := colorFloats(c.R, c.G, c.B)
	data := make([]float32, 0, n*floatsPerVertex)
	for i := 0; i < n; i++ {
		data = append(data, positions[i*3:i*3+3]...)
		data = append(data, rgb[:]...)
	}
	r.lines = newBuffer(data, nil)
	r.lines.count = int32(n)
}

// SetWireframe toggles drawing of the uploaded line set.
func (r *Renderer) SetWireframe(on bool) {
	r.config.Wireframe = on
}

// Wireframe reports whether the line set is drawn.
func (r *Renderer) Wireframe() bool {
	return r.config.Wireframe
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Draw renders the mesh and, when enabled, the line set.
func (r *Renderer) Draw(viewProj mgl32.Mat4) {
	r.program.Use()
	r.program.SetMat4("uViewProj", viewProj)
	r.program.SetVec3("uSunDir", r.sunDir)
	r.program.SetFloat("uAmbient", r.config.Ambient)

	if r.mesh.count > 0 {
		r.program.SetFloat("uLit", 1)
		gl.BindVertexArray(r.mesh.vao)
		gl.DrawElements(gl.TRIANGLES, r.mesh.count, gl.UNSIGNED_INT, nil)
	}

	if r.config.Wireframe && r.lines.count > 0 {
		r.program.SetFloat("uLit", 0)
		gl.BindVertexArray(r.lines.vao)
		gl.DrawArrays(gl.LINES, 0, r.lines.count)
	}

	gl.BindVertexArray(0)
}

// End finishes the current frame.
func (r *Renderer) End() {}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

// newBuffer uploads interleaved vertices and, if given, a triangle index list.
func newBuffer(vertices []float32, indices []uint32) buffer {
	var b buffer
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)

	if len(indices) > 0 {
		gl.GenBuffers(1, &b.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*int(unsafe.Sizeof(indices[0])), gl.Ptr(indices), gl.STATIC_DRAW)
		b.count = int32(len(indices))
	}

	gl.BindVertexArray(0)
	return b
}

// interleave narrows mesh positions to float32 and pairs them with colors.
// Meshes without colors are drawn white.
func interleave(m *octree.Mesh) []float32 {
	n := m.VertexCount()
	hasColors := len(m.Colors) == n*3
	out := make([]float32, 0, n*floatsPerVertex)
	for i := 0; i < n; i++ {
		p := m.Positions[i*3 : i*3+3]
		rgb := [3]float32{1, 1, 1}
		if hasColors {
			c := m.Colors[i*3 : i*3+3]
			rgb = colorFloats(c[0], c[1], c[2])
		}
		out = append(out, float32(p[0]), float32(p[1]), float32(p[2]), rgb[0], rgb[1], rgb[2])
	}
	return out
}

func colorFloats(r, g, b uint8) [3]float32 {
	return [3]float32{float32(r) / 255, float32(g) / 255, float32(b) / 255}
}
