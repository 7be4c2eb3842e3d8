// Package renderer draws picker buffers with OpenGL.
package renderer

import (
	_ "embed"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/sketchplane/internal/engine/drawing"
	"github.com/Faultbox/sketchplane/internal/engine/lighting"
	"github.com/Faultbox/sketchplane/internal/engine/shader"
	"github.com/Faultbox/sketchplane/internal/logger"
	"github.com/Faultbox/sketchplane/pkg/math"
)

//go:embed shaders/plane.vert
var planeVertSrc string

//go:embed shaders/plane.frag
var planeFragSrc string

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	Background drawing.Color

	// LightDir points towards the key light. Zero selects the default sun.
	LightDir math.Vec3
}

// Renderer uploads buffers to streaming GPU objects and draws them. It
// implements the picker's draw target.
type Renderer struct {
	config  Config
	program *shader.Program

	vao       uint32
	posVBO    uint32
	normalVBO uint32
	ebo       uint32
}

// New creates a renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	program, err := shader.Compile(planeVertSrc, planeFragSrc)
	if err != nil {
		return nil, fmt.Errorf("plane shader: %w", err)
	}

	if cfg.LightDir == (math.Vec3{}) {
		cfg.LightDir = lighting.DefaultSun()
	}
	r := &Renderer{config: cfg, program: program}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.posVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.posVBO)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &r.normalVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.normalVBO)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, 3*4, nil)

	gl.GenBuffers(1, &r.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)

	gl.BindVertexArray(0)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.MULTISAMPLE)
	gl.Disable(gl.CULL_FACE)
	gl.LineWidth(1)

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close frees GPU resources.
func (r *Renderer) Close() {
	logger.Debug("closing renderer")
	if r.ebo != 0 {
		gl.DeleteBuffers(1, &r.ebo)
	}
	if r.normalVBO != 0 {
		gl.DeleteBuffers(1, &r.normalVBO)
	}
	if r.posVBO != 0 {
		gl.DeleteBuffers(1, &r.posVBO)
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	r.program.Delete()
}

// Resize sets the viewport to the framebuffer size in pixels.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Begin clears the frame and sets the camera.
func (r *Renderer) Begin(viewProj math.Mat4) {
	bg := r.config.Background
	gl.ClearColor(bg[0], bg[1], bg[2], bg[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.program.Use()
	r.program.SetMat4("uViewProj", viewProj.Float32())
	r.program.SetVec3("uLightDir", r.config.LightDir.Normalize().Float32())
}

// End finishes the frame.
func (r *Renderer) End() {
	gl.BindVertexArray(0)
}

// DrawTriangles draws a shaded triangle buffer.
func (r *Renderer) DrawTriangles(buf drawing.Buffer, color drawing.Color) {
	if buf.Empty() {
		return
	}
	lit := len(buf.Normals) == len(buf.Positions)
	r.upload(buf, lit)
	r.program.SetVec4("uColor", color)
	r.program.SetBool("uLit", lit)

	// Translucent planes must not hide each other
	gl.DepthMask(false)
	gl.DrawElements(gl.TRIANGLES, int32(len(buf.Indices)), gl.UNSIGNED_INT, nil)
	gl.DepthMask(true)
}

// DrawLines draws a line buffer.
func (r *Renderer) DrawLines(buf drawing.Buffer, color drawing.Color) {
	if buf.Empty() {
		return
	}
	r.upload(buf, false)
	r.program.SetVec4("uColor", color)
	r.program.SetBool("uLit", false)
	gl.DrawElements(gl.LINES, int32(len(buf.Indices)), gl.UNSIGNED_INT, nil)
}

func (r *Renderer) upload(buf drawing.Buffer, normals bool) {
	gl.BindVertexArray(r.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, r.posVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(buf.Positions)*4, unsafe.Pointer(&buf.Positions[0]), gl.STREAM_DRAW)

	if normals {
		gl.BindBuffer(gl.ARRAY_BUFFER, r.normalVBO)
		gl.BufferData(gl.ARRAY_BUFFER, len(buf.Normals)*4, unsafe.Pointer(&buf.Normals[0]), gl.STREAM_DRAW)
		gl.EnableVertexAttribArray(1)
	} else {
		gl.DisableVertexAttribArray(1)
		gl.VertexAttrib3f(1, 0, 0, 1)
	}

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(buf.Indices)*4, unsafe.Pointer(&buf.Indices[0]), gl.STREAM_DRAW)
}
