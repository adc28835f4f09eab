// Package renderer draws light textures as screen-aligned quads.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/bsplight/internal/engine/shader"
	"github.com/Faultbox/bsplight/internal/engine/texture"
	"github.com/Faultbox/bsplight/internal/logger"
)

// Mode selects how a texture is displayed.
type Mode int32

const (
	ModeColor Mode = iota // float or normalised colour
	ModeStyles            // integer style indices as false colour
	ModeSlice             // one depth slice of a volume
)

const vertexSource = `
#version 410 core

layout (location = 0) in vec2 aPos;
layout (location = 1) in vec2 aUV;

uniform mat4 uView;
uniform vec2 uSize;

out vec2 vUV;

void main() {
	gl_Position = uView * vec4(aPos * uSize, 0.0, 1.0);
	vUV = aUV;
}
`

const fragmentSource = `
#version 410 core

in vec2 vUV;
out vec4 FragColor;

uniform int uMode;
uniform float uExposure;
uniform float uSlice;
uniform sampler2D uColor;
uniform usampler2D uStyles;
uniform sampler3D uVolume;

vec3 linearToSRGB(vec3 c) {
	return mix(c * 12.92, 1.055 * pow(c, vec3(1.0 / 2.4)) - 0.055, step(0.0031308, c));
}

vec3 hashColor(uint s) {
	if (s == 255u) {
		return vec3(0.0);
	}
	uint h = s * 2654435761u;
	return vec3(float(h & 255u), float((h >> 8) & 255u), float((h >> 16) & 255u)) / 255.0;
}

void main() {
	if (uMode == 1) {
		uvec4 s = texture(uStyles, vUV);
		FragColor = vec4(hashColor(s.r), 1.0);
		return;
	}
	vec3 c = uMode == 2 ? texture(uVolume, vec3(vUV, uSlice)).rgb : texture(uColor, vUV).rgb;
	FragColor = vec4(linearToSRGB(clamp(c * uExposure, 0.0, 1.0)), 1.0);
}
`

const lineVertexSource = `
#version 410 core

layout (location = 0) in vec2 aPos;

uniform mat4 uView;

void main() {
	gl_Position = uView * vec4(aPos, 0.0, 1.0);
}
`

const lineFragmentSource = `
#version 410 core

uniform vec3 uColor;
out vec4 FragColor;

void main() {
	FragColor = vec4(uColor, 1.0);
}
`

// Renderer handles all OpenGL rendering.
type Renderer struct {
	width, height int
	program       *shader.Program
	lines         *shader.Program
	quadVAO       uint32
	quadVBO       uint32
	lineVAO       uint32
	lineVBO       uint32
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(width, height int) (*Renderer, error) {
	r := &Renderer{width: width, height: height}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Disable(gl.DEPTH_TEST)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	var err error
	r.program, err = shader.Compile(vertexSource, fragmentSource)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	r.program.Use()
	r.program.SetInt("uColor", 0)
	r.program.SetInt("uStyles", 1)
	r.program.SetInt("uVolume", 2)

	r.lines, err = shader.Compile(lineVertexSource, lineFragmentSource)
	if err != nil {
		r.program.Delete()
		return nil, fmt.Errorf("failed to create line program: %w", err)
	}

	r.createQuad()
	r.createLines()
	gl.Viewport(0, 0, int32(width), int32(height))
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &r.quadVAO)
	}
	if r.quadVBO != 0 {
		gl.DeleteBuffers(1, &r.quadVBO)
	}
	if r.lineVAO != 0 {
		gl.DeleteVertexArrays(1, &r.lineVAO)
	}
	if r.lineVBO != 0 {
		gl.DeleteBuffers(1, &r.lineVBO)
	}
	if r.program != nil {
		r.program.Delete()
	}
	if r.lines != nil {
		r.lines.Delete()
	}
}

// Resize handles framebuffer resize.
func (r *Renderer) Resize(width, height int) {
	r.width, r.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// DrawParams describes one textured quad.
type DrawParams struct {
	View     mgl32.Mat4
	Width    float32 // quad size in content units
	Height   float32
	Mode     Mode
	Exposure float32
	Slice    float32 // normalised depth for ModeSlice
}

// Draw renders tex as a quad covering [0,Width]x[0,Height] in content
// space.
func (r *Renderer) Draw(tex *texture.Texture, p DrawParams) {
	r.program.Use()
	r.program.SetMat4("uView", p.View)
	gl.Uniform2f(r.program.Uniform("uSize"), p.Width, p.Height)
	r.program.SetInt("uMode", int32(p.Mode))
	r.program.SetFloat("uExposure", p.Exposure)
	r.program.SetFloat("uSlice", p.Slice)

	switch p.Mode {
	case ModeStyles:
		tex.Bind(1)
	case ModeSlice:
		tex.Bind(2)
	default:
		tex.Bind(0)
	}

	gl.BindVertexArray(r.quadVAO)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)
}

// createQuad creates a unit quad with texel-space positions and matching
// texture coordinates.
func (r *Renderer) createQuad() {
	vertices := []float32{
		// Position  // UV
		0, 0, 0, 0,
		1, 0, 1, 0,
		0, 1, 0, 1,
		1, 1, 1, 1,
	}

	gl.GenVertexArrays(1, &r.quadVAO)
	gl.BindVertexArray(r.quadVAO)

	gl.GenBuffers(1, &r.quadVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(2*4))
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	logger.Debug("quad created", zap.Uint32("vao", r.quadVAO), zap.Uint32("vbo", r.quadVBO))
}

// DrawLines draws 2D line segments given as [x, y] pairs in content space.
func (r *Renderer) DrawLines(view mgl32.Mat4, vertices []float32, color mgl32.Vec3) {
	if len(vertices) < 4 {
		return
	}
	r.lines.Use()
	r.lines.SetMat4("uView", view)
	gl.Uniform3f(r.lines.Uniform("uColor"), color[0], color[1], color[2])

	gl.BindVertexArray(r.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STREAM_DRAW)
	gl.DrawArrays(gl.LINES, 0, int32(len(vertices)/2))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

func (r *Renderer) createLines() {
	gl.GenVertexArrays(1, &r.lineVAO)
	gl.BindVertexArray(r.lineVAO)
	gl.GenBuffers(1, &r.lineVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}
