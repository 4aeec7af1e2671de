// Package renderer is the OpenGL 4.1 core backend of the render graph. A
// Renderer implements gpu.Device, fbo.Allocator and material.Compiler and
// must only be used from the thread owning the GL context.
package renderer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/rendergraph/graphics"
	"github.com/richinsley/rendergraph/logger"
)

// gl.Init() must only be called once per process
var glInitOnce sync.Once

var quadVertices = []float32{
	-1.0, 1.0, -1.0, -1.0, 1.0, -1.0,
	-1.0, 1.0, 1.0, -1.0, 1.0, 1.0,
}

type Renderer struct {
	context graphics.Context
	quadVAO uint32
	quadVBO uint32

	// live framebuffers and the textures attached to them
	framebuffers map[uint32]fboTextures
	programs     map[uint32]*Program
}

type fboTextures struct {
	color uint32
	depth uint32
}

// NewRenderer makes the context current, loads the GL function pointers and
// creates the full-screen quad.
func NewRenderer(ctx graphics.Context) (*Renderer, error) {
	r := &Renderer{
		context:      ctx,
		framebuffers: make(map[uint32]fboTextures),
		programs:     make(map[uint32]*Program),
	}

	r.context.MakeCurrent()

	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}

	logger.Logger().Info("renderer: opengl", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	gl.GenVertexArrays(1, &r.quadVAO)
	gl.GenBuffers(1, &r.quadVBO)
	gl.BindVertexArray(r.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	return r, nil
}

// GetFramebufferSize returns the size of the context's default framebuffer.
// Renderer can therefore be used as the surface of a presenting node.
func (r *Renderer) GetFramebufferSize() (int, int) {
	return r.context.GetFramebufferSize()
}

// Live returns the number of framebuffers allocated and not yet released.
func (r *Renderer) Live() int {
	return len(r.framebuffers)
}

// Shutdown deletes every resource still owned by the renderer. The context
// is left for the caller to shut down.
func (r *Renderer) Shutdown() {
	for handle, p := range r.programs {
		gl.DeleteProgram(handle)
		p.handle = 0
	}
	clear(r.programs)

	for fb, tex := range r.framebuffers {
		r.deleteFramebuffer(fb, tex)
	}
	clear(r.framebuffers)

	gl.DeleteBuffers(1, &r.quadVBO)
	gl.DeleteVertexArrays(1, &r.quadVAO)
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program: %v", log)
	}

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile shader: %v", logText)
	}
	return shader, nil
}
