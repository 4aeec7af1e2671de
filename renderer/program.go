package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/logger"
	"github.com/richinsley/rendergraph/material"
	"github.com/richinsley/rendergraph/shader"
	"github.com/richinsley/rendergraph/translator"
)

// Program is a linked GL program. Uniform locations are looked up on first
// use and cached; names are mapped through the translator's output for
// translated shaders.
type Program struct {
	id     string
	handle uint32

	names     map[string]string
	locations map[string]int32
}

// Compile implements the material.Compiler interface. WebGL2 fragment
// sources are translated to GLSL 4.10 core first.
func (r *Renderer) Compile(id string, src material.Source) (gpu.Program, error) {
	vertex := src.Vertex
	if vertex == "" {
		vertex = shader.VertexShader()
	}

	fragment := src.Fragment
	var names map[string]string
	if shader.IsWebGL2(fragment) {
		tr, err := translator.Fragment(fragment)
		if err != nil {
			return nil, fmt.Errorf("renderer: %s: %w", id, err)
		}
		fragment = tr.Code
		names = tr.Uniforms
	}

	handle, err := newProgram(vertex, fragment)
	if err != nil {
		return nil, fmt.Errorf("renderer: %s: %w", id, err)
	}

	p := &Program{
		id:        id,
		handle:    handle,
		names:     names,
		locations: make(map[string]int32),
	}
	r.programs[handle] = p

	logger.Logger().Debug("renderer: compiled program", "material", id, "program", handle, "translated", names != nil)

	return p, nil
}

// Delete implements the material.Compiler interface.
func (r *Renderer) Delete(p gpu.Program) {
	if _, ok := r.programs[p.Handle()]; !ok {
		return
	}
	delete(r.programs, p.Handle())
	gl.DeleteProgram(p.Handle())
	if gp, ok := p.(*Program); ok {
		gp.handle = 0
	}
}

// ID implements the gpu.Program interface.
func (p *Program) ID() string {
	return p.id
}

// Handle implements the gpu.Program interface.
func (p *Program) Handle() uint32 {
	return p.handle
}

func (p *Program) location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	mapped := name
	if m, ok := p.names[name]; ok {
		mapped = m
	}
	loc := gl.GetUniformLocation(p.handle, gl.Str(mapped+"\x00"))
	p.locations[name] = loc
	return loc
}

// SetFloat implements the gpu.Program interface.
func (p *Program) SetFloat(name string, v float32) {
	if loc := p.location(name); loc != -1 {
		gl.ProgramUniform1f(p.handle, loc, v)
	}
}

// SetFloat2 implements the gpu.Program interface.
func (p *Program) SetFloat2(name string, x, y float32) {
	if loc := p.location(name); loc != -1 {
		gl.ProgramUniform2f(p.handle, loc, x, y)
	}
}

// SetInt implements the gpu.Program interface.
func (p *Program) SetInt(name string, v int32) {
	if loc := p.location(name); loc != -1 {
		gl.ProgramUniform1i(p.handle, loc, v)
	}
}
