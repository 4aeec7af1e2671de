package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/material"
	"github.com/richinsley/rendergraph/nodes"
)

type sourceProgram struct {
	id  string
	src material.Source
}

func (p *sourceProgram) ID() string                         { return p.id }
func (p *sourceProgram) Handle() uint32                     { return 1 }
func (p *sourceProgram) SetFloat(string, float32)           {}
func (p *sourceProgram) SetFloat2(string, float32, float32) {}
func (p *sourceProgram) SetInt(string, int32)               {}

type sourceCompiler struct{}

func (sourceCompiler) Compile(id string, src material.Source) (gpu.Program, error) {
	return &sourceProgram{id: id, src: src}, nil
}

func (sourceCompiler) Delete(gpu.Program) {}

func TestRegister(t *testing.T) {
	lib := material.NewLibrary(sourceCompiler{})
	require.NoError(t, Register(lib, ""))
	assert.ElementsMatch(t, []string{nodes.BlitMaterial, nodes.DownSamplerMaterial, nodes.SceneMaterial}, lib.IDs())

	p, err := lib.Resolve(nodes.DownSamplerMaterial)
	require.NoError(t, err)
	src := p.(*sourceProgram).src
	assert.Contains(t, src.Fragment, "uniform sampler2D tex;")
	assert.Contains(t, src.Fragment, "uniform float size;")
	assert.False(t, IsWebGL2(src.Fragment))

	p, err = lib.Resolve(nodes.SceneMaterial)
	require.NoError(t, err)
	src = p.(*sourceProgram).src
	assert.True(t, IsWebGL2(src.Fragment))
	assert.Contains(t, src.Fragment, "mainImage(fragColor, gl_FragCoord.xy)")
	assert.Contains(t, src.Fragment, strings.TrimSpace(DefaultScene))
}

func TestRegisterCustomScene(t *testing.T) {
	lib := material.NewLibrary(sourceCompiler{})
	custom := "void mainImage(out vec4 c, in vec2 p) { c = vec4(1.0); }\n"
	require.NoError(t, Register(lib, custom))

	p, err := lib.Resolve(nodes.SceneMaterial)
	require.NoError(t, err)
	assert.Contains(t, p.(*sourceProgram).src.Fragment, custom)
}

func TestPreamble(t *testing.T) {
	pre := GeneratePreamble("iChannel0", "iChannel1")
	assert.True(t, strings.HasPrefix(pre, WebGL2Version))
	assert.Contains(t, pre, "uniform sampler2D iChannel0;\n")
	assert.Contains(t, pre, "uniform sampler2D iChannel1;\n")
	assert.Contains(t, pre, "uniform vec2  iResolution;")
}
