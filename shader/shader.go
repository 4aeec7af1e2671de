// Package shader holds the GLSL sources of the engine materials and registers
// them with a material library.
//
// Engine shaders are written in GLSL 4.10 core and compiled as they are.
// Scene shaders are written in the WebGL2 dialect with a Shadertoy style
// mainImage() entry point and are translated before compilation.
package shader

import (
	"fmt"
	"strings"

	"github.com/richinsley/rendergraph/material"
	"github.com/richinsley/rendergraph/nodes"
)

// WebGL2Version is the version line that marks a source for translation.
const WebGL2Version = "#version 300 es"

const vertexShaderSourceGL = `#version 410 core
layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
void main() {
    frag_uv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

// the input is twice the size of the output so four taps a quarter of an
// output texel from the centre land on the four covered input texels
const downSamplerFragmentShaderSourceGL = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D tex;
uniform float size;
void main() {
    float o = 0.25 / size;
    vec4 c = texture(tex, frag_uv + vec2(-o, -o));
    c += texture(tex, frag_uv + vec2( o, -o));
    c += texture(tex, frag_uv + vec2(-o,  o));
    c += texture(tex, frag_uv + vec2( o,  o));
    fragColor = c * 0.25;
}
`

const blitFragmentShaderSourceGL = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D tex;
void main() { fragColor = texture(tex, frag_uv); }
`

// DefaultScene is the scene drawn when the pipeline does not name one: a
// colour ramp whose blue channel pulses with time.
const DefaultScene = `
void mainImage(out vec4 fragColor, in vec2 fragCoord)
{
    vec2 uv = fragCoord / iResolution;
    fragColor = vec4(uv, 0.5 + 0.5 * sin(iTime), 1.0);
}
`

// VertexShader returns the full-screen quad vertex shader shared by every
// material.
func VertexShader() string {
	return vertexShaderSourceGL
}

// DownSamplerFragmentShader returns the fragment shader of the downsampler.
func DownSamplerFragmentShader() string {
	return downSamplerFragmentShaderSourceGL
}

// BlitFragmentShader returns the fragment shader of the presenter.
func BlitFragmentShader() string {
	return blitFragmentShaderSourceGL
}

// GeneratePreamble returns the WebGL2 declarations available to scene code.
// Samplers are declared for each name given.
func GeneratePreamble(samplers ...string) string {
	var b strings.Builder
	b.WriteString(WebGL2Version)
	b.WriteString(`
precision highp float;
precision highp int;

uniform vec2  iResolution;
uniform float iTime;
`)
	for _, s := range samplers {
		fmt.Fprintf(&b, "uniform sampler2D %s;\n", s)
	}
	b.WriteString("out vec4 fragColor;\n")
	return b.String()
}

// GetMain returns the entry point calling the scene's mainImage().
func GetMain() string {
	return `
void main(void)
{
    mainImage(fragColor, gl_FragCoord.xy);
}
`
}

// GetFragmentShader combines the preamble, the scene code and the entry point.
func GetFragmentShader(user string, samplers ...string) string {
	return GeneratePreamble(samplers...) + user + GetMain()
}

// IsWebGL2 returns true if the source must be translated before it can be
// compiled for desktop GL.
func IsWebGL2(source string) bool {
	return strings.HasPrefix(strings.TrimSpace(source), WebGL2Version)
}

// Register adds the engine materials and the scene material to the library.
// An empty scene uses DefaultScene.
func Register(lib *material.Library, scene string) error {
	if scene == "" {
		scene = DefaultScene
	}

	sources := map[string]material.Source{
		nodes.DownSamplerMaterial: {Vertex: VertexShader(), Fragment: DownSamplerFragmentShader()},
		nodes.BlitMaterial:        {Vertex: VertexShader(), Fragment: BlitFragmentShader()},
		nodes.SceneMaterial:       {Vertex: VertexShader(), Fragment: GetFragmentShader(scene)},
	}
	for id, src := range sources {
		if err := lib.Register(id, src); err != nil {
			return fmt.Errorf("shader: %w", err)
		}
	}
	return nil
}
