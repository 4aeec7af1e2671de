package soft

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/rendergraph/dag"
	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/material"
	"github.com/richinsley/rendergraph/nodes"
	"github.com/richinsley/rendergraph/state"
)

type pipeline struct {
	backend *Backend
	manager *fbo.Manager
	library *material.Library
	env     *state.Env
	driver  *dag.Driver
	deps    nodes.Deps
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	p := &pipeline{backend: New(64, 48)}
	p.manager = fbo.NewManager("display", p.backend, fbo.Dimensions{Width: 64, Height: 48})
	p.library = material.NewLibrary(p.backend)
	for _, id := range []string{nodes.DownSamplerMaterial, nodes.BlitMaterial, nodes.SceneMaterial} {
		require.NoError(t, p.library.Register(id, material.Source{}))
	}
	p.env = &state.Env{GPU: gpu.NewTracker(p.backend, gpu.State{}), Materials: p.library}
	p.driver = dag.NewDriver(p.env)
	p.deps = nodes.Deps{Materials: p.library, Quad: p.env.GPU}
	return p
}

func fill(img setter, c color.Color) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

type setter interface {
	Bounds() image.Rectangle
	Set(x, y int, c color.Color)
}

func TestAllocateRelease(t *testing.T) {
	b := New(8, 8)

	h, err := b.Allocate(fbo.Config{Name: "a", Width: 4, Height: 2, Depth: true}, fbo.Dimensions{Width: 4, Height: 2})
	require.NoError(t, err)
	assert.NotZero(t, h.Framebuffer)
	assert.NotZero(t, h.Color)
	assert.NotZero(t, h.Depth)
	assert.Equal(t, 2, b.Live())

	img, ok := b.Texture(h.Color)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())

	h16, err := b.Allocate(fbo.NewConfig("b", 2, 2, fbo.RGBA16F), fbo.Dimensions{Width: 2, Height: 2})
	require.NoError(t, err)
	img, _ = b.Texture(h16.Color)
	assert.IsType(t, &image.RGBA64{}, img)

	b.Release(h)
	b.Release(h16)
	assert.Equal(t, 0, b.Live())

	_, err = b.Allocate(fbo.NewConfig("c", 1, 1, fbo.RGBA8), fbo.Dimensions{})
	assert.Error(t, err)

	w, hgt := b.GetFramebufferSize()
	assert.Equal(t, 8, w)
	assert.Equal(t, 8, hgt)
}

func TestResizeReleasesOldInstance(t *testing.T) {
	p := newPipeline(t)
	_, err := p.manager.Request(fbo.NewConfig("a", 16, 16, fbo.RGBA8))
	require.NoError(t, err)
	assert.Equal(t, 1, p.backend.Live())

	require.NoError(t, p.manager.Resize("a", fbo.Dimensions{Width: 8, Height: 8}))
	assert.Equal(t, 1, p.backend.Live())

	p.manager.Release()
	assert.Equal(t, 0, p.backend.Live())
}

func TestDownSampleAverages(t *testing.T) {
	p := newPipeline(t)

	in := fbo.NewConfig("in", 2, 2, fbo.RGBA8)
	out := fbo.NewConfig("out", 1, 1, fbo.RGBA8)

	n := nodes.NewDownSampler("downsampler", p.deps)
	require.NoError(t, n.Initialise(in, p.manager, out, p.manager, "DOWNSAMPLE"))
	require.NoError(t, p.driver.Add(n))

	src, err := p.manager.Get("in")
	require.NoError(t, err)
	img, ok := p.backend.Texture(src.ColorTexture())
	require.True(t, ok)
	img.Set(0, 0, color.RGBA{A: 255})
	img.Set(1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(0, 1, color.RGBA{A: 255})
	img.Set(1, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	require.NoError(t, p.driver.RenderFrame())

	pix, err := p.backend.ReadPixels(n.OutputFBO())
	require.NoError(t, err)
	c := pix.RGBAAt(0, 0)
	assert.InDelta(t, 127.5, float64(c.R), 1)
	assert.InDelta(t, 127.5, float64(c.G), 1)
	assert.Equal(t, uint8(255), c.A)
}

func TestDownSampleAfterResize(t *testing.T) {
	p := newPipeline(t)

	in := fbo.NewConfig("in", 256, 256, fbo.RGBA8)
	out := fbo.NewConfig("out", 256, 256, fbo.RGBA8)

	n := nodes.NewDownSampler("downsampler", p.deps)
	require.NoError(t, n.Initialise(in, p.manager, out, p.manager, "DOWNSAMPLE"))
	require.NoError(t, p.driver.Add(n))

	src, err := p.manager.Get("in")
	require.NoError(t, err)
	img, _ := p.backend.Texture(src.ColorTexture())
	fill(img, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	require.NoError(t, p.manager.Resize("out", fbo.Dimensions{Width: 128, Height: 128}))
	assert.Equal(t, 128, n.OutputFBO().Width())

	require.NoError(t, p.driver.RenderFrame())

	prog, err := p.library.Resolve(nodes.DownSamplerMaterial)
	require.NoError(t, err)
	assert.Equal(t, float32(128), prog.(*Program).Float(nodes.SizeUniform))

	pix, err := p.backend.ReadPixels(n.OutputFBO())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 128, 128), pix.Bounds())
	c := pix.RGBAAt(64, 64)
	assert.InDelta(t, 200, float64(c.R), 1)
	assert.InDelta(t, 100, float64(c.G), 1)
	assert.InDelta(t, 50, float64(c.B), 1)
}

func TestSceneChainPresent(t *testing.T) {
	p := newPipeline(t)
	p.deps.Time = func() float32 { return 0 }

	scene := fbo.NewScaledConfig("scene", fbo.FullScale, fbo.RGBA8)
	pass := nodes.NewFullscreenPass("scene", nodes.SceneMaterial, p.deps)
	require.NoError(t, pass.Initialise(scene, p.manager, "SCENE"))
	require.NoError(t, p.driver.Add(pass))

	chain, err := nodes.NewDownSampleChain(p.deps, scene, p.manager, p.manager, 2)
	require.NoError(t, err)
	for _, n := range chain {
		require.NoError(t, p.driver.Add(n))
	}

	present := nodes.NewPresent("present", p.backend, p.deps)
	require.NoError(t, present.Initialise(chain[len(chain)-1].OutputConfig(), p.manager, "PRESENT"))
	require.NoError(t, p.driver.Add(present))

	before := p.env.GPU.Snapshot()
	require.NoError(t, p.driver.RenderFrame())
	assert.Equal(t, before, p.env.GPU.Snapshot())
	assert.Equal(t, 4, p.env.GPU.Stats().Draws)

	// the ramp is red on the right and dark on the left at every level
	for _, n := range chain {
		pix, err := p.backend.ReadPixels(n.OutputFBO())
		require.NoError(t, err)
		w := pix.Bounds().Dx()
		assert.Greater(t, pix.RGBAAt(w-1, 0).R, pix.RGBAAt(0, 0).R)
	}

	screen := p.backend.Screen()
	assert.Greater(t, screen.RGBAAt(63, 0).R, screen.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(255), screen.RGBAAt(10, 10).A)

	// base dimension change reallocates the whole chain
	require.NoError(t, p.manager.SetBaseDimensions(fbo.Dimensions{Width: 32, Height: 32}))
	require.NoError(t, p.driver.RenderFrame())
	pix, err := p.backend.ReadPixels(chain[1].OutputFBO())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), pix.Bounds())
}

func TestDrawWithoutProgram(t *testing.T) {
	b := New(4, 4)
	b.Viewport(0, 0, 4, 4)
	b.DrawFullscreenQuad()
	assert.Equal(t, color.RGBA{}, b.Screen().RGBAAt(0, 0))
}
