package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/rendergraph/dag"
	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/material"
	"github.com/richinsley/rendergraph/nodes"
	"github.com/richinsley/rendergraph/options"
	"github.com/richinsley/rendergraph/shader"
	"github.com/richinsley/rendergraph/soft"
	"github.com/richinsley/rendergraph/state"
)

type harness struct {
	backend *soft.Backend
	manager *fbo.Manager
	driver  *dag.Driver
	deps    nodes.Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{backend: soft.New(64, 64)}
	library := material.NewLibrary(h.backend)
	require.NoError(t, shader.Register(library, ""))
	h.manager = fbo.NewManager("display", h.backend, fbo.Dimensions{Width: 64, Height: 64})
	env := &state.Env{GPU: gpu.NewTracker(h.backend, gpu.State{}), Materials: library}
	h.driver = dag.NewDriver(env)
	h.deps = nodes.Deps{Materials: library, Quad: env.GPU}
	return h
}

func TestBuildDefaultGraph(t *testing.T) {
	h := newHarness(t)
	p := options.DefaultPipeline()
	settings := options.NewSettings(p.Settings)

	out, err := buildGraph(p, settings, h.deps, h.manager, h.driver, h.backend)
	require.NoError(t, err)
	assert.Equal(t, "scene/8", out.Name)
	// scene, three downsamplers and the presenter
	assert.Len(t, h.driver.Nodes(), 5)

	require.NoError(t, h.driver.RenderFrame())
	assert.Equal(t, dag.FrameStats{Processed: 5}, h.driver.LastFrame())

	settings.Toggle("downsample")
	require.NoError(t, h.driver.RenderFrame())
	assert.Equal(t, dag.FrameStats{Processed: 2, Skipped: 3}, h.driver.LastFrame())

	f, err := h.manager.Get(out.Name)
	require.NoError(t, err)
	assert.Equal(t, fbo.Dimensions{Width: 8, Height: 8}, f.Dimensions())

	require.NoError(t, h.manager.SetBaseDimensions(fbo.Dimensions{Width: 128, Height: 64}))
	f, err = h.manager.Get(out.Name)
	require.NoError(t, err)
	assert.Equal(t, fbo.Dimensions{Width: 16, Height: 8}, f.Dimensions())
	settings.Toggle("downsample")
	require.NoError(t, h.driver.RenderFrame())

	h.driver.Dispose()
	h.manager.Release()
	assert.Equal(t, 0, h.backend.Live())
}

func TestBuildPipelineGraph(t *testing.T) {
	h := newHarness(t)
	p, err := options.ParsePipeline([]byte(`
present = "small"

[settings]
debug = false

[[fbo]]
name = "scene"
scale = "full"

[[fbo]]
name = "small"
width = 32
height = 32

[scene]
output = "scene"

[[downsample]]
label = "DOWNSAMPLE_SMALL"
input = "scene"
output = "small"
condition = "!debug"
`))
	require.NoError(t, err)

	out, err := buildGraph(p, options.NewSettings(p.Settings), h.deps, h.manager, h.driver, nil)
	require.NoError(t, err)
	assert.Equal(t, fbo.NewConfig("small", 32, 32, fbo.RGBA8), out)
	// no surface, no presenter
	assert.Len(t, h.driver.Nodes(), 2)

	require.NoError(t, h.driver.RenderFrame())
	f, err := h.manager.Get("small")
	require.NoError(t, err)
	pix, err := h.backend.ReadPixels(f)
	require.NoError(t, err)
	assert.Greater(t, pix.RGBAAt(31, 0).R, pix.RGBAAt(0, 0).R)
}

func TestBuildGraphErrors(t *testing.T) {
	h := newHarness(t)
	p := options.DefaultPipeline()
	p.Present = "nowhere"
	_, err := buildGraph(p, options.NewSettings(p.Settings), h.deps, h.manager, h.driver, nil)
	assert.ErrorIs(t, err, options.ErrPipeline)

	h = newHarness(t)
	p = options.DefaultPipeline()
	_, err = buildGraph(p, options.NewSettings(nil), h.deps, h.manager, h.driver, nil)
	assert.ErrorIs(t, err, options.ErrUnknownSetting)
}
