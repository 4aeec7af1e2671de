// Package nodes contains the concrete render nodes: the downsampler, a
// generic full-screen material pass and the presenter that copies an FBO to
// the window.
package nodes

import (
	"fmt"

	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/monitor"
)

// Material identifiers of the programs used by the nodes in this package.
const (
	DownSamplerMaterial = "engine:prog.downSampler"
	BlitMaterial        = "engine:prog.blit"

	// drawn by the FullscreenPass that produces the source image of a
	// downsample chain
	SceneMaterial = "engine:prog.scene"
)

// Uniform names.
const (
	TextureUniform    = "tex"
	SizeUniform       = "size"
	TimeUniform       = "iTime"
	ResolutionUniform = "iResolution"
)

// Deps are the collaborators shared by every node.
type Deps struct {
	Materials gpu.MaterialResolver
	Quad      gpu.QuadRenderer

	// a nil Monitor is replaced by monitor.Nop
	Monitor monitor.Monitor

	// seconds since the start of rendering. nil reads as zero
	Time func() float32
}

func (d Deps) withDefaults() Deps {
	if d.Monitor == nil {
		d.Monitor = monitor.Nop{}
	}
	if d.Time == nil {
		d.Time = func() float32 { return 0 }
	}
	return d
}

func (d Deps) check(node string) error {
	if d.Materials == nil {
		return fmt.Errorf("%w: %s: no material resolver", gpu.ErrUnresolved, node)
	}
	if d.Quad == nil {
		return fmt.Errorf("%w: %s: no quad renderer", fbo.ErrInvalidConfig, node)
	}
	return nil
}

// output is the cached output FBO of a node. Nodes call refresh() from their
// Update() method.
type output struct {
	node    string
	name    string
	manager *fbo.Manager
	fbo     *fbo.FBO
}

func (o *output) refresh() {
	f, err := o.manager.Get(o.name)
	if err != nil {
		return
	}
	o.fbo = f
}

// current returns the cached instance. ErrStale is returned if the manager has
// replaced it and ErrReleased if the manager has been torn down.
func (o *output) current() (*fbo.FBO, error) {
	if o.fbo != nil && o.fbo.Status() == fbo.Released {
		return nil, fmt.Errorf("%w: %s: %s/%s", fbo.ErrReleased, o.node, o.manager, o.name)
	}
	if !o.manager.IsCurrent(o.fbo) {
		return nil, fmt.Errorf("%w: %s: %s/%s", fbo.ErrStale, o.node, o.manager, o.name)
	}
	return o.fbo, nil
}
