package state

import (
	"fmt"

	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/gpu"
)

func requireFBO(m *fbo.Manager, name string) error {
	if m == nil {
		return fmt.Errorf("%w: %s: no manager", fbo.ErrUnknownFBO, name)
	}
	if !m.Has(name) {
		return fmt.Errorf("%w: %s: %s", fbo.ErrUnknownFBO, m, name)
	}
	return nil
}

// BindFBO binds the named FBO as the render target. The FBO is looked up
// when the change is applied so a resize never leaves a stale handle bound.
type BindFBO struct {
	Name    string
	Manager *fbo.Manager
}

func (c BindFBO) String() string {
	return fmt.Sprintf("bind fbo %s/%s", c.Manager, c.Name)
}

// Validate implements the Change interface.
func (c BindFBO) Validate(gpu.MaterialResolver) error {
	return requireFBO(c.Manager, c.Name)
}

// Apply implements the Change interface.
func (c BindFBO) Apply(env *Env) (Undo, error) {
	f, err := c.Manager.Get(c.Name)
	if err != nil {
		return nil, err
	}
	prev := env.GPU.CurrentFramebuffer()
	env.GPU.BindFramebuffer(f.Handle())
	return func() { env.GPU.BindFramebuffer(prev) }, nil
}

// SetViewportToSizeOf sets the viewport to cover the named FBO.
type SetViewportToSizeOf struct {
	Name    string
	Manager *fbo.Manager
}

func (c SetViewportToSizeOf) String() string {
	return fmt.Sprintf("viewport to size of %s/%s", c.Manager, c.Name)
}

// Validate implements the Change interface.
func (c SetViewportToSizeOf) Validate(gpu.MaterialResolver) error {
	return requireFBO(c.Manager, c.Name)
}

// Apply implements the Change interface.
func (c SetViewportToSizeOf) Apply(env *Env) (Undo, error) {
	f, err := c.Manager.Get(c.Name)
	if err != nil {
		return nil, err
	}
	prev := env.GPU.CurrentViewport()
	env.GPU.Viewport(0, 0, int32(f.Width()), int32(f.Height()))
	return func() { env.GPU.Viewport(prev[0], prev[1], prev[2], prev[3]) }, nil
}

// SetInputTextureFromFBO binds one attachment of the named FBO to a texture
// slot and points the material's sampler uniform at that slot.
//
// Only the texture binding is reverted. The sampler uniform belongs to the
// material's program and is not visible to other programs.
type SetInputTextureFromFBO struct {
	Slot       int
	Name       string
	Attachment fbo.Attachment
	Manager    *fbo.Manager
	Material   string
	Uniform    string
}

func (c SetInputTextureFromFBO) String() string {
	return fmt.Sprintf("input texture %d from %s/%s %s for %s.%s", c.Slot, c.Manager, c.Name, c.Attachment, c.Material, c.Uniform)
}

// Validate implements the Change interface.
func (c SetInputTextureFromFBO) Validate(materials gpu.MaterialResolver) error {
	if c.Slot < 0 || c.Slot >= gpu.MaxTextureSlots {
		return fmt.Errorf("%w: texture slot %d out of range", fbo.ErrInvalidConfig, c.Slot)
	}
	if err := requireFBO(c.Manager, c.Name); err != nil {
		return err
	}
	if c.Attachment == fbo.DepthAttachment {
		cfg, _ := c.Manager.Config(c.Name)
		if !cfg.Depth {
			return fmt.Errorf("%w: %s has no depth attachment", fbo.ErrInvalidConfig, c.Name)
		}
	}
	if materials == nil {
		return fmt.Errorf("%w: %s: no material resolver", gpu.ErrUnresolved, c.Material)
	}
	_, err := materials.Resolve(c.Material)
	return err
}

// Apply implements the Change interface.
func (c SetInputTextureFromFBO) Apply(env *Env) (Undo, error) {
	f, err := c.Manager.Get(c.Name)
	if err != nil {
		return nil, err
	}
	prog, err := env.Materials.Resolve(c.Material)
	if err != nil {
		return nil, err
	}
	prev := env.GPU.CurrentTexture(c.Slot)
	env.GPU.BindTexture(c.Slot, f.Texture(c.Attachment))
	prog.SetInt(c.Uniform, int32(c.Slot))
	return func() { env.GPU.BindTexture(c.Slot, prev) }, nil
}

// EnableMaterial makes the material's program current.
type EnableMaterial struct {
	Material string
}

func (c EnableMaterial) String() string {
	return fmt.Sprintf("enable material %s", c.Material)
}

// Validate implements the Change interface.
func (c EnableMaterial) Validate(materials gpu.MaterialResolver) error {
	if materials == nil {
		return fmt.Errorf("%w: %s: no material resolver", gpu.ErrUnresolved, c.Material)
	}
	_, err := materials.Resolve(c.Material)
	return err
}

// Apply implements the Change interface.
func (c EnableMaterial) Apply(env *Env) (Undo, error) {
	prog, err := env.Materials.Resolve(c.Material)
	if err != nil {
		return nil, err
	}
	prev := env.GPU.CurrentProgram()
	env.GPU.UseProgram(prog.Handle())
	return func() { env.GPU.UseProgram(prev) }, nil
}

// Surface reports the size of the window-system framebuffer.
// graphics.Context satisfies this interface.
type Surface interface {
	GetFramebufferSize() (int, int)
}

// BindDefaultFramebuffer binds the window-system framebuffer and sets the
// viewport to the size of the surface.
type BindDefaultFramebuffer struct {
	Surface Surface
}

func (c BindDefaultFramebuffer) String() string {
	return "bind default framebuffer"
}

// Validate implements the Change interface.
func (c BindDefaultFramebuffer) Validate(gpu.MaterialResolver) error {
	if c.Surface == nil {
		return fmt.Errorf("%w: default framebuffer without surface", fbo.ErrInvalidConfig)
	}
	return nil
}

// Apply implements the Change interface.
func (c BindDefaultFramebuffer) Apply(env *Env) (Undo, error) {
	w, h := c.Surface.GetFramebufferSize()
	prevFBO := env.GPU.CurrentFramebuffer()
	prevVP := env.GPU.CurrentViewport()
	env.GPU.BindFramebuffer(gpu.DefaultFramebuffer)
	env.GPU.Viewport(0, 0, int32(w), int32(h))
	return func() {
		env.GPU.Viewport(prevVP[0], prevVP[1], prevVP[2], prevVP[3])
		env.GPU.BindFramebuffer(prevFBO)
	}, nil
}
