package soft

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/logger"
)

// BindFramebuffer implements the gpu.Device interface.
func (b *Backend) BindFramebuffer(handle uint32) {
	b.bound = handle
}

// Viewport implements the gpu.Device interface.
func (b *Backend) Viewport(x, y, width, height int32) {
	b.viewport = image.Rect(int(x), int(y), int(x+width), int(y+height))
}

// BindTexture implements the gpu.Device interface.
func (b *Backend) BindTexture(slot int, texture uint32) {
	if slot < 0 || slot >= gpu.MaxTextureSlots {
		logger.Logger().Warn("soft: texture slot out of range", "slot", slot)
		return
	}
	b.slots[slot] = texture
}

// UseProgram implements the gpu.Device interface.
func (b *Backend) UseProgram(handle uint32) {
	b.program = handle
}

func (b *Backend) target() draw.Image {
	if b.bound == gpu.DefaultFramebuffer {
		return b.screen
	}
	fb, ok := b.framebuffers[b.bound]
	if !ok {
		return nil
	}
	return b.textures[fb.color]
}

// DrawFullscreenQuad implements the gpu.Device interface. The kernel of the
// current program is run over the viewport of the bound framebuffer.
func (b *Backend) DrawFullscreenQuad() {
	prog, ok := b.programs[b.program]
	if !ok {
		logger.Logger().Warn("soft: draw without program", "program", b.program)
		return
	}

	dst := b.target()
	if dst == nil {
		logger.Logger().Warn("soft: draw to released framebuffer", "framebuffer", b.bound)
		return
	}

	r := b.viewport.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}

	prog.kernel(&DrawContext{
		Target:  dst,
		Rect:    r,
		Program: prog,
		backend: b,
	})
}
