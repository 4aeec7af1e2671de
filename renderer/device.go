package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/logger"
)

// BindFramebuffer implements the gpu.Device interface.
func (r *Renderer) BindFramebuffer(handle uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, handle)
}

// Viewport implements the gpu.Device interface.
func (r *Renderer) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

// BindTexture implements the gpu.Device interface.
func (r *Renderer) BindTexture(slot int, texture uint32) {
	if slot < 0 || slot >= gpu.MaxTextureSlots {
		logger.Logger().Warn("renderer: texture slot out of range", "slot", slot)
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
	gl.BindTexture(gl.TEXTURE_2D, texture)
}

// UseProgram implements the gpu.Device interface.
func (r *Renderer) UseProgram(handle uint32) {
	gl.UseProgram(handle)
}

// DrawFullscreenQuad implements the gpu.Device interface.
func (r *Renderer) DrawFullscreenQuad() {
	gl.BindVertexArray(r.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
}
