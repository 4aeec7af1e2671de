// Package gpu declares the narrow graphics interfaces consumed by the render
// graph: a device for state binding and drawing, shader programs and the
// material resolver that produces them.
//
// Backends live elsewhere: package renderer drives OpenGL and package soft
// implements the same contracts on CPU images.
package gpu

import "errors"

// MaxTextureSlots is the number of texture units tracked by a Tracker.
const MaxTextureSlots = 16

// DefaultFramebuffer is the handle of the window-system framebuffer.
const DefaultFramebuffer uint32 = 0

// ErrUnresolved is returned when a material identifier cannot be resolved to
// a shader program.
var ErrUnresolved = errors.New("unresolved material")

// Device is the set of graphics calls the render graph issues. Calls are
// synchronous relative to command submission and are only made from the
// render thread.
type Device interface {
	BindFramebuffer(handle uint32)
	Viewport(x, y, width, height int32)
	BindTexture(slot int, texture uint32)
	UseProgram(handle uint32)
	QuadRenderer
}

// QuadRenderer draws one textured quad covering the active viewport.
type QuadRenderer interface {
	DrawFullscreenQuad()
}

// Program is a linked shader program. Uniform setters affect only the
// program they are called on and do not require it to be in use.
type Program interface {
	ID() string
	Handle() uint32
	SetFloat(name string, v float32)
	SetFloat2(name string, x, y float32)
	SetInt(name string, v int32)
}

// MaterialResolver resolves material identifiers (eg. "engine:prog.downSampler")
// to shader programs. Unknown identifiers fail with ErrUnresolved.
type MaterialResolver interface {
	Resolve(id string) (Program, error)
}
