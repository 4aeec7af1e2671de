// Package soft is a software rendering backend. It implements the FBO
// allocator, the graphics device and the material compiler on in-memory
// images so a render graph can run, and be tested, without a GPU context.
//
// Materials are Go kernels rather than shader source. The built-in kernels
// cover the materials used by package nodes.
package soft

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/nodes"
)

type framebuffer struct {
	color uint32
	depth uint32
}

// Backend is a complete software graphics backend. It is only used from the
// render thread and is not safe for concurrent use.
type Backend struct {
	next uint32

	textures     map[uint32]draw.Image
	framebuffers map[uint32]framebuffer
	screen       *image.RGBA

	kernels  map[string]Kernel
	programs map[uint32]*Program

	// device state
	bound    uint32
	viewport image.Rectangle
	slots    [gpu.MaxTextureSlots]uint32
	program  uint32
}

// New returns a backend whose default framebuffer is an image of the given
// size. The built-in kernels are registered.
func New(width int, height int) *Backend {
	b := &Backend{
		textures:     make(map[uint32]draw.Image),
		framebuffers: make(map[uint32]framebuffer),
		screen:       image.NewRGBA(image.Rect(0, 0, width, height)),
		kernels:      make(map[string]Kernel),
		programs:     make(map[uint32]*Program),
	}
	b.RegisterKernel(nodes.DownSamplerMaterial, DownSample)
	b.RegisterKernel(nodes.BlitMaterial, Blit)
	b.RegisterKernel(nodes.SceneMaterial, Scene)
	return b
}

func (b *Backend) handle() uint32 {
	b.next++
	return b.next
}

// Allocate implements the fbo.Allocator interface.
func (b *Backend) Allocate(cfg fbo.Config, dims fbo.Dimensions) (fbo.Handles, error) {
	if !dims.Valid() {
		return fbo.Handles{}, fmt.Errorf("soft: cannot allocate %s", dims)
	}

	r := image.Rect(0, 0, dims.Width, dims.Height)
	var h fbo.Handles

	h.Color = b.handle()
	switch cfg.Format {
	case fbo.RGBA8:
		b.textures[h.Color] = image.NewRGBA(r)
	case fbo.RGBA16F, fbo.RGBA32F:
		b.textures[h.Color] = image.NewRGBA64(r)
	default:
		return fbo.Handles{}, fmt.Errorf("soft: unsupported format %s", cfg.Format)
	}

	if cfg.Depth {
		h.Depth = b.handle()
		b.textures[h.Depth] = image.NewGray16(r)
	}

	h.Framebuffer = b.handle()
	b.framebuffers[h.Framebuffer] = framebuffer{color: h.Color, depth: h.Depth}

	return h, nil
}

// Release implements the fbo.Allocator interface.
func (b *Backend) Release(h fbo.Handles) {
	delete(b.framebuffers, h.Framebuffer)
	delete(b.textures, h.Color)
	delete(b.textures, h.Depth)
}

// Live returns the number of allocated textures.
func (b *Backend) Live() int {
	return len(b.textures)
}

// Texture returns the image behind a texture handle.
func (b *Backend) Texture(handle uint32) (draw.Image, bool) {
	img, ok := b.textures[handle]
	return img, ok
}

// Screen returns the image of the default framebuffer.
func (b *Backend) Screen() *image.RGBA {
	return b.screen
}

// SetScreenSize replaces the default framebuffer with a cleared image of the
// new size.
func (b *Backend) SetScreenSize(width int, height int) {
	b.screen = image.NewRGBA(image.Rect(0, 0, width, height))
}

// GetFramebufferSize returns the size of the default framebuffer. It allows
// the backend to be used as the surface of a presenting node.
func (b *Backend) GetFramebufferSize() (int, int) {
	s := b.screen.Bounds().Size()
	return s.X, s.Y
}

// ReadPixels returns a copy of the colour attachment of f.
func (b *Backend) ReadPixels(f *fbo.FBO) (*image.RGBA, error) {
	img, ok := b.textures[f.ColorTexture()]
	if !ok {
		return nil, fmt.Errorf("%w: soft: %s has no live colour texture", fbo.ErrStale, f.Name())
	}
	dst := image.NewRGBA(img.Bounds())
	draw.Copy(dst, image.Point{}, img, img.Bounds(), draw.Src, nil)
	return dst, nil
}
