package soft

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/material"
)

// DrawContext is passed to a kernel for every full-screen quad.
type DrawContext struct {
	// the colour attachment of the bound framebuffer
	Target draw.Image

	// the viewport, clipped to Target
	Rect image.Rectangle

	Program *Program

	backend *Backend
}

// Sampler returns the texture bound to the slot named by the program's
// integer uniform.
func (dc *DrawContext) Sampler(uniform string) (image.Image, bool) {
	slot := int(dc.Program.Int(uniform))
	if slot < 0 || slot >= gpu.MaxTextureSlots {
		return nil, false
	}
	img, ok := dc.backend.textures[dc.backend.slots[slot]]
	return img, ok
}

// Kernel is the software equivalent of a fragment shader.
type Kernel func(dc *DrawContext)

// RegisterKernel makes a kernel available to Compile() under the material
// identifier.
func (b *Backend) RegisterKernel(id string, k Kernel) {
	b.kernels[id] = k
}

// Compile implements the material.Compiler interface. The shader source is
// ignored; the program runs the kernel registered for the identifier.
func (b *Backend) Compile(id string, _ material.Source) (gpu.Program, error) {
	k, ok := b.kernels[id]
	if !ok {
		return nil, fmt.Errorf("soft: no kernel for %s", id)
	}
	p := &Program{
		id:     id,
		handle: b.handle(),
		kernel: k,
		floats: make(map[string]float32),
		vec2s:  make(map[string][2]float32),
		ints:   make(map[string]int32),
	}
	b.programs[p.handle] = p
	return p, nil
}

// Delete implements the material.Compiler interface.
func (b *Backend) Delete(p gpu.Program) {
	delete(b.programs, p.Handle())
}

// Program is a compiled software program.
type Program struct {
	id     string
	handle uint32
	kernel Kernel

	floats map[string]float32
	vec2s  map[string][2]float32
	ints   map[string]int32
}

// ID implements the gpu.Program interface.
func (p *Program) ID() string {
	return p.id
}

// Handle implements the gpu.Program interface.
func (p *Program) Handle() uint32 {
	return p.handle
}

// SetFloat implements the gpu.Program interface.
func (p *Program) SetFloat(name string, v float32) {
	p.floats[name] = v
}

// SetFloat2 implements the gpu.Program interface.
func (p *Program) SetFloat2(name string, x, y float32) {
	p.vec2s[name] = [2]float32{x, y}
}

// SetInt implements the gpu.Program interface.
func (p *Program) SetInt(name string, v int32) {
	p.ints[name] = v
}

// Float returns the value of a float uniform.
func (p *Program) Float(name string) float32 {
	return p.floats[name]
}

// Float2 returns the value of a vec2 uniform.
func (p *Program) Float2(name string) (float32, float32) {
	v := p.vec2s[name]
	return v[0], v[1]
}

// Int returns the value of an integer uniform.
func (p *Program) Int(name string) int32 {
	return p.ints[name]
}

// box averages every source pixel covered by a destination pixel.
var box = &draw.Kernel{
	Support: 0.5,
	At: func(float64) float64 {
		return 1
	},
}

// DownSample scales the texture sampled by "tex" into the viewport with a box
// filter.
func DownSample(dc *DrawContext) {
	src, ok := dc.Sampler("tex")
	if !ok {
		return
	}
	box.Scale(dc.Target, dc.Rect, src, src.Bounds(), draw.Src, nil)
}

// Blit stretches the texture sampled by "tex" over the viewport.
func Blit(dc *DrawContext) {
	src, ok := dc.Sampler("tex")
	if !ok {
		return
	}
	draw.BiLinear.Scale(dc.Target, dc.Rect, src, src.Bounds(), draw.Src, nil)
}

// Scene fills the viewport with a horizontal and vertical colour ramp whose
// blue channel pulses with iTime.
func Scene(dc *DrawContext) {
	t := float64(dc.Program.Float("iTime"))
	w, h := dc.Program.Float2("iResolution")
	if w <= 0 || h <= 0 {
		w = float32(dc.Rect.Dx())
		h = float32(dc.Rect.Dy())
	}

	blue := uint8(127.5 + 127.5*math.Sin(t))
	for y := dc.Rect.Min.Y; y < dc.Rect.Max.Y; y++ {
		g := ramp(y-dc.Rect.Min.Y, h)
		for x := dc.Rect.Min.X; x < dc.Rect.Max.X; x++ {
			r := ramp(x-dc.Rect.Min.X, w)
			dc.Target.Set(x, y, color.RGBA{R: r, G: g, B: blue, A: 255})
		}
	}
}

func ramp(i int, n float32) uint8 {
	return uint8(min(255, 255*float32(i)/n))
}
