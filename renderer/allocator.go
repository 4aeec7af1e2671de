package renderer

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/logger"
)

type texFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

func formatFor(f fbo.Format) (texFormat, error) {
	switch f {
	case fbo.RGBA8:
		return texFormat{internal: gl.RGBA8, format: gl.RGBA, xtype: gl.UNSIGNED_BYTE}, nil
	case fbo.RGBA16F:
		return texFormat{internal: gl.RGBA16F, format: gl.RGBA, xtype: gl.FLOAT}, nil
	case fbo.RGBA32F:
		return texFormat{internal: gl.RGBA32F, format: gl.RGBA, xtype: gl.FLOAT}, nil
	}
	return texFormat{}, fmt.Errorf("renderer: unsupported format %s", f)
}

// Allocate implements the fbo.Allocator interface. The framebuffer and
// texture bindings in effect before the call are restored.
func (r *Renderer) Allocate(cfg fbo.Config, dims fbo.Dimensions) (fbo.Handles, error) {
	if !dims.Valid() {
		return fbo.Handles{}, fmt.Errorf("renderer: cannot allocate %s", dims)
	}
	tf, err := formatFor(cfg.Format)
	if err != nil {
		return fbo.Handles{}, err
	}

	var prevFramebuffer, prevTexture int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFramebuffer)
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &prevTexture)
	defer func() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFramebuffer))
		gl.BindTexture(gl.TEXTURE_2D, uint32(prevTexture))
	}()

	var h fbo.Handles
	gl.GenFramebuffers(1, &h.Framebuffer)
	gl.BindFramebuffer(gl.FRAMEBUFFER, h.Framebuffer)

	gl.GenTextures(1, &h.Color)
	gl.BindTexture(gl.TEXTURE_2D, h.Color)
	gl.TexImage2D(gl.TEXTURE_2D, 0, tf.internal, int32(dims.Width), int32(dims.Height), 0, tf.format, tf.xtype, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, h.Color, 0)

	if cfg.Depth {
		gl.GenTextures(1, &h.Depth)
		gl.BindTexture(gl.TEXTURE_2D, h.Depth)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, int32(dims.Width), int32(dims.Height), 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, h.Depth, 0)
	}

	tex := fboTextures{color: h.Color, depth: h.Depth}
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		r.deleteFramebuffer(h.Framebuffer, tex)
		return fbo.Handles{}, fmt.Errorf("renderer: %s is not complete (status 0x%x)", cfg.Name, status)
	}

	r.framebuffers[h.Framebuffer] = tex
	logger.Logger().Debug("renderer: allocated fbo", "fbo", cfg.Name, "dims", dims, "format", cfg.Format, "framebuffer", h.Framebuffer)

	return h, nil
}

// Release implements the fbo.Allocator interface.
func (r *Renderer) Release(h fbo.Handles) {
	tex, ok := r.framebuffers[h.Framebuffer]
	if !ok {
		return
	}
	delete(r.framebuffers, h.Framebuffer)
	r.deleteFramebuffer(h.Framebuffer, tex)
}

func (r *Renderer) deleteFramebuffer(fb uint32, tex fboTextures) {
	gl.DeleteFramebuffers(1, &fb)
	gl.DeleteTextures(1, &tex.color)
	if tex.depth != 0 {
		gl.DeleteTextures(1, &tex.depth)
	}
}

// ReadPixels copies the colour attachment of f into an image. The rows are
// flipped so that the image's origin is the top left.
func (r *Renderer) ReadPixels(f *fbo.FBO) (*image.RGBA, error) {
	if _, ok := r.framebuffers[f.Handle()]; !ok {
		return nil, fmt.Errorf("%w: renderer: %s has no live framebuffer", fbo.ErrStale, f.Name())
	}

	img := image.NewRGBA(image.Rect(0, 0, f.Width(), f.Height()))

	var prevFramebuffer int32
	gl.GetIntegerv(gl.READ_FRAMEBUFFER_BINDING, &prevFramebuffer)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, f.Handle())
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(f.Width()), int32(f.Height()), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(prevFramebuffer))

	flipRows(img)
	return img, nil
}

func flipRows(img *image.RGBA) {
	h := img.Bounds().Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}
