package renderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/rendergraph/fbo"
)

func TestFormatFor(t *testing.T) {
	for _, f := range []fbo.Format{fbo.RGBA8, fbo.RGBA16F, fbo.RGBA32F} {
		tf, err := formatFor(f)
		require.NoError(t, err, f.String())
		assert.NotZero(t, tf.internal, f.String())
	}

	_, err := formatFor(fbo.Format(99))
	assert.Error(t, err)
}

func TestFlipRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(y), G: uint8(x), A: 255})
		}
	}

	flipRows(img)
	for y := 0; y < 3; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, color.RGBA{R: uint8(2 - y), G: uint8(x), A: 255}, img.RGBAAt(x, y))
		}
	}
}

func TestProgramLocationCache(t *testing.T) {
	p := &Program{
		names:     map[string]string{"iTime": "_uiTime"},
		locations: map[string]int32{"iTime": 3, "missing": -1},
	}
	assert.Equal(t, int32(3), p.location("iTime"))
	assert.Equal(t, int32(-1), p.location("missing"))

	// cached -1 locations make the setters no-ops without touching GL
	p.SetFloat("missing", 1)
	p.SetFloat2("missing", 1, 2)
	p.SetInt("missing", 1)
}
