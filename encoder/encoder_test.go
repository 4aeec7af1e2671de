package encoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/richinsley/rendergraph/fbo"
)

type bufferPipe struct {
	bytes.Buffer
	closed bool
}

func (b *bufferPipe) Close() error {
	b.closed = true
	return nil
}

func newTestRecorder(width, height int, exit error) (*Recorder, *bufferPipe) {
	pipe := &bufferPipe{}
	done := make(chan error, 1)
	done <- exit
	return newRecorder(Options{Output: "out.mp4", FPS: 30}, width, height, pipe, done), pipe
}

type imageSource struct {
	img *image.RGBA
	err error
}

func (s imageSource) ReadPixels(*fbo.FBO) (*image.RGBA, error) {
	return s.img, s.err
}

func TestArgs(t *testing.T) {
	in, out := getArgs(Options{Output: "out.mp4", FPS: 60}, 640, 360)
	assert.Equal(t, ffmpeg.KwArgs{"f": "rawvideo", "pix_fmt": "rgba", "s": "640x360", "r": "60"}, in)
	assert.Equal(t, ffmpeg.KwArgs{"pix_fmt": "yuv420p", "c:v": "libx264"}, out)

	_, out = getArgs(Options{Output: "out.MP4", FPS: 60, Codec: "hevc"}, 640, 360)
	assert.Equal(t, "libx265", out["c:v"])
	assert.Equal(t, "hvc1", out["tag:v"])

	_, out = getArgs(Options{Output: "out.mkv", FPS: 60, Codec: "hevc"}, 640, 360)
	assert.NotContains(t, out, "tag:v")

	args := command(Options{Output: "out.mp4", FPS: 30}, 8, 8).GetArgs()
	assert.Contains(t, args, "pipe:")
	assert.Contains(t, args, "rawvideo")
	assert.Contains(t, args, "-y")
	assert.Contains(t, args, "out.mp4")
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, Options{Output: "a.mp4", FPS: 30}.Validate())
	assert.Error(t, Options{FPS: 30}.Validate())
	assert.Error(t, Options{Output: "a.mp4"}.Validate())
	assert.Error(t, Options{Output: "a.mp4", FPS: 30, Codec: "vp9"}.Validate())

	_, err := NewRecorder(Options{Output: "a.mp4", FPS: 30}, 0, 10)
	assert.Error(t, err)
}

func TestWriteFrame(t *testing.T) {
	r, pipe := newTestRecorder(2, 2, nil)

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(1, 1, color.RGBA{R: 1, G: 2, B: 3, A: 4})
	require.NoError(t, r.WriteFrame(img))
	assert.Equal(t, 16, pipe.Len())
	assert.Equal(t, []byte{1, 2, 3, 4}, pipe.Bytes()[12:16])

	// sub-images are written row by row
	big := image.NewRGBA(image.Rect(0, 0, 4, 4))
	big.SetRGBA(2, 2, color.RGBA{R: 9, A: 255})
	require.NoError(t, r.WriteFrame(big.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)))
	assert.Equal(t, 32, pipe.Len())
	assert.Equal(t, byte(9), pipe.Bytes()[16+12])

	assert.Error(t, r.WriteFrame(image.NewRGBA(image.Rect(0, 0, 3, 2))))
	assert.Equal(t, 2, r.Frames())

	require.NoError(t, r.Close())
	assert.True(t, pipe.closed)
	assert.ErrorIs(t, r.WriteFrame(img), ErrClosed)
	assert.NoError(t, r.Close())
}

func TestCapture(t *testing.T) {
	r, pipe := newTestRecorder(2, 2, nil)

	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	require.NoError(t, r.Capture(imageSource{img: src}, nil))
	assert.Equal(t, 16, pipe.Len())
	for _, b := range pipe.Bytes() {
		assert.InDelta(t, 200, float64(b), 1)
	}

	err := r.Capture(imageSource{err: fbo.ErrStale}, nil)
	assert.ErrorIs(t, err, fbo.ErrStale)
	assert.Equal(t, 1, r.Frames())
}

func TestCloseReportsExitError(t *testing.T) {
	r, _ := newTestRecorder(2, 2, errors.New("exit status 1"))
	assert.Error(t, r.Close())
}
