// Package encoder records rendered frames to a video file by piping raw RGBA
// frames into an ffmpeg process.
package encoder

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/image/draw"

	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/logger"
)

// ErrClosed is returned when writing to a recorder that has been closed.
var ErrClosed = errors.New("recorder closed")

// PixelSource reads back the colour attachment of an FBO. Implemented by the
// renderer and soft backends.
type PixelSource interface {
	ReadPixels(f *fbo.FBO) (*image.RGBA, error)
}

// Options for a Recorder.
type Options struct {
	// output file. the container is chosen by ffmpeg from the extension
	Output string

	FPS int

	// path to the ffmpeg binary. empty uses the one on PATH
	FFmpegPath string

	// "h264" or "hevc"
	Codec string
}

// Validate checks the options before ffmpeg is started.
func (o Options) Validate() error {
	if o.Output == "" {
		return fmt.Errorf("encoder: no output file")
	}
	if o.FPS <= 0 {
		return fmt.Errorf("encoder: invalid frame rate %d", o.FPS)
	}
	switch o.Codec {
	case "", "h264", "hevc":
	default:
		return fmt.Errorf("encoder: unsupported codec %q", o.Codec)
	}
	return nil
}

func getArgs(opts Options, width, height int) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", width, height),
		"r":       fmt.Sprintf("%d", opts.FPS),
	}

	outputArgs = ffmpeg.KwArgs{
		"pix_fmt": "yuv420p",
	}
	if opts.Codec == "hevc" {
		outputArgs["c:v"] = "libx265"
		if strings.EqualFold(filepath.Ext(opts.Output), ".mp4") {
			outputArgs["tag:v"] = "hvc1"
		}
	} else {
		outputArgs["c:v"] = "libx264"
	}
	return
}

func command(opts Options, width, height int) *ffmpeg.Stream {
	inputArgs, outputArgs := getArgs(opts, width, height)
	cmd := ffmpeg.Input("pipe:", inputArgs).
		Output(opts.Output, outputArgs).
		OverWriteOutput()
	if opts.FFmpegPath != "" {
		cmd = cmd.SetFfmpegPath(opts.FFmpegPath)
	}
	return cmd
}

// Recorder writes frames of a fixed size to an ffmpeg process.
type Recorder struct {
	opts   Options
	width  int
	height int

	pipe io.WriteCloser
	done <-chan error

	// reused when a captured frame must be scaled to the recorder size
	scaled *image.RGBA

	frames int
	closed bool
}

// NewRecorder starts ffmpeg and returns a Recorder for frames of the given
// size.
func NewRecorder(opts Options, width, height int) (*Recorder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("encoder: invalid frame size %dx%d", width, height)
	}

	pipeReader, pipeWriter := io.Pipe()
	cmd := command(opts, width, height).WithInput(pipeReader).ErrorToStdOut()

	done := make(chan error, 1)
	go func() {
		err := cmd.Run()
		// unblock writers if ffmpeg exits early
		if err != nil {
			pipeReader.CloseWithError(err)
		} else {
			pipeReader.Close()
		}
		done <- err
	}()

	logger.Logger().Info("encoder: recording", "output", opts.Output, "size", fmt.Sprintf("%dx%d", width, height), "fps", opts.FPS)

	return newRecorder(opts, width, height, pipeWriter, done), nil
}

func newRecorder(opts Options, width, height int, pipe io.WriteCloser, done <-chan error) *Recorder {
	return &Recorder{
		opts:   opts,
		width:  width,
		height: height,
		pipe:   pipe,
		done:   done,
	}
}

// Frames returns the number of frames written.
func (r *Recorder) Frames() int {
	return r.frames
}

// WriteFrame writes an image of exactly the recorder's size.
func (r *Recorder) WriteFrame(img *image.RGBA) error {
	if r.closed {
		return ErrClosed
	}
	b := img.Bounds()
	if b.Dx() != r.width || b.Dy() != r.height {
		return fmt.Errorf("encoder: frame is %dx%d, expected %dx%d", b.Dx(), b.Dy(), r.width, r.height)
	}

	rowLen := r.width * 4
	if img.Stride == rowLen && len(img.Pix) == rowLen*r.height {
		if _, err := r.pipe.Write(img.Pix); err != nil {
			return fmt.Errorf("encoder: %w", err)
		}
	} else {
		for y := 0; y < r.height; y++ {
			off := img.PixOffset(b.Min.X, b.Min.Y+y)
			if _, err := r.pipe.Write(img.Pix[off : off+rowLen]); err != nil {
				return fmt.Errorf("encoder: %w", err)
			}
		}
	}

	r.frames++
	return nil
}

// Capture reads back the FBO and writes it as the next frame. FBOs whose
// size differs from the recorder's are scaled.
func (r *Recorder) Capture(src PixelSource, f *fbo.FBO) error {
	img, err := src.ReadPixels(f)
	if err != nil {
		return err
	}

	if img.Bounds().Dx() != r.width || img.Bounds().Dy() != r.height {
		if r.scaled == nil {
			r.scaled = image.NewRGBA(image.Rect(0, 0, r.width, r.height))
		}
		draw.ApproxBiLinear.Scale(r.scaled, r.scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = r.scaled
	}

	return r.WriteFrame(img)
}

// Close ends the stream and waits for ffmpeg to finish writing the output.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.pipe.Close(); err != nil {
		return fmt.Errorf("encoder: %w", err)
	}
	if err := <-r.done; err != nil {
		return fmt.Errorf("encoder: ffmpeg: %w", err)
	}

	logger.Logger().Info("encoder: finished", "output", r.opts.Output, "frames", r.frames)
	return nil
}
