// Package options holds the command line options of rendergraph and the
// pipeline description file it reads.
package options

import (
	"flag"
	"fmt"

	"github.com/richinsley/rendergraph/encoder"
	"github.com/richinsley/rendergraph/logger"
)

// Options are the command line flags. Fields point at the values owned by
// the flag set they were registered with.
type Options struct {
	Help       *bool
	Width      *int
	Height     *int
	FPS        *int
	Duration   *float64
	Record     *bool
	OutputFile *string
	FFMPEGPath *string
	Codec      *string
	Soft       *bool
	Pipeline   *string
	LogLevel   *string
	Watch      *bool
}

// Register adds the flags to the flag set.
func Register(fs *flag.FlagSet) *Options {
	return &Options{
		Help:       fs.Bool("help", false, "Show help message"),
		Width:      fs.Int("width", 1280, "Width of the output"),
		Height:     fs.Int("height", 720, "Height of the output"),
		FPS:        fs.Int("fps", 60, "Frames per second for recording"),
		Duration:   fs.Float64("duration", 10.0, "Duration to record in seconds"),
		Record:     fs.Bool("record", false, "Render offscreen and record to the output file"),
		OutputFile: fs.String("output", "output.mp4", "Output file name for recording"),
		FFMPEGPath: fs.String("ffmpeg", "", "Path to ffmpeg executable"),
		Codec:      fs.String("codec", "h264", "Video codec for recording (h264, hevc)"),
		Soft:       fs.Bool("soft", false, "Render on the CPU without a graphics context"),
		Pipeline:   fs.String("pipeline", "", "Pipeline description file (TOML). Empty uses the built-in pipeline"),
		LogLevel:   fs.String("loglevel", "info", "Log level (debug, info, warn, error)"),
		Watch:      fs.Bool("watch", false, "Reload pipeline settings when the pipeline file changes"),
	}
}

// Validate checks the option values for consistency.
func (o *Options) Validate() error {
	if *o.Width <= 0 || *o.Height <= 0 {
		return fmt.Errorf("options: invalid size %dx%d", *o.Width, *o.Height)
	}
	if *o.FPS <= 0 {
		return fmt.Errorf("options: invalid fps %d", *o.FPS)
	}
	if *o.Duration <= 0 {
		return fmt.Errorf("options: invalid duration %v", *o.Duration)
	}
	if _, ok := logger.ParseLevel(*o.LogLevel); !ok {
		return fmt.Errorf("options: unknown log level %q", *o.LogLevel)
	}
	if *o.Watch && *o.Pipeline == "" {
		return fmt.Errorf("options: -watch needs a -pipeline file")
	}
	if *o.Record {
		if err := o.Encoder().Validate(); err != nil {
			return fmt.Errorf("options: %w", err)
		}
	}
	return nil
}

// Frames returns the number of frames to record.
func (o *Options) Frames() int {
	return max(1, int(*o.Duration*float64(*o.FPS)))
}

// Encoder returns the options of the recorder.
func (o *Options) Encoder() encoder.Options {
	return encoder.Options{
		Output:     *o.OutputFile,
		FPS:        *o.FPS,
		FFmpegPath: *o.FFMPEGPath,
		Codec:      *o.Codec,
	}
}
