package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	glfw "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/richinsley/rendergraph/dag"
	"github.com/richinsley/rendergraph/encoder"
	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/glfwcontext"
	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/graphics"
	"github.com/richinsley/rendergraph/headless"
	"github.com/richinsley/rendergraph/logger"
	"github.com/richinsley/rendergraph/material"
	"github.com/richinsley/rendergraph/monitor"
	"github.com/richinsley/rendergraph/nodes"
	"github.com/richinsley/rendergraph/options"
	"github.com/richinsley/rendergraph/renderer"
	"github.com/richinsley/rendergraph/shader"
	"github.com/richinsley/rendergraph/soft"
	"github.com/richinsley/rendergraph/state"
)

// backend is what the render graph needs from a graphics implementation.
type backend interface {
	gpu.Device
	fbo.Allocator
	material.Compiler
	encoder.PixelSource
	state.Surface
}

func init() {
	runtime.LockOSThread()
}

func main() {
	opts := options.Register(flag.CommandLine)
	flag.Parse()

	if *opts.Help {
		fmt.Println("rendergraph: render graph viewer/recorder")
		flag.PrintDefaults()
		return
	}

	if err := opts.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level, _ := logger.ParseLevel(*opts.LogLevel)
	logger.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(opts); err != nil {
		logger.Logger().Error("rendergraph", "err", err)
		os.Exit(1)
	}
}

func run(opts *options.Options) error {
	pipeline := options.DefaultPipeline()
	if *opts.Pipeline != "" {
		var err error
		pipeline, err = options.LoadPipeline(*opts.Pipeline)
		if err != nil {
			return err
		}
	}
	scene, err := pipeline.SceneSource()
	if err != nil {
		return err
	}

	width, height := *opts.Width, *opts.Height

	var ctx graphics.Context
	var dev backend

	switch {
	case *opts.Soft:
		dev = soft.New(width, height)
	case *opts.Record:
		ctx, err = headless.NewHeadless(width, height)
		if err != nil {
			return fmt.Errorf("failed to create headless context: %w", err)
		}
		defer ctx.Shutdown()
	default:
		if err := glfwcontext.InitGraphics(); err != nil {
			return fmt.Errorf("failed to initialize glfw: %w", err)
		}
		defer glfwcontext.TerminateGraphics()

		win, err := glfwcontext.New(width, height, true, "rendergraph")
		if err != nil {
			return fmt.Errorf("failed to create window: %w", err)
		}
		defer win.Shutdown()
		ctx = win
	}

	if ctx != nil {
		r, err := renderer.NewRenderer(ctx)
		if err != nil {
			return err
		}
		defer r.Shutdown()
		dev = r

		// the framebuffer may be larger than the window on high density displays
		width, height = ctx.GetFramebufferSize()
	}

	library := material.NewLibrary(dev)
	defer library.Release()
	if err := shader.Register(library, scene); err != nil {
		return err
	}

	manager := fbo.NewManager("display", dev, fbo.Dimensions{Width: width, Height: height})
	defer manager.Release()

	env := &state.Env{
		GPU:       gpu.NewTracker(dev, gpu.State{}),
		Materials: library,
	}
	driver := dag.NewDriver(env)
	defer driver.Dispose()

	activities := monitor.NewActivities()
	defer activities.Report()

	// recorded and soft frames advance at the requested frame rate,
	// interactive frames follow the clock
	var frame int
	deps := nodes.Deps{
		Materials: library,
		Quad:      env.GPU,
		Monitor:   activities,
		Time: func() float32 {
			if ctx != nil && !*opts.Record {
				return float32(ctx.Time())
			}
			return float32(frame) / float32(*opts.FPS)
		},
	}

	settings := options.NewSettings(pipeline.Settings)
	output, err := buildGraph(pipeline, settings, deps, manager, driver, dev)
	if err != nil {
		return err
	}
	logger.Logger().Info("rendergraph: graph built", "nodes", len(driver.Nodes()), "output", output.Name)

	if win, ok := ctx.(*glfwcontext.Context); ok {
		win.OnResize(func(width, height int) {
			if err := manager.SetBaseDimensions(fbo.Dimensions{Width: width, Height: height}); err != nil {
				logger.Logger().Warn("rendergraph: resize failed", "err", err)
			}
		})

		// number keys toggle the settings in name order
		for i, name := range settings.Names() {
			if i >= 9 {
				break
			}
			win.RegisterKeyCallback(glfw.Key1+glfw.Key(i), func() {
				settings.Toggle(name)
			})
		}
	}

	var reload <-chan map[string]bool
	if *opts.Watch {
		w, err := options.Watch(*opts.Pipeline)
		if err != nil {
			return err
		}
		defer w.Close()
		reload = w.Settings()
	}

	var rec *encoder.Recorder
	if *opts.Record {
		rec, err = encoder.NewRecorder(opts.Encoder(), *opts.Width, *opts.Height)
		if err != nil {
			return err
		}
		defer rec.Close()
	}

	total := opts.Frames()
	interactive := ctx != nil && !*opts.Record

	for ; interactive || frame < total; frame++ {
		if ctx != nil && ctx.ShouldClose() {
			break
		}

		select {
		case flags := <-reload:
			settings.Apply(flags)
		default:
		}

		activities.StartActivity("frame")
		err := driver.RenderFrame()
		activities.EndActivity()
		if err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}

		if rec != nil {
			f, err := manager.Get(output.Name)
			if err != nil {
				return err
			}
			if err := rec.Capture(dev, f); err != nil {
				return fmt.Errorf("frame %d: %w", frame, err)
			}
		}

		if ctx != nil {
			ctx.EndFrame()
		}
	}

	logger.Logger().Info("rendergraph: finished", "frames", frame, "fbos", len(manager.Names()))

	if rec != nil {
		return rec.Close()
	}

	if sb, ok := dev.(*soft.Backend); ok && strings.EqualFold(filepath.Ext(*opts.OutputFile), ".png") {
		return writePNG(*opts.OutputFile, sb)
	}
	return nil
}

func writePNG(path string, b *soft.Backend) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, b.Screen()); err != nil {
		f.Close()
		return err
	}
	logger.Logger().Info("rendergraph: wrote screen", "file", path)
	return f.Close()
}
