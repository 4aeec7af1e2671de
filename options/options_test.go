package options

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/rendergraph/fbo"
)

const testPipeline = `
present = "small"

[settings]
bloom = true
debug = false

[[fbo]]
name = "scene"
scale = "full"
format = "rgba16f"
depth = true

[[fbo]]
name = "small"
width = 64
height = 32

[scene]
output = "scene"
fragment = "scene.glsl"

[[downsample]]
label = "DOWNSAMPLE_SMALL"
input = "scene"
output = "small"
condition = "!debug"

[[chain]]
source = "scene"
levels = 2
condition = "bloom"
`

func newFlags(t *testing.T, args ...string) *Options {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	o := Register(fs)
	require.NoError(t, fs.Parse(args))
	return o
}

func TestOptions(t *testing.T) {
	o := newFlags(t)
	require.NoError(t, o.Validate())
	assert.Equal(t, 1280, *o.Width)
	assert.Equal(t, 600, o.Frames())

	o = newFlags(t, "-record", "-fps", "30", "-duration", "2", "-codec", "hevc", "-output", "a.mp4")
	require.NoError(t, o.Validate())
	assert.Equal(t, 60, o.Frames())
	enc := o.Encoder()
	assert.Equal(t, "a.mp4", enc.Output)
	assert.Equal(t, "hevc", enc.Codec)
	assert.Equal(t, 30, enc.FPS)

	tests := []struct {
		name string
		args []string
	}{
		{"size", []string{"-width", "0"}},
		{"fps", []string{"-fps", "-1"}},
		{"duration", []string{"-duration", "0"}},
		{"loglevel", []string{"-loglevel", "loud"}},
		{"watch", []string{"-watch"}},
		{"codec", []string{"-record", "-codec", "vp9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, newFlags(t, tt.args...).Validate())
		})
	}
}

func TestParsePipeline(t *testing.T) {
	p, err := ParsePipeline([]byte(testPipeline))
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"bloom": true, "debug": false}, p.Settings)
	assert.Equal(t, "small", p.Present)
	assert.Equal(t, "scene", p.Scene.Output)
	require.Len(t, p.DownSamples, 1)
	assert.Equal(t, DownSample{Label: "DOWNSAMPLE_SMALL", Input: "scene", Output: "small", Condition: "!debug"}, p.DownSamples[0])
	require.Len(t, p.Chains, 1)
	assert.Equal(t, 2, p.Chains[0].Levels)

	configs, err := p.Configs()
	require.NoError(t, err)
	assert.Equal(t, fbo.Config{Name: "scene", Scale: fbo.FullScale, Format: fbo.RGBA16F, Depth: true}, configs["scene"])
	assert.Equal(t, fbo.NewConfig("small", 64, 32, fbo.RGBA8), configs["small"])
}

func TestPipelineErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"syntax", `[[fbo]`},
		{"duplicate", "[[fbo]]\nname=\"a\"\nwidth=1\nheight=1\n[[fbo]]\nname=\"a\"\nwidth=1\nheight=1\n"},
		{"format", "[[fbo]]\nname=\"a\"\nwidth=1\nheight=1\nformat=\"rgb565\"\n"},
		{"scale", "[[fbo]]\nname=\"a\"\nscale=\"double\"\n"},
		{"fixed without size", "[[fbo]]\nname=\"a\"\n"},
		{"unknown input", "[[fbo]]\nname=\"a\"\nscale=\"full\"\n[[downsample]]\nlabel=\"D\"\ninput=\"b\"\noutput=\"a\"\n"},
		{"same fbo", "[[fbo]]\nname=\"a\"\nscale=\"full\"\n[[downsample]]\nlabel=\"D\"\ninput=\"a\"\noutput=\"a\"\n"},
		{"no label", "[[fbo]]\nname=\"a\"\nscale=\"full\"\n[[fbo]]\nname=\"b\"\nscale=\"half\"\n[[downsample]]\ninput=\"a\"\noutput=\"b\"\n"},
		{"unknown setting", "[[fbo]]\nname=\"a\"\nscale=\"full\"\n[[chain]]\nsource=\"a\"\nlevels=1\ncondition=\"bloom\"\n"},
		{"levels", "[[fbo]]\nname=\"a\"\nscale=\"full\"\n[[chain]]\nsource=\"a\"\n"},
		{"scene output", "[scene]\noutput=\"a\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePipeline([]byte(tt.toml))
			assert.ErrorIs(t, err, ErrPipeline)
		})
	}
}

func TestDefaultPipeline(t *testing.T) {
	p := DefaultPipeline()
	require.NoError(t, p.Validate())
	src, err := p.SceneSource()
	require.NoError(t, err)
	assert.Empty(t, src)
}

func TestLoadPipeline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.toml")
	require.NoError(t, os.WriteFile(path, []byte(testPipeline), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.glsl"), []byte("void mainImage(out vec4 c, in vec2 p) {}"), 0o644))

	p, err := LoadPipeline(path)
	require.NoError(t, err)
	src, err := p.SceneSource()
	require.NoError(t, err)
	assert.Contains(t, src, "mainImage")

	_, err = LoadPipeline(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSettings(t *testing.T) {
	s := NewSettings(map[string]bool{"bloom": true, "debug": false})
	assert.Equal(t, []string{"bloom", "debug"}, s.Names())

	bloom, err := s.Condition("bloom")
	require.NoError(t, err)
	notDebug, err := s.Condition("!debug")
	require.NoError(t, err)
	assert.True(t, bloom())
	assert.True(t, notDebug())

	assert.True(t, s.Toggle("debug"))
	assert.False(t, notDebug())

	changed := s.Apply(map[string]bool{"bloom": false, "debug": true, "extra": true})
	assert.Equal(t, []string{"bloom", "extra"}, changed)
	assert.False(t, bloom())
	assert.True(t, s.Get("extra"))

	_, err = s.Condition("missing")
	assert.ErrorIs(t, err, ErrUnknownSetting)
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.toml")
	require.NoError(t, os.WriteFile(path, []byte(testPipeline), 0o644))

	w, err := Watch(path)
	require.NoError(t, err)
	defer w.Close()

	// unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644))

	data := []byte("[settings]\nbloom = false\ndebug = true\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	// the truncating write may be seen on its own before the content
	want := map[string]bool{"bloom": false, "debug": true}
	timeout := time.After(5 * time.Second)
	for {
		select {
		case settings := <-w.Settings():
			if assert.ObjectsAreEqual(want, settings) {
				return
			}
		case <-timeout:
			t.Fatal("no settings reloaded")
		}
	}
}
