package options

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/richinsley/rendergraph/fbo"
)

// ErrPipeline is returned for pipeline files that parse but do not describe
// a usable pipeline.
var ErrPipeline = errors.New("invalid pipeline")

// FBO is an [[fbo]] table.
type FBO struct {
	Name   string `toml:"name"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`

	// one of the fbo.Scale names. empty with a width and height is fixed
	Scale string `toml:"scale"`

	Format string `toml:"format"`
	Depth  bool   `toml:"depth"`
}

// Config converts the table to an FBO config.
func (f FBO) Config() (fbo.Config, error) {
	scale, err := fbo.ParseScale(f.Scale)
	if err != nil {
		return fbo.Config{}, fmt.Errorf("fbo %q: %w", f.Name, err)
	}
	format, err := fbo.ParseFormat(f.Format)
	if err != nil {
		return fbo.Config{}, fmt.Errorf("fbo %q: %w", f.Name, err)
	}
	cfg := fbo.Config{
		Name:   f.Name,
		Width:  f.Width,
		Height: f.Height,
		Scale:  scale,
		Format: format,
		Depth:  f.Depth,
	}
	if err := cfg.Validate(); err != nil {
		return fbo.Config{}, err
	}
	return cfg, nil
}

// Scene is the [scene] table. The scene pass renders the fragment shader
// into the output FBO.
type Scene struct {
	Output string `toml:"output"`

	// WebGL2 file with a mainImage() function, relative to the pipeline
	// file. empty uses the built-in scene
	Fragment string `toml:"fragment"`

	Condition string `toml:"condition"`
}

// DownSample is a [[downsample]] table.
type DownSample struct {
	Label     string `toml:"label"`
	Input     string `toml:"input"`
	Output    string `toml:"output"`
	Condition string `toml:"condition"`
}

// Chain is a [[chain]] table: successive halving downsamplers from a source
// FBO.
type Chain struct {
	Source    string `toml:"source"`
	Levels    int    `toml:"levels"`
	Condition string `toml:"condition"`
}

// Pipeline is the description of a render graph.
type Pipeline struct {
	Settings    map[string]bool `toml:"settings"`
	FBOs        []FBO           `toml:"fbo"`
	Scene       Scene           `toml:"scene"`
	DownSamples []DownSample    `toml:"downsample"`
	Chains      []Chain         `toml:"chain"`

	// name of the FBO shown on screen. chain outputs are named after their
	// source and divisor, eg. "scene/4". empty shows the last output
	Present string `toml:"present"`

	// directory the pipeline was loaded from
	dir string
}

// DefaultPipeline renders the built-in scene at full scale, downsamples it
// three times and shows the smallest level. The chain can be switched off
// with the "downsample" setting.
func DefaultPipeline() *Pipeline {
	return &Pipeline{
		Settings: map[string]bool{"downsample": true},
		FBOs: []FBO{
			{Name: "scene", Scale: fbo.FullScale.String(), Format: fbo.RGBA8.String()},
		},
		Scene:  Scene{Output: "scene"},
		Chains: []Chain{{Source: "scene", Levels: 3, Condition: "downsample"}},
	}
}

// ParsePipeline parses and validates a pipeline description.
func ParsePipeline(data []byte) (*Pipeline, error) {
	p := &Pipeline{}
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPipeline, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadPipeline reads a pipeline file.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ParsePipeline(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.dir = filepath.Dir(path)
	return p, nil
}

// Configs returns the FBO configs of the pipeline by name.
func (p *Pipeline) Configs() (map[string]fbo.Config, error) {
	configs := make(map[string]fbo.Config, len(p.FBOs))
	for _, f := range p.FBOs {
		cfg, err := f.Config()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPipeline, err)
		}
		if _, ok := configs[cfg.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate fbo %q", ErrPipeline, cfg.Name)
		}
		configs[cfg.Name] = cfg
	}
	return configs, nil
}

// SceneSource returns the scene's fragment shader source. An empty string
// means the built-in scene.
func (p *Pipeline) SceneSource() (string, error) {
	if p.Scene.Fragment == "" {
		return "", nil
	}
	path := p.Scene.Fragment
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("scene: %w", err)
	}
	return string(data), nil
}

// Validate checks that every name used by the pipeline is declared.
func (p *Pipeline) Validate() error {
	configs, err := p.Configs()
	if err != nil {
		return err
	}

	checkFBO := func(what, name string) error {
		if _, ok := configs[name]; !ok {
			return fmt.Errorf("%w: %s: unknown fbo %q", ErrPipeline, what, name)
		}
		return nil
	}
	checkCondition := func(what, cond string) error {
		if cond == "" {
			return nil
		}
		name := strings.TrimPrefix(cond, "!")
		if _, ok := p.Settings[name]; !ok {
			return fmt.Errorf("%w: %s: unknown setting %q", ErrPipeline, what, name)
		}
		return nil
	}

	if p.Scene.Output != "" {
		if err := checkFBO("scene", p.Scene.Output); err != nil {
			return err
		}
		if err := checkCondition("scene", p.Scene.Condition); err != nil {
			return err
		}
	}

	for _, d := range p.DownSamples {
		what := fmt.Sprintf("downsample %q", d.Label)
		if d.Label == "" {
			return fmt.Errorf("%w: downsample without label", ErrPipeline)
		}
		if err := checkFBO(what, d.Input); err != nil {
			return err
		}
		if err := checkFBO(what, d.Output); err != nil {
			return err
		}
		if d.Input == d.Output {
			return fmt.Errorf("%w: %s: input and output are the same fbo", ErrPipeline, what)
		}
		if err := checkCondition(what, d.Condition); err != nil {
			return err
		}
	}

	for _, c := range p.Chains {
		what := fmt.Sprintf("chain from %q", c.Source)
		if err := checkFBO(what, c.Source); err != nil {
			return err
		}
		if c.Levels < 1 {
			return fmt.Errorf("%w: %s: levels must be at least 1", ErrPipeline, what)
		}
		if err := checkCondition(what, c.Condition); err != nil {
			return err
		}
	}

	return nil
}
