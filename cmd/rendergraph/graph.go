package main

import (
	"fmt"

	"github.com/richinsley/rendergraph/dag"
	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/nodes"
	"github.com/richinsley/rendergraph/options"
	"github.com/richinsley/rendergraph/state"
)

// buildGraph creates the nodes described by the pipeline and adds them to
// the driver in pipeline order: scene, downsamplers, chains and finally the
// presenter when there is a surface. It returns the config of the FBO that
// is presented and recorded.
func buildGraph(p *options.Pipeline, settings *options.Settings, deps nodes.Deps,
	manager *fbo.Manager, driver *dag.Driver, surface state.Surface) (fbo.Config, error) {

	configs, err := p.Configs()
	if err != nil {
		return fbo.Config{}, err
	}

	conditions := func(expr string) ([]dag.Condition, error) {
		if expr == "" {
			return nil, nil
		}
		c, err := settings.Condition(expr)
		if err != nil {
			return nil, err
		}
		return []dag.Condition{c}, nil
	}

	// outputs are every FBO that can be presented, including chain levels
	outputs := make(map[string]fbo.Config, len(configs))
	var last string

	if p.Scene.Output != "" {
		conds, err := conditions(p.Scene.Condition)
		if err != nil {
			return fbo.Config{}, fmt.Errorf("scene: %w", err)
		}
		pass := nodes.NewFullscreenPass("scene", nodes.SceneMaterial, deps, conds...)
		if err := pass.Initialise(configs[p.Scene.Output], manager, "SCENE"); err != nil {
			return fbo.Config{}, err
		}
		if err := driver.Add(pass); err != nil {
			return fbo.Config{}, err
		}
		outputs[p.Scene.Output] = configs[p.Scene.Output]
		last = p.Scene.Output
	}

	for _, d := range p.DownSamples {
		conds, err := conditions(d.Condition)
		if err != nil {
			return fbo.Config{}, fmt.Errorf("%s: %w", d.Label, err)
		}
		n := nodes.NewDownSampler(d.Label, deps, conds...)
		if err := n.Initialise(configs[d.Input], manager, configs[d.Output], manager, d.Label); err != nil {
			return fbo.Config{}, err
		}
		if err := driver.Add(n); err != nil {
			return fbo.Config{}, err
		}
		outputs[d.Output] = configs[d.Output]
		last = d.Output
	}

	for _, c := range p.Chains {
		conds, err := conditions(c.Condition)
		if err != nil {
			return fbo.Config{}, fmt.Errorf("chain %s: %w", c.Source, err)
		}
		chain, err := nodes.NewDownSampleChain(deps, configs[c.Source], manager, manager, c.Levels, conds...)
		if err != nil {
			return fbo.Config{}, err
		}
		for _, n := range chain {
			if err := driver.Add(n); err != nil {
				return fbo.Config{}, err
			}
			cfg := n.OutputConfig()
			outputs[cfg.Name] = cfg
			last = cfg.Name
		}
	}

	name := p.Present
	if name == "" {
		name = last
	}
	out, ok := outputs[name]
	if !ok {
		return fbo.Config{}, fmt.Errorf("%w: present: %q is not written by any node", options.ErrPipeline, name)
	}

	if surface != nil {
		present := nodes.NewPresent("present", surface, deps)
		if err := present.Initialise(out, manager, "PRESENT"); err != nil {
			return fbo.Config{}, err
		}
		if err := driver.Add(present); err != nil {
			return fbo.Config{}, err
		}
	}

	return out, nil
}
