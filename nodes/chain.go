package nodes

import (
	"fmt"

	"github.com/richinsley/rendergraph/dag"
	"github.com/richinsley/rendergraph/fbo"
)

// NewDownSampleChain builds levels successive downsamplers, each halving the
// output of the one before. The first level reads source from sourceManager;
// every output is allocated in outputManager.
//
// A scaled source produces scaled outputs, so the chain follows base
// dimension changes of the output manager. A fixed source produces fixed
// outputs sized from the source config.
//
// Output FBOs are named after the source and the divisor, eg. "scene/4". The
// returned nodes are initialised and in processing order.
func NewDownSampleChain(deps Deps, source fbo.Config, sourceManager *fbo.Manager,
	outputManager *fbo.Manager, levels int, conditions ...dag.Condition) ([]*DownSampler, error) {

	if levels < 1 {
		return nil, fmt.Errorf("%w: downsample chain of %d levels", fbo.ErrInvalidConfig, levels)
	}

	var chain []*DownSampler
	dispose := func() {
		for _, n := range chain {
			n.Dispose()
		}
	}

	input := source
	inputManager := sourceManager
	scale := source.Scale

	for i := 1; i <= levels; i++ {
		divisor := 1 << i

		var cfg fbo.Config
		name := fmt.Sprintf("%s/%d", source.Name, divisor)
		if source.Scale == fbo.Fixed {
			dims := fbo.Dimensions{Width: source.Width, Height: source.Height}.Divide(divisor)
			cfg = fbo.NewConfig(name, dims.Width, dims.Height, source.Format)
		} else {
			var ok bool
			scale, ok = scale.Half()
			if !ok {
				dispose()
				return nil, fmt.Errorf("%w: %s cannot be halved %d times", fbo.ErrInvalidConfig, source.Name, levels)
			}
			cfg = fbo.NewScaledConfig(name, scale, source.Format)
		}

		n := NewDownSampler(fmt.Sprintf("downsampler %s", name), deps, conditions...)
		if err := n.Initialise(input, inputManager, cfg, outputManager, fmt.Sprintf("DOWNSAMPLE_%s", name)); err != nil {
			dispose()
			return nil, err
		}
		chain = append(chain, n)

		input = cfg
		inputManager = outputManager
	}

	return chain, nil
}
