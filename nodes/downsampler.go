package nodes

import (
	"fmt"

	"github.com/richinsley/rendergraph/dag"
	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/state"
)

// DownSampler renders the colour attachment of an input FBO into a smaller
// output FBO using the downSampler program. The output FBO is cached and
// refreshed whenever its manager reallocates.
type DownSampler struct {
	*dag.ConditionDependentNode
	deps Deps

	label        string
	inputConfig  fbo.Config
	inputManager *fbo.Manager
	out          output
	program      gpu.Program
}

// NewDownSampler is the preferred method of initialisation of the
// DownSampler type. The node must be initialised with Initialise() before it
// can be added to a driver.
func NewDownSampler(name string, deps Deps, conditions ...dag.Condition) *DownSampler {
	deps = deps.withDefaults()
	return &DownSampler{
		ConditionDependentNode: dag.NewConditionDependentNode(name, deps.Materials, conditions...),
		deps:                   deps,
	}
}

// Initialise requests both FBOs, declares the node's state changes and
// subscribes to reallocations of the output FBO. The label names the node's
// activity in the performance monitor.
//
// A second call fails with dag.ErrAlreadyInitialised and leaves the first
// initialisation in place.
func (n *DownSampler) Initialise(inputConfig fbo.Config, inputManager *fbo.Manager,
	outputConfig fbo.Config, outputManager *fbo.Manager, label string) error {

	return n.Setup(func() error {
		if err := n.deps.check(n.Name()); err != nil {
			return err
		}

		if inputConfig.Name == outputConfig.Name && inputManager == outputManager {
			return fmt.Errorf("%w: %s: %s is both input and output", fbo.ErrInvalidConfig, n.Name(), inputConfig.Name)
		}

		if _, err := n.RequiresFBO(inputConfig, inputManager); err != nil {
			return err
		}
		inCfg, _ := inputManager.Config(inputConfig.Name)

		out, err := n.RequiresFBO(outputConfig, outputManager)
		if err != nil {
			return err
		}

		prog, err := n.Material(DownSamplerMaterial)
		if err != nil {
			return err
		}

		changes := []state.Change{
			state.BindFBO{Name: outputConfig.Name, Manager: outputManager},
			state.SetViewportToSizeOf{Name: outputConfig.Name, Manager: outputManager},
			state.SetInputTextureFromFBO{
				Slot:       0,
				Name:       inputConfig.Name,
				Attachment: fbo.ColorAttachment,
				Manager:    inputManager,
				Material:   DownSamplerMaterial,
				Uniform:    TextureUniform,
			},
			state.EnableMaterial{Material: DownSamplerMaterial},
		}
		for _, c := range changes {
			if err := n.AddDesiredStateChange(c); err != nil {
				return err
			}
		}

		if err := n.SubscribeTo(outputManager, n); err != nil {
			return err
		}

		n.label = label
		n.inputConfig = inCfg
		n.inputManager = inputManager
		n.out = output{node: n.Name(), name: outputConfig.Name, manager: outputManager, fbo: out}
		n.program = prog

		return nil
	})
}

// Update implements the fbo.Subscriber interface.
func (n *DownSampler) Update() {
	n.out.refresh()
}

// Process draws the input into the output. The state changes declared by
// Initialise() must be applied.
func (n *DownSampler) Process() error {
	if !n.Initialised() {
		return fmt.Errorf("%w: %s", dag.ErrNotInitialised, n.Name())
	}
	if !n.IsActive() {
		return fmt.Errorf("%w: %s", dag.ErrInactive, n.Name())
	}

	out, err := n.out.current()
	if err != nil {
		return err
	}

	n.deps.Monitor.StartActivity(n.label)
	n.program.SetFloat(SizeUniform, float32(out.Width()))
	n.deps.Quad.DrawFullscreenQuad()
	n.deps.Monitor.EndActivity()

	return nil
}

// Label returns the activity label given to Initialise().
func (n *DownSampler) Label() string {
	return n.label
}

// OutputFBO returns the cached output FBO.
func (n *DownSampler) OutputFBO() *fbo.FBO {
	return n.out.fbo
}

// OutputConfig returns the current config of the output FBO.
func (n *DownSampler) OutputConfig() fbo.Config {
	if n.out.fbo == nil {
		return fbo.Config{}
	}
	return n.out.fbo.Config()
}

// OutputManager returns the manager owning the output FBO.
func (n *DownSampler) OutputManager() *fbo.Manager {
	return n.out.manager
}

// InputConfig returns the config of the input FBO as registered with its
// manager.
func (n *DownSampler) InputConfig() fbo.Config {
	return n.inputConfig
}

// InputManager returns the manager owning the input FBO.
func (n *DownSampler) InputManager() *fbo.Manager {
	return n.inputManager
}
