package nodes

import (
	"fmt"

	"github.com/richinsley/rendergraph/dag"
	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/state"
)

// Input is an FBO sampled by a FullscreenPass.
type Input struct {
	Slot    int
	Config  fbo.Config
	Manager *fbo.Manager
	Uniform string
}

// FullscreenPass runs a material over every pixel of an output FBO. The
// program receives the elapsed time in iTime and the output size in
// iResolution.
type FullscreenPass struct {
	*dag.ConditionDependentNode
	deps     Deps
	material string

	label   string
	out     output
	program gpu.Program
}

// NewFullscreenPass is the preferred method of initialisation of the
// FullscreenPass type.
func NewFullscreenPass(name string, material string, deps Deps, conditions ...dag.Condition) *FullscreenPass {
	deps = deps.withDefaults()
	return &FullscreenPass{
		ConditionDependentNode: dag.NewConditionDependentNode(name, deps.Materials, conditions...),
		deps:                   deps,
		material:               material,
	}
}

// Initialise requests the output FBO and every input and declares the state
// changes of the pass.
func (n *FullscreenPass) Initialise(outputConfig fbo.Config, outputManager *fbo.Manager, label string, inputs ...Input) error {
	return n.Setup(func() error {
		if err := n.deps.check(n.Name()); err != nil {
			return err
		}

		out, err := n.RequiresFBO(outputConfig, outputManager)
		if err != nil {
			return err
		}

		prog, err := n.Material(n.material)
		if err != nil {
			return err
		}

		changes := []state.Change{
			state.BindFBO{Name: outputConfig.Name, Manager: outputManager},
			state.SetViewportToSizeOf{Name: outputConfig.Name, Manager: outputManager},
		}
		for _, in := range inputs {
			if in.Config.Name == outputConfig.Name && in.Manager == outputManager {
				return fmt.Errorf("%w: %s: %s is both input and output", fbo.ErrInvalidConfig, n.Name(), in.Config.Name)
			}
			if _, err := n.RequiresFBO(in.Config, in.Manager); err != nil {
				return err
			}
			changes = append(changes, state.SetInputTextureFromFBO{
				Slot:       in.Slot,
				Name:       in.Config.Name,
				Attachment: fbo.ColorAttachment,
				Manager:    in.Manager,
				Material:   n.material,
				Uniform:    in.Uniform,
			})
		}
		changes = append(changes, state.EnableMaterial{Material: n.material})

		for _, c := range changes {
			if err := n.AddDesiredStateChange(c); err != nil {
				return err
			}
		}

		if err := n.SubscribeTo(outputManager, n); err != nil {
			return err
		}

		n.label = label
		n.out = output{node: n.Name(), name: outputConfig.Name, manager: outputManager, fbo: out}
		n.program = prog

		return nil
	})
}

// Update implements the fbo.Subscriber interface.
func (n *FullscreenPass) Update() {
	n.out.refresh()
}

// Process implements the dag.Node interface.
func (n *FullscreenPass) Process() error {
	if !n.IsActive() {
		return fmt.Errorf("%w: %s", dag.ErrInactive, n.Name())
	}

	out, err := n.out.current()
	if err != nil {
		return err
	}

	n.deps.Monitor.StartActivity(n.label)
	n.program.SetFloat(TimeUniform, n.deps.Time())
	n.program.SetFloat2(ResolutionUniform, float32(out.Width()), float32(out.Height()))
	n.deps.Quad.DrawFullscreenQuad()
	n.deps.Monitor.EndActivity()

	return nil
}

// MaterialID returns the material identifier of the pass.
func (n *FullscreenPass) MaterialID() string {
	return n.material
}

// OutputFBO returns the cached output FBO.
func (n *FullscreenPass) OutputFBO() *fbo.FBO {
	return n.out.fbo
}
