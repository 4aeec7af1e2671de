package nodes

import (
	"fmt"

	"github.com/richinsley/rendergraph/dag"
	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/state"
)

// Present copies the colour attachment of an FBO to the window-system
// framebuffer, stretching it to the size of the surface.
type Present struct {
	*dag.ConditionDependentNode
	deps    Deps
	surface state.Surface
	label   string
}

// NewPresent is the preferred method of initialisation of the Present type.
func NewPresent(name string, surface state.Surface, deps Deps, conditions ...dag.Condition) *Present {
	deps = deps.withDefaults()
	return &Present{
		ConditionDependentNode: dag.NewConditionDependentNode(name, deps.Materials, conditions...),
		deps:                   deps,
		surface:                surface,
	}
}

// Initialise declares the input FBO and the state changes of the node.
func (n *Present) Initialise(inputConfig fbo.Config, inputManager *fbo.Manager, label string) error {
	return n.Setup(func() error {
		if err := n.deps.check(n.Name()); err != nil {
			return err
		}
		if _, err := n.RequiresFBO(inputConfig, inputManager); err != nil {
			return err
		}

		changes := []state.Change{
			state.BindDefaultFramebuffer{Surface: n.surface},
			state.SetInputTextureFromFBO{
				Slot:       0,
				Name:       inputConfig.Name,
				Attachment: fbo.ColorAttachment,
				Manager:    inputManager,
				Material:   BlitMaterial,
				Uniform:    TextureUniform,
			},
			state.EnableMaterial{Material: BlitMaterial},
		}
		for _, c := range changes {
			if err := n.AddDesiredStateChange(c); err != nil {
				return err
			}
		}

		n.label = label
		return nil
	})
}

// Process implements the dag.Node interface.
func (n *Present) Process() error {
	if !n.IsActive() {
		return fmt.Errorf("%w: %s", dag.ErrInactive, n.Name())
	}
	n.deps.Monitor.StartActivity(n.label)
	n.deps.Quad.DrawFullscreenQuad()
	n.deps.Monitor.EndActivity()
	return nil
}
