// Package dag is the render node abstraction and the per-frame driver.
//
// A node declares, once during initialisation, the FBOs it requires and the
// GPU state it needs while processing. Every frame the Driver asks each node
// whether it is active and, for active nodes only, applies the node's state
// changes, calls Process() and reverts the changes.
//
// Concrete nodes embed BaseNode (or ConditionDependentNode) and implement
// Process(). Initialisation happens inside BaseNode.Setup(), which makes it
// happen at most once and undoes partial work if it fails:
//
//	func (n *MyNode) Initialise(cfg fbo.Config, mgr *fbo.Manager) error {
//		return n.Setup(func() error {
//			if _, err := n.RequiresFBO(cfg, mgr); err != nil {
//				return err
//			}
//			return n.AddDesiredStateChange(state.BindFBO{Name: cfg.Name, Manager: mgr})
//		})
//	}
package dag

import (
	"fmt"

	"github.com/richinsley/rendergraph/fbo"
	"github.com/richinsley/rendergraph/gpu"
	"github.com/richinsley/rendergraph/logger"
	"github.com/richinsley/rendergraph/state"
)

// Node is a render pass as seen by the Driver.
type Node interface {
	Name() string
	Initialised() bool

	// IsActive is called once per frame before any state is applied. It
	// must not have side effects.
	IsActive() bool

	// DesiredStateChanges returns the changes to apply before Process(), in
	// apply order.
	DesiredStateChanges() []state.Change

	// Process performs the node's GPU work. It is only called while the node
	// is active and its state changes are applied.
	Process() error

	// Dispose releases the node's subscriptions. A disposed node is never
	// active.
	Dispose()
}

// Requirement is an FBO a node declared during initialisation.
type Requirement struct {
	Config  fbo.Config
	Manager *fbo.Manager
}

// BaseNode implements the lifecycle shared by every node. It is meant to be
// embedded.
type BaseNode struct {
	name      string
	materials gpu.MaterialResolver

	changes      state.List
	requirements []Requirement
	subs         []fbo.Subscription

	settingUp   bool
	initialised bool
	disposed    bool
}

// NewBaseNode is the preferred method of initialisation of the BaseNode
// type. Materials are resolved through the supplied resolver.
func NewBaseNode(name string, materials gpu.MaterialResolver) *BaseNode {
	return &BaseNode{
		name:      name,
		materials: materials,
	}
}

func (n *BaseNode) String() string {
	return n.name
}

// Name returns the name of the node.
func (n *BaseNode) Name() string {
	return n.name
}

// Initialised returns true once Setup() has completed successfully.
func (n *BaseNode) Initialised() bool {
	return n.initialised
}

// Disposed returns true after Dispose() has been called.
func (n *BaseNode) Disposed() bool {
	return n.disposed
}

// IsActive returns true if the node is initialised and not disposed.
// Embedding types add their own conditions.
func (n *BaseNode) IsActive() bool {
	return n.initialised && !n.disposed
}

// Materials returns the resolver the node was created with.
func (n *BaseNode) Materials() gpu.MaterialResolver {
	return n.materials
}

// Setup runs the initialisation function of a concrete node. It returns
// ErrAlreadyInitialised without calling fn if the node has already been
// initialised, leaving the earlier initialisation untouched.
//
// If fn fails every state change, requirement and subscription it declared is
// discarded and the node stays uninitialised.
func (n *BaseNode) Setup(fn func() error) error {
	if n.disposed {
		return fmt.Errorf("%w: %s", ErrDisposed, n.name)
	}
	if n.initialised || n.settingUp {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialised, n.name)
	}

	n.settingUp = true
	defer func() {
		n.settingUp = false
	}()

	if err := fn(); err != nil {
		n.rollback()
		return fmt.Errorf("%s: initialise: %w", n.name, err)
	}

	n.initialised = true
	logger.Logger().Info("node initialised", "node", n.name,
		"state changes", n.changes.Len(), "fbos", len(n.requirements))

	return nil
}

func (n *BaseNode) rollback() {
	n.unsubscribe()
	n.changes.Clear()
	n.requirements = nil
}

func (n *BaseNode) checkSetup(what string) error {
	if n.settingUp {
		return nil
	}
	if n.initialised {
		return fmt.Errorf("%w: %s: %s after initialisation", ErrAlreadyInitialised, n.name, what)
	}
	return fmt.Errorf("%w: %s: %s outside of initialisation", ErrNotInitialised, n.name, what)
}

// RequiresFBO requests the FBO from the manager and records it as a
// requirement of the node. Only valid during Setup().
func (n *BaseNode) RequiresFBO(cfg fbo.Config, m *fbo.Manager) (*fbo.FBO, error) {
	if err := n.checkSetup("fbo requirement"); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s: no manager for %s", fbo.ErrUnknownFBO, n.name, cfg.Name)
	}

	f, err := m.Request(cfg)
	if err != nil {
		return nil, err
	}

	req := Requirement{Config: cfg, Manager: m}
	for _, r := range n.requirements {
		if r == req {
			return f, nil
		}
	}
	n.requirements = append(n.requirements, req)

	return f, nil
}

// AddDesiredStateChange declares a state change. Changes that can never be
// satisfied fail here rather than during a frame. Declaring a change equal to
// one already declared has no effect. Only valid during Setup().
func (n *BaseNode) AddDesiredStateChange(c state.Change) error {
	if err := n.checkSetup("state change"); err != nil {
		return err
	}
	if err := c.Validate(n.materials); err != nil {
		return fmt.Errorf("%s: %w", c, err)
	}
	if !n.changes.Add(c) {
		logger.Logger().Debug("duplicate state change", "node", n.name, "change", c.String())
	}
	return nil
}

// SubscribeTo subscribes s to reallocations in the manager. The subscription
// is released by Dispose(). Only valid during Setup().
func (n *BaseNode) SubscribeTo(m *fbo.Manager, s fbo.Subscriber) error {
	if err := n.checkSetup("subscription"); err != nil {
		return err
	}
	sub := m.Subscribe(s)
	for _, e := range n.subs {
		if e == sub {
			return nil
		}
	}
	n.subs = append(n.subs, sub)
	return nil
}

// Material resolves a material through the node's resolver.
func (n *BaseNode) Material(id string) (gpu.Program, error) {
	if n.materials == nil {
		return nil, fmt.Errorf("%w: %s: %s: no material resolver", gpu.ErrUnresolved, n.name, id)
	}
	return n.materials.Resolve(id)
}

// DesiredStateChanges implements the Node interface.
func (n *BaseNode) DesiredStateChanges() []state.Change {
	return n.changes.Changes()
}

// Requirements returns the FBOs declared during initialisation.
func (n *BaseNode) Requirements() []Requirement {
	return n.requirements
}

// Subscriptions returns the number of managers the node is subscribed to.
func (n *BaseNode) Subscriptions() int {
	return len(n.subs)
}

func (n *BaseNode) unsubscribe() {
	for _, sub := range n.subs {
		sub.Manager().Unsubscribe(sub)
	}
	n.subs = nil
}

// Dispose implements the Node interface. Calling Dispose more than once has
// no effect.
func (n *BaseNode) Dispose() {
	if n.disposed {
		return
	}
	n.disposed = true
	n.unsubscribe()
	logger.Logger().Debug("node disposed", "node", n.name)
}
