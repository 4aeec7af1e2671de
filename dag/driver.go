package dag

import (
	"fmt"

	"github.com/richinsley/rendergraph/logger"
	"github.com/richinsley/rendergraph/state"
)

// FrameStats summarises one call to RenderFrame().
type FrameStats struct {
	Processed int
	Skipped   int
}

// Driver runs nodes in the order they were added. Ordering nodes by
// dependency is the caller's responsibility.
type Driver struct {
	env   *state.Env
	nodes []Node

	frame uint64
	last  FrameStats
}

// NewDriver is the preferred method of initialisation of the Driver type.
func NewDriver(env *state.Env) *Driver {
	return &Driver{env: env}
}

// Env returns the environment state changes are applied to.
func (d *Driver) Env() *state.Env {
	return d.env
}

// Add appends the node to the frame. Nodes must be initialised before they
// are added.
func (d *Driver) Add(n Node) error {
	if !n.Initialised() {
		return fmt.Errorf("%w: %s", ErrNotInitialised, n.Name())
	}
	for _, e := range d.nodes {
		if e == n {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.Name())
		}
	}
	d.nodes = append(d.nodes, n)
	return nil
}

// Nodes returns the nodes in processing order.
func (d *Driver) Nodes() []Node {
	return d.nodes
}

// Frame returns the number of frames rendered successfully.
func (d *Driver) Frame() uint64 {
	return d.frame
}

// LastFrame returns the stats of the most recent call to RenderFrame().
func (d *Driver) LastFrame() FrameStats {
	return d.last
}

// RenderFrame runs every active node. For each node the state changes are
// applied, the node is processed and the state changes are reverted, in that
// order. The first error aborts the frame; state applied for the failing
// node has already been reverted when RenderFrame returns.
func (d *Driver) RenderFrame() error {
	var stats FrameStats

	for _, n := range d.nodes {
		if !n.IsActive() {
			stats.Skipped++
			continue
		}

		revert, err := state.Apply(d.env, n.DesiredStateChanges())
		if err != nil {
			d.last = stats
			return fmt.Errorf("%s: %w", n.Name(), err)
		}

		err = n.Process()
		revert()
		if err != nil {
			d.last = stats
			return fmt.Errorf("%s: %w", n.Name(), err)
		}

		stats.Processed++
	}

	d.last = stats
	d.frame++

	return nil
}

// Dispose disposes every node in reverse order and empties the driver.
func (d *Driver) Dispose() {
	for i := len(d.nodes) - 1; i >= 0; i-- {
		d.nodes[i].Dispose()
	}
	logger.Logger().Info("render graph disposed", "nodes", len(d.nodes), "frames", d.frame)
	d.nodes = nil
}
