// Package state describes the GPU state a render node requires. A node
// declares its changes once; the driver applies them in declaration order
// before the node is processed and reverts them in reverse order afterwards.
package state

import (
	"fmt"

	"github.com/richinsley/rendergraph/gpu"
)

// Env is what state changes are applied to.
type Env struct {
	GPU       *gpu.Tracker
	Materials gpu.MaterialResolver
}

// Undo reverts one applied change.
type Undo func()

// Change is one revertible piece of GPU state. Implementations should be
// small comparable values: two changes describing the same state compare
// equal, which is how a List deduplicates them. A change holding a value that
// cannot be compared, such as a surface struct containing a slice, is never
// equal to another change.
type Change interface {
	// Validate is called when the change is declared and reports changes
	// that can never be satisfied, such as an unknown FBO name.
	Validate(materials gpu.MaterialResolver) error

	// Apply the change and return the function that reverts it.
	Apply(env *Env) (Undo, error)

	fmt.Stringer
}

// List is an ordered set of changes. The zero value is ready to use.
type List struct {
	changes []Change
}

// Add appends c unless an equal change is already in the list. Returns false
// if c was a duplicate.
func (l *List) Add(c Change) bool {
	for _, e := range l.changes {
		if equal(e, c) {
			return false
		}
	}
	l.changes = append(l.changes, c)
	return true
}

// equal compares two changes with ==. comparing values whose dynamic types
// are not comparable panics; those changes are treated as distinct.
func equal(a, b Change) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// Changes returns the changes in declaration order. The returned slice must
// not be modified.
func (l *List) Changes() []Change {
	return l.changes
}

// Len returns the number of changes in the list.
func (l *List) Len() int {
	return len(l.changes)
}

// Clear removes all changes.
func (l *List) Clear() {
	l.changes = nil
}

// Apply applies every change in order. The returned function reverts them
// in exact reverse order. If a change fails to apply, the changes applied
// before it are reverted and the error is returned; state is never left
// partially applied.
func Apply(env *Env, changes []Change) (func(), error) {
	undo := make([]Undo, 0, len(changes))
	revert := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}

	for _, c := range changes {
		u, err := c.Apply(env)
		if err != nil {
			revert()
			return nil, fmt.Errorf("state: %s: %w", c, err)
		}
		undo = append(undo, u)
	}

	return revert, nil
}
