package dag

import "github.com/richinsley/rendergraph/gpu"

// Condition is a predicate deciding whether a node runs this frame. It is
// evaluated at least once per frame and must be cheap and free of side
// effects.
type Condition func() bool

// ConditionDependentNode is a node that is active only while every one of its
// conditions holds. An inactive node's state changes are skipped entirely.
type ConditionDependentNode struct {
	*BaseNode
	conditions []Condition
}

// NewConditionDependentNode is the preferred method of initialisation of the
// ConditionDependentNode type. Nil conditions are ignored.
func NewConditionDependentNode(name string, materials gpu.MaterialResolver, conditions ...Condition) *ConditionDependentNode {
	n := &ConditionDependentNode{
		BaseNode: NewBaseNode(name, materials),
	}
	for _, c := range conditions {
		n.RequiresCondition(c)
	}
	return n
}

// RequiresCondition adds a condition to the node.
func (n *ConditionDependentNode) RequiresCondition(c Condition) {
	if c == nil {
		return
	}
	n.conditions = append(n.conditions, c)
}

// Conditions returns the number of conditions of the node.
func (n *ConditionDependentNode) Conditions() int {
	return len(n.conditions)
}

// IsActive implements the Node interface.
func (n *ConditionDependentNode) IsActive() bool {
	if !n.BaseNode.IsActive() {
		return false
	}
	for _, c := range n.conditions {
		if !c() {
			return false
		}
	}
	return true
}
