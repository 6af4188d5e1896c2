package behavior

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNilNode          = errors.New("behavior: nil node")
	ErrLeafParent       = errors.New("behavior: execution nodes cannot have children")
	ErrDecoratorFull    = errors.New("behavior: decorator already has a child")
	ErrAlreadyAttached  = errors.New("behavior: node already has a parent")
	ErrCycle            = errors.New("behavior: node is already part of the parent's tree")
	ErrIllegalPlacement = errors.New("behavior: interrupt path is illegal")
	ErrNotControl       = errors.New("behavior: root must be a parentless control node")
	ErrNoneResult       = errors.New("behavior: execution node resolved to NONE")
	ErrStepBudget       = errors.New("behavior: traversal step budget exceeded")
	ErrOwnedByTree      = errors.New("behavior: parent belongs to a tree, use BehaviorTree.AddChild")
)

// Node is a vertex of a behavior tree. The set of implementations is closed:
// behavior is plugged in through ActionHandler and condition predicates.
type Node interface {
	ID() string
	Name() string
	Result() Result
	Reset()

	Parent() Node
	Children() []Node
	Path() []Node
	Depth() int
	Descendants() []Node

	core() *nodeCore
}

// ControlNode dispatches children and derives its result from theirs.
type ControlNode interface {
	Node
	InterruptMode() InterruptMode
	// Next returns the child to dispatch next, or nil when this node has
	// nothing left to run in the current cycle.
	Next() Node
}

// Decorator is a control node with at most one child.
type Decorator interface {
	ControlNode
	Child() Node
}

// ExecutionNode is a leaf that does work when ticked.
type ExecutionNode interface {
	Node
	tick(tc *TickContext) error
}

type nodeCore struct {
	id       string
	name     string
	self     Node
	parent   Node
	children []Node
	owner    *BehaviorTree // set on a tree's root only
}

func (c *nodeCore) init(self Node, name string) {
	c.id = uuid.NewString()
	c.name = name
	c.self = self
}

func (c *nodeCore) core() *nodeCore { return c }

func (c *nodeCore) ID() string   { return c.id }
func (c *nodeCore) Name() string { return c.name }
func (c *nodeCore) Parent() Node { return c.parent }

func (c *nodeCore) Children() []Node {
	out := make([]Node, len(c.children))
	copy(out, c.children)
	return out
}

// Path returns the chain from the topmost ancestor down to this node.
func (c *nodeCore) Path() []Node {
	var rev []Node
	for n := c.self; n != nil; n = n.Parent() {
		rev = append(rev, n)
	}
	out := make([]Node, len(rev))
	for i, n := range rev {
		out[len(rev)-1-i] = n
	}
	return out
}

func (c *nodeCore) Depth() int {
	d := 0
	for n := c.parent; n != nil; n = n.Parent() {
		d++
	}
	return d
}

// Descendants lists the subtree below this node in depth-first pre-order.
func (c *nodeCore) Descendants() []Node {
	var out []Node
	var walk func(n Node)
	walk = func(n Node) {
		for _, ch := range n.core().children {
			out = append(out, ch)
			walk(ch)
		}
	}
	walk(c.self)
	return out
}

func (c *nodeCore) first() Node {
	if len(c.children) == 0 {
		return nil
	}
	return c.children[0]
}

// ResetSubtree clears the results of n and everything beneath it.
func ResetSubtree(n Node) {
	if n == nil {
		return
	}
	n.Reset()
	for _, ch := range n.core().children {
		ResetSubtree(ch)
	}
}

func topmost(n Node) Node {
	for n.Parent() != nil {
		n = n.Parent()
	}
	return n
}

func contains(root, target Node) bool {
	if root == target {
		return true
	}
	for _, ch := range root.core().children {
		if contains(ch, target) {
			return true
		}
	}
	return false
}
