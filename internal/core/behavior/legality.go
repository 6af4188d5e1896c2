package behavior

import "fmt"

const (
	markDecorator   byte = 'D'
	markInterrupter byte = 'B'
	markPlain       byte = 'N'
)

func placementMark(n Node) byte {
	switch c := n.(type) {
	case Decorator:
		return markDecorator
	case ControlNode:
		if c.InterruptMode() != InterruptNone {
			return markInterrupter
		}
	}
	return markPlain
}

// legalPlacement accepts a root-to-node signature that either carries no
// interrupter or ends with an interrupter, any number of decorators and one
// final decorator or plain node.
func legalPlacement(sig []byte) bool {
	hasInterrupter := false
	for _, m := range sig {
		if m == markInterrupter {
			hasInterrupter = true
			break
		}
	}
	if !hasInterrupter {
		return true
	}
	n := len(sig)
	if n < 2 || sig[n-1] == markInterrupter {
		return false
	}
	i := n - 2
	for i >= 0 && sig[i] == markDecorator {
		i--
	}
	return i >= 0 && sig[i] == markInterrupter
}

func pathSignature(n Node) []byte {
	path := n.Path()
	sig := make([]byte, len(path))
	for i, p := range path {
		sig[i] = placementMark(p)
	}
	return sig
}

// CheckAttach reports why child cannot be placed under parent, or nil when the
// placement is valid. Nodes already hanging below child are validated against
// their new position too.
func CheckAttach(parent, child Node) error {
	if parent == nil || child == nil {
		return ErrNilNode
	}
	if _, ok := parent.(ControlNode); !ok {
		return fmt.Errorf("%s: %w", parent.Name(), ErrLeafParent)
	}
	if d, ok := parent.(Decorator); ok && d.Child() != nil {
		return fmt.Errorf("%s: %w", parent.Name(), ErrDecoratorFull)
	}
	if child.Parent() != nil {
		return fmt.Errorf("%s: %w", child.Name(), ErrAlreadyAttached)
	}
	if contains(child, parent) {
		return fmt.Errorf("%s under %s: %w", child.Name(), parent.Name(), ErrCycle)
	}

	base := pathSignature(parent)
	var walk func(n Node, sig []byte) error
	walk = func(n Node, sig []byte) error {
		sig = append(sig, placementMark(n))
		if !legalPlacement(sig) {
			return fmt.Errorf("%s at %q: %w", n.Name(), string(sig), ErrIllegalPlacement)
		}
		for _, ch := range n.core().children {
			if err := walk(ch, sig[:len(sig):len(sig)]); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(child, base)
}

// Attach validates and links children under parent in order. It stops at the
// first rejected child. Attach builds detached subtrees; once parent hangs
// below a tree root, children go through BehaviorTree.AddChild so the tree's
// node cache follows.
func Attach(parent Node, children ...Node) error {
	if parent != nil {
		if root := parent.Path()[0]; root.core().owner != nil {
			return fmt.Errorf("%s: %w", parent.Name(), ErrOwnedByTree)
		}
	}
	for _, ch := range children {
		if err := CheckAttach(parent, ch); err != nil {
			return err
		}
		link(parent, ch)
	}
	return nil
}

func link(parent, child Node) {
	child.core().parent = parent
	pc := parent.core()
	pc.children = append(pc.children, child)
}
