package ast

import (
	"context"
	"errors"
	"fmt"
)

// MaxDepth bounds containment depth during traversal.
const MaxDepth = 256

var (
	// ErrTooDeep reports containment nested deeper than MaxDepth.
	ErrTooDeep = errors.New("ast: containment too deep")
	// ErrSkip may be returned by a WalkFunc to skip the children of the current node.
	ErrSkip = errors.New("ast: skip children")
)

// WalkFunc is called for every visited node.
type WalkFunc func(id NodeID, n *Node) error

// Walk visits every descendant of the document root in pre-order. The root
// itself is not visited. ctx is checked before every node; a cancelled
// context aborts the walk with ctx.Err().
func Walk(ctx context.Context, d *Document, fn WalkFunc) error {
	root := d.Node(d.Root)
	if root == nil {
		return nil
	}
	for _, child := range root.Children {
		if err := walk(ctx, d, child, 1, fn); err != nil {
			return err
		}
	}
	return nil
}

func walk(ctx context.Context, d *Document, id NodeID, depth int, fn WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth > MaxDepth {
		return fmt.Errorf("%w: %s at %s", ErrTooDeep, d.ID, d.Path(id))
	}
	n := d.Node(id)
	if n == nil {
		return nil
	}
	if err := fn(id, n); err != nil {
		if errors.Is(err, ErrSkip) {
			return nil
		}
		return err
	}
	for _, child := range n.Children {
		if err := walk(ctx, d, child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}
