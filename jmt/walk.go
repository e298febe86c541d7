package jmt

import "fmt"

// WalkFunc is called for every node in depth first, slot order. depth is
// the depth of the internal node holding the slot and nibble the slot index.
// The root, when it is an internal node, is reported with depth -1.
// Returning an error ends the walk and Walk returns it.
type WalkFunc func(depth int, nibble uint8, n Node) error

// Walk visits the live tree. A leaf root is reported as if it sat in slot
// Key.At(0) of the depth 0 node.
func (t *Tree) Walk(fn WalkFunc) error {
	switch r := t.root.(type) {
	case nil:
		return nil
	case *LeafNode:
		return fn(0, r.Key.At(0), r)
	case *InternalNode:
		if err := fn(-1, 0, r); err != nil {
			return err
		}
		return walk(r, 0, fn)
	}
	return nil
}

func walk(n *InternalNode, depth int, fn WalkFunc) error {
	for i, child := range n.Children {
		if child == nil {
			continue
		}
		if err := fn(depth, uint8(i), child); err != nil {
			return err
		}
		if next, ok := child.(*InternalNode); ok {
			if err := walk(next, depth+1, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stats summarizes the shape of a tree.
type Stats struct {
	Leaves    int
	Internals int
	// MaxDepth is the deepest slot holding a leaf.
	MaxDepth int
	// LeafDepths counts leaves by the depth of the slot holding them.
	LeafDepths map[int]int
}

func (t *Tree) Stats() Stats {
	s := Stats{LeafDepths: map[int]int{}}
	_ = t.Walk(func(depth int, _ uint8, n Node) error {
		switch n.(type) {
		case *InternalNode:
			s.Internals++
		case *LeafNode:
			s.Leaves++
			s.LeafDepths[depth]++
			s.MaxDepth = max(s.MaxDepth, depth)
		}
		return nil
	})
	return s
}

// CheckInvariants returns an error describing the first structural problem
// found: an internal node with no children or with a single leaf child, a
// leaf whose cached digest is stale, or a leaf whose key does not match the
// slots leading to it.
func (t *Tree) CheckInvariants() error {
	var check func(n *InternalNode, prefix []uint8) error
	check = func(n *InternalNode, prefix []uint8) error {
		switch n.Count() {
		case 0:
			return fmt.Errorf("jmt: empty internal node at %x", prefix)
		case 1:
			if _, only, _ := n.only(); only != nil {
				if _, ok := only.(*LeafNode); ok {
					return fmt.Errorf("jmt: internal node at %x holds a single leaf", prefix)
				}
			}
		}
		for i, child := range n.Children {
			path := append(append([]uint8(nil), prefix...), uint8(i))
			switch c := child.(type) {
			case *LeafNode:
				if err := t.checkLeaf(c, path); err != nil {
					return err
				}
			case *InternalNode:
				if err := check(c, path); err != nil {
					return err
				}
			}
		}
		return nil
	}

	switch r := t.root.(type) {
	case *LeafNode:
		return t.checkLeaf(r, []uint8{r.Key.At(0)})
	case *InternalNode:
		return check(r, nil)
	}
	return nil
}

func (t *Tree) checkLeaf(l *LeafNode, path []uint8) error {
	if l.Digest != t.h.leaf(l.Key, l.Value) {
		return fmt.Errorf("jmt: stale digest for leaf %s", l.Key)
	}
	if l.Key.Len() < len(path) {
		return fmt.Errorf("jmt: leaf %s shorter than its path %x", l.Key, path)
	}
	for i, nibble := range path {
		if l.Key.At(i) != nibble {
			return fmt.Errorf("jmt: leaf %s is misplaced at %x", l.Key, path)
		}
	}
	return nil
}

// Leaves returns every leaf in key order.
func (t *Tree) Leaves() []*LeafNode {
	var out []*LeafNode
	_ = t.Walk(func(_ int, _ uint8, n Node) error {
		if leaf, ok := n.(*LeafNode); ok {
			out = append(out, leaf)
		}
		return nil
	})
	return out
}
