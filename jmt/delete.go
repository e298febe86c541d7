package jmt

type pathStep struct {
	node   *InternalNode
	nibble uint8
}

// Delete removes key and reports whether it was present.
//
// On the way back up, a node left with no children is removed from its
// parent and a node left with a single leaf child is replaced by that leaf.
// A node left with a single internal child, or with two or more children,
// ends the walk.
func (t *Tree) Delete(key NibblePath) bool {
	if key.IsEmpty() || t.find(key) == nil {
		return false
	}

	node := t.materialize()
	var stack []pathStep
	for depth := 0; ; depth++ {
		nibble := key.At(depth)
		stack = append(stack, pathStep{node, nibble})
		next, ok := node.Child(nibble).(*InternalNode)
		if !ok {
			break
		}
		node = next
	}

	last := stack[len(stack)-1]
	last.node.SetChild(last.nibble, nil)
	t.leaves--

	for i := len(stack) - 1; i > 0; i-- {
		n := stack[i].node
		parent := stack[i-1]

		if n.Count() == 0 {
			parent.node.SetChild(parent.nibble, nil)
			continue
		}
		if _, only, ok := n.only(); ok {
			if leaf, isLeaf := only.(*LeafNode); isLeaf {
				parent.node.SetChild(parent.nibble, leaf)
				continue
			}
		}
		break
	}

	t.normalize()
	return true
}
