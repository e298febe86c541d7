package jmt

// Insert stores value under key and returns the data needed to recompute the
// root as it was before this call (see ReconstructPriorRoot).
//
// Arguments are validated, and key prefix conflicts detected, before any node
// is modified. On error the tree is unchanged.
func (t *Tree) Insert(key NibblePath, value []byte) (AncestryProof, error) {
	if key.IsEmpty() {
		return AncestryProof{}, ErrInvalidKey
	}
	if len(value) == 0 {
		return AncestryProof{}, ErrInvalidValue
	}

	node := t.materialize()
	depth := 0
	for {
		if depth >= key.Len() {
			t.normalize()
			return AncestryProof{}, ErrKeyPrefixConflict
		}
		nibble := key.At(depth)

		switch c := node.Child(nibble).(type) {
		case *InternalNode:
			node = c
			depth++
			continue

		case *LeafNode:
			if c.Key.Equal(key) {
				prior := c.Digest
				c.set(&t.h, value)
				return t.settle(key, false, 0, prior), nil
			}
			common := key.CommonPrefixLen(c.Key, depth+1)
			if common >= key.Len() || common >= c.Key.Len() {
				t.normalize()
				return AncestryProof{}, ErrKeyPrefixConflict
			}
			node.SetChild(nibble, t.split(c, key, value, depth+1, common))
			t.leaves++

			a := t.settle(c.Key, true, depth+1, c.Digest)
			return a, nil

		default:
			node.SetChild(nibble, newLeaf(&t.h, key, value))
			t.leaves++
			return t.settle(key, false, 0, DefaultDigest), nil
		}
	}
}

// split builds the chain of internal nodes that replaces existing. The chain
// starts at depth from and ends in the node at depth common, which holds both
// leaves at their first differing nibble.
func (t *Tree) split(existing *LeafNode, key NibblePath, value []byte, from, common int) *InternalNode {
	top := NewInternalNode()
	cur := top
	for depth := from; depth < common; depth++ {
		next := NewInternalNode()
		cur.SetChild(key.At(depth), next)
		cur = next
	}
	cur.SetChild(existing.Key.At(common), existing)
	cur.SetChild(key.At(common), newLeaf(&t.h, key, value))
	return top
}

// settle normalizes the root and captures the ancestry for proofKey against
// the new tree.
func (t *Tree) settle(proofKey NibblePath, splitted bool, preForkingDepth int, prior Digest) AncestryProof {
	t.normalize()
	return AncestryProof{
		Splitted:        splitted,
		PreForkingDepth: preForkingDepth,
		Key:             proofKey.Clone(),
		Proof:           t.GenerateProof(proofKey),
		RootN:           t.RootDigest(),
		PriorLeafHash:   prior,
	}
}
