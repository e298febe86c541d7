package jmt

// Sibling is the digest of a non empty slot next to the queried path.
type Sibling struct {
	Index  uint8  `cbor:"1,keyasint"`
	Digest Digest `cbor:"2,keyasint"`
}

// Level holds the siblings collected at one trie depth, in slot order.
type Level struct {
	Siblings []Sibling `cbor:"1,keyasint"`
}

// Proof is a combined membership / non-membership proof.
//
// Levels are ordered leaf -> root: Levels[0] belongs to the deepest node
// visited and Levels[len(Levels)-1] to the depth 0 node. Level i therefore
// pairs with the key nibble at depth len(Levels)-1-i.
type Proof struct {
	Present bool `cbor:"1,keyasint"`
	// Depth is the number of internal nodes visited, equal to len(Levels).
	Depth int `cbor:"2,keyasint"`
	// LeafHash is the anchor replay starts from: the digest of the leaf
	// found on the path, or DefaultDigest when the path ended in an empty
	// slot.
	LeafHash Digest  `cbor:"3,keyasint"`
	Levels   []Level `cbor:"4,keyasint"`
}

// GenerateProof descends along key and collects siblings at every depth.
//
// The walk ends at an empty slot (non-membership, default anchor) or at a
// leaf. A leaf with a different key yields non-membership anchored on that
// leaf's digest. A key that runs out of nibbles inside internal nodes is also
// reported as non-membership; such a proof does not replay to the root.
func (t *Tree) GenerateProof(key NibblePath) Proof {
	var (
		p      Proof
		levels []Level
	)
	node := t.view()

	for depth := 0; depth < key.Len(); depth++ {
		nibble := key.At(depth)
		levels = append(levels, t.siblings(node, nibble))

		child := node.Child(nibble)
		if next, ok := child.(*InternalNode); ok {
			node = next
			continue
		}
		if leaf, ok := child.(*LeafNode); ok {
			p.LeafHash = leaf.Digest
			p.Present = leaf.Key.Equal(key)
		}
		break
	}

	for i, j := 0, len(levels)-1; i < j; i, j = i+1, j-1 {
		levels[i], levels[j] = levels[j], levels[i]
	}
	p.Levels = levels
	p.Depth = len(levels)
	return p
}

func (t *Tree) siblings(node *InternalNode, except uint8) Level {
	var lvl Level
	for i, child := range node.Children {
		if child == nil || uint8(i) == except {
			continue
		}
		lvl.Siblings = append(lvl.Siblings, Sibling{Index: uint8(i), Digest: t.h.node(child)})
	}
	return lvl
}

// Clone returns a deep copy of p.
func (p Proof) Clone() Proof {
	c := p
	c.Levels = make([]Level, len(p.Levels))
	for i, lvl := range p.Levels {
		c.Levels[i].Siblings = append([]Sibling(nil), lvl.Siblings...)
	}
	return c
}
