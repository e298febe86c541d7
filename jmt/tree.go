package jmt

import "hash"

// Tree is an in-memory Jellyfish Merkle Tree.
//
// The root is a Node like any other slot: nil for an empty trie, a single
// *LeafNode, or an *InternalNode. Digests and proofs are always taken over
// the depth 0 internal node, so a leaf root is hashed as if it sat in the
// slot selected by its first nibble.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	h      hasher
	root   Node
	leaves int
}

type Option func(*Tree)

// WithHasher replaces the default Keccak-256 hasher.
func WithHasher(h hash.Hash) Option {
	return func(t *Tree) { t.h.h = h }
}

// New returns an empty tree.
func New(opts ...Option) (*Tree, error) {
	t := &Tree{}
	for _, o := range opts {
		o(t)
	}
	if t.h.h == nil {
		t.h.h = NewHasher()
	}
	if t.h.h.Size() != HashBytes {
		return nil, ErrBadHashSize
	}
	return t, nil
}

// Hasher returns the hash function bound to the tree. Verifiers should use a
// fresh instance of the same function.
func (t *Tree) Hasher() hash.Hash { return t.h.h }

// Root returns the root slot. The returned node must not be modified.
func (t *Tree) Root() Node { return t.root }

// Len returns the number of leaves.
func (t *Tree) Len() int { return t.leaves }

// RootDigest returns the digest of the depth 0 node.
func (t *Tree) RootDigest() Digest {
	return InternalHash(t.h.h, t.view())
}

// EmptyRootDigest is the digest of a tree with no leaves: the hash of 16
// default digests.
func EmptyRootDigest(hasher hash.Hash) Digest {
	var slots [Radix]Digest
	return HashChildren(hasher, &slots)
}

// view returns the depth 0 internal node without changing the tree. For a
// leaf or empty root a detached node is synthesized.
func (t *Tree) view() *InternalNode {
	switch r := t.root.(type) {
	case *InternalNode:
		return r
	case *LeafNode:
		n := NewInternalNode()
		n.SetChild(r.Key.At(0), r)
		return n
	default:
		return NewInternalNode()
	}
}

// materialize makes the depth 0 internal node real so mutations can attach to
// it. normalize must be called once the mutation completes.
func (t *Tree) materialize() *InternalNode {
	n := t.view()
	t.root = n
	return n
}

// normalize collapses the root: no children gives an empty tree, a single
// leaf child becomes the root itself.
func (t *Tree) normalize() {
	n, ok := t.root.(*InternalNode)
	if !ok {
		return
	}
	switch n.Count() {
	case 0:
		t.root = nil
	case 1:
		if _, only, _ := n.only(); only != nil {
			if leaf, ok := only.(*LeafNode); ok {
				t.root = leaf
			}
		}
	}
}

// Lookup returns a copy of the value stored under key.
func (t *Tree) Lookup(key NibblePath) ([]byte, bool) {
	if key.IsEmpty() {
		return nil, false
	}
	leaf := t.find(key)
	if leaf == nil {
		return nil, false
	}
	return append([]byte(nil), leaf.Value...), true
}

// find returns the leaf stored under key, or nil.
func (t *Tree) find(key NibblePath) *LeafNode {
	node := t.view()
	for depth := 0; depth < key.Len(); depth++ {
		switch c := node.Child(key.At(depth)).(type) {
		case *InternalNode:
			node = c
		case *LeafNode:
			if c.Key.Equal(key) {
				return c
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}
