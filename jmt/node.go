package jmt

import "bytes"

// Node is a child slot payload: either *LeafNode or *InternalNode. A nil Node
// is an empty slot.
//
// Every node is referenced from exactly one parent slot (or the tree root).
type Node interface {
	isNode()
}

// LeafNode owns its key, its value and the cached digest of both.
type LeafNode struct {
	Key    NibblePath
	Value  []byte
	Digest Digest
}

// InternalNode has one slot per nibble value.
type InternalNode struct {
	Children [Radix]Node
}

func (*LeafNode) isNode()     {}
func (*InternalNode) isNode() {}

// NewInternalNode returns a node with all 16 slots empty.
func NewInternalNode() *InternalNode { return &InternalNode{} }

// Child returns the node in slot n.
func (n *InternalNode) Child(nibble uint8) Node { return n.Children[nibble] }

// SetChild replaces slot n. A nil child empties the slot.
func (n *InternalNode) SetChild(nibble uint8, child Node) { n.Children[nibble] = child }

// Count returns the number of non empty slots.
func (n *InternalNode) Count() int {
	c := 0
	for _, child := range n.Children {
		if child != nil {
			c++
		}
	}
	return c
}

// only returns the single occupied slot. ok is false unless exactly one slot
// is occupied.
func (n *InternalNode) only() (uint8, Node, bool) {
	var (
		found Node
		at    uint8
	)
	for i, child := range n.Children {
		if child == nil {
			continue
		}
		if found != nil {
			return 0, nil, false
		}
		found, at = child, uint8(i)
	}
	return at, found, found != nil
}

func newLeaf(h *hasher, key NibblePath, value []byte) *LeafNode {
	leaf := &LeafNode{Key: key.Clone(), Value: bytes.Clone(value)}
	leaf.Digest = h.leaf(leaf.Key, leaf.Value)
	return leaf
}

// set replaces the value and refreshes the cached digest.
func (l *LeafNode) set(h *hasher, value []byte) {
	l.Value = bytes.Clone(value)
	l.Digest = h.leaf(l.Key, l.Value)
}
