package jmt

import (
	"hash"

	"golang.org/x/crypto/sha3"
)

// NewHasher returns the trie's hash function, legacy Keccak-256.
func NewHasher() hash.Hash { return sha3.NewLegacyKeccak256() }

// LeafHash computes:
//
//	H( tokenNibbles || value )
//
// where tokenNibbles are the key nibbles after the version prefix, expanded to
// one byte per nibble. The hasher must produce HashBytes of output.
func LeafHash(hasher hash.Hash, key NibblePath, value []byte) Digest {
	hasher.Reset()
	_, _ = hasher.Write(key.Expand(VersionNibbles))
	_, _ = hasher.Write(value)
	return sum(hasher)
}

// HashChildren computes H( slot0 || slot1 || ... || slot15 ), the 512 byte
// buffer hash shared by internal nodes and proof replay.
func HashChildren(hasher hash.Hash, slots *[Radix]Digest) Digest {
	hasher.Reset()
	for i := range slots {
		_, _ = hasher.Write(slots[i][:])
	}
	return sum(hasher)
}

// InternalHash computes the digest of n from the current digests of its
// children. Internal digests are never cached, so this recurses through every
// internal descendant.
func InternalHash(hasher hash.Hash, n *InternalNode) Digest {
	var slots [Radix]Digest
	for i, child := range n.Children {
		slots[i] = NodeDigest(hasher, child)
	}
	return HashChildren(hasher, &slots)
}

// NodeDigest returns the digest a parent records for child. Empty slots are
// DefaultDigest.
func NodeDigest(hasher hash.Hash, child Node) Digest {
	switch c := child.(type) {
	case *LeafNode:
		return c.Digest
	case *InternalNode:
		return InternalHash(hasher, c)
	default:
		return DefaultDigest
	}
}

func sum(hasher hash.Hash) Digest {
	var out Digest
	var buf [HashBytes]byte
	copy(out[:], hasher.Sum(buf[:0]))
	return out
}

// hasher binds a hash.Hash to the trie. It exists so node helpers do not
// need the hash.Hash threaded through their signatures.
type hasher struct {
	h hash.Hash
}

func (h *hasher) leaf(key NibblePath, value []byte) Digest { return LeafHash(h.h, key, value) }

func (h *hasher) node(n Node) Digest { return NodeDigest(h.h, n) }
