package jmt

/*

# Jellyfish Merkle Tree

This package implements an in-memory Jellyfish Merkle Tree: a radix 16 sparse
Merkle trie over versioned keys, with a single root digest and compact proofs
of membership and non-membership.

Conventions shared with the `rootlog` and `bloom` packages:

- small, composable functions
- the hash function is always supplied by the caller (a `hash.Hash`)
- fixed width `[HashBytes]byte` digests
- no logging, errors are package sentinels

## Keys

A key is a `NibblePath`. Keys built by `KeyAt` or a `VersionRegistry` are 24
nibbles: an 8 nibble big endian version followed by the 16 nibble big endian
identifier path. Trie depth equals nibble position, so the version prefix
spreads successive mints of the same identifier across the trie.

## Hashing

	LeafHash     = H( tokenNibbles || value )
	InternalHash = H( slot0 || slot1 || ... || slot15 )

tokenNibbles are the key nibbles after the version prefix, one byte each. The
version is committed by the position of the leaf, not by its digest. Each
slot holds the child digest, or the all zero `DefaultDigest` when empty.
Internal digests are recomputed on demand and never cached.

## Root

The root is a slot like any other. Digests and proofs are always taken over
the depth 0 internal node:

	empty trie  -> H( 16 x DefaultDigest )
	leaf root   -> H( ... leaf digest at slot key[0] ... )
	internal    -> InternalHash(root)

Mutations materialize the depth 0 node, then collapse it again when it is
left with no children or a single leaf.

## Proofs

A proof holds one level per internal node visited, ordered leaf -> root. Level
i pairs with the key nibble at depth `len(Levels)-1-i`. Replay places the
running digest in that slot, fills the recorded siblings, and hashes. The
anchor is the digest of the leaf found on the path, or `DefaultDigest` when
the path ended in an empty slot.

## Ancestry

Every insert returns an `AncestryProof`. It carries a proof taken against the
new tree plus enough context to replay it as the tree stood before:

- fresh slot or update: replay from `PriorLeafHash` (the default digest for
  a fresh slot, the old leaf digest for an update)
- split: replay the displaced leaf's proof with only the root side
  `PreForkingDepth` levels; the deeper levels belong to the chain the split
  created

In every case the proof is first checked against `RootN`. Reconstruction
returns `DefaultDigest` when that check fails or the input is malformed.

## Deletion

Deletion walks back up the recorded path. Empty internal nodes are removed
and an internal node holding a single leaf is replaced by that leaf. A node
left with a single internal child is kept as is, so only leaf paths are
compressed.

*/
