package jmt

import "hash"

// AncestryProof is captured by every Insert. Together with the inserted
// value it lets a third party recompute the root as it was before the insert.
type AncestryProof struct {
	// Splitted is set when the insert displaced an existing leaf into a new
	// chain of internal nodes.
	Splitted bool
	// PreForkingDepth is the depth at which the new chain begins, which is
	// also the number of levels the displaced leaf's proof had before the
	// split. Zero unless Splitted.
	PreForkingDepth int
	// Key is the key Proof was taken for: the displaced leaf for a split,
	// the inserted key otherwise.
	Key   NibblePath
	Proof Proof
	// RootN is the root digest after the insert.
	RootN Digest
	// PriorLeafHash is the digest Key's slot held before the insert:
	// DefaultDigest for a fresh slot, the old leaf digest for an update or
	// the displaced leaf's digest for a split.
	PriorLeafHash Digest
}

// ReconstructPriorRoot recomputes the root digest that existed immediately
// before the insert that produced a. insertedValue is the value passed to
// that insert.
//
// The claimed post state is checked first. If a is malformed, or its proof
// does not reproduce a.RootN, DefaultDigest is returned.
func ReconstructPriorRoot(hasher hash.Hash, a *AncestryProof, insertedValue []byte) Digest {
	if a == nil || a.Key.IsEmpty() || checkShape(a.Key, a.Proof) != nil {
		return DefaultDigest
	}

	if !a.Splitted {
		check, err := replay(hasher, a.Key, a.Proof.Levels, LeafHash(hasher, a.Key, insertedValue))
		if err != nil || check != a.RootN {
			return DefaultDigest
		}
		prior, err := replay(hasher, a.Key, a.Proof.Levels, a.PriorLeafHash)
		if err != nil {
			return DefaultDigest
		}
		return prior
	}

	anchor := a.Proof.LeafHash
	check, err := replay(hasher, a.Key, a.Proof.Levels, anchor)
	if err != nil || check != a.RootN {
		return DefaultDigest
	}

	// The levels below PreForkingDepth belong to the chain the split created.
	// Levels are stored leaf -> root, so the pre-split proof is the tail.
	n := len(a.Proof.Levels)
	if a.PreForkingDepth <= 0 || a.PreForkingDepth >= n {
		return DefaultDigest
	}
	truncated := Proof{
		Present:  true,
		Depth:    a.PreForkingDepth,
		LeafHash: anchor,
		Levels:   a.Proof.Levels[n-a.PreForkingDepth:],
	}
	prior, err := ComputeProofRoot(hasher, a.Key, truncated)
	if err != nil {
		return DefaultDigest
	}
	return prior
}
