package jmt

import (
	"fmt"
	"hash"
)

// ComputeProofRoot replays proof for key starting from proof.LeafHash and
// returns the resulting root digest.
func ComputeProofRoot(hasher hash.Hash, key NibblePath, proof Proof) (Digest, error) {
	if err := checkShape(key, proof); err != nil {
		return Digest{}, err
	}
	return replay(hasher, key, proof.Levels, proof.LeafHash)
}

// VerifyProof reports whether proof replays to root. Both membership and
// non-membership proofs are accepted; inspect proof.Present to tell them
// apart.
func VerifyProof(hasher hash.Hash, key NibblePath, proof Proof, root Digest) bool {
	got, err := ComputeProofRoot(hasher, key, proof)
	return err == nil && got == root
}

// VerifyMembership additionally binds the proof anchor to value.
func VerifyMembership(hasher hash.Hash, key NibblePath, value []byte, proof Proof, root Digest) bool {
	if !proof.Present || LeafHash(hasher, key, value) != proof.LeafHash {
		return false
	}
	return VerifyProof(hasher, key, proof, root)
}

// VerifyNonMembership accepts proofs that claim key is absent and replay to
// root.
func VerifyNonMembership(hasher hash.Hash, key NibblePath, proof Proof, root Digest) bool {
	return !proof.Present && VerifyProof(hasher, key, proof, root)
}

func checkShape(key NibblePath, proof Proof) error {
	if proof.Depth != len(proof.Levels) {
		return fmt.Errorf("%w: depth %d, levels %d", ErrProofDepthMismatch, proof.Depth, len(proof.Levels))
	}
	if len(proof.Levels) == 0 {
		return fmt.Errorf("%w: no levels", ErrProofDepthMismatch)
	}
	if len(proof.Levels) > key.Len() {
		return ErrProofTooDeep
	}
	return nil
}

// replay folds levels leaf -> root. Level i pairs with the key nibble at
// depth len(levels)-1-i.
func replay(hasher hash.Hash, key NibblePath, levels []Level, anchor Digest) (Digest, error) {
	running := anchor
	for i, lvl := range levels {
		nibble := key.At(len(levels) - 1 - i)

		var (
			slots [Radix]Digest
			seen  uint16
		)
		for _, s := range lvl.Siblings {
			if s.Index >= Radix || s.Index == nibble || seen&(1<<s.Index) != 0 {
				return Digest{}, fmt.Errorf("%w: level %d index %d", ErrBadSiblingIndex, i, s.Index)
			}
			seen |= 1 << s.Index
			slots[s.Index] = s.Digest
		}
		slots[nibble] = running
		running = HashChildren(hasher, &slots)
	}
	return running, nil
}
