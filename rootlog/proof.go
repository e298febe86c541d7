package rootlog

import (
	"bytes"
	"fmt"
	"hash"
)

// InclusionPath returns the indices of the siblings needed to climb from node
// i to the peak that commits it in an mmr of the given size.
func InclusionPath(size uint64, i uint64) ([]uint64, error) {
	if i >= size {
		return nil, fmt.Errorf("%w: %d >= %d", ErrIndexRange, i, size)
	}
	var path []uint64
	for g := IndexHeight(i); ; g++ {
		var sibling uint64
		if IndexHeight(i+1) > g {
			// i is a right child, its parent follows it directly.
			sibling = i + 1 - (2 << g)
			i++
		} else {
			sibling = i + (2 << g) - 1
			i += 2 << g
		}
		if sibling >= size {
			return path, nil
		}
		path = append(path, sibling)
	}
}

// InclusionProof reads the sibling values for InclusionPath from store.
func InclusionProof(store NodeGetter, size uint64, i uint64) ([][]byte, error) {
	path, err := InclusionPath(size, i)
	if err != nil {
		return nil, err
	}
	proof := make([][]byte, 0, len(path))
	for _, s := range path {
		v, err := store.Get(s)
		if err != nil {
			return nil, err
		}
		proof = append(proof, v)
	}
	return proof, nil
}

// IncludedRoot climbs from node i, holding value, through proof and returns
// the node reached. For a valid proof that is the peak committing i.
func IncludedRoot(hasher hash.Hash, i uint64, value []byte, proof [][]byte) []byte {
	root := value
	g := IndexHeight(i)
	for _, sibling := range proof {
		if IndexHeight(i+1) > g {
			i++
			root = HashInterior(hasher, i+1, sibling, root)
		} else {
			i += 2 << g
			root = HashInterior(hasher, i+1, root, sibling)
		}
		g++
	}
	return root
}

// VerifyInclusion reports whether value at index i, with proof, climbs to the
// matching peak of an mmr of the given size. peaks are the peak values of that
// mmr, highest first.
func VerifyInclusion(hasher hash.Hash, size uint64, peaks [][]byte, i uint64, value []byte, proof [][]byte) (bool, error) {
	if !ValidSize(size) || len(peaks) != len(Peaks(size)) {
		return false, ErrInvalidSize
	}
	if i >= size {
		return false, fmt.Errorf("%w: %d >= %d", ErrIndexRange, i, size)
	}
	at, ok := PeakIndex(LeafCount(size), IndexHeight(i)+uint64(len(proof)))
	if !ok {
		return false, fmt.Errorf("%w: no peak at height %d", ErrProofMalformed, IndexHeight(i)+uint64(len(proof)))
	}
	return bytes.Equal(IncludedRoot(hasher, i, value, proof), peaks[at]), nil
}
