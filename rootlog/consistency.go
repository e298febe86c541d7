package rootlog

import (
	"bytes"
	"fmt"
	"hash"
)

// ConsistencyProof shows that the mmr of size B is the mmr of size A with
// nodes appended. Path is the concatenated inclusion proofs, in B, of each
// peak of A.
type ConsistencyProof struct {
	MMRSizeA uint64   `cbor:"1,keyasint"`
	MMRSizeB uint64   `cbor:"2,keyasint"`
	Path     [][]byte `cbor:"3,keyasint"`
}

// IndexConsistencyProof builds the proof that sizeB extends sizeA.
func IndexConsistencyProof(store NodeGetter, sizeA, sizeB uint64) (ConsistencyProof, error) {
	if !ValidSize(sizeA) || !ValidSize(sizeB) || sizeA > sizeB {
		return ConsistencyProof{}, fmt.Errorf("%w: %d -> %d", ErrInvalidSize, sizeA, sizeB)
	}
	proof := ConsistencyProof{MMRSizeA: sizeA, MMRSizeB: sizeB}
	for _, peak := range Peaks(sizeA) {
		p, err := InclusionProof(store, sizeB, peak)
		if err != nil {
			return ConsistencyProof{}, err
		}
		proof.Path = append(proof.Path, p...)
	}
	return proof, nil
}

// splitPath cuts a consistency path into one inclusion proof per peak of A.
func splitPath(proof ConsistencyProof) ([][][]byte, error) {
	path := proof.Path
	var out [][][]byte
	for _, peak := range Peaks(proof.MMRSizeA) {
		want, err := InclusionPath(proof.MMRSizeB, peak)
		if err != nil {
			return nil, err
		}
		if len(want) > len(path) {
			return nil, fmt.Errorf("%w: path too short", ErrProofMalformed)
		}
		out = append(out, path[:len(want)])
		path = path[len(want):]
	}
	if len(path) != 0 {
		return nil, fmt.Errorf("%w: %d unused path entries", ErrProofMalformed, len(path))
	}
	return out, nil
}

// ConsistentRoots climbs each peak of A through its proof and returns the
// distinct nodes reached, in order. For a valid proof they are the leading
// peaks of B.
func ConsistentRoots(hasher hash.Hash, sizeA uint64, peaksA [][]byte, proofs [][][]byte) ([][]byte, error) {
	positions := Peaks(sizeA)
	if len(positions) != len(peaksA) || len(proofs) != len(peaksA) {
		return nil, fmt.Errorf("%w: %d peaks, %d values, %d proofs", ErrProofMalformed, len(positions), len(peaksA), len(proofs))
	}
	var roots [][]byte
	for i, peak := range positions {
		root := IncludedRoot(hasher, peak, peaksA[i], proofs[i])
		if len(roots) > 0 && bytes.Equal(roots[len(roots)-1], root) {
			continue
		}
		roots = append(roots, root)
	}
	return roots, nil
}

// VerifyConsistency reports whether proof shows that the mmr with peaks
// peaksB extends the mmr with peaks peaksA.
func VerifyConsistency(hasher hash.Hash, peaksA, peaksB [][]byte, proof ConsistencyProof) bool {
	if proof.MMRSizeA == 0 || proof.MMRSizeA > proof.MMRSizeB {
		return false
	}
	if !ValidSize(proof.MMRSizeA) || !ValidSize(proof.MMRSizeB) {
		return false
	}
	if len(peaksB) != len(Peaks(proof.MMRSizeB)) {
		return false
	}
	proofs, err := splitPath(proof)
	if err != nil {
		return false
	}
	roots, err := ConsistentRoots(hasher, proof.MMRSizeA, peaksA, proofs)
	if err != nil || len(roots) > len(peaksB) {
		return false
	}
	for i, r := range roots {
		if !bytes.Equal(r, peaksB[i]) {
			return false
		}
	}
	return true
}
