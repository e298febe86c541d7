package rootlog

import (
	"encoding/binary"
	"errors"
	"hash"
)

var (
	ErrInvalidSize    = errors.New("rootlog: not a complete mmr size")
	ErrIndexRange     = errors.New("rootlog: index out of range")
	ErrProofMalformed = errors.New("rootlog: proof does not fit the mmr sizes")
	ErrSequence       = errors.New("rootlog: sequence number does not match the next leaf")
)

// NodeGetter reads node values by mmr index.
type NodeGetter interface {
	Get(i uint64) ([]byte, error)
}

// NodeAppender is the storage an mmr grows in. Append returns the size of the
// store after the value was added, which is also the index the next value
// will get.
type NodeAppender interface {
	NodeGetter
	Append(value []byte) (uint64, error)
}

// AddHashedLeaf appends a leaf and every interior node it completes. It
// returns the new mmr size.
//
// After a node is appended at index i-1, the node at i is interior exactly
// when IndexHeight(i) is greater than the height just written. Its children
// are at i-(2<<h) and i-1.
func AddHashedLeaf(store NodeAppender, hasher hash.Hash, leaf []byte) (uint64, error) {
	i, err := store.Append(leaf)
	if err != nil {
		return 0, err
	}

	for height := uint64(0); IndexHeight(i) > height; height++ {
		left, err := store.Get(i - (2 << height))
		if err != nil {
			return 0, err
		}
		right, err := store.Get(i - 1)
		if err != nil {
			return 0, err
		}
		if i, err = store.Append(HashInterior(hasher, i+1, left, right)); err != nil {
			return 0, err
		}
	}
	return i, nil
}

// HashInterior returns H( pos_be8 || left || right ). pos is one based.
func HashInterior(hasher hash.Hash, pos uint64, left, right []byte) []byte {
	hasher.Reset()
	writeUint64(hasher, pos)
	hasher.Write(left)
	hasher.Write(right)
	return hasher.Sum(nil)
}

// HashLeaf returns H( 0x00 || seq_be8 || root ), the leaf recorded for the
// root reached by mutation seq.
func HashLeaf(hasher hash.Hash, seq uint64, root []byte) []byte {
	hasher.Reset()
	hasher.Write([]byte{0x00})
	writeUint64(hasher, seq)
	hasher.Write(root)
	return hasher.Sum(nil)
}

func writeUint64(hasher hash.Hash, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	hasher.Write(b[:])
}
