package rootlog

import (
	"bytes"
	"fmt"
	"hash"
)

// Log records the sequence of trie roots. Leaf n is the root reached by
// mutation n.
//
// A Log is not safe for concurrent use.
type Log struct {
	store  NodeAppender
	hasher hash.Hash
	size   uint64
}

// Inclusion is a proof that a root was recorded at a sequence number in an
// mmr of a particular size.
type Inclusion struct {
	Seq     uint64   `cbor:"1,keyasint"`
	MMRSize uint64   `cbor:"2,keyasint"`
	Path    [][]byte `cbor:"3,keyasint"`
}

// NewLog resumes a log of the given size held in store. Use size 0 for a new
// log.
func NewLog(store NodeAppender, hasher hash.Hash, size uint64) (*Log, error) {
	if !ValidSize(size) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return &Log{store: store, hasher: hasher, size: size}, nil
}

// Size returns the mmr size, the number of stored nodes.
func (l *Log) Size() uint64 { return l.size }

// Len returns the number of roots recorded.
func (l *Log) Len() uint64 { return LeafCount(l.size) }

// Append records root as the state after mutation seq. seq must equal Len.
func (l *Log) Append(seq uint64, root []byte) error {
	if seq != l.Len() {
		return fmt.Errorf("%w: got %d, want %d", ErrSequence, seq, l.Len())
	}
	size, err := AddHashedLeaf(l.store, l.hasher, HashLeaf(l.hasher, seq, root))
	if err != nil {
		return err
	}
	l.size = size
	return nil
}

// Peaks returns the current peak values, highest first.
func (l *Log) Peaks() ([][]byte, error) {
	return PeakHashes(l.store, l.size)
}

// Root returns the bagged peaks. An empty log has a nil root.
func (l *Log) Root() ([]byte, error) {
	peaks, err := l.Peaks()
	if err != nil {
		return nil, err
	}
	return BagPeaks(l.hasher, peaks), nil
}

// Contains reports whether root was recorded as the state after mutation seq.
func (l *Log) Contains(seq uint64, root []byte) (bool, error) {
	if seq >= l.Len() {
		return false, nil
	}
	v, err := l.store.Get(MMRIndex(seq))
	if err != nil {
		return false, err
	}
	return bytes.Equal(v, HashLeaf(l.hasher, seq, root)), nil
}

// Prove returns an inclusion proof for the root recorded at seq against the
// current size.
func (l *Log) Prove(seq uint64) (Inclusion, error) {
	if seq >= l.Len() {
		return Inclusion{}, fmt.Errorf("%w: seq %d, %d recorded", ErrIndexRange, seq, l.Len())
	}
	path, err := InclusionProof(l.store, l.size, MMRIndex(seq))
	if err != nil {
		return Inclusion{}, err
	}
	return Inclusion{Seq: seq, MMRSize: l.size, Path: path}, nil
}

// ProveConsistency returns a proof that the current log extends the log as it
// was at size.
func (l *Log) ProveConsistency(size uint64) (ConsistencyProof, error) {
	return IndexConsistencyProof(l.store, size, l.size)
}

// VerifyRoot checks that root was recorded at p.Seq in the mmr whose peaks
// are given.
func VerifyRoot(hasher hash.Hash, peaks [][]byte, root []byte, p Inclusion) bool {
	ok, err := VerifyInclusion(hasher, p.MMRSize, peaks, MMRIndex(p.Seq), HashLeaf(hasher, p.Seq, root), p.Path)
	return err == nil && ok
}
