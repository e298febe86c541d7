package archive

import (
	"github.com/forestrie/go-jellyfish/jmt"
)

// Key is the storable form of a jmt.NibblePath.
type Key struct {
	Packed  []byte `cbor:"1,keyasint"`
	Nibbles int    `cbor:"2,keyasint"`
}

func KeyOf(p jmt.NibblePath) Key {
	return Key{Packed: append([]byte(nil), p.Bytes()...), Nibbles: p.Len()}
}

func (k Key) Path() (jmt.NibblePath, error) {
	return jmt.NewNibblePath(append([]byte(nil), k.Packed...), k.Nibbles)
}

// ProofRecord is the latest proof archived for a key.
type ProofRecord struct {
	Seq   uint64     `cbor:"1,keyasint"`
	Key   Key        `cbor:"2,keyasint"`
	Value []byte     `cbor:"3,keyasint"`
	Root  jmt.Digest `cbor:"4,keyasint"`
	Proof jmt.Proof  `cbor:"5,keyasint"`
}

// AncestryRecord keeps everything needed to re-run ReconstructPriorRoot for
// the insert applied as mutation Seq.
type AncestryRecord struct {
	Seq             uint64     `cbor:"1,keyasint"`
	InsertedKey     Key        `cbor:"2,keyasint"`
	InsertedValue   []byte     `cbor:"3,keyasint"`
	Splitted        bool       `cbor:"4,keyasint"`
	PreForkingDepth int        `cbor:"5,keyasint"`
	Key             Key        `cbor:"6,keyasint"`
	Proof           jmt.Proof  `cbor:"7,keyasint"`
	RootN           jmt.Digest `cbor:"8,keyasint"`
	PriorLeafHash   jmt.Digest `cbor:"9,keyasint"`
	PriorRoot       jmt.Digest `cbor:"10,keyasint"`
}

func NewAncestryRecord(seq uint64, key jmt.NibblePath, value []byte, a jmt.AncestryProof, prior jmt.Digest) AncestryRecord {
	return AncestryRecord{
		Seq:             seq,
		InsertedKey:     KeyOf(key),
		InsertedValue:   append([]byte(nil), value...),
		Splitted:        a.Splitted,
		PreForkingDepth: a.PreForkingDepth,
		Key:             KeyOf(a.Key),
		Proof:           a.Proof,
		RootN:           a.RootN,
		PriorLeafHash:   a.PriorLeafHash,
		PriorRoot:       prior,
	}
}

// Ancestry rebuilds the jmt form of the record.
func (r AncestryRecord) Ancestry() (jmt.AncestryProof, error) {
	key, err := r.Key.Path()
	if err != nil {
		return jmt.AncestryProof{}, err
	}
	return jmt.AncestryProof{
		Splitted:        r.Splitted,
		PreForkingDepth: r.PreForkingDepth,
		Key:             key,
		Proof:           r.Proof,
		RootN:           r.RootN,
		PriorLeafHash:   r.PriorLeafHash,
	}, nil
}

// State is the driver position persisted after each committed mutation.
type State struct {
	// Seq is the number of mutations applied.
	Seq     uint64     `cbor:"1,keyasint"`
	LogSize uint64     `cbor:"2,keyasint"`
	Root    jmt.Digest `cbor:"3,keyasint"`
	// Rows is the number of input rows consumed, skipped rows included.
	Rows uint64 `cbor:"4,keyasint"`
	// Documents is the number of export documents on disk.
	Documents uint64 `cbor:"5,keyasint"`
	// Mode and Source identify the run that owns the archive. A run in
	// another mode or over another input must not resume from it.
	Mode   string `cbor:"6,keyasint"`
	Source string `cbor:"7,keyasint"`
}
