package jmt

import (
	"bytes"
	"encoding/hex"
)

// NibblePath is an ordered sequence of 4 bit nibbles, packed two per byte
// with the high nibble first. A path with an odd length leaves the low
// nibble of its last byte zero.
type NibblePath struct {
	packed  []byte
	nibbles int
}

// NewNibblePath takes ownership of packed and exposes its first n nibbles.
// Any trailing nibble beyond n is cleared so that equal paths have equal
// bytes.
func NewNibblePath(packed []byte, n int) (NibblePath, error) {
	if n < 0 || (n+1)/2 > len(packed) {
		return NibblePath{}, ErrBadKeyLength
	}
	p := NibblePath{packed: packed[:(n+1)/2], nibbles: n}
	if n%2 == 1 {
		p.packed[n/2] &= 0xf0
	}
	return p, nil
}

// PathFromNibbles packs one nibble per input byte.
func PathFromNibbles(nibbles []uint8) (NibblePath, error) {
	packed := make([]byte, (len(nibbles)+1)/2)
	for i, n := range nibbles {
		if n >= Radix {
			return NibblePath{}, ErrBadNibble
		}
		if i%2 == 0 {
			packed[i/2] = n << 4
		} else {
			packed[i/2] |= n
		}
	}
	return NibblePath{packed: packed, nibbles: len(nibbles)}, nil
}

// Len returns the number of nibbles.
func (p NibblePath) Len() int { return p.nibbles }

func (p NibblePath) IsEmpty() bool { return p.nibbles == 0 }

// At returns nibble i. The caller guarantees i < Len().
func (p NibblePath) At(i int) uint8 {
	b := p.packed[i/2]
	if i%2 == 0 {
		return b >> 4
	}
	return b & 0x0f
}

// Bytes returns the packed representation. The slice must not be modified.
func (p NibblePath) Bytes() []byte { return p.packed }

func (p NibblePath) Equal(o NibblePath) bool {
	return p.nibbles == o.nibbles && bytes.Equal(p.packed, o.packed)
}

// Clone returns a path that shares no storage with p.
func (p NibblePath) Clone() NibblePath {
	return NibblePath{packed: bytes.Clone(p.packed), nibbles: p.nibbles}
}

// CommonPrefixLen returns the length of the longest common nibble prefix of
// p and o, comparing from nibble position from onwards. Positions before from
// are assumed equal.
func (p NibblePath) CommonPrefixLen(o NibblePath, from int) int {
	n := min(p.nibbles, o.nibbles)
	i := from
	for i < n && p.At(i) == o.At(i) {
		i++
	}
	return i
}

// Expand returns nibbles [from, Len()) as one byte per nibble.
func (p NibblePath) Expand(from int) []byte {
	if from >= p.nibbles {
		return nil
	}
	out := make([]byte, 0, p.nibbles-from)
	for i := from; i < p.nibbles; i++ {
		out = append(out, p.At(i))
	}
	return out
}

// String renders the path as hex, one character per nibble.
func (p NibblePath) String() string {
	s := hex.EncodeToString(p.packed)
	return s[:p.nibbles]
}
