package bloom

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

const domainV1 = 0xB1

// Region owns a serialized V1 region: the header followed by Filters
// bitsets of identical size. The bytes are what gets persisted.
type Region struct {
	buf []byte
	h   HeaderV1
}

// NewRegion allocates and initializes a region sized for capacity elements
// per filter. A zero k selects OptimalK(bitsPerElement).
func NewRegion(capacity, bitsPerElement uint64, k uint8) (*Region, error) {
	mBits, err := MBitsV1(capacity, bitsPerElement)
	if err != nil {
		return nil, err
	}
	if k == 0 {
		k = OptimalK(bitsPerElement)
	}
	buf := make([]byte, RegionBytesV1(mBits))
	if err := InitV1(buf, mBits, k); err != nil {
		return nil, err
	}
	return LoadRegion(buf)
}

// LoadRegion wraps a previously persisted region. buf is used in place.
func LoadRegion(buf []byte) (*Region, error) {
	h, ok, err := DecodeHeaderV1(buf)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	if uint64(len(buf)) < RegionBytesV1(h.MBits) {
		return nil, ErrBadRegionSize
	}
	return &Region{buf: buf, h: h}, nil
}

// Bytes returns the serialized region, header included.
func (r *Region) Bytes() []byte { return r.buf }

func (r *Region) Header() HeaderV1 { return r.h }

// Insert adds elem to filter and bumps the header counter.
func (r *Region) Insert(filter uint8, elem []byte) error {
	if err := setV1(r.buf, r.h, filter, elem); err != nil {
		return err
	}
	r.h.Inserted++
	return EncodeHeaderV1(r.buf, r.h)
}

// MaybeContains returns false only if elem was never inserted into filter.
func (r *Region) MaybeContains(filter uint8, elem []byte) (bool, error) {
	return testV1(r.buf, r.h, filter, elem)
}

// InsertKey and MaybeContainsKey accept arbitrary length keys by first
// reducing them with Element.
func (r *Region) InsertKey(filter uint8, key []byte) error {
	e := Element(key)
	return r.Insert(filter, e[:])
}

func (r *Region) MaybeContainsKey(filter uint8, key []byte) (bool, error) {
	e := Element(key)
	return r.MaybeContains(filter, e[:])
}

// Element reduces an arbitrary key to a filter element: Keccak-256 of the key.
func Element(key []byte) [ElementBytes]byte {
	var out [ElementBytes]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(key)
	h.Sum(out[:0])
	return out
}

// InitV1 clears region and writes a header for mBits per filter.
func InitV1(region []byte, mBits uint32, k uint8) error {
	if mBits == 0 {
		return ErrBadMBits
	}
	need := RegionBytesV1(mBits)
	if uint64(len(region)) < need {
		return ErrBadRegionSize
	}
	clear(region[:need])
	return EncodeHeaderV1(region, HeaderV1{BitOrder: BitOrderLSB0, K: k, MBits: mBits})
}

// InsertV1 is the stateless form of Region.Insert.
func InsertV1(region []byte, filter uint8, elem []byte) error {
	r, err := LoadRegion(region)
	if err != nil {
		return err
	}
	return r.Insert(filter, elem)
}

// MaybeContainsV1 is the stateless form of Region.MaybeContains.
func MaybeContainsV1(region []byte, filter uint8, elem []byte) (bool, error) {
	r, err := LoadRegion(region)
	if err != nil {
		return false, err
	}
	return r.MaybeContains(filter, elem)
}

func setV1(region []byte, h HeaderV1, filter uint8, elem []byte) error {
	bitset, err := bitsetV1(region, h, filter, elem)
	if err != nil {
		return err
	}
	h1, h2 := hashPairV1(filter, elem)
	for i := uint64(0); i < uint64(h.K); i++ {
		j := (h1 + i*h2) % uint64(h.MBits)
		bitset[j>>3] |= 1 << (j & 7)
	}
	return nil
}

func testV1(region []byte, h HeaderV1, filter uint8, elem []byte) (bool, error) {
	bitset, err := bitsetV1(region, h, filter, elem)
	if err != nil {
		return false, err
	}
	h1, h2 := hashPairV1(filter, elem)
	for i := uint64(0); i < uint64(h.K); i++ {
		j := (h1 + i*h2) % uint64(h.MBits)
		if bitset[j>>3]&(1<<(j&7)) == 0 {
			return false, nil
		}
	}
	return true, nil
}

func bitsetV1(region []byte, h HeaderV1, filter uint8, elem []byte) ([]byte, error) {
	if len(elem) != ElementBytes {
		return nil, ErrBadElemSize
	}
	start, end, err := bitsetSpan(filter, h.MBits)
	if err != nil {
		return nil, err
	}
	if uint64(len(region)) < end {
		return nil, ErrBadRegionSize
	}
	return region[start:end], nil
}

// hashPairV1 derives the double hashing pair from
//
//	Keccak-256( 0xB1 || filter || elem )
//
// h2 is forced odd so it never collapses the index sequence.
func hashPairV1(filter uint8, elem []byte) (h1, h2 uint64) {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte{domainV1, filter})
	h.Write(elem)
	var sum [32]byte
	h.Sum(sum[:0])
	return binary.BigEndian.Uint64(sum[0:8]), binary.BigEndian.Uint64(sum[8:16]) | 1
}
