package bloom

import "errors"

const (
	// ElementBytes is the width of every filter element, one trie digest.
	ElementBytes = 32

	// Filters is the number of bitsets sharing a region.
	Filters uint8 = 4

	HeaderBytesV1 = 32

	MagicV1         = "JMB1"
	VersionV1 uint8 = 1

	// BitOrderLSB0 means bit 0 is the least significant bit of byte 0.
	BitOrderLSB0 uint8 = 0
)

// Filter assignments within a region.
const (
	// FilterMinted holds identifiers that have been minted at least once.
	FilterMinted uint8 = iota
	// FilterProofs holds keys with an archived proof.
	FilterProofs
	// FilterAncestry holds keys with an archived ancestry record.
	FilterAncestry
	// FilterCheckpoints holds sequence numbers with a signed checkpoint.
	FilterCheckpoints
)

var (
	ErrBadElemSize    = errors.New("bloom: element must be 32 bytes")
	ErrBadFilterIndex = errors.New("bloom: invalid filter index")
	ErrBadRegionSize  = errors.New("bloom: region buffer too small")
	ErrNotInitialized = errors.New("bloom: header not initialized")

	ErrBadMagic    = errors.New("bloom: header magic invalid")
	ErrBadVersion  = errors.New("bloom: header version invalid")
	ErrBadBitOrder = errors.New("bloom: header bit order unsupported")
	ErrBadK        = errors.New("bloom: header k invalid")
	ErrBadFilters  = errors.New("bloom: header filter count invalid")
	ErrBadMBits    = errors.New("bloom: header mBits invalid")

	ErrMBitsOverflow = errors.New("bloom: mBits overflows supported range")
)

// HeaderV1 is the fixed 32 byte region header:
//
//	0:4   magic "JMB1"
//	4     version
//	5     bit order
//	6     k, hash functions per element
//	7     filter count
//	8:12  mBits, bits per filter (big endian)
//	12:16 inserted, best effort insert counter (big endian)
//	16:32 zero
type HeaderV1 struct {
	BitOrder uint8
	K        uint8
	MBits    uint32
	Inserted uint32
}
