package bloom

import "math"

// MBitsV1 returns the bits per filter for capacity elements at bitsPerElement,
// or ErrMBitsOverflow when that does not fit the 32 bit header field.
func MBitsV1(capacity uint64, bitsPerElement uint64) (uint32, error) {
	if capacity == 0 || bitsPerElement == 0 {
		return 0, ErrBadMBits
	}
	if bitsPerElement > math.MaxUint32 || capacity > math.MaxUint32/bitsPerElement {
		return 0, ErrMBitsOverflow
	}
	return uint32(capacity * bitsPerElement), nil
}

// BitsetBytesV1 returns ceil(mBits/8).
func BitsetBytesV1(mBits uint32) uint32 {
	return uint32((uint64(mBits) + 7) / 8)
}

// RegionBytesV1 returns the length of a region holding all filters:
//
//	HeaderBytesV1 + Filters*ceil(mBits/8)
func RegionBytesV1(mBits uint32) uint64 {
	return HeaderBytesV1 + uint64(Filters)*uint64(BitsetBytesV1(mBits))
}

// OptimalK returns the hash count minimizing false positives for the given
// bits per element, round(bitsPerElement * ln 2), at least 1.
func OptimalK(bitsPerElement uint64) uint8 {
	k := math.Round(float64(bitsPerElement) * math.Ln2)
	switch {
	case k < 1:
		return 1
	case k > math.MaxUint8:
		return math.MaxUint8
	}
	return uint8(k)
}

func bitsetSpan(filter uint8, mBits uint32) (uint64, uint64, error) {
	if filter >= Filters {
		return 0, 0, ErrBadFilterIndex
	}
	n := uint64(BitsetBytesV1(mBits))
	off := HeaderBytesV1 + uint64(filter)*n
	return off, off + n, nil
}
