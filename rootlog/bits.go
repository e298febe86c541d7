package rootlog

import "math/bits"

// IndexHeight returns the height of the node at mmr index i. Leaves are at
// height 0.
//
// Converted to a one based position, the left most node of every height is
// all ones in binary. Any other position can be moved left onto its all ones
// counterpart by subtracting the size of the perfect tree that precedes it.
func IndexHeight(i uint64) uint64 {
	pos := i + 1
	for !allOnes(pos) {
		pos -= (uint64(1) << (bits.Len64(pos) - 1)) - 1
	}
	return uint64(bits.Len64(pos)) - 1
}

func allOnes(v uint64) bool {
	return v != 0 && v&(v+1) == 0
}

// ValidSize reports whether size is the size of a complete mmr, one where
// every interior node that can be added has been.
func ValidSize(size uint64) bool {
	return IndexHeight(size) == 0
}

// PeaksBitmap returns a value whose set bits are the heights of the peaks of
// an mmr of the given size. The value is also the leaf count. For an invalid
// size the largest valid size below it is used.
func PeaksBitmap(size uint64) uint64 {
	if size == 0 {
		return 0
	}
	var (
		peakSize = ^uint64(0) >> bits.LeadingZeros64(size)
		rest     = size
		bitmap   uint64
	)
	for peakSize > 0 {
		bitmap <<= 1
		if rest >= peakSize {
			rest -= peakSize
			bitmap |= 1
		}
		peakSize >>= 1
	}
	return bitmap
}

// LeafCount is PeaksBitmap under the name most callers want.
func LeafCount(size uint64) uint64 { return PeaksBitmap(size) }

// MMRIndex returns the mmr index of the leaf with the given leaf index.
func MMRIndex(leafIndex uint64) uint64 {
	return SizeForLeaves(leafIndex)
}

// SizeForLeaves returns the size of the mmr holding exactly n leaves.
func SizeForLeaves(n uint64) uint64 {
	return 2*n - uint64(bits.OnesCount64(n))
}

// FirstMMRSize returns the smallest valid size that includes index i.
func FirstMMRSize(i uint64) uint64 {
	for IndexHeight(i+1) > IndexHeight(i) {
		i++
	}
	return i + 1
}

// LeafIndex returns the leaf index of the leaf at mmr index i, or of the last
// leaf added before the interior node at i.
func LeafIndex(i uint64) uint64 {
	return LeafCount(FirstMMRSize(i)) - 1
}

// PeakIndex returns the position, in the highest first list of peaks, of the
// peak at the given height. ok is false if the bitmap has no such peak.
func PeakIndex(bitmap uint64, height uint64) (int, bool) {
	if height >= 64 || bitmap&(uint64(1)<<height) == 0 {
		return 0, false
	}
	return bits.OnesCount64(bitmap >> (height + 1)), true
}
