package rootlog

import "hash"

// Peaks returns the indices of the peaks of an mmr of the given size, highest
// (and left most) first. It returns nil for an empty or invalid size.
func Peaks(size uint64) []uint64 {
	if size == 0 || !ValidSize(size) {
		return nil
	}
	bitmap := PeaksBitmap(size)

	var (
		peaks []uint64
		start uint64
	)
	for h := 63; h >= 0; h-- {
		if bitmap&(uint64(1)<<h) == 0 {
			continue
		}
		mountain := (uint64(2) << h) - 1
		peaks = append(peaks, start+mountain-1)
		start += mountain
	}
	return peaks
}

// PeakHashes reads the peak values of an mmr of the given size from store.
func PeakHashes(store NodeGetter, size uint64) ([][]byte, error) {
	peaks := Peaks(size)
	if peaks == nil && size != 0 {
		return nil, ErrInvalidSize
	}
	out := make([][]byte, 0, len(peaks))
	for _, i := range peaks {
		v, err := store.Get(i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// BagPeaks folds peaks right to left into a single root:
//
//	H( peak0 || H( peak1 || ... H( peakN-1 || peakN ) ) )
//
// A single peak is its own root. No peaks yields nil.
func BagPeaks(hasher hash.Hash, peaks [][]byte) []byte {
	if len(peaks) == 0 {
		return nil
	}
	root := peaks[len(peaks)-1]
	for i := len(peaks) - 2; i >= 0; i-- {
		hasher.Reset()
		hasher.Write(peaks[i])
		hasher.Write(root)
		root = hasher.Sum(nil)
	}
	return root
}
